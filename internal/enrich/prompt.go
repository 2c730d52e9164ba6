package enrich

import (
	"fmt"
	"strings"
)

const companySchema = `{
  "companyName": "", "website": "", "industry": "", "description": "",
  "valueProposition": "", "founded": "", "location": "", "size": "",
  "mission": "", "vision": "",
  "email": "", "phone": "", "address": "",
  "linkedinUrl": "", "twitterUrl": "", "facebookUrl": "", "instagramUrl": "", "youtubeUrl": "",
  "services": [{"name": "", "description": "", "tags": [], "pricing": ""}],
  "leadership": [{"name": "", "role": "", "bio": "", "linkedinUrl": "", "email": "", "experience": "", "education": "", "skills": []}],
  "blogs": [{"title": "", "url": "", "date": "", "summary": "", "author": ""}],
  "technology": {"stack": [], "partners": [], "integrations": []}
}`

const clientSchema = `{
  "company": "", "website": "", "industry": "", "description": "",
  "founded": "", "companySize": "", "employeeCount": "", "annualRevenue": "",
  "city": "", "country": "", "zipCode": "",
  "linkedinUrl": "", "twitterUrl": "", "facebookUrl": "", "instagramUrl": "",
  "contactName": "", "primaryEmail": "", "primaryPhone": "", "jobTitle": "",
  "services": [{"name": "", "description": ""}],
  "technologies": [{"name": "", "category": ""}],
  "painPoints": [],
  "competitors": [{"name": "", "comparison": ""}],
  "blogs": [{"title": "", "url": "", "date": ""}],
  "shortTermGoals": "", "longTermGoals": ""
}`

// companyPrompt frames a company-mode extraction request.
func companyPrompt(id Identity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research the company %q (website: %s)", id.Name, id.Website)
	if id.LinkedinURL != "" {
		fmt.Fprintf(&b, ", LinkedIn: %s", id.LinkedinURL)
	}
	if id.Industry != "" {
		fmt.Fprintf(&b, ", industry: %s", id.Industry)
	}
	b.WriteString(".\n\n")
	b.WriteString("Compile a complete company profile. Respond with a single JSON object ")
	b.WriteString("matching this exact shape, with no commentary before or after it:\n\n")
	b.WriteString(companySchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Use the empty string for any scalar you cannot determine; use [] for empty lists. Never use null.\n")
	b.WriteString("- Include only facts you can attribute to this specific company.\n")
	b.WriteString("- URLs must be full absolute URLs.\n")
	b.WriteString("- Dates in YYYY-MM-DD where known.\n")
	return b.String()
}

// clientPrompt frames a client-mode extraction request.
func clientPrompt(id Identity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research the business %q (website: %s)", id.Name, id.Website)
	if id.LinkedinURL != "" {
		fmt.Fprintf(&b, ", LinkedIn: %s", id.LinkedinURL)
	}
	if id.Industry != "" {
		fmt.Fprintf(&b, ", industry: %s", id.Industry)
	}
	b.WriteString(" as a prospective client.\n\n")
	b.WriteString("Build a sales-oriented profile: firmographics, primary contact, tech stack, ")
	b.WriteString("likely pain points, competitors, and stated goals. Respond with a single JSON ")
	b.WriteString("object matching this exact shape, with no commentary before or after it:\n\n")
	b.WriteString(clientSchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Use the empty string for any scalar you cannot determine; use [] for empty lists. Never use null.\n")
	b.WriteString("- Do not invent contact details; leave them empty if unverifiable.\n")
	b.WriteString("- URLs must be full absolute URLs.\n")
	return b.String()
}

// verifyPrompt frames the cleanup pass over a freshly fetched record.
func verifyPrompt(id Identity, raw string) string {
	var b strings.Builder
	b.WriteString("Below is a freshly researched company profile. Clean and verify it.\n\n")
	fmt.Fprintf(&b, "The caller claims this is %q", id.Name)
	fmt.Fprintf(&b, " with website %s", id.Website)
	if id.LinkedinURL != "" {
		fmt.Fprintf(&b, " and LinkedIn %s", id.LinkedinURL)
	}
	b.WriteString(".\n\nProfile:\n")
	b.WriteString(raw)
	b.WriteString("\n\nTasks:\n")
	b.WriteString("- Remove entries that are exact duplicates or obvious placeholder/example data. ")
	b.WriteString("Keep every other entry, including ones with some empty optional fields.\n")
	b.WriteString("- Reformat dates to YYYY-MM-DD, phone numbers to a consistent shape, and URLs to absolute form.\n")
	b.WriteString("- Cross-check companyName, website, and linkedinUrl against the caller's claims; ")
	b.WriteString("flag any field you cannot confirm belongs to this company.\n\n")
	b.WriteString("Respond with a single JSON object, no commentary:\n\n")
	b.WriteString(`{
  "company": ` + companySchema + `,
  "verification": {
    "confidenceScore": 0,
    "verifiedFields": [],
    "flaggedFields": [{"field": "", "reason": "", "severity": "low|medium|high"}],
    "verificationReport": ""
  }
}`)
	return b.String()
}
