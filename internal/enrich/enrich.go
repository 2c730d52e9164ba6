// Package enrich implements the provider adapters: each one asks a single
// external source about a company, parses the response into the canonical
// record, and scores it. Adapters never persist anything; the caller decides
// what to do with the result.
package enrich

import (
	"encoding/json"
	"strings"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
	"github.com/personapro/enrich/internal/normalize"
)

// Identity is the caller-supplied description of the company to enrich.
type Identity struct {
	Name        string `json:"companyName"`
	Website     string `json:"website"`
	LinkedinURL string `json:"linkedinUrl,omitempty"`
	Industry    string `json:"industry,omitempty"`
}

// Validate checks the required identity fields. Name and website alone are
// not enough to pin down which company is meant: at least one of
// linkedinUrl/industry must accompany them. When requireLinkedin is set,
// linkedinUrl itself is mandatory.
func (i Identity) Validate(requireLinkedin bool) error {
	if strings.TrimSpace(i.Name) == "" {
		return &fault.ValidationError{Field: "companyName"}
	}
	if strings.TrimSpace(i.Website) == "" {
		return &fault.ValidationError{Field: "website"}
	}
	if requireLinkedin && strings.TrimSpace(i.LinkedinURL) == "" {
		return &fault.ValidationError{Field: "linkedinUrl"}
	}
	if strings.TrimSpace(i.LinkedinURL) == "" && strings.TrimSpace(i.Industry) == "" {
		return &fault.ValidationError{Field: "linkedinUrl", Message: "provide linkedinUrl or industry"}
	}
	return nil
}

// CompanyResult is a company-mode adapter's output.
type CompanyResult struct {
	Record        model.CompanyProfile     `json:"record"`
	Completeness  model.CompletenessReport `json:"completeness"`
	ModelUsed     string                   `json:"modelUsed"`
	APIDurationMs int64                    `json:"apiDurationMs"`
}

// ClientResult is a client-mode adapter's output.
type ClientResult struct {
	Record        model.ClientProfile      `json:"record"`
	Completeness  model.CompletenessReport `json:"completeness"`
	ModelUsed     string                   `json:"modelUsed"`
	APIDurationMs int64                    `json:"apiDurationMs"`
}

// cleanJSON strips markdown code fences and any prose around the outermost
// JSON object before parsing.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// parseCompanyRecord converts raw model output into a canonical company
// profile. Every field is coerced through the normalizer so null and
// mistyped values land as empty defaults, and URLs are rewritten absolute.
func parseCompanyRecord(provider, text string) (model.CompanyProfile, error) {
	var p model.CompanyProfile

	var m map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(text)), &m); err != nil {
		return p, &fault.ParseError{Provider: provider, Err: err}
	}

	p = model.CompanyProfile{
		CompanyName:      normalize.Scalar(m["companyName"]),
		Website:          normalize.Scalar(m["website"]),
		Industry:         normalize.Scalar(m["industry"]),
		Description:      normalize.Scalar(m["description"]),
		ValueProposition: normalize.Scalar(m["valueProposition"]),
		Founded:          normalize.Scalar(m["founded"]),
		Location:         normalize.Scalar(m["location"]),
		Size:             normalize.Scalar(m["size"]),
		Mission:          normalize.Scalar(m["mission"]),
		Vision:           normalize.Scalar(m["vision"]),
		Email:            normalize.Scalar(m["email"]),
		Phone:            normalize.Scalar(m["phone"]),
		Address:          normalize.Scalar(m["address"]),
		LinkedinURL:      normalize.Scalar(m["linkedinUrl"]),
		TwitterURL:       normalize.Scalar(m["twitterUrl"]),
		FacebookURL:      normalize.Scalar(m["facebookUrl"]),
		InstagramURL:     normalize.Scalar(m["instagramUrl"]),
		YoutubeURL:       normalize.Scalar(m["youtubeUrl"]),
	}

	for _, item := range objects(m["services"]) {
		p.Services = append(p.Services, model.Service{
			Name:        normalize.Scalar(item["name"]),
			Description: normalize.Scalar(item["description"]),
			Tags:        normalize.Strings(item["tags"]),
			Pricing:     normalize.Scalar(item["pricing"]),
		})
	}
	for _, item := range objects(m["leadership"]) {
		p.Leadership = append(p.Leadership, model.Leader{
			Name:        normalize.Scalar(item["name"]),
			Role:        normalize.Scalar(item["role"]),
			Bio:         normalize.Scalar(item["bio"]),
			LinkedinURL: normalize.Scalar(item["linkedinUrl"]),
			Email:       normalize.Scalar(item["email"]),
			Experience:  normalize.Scalar(item["experience"]),
			Education:   normalize.Scalar(item["education"]),
			Skills:      normalize.Strings(item["skills"]),
		})
	}
	for _, item := range objects(m["blogs"]) {
		p.Blogs = append(p.Blogs, model.BlogPost{
			Title:   normalize.Scalar(item["title"]),
			URL:     normalize.Scalar(item["url"]),
			Date:    normalize.Scalar(item["date"]),
			Summary: normalize.Scalar(item["summary"]),
			Author:  normalize.Scalar(item["author"]),
		})
	}
	if tech, ok := m["technology"].(map[string]any); ok {
		p.Technology = model.Technology{
			Stack:        normalize.Strings(tech["stack"]),
			Partners:     normalize.Strings(tech["partners"]),
			Integrations: normalize.Strings(tech["integrations"]),
		}
	}

	normalize.Company(&p)
	return p, nil
}

// parseClientRecord converts raw model output into a canonical client
// profile.
func parseClientRecord(provider, text string) (model.ClientProfile, error) {
	var p model.ClientProfile

	var m map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(text)), &m); err != nil {
		return p, &fault.ParseError{Provider: provider, Err: err}
	}

	p = model.ClientProfile{
		Company:        normalize.Scalar(m["company"]),
		Website:        normalize.Scalar(m["website"]),
		Industry:       normalize.Scalar(m["industry"]),
		Description:    normalize.Scalar(m["description"]),
		Founded:        normalize.Scalar(m["founded"]),
		CompanySize:    normalize.Scalar(m["companySize"]),
		EmployeeCount:  normalize.Scalar(m["employeeCount"]),
		AnnualRevenue:  normalize.Scalar(m["annualRevenue"]),
		City:           normalize.Scalar(m["city"]),
		Country:        normalize.Scalar(m["country"]),
		ZipCode:        normalize.Scalar(m["zipCode"]),
		LinkedinURL:    normalize.Scalar(m["linkedinUrl"]),
		TwitterURL:     normalize.Scalar(m["twitterUrl"]),
		FacebookURL:    normalize.Scalar(m["facebookUrl"]),
		InstagramURL:   normalize.Scalar(m["instagramUrl"]),
		ContactName:    normalize.Scalar(m["contactName"]),
		PrimaryEmail:   normalize.Scalar(m["primaryEmail"]),
		PrimaryPhone:   normalize.Scalar(m["primaryPhone"]),
		JobTitle:       normalize.Scalar(m["jobTitle"]),
		ShortTermGoals: normalize.Scalar(m["shortTermGoals"]),
		LongTermGoals:  normalize.Scalar(m["longTermGoals"]),
		PainPoints:     normalize.Strings(m["painPoints"]),
	}

	for _, item := range objects(m["services"]) {
		p.Services = append(p.Services, model.ClientService{
			Name:        normalize.Scalar(item["name"]),
			Description: normalize.Scalar(item["description"]),
		})
	}
	for _, item := range objects(m["technologies"]) {
		p.Technologies = append(p.Technologies, model.ClientTechnology{
			Name:     normalize.Scalar(item["name"]),
			Category: normalize.Scalar(item["category"]),
		})
	}
	for _, item := range objects(m["competitors"]) {
		p.Competitors = append(p.Competitors, model.Competitor{
			Name:       normalize.Scalar(item["name"]),
			Comparison: normalize.Scalar(item["comparison"]),
		})
	}
	for _, item := range objects(m["blogs"]) {
		p.Blogs = append(p.Blogs, model.ClientBlog{
			Title: normalize.Scalar(item["title"]),
			URL:   normalize.Scalar(item["url"]),
			Date:  normalize.Scalar(item["date"]),
		})
	}

	normalize.Client(&p)
	return p, nil
}

// objects coerces a decoded JSON value to a slice of objects, skipping
// anything that is not an object.
func objects(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
