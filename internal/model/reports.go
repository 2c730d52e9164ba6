package model

// CompletenessReport summarizes how much of a record is filled in. Always
// recomputed from a record, never persisted on its own.
type CompletenessReport struct {
	Score           int `json:"score"`
	PopulatedFields int `json:"populatedFields"`
	TotalFields     int `json:"totalFields"`
	PopulatedArrays int `json:"populatedArrays"`
	ArrayFields     int `json:"arrayFields"`
}

// ComparisonResult is the judge's verdict on two enrichment results for the
// same subject. The per-source maps are keyed by the compared source ids
// (e.g. "openai", "gemini"). RecommendedModel is always one of the two
// compared source ids; the comparator falls back to completeness when the
// judge misbehaves.
type ComparisonResult struct {
	RecommendedModel string              `json:"recommendedModel"`
	Score            map[string]int      `json:"score"`
	Reasoning        string              `json:"reasoning"`
	Strengths        map[string][]string `json:"strengths"`
	Weaknesses       map[string][]string `json:"weaknesses"`
	Completeness     map[string]int      `json:"completeness"`
	KeyDifferences   []string            `json:"keyDifferences"`
}

// Normalize clamps scores into [0,100] and ensures every source listed has an
// entry in every per-source map, every collection encodes as [], and every
// string has a readable default.
func (r *ComparisonResult) Normalize(sources ...string) {
	if r.Score == nil {
		r.Score = map[string]int{}
	}
	if r.Completeness == nil {
		r.Completeness = map[string]int{}
	}
	if r.Strengths == nil {
		r.Strengths = map[string][]string{}
	}
	if r.Weaknesses == nil {
		r.Weaknesses = map[string][]string{}
	}
	for k, v := range r.Score {
		r.Score[k] = clamp(v)
	}
	for k, v := range r.Completeness {
		r.Completeness[k] = clamp(v)
	}
	for _, src := range sources {
		if _, ok := r.Score[src]; !ok {
			r.Score[src] = 0
		}
		if _, ok := r.Completeness[src]; !ok {
			r.Completeness[src] = 0
		}
		if r.Strengths[src] == nil {
			r.Strengths[src] = []string{}
		}
		if r.Weaknesses[src] == nil {
			r.Weaknesses[src] = []string{}
		}
	}
	if r.KeyDifferences == nil {
		r.KeyDifferences = []string{}
	}
	if r.Reasoning == "" {
		r.Reasoning = "Unable to determine recommendation"
	}
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// FlaggedField marks a record field the verification pass could not confirm.
type FlaggedField struct {
	Field    string `json:"field"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// VerificationReport is produced by the second stage of the normalization
// pipeline. Single-shot output, never mutated after creation.
type VerificationReport struct {
	ConfidenceScore    int            `json:"confidenceScore"`
	VerifiedFields     []string       `json:"verifiedFields"`
	FlaggedFields      []FlaggedField `json:"flaggedFields"`
	VerificationReport string         `json:"verificationReport"`
}

// Normalize clamps the confidence score and ensures collections encode as [].
func (r *VerificationReport) Normalize() {
	r.ConfidenceScore = clamp(r.ConfidenceScore)
	if r.VerifiedFields == nil {
		r.VerifiedFields = []string{}
	}
	if r.FlaggedFields == nil {
		r.FlaggedFields = []FlaggedField{}
	}
}

// ClientUpdate carries the flattened organization fields written back to the
// clients table after a structured-source resolution, alongside the raw
// provider payload retained under apollo_data for fields without first-class
// columns.
type ClientUpdate struct {
	ClientID      string         `json:"client_id"`
	Company       string         `json:"company"`
	Website       string         `json:"website"`
	Industry      string         `json:"industry"`
	Description   string         `json:"description"`
	Founded       string         `json:"founded"`
	EmployeeCount string         `json:"employee_count"`
	AnnualRevenue string         `json:"annual_revenue"`
	City          string         `json:"city"`
	Country       string         `json:"country"`
	ZipCode       string         `json:"zip_code"`
	PrimaryPhone  string         `json:"primary_phone"`
	LinkedinURL   string         `json:"linkedin_url"`
	TwitterURL    string         `json:"twitter_url"`
	FacebookURL   string         `json:"facebook_url"`
	Keywords      []string       `json:"keywords"`
	ProviderData  map[string]any `json:"apollo_data"`
}

// RejectStats counts people excluded by the admission filter, keyed by the
// first reason that applied.
type RejectStats struct {
	MissingEmail int `json:"missingEmail"`
	MissingName  int `json:"missingName"`
	MissingTitle int `json:"missingTitle"`
}

// Total is the number of rejected candidates.
func (s RejectStats) Total() int {
	return s.MissingEmail + s.MissingName + s.MissingTitle
}

// PeopleResult is the outcome of a people resolution run.
type PeopleResult struct {
	Contacts      []Contact   `json:"contacts"`
	TotalFound    int         `json:"totalFound"`
	TotalAdmitted int         `json:"totalAdmitted"`
	Filtered      RejectStats `json:"filteredStats"`
}
