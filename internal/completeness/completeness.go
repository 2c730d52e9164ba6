// Package completeness scores how much of a canonical record is filled in.
//
// Two weighting modes exist because the two canonical shapes differ in which
// fields are basic vs. complex. Company mode uses a fixed set of buckets;
// client mode iterates whatever top-level keys the record has. A complex
// collection counts as populated iff it is non-empty, regardless of length,
// so verbose sources are not rewarded over precise ones.
package completeness

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/personapro/enrich/internal/model"
)

// Company scores a company profile against the fixed bucket scheme:
// 10 basic fields, 3 contact fields, 5 social fields, and one has-content
// flag for each of the 6 complex collections, 24 slots total.
func Company(p *model.CompanyProfile) model.CompletenessReport {
	scalars := []string{
		p.CompanyName, p.Website, p.Industry, p.Description, p.ValueProposition,
		p.Founded, p.Location, p.Size, p.Mission, p.Vision,
		p.Email, p.Phone, p.Address,
		p.LinkedinURL, p.TwitterURL, p.FacebookURL, p.InstagramURL, p.YoutubeURL,
	}
	populated := 0
	for _, s := range scalars {
		if strings.TrimSpace(s) != "" {
			populated++
		}
	}

	arrays := []bool{
		len(p.Services) > 0,
		len(p.Leadership) > 0,
		len(p.Blogs) > 0,
		len(p.Technology.Stack) > 0,
		len(p.Technology.Partners) > 0,
		len(p.Technology.Integrations) > 0,
	}
	populatedArrays := 0
	for _, has := range arrays {
		if has {
			populatedArrays++
		}
	}

	return model.CompletenessReport{
		Score:           percent(populated+populatedArrays, len(scalars)+len(arrays)),
		PopulatedFields: populated,
		TotalFields:     len(scalars),
		PopulatedArrays: populatedArrays,
		ArrayFields:     len(arrays),
	}
}

// Client scores a client profile generically: every top-level key of the
// record's JSON form is one slot, populated iff a string is non-blank, an
// array is non-empty, or any other value is non-null.
func Client(p *model.ClientProfile) model.CompletenessReport {
	raw, err := json.Marshal(p)
	if err != nil {
		return model.CompletenessReport{}
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.CompletenessReport{}
	}
	return Generic(fields)
}

// Generic scores an arbitrary JSON object with the client-mode rules. An
// object with no keys scores 0, never NaN.
func Generic(fields map[string]any) model.CompletenessReport {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var r model.CompletenessReport
	for _, k := range keys {
		switch v := fields[k].(type) {
		case []any:
			r.ArrayFields++
			if len(v) > 0 {
				r.PopulatedArrays++
			}
		case string:
			r.TotalFields++
			if strings.TrimSpace(v) != "" {
				r.PopulatedFields++
			}
		case nil:
			r.TotalFields++
		default:
			r.TotalFields++
			r.PopulatedFields++
		}
	}
	r.Score = percent(r.PopulatedFields+r.PopulatedArrays, r.TotalFields+r.ArrayFields)
	return r
}

func percent(populated, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(populated) / float64(total) * 100))
}
