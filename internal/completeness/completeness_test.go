package completeness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/personapro/enrich/internal/model"
)

func TestCompanyEmpty(t *testing.T) {
	r := Company(&model.CompanyProfile{})
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, 18, r.TotalFields)
	assert.Equal(t, 6, r.ArrayFields)
	assert.Equal(t, 0, r.PopulatedFields)
	assert.Equal(t, 0, r.PopulatedArrays)
}

func TestCompanyFull(t *testing.T) {
	p := &model.CompanyProfile{
		CompanyName:      "Acme",
		Website:          "https://acme.com",
		Industry:         "Manufacturing",
		Description:      "Makes everything",
		ValueProposition: "One stop shop",
		Founded:          "1947",
		Location:         "Albuquerque, NM",
		Size:             "201-500",
		Mission:          "Deliver anvils",
		Vision:           "Anvils everywhere",
		Email:            "hello@acme.com",
		Phone:            "+1 555 0100",
		Address:          "1 Mesa Rd",
		LinkedinURL:      "https://linkedin.com/company/acme",
		TwitterURL:       "https://twitter.com/acme",
		FacebookURL:      "https://facebook.com/acme",
		InstagramURL:     "https://instagram.com/acme",
		YoutubeURL:       "https://youtube.com/@acme",
		Services:         []model.Service{{Name: "Anvils"}},
		Leadership:       []model.Leader{{Name: "W. E. Coyote", Role: "CEO"}},
		Blogs:            []model.BlogPost{{Title: "Anvil care", URL: "https://acme.com/blog/anvil-care"}},
		Technology: model.Technology{
			Stack:        []string{"Go"},
			Partners:     []string{"Roadrunner Inc"},
			Integrations: []string{"Salesforce"},
		},
	}
	r := Company(p)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, 18, r.PopulatedFields)
	assert.Equal(t, 6, r.PopulatedArrays)
}

func TestCompanyCollectionLengthIgnored(t *testing.T) {
	one := Company(&model.CompanyProfile{Services: []model.Service{{Name: "A"}}})
	many := Company(&model.CompanyProfile{Services: []model.Service{{Name: "A"}, {Name: "B"}, {Name: "C"}}})
	assert.Equal(t, one.Score, many.Score)
	assert.Equal(t, 1, one.PopulatedArrays)
}

func TestGeneric(t *testing.T) {
	fields := map[string]any{
		"company":     "Acme",
		"website":     "https://acme.com",
		"industry":    "Manufacturing",
		"description": "Makes everything",
		"founded":     "",
		"city":        "",
		"country":     "",
		"zipCode":     "",
		"linkedinUrl": "",
		"twitterUrl":  "",
		"contactName": "",
		"email":       "",
		"phone":       "",
		"jobTitle":    "",
		"shortTerm":   "",
		"longTerm":    "",
		"services":    []any{map[string]any{"name": "Anvils"}},
		"painPoints":  []any{},
		"competitors": []any{},
		"blogs":       []any{},
	}
	r := Generic(fields)
	assert.Equal(t, 25, r.Score)
	assert.Equal(t, 4, r.PopulatedFields)
	assert.Equal(t, 1, r.PopulatedArrays)
	assert.Equal(t, 16, r.TotalFields)
	assert.Equal(t, 4, r.ArrayFields)
}

func TestGenericEmptyObject(t *testing.T) {
	r := Generic(map[string]any{})
	assert.Equal(t, 0, r.Score)
}

func TestGenericBounds(t *testing.T) {
	r := Generic(map[string]any{"a": "x", "b": nil, "c": 3.0})
	assert.GreaterOrEqual(t, r.Score, 0)
	assert.LessOrEqual(t, r.Score, 100)
}

func TestClientProfile(t *testing.T) {
	p := &model.ClientProfile{Company: "Acme", Website: "https://acme.com"}
	p.Normalize()
	r := Client(p)
	assert.Greater(t, r.Score, 0)
	assert.Less(t, r.Score, 100)
}
