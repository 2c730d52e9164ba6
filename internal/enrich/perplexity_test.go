package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personapro/enrich/internal/fault"
)

func TestCompanyFromPerplexity(t *testing.T) {
	search := &fakeSearch{
		reply: `{"companyName": "Acme", "website": "https://acme.com", "industry": "Manufacturing"}`,
		model: "sonar-pro",
	}

	res, err := CompanyFromPerplexity(context.Background(), search, Identity{
		Name: "Acme", Website: "https://acme.com", Industry: "Manufacturing",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Record.CompanyName)
	// modelUsed reflects the model the API served, not a default.
	assert.Equal(t, "sonar-pro", res.ModelUsed)
}

func TestCompanyFromPerplexityModelFallback(t *testing.T) {
	search := &fakeSearch{reply: `{"companyName": "Acme"}`}

	res, err := CompanyFromPerplexity(context.Background(), search, Identity{
		Name: "Acme", Website: "https://acme.com", Industry: "Manufacturing",
	})
	require.NoError(t, err)
	assert.Equal(t, "sonar", res.ModelUsed)
}

func TestCompanyFromPerplexity_MissingDisambiguator(t *testing.T) {
	search := &fakeSearch{reply: `{"companyName": "Acme"}`}
	_, err := CompanyFromPerplexity(context.Background(), search, Identity{
		Name: "Acme", Website: "https://acme.com",
	})

	var v *fault.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "linkedinUrl", v.Field)
	assert.Zero(t, search.calls)
}

func TestClientFromPerplexity(t *testing.T) {
	search := &fakeSearch{
		reply: `{"company": "Acme", "website": "https://acme.com", "painPoints": ["churn"]}`,
		model: "sonar",
	}

	res, err := ClientFromPerplexity(context.Background(), search, Identity{
		Name: "Acme", Website: "https://acme.com", LinkedinURL: "https://linkedin.com/company/acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Record.Company)
	assert.Equal(t, "sonar", res.ModelUsed)
}

func TestClientFromPerplexity_RequiresLinkedin(t *testing.T) {
	search := &fakeSearch{reply: `{"company": "Acme"}`}
	_, err := ClientFromPerplexity(context.Background(), search, Identity{
		Name: "Acme", Website: "https://acme.com", Industry: "Manufacturing",
	})

	var v *fault.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "linkedinUrl", v.Field)
	assert.Zero(t, search.calls)
}
