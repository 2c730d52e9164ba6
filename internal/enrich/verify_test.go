package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/pkg/perplexity"
)

type fakeSearch struct {
	reply string
	model string
	err   error
	calls int
}

func (f *fakeSearch) ChatCompletion(_ context.Context, _ perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &perplexity.ChatCompletionResponse{
		Model: f.model,
		Choices: []perplexity.Choice{
			{Message: perplexity.Message{Content: f.reply}},
		},
	}, nil
}

const verifierReply = `{
	"company": {
		"companyName": "Acme Corp",
		"website": "https://acme.com",
		"founded": "1947-01-01",
		"leadership": [
			{"name": "Jane Smith", "role": "CEO", "linkedinUrl": "https://linkedin.com/in/janesmith"}
		],
		"blogs": [
			{"title": "Launch", "url": "/blog/launch", "date": "2024-03-01"}
		]
	},
	"verification": {
		"confidenceScore": 130,
		"verifiedFields": ["companyName", "website"],
		"flaggedFields": [
			{"field": "founded", "reason": "no independent source", "severity": "low"}
		],
		"verificationReport": "Identity confirmed via website and LinkedIn."
	}
}`

func TestNormalizeAndVerify(t *testing.T) {
	search := &fakeSearch{reply: `{"companyName": "Acme Corp", "website": "https://acme.com"}`}
	verifier := &fakeOpenAI{content: verifierReply}

	got, err := NormalizeAndVerify(context.Background(), search, verifier, Identity{
		Name: "Acme Corp", Website: "https://acme.com",
		LinkedinURL: "https://linkedin.com/company/acme",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", got.Record.CompanyName)
	assert.Equal(t, 1, search.calls, "fetch is a single attempt")

	// Stage 2 sees both the fetched record and the caller's identity claims.
	prompt := verifier.gotReq.Messages[1].Content
	assert.Contains(t, prompt, `"Acme Corp"`)
	assert.Contains(t, prompt, "https://acme.com")

	// Leadership profile links are always withheld.
	require.Len(t, got.Record.Leadership, 1)
	assert.Empty(t, got.Record.Leadership[0].LinkedinURL)

	// Relative URLs come out absolute, like any other adapter output.
	require.Len(t, got.Record.Blogs, 1)
	assert.Equal(t, "https://acme.com/blog/launch", got.Record.Blogs[0].URL)

	assert.Equal(t, 100, got.Verification.ConfidenceScore)
	assert.Equal(t, []string{"companyName", "website"}, got.Verification.VerifiedFields)
	require.Len(t, got.Verification.FlaggedFields, 1)
	assert.Equal(t, "founded", got.Verification.FlaggedFields[0].Field)

	// Completeness covers the cleaned record: leadership and blogs populated.
	assert.Positive(t, got.Completeness.Score)
	assert.Equal(t, 2, got.Completeness.PopulatedArrays)
}

func TestNormalizeAndVerifyFetchFailureIsTerminal(t *testing.T) {
	search := &fakeSearch{err: errors.New("search unavailable")}
	verifier := &fakeOpenAI{content: verifierReply}

	_, err := NormalizeAndVerify(context.Background(), search, verifier, Identity{
		Name: "Acme", Website: "https://acme.com",
		LinkedinURL: "https://linkedin.com/company/acme",
	})
	require.Error(t, err)
	assert.Zero(t, verifier.calls, "verify stage never runs after a failed fetch")
}

func TestNormalizeAndVerifyBadFetchJSON(t *testing.T) {
	search := &fakeSearch{reply: "I could not find that company."}
	verifier := &fakeOpenAI{content: verifierReply}

	_, err := NormalizeAndVerify(context.Background(), search, verifier, Identity{
		Name: "Acme", Website: "https://acme.com",
		LinkedinURL: "https://linkedin.com/company/acme",
	})
	var perr *fault.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Zero(t, verifier.calls)
}

func TestNormalizeAndVerifyBadVerifierJSON(t *testing.T) {
	search := &fakeSearch{reply: `{"companyName": "Acme"}`}
	verifier := &fakeOpenAI{content: `{"company": `}

	_, err := NormalizeAndVerify(context.Background(), search, verifier, Identity{
		Name: "Acme", Website: "https://acme.com",
		LinkedinURL: "https://linkedin.com/company/acme",
	})
	var perr *fault.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "openai", perr.Provider)
}

func TestNormalizeAndVerifyMissingCompany(t *testing.T) {
	search := &fakeSearch{reply: `{"companyName": "Acme"}`}
	verifier := &fakeOpenAI{content: `{"verification": {"confidenceScore": 50}}`}

	_, err := NormalizeAndVerify(context.Background(), search, verifier, Identity{
		Name: "Acme", Website: "https://acme.com",
		LinkedinURL: "https://linkedin.com/company/acme",
	})
	var perr *fault.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestNormalizeAndVerifyValidation(t *testing.T) {
	_, err := NormalizeAndVerify(context.Background(), &fakeSearch{}, &fakeOpenAI{}, Identity{})
	var verr *fault.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestNormalizeAndVerifyRequiresLinkedin(t *testing.T) {
	search := &fakeSearch{reply: `{"companyName": "Acme"}`}
	_, err := NormalizeAndVerify(context.Background(), search, &fakeOpenAI{}, Identity{
		Name: "Acme", Website: "https://acme.com", Industry: "Manufacturing",
	})

	var verr *fault.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "linkedinUrl", verr.Field)
	assert.Zero(t, search.calls)
}
