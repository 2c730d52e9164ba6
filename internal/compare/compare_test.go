package compare

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openai "github.com/sashabaranov/go-openai"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
)

type fakeJudge struct {
	reply string
	err   error
	req   openai.ChatCompletionRequest
}

func (f *fakeJudge) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func source(id string, score int) Source {
	return Source{
		ID:           id,
		Record:       json.RawMessage(`{"companyName":"Acme"}`),
		Completeness: model.CompletenessReport{Score: score, PopulatedFields: score / 5, TotalFields: 20},
	}
}

func TestRecords(t *testing.T) {
	judge := &fakeJudge{reply: `{
		"recommendedModel": "openai",
		"score": {"openai": 85, "perplexity": 70},
		"reasoning": "openai returned richer leadership data",
		"strengths": {"openai": ["detail"], "perplexity": ["recency"]},
		"weaknesses": {"openai": [], "perplexity": ["sparse services"]},
		"keyDifferences": ["leadership coverage"]
	}`}

	got, err := Records(context.Background(), judge, "Acme Corp", source("openai", 80), source("perplexity", 60))
	require.NoError(t, err)

	assert.Equal(t, "openai", got.RecommendedModel)
	assert.Equal(t, 85, got.Score["openai"])
	assert.Equal(t, []string{"recency"}, got.Strengths["perplexity"])
	// Completeness always reflects the measured reports, not judge opinion.
	assert.Equal(t, 80, got.Completeness["openai"])
	assert.Equal(t, 60, got.Completeness["perplexity"])

	assert.Equal(t, judgeModel, judge.req.Model)
	require.NotNil(t, judge.req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, judge.req.ResponseFormat.Type)
	assert.Contains(t, judge.req.Messages[1].Content, "Acme Corp")
	assert.Contains(t, judge.req.Messages[1].Content, "recency")
}

func TestRecordsInvalidRecommendationFallsBack(t *testing.T) {
	judge := &fakeJudge{reply: `{
		"recommendedModel": "gemini",
		"score": {"openai": 60, "perplexity": 75},
		"reasoning": "whatever"
	}`}

	got, err := Records(context.Background(), judge, "Acme", source("openai", 55), source("perplexity", 70))
	require.NoError(t, err)

	assert.Equal(t, "perplexity", got.RecommendedModel)
	assert.Contains(t, got.Reasoning, `"gemini"`)
	// Judge scores survive the fallback.
	assert.Equal(t, 75, got.Score["perplexity"])
}

func TestRecordsTieRecommendsFirst(t *testing.T) {
	judge := &fakeJudge{reply: `not json at all`}

	got, err := Records(context.Background(), judge, "Acme", source("openai", 50), source("gemini", 50))
	require.NoError(t, err)
	assert.Equal(t, "openai", got.RecommendedModel)
}

func TestRecordsUnparseableFallsBack(t *testing.T) {
	judge := &fakeJudge{reply: `{"recommendedModel": `}

	got, err := Records(context.Background(), judge, "Acme", source("openai", 30), source("gemini", 90))
	require.NoError(t, err)

	assert.Equal(t, "gemini", got.RecommendedModel)
	assert.NotEmpty(t, got.Reasoning)
	assert.NotNil(t, got.Strengths["openai"])
	assert.NotNil(t, got.KeyDifferences)
}

func TestRecordsScoresClamped(t *testing.T) {
	judge := &fakeJudge{reply: `{
		"recommendedModel": "openai",
		"score": {"openai": 140, "gemini": -5}
	}`}

	got, err := Records(context.Background(), judge, "Acme", source("openai", 50), source("gemini", 40))
	require.NoError(t, err)
	assert.Equal(t, 100, got.Score["openai"])
	assert.Equal(t, 0, got.Score["gemini"])
	assert.Equal(t, "Unable to determine recommendation", got.Reasoning)
}

func TestRecordsTransportError(t *testing.T) {
	judge := &fakeJudge{err: errors.New("upstream down")}
	_, err := Records(context.Background(), judge, "Acme", source("openai", 50), source("gemini", 40))
	require.Error(t, err)
}

func TestRecordsValidation(t *testing.T) {
	var verr *fault.ValidationError

	_, err := Records(context.Background(), &fakeJudge{}, "Acme", Source{ID: "openai"}, source("gemini", 10))
	require.ErrorAs(t, err, &verr)

	_, err = Records(context.Background(), &fakeJudge{}, "Acme", source("openai", 10), source("openai", 20))
	require.ErrorAs(t, err, &verr)
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"raw record", `{"companyName":"Acme"}`, `{"companyName":"Acme"}`},
		{"enveloped record", `{"success":true,"data":{"companyName":"Acme"}}`, `{"companyName":"Acme"}`},
		{"data not an object", `{"data":"text field"}`, `{"data":"text field"}`},
		{"not json", `hello`, `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(unwrap(json.RawMessage(tt.in))))
		})
	}
}
