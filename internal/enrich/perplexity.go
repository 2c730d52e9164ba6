package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/completeness"
	"github.com/personapro/enrich/pkg/perplexity"
)

// CompanyFromPerplexity enriches a company via Perplexity's web search.
func CompanyFromPerplexity(ctx context.Context, client perplexity.Client, id Identity) (*CompanyResult, error) {
	if err := id.Validate(false); err != nil {
		return nil, err
	}

	text, modelUsed, elapsed, err := perplexityComplete(ctx, client, companyPrompt(id))
	if err != nil {
		return nil, err
	}

	record, err := parseCompanyRecord("perplexity", text)
	if err != nil {
		return nil, err
	}

	report := completeness.Company(&record)
	zap.L().Info("company enrichment complete",
		zap.String("provider", "perplexity"),
		zap.String("company", id.Name),
		zap.Int("completeness", report.Score),
		zap.Duration("api_duration", elapsed),
	)

	return &CompanyResult{
		Record:        record,
		Completeness:  report,
		ModelUsed:     modelUsed,
		APIDurationMs: elapsed.Milliseconds(),
	}, nil
}

// ClientFromPerplexity enriches a client profile via Perplexity's web search.
func ClientFromPerplexity(ctx context.Context, client perplexity.Client, id Identity) (*ClientResult, error) {
	if err := id.Validate(true); err != nil {
		return nil, err
	}

	text, modelUsed, elapsed, err := perplexityComplete(ctx, client, clientPrompt(id))
	if err != nil {
		return nil, err
	}

	record, err := parseClientRecord("perplexity", text)
	if err != nil {
		return nil, err
	}

	report := completeness.Client(&record)
	zap.L().Info("client enrichment complete",
		zap.String("provider", "perplexity"),
		zap.String("company", id.Name),
		zap.Int("completeness", report.Score),
		zap.Duration("api_duration", elapsed),
	)

	return &ClientResult{
		Record:        record,
		Completeness:  report,
		ModelUsed:     modelUsed,
		APIDurationMs: elapsed.Milliseconds(),
	}, nil
}

func perplexityComplete(ctx context.Context, client perplexity.Client, prompt string) (string, string, time.Duration, error) {
	temp := 0.2
	req := perplexity.ChatCompletionRequest{
		Temperature: &temp,
		Messages: []perplexity.Message{
			{
				Role:    "system",
				Content: "You are a B2B research assistant with live web access. You answer only with valid JSON.",
			},
			{Role: "user", Content: prompt},
		},
	}

	start := time.Now()
	resp, err := client.ChatCompletion(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return "", "", elapsed, err
	}
	text := resp.Text()
	if text == "" {
		return "", "", elapsed, eris.New("perplexity: empty completion")
	}
	// The API echoes the served model; older responses may omit it.
	model := resp.Model
	if model == "" {
		model = "sonar"
	}
	return text, model, elapsed, nil
}
