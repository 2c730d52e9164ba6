package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/completeness"
	"github.com/personapro/enrich/pkg/gemini"
)

// ClientFromGemini enriches a client profile via Gemini, walking the model
// fallback list until one candidate yields usable text.
func ClientFromGemini(ctx context.Context, client gemini.Client, id Identity) (*ClientResult, error) {
	if err := id.Validate(true); err != nil {
		return nil, err
	}

	temp := 0.2
	maxTokens := 8192
	gen := &gemini.GenerationConfig{
		Temperature:      &temp,
		MaxOutputTokens:  &maxTokens,
		ResponseMimeType: "application/json",
	}

	start := time.Now()
	text, modelUsed, err := client.GenerateText(ctx, clientPrompt(id), gen)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	record, err := parseClientRecord("gemini", text)
	if err != nil {
		return nil, err
	}

	report := completeness.Client(&record)
	zap.L().Info("client enrichment complete",
		zap.String("provider", "gemini"),
		zap.String("company", id.Name),
		zap.String("model", modelUsed),
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
