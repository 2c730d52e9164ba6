package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/completeness"
)

// openAIModel is the knowledge-based extraction model.
const openAIModel = openai.GPT4o

// ChatCompleter is the slice of the OpenAI client the adapters use.
// Satisfied by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// CompanyFromOpenAI enriches a company from OpenAI's trained knowledge.
func CompanyFromOpenAI(ctx context.Context, client ChatCompleter, id Identity) (*CompanyResult, error) {
	if err := id.Validate(false); err != nil {
		return nil, err
	}

	text, elapsed, err := openAIComplete(ctx, client, companyPrompt(id))
	if err != nil {
		return nil, err
	}

	record, err := parseCompanyRecord("openai", text)
	if err != nil {
		return nil, err
	}

	report := completeness.Company(&record)
	zap.L().Info("company enrichment complete",
		zap.String("provider", "openai"),
		zap.String("company", id.Name),
		zap.Int("completeness", report.Score),
		zap.Duration("api_duration", elapsed),
	)

	return &CompanyResult{
		Record:        record,
		Completeness:  report,
		ModelUsed:     openAIModel,
		APIDurationMs: elapsed.Milliseconds(),
	}, nil
}

// ClientFromOpenAI enriches a client profile from OpenAI's trained knowledge.
func ClientFromOpenAI(ctx context.Context, client ChatCompleter, id Identity) (*ClientResult, error) {
	if err := id.Validate(true); err != nil {
		return nil, err
	}

	text, elapsed, err := openAIComplete(ctx, client, clientPrompt(id))
	if err != nil {
		return nil, err
	}

	record, err := parseClientRecord("openai", text)
	if err != nil {
		return nil, err
	}

	report := completeness.Client(&record)
	zap.L().Info("client enrichment complete",
		zap.String("provider", "openai"),
		zap.String("company", id.Name),
		zap.Int("completeness", report.Score),
		zap.Duration("api_duration", elapsed),
	)

	return &ClientResult{
		Record:        record,
		Completeness:  report,
		ModelUsed:     openAIModel,
		APIDurationMs: elapsed.Milliseconds(),
	}, nil
}

func openAIComplete(ctx context.Context, client ChatCompleter, prompt string) (string, time.Duration, error) {
	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openAIModel,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a B2B research assistant. You answer only with valid JSON.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		return "", elapsed, eris.Wrap(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", elapsed, eris.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, elapsed, nil
}
