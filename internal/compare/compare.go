// Package compare pits two enrichment results for the same subject against
// each other using an LLM judge, with a deterministic completeness-based
// fallback whenever the judge's verdict is unusable.
package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
)

// judgeModel is the fixed evaluation model.
const judgeModel = openai.GPT4o

// rubric lists the fixed evaluation dimensions.
var rubric = []string{
	"completeness", "accuracy", "detail", "data quality",
	"relevance", "recency", "uniqueness",
}

// ChatCompleter is the slice of the OpenAI client the judge uses.
// Satisfied by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Source is one side of a comparison: a source id, the record it produced
// (raw or envelope-wrapped), and its completeness report.
type Source struct {
	ID           string
	Record       json.RawMessage
	Completeness model.CompletenessReport
}

// Records asks the judge to compare two sources' records for the entity and
// returns a verdict that always recommends exactly one of the two source
// ids. A malformed or invalid judge response degrades to the deterministic
// completeness fallback; only transport failures surface as errors.
func Records(ctx context.Context, client ChatCompleter, entity string, a, b Source) (*model.ComparisonResult, error) {
	if len(a.Record) == 0 || len(b.Record) == 0 {
		return nil, &fault.ValidationError{Field: "records", Message: "both records are required"}
	}
	if a.ID == b.ID {
		return nil, &fault.ValidationError{Field: "sources", Message: "source ids must differ"}
	}
	a.Record = unwrap(a.Record)
	b.Record = unwrap(b.Record)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       judgeModel,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an impartial data-quality judge. You answer only with valid JSON.",
			},
			{Role: openai.ChatMessageRoleUser, Content: judgePrompt(entity, a, b)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "compare: judge completion")
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	result := parseVerdict(text, a, b)
	result.Completeness = map[string]int{a.ID: a.Completeness.Score, b.ID: b.Completeness.Score}
	result.Normalize(a.ID, b.ID)

	zap.L().Info("comparison complete",
		zap.String("entity", entity),
		zap.String("sources", a.ID+"/"+b.ID),
		zap.String("recommended", result.RecommendedModel),
	)
	return result, nil
}

// parseVerdict decodes the judge output and validates the recommendation,
// substituting the completeness fallback when either step fails.
func parseVerdict(text string, a, b Source) *model.ComparisonResult {
	var result model.ComparisonResult
	if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil {
		zap.L().Warn("judge response unparseable, using completeness fallback", zap.Error(err))
		return fallback(a, b, "judge response was not valid JSON")
	}
	if result.RecommendedModel != a.ID && result.RecommendedModel != b.ID {
		zap.L().Warn("judge recommended an unknown source, using completeness fallback",
			zap.String("recommended", result.RecommendedModel),
		)
		fb := fallback(a, b, fmt.Sprintf("judge recommended %q, which is not one of the compared sources", result.RecommendedModel))
		fb.Score = result.Score
		fb.Strengths = result.Strengths
		fb.Weaknesses = result.Weaknesses
		fb.KeyDifferences = result.KeyDifferences
		return fb
	}
	return &result
}

// fallback recommends the higher-completeness source, first argument on a tie.
func fallback(a, b Source, why string) *model.ComparisonResult {
	winner := a.ID
	if b.Completeness.Score > a.Completeness.Score {
		winner = b.ID
	}
	return &model.ComparisonResult{
		RecommendedModel: winner,
		Reasoning:        fmt.Sprintf("Fell back to the higher completeness score (%s): %s.", winner, why),
	}
}

func judgePrompt(entity string, a, b Source) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Two research sources produced records for %q. Evaluate both against these dimensions: %s.\n\n",
		entity, strings.Join(rubric, ", "))
	fmt.Fprintf(&sb, "Source %q (completeness %d%%, %d of %d fields populated):\n%s\n\n",
		a.ID, a.Completeness.Score, a.Completeness.PopulatedFields, a.Completeness.TotalFields, indented(a.Record))
	fmt.Fprintf(&sb, "Source %q (completeness %d%%, %d of %d fields populated):\n%s\n\n",
		b.ID, b.Completeness.Score, b.Completeness.PopulatedFields, b.Completeness.TotalFields, indented(b.Record))
	fmt.Fprintf(&sb, `Respond with a JSON object of this exact shape:
{
  "recommendedModel": "%[1]s" or "%[2]s",
  "score": {"%[1]s": 0-100, "%[2]s": 0-100},
  "reasoning": "...",
  "strengths": {"%[1]s": [...], "%[2]s": [...]},
  "weaknesses": {"%[1]s": [...], "%[2]s": [...]},
  "keyDifferences": [...]
}
recommendedModel must be exactly "%[1]s" or "%[2]s".`, a.ID, b.ID)
	return sb.String()
}

// unwrap resolves the optional {"data": ...} envelope once, at this
// boundary. A record is only unwrapped when data holds a JSON object.
func unwrap(raw json.RawMessage) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	inner := bytes.TrimSpace(env.Data)
	if len(inner) > 0 && inner[0] == '{' {
		return inner
	}
	return raw
}

func indented(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// cleanJSON strips markdown fences around a JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
