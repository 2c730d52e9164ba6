package enrich

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/completeness"
	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
	"github.com/personapro/enrich/pkg/perplexity"
)

// VerifiedResult is the output of the two-stage fetch-then-verify pipeline.
// Completeness is computed over the cleaned record, not the raw fetch.
type VerifiedResult struct {
	Record       model.CompanyProfile     `json:"record"`
	Verification model.VerificationReport `json:"verification"`
	Completeness model.CompletenessReport `json:"completeness"`
	FetchMs      int64                    `json:"fetchMs"`
	VerifyMs     int64                    `json:"verifyMs"`
}

// NormalizeAndVerify runs the two-stage pipeline: a single web-search fetch,
// then a cleanup pass that deduplicates, standardizes formats, and
// cross-checks identity fields against the caller's inputs. The fetch is one
// attempt with no fallback; its failure is terminal.
func NormalizeAndVerify(ctx context.Context, search perplexity.Client, verifier ChatCompleter, id Identity) (*VerifiedResult, error) {
	if err := id.Validate(true); err != nil {
		return nil, err
	}

	fetched, modelUsed, fetchElapsed, err := perplexityComplete(ctx, search, companyPrompt(id))
	if err != nil {
		return nil, err
	}
	raw := cleanJSON(fetched)
	if !json.Valid([]byte(raw)) {
		return nil, &fault.ParseError{Provider: modelUsed, Err: errors.New("fetched record is not valid JSON")}
	}

	text, verifyElapsed, err := openAIComplete(ctx, verifier, verifyPrompt(id, raw))
	if err != nil {
		return nil, err
	}

	var out struct {
		Company      json.RawMessage          `json:"company"`
		Verification model.VerificationReport `json:"verification"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return nil, &fault.ParseError{Provider: "openai", Err: err}
	}
	if len(out.Company) == 0 {
		return nil, &fault.ParseError{Provider: "openai", Err: errors.New("verifier output has no company record")}
	}

	record, err := parseCompanyRecord("openai", string(out.Company))
	if err != nil {
		return nil, err
	}
	// Leadership profile links are withheld from the final record no matter
	// what either stage produced.
	for i := range record.Leadership {
		record.Leadership[i].LinkedinURL = ""
	}

	out.Verification.Normalize()
	report := completeness.Company(&record)

	zap.L().Info("normalize and verify complete",
		zap.String("company", id.Name),
		zap.Int("completeness", report.Score),
		zap.Int("confidence", out.Verification.ConfidenceScore),
		zap.Duration("fetch", fetchElapsed),
		zap.Duration("verify", verifyElapsed),
	)

	return &VerifiedResult{
		Record:       record,
		Verification: out.Verification,
		Completeness: report,
		FetchMs:      fetchElapsed.Milliseconds(),
		VerifyMs:     verifyElapsed.Milliseconds(),
	}, nil
}
