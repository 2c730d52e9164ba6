// Package gemini is a minimal REST client for the Google Generative
// Language API. Gemini model generations roll over frequently and older
// ones disappear from one API version before the other, so text generation
// walks an ordered list of (model, apiVersion) candidates and settles on the
// first that yields usable text.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/fault"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// ModelConfig is one candidate configuration in the fallback list.
type ModelConfig struct {
	Model      string
	APIVersion string
}

// DefaultFallback returns the candidate list tried in order. Newer models
// first, each probed on v1beta before v1 because responseMimeType is only
// honored on v1beta.
func DefaultFallback() []ModelConfig {
	return []ModelConfig{
		{Model: "gemini-2.0-flash", APIVersion: "v1beta"},
		{Model: "gemini-2.0-flash", APIVersion: "v1"},
		{Model: "gemini-2.5-flash", APIVersion: "v1beta"},
		{Model: "gemini-2.5-flash", APIVersion: "v1"},
		{Model: "gemini-flash-latest", APIVersion: "v1beta"},
		{Model: "gemini-flash-latest", APIVersion: "v1"},
	}
}

// Client generates text against the Generative Language API.
type Client interface {
	GenerateContent(ctx context.Context, cfg ModelConfig, req GenerateContentRequest) (*GenerateContentResponse, error)
	GenerateText(ctx context.Context, prompt string, gen *GenerationConfig) (text, modelUsed string, err error)
}

// GenerateContentRequest is the request body for models/{model}:generateContent.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is a single conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is one piece of a turn's content.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig tunes the generation call. ResponseMimeType is silently
// stripped on v1: that API version rejects the field.
type GenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

// GenerateContentResponse is the response body for generateContent.
type GenerateContentResponse struct {
	Candidates     []ResponseCandidate `json:"candidates"`
	PromptFeedback *PromptFeedback     `json:"promptFeedback,omitempty"`
	Error          *APIError           `json:"error,omitempty"`
}

// ResponseCandidate is one generated candidate.
type ResponseCandidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// PromptFeedback reports prompt-level blocking.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// APIError is the provider's error envelope.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Text returns the first candidate's concatenated text, or "".
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithFallback overrides the default candidate list.
func WithFallback(candidates []ModelConfig) Option {
	return func(c *httpClient) {
		c.fallback = candidates
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	fallback []ModelConfig
	http     *http.Client
}

// NewClient creates a Generative Language API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		fallback: DefaultFallback(),
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GenerateContent(ctx context.Context, cfg ModelConfig, req GenerateContentRequest) (*GenerateContentResponse, error) {
	if req.GenerationConfig != nil && cfg.APIVersion != "v1beta" && req.GenerationConfig.ResponseMimeType != "" {
		gen := *req.GenerationConfig
		gen.ResponseMimeType = ""
		req.GenerationConfig = &gen
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: marshal request")
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s", c.baseURL, cfg.APIVersion, cfg.Model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("gemini: %s/%s: unexpected status %d: %s", cfg.APIVersion, cfg.Model, resp.StatusCode, string(respBody))
		return nil, fault.NewTransient(err, resp.StatusCode)
	}

	var result GenerateContentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "gemini: unmarshal response")
	}

	return &result, nil
}

// GenerateText walks the fallback list until one candidate yields non-empty
// text. Per-candidate failures (non-2xx, error envelope, empty candidates,
// safety or recitation blocking, empty extracted text) are collected and
// only surfaced once the whole list is exhausted.
func (c *httpClient) GenerateText(ctx context.Context, prompt string, gen *GenerationConfig) (string, string, error) {
	req := GenerateContentRequest{
		Contents:         []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: gen,
	}

	var attempts []error
	for _, cfg := range c.fallback {
		resp, err := c.GenerateContent(ctx, cfg, req)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", err
			}
			attempts = append(attempts, err)
			continue
		}
		if reason := classify(resp); reason != "" {
			attempts = append(attempts, eris.Errorf("gemini: %s/%s: %s", cfg.APIVersion, cfg.Model, reason))
			zap.L().Debug("gemini candidate rejected",
				zap.String("model", cfg.Model),
				zap.String("api_version", cfg.APIVersion),
				zap.String("reason", reason),
			)
			continue
		}
		return resp.Text(), cfg.Model, nil
	}

	return "", "", &fault.ExhaustedError{Provider: "gemini", Attempts: attempts}
}

// classify returns a non-empty rejection reason when resp cannot be used.
func classify(resp *GenerateContentResponse) string {
	if resp.Error != nil {
		return fmt.Sprintf("error envelope: %s (%d)", resp.Error.Message, resp.Error.Code)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "prompt blocked: " + resp.PromptFeedback.BlockReason
	}
	if len(resp.Candidates) == 0 {
		return "no candidates"
	}
	switch resp.Candidates[0].FinishReason {
	case "SAFETY", "RECITATION":
		return "candidate blocked: " + resp.Candidates[0].FinishReason
	}
	if resp.Text() == "" {
		return "empty text"
	}
	return ""
}
