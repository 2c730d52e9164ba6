package agent

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
)

// SearchHit is one semantic search result.
type SearchHit struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// SemanticSearcher retrieves documents related to a question.
type SemanticSearcher interface {
	// Search forwards the caller's bearer header so the search service
	// applies the same per-user visibility rules.
	Search(ctx context.Context, clientID, query, authorization string) ([]SearchHit, error)
}

// HTTPSearcher calls an external semantic search service.
type HTTPSearcher struct {
	http *resty.Client
}

// NewHTTPSearcher creates a searcher against the service's base URL.
func NewHTTPSearcher(baseURL string) *HTTPSearcher {
	return &HTTPSearcher{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

type searchRequest struct {
	ClientID string `json:"clientId"`
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
}

type searchResponse struct {
	Results []SearchHit `json:"results"`
}

// Search implements SemanticSearcher.
func (s *HTTPSearcher) Search(ctx context.Context, clientID, query, authorization string) ([]SearchHit, error) {
	var out searchResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Authorization", authorization).
		SetBody(searchRequest{ClientID: clientID, Query: query, Limit: 5}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, eris.Wrap(err, "search: request")
	}
	if resp.IsError() {
		return nil, eris.Errorf("search: unexpected status %d", resp.StatusCode())
	}
	if out.Results == nil {
		return []SearchHit{}, nil
	}
	return out.Results, nil
}
