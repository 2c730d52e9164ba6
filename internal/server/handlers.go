package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/personapro/enrich/internal/agent"
	"github.com/personapro/enrich/internal/compare"
	"github.com/personapro/enrich/internal/completeness"
	"github.com/personapro/enrich/internal/credentials"
	"github.com/personapro/enrich/internal/enrich"
	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/resolver"
)

func (s *Server) handleEnrichCompany(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var id enrich.Identity
	if err := decode(r, &id); err != nil {
		respondError(w, err)
		return
	}

	var result any
	var err error
	switch provider := chi.URLParam(r, "provider"); provider {
	case credentials.ProviderOpenAI:
		var key string
		if key, err = s.creds.Resolve(ctx, userID(ctx), credentials.ProviderOpenAI); err == nil {
			result, err = enrich.CompanyFromOpenAI(ctx, s.prov.OpenAI(key), id)
		}
	case credentials.ProviderPerplexity:
		var key string
		if key, err = s.creds.Resolve(ctx, userID(ctx), credentials.ProviderPerplexity); err == nil {
			result, err = enrich.CompanyFromPerplexity(ctx, s.prov.Perplexity(key), id)
		}
	default:
		err = &fault.ValidationError{Field: "provider", Message: "must be openai or perplexity"}
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, start, result)
}

func (s *Server) handleEnrichClient(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var id enrich.Identity
	if err := decode(r, &id); err != nil {
		respondError(w, err)
		return
	}

	var result any
	var err error
	switch provider := chi.URLParam(r, "provider"); provider {
	case credentials.ProviderOpenAI:
		var key string
		if key, err = s.creds.Resolve(ctx, userID(ctx), credentials.ProviderOpenAI); err == nil {
			result, err = enrich.ClientFromOpenAI(ctx, s.prov.OpenAI(key), id)
		}
	case credentials.ProviderPerplexity:
		var key string
		if key, err = s.creds.Resolve(ctx, userID(ctx), credentials.ProviderPerplexity); err == nil {
			result, err = enrich.ClientFromPerplexity(ctx, s.prov.Perplexity(key), id)
		}
	case credentials.ProviderGemini:
		var key string
		if key, err = s.creds.Resolve(ctx, userID(ctx), credentials.ProviderGemini); err == nil {
			result, err = enrich.ClientFromGemini(ctx, s.prov.Gemini(key), id)
		}
	default:
		err = &fault.ValidationError{Field: "provider", Message: "must be openai, perplexity, or gemini"}
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, start, result)
}

type compareSource struct {
	ID     string          `json:"id"`
	Record json.RawMessage `json:"record"`
}

type compareRequest struct {
	CompanyName string        `json:"companyName"`
	SourceA     compareSource `json:"sourceA"`
	SourceB     compareSource `json:"sourceB"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req compareRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.CompanyName == "" {
		respondError(w, &fault.ValidationError{Field: "companyName"})
		return
	}
	if req.SourceA.ID == "" || req.SourceB.ID == "" {
		respondError(w, &fault.ValidationError{Field: "sources", Message: "both source ids are required"})
		return
	}

	key, err := s.creds.Resolve(ctx, userID(ctx), credentials.ProviderOpenAI)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := compare.Records(ctx, s.prov.OpenAI(key), req.CompanyName,
		toSource(req.SourceA), toSource(req.SourceB))
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, start, result)
}

// toSource scores the raw record so the comparator has a measured
// completeness to fall back on.
func toSource(in compareSource) compare.Source {
	src := compare.Source{ID: in.ID, Record: in.Record}
	var fields map[string]any
	if err := json.Unmarshal(in.Record, &fields); err == nil {
		src.Completeness = completeness.Generic(fields)
	}
	return src
}

type apolloRequest struct {
	ClientID string `json:"clientId"`
	Website  string `json:"website"`
}

func (s *Server) handleApolloOrganization(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req apolloRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Website == "" {
		respondError(w, &fault.ValidationError{Field: "website"})
		return
	}

	key, err := s.creds.Resolve(ctx, userID(ctx), credentials.ProviderApollo)
	if err != nil {
		respondError(w, err)
		return
	}

	upd, err := resolver.New(s.prov.Apollo(key), s.store).
		Organization(ctx, req.ClientID, userID(ctx), req.Website)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, start, upd)
}

func (s *Server) handleApolloPeople(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req apolloRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Website == "" {
		respondError(w, &fault.ValidationError{Field: "website"})
		return
	}

	key, err := s.creds.Resolve(ctx, userID(ctx), credentials.ProviderApollo)
	if err != nil {
		respondError(w, err)
		return
	}

	// "No qualifying contacts" is a valid outcome; the reject breakdown in
	// the payload tells the caller why.
	result, err := resolver.New(s.prov.Apollo(key), s.store).
		People(ctx, req.ClientID, userID(ctx), req.Website)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, start, result)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var id enrich.Identity
	if err := decode(r, &id); err != nil {
		respondError(w, err)
		return
	}

	searchKey, err := s.creds.Resolve(ctx, userID(ctx), credentials.ProviderPerplexity)
	if err != nil {
		respondError(w, err)
		return
	}
	verifyKey, err := s.creds.Resolve(ctx, userID(ctx), credentials.ProviderOpenAI)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := enrich.NormalizeAndVerify(ctx, s.prov.Perplexity(searchKey), s.prov.OpenAI(verifyKey), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, start, result)
}

type agentRequest struct {
	ClientID string `json:"clientId"`
	Question string `json:"question"`
	Mode     string `json:"mode"`
}

func (s *Server) handleAgentQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req agentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	key, err := s.creds.Resolve(ctx, userID(ctx), credentials.ProviderOpenAI)
	if err != nil {
		respondError(w, err)
		return
	}

	answer, err := agent.New(s.store, s.search, s.prov.OpenAI(key)).Run(ctx, agent.Query{
		ClientID:      req.ClientID,
		UserID:        userID(ctx),
		Question:      req.Question,
		Mode:          req.Mode,
		Authorization: bearer(ctx),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, start, answer)
}
