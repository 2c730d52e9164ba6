// Package server exposes the enrichment pipeline as stateless HTTP
// endpoints: bearer-authenticated JSON POSTs with a uniform response
// envelope. Handlers classify nothing themselves; they decide status codes
// from the error taxonomy and keep provider failures out of response bodies.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/agent"
	"github.com/personapro/enrich/internal/config"
	"github.com/personapro/enrich/internal/credentials"
	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/store"
	"github.com/personapro/enrich/pkg/apollo"
	"github.com/personapro/enrich/pkg/gemini"
	"github.com/personapro/enrich/pkg/perplexity"
)

// ChatCompleter is the slice of the OpenAI client handlers hand to the
// pipeline packages. Satisfied by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Providers builds per-request provider clients from resolved keys. Each
// request resolves its caller's credentials, so clients are constructed per
// call rather than held on the server.
type Providers struct {
	OpenAI     func(key string) ChatCompleter
	Perplexity func(key string) perplexity.Client
	Gemini     func(key string) gemini.Client
	Apollo     func(key string) apollo.Client
}

// DefaultProviders wires the real clients with base URLs from config.
func DefaultProviders(cfg *config.Config) Providers {
	return Providers{
		OpenAI: func(key string) ChatCompleter {
			return openai.NewClient(key)
		},
		Perplexity: func(key string) perplexity.Client {
			return perplexity.NewClient(key,
				perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
				perplexity.WithModel(cfg.Perplexity.Model),
			)
		},
		Gemini: func(key string) gemini.Client {
			return gemini.NewClient(key, gemini.WithBaseURL(cfg.Gemini.BaseURL))
		},
		Apollo: func(key string) apollo.Client {
			return apollo.NewClient(key,
				apollo.WithBaseURL(cfg.Apollo.BaseURL),
				apollo.WithRateLimit(cfg.Apollo.RequestsPerMinute),
			)
		},
	}
}

// Server holds the handler dependencies.
type Server struct {
	store  store.Store
	creds  *credentials.Resolver
	prov   Providers
	search agent.SemanticSearcher
}

// New creates a Server. search may be nil; the agent then runs without the
// semantic source.
func New(st store.Store, creds *credentials.Resolver, prov Providers, search agent.SemanticSearcher) *Server {
	return &Server{store: st, creds: creds, prov: prov, search: search}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/enrich/company/{provider}", s.handleEnrichCompany)
		r.Post("/enrich/client/{provider}", s.handleEnrichClient)
		r.Post("/compare", s.handleCompare)
		r.Post("/apollo/organization", s.handleApolloOrganization)
		r.Post("/apollo/people", s.handleApolloPeople)
		r.Post("/verify", s.handleVerify)
		r.Post("/agent/query", s.handleAgentQuery)
	})

	return r
}

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxBearer
)

// auth resolves the bearer token to a user identity. No token or an unknown
// token is a 401 either way; the body never says which.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header || token == "" {
			respond(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}

		userID, err := s.store.UserIDForToken(r.Context(), token)
		if err != nil {
			zap.L().Error("token lookup failed", zap.Error(err))
			respondFailure(w, http.StatusInternalServerError, "internal error")
			return
		}
		if userID == "" {
			respond(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxBearer, header)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

func bearer(ctx context.Context) string {
	h, _ := ctx.Value(ctxBearer).(string)
	return h
}

// decode reads a JSON body; any decoding problem is a validation failure.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &fault.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

type metadata struct {
	ProcessingTime int64  `json:"processingTime"`
	Timestamp      string `json:"timestamp"`
}

type envelope struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data"`
	Metadata metadata `json:"metadata"`
}

func respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondSuccess(w http.ResponseWriter, start time.Time, data any) {
	respond(w, http.StatusOK, envelope{
		Success: true,
		Data:    data,
		Metadata: metadata{
			ProcessingTime: time.Since(start).Milliseconds(),
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondFailure(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]any{"success": false, "error": msg})
}

// respondError maps a pipeline error onto the wire: validation and auth
// problems get the bare {error} shape, everything else the failure envelope.
// Raw provider detail stays in the logs.
func respondError(w http.ResponseWriter, err error) {
	status := fault.HTTPStatus(err)
	zap.L().Warn("request failed", zap.Int("status", status), zap.Error(err))

	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized:
		respond(w, status, map[string]string{"error": err.Error()})
	case http.StatusNotFound, http.StatusInternalServerError:
		msg := err.Error()
		if status == http.StatusInternalServerError && !friendly(err) {
			msg = "enrichment failed"
		}
		respondFailure(w, status, msg)
	default:
		respondFailure(w, status, "enrichment failed")
	}
}

// friendly reports whether the error message is safe and useful to show the
// caller as-is.
func friendly(err error) bool {
	var (
		cfgErr    *fault.ConfigurationError
		exhausted *fault.ExhaustedError
		parseErr  *fault.ParseError
	)
	return errors.As(err, &cfgErr) || errors.As(err, &exhausted) || errors.As(err, &parseErr)
}
