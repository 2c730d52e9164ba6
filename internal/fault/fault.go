// Package fault defines the error taxonomy shared by every adapter and
// endpoint. Adapters classify failures locally; the HTTP layer is the only
// place a fault is turned into a status code and response shape.
package fault

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// AuthError means the caller's credential is missing or invalid. Maps to
// 401 and never carries internal detail.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "unauthorized: " + e.Reason
}

// ValidationError means a required input field is absent or unusable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid request: missing required field %q", e.Field)
}

// ConfigurationError means a provider credential the operation depends on is
// not configured for this user or deployment.
type ConfigurationError struct {
	Provider string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s API key not configured; add it in settings or set the service default", e.Provider)
}

// TransientError wraps a single failed provider attempt that is safe to
// retry or to fall through to the next model candidate.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransient wraps an error as transient with an optional HTTP status.
func NewTransient(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// ExhaustedError is the terminal form of TransientError: every candidate in
// a fallback list failed. Attempts preserves the per-candidate failures.
type ExhaustedError struct {
	Provider string
	Attempts []error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: all %d model attempts failed", e.Provider, len(e.Attempts))
}

func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1]
}

// ParseError means a provider delivered a 2xx response whose body could not
// be parsed into the expected shape. Never retried: a malformed-but-delivered
// response is a provider content bug, not an outage.
type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unparseable response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotFoundError means a structured lookup legitimately found nothing.
type NotFoundError struct {
	Subject string
	Hint    string
}

func (e *NotFoundError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s not found: %s", e.Subject, e.Hint)
	}
	return e.Subject + " not found"
}

// IsTransient reports whether err (or anything in its chain) is a
// TransientError, a network timeout, or matches common transient patterns
// from wrapped HTTP client errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether an HTTP status indicates a
// server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a classified fault to the status code the HTTP layer
// should respond with. Unclassified errors map to 500.
func HTTPStatus(err error) int {
	var (
		authErr   *AuthError
		valErr    *ValidationError
		nfErr     *NotFoundError
		cfgErr    *ConfigurationError
		exhausted *ExhaustedError
		parseErr  *ParseError
	)
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	case errors.As(err, &cfgErr), errors.As(err, &exhausted), errors.As(err, &parseErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
