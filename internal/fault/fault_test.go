package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"explicit transient", NewTransient(errors.New("503"), 503), true},
		{"wrapped transient", eris.Wrap(NewTransient(errors.New("429"), 429), "perplexity: chat"), true},
		{"connection reset text", errors.New("read tcp: connection reset by peer"), true},
		{"dns text", errors.New("dial tcp: no such host"), true},
		{"parse error", &ParseError{Provider: "openai", Err: errors.New("bad json")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&AuthError{Reason: "missing token"}, http.StatusUnauthorized},
		{&ValidationError{Field: "companyName"}, http.StatusBadRequest},
		{&NotFoundError{Subject: "organization", Hint: "verify the website URL"}, http.StatusNotFound},
		{&ConfigurationError{Provider: "OpenAI"}, http.StatusInternalServerError},
		{&ExhaustedError{Provider: "gemini", Attempts: []error{errors.New("blocked")}}, http.StatusInternalServerError},
		{&ParseError{Provider: "openai", Err: errors.New("bad json")}, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestHTTPStatusThroughWrapping(t *testing.T) {
	err := eris.Wrap(&ValidationError{Field: "website"}, "enrich: validate input")
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))

	err = fmt.Errorf("handler: %w", &AuthError{Reason: "invalid token"})
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
}

func TestExhaustedUnwrap(t *testing.T) {
	last := errors.New("candidate c failed")
	err := &ExhaustedError{Provider: "gemini", Attempts: []error{errors.New("a"), last}}
	assert.ErrorIs(t, err, last)
	assert.Contains(t, err.Error(), "2 model attempts")
}
