// Package credentials resolves provider API keys with a defined precedence:
// the caller's stored key first, then the deployment-wide default. Adapters
// receive a Resolver instead of reading the environment ad hoc.
package credentials

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/personapro/enrich/internal/fault"
)

// Provider names the keychain understands.
const (
	ProviderOpenAI     = "openai"
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"
	ProviderApollo     = "apollo"
)

// DisplayName maps a provider id to the name shown in operator-facing errors.
var displayName = map[string]string{
	ProviderOpenAI:     "OpenAI",
	ProviderPerplexity: "Perplexity",
	ProviderGemini:     "Gemini",
	ProviderApollo:     "Apollo",
}

// Keychain looks up a user's stored key for a provider; "" when absent.
type Keychain interface {
	APIKey(ctx context.Context, userID, provider string) (string, error)
}

// Resolver resolves provider credentials per user.
type Resolver struct {
	keys     Keychain
	defaults map[string]string
}

// NewResolver builds a Resolver over a keychain and the deployment defaults,
// keyed by provider id.
func NewResolver(keys Keychain, defaults map[string]string) *Resolver {
	if defaults == nil {
		defaults = map[string]string{}
	}
	return &Resolver{keys: keys, defaults: defaults}
}

// Resolve returns the key for provider, preferring the user's stored key
// over the deployment default. When neither exists the operation cannot
// proceed and a ConfigurationError is returned.
func (r *Resolver) Resolve(ctx context.Context, userID, provider string) (string, error) {
	if r.keys != nil && userID != "" {
		key, err := r.keys.APIKey(ctx, userID, provider)
		if err != nil {
			return "", eris.Wrapf(err, "credentials: lookup %s key", provider)
		}
		if key != "" {
			return key, nil
		}
	}

	if key := r.defaults[provider]; key != "" {
		return key, nil
	}

	name := displayName[provider]
	if name == "" {
		name = provider
	}
	return "", &fault.ConfigurationError{Provider: name}
}
