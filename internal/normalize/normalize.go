// Package normalize holds the pure field-level cleanup helpers shared by
// every provider adapter. Normalization is best-effort and never fails: a
// value that cannot be improved is returned as-is or coerced to its empty
// default.
package normalize

import (
	"net/url"
	"strings"
)

// URL converts a candidate URL to absolute form using base's origin.
// Already-absolute candidates are returned trimmed but otherwise unchanged.
// Relative candidates resolve from the root of base's origin. When base
// itself cannot be parsed the trimmed candidate is returned unchanged.
func URL(candidate, base string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
		return candidate
	}

	origin := originOf(base)
	if origin == "" {
		return candidate
	}
	if strings.HasPrefix(candidate, "/") {
		return origin + candidate
	}
	return origin + "/" + candidate
}

// originOf extracts scheme://host from raw, or "" when raw is not a URL.
func originOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Scalar coerces an arbitrary decoded JSON value to a trimmed string,
// mapping null and non-string values to "".
func Scalar(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Strings coerces an arbitrary decoded JSON value to a string slice,
// dropping non-string and empty elements. Never returns nil.
func Strings(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s := Scalar(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Domain reduces a website URL to its bare hostname: protocol, www prefix,
// port, path and query all stripped, lowercased. Returns "" when nothing
// host-like can be recovered.
func Domain(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	raw := website
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	host := ""
	if err == nil {
		host = u.Hostname()
	}
	if host == "" {
		// Fall back to manual trimming for inputs url.Parse rejects.
		host = website
		host = strings.TrimPrefix(host, "http://")
		host = strings.TrimPrefix(host, "https://")
		if i := strings.IndexAny(host, "/?#:"); i >= 0 {
			host = host[:i]
		}
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host
}
