package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURL(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		base      string
		want      string
	}{
		{"empty", "", "https://acme.com", ""},
		{"whitespace only", "   ", "https://acme.com", ""},
		{"already absolute", "https://x.com/acme", "https://acme.com", "https://x.com/acme"},
		{"absolute http", "http://x.com/acme", "https://acme.com", "http://x.com/acme"},
		{"absolute with padding", "  https://x.com/acme  ", "https://acme.com", "https://x.com/acme"},
		{"rooted path", "/blog/my-post", "https://acme.com", "https://acme.com/blog/my-post"},
		{"bare path", "blog/my-post", "https://acme.com", "https://acme.com/blog/my-post"},
		{"base with path ignored", "/careers", "https://acme.com/about", "https://acme.com/careers"},
		{"schemeless base", "/careers", "acme.com", "https://acme.com/careers"},
		{"unusable base", "/careers", "", "/careers"},
		{"garbage base", "/careers", "://", "/careers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URL(tt.candidate, tt.base))
		})
	}
}

func TestURLIdempotent(t *testing.T) {
	candidates := []string{"", "/blog/my-post", "blog", "https://x.com/acme", "/careers"}
	bases := []string{"https://acme.com", "acme.com", "", "://"}
	for _, c := range candidates {
		for _, b := range bases {
			once := URL(c, b)
			assert.Equal(t, once, URL(once, b), "candidate %q base %q", c, b)
		}
	}
}

func TestScalar(t *testing.T) {
	assert.Equal(t, "hello", Scalar("  hello  "))
	assert.Equal(t, "", Scalar(nil))
	assert.Equal(t, "", Scalar(42.0))
	assert.Equal(t, "", Scalar([]any{"x"}))
}

func TestStrings(t *testing.T) {
	got := Strings([]any{"go", "  ", nil, 7.0, " rust "})
	assert.Equal(t, []string{"go", "rust"}, got)

	assert.NotNil(t, Strings(nil))
	assert.Empty(t, Strings("not a list"))
}

func TestDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Acme.Corp.com/about?x=1", "acme.corp.com"},
		{"http://acme.com", "acme.com"},
		{"acme.com/path", "acme.com"},
		{"www.acme.com", "acme.com"},
		{"https://acme.com:8443/x", "acme.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Domain(tt.in), tt.in)
	}
}
