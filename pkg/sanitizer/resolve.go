package sanitizer

import (
	"strings"

	"github.com/jingxin-guardian/internal/domain"
)

const (
	// DefaultEndpointBase is used when the caller supplies no endpoint.
	DefaultEndpointBase = "https://openrouter.ai/api/v1"

	// DefaultModelID is used when the caller supplies no model.
	DefaultModelID = "google/gemini-2.0-flash-001"
)

// Resolve normalizes an access configuration into a transport-legal form.
// HTTP header values reject bytes outside Latin-1, so every field that ends
// up in a header or URL is reduced to printable 7-bit ASCII. Resolve is a
// pure function and a fixed point: Resolve(Resolve(c)) == Resolve(c).
func Resolve(cfg domain.AccessConfig) domain.AccessConfig {
	out := domain.AccessConfig{
		Credential:   HeaderValue(cfg.Credential),
		EndpointBase: strings.TrimRight(HeaderValue(cfg.EndpointBase), "/ "),
		ModelID:      HeaderValue(cfg.ModelID),
		Origin:       HeaderValue(cfg.Origin),
	}

	if out.EndpointBase == "" {
		out.EndpointBase = DefaultEndpointBase
	}
	if out.ModelID == "" {
		out.ModelID = DefaultModelID
	}

	return out
}

// HeaderValue drops every character outside printable ASCII (0x20-0x7E)
// and trims surrounding whitespace.
func HeaderValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 0x20 && c <= 0x7E {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

// IsHeaderSafe reports whether s is already printable ASCII.
func IsHeaderSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}
