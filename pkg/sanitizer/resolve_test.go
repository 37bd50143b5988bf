package sanitizer

import (
	"testing"
	"testing/quick"

	"github.com/jingxin-guardian/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   domain.AccessConfig
		want domain.AccessConfig
	}{
		{
			name: "defaults when empty",
			in:   domain.AccessConfig{},
			want: domain.AccessConfig{EndpointBase: DefaultEndpointBase, ModelID: DefaultModelID},
		},
		{
			name: "strips non-ascii from credential",
			in:   domain.AccessConfig{Credential: " sk-or-v1-abc密钥123 ", EndpointBase: "https://x", ModelID: "m"},
			want: domain.AccessConfig{Credential: "sk-or-v1-abc123", EndpointBase: "https://x", ModelID: "m"},
		},
		{
			name: "removes trailing slashes",
			in:   domain.AccessConfig{EndpointBase: "https://openrouter.ai/api/v1//", ModelID: "m"},
			want: domain.AccessConfig{EndpointBase: "https://openrouter.ai/api/v1", ModelID: "m"},
		},
		{
			name: "full width characters in endpoint",
			in:   domain.AccessConfig{EndpointBase: "https://ｘ.example.com/v1／", ModelID: "m"},
			want: domain.AccessConfig{EndpointBase: "https://.example.com/v1", ModelID: "m"},
		},
		{
			name: "origin with control characters",
			in:   domain.AccessConfig{Origin: "http://localhost:3000\r\n", ModelID: "m"},
			want: domain.AccessConfig{Origin: "http://localhost:3000", EndpointBase: DefaultEndpointBase, ModelID: "m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in))
		})
	}
}

func TestResolve_OutputIsASCII(t *testing.T) {
	f := func(credential, endpoint, origin, model string) bool {
		out := Resolve(domain.AccessConfig{
			Credential:   credential + "é中",
			EndpointBase: endpoint + "ü",
			ModelID:      model,
			Origin:       origin + " ",
		})
		return IsHeaderSafe(out.Credential) &&
			IsHeaderSafe(out.EndpointBase) &&
			IsHeaderSafe(out.ModelID) &&
			IsHeaderSafe(out.Origin)
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestResolve_FixedPoint(t *testing.T) {
	f := func(credential, endpoint, origin, model string) bool {
		once := Resolve(domain.AccessConfig{
			Credential:   credential,
			EndpointBase: endpoint,
			ModelID:      model,
			Origin:       origin,
		})
		return Resolve(once) == once
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestResolve_NoTrailingSlash(t *testing.T) {
	f := func(endpoint string) bool {
		out := Resolve(domain.AccessConfig{EndpointBase: endpoint + "/"})
		return out.EndpointBase != "" && out.EndpointBase[len(out.EndpointBase)-1] != '/'
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
