// Package rules provides unit tests for the failure classifier.
package rules

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/jingxin-guardian/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func connRefused() error {
	return connRefusedAt("http://127.0.0.1:1/chat/completions")
}

func connRefusedAt(endpoint string) error {
	return &url.Error{
		Op:  "Post",
		URL: endpoint,
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
		},
	}
}

func TestEngine_Classify(t *testing.T) {
	engine := NewEngine(DefaultRules(), zap.NewNop())

	tests := []struct {
		name     string
		err      error
		wantKind domain.RemediationKind
		wantRule string
	}{
		{
			name:     "user not found",
			err:      domain.NewProviderError("openai", 401, "User not found", nil),
			wantKind: domain.RemediationAuthFailure,
			wantRule: "auth_rejected",
		},
		{
			name:     "user not found plain error",
			err:      errors.New("User not found"),
			wantKind: domain.RemediationAuthFailure,
			wantRule: "auth_rejected",
		},
		{
			name:     "invalid_api_key code",
			err:      domain.NewProviderError("openai", 400, "invalid_api_key: key revoked", nil),
			wantKind: domain.RemediationAuthFailure,
			wantRule: "auth_rejected",
		},
		{
			name:     "insufficient balance",
			err:      errors.New("Insufficient balance in account"),
			wantKind: domain.RemediationQuotaExhausted,
			wantRule: "quota_exhausted",
		},
		{
			name:     "credits exhausted",
			err:      domain.NewProviderError("openai", 402, "This request requires more credits", nil),
			wantKind: domain.RemediationQuotaExhausted,
			wantRule: "quota_exhausted",
		},
		{
			name:     "payment required without message",
			err:      domain.NewProviderError("openai", 402, "", nil),
			wantKind: domain.RemediationQuotaExhausted,
			wantRule: "quota_status",
		},
		{
			name:     "connection refused",
			err:      domain.NewProviderError("openai", 0, "", connRefused()),
			wantKind: domain.RemediationNetworkFailure,
			wantRule: "network_failure",
		},
		{
			name:     "dns failure",
			err:      &net.DNSError{Err: "no such host", Name: "api.invalid", IsNotFound: true},
			wantKind: domain.RemediationNetworkFailure,
			wantRule: "network_failure",
		},
		{
			name:     "deadline exceeded",
			err:      fmt.Errorf("openai: %w", context.DeadlineExceeded),
			wantKind: domain.RemediationNetworkFailure,
			wantRule: "network_failure",
		},
		{
			name:     "header rejected by transport",
			err:      &url.Error{Op: "Post", URL: "https://x", Err: errors.New(`net/http: invalid header field value for "Authorization"`)},
			wantKind: domain.RemediationAuthFailure,
			wantRule: "header_encoding",
		},
		{
			name:     "missing configuration",
			err:      fmt.Errorf("gemini: %w", domain.ErrConfigMissing),
			wantKind: domain.RemediationConfigMissing,
			wantRule: "config_missing",
		},
		{
			name:     "unauthorized status",
			err:      domain.NewProviderError("openai", 401, "", nil),
			wantKind: domain.RemediationAuthFailure,
			wantRule: "auth_status",
		},
		{
			name:     "server message",
			err:      domain.NewProviderError("openai", 500, "model overloaded", nil),
			wantKind: domain.RemediationUpstreamError,
			wantRule: "upstream_message",
		},
		{
			name:     "malformed body",
			err:      domain.NewProviderError("openai", 200, "", domain.ErrMalformedResponse),
			wantKind: domain.RemediationUpstreamError,
			wantRule: "upstream_unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Classify(tt.err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantRule, got.RuleID)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestEngine_EndpointTextDoesNotDecideKind(t *testing.T) {
	engine := NewEngine(DefaultRules(), zap.NewNop())

	tests := []struct {
		name string
		err  error
	}{
		{
			name: "refused on a path mentioning credits",
			err:  domain.NewProviderError("openai", 0, "", connRefusedAt("http://127.0.0.1:1/credits/chat/completions")),
		},
		{
			name: "refused on a path mentioning a missing user",
			err:  domain.NewProviderError("openai", 0, "", connRefusedAt("http://127.0.0.1:1/user not found/v1")),
		},
		{
			name: "dns failure for a quota-named host",
			err: domain.NewProviderError("openai", 0, "", &url.Error{
				Op:  "Post",
				URL: "https://insufficient-quota.invalid/chat/completions",
				Err: &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "insufficient-quota.invalid", IsNotFound: true}},
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Classify(tt.err)
			assert.Equal(t, domain.RemediationNetworkFailure, got.Kind)
			assert.Equal(t, "network_failure", got.RuleID)
		})
	}
}

func TestEngine_KeywordsUseServerMessage(t *testing.T) {
	engine := NewEngine(DefaultRules(), zap.NewNop())

	// The wrapped cause mentions credits; the server's message does not.
	err := domain.NewProviderError("openai", 500, "model overloaded", errors.New("POST /credits failed"))

	got := engine.Classify(err)
	assert.Equal(t, domain.RemediationUpstreamError, got.Kind)
	assert.Equal(t, "upstream_message", got.RuleID)
}

func TestEngine_UpstreamMessageIsQuoted(t *testing.T) {
	engine := NewEngine(DefaultRules(), zap.NewNop())

	got := engine.Classify(domain.NewProviderError("openai", 400, "model google/x is not a valid model ID", nil))

	assert.Equal(t, "The model service returned an error: model google/x is not a valid model ID", got.Message)
	assert.True(t, strings.HasPrefix(got.Render(), "[UPSTREAM ERROR] "))
}

func TestEngine_TemplatesAreFixed(t *testing.T) {
	engine := NewEngine(DefaultRules(), zap.NewNop())

	a := engine.Classify(errors.New("User not found"))
	b := engine.Classify(errors.New("invalid_api_key"))

	assert.Equal(t, a.Message, b.Message)
}

func TestEngine_EmptyRuleSet(t *testing.T) {
	engine := NewEngine(nil, zap.NewNop())

	got := engine.Classify(errors.New("anything"))
	assert.Equal(t, domain.RemediationUpstreamError, got.Kind)
	assert.Equal(t, "unclassified", got.RuleID)
}

func TestDefaultRules_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range DefaultRules() {
		if seen[r.ID] {
			t.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		if !r.Kind.IsValid() {
			t.Errorf("rule %q has invalid kind %q", r.ID, r.Kind)
		}
	}
}
