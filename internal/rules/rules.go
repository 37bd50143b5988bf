// Package rules classifies AI transport failures into the fixed remediation
// taxonomy. Rules are evaluated in order and the first match wins, so the
// more specific rules come first.
package rules

import (
	"context"
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"
	"syscall"

	"github.com/jingxin-guardian/internal/domain"
)

// messagePlaceholder is replaced with the upstream error text.
const messagePlaceholder = "{message}"

// Rule represents a single classification rule.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string

	// Description explains what this rule detects.
	Description string

	// Kind is the remediation produced when the rule matches.
	Kind domain.RemediationKind

	// Keywords are simple substring matches against the failure text (case-insensitive).
	Keywords []string

	// Patterns are regex patterns to match against the failure text.
	Patterns []*regexp.Regexp

	// StatusCodes match the HTTP status carried by a ProviderError.
	StatusCodes []int

	// Matches is an optional typed matcher over the error chain.
	Matches func(err error) bool

	// Template is the fixed user-facing message. It may contain {message}.
	Template string
}

// Match checks if the error matches this rule.
func (r *Rule) Match(err error) bool {
	if err == nil {
		return false
	}

	if r.Matches != nil && r.Matches(err) {
		return true
	}

	raw := failureText(err)
	text := strings.ToLower(raw)
	for _, kw := range r.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}

	for _, pattern := range r.Patterns {
		if pattern.MatchString(raw) {
			return true
		}
	}

	if status := domain.StatusCode(err); status != 0 {
		for _, code := range r.StatusCodes {
			if code == status {
				return true
			}
		}
	}

	return false
}

// failureText is what keywords and patterns run against: the server's own
// message when there is one, otherwise the error text without the request
// URL a transport error carries.
func failureText(err error) string {
	if msg := domain.ServerMessage(err); msg != "" {
		return msg
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// Render fills the template for the given error.
func (r *Rule) Render(err error) domain.Remediation {
	msg := r.Template
	if strings.Contains(msg, messagePlaceholder) {
		detail := domain.ServerMessage(err)
		if detail == "" && err != nil {
			detail = err.Error()
		}
		msg = strings.ReplaceAll(msg, messagePlaceholder, detail)
	}

	return domain.Remediation{
		Kind:    r.Kind,
		RuleID:  r.ID,
		Message: msg,
	}
}

// Message templates, one per remediation situation.
const (
	templateConfigMissing  = "No AI access is configured. Ask an administrator to enter an API key in system settings, or set the fallback key on the host."
	templateHeaderEncoding = "The API key or endpoint contains characters that cannot be sent in HTTP headers. Re-enter them in system settings using plain ASCII characters only."
	templateAuth           = "The API key was rejected by the model service. Check the key in system settings."
	templateQuota          = "The model account has run out of balance or credits. Top up the account or switch to another key."
	templateNetwork        = "The model service could not be reached. Check the network connection and the endpoint address, then try again."
	templateUpstream       = "The model service returned an error: {message}"
)

// DefaultRules returns the built-in classification rules in evaluation order.
func DefaultRules() []*Rule {
	return []*Rule{
		configMissing(),
		headerEncoding(),
		networkFailure(),
		authRejected(),
		authStatus(),
		quotaExhausted(),
		quotaStatus(),
		upstreamMessage(),
		upstreamUnknown(),
	}
}

func configMissing() *Rule {
	return &Rule{
		ID:          "config_missing",
		Description: "No credential for either access path",
		Kind:        domain.RemediationConfigMissing,
		Matches: func(err error) bool {
			return errors.Is(err, domain.ErrConfigMissing)
		},
		Template: templateConfigMissing,
	}
}

// headerEncoding must run before networkFailure: a rejected header also
// surfaces as a *url.Error from the HTTP client.
func headerEncoding() *Rule {
	return &Rule{
		ID:          "header_encoding",
		Description: "The transport refused the request headers themselves",
		Kind:        domain.RemediationAuthFailure,
		Keywords: []string{
			"invalid header field value",
			"iso-8859-1",
			"non-latin",
			"latin-1",
		},
		Template: templateHeaderEncoding,
	}
}

func authRejected() *Rule {
	return &Rule{
		ID:          "auth_rejected",
		Description: "The provider does not recognize the key",
		Kind:        domain.RemediationAuthFailure,
		Keywords: []string{
			"user not found",
			"invalid_api_key",
			"invalid api key",
			"api key not valid",
			"incorrect api key",
		},
		Template: templateAuth,
	}
}

func authStatus() *Rule {
	return &Rule{
		ID:          "auth_status",
		Description: "HTTP 401/403 from the provider",
		Kind:        domain.RemediationAuthFailure,
		StatusCodes: []int{401, 403},
		Template:    templateAuth,
	}
}

func quotaExhausted() *Rule {
	return &Rule{
		ID:          "quota_exhausted",
		Description: "Account balance or credits are used up",
		Kind:        domain.RemediationQuotaExhausted,
		Keywords: []string{
			"insufficient balance",
			"credits",
			"insufficient_quota",
			"resource_exhausted",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)quota\s+(exceeded|exhausted)`),
		},
		Template: templateQuota,
	}
}

func quotaStatus() *Rule {
	return &Rule{
		ID:          "quota_status",
		Description: "HTTP 402/429 from the provider",
		Kind:        domain.RemediationQuotaExhausted,
		StatusCodes: []int{402, 429},
		Template:    templateQuota,
	}
}

func networkFailure() *Rule {
	return &Rule{
		ID:          "network_failure",
		Description: "Connection refused, DNS failure or timeout",
		Kind:        domain.RemediationNetworkFailure,
		Matches:     isTransportFailure,
		Keywords: []string{
			"connection refused",
			"no such host",
			"connection reset",
			"i/o timeout",
			"deadline exceeded",
		},
		Template: templateNetwork,
	}
}

func upstreamMessage() *Rule {
	return &Rule{
		ID:          "upstream_message",
		Description: "Any other failure carrying a server-supplied message",
		Kind:        domain.RemediationUpstreamError,
		Matches: func(err error) bool {
			return domain.ServerMessage(err) != ""
		},
		Template: templateUpstream,
	}
}

func upstreamUnknown() *Rule {
	return &Rule{
		ID:          "upstream_unknown",
		Description: "Catch-all",
		Kind:        domain.RemediationUpstreamError,
		Matches: func(err error) bool {
			return err != nil
		},
		Template: templateUpstream,
	}
}

// isTransportFailure reports a failure that never got a server answer.
func isTransportFailure(err error) bool {
	return domain.ServerMessage(err) == "" && domain.StatusCode(err) == 0 && isNetworkError(err)
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
