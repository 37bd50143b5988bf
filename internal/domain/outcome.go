package domain

// RemediationKind is the fixed, user-actionable failure taxonomy.
type RemediationKind string

const (
	RemediationAuthFailure    RemediationKind = "auth_failure"
	RemediationQuotaExhausted RemediationKind = "quota_exhausted"
	RemediationNetworkFailure RemediationKind = "network_failure"
	RemediationConfigMissing  RemediationKind = "config_missing"
	RemediationUpstreamError  RemediationKind = "upstream_error"
)

// Tag returns the bracketed category prefix shown in front of the message.
func (k RemediationKind) Tag() string {
	switch k {
	case RemediationAuthFailure:
		return "[AUTH ERROR]"
	case RemediationQuotaExhausted:
		return "[QUOTA EXHAUSTED]"
	case RemediationNetworkFailure:
		return "[NETWORK ERROR]"
	case RemediationConfigMissing:
		return "[CONFIG MISSING]"
	default:
		return "[UPSTREAM ERROR]"
	}
}

// IsValid checks if the kind is one of the allowed values.
func (k RemediationKind) IsValid() bool {
	switch k {
	case RemediationAuthFailure, RemediationQuotaExhausted, RemediationNetworkFailure,
		RemediationConfigMissing, RemediationUpstreamError:
		return true
	default:
		return false
	}
}

// Remediation is a classified failure that the host can render directly.
type Remediation struct {
	Kind RemediationKind `json:"kind"`

	// RuleID names the classification rule that produced this remediation.
	RuleID string `json:"rule_id"`

	// Message is the selected template, already filled in.
	Message string `json:"message"`
}

// Render returns the display text with its category tag.
func (r Remediation) Render() string {
	return r.Kind.Tag() + " " + r.Message
}

// Outcome is the tagged result of one AI call: either Success with Text, or
// a Remediation. Remediations are data, never errors.
type Outcome struct {
	Text        string       `json:"text,omitempty"`
	Remediation *Remediation `json:"remediation,omitempty"`
}

// Success builds a successful outcome.
func Success(text string) Outcome {
	return Outcome{Text: text}
}

// Failure builds a remediation outcome.
func Failure(r Remediation) Outcome {
	return Outcome{Remediation: &r}
}

// OK reports whether the outcome carries genuine model text.
func (o Outcome) OK() bool {
	return o.Remediation == nil
}

// Render collapses the outcome to displayable text.
func (o Outcome) Render() string {
	if o.Remediation != nil {
		return o.Remediation.Render()
	}
	return o.Text
}
