// Package domain contains the core domain models and types.
// These models represent the contracts shared by the AI core and its host,
// and are independent of any infrastructure concerns.
package domain

// AccessConfig is the bundle needed to reach the generic chat-completion
// endpoint. It is supplied per call and never retained by the core.
type AccessConfig struct {
	// Credential is the bearer key for the generic endpoint. Empty means
	// the generic path is skipped.
	Credential string `json:"credential,omitempty"`

	// EndpointBase is the API root, e.g. https://openrouter.ai/api/v1.
	EndpointBase string `json:"endpoint_base"`

	// ModelID is the preferred model identifier, possibly vendor-qualified
	// ("google/gemini-2.0-flash-001").
	ModelID string `json:"model_id"`

	// Origin identifies the calling application to the endpoint.
	Origin string `json:"origin,omitempty"`
}

// HasCredential reports whether the generic path can be attempted.
func (c AccessConfig) HasCredential() bool {
	return c.Credential != ""
}

// Speaker identifies who produced a chat turn.
type Speaker string

const (
	SpeakerHuman     Speaker = "human"
	SpeakerAssistant Speaker = "assistant"
)

// IsValid checks if the speaker value is one of the allowed values.
func (s Speaker) IsValid() bool {
	switch s {
	case SpeakerHuman, SpeakerAssistant:
		return true
	default:
		return false
	}
}

// ChatTurn is one immutable utterance in a conversation.
type ChatTurn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Conversation is an ordered list of turns; index order is chronological.
type Conversation []ChatTurn

// Last returns the most recent turn and false when the conversation is empty.
func (c Conversation) Last() (ChatTurn, bool) {
	if len(c) == 0 {
		return ChatTurn{}, false
	}
	return c[len(c)-1], true
}

// ReportRequestContext aggregates everything known about one subject for
// the comprehensive report. It is read-only input for the prompt builders.
type ReportRequestContext struct {
	Personnel      PersonnelRecord `json:"personnel"`
	ExamSummaries  []string        `json:"exam_summaries"`
	PsychSummaries []string        `json:"psych_summaries"`
	Interviews     []TalkRecord    `json:"interviews"`
}

// InterviewContext is the background used to open an assessment or
// counseling conversation.
type InterviewContext struct {
	Subject     PersonnelRecord  `json:"subject"`
	LatestExam  *ExamReport      `json:"latest_exam,omitempty"`
	LatestPsych *PsychTestReport `json:"latest_psych,omitempty"`
}
