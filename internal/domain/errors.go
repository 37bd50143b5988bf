// Package domain contains the core domain models and types.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure cases.
var (
	// ErrConfigMissing indicates no usable access path is configured.
	ErrConfigMissing = errors.New("AI access is not configured")

	// ErrEmptyPrompt indicates the prompt is empty or whitespace only.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrMalformedResponse indicates the upstream body could not be used.
	ErrMalformedResponse = errors.New("malformed AI response")

	// ErrSessionTerminal indicates the interview already reached its last round.
	ErrSessionTerminal = errors.New("interview session is finished")

	// ErrSessionActive indicates the interview has not reached its last round yet.
	ErrSessionActive = errors.New("interview session is still in progress")

	// ErrTurnInFlight indicates a turn was submitted while another one is outstanding.
	ErrTurnInFlight = errors.New("interview turn already in flight")

	// ErrTurnAbandoned indicates the caller gave up before the reply arrived.
	ErrTurnAbandoned = errors.New("interview turn abandoned")

	// ErrEmptyTurn indicates the human text is empty or whitespace only.
	ErrEmptyTurn = errors.New("turn text is empty")

	// ErrSessionNotFound indicates an unknown interview session id.
	ErrSessionNotFound = errors.New("interview session not found")

	// ErrSubjectNotFound indicates an unknown subject id.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrRecordNotFound indicates an unknown record id.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ProviderError is the raw failure payload a transport adapter surfaces.
// It is interpreted only by the failure classifier.
type ProviderError struct {
	// Provider is the adapter that failed ("openai", "gemini").
	Provider string

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int

	// Message is the server-supplied error text, if any.
	Message string

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a ProviderError.
func NewProviderError(provider string, status int, message string, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Message:    message,
		Err:        err,
	}
}

// StatusCode extracts the HTTP status from an error chain, 0 if absent.
func StatusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

// ServerMessage extracts the server-supplied message from an error chain.
func ServerMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}
