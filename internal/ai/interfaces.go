// Package ai provides the model access paths and the orchestrator that
// composes them.
package ai

import (
	"context"

	"github.com/jingxin-guardian/internal/domain"
)

// Request is one single-turn generation request handed to a provider.
type Request struct {
	// Prompt is the human turn.
	Prompt string

	// SystemInstruction is optional persona/context for the model.
	SystemInstruction string

	// Config is the resolved access configuration for this call.
	Config domain.AccessConfig
}

// Provider is one model access path. Implementations issue exactly one
// upstream request per Send and never retry.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string

	// Send returns the model text, or the raw failure for the classifier.
	Send(ctx context.Context, req Request) (string, error)
}

// Caller is what features depend on: one prompt in, one outcome out.
type Caller interface {
	Call(ctx context.Context, prompt string, cfg domain.AccessConfig, systemInstruction string) domain.Outcome
}

// ResponseValidator checks that provider output is usable text.
type ResponseValidator interface {
	Validate(text string) error
}
