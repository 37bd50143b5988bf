package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/jingxin-guardian/internal/domain"
	"github.com/jingxin-guardian/internal/rules"
	"github.com/jingxin-guardian/pkg/sanitizer"
	"go.uber.org/zap"
)

// Orchestrator is the single call contract every feature uses. It resolves
// the access configuration, tries the generic path, falls back to the
// native path, and turns failures into remediations.
//
// Providers are tried strictly in sequence and a success short-circuits,
// so a call never has two upstream requests in flight.
type Orchestrator struct {
	primary    Provider
	fallback   Provider
	classifier *rules.Engine
	logger     *zap.Logger
}

// NewOrchestrator wires the generic provider, the optional native fallback
// (nil when none is configured) and the classifier.
func NewOrchestrator(primary, fallback Provider, classifier *rules.Engine, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		primary:    primary,
		fallback:   fallback,
		classifier: classifier,
		logger:     logger.Named("orchestrator"),
	}
}

// Call runs one prompt through the fallback chain. It never returns an
// error: expected failures come back as a Remediation outcome.
func (o *Orchestrator) Call(ctx context.Context, prompt string, cfg domain.AccessConfig, systemInstruction string) domain.Outcome {
	startTime := time.Now()
	resolved := sanitizer.Resolve(cfg)
	req := Request{
		Prompt:            prompt,
		SystemInstruction: systemInstruction,
		Config:            resolved,
	}

	var primaryFailure *domain.Remediation

	if resolved.HasCredential() && o.primary != nil {
		text, err := o.send(ctx, o.primary, req)
		if err == nil {
			o.logger.Debug("call succeeded",
				zap.String("provider", o.primary.Name()),
				zap.Duration("duration", time.Since(startTime)),
			)
			return domain.Success(text)
		}

		r := o.classifier.Classify(err)
		primaryFailure = &r
		o.logger.Warn("primary provider failed",
			zap.String("provider", o.primary.Name()),
			zap.String("kind", string(r.Kind)),
			zap.String("rule_id", r.RuleID),
			zap.Int("status", domain.StatusCode(err)),
			zap.Error(err),
		)
	}

	// The caller gave up; do not start a second request it will never see.
	if ctx.Err() != nil {
		if primaryFailure != nil {
			return domain.Failure(*primaryFailure)
		}
		return domain.Failure(o.classifier.Classify(ctx.Err()))
	}

	if o.fallback != nil {
		text, err := o.send(ctx, o.fallback, req)
		if err == nil {
			o.logger.Info("call served by fallback provider",
				zap.String("provider", o.fallback.Name()),
				zap.Bool("primary_attempted", primaryFailure != nil),
				zap.Duration("duration", time.Since(startTime)),
			)
			return domain.Success(text)
		}

		r := o.classifier.Classify(err)
		o.logger.Warn("fallback provider failed",
			zap.String("provider", o.fallback.Name()),
			zap.String("kind", string(r.Kind)),
			zap.String("rule_id", r.RuleID),
			zap.Error(err),
		)

		// The user-configured path must fail openly: its classification
		// wins over the fallback's.
		if primaryFailure != nil {
			return domain.Failure(*primaryFailure)
		}
		return domain.Failure(r)
	}

	if primaryFailure != nil {
		return domain.Failure(*primaryFailure)
	}

	return domain.Failure(o.classifier.Classify(fmt.Errorf("no access path: %w", domain.ErrConfigMissing)))
}

// CallAI is Call rendered to display text.
func (o *Orchestrator) CallAI(ctx context.Context, prompt string, cfg domain.AccessConfig, systemInstruction string) string {
	return o.Call(ctx, prompt, cfg, systemInstruction).Render()
}

// send isolates a provider so a panic inside it becomes a classified
// failure instead of taking down the host.
func (o *Orchestrator) send(ctx context.Context, p Provider, req Request) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("provider panicked", zap.String("provider", p.Name()), zap.Any("panic", rec))
			err = domain.NewProviderError(p.Name(), 0, "", fmt.Errorf("provider panic: %v", rec))
		}
	}()
	return p.Send(ctx, req)
}
