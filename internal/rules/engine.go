package rules

import (
	"github.com/jingxin-guardian/internal/domain"
	"go.uber.org/zap"
)

// Engine is the single point that turns raw provider failures into
// remediations.
type Engine struct {
	rules  []*Rule
	logger *zap.Logger
}

// NewEngine creates a new classifier with the provided rules.
func NewEngine(rules []*Rule, logger *zap.Logger) *Engine {
	return &Engine{
		rules:  rules,
		logger: logger.Named("classifier"),
	}
}

// Classify maps err to a remediation. The first matching rule wins; an
// error no rule recognizes is reported as an upstream error.
func (e *Engine) Classify(err error) domain.Remediation {
	for _, rule := range e.rules {
		if rule.Match(err) {
			e.logger.Debug("failure classified",
				zap.String("rule_id", rule.ID),
				zap.String("kind", string(rule.Kind)),
			)
			return rule.Render(err)
		}
	}

	fallback := &Rule{
		ID:       "unclassified",
		Kind:     domain.RemediationUpstreamError,
		Template: templateUpstream,
	}
	return fallback.Render(err)
}

// Kind is a convenience wrapper returning only the remediation kind.
func (e *Engine) Kind(err error) domain.RemediationKind {
	return e.Classify(err).Kind
}
