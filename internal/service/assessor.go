// Package service contains the feature layer: each operation sanitizes its
// input, builds a prompt, and runs it through the orchestrator under the
// caller-imposed time budget.
package service

import (
	"context"
	"time"

	"github.com/jingxin-guardian/internal/ai"
	"github.com/jingxin-guardian/internal/domain"
	"github.com/jingxin-guardian/internal/interview"
	"github.com/jingxin-guardian/pkg/sanitizer"
	"go.uber.org/zap"
)

// Assessor implements the AI-backed features.
type Assessor struct {
	caller    ai.Caller
	prompts   *ai.PromptBuilder
	sanitizer *sanitizer.Sanitizer
	sessions  *interview.Registry
	timeout   time.Duration
	logger    *zap.Logger
}

// AssessorConfig contains configuration for the Assessor.
type AssessorConfig struct {
	// Timeout bounds each orchestrator call. Zero means no bound.
	Timeout time.Duration
}

// NewAssessor creates a new Assessor with all dependencies.
func NewAssessor(
	caller ai.Caller,
	prompts *ai.PromptBuilder,
	sanitizer *sanitizer.Sanitizer,
	sessions *interview.Registry,
	config AssessorConfig,
	logger *zap.Logger,
) *Assessor {
	return &Assessor{
		caller:    caller,
		prompts:   prompts,
		sanitizer: sanitizer,
		sessions:  sessions,
		timeout:   config.Timeout,
		logger:    logger.Named("assessor"),
	}
}

func (a *Assessor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// clean sanitizes free text typed or uploaded by a user.
func (a *Assessor) clean(text string) (string, error) {
	if a.sanitizer.IsEmpty(text) {
		return "", domain.ErrEmptyPrompt
	}

	cleaned, stats := a.sanitizer.SanitizeWithStats(text)
	if stats.Masked > 0 || stats.Truncated {
		a.logger.Debug("input sanitized",
			zap.Int("original_size", stats.OriginalSize),
			zap.Int("sanitized_size", stats.SanitizedSize),
			zap.Int("masked", stats.Masked),
			zap.Bool("truncated", stats.Truncated),
		)
	}
	return cleaned, nil
}

// CallAI runs a raw prompt through the orchestrator.
func (a *Assessor) CallAI(ctx context.Context, prompt string, cfg domain.AccessConfig, systemInstruction string) (domain.Outcome, error) {
	if a.sanitizer.IsEmpty(prompt) {
		return domain.Outcome{}, domain.ErrEmptyPrompt
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return a.caller.Call(ctx, prompt, cfg, systemInstruction), nil
}

// AnalyzeExam asks for an analysis of one exam upload, with the subject's
// earlier analyses as context.
func (a *Assessor) AnalyzeExam(ctx context.Context, content string, cfg domain.AccessConfig, history []string) (domain.Outcome, error) {
	startTime := time.Now()

	cleaned, err := a.clean(content)
	if err != nil {
		return domain.Outcome{}, err
	}

	prompt, system := a.prompts.ExamAnalysis(cleaned, history)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	out := a.caller.Call(ctx, prompt, cfg, system)

	a.logger.Info("exam analyzed",
		zap.Bool("ok", out.OK()),
		zap.Int("history", len(history)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return out, nil
}

// StartInterview opens and registers an assessment session.
func (a *Assessor) StartInterview(ctx context.Context, ic domain.InterviewContext, cfg domain.AccessConfig) (*interview.Session, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := interview.Start(ctx, a.caller, a.prompts, ic, cfg, a.logger)
	if err != nil {
		return nil, err
	}

	a.sessions.Add(s)
	return s, nil
}

// RunInterviewTurn submits one human turn to a live session. On the last
// round the result carries the finalized assessment; the session stays
// registered until CloseInterview so the assessment survives a failed save.
func (a *Assessor) RunInterviewTurn(ctx context.Context, sessionID, text string, cfg domain.AccessConfig) (interview.TurnResult, error) {
	s, err := a.sessions.Get(sessionID)
	if err != nil {
		return interview.TurnResult{}, err
	}

	if !a.sanitizer.IsEmpty(text) {
		text = a.sanitizer.Sanitize(text)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return s.Submit(ctx, text, cfg)
}

// CloseInterview drops a session from the registry once its assessment
// has been stored.
func (a *Assessor) CloseInterview(sessionID string) {
	a.sessions.Remove(sessionID)
}

// Session returns a live session.
func (a *Assessor) Session(sessionID string) (*interview.Session, error) {
	return a.sessions.Get(sessionID)
}

// BuildComprehensiveReport produces the appraisal for one subject with a
// single orchestrator call.
func (a *Assessor) BuildComprehensiveReport(ctx context.Context, rc domain.ReportRequestContext, cfg domain.AccessConfig) domain.Outcome {
	startTime := time.Now()
	prompt, system := a.prompts.ComprehensiveReport(rc)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	out := a.caller.Call(ctx, prompt, cfg, system)

	a.logger.Info("comprehensive report generated",
		zap.String("subject_id", rc.Personnel.SubjectID),
		zap.Int("exams", len(rc.ExamSummaries)),
		zap.Int("psych", len(rc.PsychSummaries)),
		zap.Int("interviews", len(rc.Interviews)),
		zap.Bool("ok", out.OK()),
		zap.Duration("duration", time.Since(startTime)),
	)

	return out
}

// Counsel runs one exchange of the open-ended counseling chat. With no
// text it produces the opening message. The caller owns the history.
func (a *Assessor) Counsel(ctx context.Context, ic domain.InterviewContext, history domain.Conversation, text string, cfg domain.AccessConfig) (domain.Outcome, error) {
	var prompt, system string

	if a.sanitizer.IsEmpty(text) {
		if len(history) > 0 {
			return domain.Outcome{}, domain.ErrEmptyTurn
		}
		prompt, system = a.prompts.InterviewOpening(ic)
	} else {
		transcript := make(domain.Conversation, 0, len(history)+1)
		transcript = append(transcript, history...)
		transcript = append(transcript, domain.ChatTurn{Speaker: domain.SpeakerHuman, Text: a.sanitizer.Sanitize(text)})
		prompt, system = a.prompts.CounselingTurn(transcript)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return a.caller.Call(ctx, prompt, cfg, system), nil
}
