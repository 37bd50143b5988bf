// Package interview drives the bounded psychological-assessment
// conversation: a fixed number of human/assistant exchanges that ends in a
// finalized assessment record.
package interview

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jingxin-guardian/internal/ai"
	"github.com/jingxin-guardian/internal/domain"
	"go.uber.org/zap"
)

// MaxRounds is the fixed session length.
const MaxRounds = 10

// TurnPrompter builds the model prompts for a session.
type TurnPrompter interface {
	InterviewOpening(ic domain.InterviewContext) (prompt, system string)
	InterviewTurn(subject domain.PersonnelRecord, round, maxRounds int, transcript domain.Conversation) (prompt, system string)
}

// TurnResult is what one accepted exchange produced.
type TurnResult struct {
	Reply    domain.ChatTurn `json:"reply"`
	Round    int             `json:"round"`
	Terminal bool            `json:"terminal"`

	// Report is set on the exchange that made the session terminal.
	Report *domain.PsychTestReport `json:"report,omitempty"`
}

// Session is one assessment conversation. It is Collecting while
// Round() < MaxRounds and Terminal afterwards. Submit calls must not
// overlap; an overlapping call is rejected with ErrTurnInFlight.
type Session struct {
	ID string

	subject domain.PersonnelRecord
	caller  ai.Caller
	prompts TurnPrompter
	logger  *zap.Logger
	now     func() time.Time

	inFlight atomic.Bool

	mu       sync.RWMutex
	turns    domain.Conversation
	round    int
	terminal bool
	report   *domain.PsychTestReport
}

// Start opens a session for the subject. The opening assistant turn comes
// from one orchestrator call built from the subject's latest exam and
// psych context. The session starts Collecting at round 0.
func Start(ctx context.Context, caller ai.Caller, prompts TurnPrompter, ic domain.InterviewContext, cfg domain.AccessConfig, logger *zap.Logger) (*Session, error) {
	s := &Session{
		ID:      uuid.NewString(),
		subject: ic.Subject,
		caller:  caller,
		prompts: prompts,
		logger:  logger.Named("interview"),
		now:     time.Now,
	}

	prompt, system := prompts.InterviewOpening(ic)
	out := caller.Call(ctx, prompt, cfg, system)
	if ctx.Err() != nil {
		return nil, domain.ErrTurnAbandoned
	}

	s.turns = domain.Conversation{{Speaker: domain.SpeakerAssistant, Text: out.Render()}}

	s.logger.Info("interview started",
		zap.String("session_id", s.ID),
		zap.String("subject_id", ic.Subject.SubjectID),
		zap.Bool("opening_ok", out.OK()),
	)

	return s, nil
}

// Submit appends a human turn, asks for the assistant reply and advances
// the round. A Remediation reply is kept as the assistant turn and still
// counts as a round.
//
// If ctx ends while the call is outstanding the exchange is discarded and
// the session is left exactly as it was.
func (s *Session) Submit(ctx context.Context, text string, cfg domain.AccessConfig) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, domain.ErrEmptyTurn
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return TurnResult{}, domain.ErrTurnInFlight
	}
	defer s.inFlight.Store(false)

	s.mu.RLock()
	if s.terminal {
		s.mu.RUnlock()
		return TurnResult{}, domain.ErrSessionTerminal
	}
	next := s.round + 1
	transcript := make(domain.Conversation, len(s.turns), len(s.turns)+2)
	copy(transcript, s.turns)
	s.mu.RUnlock()

	transcript = append(transcript, domain.ChatTurn{Speaker: domain.SpeakerHuman, Text: text})

	prompt, system := s.prompts.InterviewTurn(s.subject, next, MaxRounds, transcript)
	out := s.caller.Call(ctx, prompt, cfg, system)

	if ctx.Err() != nil {
		s.logger.Warn("interview turn abandoned",
			zap.String("session_id", s.ID),
			zap.Int("round", next),
			zap.Error(ctx.Err()),
		)
		return TurnResult{}, domain.ErrTurnAbandoned
	}

	reply := domain.ChatTurn{Speaker: domain.SpeakerAssistant, Text: out.Render()}
	transcript = append(transcript, reply)

	var report *domain.PsychTestReport
	if next >= MaxRounds {
		r := s.finalize(transcript, reply.Text)
		report = &r
	}

	s.mu.Lock()
	s.turns = transcript
	s.round = next
	s.terminal = report != nil
	s.report = report
	result := TurnResult{Reply: reply, Round: s.round, Terminal: s.terminal}
	s.mu.Unlock()

	if report != nil {
		r := *report
		result.Report = &r
	}

	s.logger.Debug("interview turn completed",
		zap.String("session_id", s.ID),
		zap.Int("round", result.Round),
		zap.Bool("terminal", result.Terminal),
		zap.Bool("reply_ok", out.OK()),
	)

	return result, nil
}

// finalize packages the transcript. Score and level come from the final
// assistant text; the session only detects terminality.
func (s *Session) finalize(transcript domain.Conversation, final string) domain.PsychTestReport {
	score, level := ParseAssessment(final)

	s.logger.Info("interview finished",
		zap.String("session_id", s.ID),
		zap.String("subject_id", s.subject.SubjectID),
		zap.Int("score", score),
		zap.String("level", level),
	)

	return domain.PsychTestReport{
		ID:        uuid.NewString(),
		SubjectID: s.subject.SubjectID,
		Date:      s.now(),
		Score:     score,
		Level:     level,
		Content:   final,
		Messages:  transcript,
	}
}

// Round returns the number of completed exchanges.
func (s *Session) Round() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.round
}

// Terminal reports whether the session has stopped accepting turns.
func (s *Session) Terminal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terminal
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() domain.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(domain.Conversation, len(s.turns))
	copy(out, s.turns)
	return out
}

// Report returns the finalized assessment once the session is terminal.
func (s *Session) Report() (domain.PsychTestReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.report == nil {
		return domain.PsychTestReport{}, false
	}
	return *s.report, true
}

// SubjectID returns the subject this session assesses.
func (s *Session) SubjectID() string {
	return s.subject.SubjectID
}
