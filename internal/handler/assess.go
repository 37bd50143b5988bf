package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jingxin-guardian/internal/domain"
	"github.com/jingxin-guardian/internal/interview"
	"go.uber.org/zap"
)

const maxRounds = interview.MaxRounds

var errInvalidSpeaker = errors.New("messages: speaker must be human or assistant")

type callRequest struct {
	Prompt            string `json:"prompt" binding:"required"`
	SystemInstruction string `json:"system_instruction"`
}

// CallAI handles POST /ai/call.
func (h *API) CallAI(c *gin.Context) {
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	out, err := h.assessor.CallAI(c.Request.Context(), req.Prompt, h.accessConfig(), req.SystemInstruction)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, newAIResult(out))
}

type examRequest struct {
	FileName string `json:"file_name"`
	Content  string `json:"content" binding:"required"`
}

type examResult struct {
	Report domain.ExamReport `json:"report"`
	aiResult
}

// AnalyzeExam handles POST /subjects/:subjectID/exams: the upload is
// analyzed against the subject's earlier analyses and stored.
func (h *API) AnalyzeExam(c *gin.Context) {
	subjectID := c.Param("subjectID")

	var req examRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	if _, err := h.store.Personnel(subjectID); err != nil {
		h.fail(c, err)
		return
	}

	out, err := h.assessor.AnalyzeExam(c.Request.Context(), req.Content, h.accessConfig(), h.store.ExamHistory(subjectID))
	if err != nil {
		h.fail(c, err)
		return
	}

	report, err := h.store.AddExamReport(domain.ExamReport{
		SubjectID: subjectID,
		FileName:  req.FileName,
		Analysis:  out.Render(),
		Status:    domain.ExamStatusCompleted,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	ok(c, examResult{Report: report, aiResult: newAIResult(out)})
}

type sessionView struct {
	SessionID string              `json:"session_id"`
	SubjectID string              `json:"subject_id"`
	Round     int                 `json:"round"`
	MaxRounds int                 `json:"max_rounds"`
	Terminal  bool                `json:"terminal"`
	Turns     domain.Conversation `json:"turns"`

	// Report is the finalized assessment still waiting to be stored.
	Report *domain.PsychTestReport `json:"report,omitempty"`
}

func viewOf(s *interview.Session) sessionView {
	v := sessionView{
		SessionID: s.ID,
		SubjectID: s.SubjectID(),
		Round:     s.Round(),
		MaxRounds: maxRounds,
		Terminal:  s.Terminal(),
		Turns:     s.Turns(),
	}
	if r, done := s.Report(); done {
		v.Report = &r
	}
	return v
}

// StartInterview handles POST /subjects/:subjectID/interviews.
func (h *API) StartInterview(c *gin.Context) {
	ic, err := h.store.InterviewContext(c.Param("subjectID"))
	if err != nil {
		h.fail(c, err)
		return
	}

	s, err := h.assessor.StartInterview(c.Request.Context(), ic, h.accessConfig())
	if err != nil {
		h.fail(c, err)
		return
	}

	ok(c, viewOf(s))
}

// GetInterview handles GET /interviews/:sessionID.
func (h *API) GetInterview(c *gin.Context) {
	s, err := h.assessor.Session(c.Param("sessionID"))
	if err != nil {
		h.fail(c, err)
		return
	}

	ok(c, viewOf(s))
}

type turnRequest struct {
	Text string `json:"text"`
}

// SubmitTurn handles POST /interviews/:sessionID/turns. On the last round
// the assessment is stored and the session is closed. If storing fails the
// session stays readable and the save can be retried.
func (h *API) SubmitTurn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.assessor.RunInterviewTurn(c.Request.Context(), c.Param("sessionID"), req.Text, h.accessConfig())
	if err != nil {
		h.fail(c, err)
		return
	}

	if res.Report != nil {
		saved, err := h.storeAssessment(c.Param("sessionID"), *res.Report)
		if err != nil {
			h.fail(c, err)
			return
		}
		res.Report = &saved
	}

	ok(c, res)
}

// SaveInterviewReport handles POST /interviews/:sessionID/report: it
// stores the assessment of a finished session whose earlier save failed.
func (h *API) SaveInterviewReport(c *gin.Context) {
	sessionID := c.Param("sessionID")

	s, err := h.assessor.Session(sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}

	report, done := s.Report()
	if !done {
		h.fail(c, domain.ErrSessionActive)
		return
	}

	saved, err := h.storeAssessment(sessionID, report)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, saved)
}

func (h *API) storeAssessment(sessionID string, report domain.PsychTestReport) (domain.PsychTestReport, error) {
	saved, err := h.store.AddPsychReport(report)
	if err != nil {
		h.logger.Warn("assessment not stored, session kept",
			zap.String("session_id", sessionID),
			zap.String("subject_id", report.SubjectID),
			zap.Error(err),
		)
		return domain.PsychTestReport{}, err
	}

	h.assessor.CloseInterview(sessionID)
	return saved, nil
}

// GenerateReport handles POST /subjects/:subjectID/report. Only genuine
// model text is stored; a remediation is returned but leaves any existing
// report in place.
func (h *API) GenerateReport(c *gin.Context) {
	subjectID := c.Param("subjectID")

	rc, err := h.store.ReportContext(subjectID)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := h.assessor.BuildComprehensiveReport(c.Request.Context(), rc, h.accessConfig())
	if !out.OK() {
		ok(c, newAIResult(out))
		return
	}

	report := domain.AnalysisReport{
		SubjectID:   subjectID,
		GeneratedAt: time.Now(),
		Content:     out.Text,
		EditStatus:  domain.EditStatusAI,
	}
	if err := h.store.SaveAnalysisReport(report); err != nil {
		h.fail(c, err)
		return
	}

	ok(c, gin.H{"report": report, "text": out.Text})
}

// GetReport handles GET /subjects/:subjectID/report.
func (h *API) GetReport(c *gin.Context) {
	report, err := h.store.AnalysisReport(c.Param("subjectID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, report)
}

type editRequest struct {
	ManualEdit string                 `json:"manual_edit"`
	EditorName string                 `json:"editor_name" binding:"required"`
	Correction domain.QuickCorrection `json:"correction" binding:"omitempty,oneof=professional stricter soften"`
}

// EditReport handles PUT /subjects/:subjectID/report: a leader's manual
// edit, optionally followed by one of the quick corrections.
func (h *API) EditReport(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	report, err := h.store.AnalysisReport(c.Param("subjectID"))
	if err != nil {
		h.fail(c, err)
		return
	}

	text := req.ManualEdit
	if text == "" {
		text = report.Effective()
	}
	report.ManualEdit = text + req.Correction.Suffix()
	report.EditStatus = domain.EditStatusModified
	report.EditorName = req.EditorName

	if err := h.store.SaveAnalysisReport(report); err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("report edited",
		zap.String("subject_id", report.SubjectID),
		zap.String("editor", report.EditorName),
		zap.String("correction", string(req.Correction)),
	)

	ok(c, report)
}

type counselRequest struct {
	Messages domain.Conversation `json:"messages"`
	Text     string              `json:"text"`
}

// Counsel handles POST /subjects/:subjectID/counsel. The page keeps the
// transcript and sends it with every turn.
func (h *API) Counsel(c *gin.Context) {
	var req counselRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	for _, t := range req.Messages {
		if !t.Speaker.IsValid() {
			h.badRequest(c, errInvalidSpeaker)
			return
		}
	}

	ic, err := h.store.InterviewContext(c.Param("subjectID"))
	if err != nil {
		h.fail(c, err)
		return
	}

	out, err := h.assessor.Counsel(c.Request.Context(), ic, req.Messages, req.Text, h.accessConfig())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, newAIResult(out))
}
