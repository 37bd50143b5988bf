package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jingxin-guardian/internal/domain"
	"go.uber.org/zap"
)

// PutPersonnel handles PUT /personnel/:subjectID.
func (h *API) PutPersonnel(c *gin.Context) {
	var p domain.PersonnelRecord
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, err)
		return
	}
	p.SubjectID = c.Param("subjectID")

	if err := h.store.UpsertPersonnel(p); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, p)
}

// GetPersonnel handles GET /personnel/:subjectID.
func (h *API) GetPersonnel(c *gin.Context) {
	p, err := h.store.Personnel(c.Param("subjectID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, p)
}

// ListExams handles GET /subjects/:subjectID/exams.
func (h *API) ListExams(c *gin.Context) {
	ok(c, nonNil(h.store.ExamReports(c.Param("subjectID"))))
}

// DeleteExam handles DELETE /exams/:id.
func (h *API) DeleteExam(c *gin.Context) {
	if err := h.store.DeleteExamReport(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

// ListPsychReports handles GET /subjects/:subjectID/psych-reports.
func (h *API) ListPsychReports(c *gin.Context) {
	ok(c, nonNil(h.store.PsychReports(c.Param("subjectID"))))
}

// AddTalk handles POST /talks.
func (h *API) AddTalk(c *gin.Context) {
	var t domain.TalkRecord
	if err := c.ShouldBindJSON(&t); err != nil {
		h.badRequest(c, err)
		return
	}

	saved, err := h.store.AddTalkRecord(t)
	if err != nil {
		h.fail(c, err)
		return
	}

	if saved.HighRisk() {
		h.logger.Info("high-risk interview recorded",
			zap.String("subject_id", saved.SubjectID),
			zap.Int("risk_flags", saved.RiskCount()),
		)
	}
	ok(c, saved)
}

// ListTalks handles GET /subjects/:subjectID/talks.
func (h *API) ListTalks(c *gin.Context) {
	ok(c, nonNil(h.store.TalkRecords(c.Param("subjectID"))))
}

// DeleteTalk handles DELETE /talks/:id.
func (h *API) DeleteTalk(c *gin.Context) {
	if err := h.store.DeleteTalkRecord(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

// nonNil makes empty lists encode as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
