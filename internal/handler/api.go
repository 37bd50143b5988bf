package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jingxin-guardian/internal/domain"
	"github.com/jingxin-guardian/internal/service"
	"github.com/jingxin-guardian/internal/store"
	"github.com/jingxin-guardian/pkg/sanitizer"
	"go.uber.org/zap"
)

// API serves the case-management endpoints. It owns no state: records
// live in the store and live interview sessions in the assessor.
type API struct {
	assessor *service.Assessor
	store    *store.Store
	defaults domain.AccessConfig
	logger   *zap.Logger
}

// NewAPI creates the API handlers. defaults is the access configuration
// used until an administrator saves one.
func NewAPI(assessor *service.Assessor, st *store.Store, defaults domain.AccessConfig, logger *zap.Logger) *API {
	return &API{
		assessor: assessor,
		store:    st,
		defaults: defaults,
		logger:   logger.Named("api_handler"),
	}
}

type response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// aiResult is the uniform AI payload: Text is always displayable, whether
// it is model output or a rendered remediation.
type aiResult struct {
	Text        string              `json:"text"`
	Remediation *domain.Remediation `json:"remediation,omitempty"`
}

func newAIResult(out domain.Outcome) aiResult {
	return aiResult{Text: out.Render(), Remediation: out.Remediation}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Success: true, Data: data})
}

// fail maps an error to a status code and writes the error envelope.
func (h *API) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, errorResponse{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrSubjectNotFound),
		errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrEmptyTurn),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionTerminal),
		errors.Is(err, domain.ErrSessionActive),
		errors.Is(err, domain.ErrTurnInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTurnAbandoned):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *API) badRequest(c *gin.Context, err error) {
	h.logger.Debug("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, errorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
}

// accessConfig returns the saved system configuration, or the host
// defaults when none was saved.
func (h *API) accessConfig() domain.AccessConfig {
	cfg, saved := h.store.SystemConfig()
	if !saved {
		return h.defaults
	}
	if cfg.Origin == "" {
		cfg.Origin = h.defaults.Origin
	}
	return cfg
}

// GenericConfigured reports whether the generic path has a credential.
func (h *API) GenericConfigured() bool {
	return sanitizer.Resolve(h.accessConfig()).HasCredential()
}

type configView struct {
	Credential   string `json:"credential"`
	EndpointBase string `json:"endpoint_base"`
	ModelID      string `json:"model_id"`
	Configured   bool   `json:"configured"`
}

// GetConfig handles GET /config. The credential is never returned in clear.
func (h *API) GetConfig(c *gin.Context) {
	cfg := sanitizer.Resolve(h.accessConfig())
	view := configView{
		EndpointBase: cfg.EndpointBase,
		ModelID:      cfg.ModelID,
		Configured:   cfg.HasCredential(),
	}
	if cfg.HasCredential() {
		view.Credential = sanitizer.Mask(cfg.Credential)
	}
	ok(c, view)
}

type configRequest struct {
	Credential   string `json:"credential"`
	EndpointBase string `json:"endpoint_base"`
	ModelID      string `json:"model_id"`
}

// PutConfig handles PUT /config. Values are stored already resolved. A
// credential equal to the masked current one keeps the current key, so a
// settings form can round-trip what GET returned.
func (h *API) PutConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	current := h.accessConfig()
	credential := req.Credential
	if current.Credential != "" && credential == sanitizer.Mask(current.Credential) {
		credential = current.Credential
	}

	cfg := sanitizer.Resolve(domain.AccessConfig{
		Credential:   credential,
		EndpointBase: req.EndpointBase,
		ModelID:      req.ModelID,
		Origin:       current.Origin,
	})
	if err := h.store.SetSystemConfig(cfg); err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("system access configuration updated",
		zap.String("endpoint_base", cfg.EndpointBase),
		zap.String("model_id", cfg.ModelID),
		zap.String("credential", sanitizer.Mask(cfg.Credential)),
	)

	h.GetConfig(c)
}

// RegisterRoutes mounts every API route on the group.
func (h *API) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/config", h.GetConfig)
	v1.PUT("/config", h.PutConfig)

	v1.POST("/ai/call", h.CallAI)

	v1.PUT("/personnel/:subjectID", h.PutPersonnel)
	v1.GET("/personnel/:subjectID", h.GetPersonnel)

	v1.POST("/subjects/:subjectID/exams", h.AnalyzeExam)
	v1.GET("/subjects/:subjectID/exams", h.ListExams)
	v1.DELETE("/exams/:id", h.DeleteExam)

	v1.POST("/subjects/:subjectID/interviews", h.StartInterview)
	v1.GET("/interviews/:sessionID", h.GetInterview)
	v1.POST("/interviews/:sessionID/turns", h.SubmitTurn)
	v1.POST("/interviews/:sessionID/report", h.SaveInterviewReport)
	v1.GET("/subjects/:subjectID/psych-reports", h.ListPsychReports)

	v1.POST("/talks", h.AddTalk)
	v1.GET("/subjects/:subjectID/talks", h.ListTalks)
	v1.DELETE("/talks/:id", h.DeleteTalk)

	v1.POST("/subjects/:subjectID/report", h.GenerateReport)
	v1.GET("/subjects/:subjectID/report", h.GetReport)
	v1.PUT("/subjects/:subjectID/report", h.EditReport)

	v1.POST("/subjects/:subjectID/counsel", h.Counsel)
}
