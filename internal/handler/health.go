package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger.Named("health_handler"),
	}
}

// Handle processes GET /health requests.
func (h *HealthHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// AccessPaths reports which model access paths are usable.
type AccessPaths struct {
	Generic  bool `json:"generic"`
	Fallback bool `json:"fallback"`
	Mock     bool `json:"mock"`
}

// ReadyHandler handles readiness check requests.
type ReadyHandler struct {
	paths  func() AccessPaths
	logger *zap.Logger
}

// NewReadyHandler creates a new ReadyHandler. paths is evaluated per
// request since the generic credential can change at runtime.
func NewReadyHandler(paths func() AccessPaths, logger *zap.Logger) *ReadyHandler {
	return &ReadyHandler{
		paths:  paths,
		logger: logger.Named("ready_handler"),
	}
}

// Handle processes GET /ready requests. The host is ready when at least one
// access path can be attempted; otherwise every AI call would come back as
// a configuration remediation.
func (h *ReadyHandler) Handle(c *gin.Context) {
	p := h.paths()
	status, code := "ready", http.StatusOK
	if !p.Generic && !p.Fallback && !p.Mock {
		status, code = "unconfigured", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"paths":  p,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
