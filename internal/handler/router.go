package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(api *API, health *HealthHandler, ready *ReadyHandler, corsOrigin string, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware(corsOrigin))

	router.GET("/health", health.Handle)
	router.GET("/ready", ready.Handle)

	api.RegisterRoutes(router.Group("/api/v1"))

	return router
}
