// Guardian - Server Entry Point
//
// Loopback host for the police personnel care tool. It owns the local
// state file and the environment, and serves the AI-backed features to the
// browser page.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jingxin-guardian/internal/ai"
	"github.com/jingxin-guardian/internal/config"
	"github.com/jingxin-guardian/internal/handler"
	"github.com/jingxin-guardian/internal/interview"
	"github.com/jingxin-guardian/internal/logger"
	"github.com/jingxin-guardian/internal/rules"
	"github.com/jingxin-guardian/internal/service"
	"github.com/jingxin-guardian/internal/store"
	"github.com/jingxin-guardian/pkg/sanitizer"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	isDev := os.Getenv("GIN_MODE") != "release"

	zapLogger, err := logger.New(isDev)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting Guardian", zap.Bool("development", isDev))

	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	zapLogger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("ai_model", cfg.AI.Model),
		zap.String("native_model", cfg.Native.Model),
		zap.Bool("fallback_key", cfg.Native.APIKey != ""),
		zap.Bool("mock_mode", cfg.AI.MockMode),
		zap.Duration("ai_timeout", cfg.AI.Timeout),
		zap.String("prompt_language", cfg.AI.PromptLanguage),
	)

	st, err := store.Open(cfg.Storage.DataFile, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open state file", zap.Error(err))
	}

	// First run: seed the system configuration from the environment.
	if _, saved := st.SystemConfig(); !saved && cfg.AI.APIKey != "" {
		if err := st.SetSystemConfig(sanitizer.Resolve(cfg.DefaultAccessConfig())); err != nil {
			zapLogger.Fatal("failed to seed system configuration", zap.Error(err))
		}
		zapLogger.Info("system configuration seeded from environment",
			zap.String("credential", sanitizer.Mask(cfg.AI.APIKey)),
		)
	}

	validator := ai.NewDefaultValidator(cfg.AI.MaxResponseSize)
	classifier := rules.NewEngine(rules.DefaultRules(), zapLogger)

	var (
		primary  ai.Provider
		fallback ai.Provider
		native   *ai.GeminiProvider
	)
	if cfg.AI.MockMode {
		zapLogger.Warn("running in mock mode - AI responses are simulated")
		fallback = ai.NewMockProvider(zapLogger)
	} else {
		primary = ai.NewOpenAIProvider(ai.OpenAIOptions{
			Title:       cfg.AI.Title,
			Temperature: cfg.AI.Temperature,
		}, validator, zapLogger)

		native, err = ai.NewGeminiProvider(context.Background(), ai.GeminiOptions{
			APIKey:       cfg.Native.APIKey,
			DefaultModel: cfg.Native.Model,
			BaseURL:      cfg.Native.BaseURL,
			Temperature:  float32(cfg.AI.Temperature),
		}, validator, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to create native provider", zap.Error(err))
		}
		if native.Available() {
			fallback = native
		}
	}

	orchestrator := ai.NewOrchestrator(primary, fallback, classifier, zapLogger)

	prompts, err := ai.NewPromptBuilder(ai.Language(cfg.AI.PromptLanguage))
	if err != nil {
		zapLogger.Fatal("failed to create prompt builder", zap.Error(err))
	}

	assessor := service.NewAssessor(
		orchestrator,
		prompts,
		sanitizer.New(cfg.AI.MaxInputSize),
		interview.NewRegistry(),
		service.AssessorConfig{Timeout: cfg.AI.Timeout},
		zapLogger,
	)

	api := handler.NewAPI(assessor, st, cfg.DefaultAccessConfig(), zapLogger)
	healthHandler := handler.NewHealthHandler(zapLogger)
	readyHandler := handler.NewReadyHandler(func() handler.AccessPaths {
		return handler.AccessPaths{
			Generic:  !cfg.AI.MockMode && api.GenericConfigured(),
			Fallback: native != nil && native.Available(),
			Mock:     cfg.AI.MockMode,
		}
	}, zapLogger)

	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(api, healthHandler, readyHandler, cfg.AI.Origin, zapLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("server stopped")
}
