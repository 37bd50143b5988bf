// Package config handles host configuration from environment variables.
// Only the host reads the environment; the AI core receives everything it
// needs as explicit parameters.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jingxin-guardian/internal/ai"
	"github.com/jingxin-guardian/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Generic chat-completions path
	AI AIConfig

	// Native fallback path
	Native NativeConfig

	// Local state
	Storage StorageConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
}

// AIConfig contains settings for the generic path and the call budget.
type AIConfig struct {
	// APIKey seeds the stored system configuration when none exists yet.
	APIKey string

	// BaseURL is the default endpoint base.
	BaseURL string

	// Model is the default model identifier.
	Model string

	// Timeout bounds each orchestrator call. It is imposed by the caller,
	// the providers themselves never time out.
	Timeout time.Duration

	// Temperature is the sampling temperature for both paths.
	Temperature float64

	// Origin and Title identify this application to the endpoint.
	Origin string
	Title  string

	// MaxResponseSize caps accepted model text in bytes.
	MaxResponseSize int

	// MaxInputSize caps uploaded exam or counseling text in bytes.
	MaxInputSize int

	// MockMode swaps both paths for canned replies.
	MockMode bool

	// PromptLanguage selects the prompt wording, "zh" or "en".
	PromptLanguage string
}

// NativeConfig contains the operator-controlled fallback settings.
type NativeConfig struct {
	// APIKey is the environment-scoped fallback credential. Empty disables
	// the fallback.
	APIKey string

	// Model replaces vendor-qualified model ids on the native path.
	Model string

	// BaseURL overrides the native API root.
	BaseURL string
}

// StorageConfig contains local state settings.
type StorageConfig struct {
	// DataFile is the JSON document holding all records.
	DataFile string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	nativeKey := os.Getenv("GEMINI_API_KEY")
	if nativeKey == "" {
		nativeKey = os.Getenv("API_KEY")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8080"),
			ReadTimeout:  getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationOrDefault("SERVER_WRITE_TIMEOUT", 90*time.Second),
		},
		AI: AIConfig{
			APIKey:          os.Getenv("AI_API_KEY"),
			BaseURL:         getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:           getEnvOrDefault("AI_MODEL", "google/gemini-2.0-flash-001"),
			Timeout:         getDurationOrDefault("AI_TIMEOUT", 60*time.Second),
			Temperature:     getFloatOrDefault("AI_TEMPERATURE", 0.7),
			Origin:          getEnvOrDefault("APP_ORIGIN", "http://localhost:8080"),
			Title:           getEnvOrDefault("APP_TITLE", "Police Guardian"),
			MaxResponseSize: getIntOrDefault("AI_MAX_RESPONSE_SIZE", 200000),
			MaxInputSize:    getIntOrDefault("MAX_INPUT_SIZE", 50000),
			MockMode:        getBoolOrDefault("AI_MOCK_MODE", false),
			PromptLanguage:  getEnvOrDefault("PROMPT_LANGUAGE", string(ai.LanguageChinese)),
		},
		Native: NativeConfig{
			APIKey:  nativeKey,
			Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
			BaseURL: os.Getenv("GEMINI_BASE_URL"),
		},
		Storage: StorageConfig{
			DataFile: getEnvOrDefault("DATA_FILE", "data/guardian.json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid. Missing keys are not an
// error: the orchestrator reports them as a remediation at call time.
func (c *Config) Validate() error {
	if c.AI.Timeout < time.Second {
		return fmt.Errorf("%w: AI_TIMEOUT must be at least 1 second", domain.ErrInvalidConfig)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("%w: AI_TEMPERATURE must be between 0 and 2", domain.ErrInvalidConfig)
	}

	if c.AI.MaxInputSize < 1000 {
		return fmt.Errorf("%w: MAX_INPUT_SIZE must be at least 1000 bytes", domain.ErrInvalidConfig)
	}

	if c.AI.MaxResponseSize < 1000 {
		return fmt.Errorf("%w: AI_MAX_RESPONSE_SIZE must be at least 1000 bytes", domain.ErrInvalidConfig)
	}

	if !ai.Language(c.AI.PromptLanguage).IsValid() {
		return fmt.Errorf("%w: PROMPT_LANGUAGE must be zh or en", domain.ErrInvalidConfig)
	}

	if c.Server.WriteTimeout <= c.AI.Timeout {
		return fmt.Errorf("%w: SERVER_WRITE_TIMEOUT must exceed AI_TIMEOUT", domain.ErrInvalidConfig)
	}

	return nil
}

// DefaultAccessConfig is the system configuration used before an
// administrator saves one.
func (c *Config) DefaultAccessConfig() domain.AccessConfig {
	return domain.AccessConfig{
		Credential:   c.AI.APIKey,
		EndpointBase: c.AI.BaseURL,
		ModelID:      c.AI.Model,
		Origin:       c.AI.Origin,
	}
}

// Helper functions for reading environment variables

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Plain integers are seconds ("60")
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
