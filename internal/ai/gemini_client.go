package ai

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jingxin-guardian/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// DefaultNativeModel is used when the preferred model belongs to another
	// catalog (vendor-qualified) or is not set.
	DefaultNativeModel = "gemini-3-flash-preview"

	// defaultNativeSystem is sent when the caller supplies no instruction.
	defaultNativeSystem = "You are a professional assistant for police case management."
)

// apiErrorCode pulls the HTTP code out of the SDK's error text
// ("Error 401, Message: ..., Status: ...").
var apiErrorCode = regexp.MustCompile(`Error (\d{3})\b`)

// GeminiProvider is the operator-controlled native path. It uses a key
// resolved by the host, never the per-call AccessConfig credential.
type GeminiProvider struct {
	client       *genai.Client
	defaultModel string
	temperature  float32
	validator    ResponseValidator
	logger       *zap.Logger
}

// GeminiOptions configures the native provider.
type GeminiOptions struct {
	// APIKey is the environment-scoped credential. Empty disables the path.
	APIKey string

	// DefaultModel replaces vendor-qualified model ids.
	DefaultModel string

	// BaseURL overrides the API root, mainly for tests.
	BaseURL string

	// Temperature is the sampling temperature.
	Temperature float32

	// HTTPClient overrides the SDK's HTTP client.
	HTTPClient *http.Client
}

// NewGeminiProvider creates the native provider. With an empty key it
// returns a provider whose every Send reports missing configuration.
func NewGeminiProvider(ctx context.Context, opts GeminiOptions, validator ResponseValidator, logger *zap.Logger) (*GeminiProvider, error) {
	p := &GeminiProvider{
		defaultModel: opts.DefaultModel,
		temperature:  opts.Temperature,
		validator:    validator,
		logger:       logger.Named("gemini_provider"),
	}
	if p.defaultModel == "" {
		p.defaultModel = DefaultNativeModel
	}

	// The SDK falls back to ambient environment variables when APIKey is
	// empty, so it is only constructed with an explicit key.
	if opts.APIKey == "" {
		return p, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	p.client = client

	return p, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Available reports whether a fallback credential was configured.
func (p *GeminiProvider) Available() bool {
	return p.client != nil
}

// NativeModel maps the caller's preferred model onto the native catalog.
func NativeModel(preferred, fallback string) string {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" || strings.Contains(preferred, "/") {
		return fallback
	}
	return preferred
}

// Send issues one generate-content call.
func (p *GeminiProvider) Send(ctx context.Context, req Request) (string, error) {
	if p.client == nil {
		return "", domain.NewProviderError(p.Name(), 0, "", domain.ErrConfigMissing)
	}

	startTime := time.Now()
	model := NativeModel(req.Config.ModelID, p.defaultModel)

	system := req.SystemInstruction
	if system == "" {
		system = defaultNativeSystem
	}

	temperature := p.temperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temperature,
	}

	p.logger.Debug("sending generate content", zap.String("model", model))

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", domain.NewProviderError(p.Name(), statusFromSDKError(err), sdkMessage(err), err)
	}

	text := resp.Text()
	if err := p.validator.Validate(text); err != nil {
		return "", domain.NewProviderError(p.Name(), http.StatusOK, "", err)
	}

	p.logger.Debug("generate content received",
		zap.String("model", model),
		zap.Int("content_length", len(text)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return text, nil
}

func statusFromSDKError(err error) int {
	m := apiErrorCode.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// sdkMessage keeps the server text only for API errors; transport errors
// carry no server message.
func sdkMessage(err error) string {
	if statusFromSDKError(err) == 0 {
		return ""
	}
	return err.Error()
}
