package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jingxin-guardian/internal/domain"
	"github.com/jingxin-guardian/pkg/sanitizer"
	"go.uber.org/zap"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 1 << 20

// OpenAIProvider talks to any OpenAI-compatible chat-completions endpoint
// (OpenRouter by default). Endpoint, model and key come from the per-call
// AccessConfig.
type OpenAIProvider struct {
	httpClient  *http.Client
	title       string
	temperature float64
	validator   ResponseValidator
	logger      *zap.Logger
}

// OpenAIOptions configures the generic provider.
type OpenAIOptions struct {
	// Title is sent as the human-readable application title header.
	Title string

	// Temperature is the sampling temperature.
	Temperature float64

	// HTTPClient overrides the default client. No timeout is set by
	// default; the caller bounds each call through its context.
	HTTPClient *http.Client
}

// Chat-completions request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *chatError `json:"error"`
}

// chatError is the error envelope. Code is a number on some gateways and a
// string on others.
type chatError struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    json.RawMessage `json:"code"`
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(opts OpenAIOptions, validator ResponseValidator, logger *zap.Logger) *OpenAIProvider {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &OpenAIProvider{
		httpClient:  client,
		title:       sanitizer.HeaderValue(opts.Title),
		temperature: opts.Temperature,
		validator:   validator,
		logger:      logger.Named("openai_provider"),
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Send issues a single POST to {endpointBase}/chat/completions. req.Config
// must already be resolved.
func (p *OpenAIProvider) Send(ctx context.Context, req Request) (string, error) {
	startTime := time.Now()
	cfg := req.Config

	if !cfg.HasCredential() {
		return "", domain.NewProviderError(p.Name(), 0, "", domain.ErrConfigMissing)
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemInstruction})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	jsonBody, err := json.Marshal(chatRequest{
		Model:       cfg.ModelID,
		Messages:    messages,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", domain.NewProviderError(p.Name(), 0, "", fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/chat/completions", cfg.EndpointBase)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", domain.NewProviderError(p.Name(), 0, "", fmt.Errorf("create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.Credential)
	if cfg.Origin != "" {
		httpReq.Header.Set("HTTP-Referer", cfg.Origin)
	}
	if p.title != "" {
		httpReq.Header.Set("X-Title", p.title)
	}

	p.logger.Debug("sending chat completion",
		zap.String("url", url),
		zap.String("model", cfg.ModelID),
		zap.String("credential", sanitizer.Mask(cfg.Credential)),
		zap.Int("body_size", len(jsonBody)),
	)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.NewProviderError(p.Name(), 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", domain.NewProviderError(p.Name(), resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	text, err := p.parse(resp.StatusCode, body)
	if err != nil {
		return "", err
	}

	p.logger.Debug("chat completion received",
		zap.Int("status", resp.StatusCode),
		zap.Int("content_length", len(text)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return text, nil
}

// parse interprets a response body as either the first choice's text or a
// provisional failure.
func (p *OpenAIProvider) parse(status int, body []byte) (string, error) {
	var chatResp chatResponse
	decodeErr := json.Unmarshal(body, &chatResp)

	if status < 200 || status > 299 {
		message := ""
		if decodeErr == nil && chatResp.Error != nil {
			message = chatResp.Error.Message
		}
		if message == "" {
			message = truncate(string(body), 200)
		}
		return "", domain.NewProviderError(p.Name(), status, message, nil)
	}

	if decodeErr != nil {
		p.logger.Warn("failed to unmarshal chat response",
			zap.Error(decodeErr),
			zap.String("body_preview", truncate(string(body), 200)),
		)
		return "", domain.NewProviderError(p.Name(), status, "",
			fmt.Errorf("%w: %v", domain.ErrMalformedResponse, decodeErr))
	}

	// some gateways report failures inside a 200 body
	if chatResp.Error != nil {
		return "", domain.NewProviderError(p.Name(), status, chatResp.Error.Message, nil)
	}

	if len(chatResp.Choices) == 0 {
		return "", domain.NewProviderError(p.Name(), status, "",
			fmt.Errorf("%w: no choices", domain.ErrMalformedResponse))
	}

	content := chatResp.Choices[0].Message.Content
	if err := p.validator.Validate(content); err != nil {
		return "", domain.NewProviderError(p.Name(), status, "", err)
	}

	return content, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
