package ai

import (
	"context"

	"go.uber.org/zap"
)

// MockProvider answers without any network access.
type MockProvider struct {
	logger *zap.Logger
}

// NewMockProvider creates a new mock provider for local runs.
func NewMockProvider(logger *zap.Logger) *MockProvider {
	return &MockProvider{
		logger: logger.Named("mock_provider"),
	}
}

// Name implements Provider.
func (p *MockProvider) Name() string {
	return "mock"
}

// Send returns a canned reply. The final interview round gets a reply that
// carries a score and level so the whole flow can be exercised.
func (p *MockProvider) Send(ctx context.Context, req Request) (string, error) {
	p.logger.Debug("mock generation", zap.Int("prompt_length", len(req.Prompt)))

	if isFinalRound(req.SystemInstruction) {
		return "Assessment report (simulated).\nScore: 85\nLevel: good\n" +
			"Enable real AI by setting AI_MOCK_MODE=false.", nil
	}

	return "This is a simulated reply. Enable real AI by setting AI_MOCK_MODE=false " +
		"and configuring an API key.", nil
}
