package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/config"
	"go.uber.org/zap"
)

// CompletionRequest is one chat-style call: a fixed system role, a user prompt
// and a bounded token budget. JSON requests the provider's JSON-only mode.
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string
	Temperature float32
	MaxTokens   int
	JSON        bool
}

type LLMServiceInterface interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Ping(ctx context.Context) error
	Provider() string
}

type EmbeddingServiceInterface interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

const (
	pingSystem = "You are a test assistant."
	pingPrompt = "Respond with 'OK' if you receive this message."
)

func pingRequest(model string) CompletionRequest {
	return CompletionRequest{
		System:    pingSystem,
		Prompt:    pingPrompt,
		Model:     model,
		MaxTokens: 10,
	}
}

func isPingOK(answer string) bool {
	answer = strings.Trim(strings.TrimSpace(answer), ".!'\"")
	return strings.EqualFold(answer, "OK")
}

// NewLLMService builds the completion backend selected by LLM_PROVIDER.
func NewLLMService(ctx context.Context, cfg *config.LLMConfig, logger *zap.Logger) (LLMServiceInterface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg, logger), nil
	case config.ProviderGemini:
		return NewGeminiService(ctx, config.LoadGeminiConfig(), logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
