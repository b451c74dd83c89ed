package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// LLMConfig selects the completion backend. OpenAI-compatible endpoints
// (OpenAI, OpenRouter, Groq) share the same settings.
type LLMConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	ParserModel    string
	ScoringModel   string
	RequestTimeout time.Duration
}

var (
	llmConfig *LLMConfig
	llmOnce   sync.Once
)

func LoadLLMConfig() *LLMConfig {
	llmOnce.Do(func() {
		llmConfig = &LLMConfig{
			Provider:       strings.ToLower(getEnvString("LLM_PROVIDER", ProviderOpenAI)),
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			BaseURL:        getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ParserModel:    getEnvString("LLM_PARSER_MODEL", "gpt-4o-mini"),
			ScoringModel:   getEnvString("LLM_SCORING_MODEL", "gpt-4o-mini"),
			RequestTimeout: time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 90)) * time.Second,
		}
	})
	return llmConfig
}

// Validate reports a missing key for the active provider. Callers treat it as fatal.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("OPENAI_API_KEY not set")
		}
	case ProviderGemini:
		if strings.TrimSpace(LoadGeminiConfig().APIKey) == "" {
			return fmt.Errorf("GEMINI_API_KEY not set")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}
	return nil
}
