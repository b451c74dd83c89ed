package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// OpenAIService talks to any OpenAI-compatible chat/completions endpoint
// (OpenAI, OpenRouter, Groq).
type OpenAIService struct {
	client       *resty.Client
	defaultModel string
	logger       *zap.Logger
}

func NewOpenAIService(cfg *config.LLMConfig, log *zap.Logger) *OpenAIService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.RequestTimeout)

	return &OpenAIService{
		client:       client,
		defaultModel: cfg.ParserModel,
		logger:       logger.WithLLM(log, config.ProviderOpenAI, cfg.ParserModel),
	}
}

func (s *OpenAIService) Provider() string {
	return config.ProviderOpenAI
}

func (s *OpenAIService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	const op = "openai.Complete"

	if strings.TrimSpace(req.Prompt) == "" {
		return "", apperror.New(apperror.KindValidation, op, "prompt cannot be empty")
	}
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.JSON {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	s.logger.Debug("llm request",
		zap.String("model", model),
		zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
		zap.Bool("json_mode", req.JSON),
	)

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", apperror.Transient(apperror.KindConnectivity, op, err, "request failed")
	}

	raw := resp.String()
	if resp.IsError() {
		msg := gjson.Get(raw, "error.message").String()
		if msg == "" {
			msg = logger.Preview(raw, 200)
		}
		cause := fmt.Errorf("status %d: %s", resp.StatusCode(), msg)
		if isRetryableStatus(resp.StatusCode()) {
			return "", apperror.Transient(apperror.KindConnectivity, op, cause, "provider unavailable")
		}
		return "", apperror.Wrap(apperror.KindConnectivity, op, cause, "provider rejected request")
	}

	text := gjson.Get(raw, "choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		return "", apperror.Transient(apperror.KindConnectivity, op, apperror.ErrEmptyResponse, "no content")
	}

	s.logger.Debug("llm response",
		zap.String("model", model),
		zap.Int64("total_tokens", gjson.Get(raw, "usage.total_tokens").Int()),
		zap.String("response_preview", logger.Preview(text, 200)),
	)
	return text, nil
}

func (s *OpenAIService) Ping(ctx context.Context) error {
	answer, err := s.Complete(ctx, pingRequest(""))
	if err != nil {
		return apperror.Transient(apperror.KindConnectivity, "openai.Ping", err, "llm unreachable")
	}
	if !isPingOK(answer) {
		return apperror.Transient(apperror.KindConnectivity, "openai.Ping",
			fmt.Errorf("unexpected answer %q", logger.Preview(answer, 40)), "llm check failed")
	}
	return nil
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
