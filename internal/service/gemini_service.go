package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// geminiModels is the subset of *genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type GeminiService struct {
	models            geminiModels
	model             string
	embeddingModel    string
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	logger            *zap.Logger
	mu                sync.Mutex
	consecutiveErrors int
	circuitBreakerMax int
	// CircuitCooldown is how long an open breaker rejects calls before it
	// lets one trial call through.
	CircuitCooldown time.Duration
	openedAt        time.Time
	now             func() time.Time
}

const maxEmbeddingRunes = 10000

var waitFor = func(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, log *zap.Logger) (*GeminiService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiService(client.Models, cfg.Model, cfg.EmbeddingModel, log), nil
}

func newGeminiService(models geminiModels, model, embeddingModel string, log *zap.Logger) *GeminiService {
	return &GeminiService{
		models:            models,
		model:             model,
		embeddingModel:    embeddingModel,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          90 * time.Second,
		RequestTimeout:    90 * time.Second,
		logger:            logger.WithLLM(log, config.ProviderGemini, model),
		circuitBreakerMax: 5,
		CircuitCooldown:   time.Minute,
		now:               time.Now,
	}
}

func (s *GeminiService) Provider() string {
	return config.ProviderGemini
}

func (s *GeminiService) Ping(ctx context.Context) error {
	answer, err := s.Complete(ctx, pingRequest(s.model))
	if err != nil {
		return apperror.Transient(apperror.KindConnectivity, "gemini.Ping", err, "llm unreachable")
	}
	if !isPingOK(answer) {
		return apperror.Transient(apperror.KindConnectivity, "gemini.Ping",
			fmt.Errorf("unexpected answer %q", logger.Preview(answer, 40)), "llm check failed")
	}
	return nil
}

func (s *GeminiService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	const op = "gemini.Complete"

	if strings.TrimSpace(req.Prompt) == "" {
		return "", apperror.New(apperror.KindValidation, op, "prompt cannot be empty")
	}
	model := req.Model
	if model == "" {
		model = s.model
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}

	var text string
	err := s.withRetry(ctx, "GenerateContent", func(callCtx context.Context) error {
		result, err := s.models.GenerateContent(callCtx, model, genai.Text(req.Prompt), genConfig)
		if err != nil {
			return err
		}
		if err := s.validateGenerateResponse(result); err != nil {
			return apperror.Wrap(apperror.KindConnectivity, op, err, "invalid response")
		}
		text = result.Text()
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperror.Transient(apperror.KindConnectivity, op, apperror.ErrEmptyResponse, "no content")
	}
	return text, nil
}

func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	trimmedText := strings.TrimSpace(text)
	if trimmedText == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}

	if runes := []rune(trimmedText); len(runes) > maxEmbeddingRunes {
		s.logger.Warn("embedding text truncated", zap.Int("length", len(runes)))
		trimmedText = string(runes[:maxEmbeddingRunes])
	}

	content := []*genai.Content{genai.NewContentFromText(trimmedText, genai.RoleUser)}

	var embeddings []float32
	err := s.withRetry(ctx, "GenerateEmbedding", func(callCtx context.Context) error {
		result, err := s.models.EmbedContent(callCtx, s.embeddingModel, content, nil)
		if err != nil {
			return err
		}
		embeddings, err = s.validateEmbeddingResponse(result)
		if err != nil {
			return apperror.Wrap(apperror.KindInternal, "gemini.GenerateEmbedding", err, "invalid embedding response")
		}
		return nil
	})
	return embeddings, err
}

// withRetry runs call with exponential backoff on retryable errors and
// maintains the circuit breaker.
func (s *GeminiService) withRetry(ctx context.Context, name string, call func(context.Context) error) error {
	if errs, ok := s.allowCall(); !ok {
		return apperror.New(apperror.KindConnectivity, "gemini."+name,
			fmt.Sprintf("circuit breaker open: too many consecutive errors (%d)", errs))
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.logger.Info("retrying gemini call",
				zap.String("call", name),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", s.MaxRetries),
				zap.Duration("delay", delay),
			)
			if err := waitFor(timeoutCtx, delay); err != nil {
				return apperror.Transient(apperror.KindConnectivity, "gemini."+name, err, "context timeout during retry")
			}
		}

		err := call(timeoutCtx)
		if err == nil {
			s.recordSuccess()
			return nil
		}
		lastErr = err

		var appErr *apperror.Error
		if errors.As(err, &appErr) || !s.isRetryableError(err) {
			// only outages count towards the breaker, not rejected requests
			timedOut := errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
			if timedOut || (appErr != nil && appErr.Retryable) {
				s.recordFailure()
			}
			s.logger.Warn("non-retryable gemini error", zap.String("call", name), zap.Error(err))
			if appErr != nil {
				return appErr
			}
			return apperror.Wrap(apperror.KindConnectivity, "gemini."+name, err, "call failed")
		}

		s.logger.Warn("retryable gemini error", zap.String("call", name), zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.recordFailure()
	return apperror.Transient(apperror.KindConnectivity, "gemini."+name, lastErr,
		fmt.Sprintf("max retries (%d) exceeded", s.MaxRetries))
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))

	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}

	jitter := time.Duration(float64(delay) * 0.25)
	delay = delay - jitter/2 + time.Duration(float64(jitter)*0.5)

	return delay
}

func (s *GeminiService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return isRetryableStatus(apiErrPtr.Code)
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

func (s *GeminiService) validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}

	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}

	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}

	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}

	return nil
}

func (s *GeminiService) validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embeddings := resp.Embeddings[0].Values

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}

	for i, val := range embeddings {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}

	return embeddings, nil
}

func (s *GeminiService) recordSuccess() {
	s.mu.Lock()
	s.consecutiveErrors = 0
	s.openedAt = time.Time{}
	s.mu.Unlock()
}

func (s *GeminiService) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors++
	if s.consecutiveErrors >= s.circuitBreakerMax {
		s.openedAt = s.now()
	}
}

// allowCall reports whether a call may proceed. Once the cooldown has passed
// an open breaker lets a single trial call through; its result closes the
// breaker or restarts the cooldown.
func (s *GeminiService) allowCall() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consecutiveErrors < s.circuitBreakerMax {
		return s.consecutiveErrors, true
	}
	if s.now().Sub(s.openedAt) < s.CircuitCooldown {
		return s.consecutiveErrors, false
	}
	s.openedAt = s.now()
	s.logger.Info("circuit breaker half-open, trying one call")
	return s.consecutiveErrors, true
}

func (s *GeminiService) ResetCircuitBreaker() {
	s.recordSuccess()
	s.logger.Info("circuit breaker reset")
}

// GetCircuitBreakerStatus reports the failure count and whether calls are
// currently rejected.
func (s *GeminiService) GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := s.consecutiveErrors >= s.circuitBreakerMax && s.now().Sub(s.openedAt) < s.CircuitCooldown
	return s.consecutiveErrors, open
}
