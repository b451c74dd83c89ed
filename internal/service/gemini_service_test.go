package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModelResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu      sync.Mutex
	queue   []fakeModelResponse
	configs []*genai.GenerateContentConfig
	embed   *genai.EmbedContentResponse
	embeds  []string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, config)
	if len(f.queue) == 0 {
		return nil, genai.APIError{Code: http.StatusBadRequest, Message: "unexpected call"}
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next.resp, next.err
}

func (f *fakeModels) EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range contents {
		for _, p := range c.Parts {
			f.embeds = append(f.embeds, p.Text)
		}
	}
	return f.embed, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func withInstantWait(t *testing.T) {
	t.Helper()
	original := waitFor
	waitFor = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { waitFor = original })
}

func TestGeminiCompleteRetriesOnServerError(t *testing.T) {
	withInstantWait(t)

	models := &fakeModels{queue: []fakeModelResponse{
		{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}},
		{resp: textResponse(`{"ok":true}`)},
	}}
	svc := newGeminiService(models, "gemini-test", "embed-test", zap.NewNop())

	out, err := svc.Complete(context.Background(), CompletionRequest{
		System:      "system",
		Prompt:      "prompt",
		Temperature: 0.1,
		MaxTokens:   4000,
		JSON:        true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected output %q", out)
	}
	if len(models.configs) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.configs))
	}
	cfg := models.configs[1]
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", cfg.ResponseMIMEType)
	}
	if cfg.MaxOutputTokens != 4000 || cfg.Temperature == nil || *cfg.Temperature != 0.1 {
		t.Fatalf("unexpected generation config: %+v", cfg)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "system" {
		t.Fatalf("expected system instruction")
	}
	if n, open := svc.GetCircuitBreakerStatus(); n != 0 || open {
		t.Fatalf("expected closed breaker after success, got %d/%v", n, open)
	}
}

func TestGeminiCompleteDoesNotRetryClientError(t *testing.T) {
	withInstantWait(t)

	models := &fakeModels{queue: []fakeModelResponse{
		{err: genai.APIError{Code: http.StatusForbidden, Status: "PERMISSION_DENIED"}},
	}}
	svc := newGeminiService(models, "gemini-test", "", zap.NewNop())

	_, err := svc.Complete(context.Background(), CompletionRequest{Prompt: "prompt"})
	if err == nil {
		t.Fatal("expected error")
	}
	if apperror.IsRetryable(err) {
		t.Fatalf("client error must not be retryable: %v", err)
	}
	if len(models.configs) != 1 {
		t.Fatalf("expected a single call, got %d", len(models.configs))
	}
}

func serverErrors(n int) []fakeModelResponse {
	out := make([]fakeModelResponse, n)
	for i := range out {
		out[i] = fakeModelResponse{err: genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}}
	}
	return out
}

func TestGeminiCircuitBreakerOpens(t *testing.T) {
	withInstantWait(t)

	models := &fakeModels{queue: serverErrors(5)}
	svc := newGeminiService(models, "gemini-test", "", zap.NewNop())
	svc.MaxRetries = 0

	for i := 0; i < svc.circuitBreakerMax; i++ {
		_, _ = svc.Complete(context.Background(), CompletionRequest{Prompt: "prompt"})
	}
	calls := len(models.configs)

	_, err := svc.Complete(context.Background(), CompletionRequest{Prompt: "prompt"})
	if err == nil {
		t.Fatal("expected breaker error")
	}
	if len(models.configs) != calls {
		t.Fatalf("breaker should short-circuit the call")
	}

	svc.ResetCircuitBreaker()
	if _, open := svc.GetCircuitBreakerStatus(); open {
		t.Fatal("expected breaker to be closed after reset")
	}
}

func TestGeminiClientErrorsDoNotOpenBreaker(t *testing.T) {
	withInstantWait(t)

	// an empty queue answers every call with 400
	models := &fakeModels{}
	svc := newGeminiService(models, "gemini-test", "", zap.NewNop())
	svc.MaxRetries = 0

	for i := 0; i < svc.circuitBreakerMax+2; i++ {
		_, _ = svc.Complete(context.Background(), CompletionRequest{Prompt: "prompt"})
	}
	if len(models.configs) != svc.circuitBreakerMax+2 {
		t.Fatalf("expected every call to reach the model, got %d", len(models.configs))
	}
	if errs, open := svc.GetCircuitBreakerStatus(); open || errs != 0 {
		t.Fatalf("expected closed breaker with no failures, got %d open=%v", errs, open)
	}
}

func TestGeminiCircuitBreakerRecoversAfterCooldown(t *testing.T) {
	withInstantWait(t)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	models := &fakeModels{queue: serverErrors(5)}
	svc := newGeminiService(models, "gemini-test", "", zap.NewNop())
	svc.MaxRetries = 0
	svc.CircuitCooldown = 30 * time.Second
	svc.now = func() time.Time { return clock }

	for i := 0; i < svc.circuitBreakerMax; i++ {
		_, _ = svc.Complete(context.Background(), CompletionRequest{Prompt: "prompt"})
	}
	if _, open := svc.GetCircuitBreakerStatus(); !open {
		t.Fatal("expected breaker to be open")
	}

	clock = clock.Add(10 * time.Second)
	if _, err := svc.Complete(context.Background(), CompletionRequest{Prompt: "prompt"}); err == nil {
		t.Fatal("expected breaker error before cooldown")
	}

	// failed trial call restarts the cooldown
	clock = clock.Add(30 * time.Second)
	models.queue = serverErrors(1)
	calls := len(models.configs)
	if _, err := svc.Complete(context.Background(), CompletionRequest{Prompt: "prompt"}); err == nil {
		t.Fatal("expected trial call to fail")
	}
	if len(models.configs) != calls+1 {
		t.Fatal("expected exactly one trial call")
	}
	if _, open := svc.GetCircuitBreakerStatus(); !open {
		t.Fatal("expected breaker to reopen after failed trial")
	}

	clock = clock.Add(30 * time.Second)
	models.queue = []fakeModelResponse{{resp: textResponse("fine")}}
	out, err := svc.Complete(context.Background(), CompletionRequest{Prompt: "prompt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "fine" {
		t.Fatalf("unexpected output %q", out)
	}
	if errs, open := svc.GetCircuitBreakerStatus(); open || errs != 0 {
		t.Fatalf("expected closed breaker, got %d open=%v", errs, open)
	}
}

func TestGeminiPing(t *testing.T) {
	withInstantWait(t)

	models := &fakeModels{queue: []fakeModelResponse{{resp: textResponse("OK")}}}
	svc := newGeminiService(models, "gemini-test", "", zap.NewNop())
	if err := svc.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestGeminiGenerateEmbedding(t *testing.T) {
	models := &fakeModels{embed: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.1, 0.2}}},
	}}
	svc := newGeminiService(models, "gemini-test", "embed-test", zap.NewNop())

	vec, err := svc.GenerateEmbedding(context.Background(), "Go developer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("expected 2 values, got %d", len(vec))
	}

	if _, err := svc.GenerateEmbedding(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestGeminiGenerateEmbeddingTruncatesByRune(t *testing.T) {
	models := &fakeModels{embed: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.1}}},
	}}
	svc := newGeminiService(models, "gemini-test", "embed-test", zap.NewNop())

	text := strings.Repeat("опыт работы ", 2000)
	if _, err := svc.GenerateEmbedding(context.Background(), text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models.embeds) != 1 {
		t.Fatalf("expected one embedded text, got %d", len(models.embeds))
	}
	sent := models.embeds[0]
	if !utf8.ValidString(sent) {
		t.Fatal("truncated text is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(sent); n != maxEmbeddingRunes {
		t.Fatalf("expected %d runes, got %d", maxEmbeddingRunes, n)
	}
}
