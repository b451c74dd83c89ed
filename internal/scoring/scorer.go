package scoring

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/service"
	"go.uber.org/zap"
)

const (
	temperature = 0.2
	maxTokens   = 1500
	logPreview  = 200
)

type completer interface {
	Complete(ctx context.Context, req service.CompletionRequest) (string, error)
}

// Scorer rates one candidate against one vacancy. It does not retry and does
// not persist; callers own both.
type Scorer struct {
	llm         completer
	model       string
	calibration Calibration
	logger      *zap.Logger
}

func New(llm completer, model string, cal Calibration, log *zap.Logger) *Scorer {
	return &Scorer{llm: llm, model: model, calibration: cal, logger: logger.OrNop(log)}
}

func (s *Scorer) Calibration() Calibration {
	return s.calibration
}

// Score returns an unsaved MatchAnalysis for the pair, without fingerprint.
func (s *Scorer) Score(ctx context.Context, vacancy *model.Vacancy, candidate *model.Candidate) (*model.MatchAnalysis, error) {
	const op = "scoring.Score"
	if vacancy == nil || candidate == nil {
		return nil, apperror.New(apperror.KindValidation, op, "vacancy and candidate are required")
	}

	prompt := buildPrompt(vacancy, candidate)
	s.logger.Debug("scoring request",
		zap.String("vacancy_id", vacancy.ID.String()),
		zap.String("candidate_id", candidate.ID.String()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)))

	raw, err := s.llm.Complete(ctx, service.CompletionRequest{
		System:      systemPrompt,
		Prompt:      prompt,
		Model:       s.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, apperror.Transient(apperror.KindScoring, op, err, "completion failed")
	}
	if strings.TrimSpace(raw) == "" {
		return nil, apperror.Transient(apperror.KindScoring, op, apperror.ErrEmptyResponse, "empty scoring response")
	}

	s.logger.Debug("scoring response",
		zap.String("candidate_id", candidate.ID.String()),
		zap.String("response_preview", logger.Preview(raw, logPreview)))

	res := ParseResponse(raw, s.calibration)
	if res.Recognized == 0 {
		return nil, apperror.Transient(apperror.KindScoring, op, nil, "no scores found in response")
	}

	analysis := &model.MatchAnalysis{
		VacancyID:   vacancy.ID,
		CandidateID: candidate.ID,
	}
	res.Apply(analysis, s.calibration)
	return analysis, nil
}
