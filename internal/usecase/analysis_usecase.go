package usecase

import (
	"bytes"
	"context"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/cache"
	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/export"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Scorer interface {
	Score(ctx context.Context, vacancy *model.Vacancy, candidate *model.Candidate) (*model.MatchAnalysis, error)
}

// sleep waits for d or until ctx is done. Tests replace it.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type AnalysisUsecase struct {
	vacancies  VacancyStore
	candidates CandidateStore
	analyses   AnalysisStore
	scorer     Scorer
	recent     *cache.AnalysisCache
	cfg        *config.ScoringConfig
	logger     *zap.Logger
}

func NewAnalysisUsecase(vacancies VacancyStore, candidates CandidateStore, analyses AnalysisStore, scorer Scorer, recent *cache.AnalysisCache, cfg *config.ScoringConfig, log *zap.Logger) *AnalysisUsecase {
	return &AnalysisUsecase{
		vacancies:  vacancies,
		candidates: candidates,
		analyses:   analyses,
		scorer:     scorer,
		recent:     recent,
		cfg:        cfg,
		logger:     logger.OrNop(log),
	}
}

type AnalyzeSummary struct {
	Analyzed int                   `json:"analyzed"`
	Reused   int                   `json:"reused"`
	Failed   int                   `json:"failed"`
	Results  []model.MatchAnalysis `json:"results"`
	Errors   map[string]string     `json:"errors,omitempty"`
}

func (uc *AnalysisUsecase) Analyze(ctx context.Context, vacancyID, candidateID uuid.UUID) (*model.MatchAnalysis, error) {
	vacancy, err := uc.vacancies.FindByID(ctx, vacancyID)
	if err != nil {
		return nil, err
	}
	candidate, err := uc.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	a, _, err := uc.analyzePair(ctx, vacancy, candidate)
	return a, err
}

// AnalyzeVacancy scores the listed candidates, or all of them when ids is
// empty. One candidate failing does not stop the others.
func (uc *AnalysisUsecase) AnalyzeVacancy(ctx context.Context, vacancyID uuid.UUID, ids []uuid.UUID) (*AnalyzeSummary, error) {
	vacancy, err := uc.vacancies.FindByID(ctx, vacancyID)
	if err != nil {
		return nil, err
	}
	candidates, err := uc.candidates.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	summary := &AnalyzeSummary{Results: make([]model.MatchAnalysis, 0, len(candidates))}
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		a, reused, err := uc.analyzePair(ctx, vacancy, &candidates[i])
		if err != nil {
			summary.Failed++
			if summary.Errors == nil {
				summary.Errors = make(map[string]string)
			}
			summary.Errors[candidates[i].ID.String()] = err.Error()
			continue
		}
		if reused {
			summary.Reused++
		} else {
			summary.Analyzed++
		}
		summary.Results = append(summary.Results, *a)
	}
	return summary, nil
}

// analyzePair returns the stored analysis when the candidate's fingerprint is
// unchanged, otherwise scores the pair and replaces the stored one.
func (uc *AnalysisUsecase) analyzePair(ctx context.Context, vacancy *model.Vacancy, candidate *model.Candidate) (*model.MatchAnalysis, bool, error) {
	log := uc.logger.With(
		zap.String("vacancy_id", vacancy.ID.String()),
		zap.String("candidate_id", candidate.ID.String()))
	fingerprint := cache.Fingerprint(candidate)

	if cached, ok := uc.recent.Get(vacancy.ID, candidate.ID); ok && cached.DataFingerprint == fingerprint {
		log.Debug("analysis served from cache")
		return cached, true, nil
	}

	existing, err := uc.analyses.FindByPair(ctx, vacancy.ID, candidate.ID)
	switch {
	case err == nil && existing.DataFingerprint == fingerprint:
		log.Debug("candidate unchanged, reusing analysis")
		uc.recent.Set(existing)
		return existing, true, nil
	case err != nil && !apperror.Is(err, apperror.KindNotFound):
		return nil, false, err
	}

	analysis, err := uc.scoreWithRetry(ctx, vacancy, candidate, log)
	if err != nil {
		return nil, false, err
	}
	analysis.DataFingerprint = fingerprint
	if err := uc.analyses.ReplaceForPair(ctx, analysis); err != nil {
		return nil, false, err
	}
	uc.recent.Set(analysis)
	log.Info("candidate analyzed",
		zap.Float64("match_score", analysis.MatchScore),
		zap.Int("reputation_score", analysis.ReputationScore))
	return analysis, false, nil
}

// scoreWithRetry retries every failure with a linearly growing pause.
func (uc *AnalysisUsecase) scoreWithRetry(ctx context.Context, vacancy *model.Vacancy, candidate *model.Candidate, log *zap.Logger) (*model.MatchAnalysis, error) {
	attempts := max(uc.cfg.Attempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		a, err := uc.scorer.Score(ctx, vacancy, candidate)
		if err == nil {
			return a, nil
		}
		lastErr = err
		log.Warn("scoring attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < attempts {
			if err := sleep(ctx, uc.cfg.BackoffStep*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, apperror.Wrap(apperror.KindScoring, "analysis.Analyze", lastErr, "scoring failed after retries")
}

func (uc *AnalysisUsecase) List(ctx context.Context, vacancyID uuid.UUID, page, pageSize int) ([]model.MatchAnalysis, int64, error) {
	if _, err := uc.vacancies.FindByID(ctx, vacancyID); err != nil {
		return nil, 0, err
	}
	return uc.analyses.ListByVacancy(ctx, vacancyID, page, pageSize)
}

// Export renders the vacancy's ranked analyses as an xlsx workbook.
func (uc *AnalysisUsecase) Export(ctx context.Context, vacancyID uuid.UUID) (*model.Vacancy, *bytes.Buffer, error) {
	vacancy, err := uc.vacancies.FindByID(ctx, vacancyID)
	if err != nil {
		return nil, nil, err
	}
	analyses, err := uc.analyses.ListAllByVacancy(ctx, vacancyID)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteAnalyses(&buf, vacancy, analyses); err != nil {
		return nil, nil, apperror.Wrap(apperror.KindInternal, "analysis.Export", err, "export failed")
	}
	return vacancy, &buf, nil
}
