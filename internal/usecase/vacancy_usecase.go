package usecase

import (
	"context"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/repository"
	"github.com/fadilmartias/resume-pipeline/internal/service"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

const maxShortlist = 100

type VacancyUsecase struct {
	vacancies  VacancyStore
	candidates CandidateStore
	embedder   service.EmbeddingServiceInterface
	logger     *zap.Logger
}

func NewVacancyUsecase(vacancies VacancyStore, candidates CandidateStore, embedder service.EmbeddingServiceInterface, log *zap.Logger) *VacancyUsecase {
	return &VacancyUsecase{vacancies: vacancies, candidates: candidates, embedder: embedder, logger: logger.OrNop(log)}
}

func (uc *VacancyUsecase) Create(ctx context.Context, v *model.Vacancy) error {
	v.Title = strings.TrimSpace(v.Title)
	if v.Title == "" {
		return apperror.New(apperror.KindValidation, "vacancy.Create", "title is required")
	}
	v.Level = model.ParseLevel(string(v.Level))
	v.HardSkills = model.NormalizeSet(v.HardSkills)
	v.TechStack = model.NormalizeSet(v.TechStack)
	v.SoftSkills = model.NormalizeSet(v.SoftSkills)
	if v.ExperienceYears < 0 {
		v.ExperienceYears = 0
	}
	if err := uc.vacancies.Create(ctx, v); err != nil {
		return err
	}
	if _, err := uc.ensureEmbedding(ctx, v); err != nil {
		uc.logger.Warn("vacancy embedding not generated", zap.String("vacancy_id", v.ID.String()), zap.Error(err))
	}
	return nil
}

func (uc *VacancyUsecase) Get(ctx context.Context, id uuid.UUID) (*model.Vacancy, error) {
	return uc.vacancies.FindByID(ctx, id)
}

// Shortlist returns the top candidates closest to the vacancy by embedding.
func (uc *VacancyUsecase) Shortlist(ctx context.Context, id uuid.UUID, top int) ([]repository.CandidateMatch, error) {
	if top <= 0 || top > maxShortlist {
		return nil, apperror.New(apperror.KindValidation, "vacancy.Shortlist", "top must be between 1 and 100")
	}
	v, err := uc.vacancies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vec, err := uc.ensureEmbedding(ctx, v)
	if err != nil {
		return nil, err
	}
	return uc.candidates.SearchByEmbedding(ctx, vec, top)
}

func (uc *VacancyUsecase) ensureEmbedding(ctx context.Context, v *model.Vacancy) (pgvector.Vector, error) {
	if v.Embedding != nil {
		return *v.Embedding, nil
	}
	if uc.embedder == nil {
		return pgvector.Vector{}, apperror.New(apperror.KindValidation, "vacancy.Embedding", "embedding service is not configured")
	}
	values, err := uc.embedder.GenerateEmbedding(ctx, v.EmbeddingText())
	if err != nil {
		return pgvector.Vector{}, err
	}
	vec := pgvector.NewVector(values)
	if err := uc.vacancies.UpdateEmbedding(ctx, v.ID, vec); err != nil {
		return pgvector.Vector{}, err
	}
	v.Embedding = &vec
	return vec, nil
}
