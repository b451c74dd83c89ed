package usecase

import (
	"context"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/repository"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type CandidateStore interface {
	Create(ctx context.Context, c *model.Candidate, skipHooks bool) error
	Save(ctx context.Context, c *model.Candidate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Candidate, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, vec pgvector.Vector) error
	ListMissingEmbedding(ctx context.Context, limit int) ([]model.Candidate, error)
	SearchByEmbedding(ctx context.Context, vec pgvector.Vector, topK int) ([]repository.CandidateMatch, error)
}

type VacancyStore interface {
	Create(ctx context.Context, v *model.Vacancy) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vacancy, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, vec pgvector.Vector) error
}

type AnalysisStore interface {
	FindByPair(ctx context.Context, vacancyID, candidateID uuid.UUID) (*model.MatchAnalysis, error)
	ReplaceForPair(ctx context.Context, a *model.MatchAnalysis) error
	ListByVacancy(ctx context.Context, vacancyID uuid.UUID, page, pageSize int) ([]model.MatchAnalysis, int64, error)
	ListAllByVacancy(ctx context.Context, vacancyID uuid.UUID) ([]model.MatchAnalysis, error)
}

type BatchStore interface {
	Create(ctx context.Context, job *model.BatchJob) error
	FindWithFiles(ctx context.Context, id uuid.UUID) (*model.BatchJob, error)
	RequestStop(ctx context.Context, id uuid.UUID) (bool, error)
}

type FileTaskStore interface {
	FindByID(ctx context.Context, jobID, id uuid.UUID) (*model.FileTask, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, jobID uuid.UUID) error
}
