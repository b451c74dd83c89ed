package usecase

import (
	"context"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/cache"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/service"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// WriteOptions controls the work done after a candidate write. Bulk imports
// set BypassSideEffects: no model hooks, cache eviction or embedding refresh.
type WriteOptions struct {
	BypassSideEffects bool
}

type CandidateUsecase struct {
	candidates CandidateStore
	embedder   service.EmbeddingServiceInterface
	analyses   *cache.AnalysisCache
	logger     *zap.Logger
}

func NewCandidateUsecase(candidates CandidateStore, embedder service.EmbeddingServiceInterface, analyses *cache.AnalysisCache, log *zap.Logger) *CandidateUsecase {
	return &CandidateUsecase{candidates: candidates, embedder: embedder, analyses: analyses, logger: logger.OrNop(log)}
}

// Materialize stores a record produced by a batch job.
func (uc *CandidateUsecase) Materialize(ctx context.Context, rec *model.CandidateRecord) (*model.Candidate, error) {
	return uc.CreateFromRecord(ctx, rec, WriteOptions{BypassSideEffects: true})
}

// Create stores a record submitted by hand and refreshes its embedding.
func (uc *CandidateUsecase) Create(ctx context.Context, rec *model.CandidateRecord) (*model.Candidate, error) {
	if rec != nil && strings.TrimSpace(rec.Name) == "" {
		return nil, apperror.New(apperror.KindValidation, "candidate.Create", "name is required")
	}
	return uc.CreateFromRecord(ctx, rec, WriteOptions{})
}

func (uc *CandidateUsecase) Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	return uc.candidates.FindByID(ctx, id)
}

// Update loads a candidate, applies edit and saves it. Cached analyses of the
// candidate are dropped and the embedding is regenerated.
func (uc *CandidateUsecase) Update(ctx context.Context, id uuid.UUID, edit func(*model.Candidate)) (*model.Candidate, error) {
	c, err := uc.candidates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	edit(c)
	if strings.TrimSpace(c.Name) == "" {
		return nil, apperror.New(apperror.KindValidation, "candidate.Update", "name cannot be empty")
	}
	if err := uc.Save(ctx, c, WriteOptions{}); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *CandidateUsecase) CreateFromRecord(ctx context.Context, rec *model.CandidateRecord, opts WriteOptions) (*model.Candidate, error) {
	if rec == nil {
		return nil, apperror.New(apperror.KindValidation, "candidate.Create", "candidate record is required")
	}
	c := model.NewCandidateFromRecord(rec)
	if err := uc.candidates.Create(ctx, c, opts.BypassSideEffects); err != nil {
		return nil, err
	}
	if !opts.BypassSideEffects {
		uc.afterWrite(ctx, c)
	}
	return c, nil
}

func (uc *CandidateUsecase) Save(ctx context.Context, c *model.Candidate, opts WriteOptions) error {
	if err := uc.candidates.Save(ctx, c); err != nil {
		return err
	}
	if !opts.BypassSideEffects {
		uc.afterWrite(ctx, c)
	}
	return nil
}

func (uc *CandidateUsecase) afterWrite(ctx context.Context, c *model.Candidate) {
	if uc.analyses != nil {
		uc.analyses.EvictCandidate(c.ID)
	}
	if err := uc.refreshEmbedding(ctx, c); err != nil {
		uc.logger.Warn("candidate embedding not refreshed", zap.String("candidate_id", c.ID.String()), zap.Error(err))
	}
}

func (uc *CandidateUsecase) refreshEmbedding(ctx context.Context, c *model.Candidate) error {
	if uc.embedder == nil {
		return nil
	}
	values, err := uc.embedder.GenerateEmbedding(ctx, c.EmbeddingText())
	if err != nil {
		return err
	}
	vec := pgvector.NewVector(values)
	c.Embedding = &vec
	return uc.candidates.UpdateEmbedding(ctx, c.ID, vec)
}

// BackfillEmbeddings embeds up to limit candidates that have none. Failures
// are logged and skipped.
func (uc *CandidateUsecase) BackfillEmbeddings(ctx context.Context, limit int) (int, error) {
	if uc.embedder == nil {
		return 0, apperror.New(apperror.KindValidation, "candidate.Backfill", "embedding service is not configured")
	}
	pending, err := uc.candidates.ListMissingEmbedding(ctx, limit)
	if err != nil {
		return 0, err
	}
	done := 0
	for i := range pending {
		if err := uc.refreshEmbedding(ctx, &pending[i]); err != nil {
			uc.logger.Warn("embedding backfill failed", zap.String("candidate_id", pending[i].ID.String()), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}
