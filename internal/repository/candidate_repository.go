package repository

import (
	"context"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CandidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db}
}

// CandidateMatch is a candidate with its embedding distance to a query.
type CandidateMatch struct {
	model.Candidate
	Distance float64 `json:"distance"`
}

// Create inserts a candidate. skipHooks bypasses model hooks for bulk imports
// whose records are already normalized.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate, skipHooks bool) error {
	db := r.db.WithContext(ctx)
	if skipHooks {
		db = db.Session(&gorm.Session{SkipHooks: true})
	}
	return wrapErr("candidate.Create", db.Create(c).Error)
}

func (r *CandidateRepository) Save(ctx context.Context, c *model.Candidate) error {
	return wrapErr("candidate.Save", r.db.WithContext(ctx).Save(c).Error)
}

func (r *CandidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	var c model.Candidate
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, wrapErr("candidate.FindByID", err)
	}
	return &c, nil
}

// FindByIDs returns the matching candidates; an empty list means all.
func (r *CandidateRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Candidate, error) {
	var out []model.Candidate
	q := r.db.WithContext(ctx).Order("created_at ASC")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Find(&out).Error
	return out, wrapErr("candidate.FindByIDs", err)
}

func (r *CandidateRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, vec pgvector.Vector) error {
	err := r.db.WithContext(ctx).Model(&model.Candidate{}).
		Where("id = ?", id).
		UpdateColumn("embedding", vec).Error
	return wrapErr("candidate.UpdateEmbedding", err)
}

func (r *CandidateRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]model.Candidate, error) {
	var out []model.Candidate
	err := r.db.WithContext(ctx).
		Where("embedding IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, wrapErr("candidate.ListMissingEmbedding", err)
}

// SearchByEmbedding orders candidates by cosine distance to vec.
func (r *CandidateRepository) SearchByEmbedding(ctx context.Context, vec pgvector.Vector, topK int) ([]CandidateMatch, error) {
	var out []CandidateMatch
	err := r.db.WithContext(ctx).Raw(`
        SELECT *, embedding <=> ? AS distance
        FROM candidates
        WHERE embedding IS NOT NULL
        ORDER BY embedding <=> ?
        LIMIT ?
    `, vec, vec, topK).Scan(&out).Error
	return out, wrapErr("candidate.SearchByEmbedding", err)
}
