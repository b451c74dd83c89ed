package repository

import (
	"context"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db}
}

// FindByPair returns the newest analysis of the pair.
func (r *AnalysisRepository) FindByPair(ctx context.Context, vacancyID, candidateID uuid.UUID) (*model.MatchAnalysis, error) {
	var a model.MatchAnalysis
	err := r.db.WithContext(ctx).
		Where("vacancy_id = ? AND candidate_id = ?", vacancyID, candidateID).
		Order("created_at DESC").
		First(&a).Error
	if err != nil {
		return nil, wrapErr("analysis.FindByPair", err)
	}
	return &a, nil
}

// ReplaceForPair deletes any analysis of the pair and inserts a, in one
// transaction.
func (r *AnalysisRepository) ReplaceForPair(ctx context.Context, a *model.MatchAnalysis) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vacancy_id = ? AND candidate_id = ?", a.VacancyID, a.CandidateID).
			Delete(&model.MatchAnalysis{}).Error; err != nil {
			return err
		}
		return tx.Omit("Vacancy", "Candidate").Create(a).Error
	})
	return wrapErr("analysis.ReplaceForPair", err)
}

// ListByVacancy pages analyses by reputation, then match score.
func (r *AnalysisRepository) ListByVacancy(ctx context.Context, vacancyID uuid.UUID, page, pageSize int) ([]model.MatchAnalysis, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&model.MatchAnalysis{}).Where("vacancy_id = ?", vacancyID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, wrapErr("analysis.ListByVacancy", err)
	}

	var out []model.MatchAnalysis
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("vacancy_id = ?", vacancyID).
		Order("reputation_score DESC, match_score DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&out).Error
	return out, total, wrapErr("analysis.ListByVacancy", err)
}

// ListAllByVacancy returns every analysis of the vacancy in ranking order.
func (r *AnalysisRepository) ListAllByVacancy(ctx context.Context, vacancyID uuid.UUID) ([]model.MatchAnalysis, error) {
	var out []model.MatchAnalysis
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("vacancy_id = ?", vacancyID).
		Order("reputation_score DESC, match_score DESC").
		Find(&out).Error
	return out, wrapErr("analysis.ListAllByVacancy", err)
}
