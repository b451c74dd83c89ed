package repository

import (
	"context"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type VacancyRepository struct {
	db *gorm.DB
}

func NewVacancyRepository(db *gorm.DB) *VacancyRepository {
	return &VacancyRepository{db}
}

func (r *VacancyRepository) Create(ctx context.Context, v *model.Vacancy) error {
	return wrapErr("vacancy.Create", r.db.WithContext(ctx).Create(v).Error)
}

func (r *VacancyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vacancy, error) {
	var v model.Vacancy
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, wrapErr("vacancy.FindByID", err)
	}
	return &v, nil
}

func (r *VacancyRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, vec pgvector.Vector) error {
	err := r.db.WithContext(ctx).Model(&model.Vacancy{}).
		Where("id = ?", id).
		UpdateColumn("embedding", vec).Error
	return wrapErr("vacancy.UpdateEmbedding", err)
}
