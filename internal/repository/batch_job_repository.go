package repository

import (
	"context"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchJobRepository struct {
	db *gorm.DB
}

func NewBatchJobRepository(db *gorm.DB) *BatchJobRepository {
	return &BatchJobRepository{db}
}

// Create inserts the job together with its file tasks.
func (r *BatchJobRepository) Create(ctx context.Context, job *model.BatchJob) error {
	return wrapErr("batch_job.Create", r.db.WithContext(ctx).Create(job).Error)
}

func (r *BatchJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.BatchJob, error) {
	var job model.BatchJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, wrapErr("batch_job.FindByID", err)
	}
	return &job, nil
}

func (r *BatchJobRepository) FindWithFiles(ctx context.Context, id uuid.UUID) (*model.BatchJob, error) {
	var job model.BatchJob
	err := r.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&job, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr("batch_job.FindWithFiles", err)
	}
	return &job, nil
}

// Status reads the current status straight from the database.
func (r *BatchJobRepository) Status(ctx context.Context, id uuid.UUID) (model.JobStatus, error) {
	var status model.JobStatus
	err := r.db.WithContext(ctx).Model(&model.BatchJob{}).
		Where("id = ?", id).
		Select("status").
		Take(&status).Error
	if err != nil {
		return "", wrapErr("batch_job.Status", err)
	}
	return status, nil
}

// Start moves a pending or processing job to processing and counts the
// attempt. It reports false when the job was stopped or already finished.
func (r *BatchJobRepository) Start(ctx context.Context, job *model.BatchJob) (bool, error) {
	now := time.Now()
	if job.StartedAt == nil {
		job.StartedAt = &now
	}
	res := r.db.WithContext(ctx).Model(&model.BatchJob{}).
		Where("id = ? AND status IN ?", job.ID, []model.JobStatus{model.JobStatusPending, model.JobStatusProcessing}).
		Updates(map[string]any{
			"status":     model.JobStatusProcessing,
			"attempts":   gorm.Expr("attempts + 1"),
			"started_at": job.StartedAt,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, wrapErr("batch_job.Start", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	job.Status = model.JobStatusProcessing
	job.Attempts++
	return true, nil
}

// Finish stores the job's terminal status unless it left processing in the
// meantime, e.g. because it was stopped.
func (r *BatchJobRepository) Finish(ctx context.Context, job *model.BatchJob) (bool, error) {
	now := time.Now()
	job.FinishedAt = &now
	res := r.db.WithContext(ctx).Model(&model.BatchJob{}).
		Where("id = ? AND status = ?", job.ID, model.JobStatusProcessing).
		Updates(map[string]any{
			"status":          job.Status,
			"processed_files": job.ProcessedFiles,
			"failed_files":    job.FailedFiles,
			"progress":        job.Progress,
			"last_error":      job.LastError,
			"finished_at":     job.FinishedAt,
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, wrapErr("batch_job.Finish", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SaveProgress writes counters and progress without touching status, so a
// concurrent stop request is never overwritten.
func (r *BatchJobRepository) SaveProgress(ctx context.Context, job *model.BatchJob) error {
	err := r.db.WithContext(ctx).Model(&model.BatchJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"processed_files": job.ProcessedFiles,
			"failed_files":    job.FailedFiles,
			"progress":        job.Progress,
			"updated_at":      time.Now(),
		}).Error
	return wrapErr("batch_job.SaveProgress", err)
}

// RequestStop marks a non-terminal job stopped. It reports whether the job
// changed.
func (r *BatchJobRepository) RequestStop(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.BatchJob{}).
		Where("id = ? AND status IN ?", id, []model.JobStatus{model.JobStatusPending, model.JobStatusProcessing}).
		Updates(map[string]any{"status": model.JobStatusStopped, "finished_at": &now})
	if res.Error != nil {
		return false, wrapErr("batch_job.RequestStop", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListUnfinished returns jobs a crashed process left pending or processing.
func (r *BatchJobRepository) ListUnfinished(ctx context.Context) ([]model.BatchJob, error) {
	var jobs []model.BatchJob
	err := r.db.WithContext(ctx).
		Where("status IN ?", []model.JobStatus{model.JobStatusPending, model.JobStatusProcessing}).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, wrapErr("batch_job.ListUnfinished", err)
}
