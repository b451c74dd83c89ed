package repository

import (
	"context"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileTaskRepository struct {
	db *gorm.DB
}

func NewFileTaskRepository(db *gorm.DB) *FileTaskRepository {
	return &FileTaskRepository{db}
}

// ListPending returns the job's pending tasks in upload order.
func (r *FileTaskRepository) ListPending(ctx context.Context, jobID uuid.UUID) ([]model.FileTask, error) {
	var tasks []model.FileTask
	err := r.db.WithContext(ctx).
		Where("batch_job_id = ? AND status = ?", jobID, model.FileStatusPending).
		Order("position ASC").
		Find(&tasks).Error
	return tasks, wrapErr("file_task.ListPending", err)
}

func (r *FileTaskRepository) FindByID(ctx context.Context, jobID, id uuid.UUID) (*model.FileTask, error) {
	var task model.FileTask
	if err := r.db.WithContext(ctx).First(&task, "id = ? AND batch_job_id = ?", id, jobID).Error; err != nil {
		return nil, wrapErr("file_task.FindByID", err)
	}
	return &task, nil
}

func (r *FileTaskRepository) Update(ctx context.Context, task *model.FileTask) error {
	return wrapErr("file_task.Update", r.db.WithContext(ctx).Save(task).Error)
}

// ResetInterrupted puts tasks left in processing back to pending.
func (r *FileTaskRepository) ResetInterrupted(ctx context.Context, jobID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.FileTask{}).
		Where("batch_job_id = ? AND status = ?", jobID, model.FileStatusProcessing).
		Update("status", model.FileStatusPending)
	return res.RowsAffected, wrapErr("file_task.ResetInterrupted", res.Error)
}
