package model

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusStopped    JobStatus = "stopped"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusStopped
}

// BatchJob is one bulk-upload run. ProcessedFiles counts every file that reached
// a terminal state, FailedFiles the subset that failed.
type BatchJob struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Status         JobStatus  `gorm:"type:varchar(20);index;default:'pending'" json:"status"`
	TotalFiles     int        `gorm:"default:0" json:"total_files"`
	ProcessedFiles int        `gorm:"default:0" json:"processed_files"`
	FailedFiles    int        `gorm:"default:0" json:"failed_files"`
	Progress       float64    `gorm:"type:float;default:0" json:"progress"`
	Attempts       int        `gorm:"default:0" json:"attempts"`
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Files          []FileTask `gorm:"foreignKey:BatchJobID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RecordOutcome counts one terminal file and recomputes progress. Progress never
// moves backwards and is exactly 100 once every file is counted.
func (j *BatchJob) RecordOutcome(failed bool) {
	j.ProcessedFiles++
	if failed {
		j.FailedFiles++
	}
	if j.TotalFiles <= 0 {
		j.Progress = 100
		return
	}
	p := float64(j.ProcessedFiles) / float64(j.TotalFiles) * 100
	if j.ProcessedFiles >= j.TotalFiles {
		p = 100
	}
	if p > j.Progress {
		j.Progress = p
	}
}
