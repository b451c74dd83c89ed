package model

import (
	"time"

	"github.com/google/uuid"
)

type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusConverted  FileStatus = "converted"
	FileStatusFailed     FileStatus = "failed"
)

type FileTask struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BatchJobID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_file_task_order,priority:1" json:"batch_job_id"`
	Position         int        `gorm:"not null;index:idx_file_task_order,priority:2" json:"position"`
	OriginalFilename string     `gorm:"type:varchar(255)" json:"original_filename"`
	StoragePath      string     `gorm:"type:text" json:"-"`
	Format           string     `gorm:"type:varchar(10)" json:"format"`
	Status           FileStatus `gorm:"type:varchar(20);index;default:'pending'" json:"status"`
	ErrorMessage     string     `gorm:"type:text" json:"error_message,omitempty"`
	ExtractedText    string     `gorm:"type:text" json:"extracted_text,omitempty"`
	ParsedPayload    string     `gorm:"type:jsonb;default:'{}'" json:"parsed_payload"`
	CandidateID      *uuid.UUID `gorm:"type:uuid" json:"candidate_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
