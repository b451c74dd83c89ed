package dto

import (
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
)

type FileTaskDTO struct {
	ID               uuid.UUID        `json:"id"`
	Position         int              `json:"position"`
	OriginalFilename string           `json:"original_filename"`
	Format           string           `json:"format"`
	Status           model.FileStatus `json:"status"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CandidateID      *uuid.UUID       `json:"candidate_id,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// FileTaskDetailDTO adds the intermediate results of one file.
type FileTaskDetailDTO struct {
	FileTaskDTO
	ExtractedText string `json:"extracted_text,omitempty"`
	ParsedPayload any    `json:"parsed_payload,omitempty"`
}

type BatchJobDTO struct {
	ID             uuid.UUID       `json:"id"`
	Status         model.JobStatus `json:"status"`
	TotalFiles     int             `json:"total_files"`
	ProcessedFiles int             `json:"processed_files"`
	FailedFiles    int             `json:"failed_files"`
	Progress       float64         `json:"progress"`
	Attempts       int             `json:"attempts"`
	LastError      string          `json:"last_error,omitempty"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
	Files          []FileTaskDTO   `json:"files,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func NewFileTaskDTO(f *model.FileTask) FileTaskDTO {
	return FileTaskDTO{
		ID:               f.ID,
		Position:         f.Position,
		OriginalFilename: f.OriginalFilename,
		Format:           f.Format,
		Status:           f.Status,
		ErrorMessage:     f.ErrorMessage,
		CandidateID:      f.CandidateID,
		UpdatedAt:        f.UpdatedAt,
	}
}

func NewBatchJobDTO(j *model.BatchJob) BatchJobDTO {
	out := BatchJobDTO{
		ID:             j.ID,
		Status:         j.Status,
		TotalFiles:     j.TotalFiles,
		ProcessedFiles: j.ProcessedFiles,
		FailedFiles:    j.FailedFiles,
		Progress:       j.Progress,
		Attempts:       j.Attempts,
		LastError:      j.LastError,
		StartedAt:      j.StartedAt,
		FinishedAt:     j.FinishedAt,
		CreatedAt:      j.CreatedAt,
	}
	for i := range j.Files {
		out.Files = append(out.Files, NewFileTaskDTO(&j.Files[i]))
	}
	return out
}
