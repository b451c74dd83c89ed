package usecase

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/extract"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxUploadSize = 10 * 1024 * 1024

var unsafeFilename = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

type BatchUsecase struct {
	jobs       BatchStore
	files      FileTaskStore
	queue      Enqueuer
	storageDir string
	logger     *zap.Logger
}

func NewBatchUsecase(jobs BatchStore, files FileTaskStore, queue Enqueuer, storageDir string, log *zap.Logger) *BatchUsecase {
	return &BatchUsecase{jobs: jobs, files: files, queue: queue, storageDir: storageDir, logger: logger.OrNop(log)}
}

type UploadResult struct {
	Job      *model.BatchJob `json:"job,omitempty"`
	Warnings []string        `json:"warnings"`
}

// Upload stores the accepted files and queues one job for them. Rejected
// files only produce warnings; when nothing is accepted no job is created.
func (uc *BatchUsecase) Upload(ctx context.Context, headers []*multipart.FileHeader) (*UploadResult, error) {
	res := &UploadResult{Warnings: []string{}}
	jobID := uuid.New()
	job := &model.BatchJob{ID: jobID, Status: model.JobStatusPending}
	dir := filepath.Join(uc.storageDir, jobID.String())

	for _, fh := range headers {
		format, ok := extract.FormatFromFilename(fh.Filename)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: unsupported file type", fh.Filename))
			continue
		}
		if fh.Size > MaxUploadSize {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: file is larger than 10MB", fh.Filename))
			continue
		}
		position := len(job.Files)
		path := filepath.Join(dir, fmt.Sprintf("%03d_%s", position, safeName(fh.Filename)))
		if err := saveUpload(fh, path); err != nil {
			uc.logger.Error("cannot store upload", zap.String("filename", fh.Filename), zap.Error(err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: file could not be stored", fh.Filename))
			continue
		}
		job.Files = append(job.Files, model.FileTask{
			BatchJobID:       jobID,
			Position:         position,
			OriginalFilename: fh.Filename,
			StoragePath:      path,
			Format:           string(format),
			Status:           model.FileStatusPending,
			ParsedPayload:    "{}",
		})
	}

	if len(job.Files) == 0 {
		return res, apperror.New(apperror.KindValidation, "batch.Upload", "no supported files in upload")
	}
	job.TotalFiles = len(job.Files)

	if err := uc.jobs.Create(ctx, job); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	if err := uc.queue.Enqueue(ctx, job.ID); err != nil {
		// the job stays pending and is picked up by recovery on next start
		uc.logger.Warn("job not queued", zap.String(logger.FieldJobID, job.ID.String()), zap.Error(err))
	}

	uc.logger.Info("batch accepted",
		zap.String(logger.FieldJobID, job.ID.String()),
		zap.Int("files", job.TotalFiles),
		zap.Int("warnings", len(res.Warnings)))
	res.Job = job
	return res, nil
}

func (uc *BatchUsecase) Get(ctx context.Context, id uuid.UUID) (*model.BatchJob, error) {
	return uc.jobs.FindWithFiles(ctx, id)
}

func (uc *BatchUsecase) GetFile(ctx context.Context, jobID, fileID uuid.UUID) (*model.FileTask, error) {
	return uc.files.FindByID(ctx, jobID, fileID)
}

// Stop asks a running or queued job to stop at the next file boundary.
func (uc *BatchUsecase) Stop(ctx context.Context, id uuid.UUID) (*model.BatchJob, error) {
	changed, err := uc.jobs.RequestStop(ctx, id)
	if err != nil {
		return nil, err
	}
	job, err := uc.jobs.FindWithFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed && job.Status != model.JobStatusStopped {
		return job, apperror.New(apperror.KindValidation, "batch.Stop", fmt.Sprintf("job is already %s", job.Status))
	}
	return job, nil
}

func safeName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := unsafeFilename.ReplaceAllString(base[:len(base)-len(ext)], "_")
	if stem == "" {
		stem = "file"
	}
	return stem + ext
}

func saveUpload(fh *multipart.FileHeader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
