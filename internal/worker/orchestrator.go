package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/extract"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type JobStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.BatchJob, error)
	Status(ctx context.Context, id uuid.UUID) (model.JobStatus, error)
	Start(ctx context.Context, job *model.BatchJob) (bool, error)
	SaveProgress(ctx context.Context, job *model.BatchJob) error
	Finish(ctx context.Context, job *model.BatchJob) (bool, error)
	ListUnfinished(ctx context.Context) ([]model.BatchJob, error)
}

type FileStore interface {
	ListPending(ctx context.Context, jobID uuid.UUID) ([]model.FileTask, error)
	Update(ctx context.Context, task *model.FileTask) error
	ResetInterrupted(ctx context.Context, jobID uuid.UUID) (int64, error)
}

type Extractor interface {
	Extract(ctx context.Context, doc extract.RawDocument) (*extract.Text, error)
}

type Parser interface {
	Parse(ctx context.Context, text string) (*model.CandidateRecord, error)
}

// Materializer turns a parsed record into a stored candidate.
type Materializer interface {
	Materialize(ctx context.Context, rec *model.CandidateRecord) (*model.Candidate, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 30 * time.Second

// sleep waits for d or until ctx is done. Tests replace it.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Orchestrator runs one batch job at a time: files strictly in upload order,
// each through extract, parse and materialize.
type Orchestrator struct {
	jobs         JobStore
	files        FileStore
	extractor    Extractor
	parser       Parser
	materializer Materializer
	pinger       Pinger
	readFile     func(path string) ([]byte, error)
	cfg          *config.WorkerConfig
	logger       *zap.Logger
}

type Deps struct {
	Jobs         JobStore
	Files        FileStore
	Extractor    Extractor
	Parser       Parser
	Materializer Materializer
	Pinger       Pinger
}

func NewOrchestrator(d Deps, cfg *config.WorkerConfig, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:         d.Jobs,
		files:        d.Files,
		extractor:    d.Extractor,
		parser:       d.Parser,
		materializer: d.Materializer,
		pinger:       d.Pinger,
		readFile:     os.ReadFile,
		cfg:          cfg,
		logger:       logger.OrNop(log),
	}
}

// ProcessJob runs the job with job-level retries and exponential backoff. The
// job is marked failed only after the last attempt.
func (o *Orchestrator) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	log := o.logger.With(zap.String(logger.FieldJobID, jobID.String()))
	attempts := max(o.cfg.JobAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = o.runAttempt(ctx, jobID, log)
		if lastErr == nil {
			return nil
		}
		if apperror.Is(lastErr, apperror.KindNotFound) || ctx.Err() != nil {
			log.Warn("job attempt aborted", zap.Error(lastErr))
			return lastErr
		}
		log.Warn("job attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(lastErr))
		if attempt < attempts {
			backoff := o.cfg.JobBaseBackoff * time.Duration(1<<(attempt-1))
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}

	o.failJob(ctx, jobID, lastErr, log)
	return lastErr
}

func (o *Orchestrator) runAttempt(ctx context.Context, jobID uuid.UUID, log *zap.Logger) error {
	job, err := o.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		log.Info("job already finished", zap.String("status", string(job.Status)))
		return nil
	}
	started, err := o.jobs.Start(ctx, job)
	if err != nil {
		return err
	}
	if !started {
		log.Info("job no longer runnable")
		return nil
	}

	// a failed earlier attempt may have left a file mid-flight
	if n, err := o.files.ResetInterrupted(ctx, jobID); err != nil {
		return err
	} else if n > 0 {
		log.Info("reset interrupted files", zap.Int64("count", n))
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err = o.pinger.Ping(pingCtx)
	cancel()
	if err != nil {
		return apperror.Wrap(apperror.KindConnectivity, "worker.ProcessJob", err, "language model unreachable")
	}

	tasks, err := o.files.ListPending(ctx, jobID)
	if err != nil {
		return err
	}
	log.Info("job started", zap.Int("pending_files", len(tasks)), zap.Int("attempt", job.Attempts))

	token := cancelToken{jobs: o.jobs, id: jobID}
	for i := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		stopped, err := token.Stopped(ctx)
		if err != nil {
			return err
		}
		if stopped {
			log.Info("job stopped", zap.Int("remaining_files", len(tasks)-i))
			return nil
		}

		failed, err := o.processFile(ctx, &tasks[i], log)
		if err != nil {
			return err
		}
		job.RecordOutcome(failed)
		if err := o.jobs.SaveProgress(ctx, job); err != nil {
			return err
		}
	}

	if job.ProcessedFiles < job.TotalFiles {
		return apperror.New(apperror.KindInternal, "worker.ProcessJob",
			fmt.Sprintf("%d of %d files did not finish", job.TotalFiles-job.ProcessedFiles, job.TotalFiles))
	}
	job.Status = model.JobStatusCompleted
	job.Progress = 100
	finished, err := o.jobs.Finish(ctx, job)
	if err != nil {
		return err
	}
	if finished {
		log.Info("job completed",
			zap.Int("processed_files", job.ProcessedFiles),
			zap.Int("failed_files", job.FailedFiles))
	}
	return nil
}

// processFile records stage failures on the task. The returned error is only
// for store failures, which abort the attempt.
func (o *Orchestrator) processFile(ctx context.Context, task *model.FileTask, log *zap.Logger) (bool, error) {
	log = log.With(zap.String(logger.FieldFileID, task.ID.String()), zap.String("filename", task.OriginalFilename))

	task.Status = model.FileStatusProcessing
	if err := o.files.Update(ctx, task); err != nil {
		return false, err
	}

	candidate, text, rec, stageErr := o.runStages(ctx, task, log)
	if rec != nil {
		if payload, err := json.Marshal(rec); err == nil {
			task.ParsedPayload = string(payload)
		}
	}
	if text != nil {
		task.ExtractedText = text.Content
	}

	failed := stageErr != nil
	if failed {
		task.Status = model.FileStatusFailed
		task.ErrorMessage = stageErr.Error()
		log.Warn("file failed", zap.Error(stageErr))
	} else {
		task.Status = model.FileStatusConverted
		task.ErrorMessage = ""
		task.CandidateID = &candidate.ID
		log.Info("file converted", zap.String("candidate_id", candidate.ID.String()))
	}

	if err := o.files.Update(ctx, task); err != nil {
		return failed, err
	}
	return failed, nil
}

func (o *Orchestrator) runStages(ctx context.Context, task *model.FileTask, log *zap.Logger) (*model.Candidate, *extract.Text, *model.CandidateRecord, error) {
	content, err := o.readFile(task.StoragePath)
	if err != nil {
		return nil, nil, nil, apperror.Wrap(apperror.KindExtraction, "worker.read", err, "stored file unreadable")
	}

	extracted := runStage(ctx, o, log, "extract", func(ctx context.Context) (*extract.Text, error) {
		return o.extractor.Extract(ctx, extract.RawDocument{
			Name:    task.OriginalFilename,
			Format:  extract.Format(task.Format),
			Content: content,
		})
	})
	if extracted.Err != nil {
		return nil, nil, nil, extracted.Err
	}
	text := extracted.Value

	parsed := runStage(ctx, o, log, "parse", func(ctx context.Context) (*model.CandidateRecord, error) {
		return o.parser.Parse(ctx, text.Content)
	})
	if parsed.Err != nil {
		return nil, text, nil, parsed.Err
	}
	rec := parsed.Value

	stored := runStage(ctx, o, log, "materialize", func(ctx context.Context) (*model.Candidate, error) {
		return o.materializer.Materialize(ctx, rec)
	})
	if stored.Err != nil {
		return nil, text, rec, stored.Err
	}
	return stored.Value, text, rec, nil
}

// runStage calls fn until it succeeds, fails fatally or runs out of attempts.
func runStage[T any](ctx context.Context, o *Orchestrator, log *zap.Logger, name string, fn func(context.Context) (T, error)) StageResult[T] {
	attempts := max(o.cfg.StageAttempts, 1)
	var res StageResult[T]
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn(ctx)
		res = StageResult[T]{Value: v, Outcome: classify(err), Err: err}
		if res.Outcome != Retryable {
			break
		}
		if attempt < attempts {
			log.Debug("stage retry", zap.String("stage", name), zap.Int("attempt", attempt), zap.Error(err))
			if err := sleep(ctx, o.cfg.StageBackoff*time.Duration(attempt)); err != nil {
				res.Err = err
				res.Outcome = Fatal
				break
			}
		}
	}
	if res.Err != nil {
		res.Err = fmt.Errorf("%s: %w", name, res.Err)
	}
	return res
}

func (o *Orchestrator) failJob(ctx context.Context, jobID uuid.UUID, cause error, log *zap.Logger) {
	job, err := o.jobs.FindByID(ctx, jobID)
	if err != nil {
		log.Error("cannot load job to mark failed", zap.Error(err))
		return
	}
	job.Status = model.JobStatusFailed
	job.LastError = userMessage(cause)
	if _, err := o.jobs.Finish(ctx, job); err != nil {
		log.Error("cannot mark job failed", zap.Error(err))
		return
	}
	log.Error("job failed", zap.Error(cause))
}

// Recover resets interrupted files of unfinished jobs and hands the jobs to
// enqueue, oldest first.
func (o *Orchestrator) Recover(ctx context.Context, enqueue func(context.Context, uuid.UUID) error) (int, error) {
	jobs, err := o.jobs.ListUnfinished(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, job := range jobs {
		if _, err := o.files.ResetInterrupted(ctx, job.ID); err != nil {
			return n, err
		}
		if err := enqueue(ctx, job.ID); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		o.logger.Info("recovered unfinished jobs", zap.Int("count", n))
	}
	return n, nil
}

func userMessage(err error) string {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return fmt.Sprintf("%s: %s", ae.Kind, ae.Message)
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

type cancelToken struct {
	jobs JobStore
	id   uuid.UUID
}

// Stopped re-reads the job status; it is never cached.
func (t cancelToken) Stopped(ctx context.Context) (bool, error) {
	status, err := t.jobs.Status(ctx, t.id)
	if err != nil {
		return false, err
	}
	return status == model.JobStatusStopped, nil
}
