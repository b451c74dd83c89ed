package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/extract"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
)

type fakeJobs struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*model.BatchJob
	progress  []float64
	findErr   error
	afterSave func(job *model.BatchJob)
}

func newFakeJobs(jobs ...*model.BatchJob) *fakeJobs {
	f := &fakeJobs{jobs: make(map[uuid.UUID]*model.BatchJob)}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobs) FindByID(_ context.Context, id uuid.UUID) (*model.BatchJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	j, ok := f.jobs[id]
	if !ok {
		return nil, apperror.Wrap(apperror.KindNotFound, "fake", apperror.ErrNotFound, "record not found")
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobs) Status(_ context.Context, id uuid.UUID) (model.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id].Status, nil
}

func (f *fakeJobs) Start(_ context.Context, job *model.BatchJob) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.jobs[job.ID]
	if stored.Status != model.JobStatusPending && stored.Status != model.JobStatusProcessing {
		return false, nil
	}
	stored.Status = model.JobStatusProcessing
	stored.Attempts++
	job.Status = stored.Status
	job.Attempts = stored.Attempts
	return true, nil
}

func (f *fakeJobs) SaveProgress(_ context.Context, job *model.BatchJob) error {
	f.mu.Lock()
	stored := f.jobs[job.ID]
	stored.ProcessedFiles = job.ProcessedFiles
	stored.FailedFiles = job.FailedFiles
	stored.Progress = job.Progress
	f.progress = append(f.progress, job.Progress)
	hook := f.afterSave
	f.mu.Unlock()
	if hook != nil {
		hook(stored)
	}
	return nil
}

func (f *fakeJobs) Finish(_ context.Context, job *model.BatchJob) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.jobs[job.ID]
	if stored.Status != model.JobStatusProcessing {
		return false, nil
	}
	stored.Status = job.Status
	stored.ProcessedFiles = job.ProcessedFiles
	stored.FailedFiles = job.FailedFiles
	stored.Progress = job.Progress
	stored.LastError = job.LastError
	return true, nil
}

func (f *fakeJobs) ListUnfinished(_ context.Context) ([]model.BatchJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BatchJob
	for _, j := range f.jobs {
		if !j.Status.Terminal() {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeJobs) setStatus(id uuid.UUID, s model.JobStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].Status = s
}

func (f *fakeJobs) get(id uuid.UUID) model.BatchJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.jobs[id]
}

type fakeFiles struct {
	mu    sync.Mutex
	tasks []*model.FileTask
	// updateErrs fails the n-th Update call (1-based) once.
	updateErrs map[int]error
	updates    int
}

func (f *fakeFiles) ListPending(_ context.Context, jobID uuid.UUID) ([]model.FileTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FileTask
	for _, t := range f.tasks {
		if t.BatchJobID == jobID && t.Status == model.FileStatusPending {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeFiles) Update(_ context.Context, task *model.FileTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if err, ok := f.updateErrs[f.updates]; ok {
		return err
	}
	for i, t := range f.tasks {
		if t.ID == task.ID {
			cp := *task
			f.tasks[i] = &cp
			return nil
		}
	}
	return errors.New("unknown task")
}

func (f *fakeFiles) ResetInterrupted(_ context.Context, jobID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.tasks {
		if t.BatchJobID == jobID && t.Status == model.FileStatusProcessing {
			t.Status = model.FileStatusPending
			n++
		}
	}
	return n, nil
}

func (f *fakeFiles) statuses() []model.FileStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.FileStatus, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Status
	}
	return out
}

// fakeExtractor fails for document names listed in fail.
type fakeExtractor struct {
	fail map[string]bool
}

func (f *fakeExtractor) Extract(_ context.Context, doc extract.RawDocument) (*extract.Text, error) {
	if f.fail[doc.Name] {
		return nil, apperror.Wrap(apperror.KindExtraction, "fake", &extract.FailedError{Format: doc.Format, Errors: []string{"broken"}}, "extraction failed")
	}
	return &extract.Text{Content: "text of " + doc.Name, Source: doc.Name, Format: doc.Format}, nil
}

type fakeParser struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (f *fakeParser) Parse(_ context.Context, text string) (*model.CandidateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &model.CandidateRecord{Name: text, TechStack: []string{}}, nil
}

type fakeMaterializer struct {
	mu      sync.Mutex
	created []*model.CandidateRecord
}

func (f *fakeMaterializer) Materialize(_ context.Context, rec *model.CandidateRecord) (*model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, rec)
	return &model.Candidate{ID: uuid.New(), Name: rec.Name}, nil
}

type fakePinger struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (f *fakePinger) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	if len(f.errs) > 1 {
		f.errs = f.errs[1:]
	}
	return err
}

func testWorkerConfig() *config.WorkerConfig {
	return &config.WorkerConfig{
		Workers:        1,
		QueueSize:      4,
		JobTimeout:     time.Minute,
		JobAttempts:    3,
		JobBaseBackoff: time.Second,
		StageAttempts:  2,
		StageBackoff:   time.Second,
	}
}

func newJobWithFiles(names ...string) (*model.BatchJob, []*model.FileTask) {
	job := &model.BatchJob{ID: uuid.New(), Status: model.JobStatusPending, TotalFiles: len(names)}
	tasks := make([]*model.FileTask, len(names))
	for i, n := range names {
		tasks[i] = &model.FileTask{
			ID:               uuid.New(),
			BatchJobID:       job.ID,
			Position:         i,
			OriginalFilename: n,
			StoragePath:      "/uploads/" + n,
			Format:           "txt",
			Status:           model.FileStatusPending,
		}
	}
	return job, tasks
}
