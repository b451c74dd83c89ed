package worker

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
)

type harness struct {
	jobs   *fakeJobs
	files  *fakeFiles
	ext    *fakeExtractor
	parser *fakeParser
	mat    *fakeMaterializer
	ping   *fakePinger
	orch   *Orchestrator
	sleeps []time.Duration
}

func newHarness(t *testing.T, job *model.BatchJob, tasks []*model.FileTask) *harness {
	t.Helper()
	h := &harness{
		jobs:   newFakeJobs(job),
		files:  &fakeFiles{tasks: tasks},
		ext:    &fakeExtractor{fail: map[string]bool{}},
		parser: &fakeParser{},
		mat:    &fakeMaterializer{},
		ping:   &fakePinger{},
	}
	h.orch = NewOrchestrator(Deps{
		Jobs:         h.jobs,
		Files:        h.files,
		Extractor:    h.ext,
		Parser:       h.parser,
		Materializer: h.mat,
		Pinger:       h.ping,
	}, testWorkerConfig(), nil)
	h.orch.readFile = func(path string) ([]byte, error) { return []byte(path), nil }

	orig := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return h
}

func TestProcessJobContinuesAfterFileFailure(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt", "b.txt", "c.txt")
	h := newHarness(t, job, tasks)
	h.ext.fail["b.txt"] = true

	if err := h.orch.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	want := []model.FileStatus{model.FileStatusConverted, model.FileStatusFailed, model.FileStatusConverted}
	if got := h.files.statuses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	got := h.jobs.get(job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("job status = %q", got.Status)
	}
	if got.FailedFiles != 1 || got.ProcessedFiles != 3 {
		t.Fatalf("counters = processed %d failed %d", got.ProcessedFiles, got.FailedFiles)
	}
	if got.Progress != 100 {
		t.Fatalf("progress = %v", got.Progress)
	}
	for i := 1; i < len(h.jobs.progress); i++ {
		if h.jobs.progress[i] < h.jobs.progress[i-1] {
			t.Fatalf("progress went backwards: %v", h.jobs.progress)
		}
	}

	failed := h.files.tasks[1]
	if failed.ErrorMessage == "" || failed.CandidateID != nil {
		t.Fatalf("failed task = %+v", failed)
	}
	converted := h.files.tasks[0]
	if converted.CandidateID == nil || converted.ExtractedText != "text of a.txt" {
		t.Fatalf("converted task = %+v", converted)
	}
	if !strings.Contains(converted.ParsedPayload, `"name":"text of a.txt"`) {
		t.Fatalf("parsed payload = %s", converted.ParsedPayload)
	}
	if len(h.mat.created) != 2 {
		t.Fatalf("materialized %d candidates, want 2", len(h.mat.created))
	}
}

func TestProcessJobHonorsStopBetweenFiles(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt", "b.txt", "c.txt")
	h := newHarness(t, job, tasks)
	h.jobs.afterSave = func(stored *model.BatchJob) {
		if stored.ProcessedFiles == 1 {
			stored.Status = model.JobStatusStopped
		}
	}

	if err := h.orch.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	want := []model.FileStatus{model.FileStatusConverted, model.FileStatusPending, model.FileStatusPending}
	if got := h.files.statuses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	if got := h.jobs.get(job.ID).Status; got != model.JobStatusStopped {
		t.Fatalf("job status = %q, want stopped", got)
	}
}

func TestProcessJobRetryResumesInterruptedFile(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt", "b.txt", "c.txt")
	h := newHarness(t, job, tasks)
	// two updates per file: the final update of b.txt fails once
	h.files.updateErrs = map[int]error{4: errors.New("db blip")}

	if err := h.orch.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	want := []model.FileStatus{model.FileStatusConverted, model.FileStatusConverted, model.FileStatusConverted}
	if got := h.files.statuses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	got := h.jobs.get(job.ID)
	if got.Status != model.JobStatusCompleted || got.ProcessedFiles != 3 || got.Progress != 100 {
		t.Fatalf("job = status %q processed %d progress %v", got.Status, got.ProcessedFiles, got.Progress)
	}
	if got.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", got.Attempts)
	}
	if h.files.tasks[1].CandidateID == nil {
		t.Fatalf("resumed file not linked to its candidate")
	}
}

func TestProcessJobDoesNotCompleteWithUnfinishedFiles(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt")
	job.TotalFiles = 2
	h := newHarness(t, job, tasks)

	err := h.orch.ProcessJob(context.Background(), job.ID)
	if err == nil {
		t.Fatalf("ProcessJob() error = nil, want unfinished files error")
	}
	got := h.jobs.get(job.ID)
	if got.Status != model.JobStatusFailed {
		t.Fatalf("job status = %q, want failed", got.Status)
	}
	if got.Progress == 100 {
		t.Fatalf("progress reached 100 with %d of %d files", got.ProcessedFiles, got.TotalFiles)
	}
}

func TestProcessJobRetriesConnectivityThenFails(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt")
	h := newHarness(t, job, tasks)
	h.ping.errs = []error{errors.New("dial tcp: refused")}

	err := h.orch.ProcessJob(context.Background(), job.ID)
	if !apperror.Is(err, apperror.KindConnectivity) {
		t.Fatalf("err = %v, want connectivity error", err)
	}
	if h.ping.calls != 3 {
		t.Fatalf("ping calls = %d, want 3", h.ping.calls)
	}
	if want := []time.Duration{time.Second, 2 * time.Second}; !reflect.DeepEqual(h.sleeps, want) {
		t.Fatalf("backoff = %v, want %v", h.sleeps, want)
	}
	got := h.jobs.get(job.ID)
	if got.Status != model.JobStatusFailed || got.LastError == "" {
		t.Fatalf("job = %+v", got)
	}
	if got.Attempts != 3 {
		t.Fatalf("attempts = %d", got.Attempts)
	}
	if h.files.statuses()[0] != model.FileStatusPending {
		t.Fatalf("file must stay pending when the job never started processing")
	}
}

func TestProcessJobRecoversAfterTransientConnectivity(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt")
	h := newHarness(t, job, tasks)
	h.ping.errs = []error{errors.New("timeout"), nil}

	if err := h.orch.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if got := h.jobs.get(job.ID).Status; got != model.JobStatusCompleted {
		t.Fatalf("job status = %q", got)
	}
}

func TestStageRetryOnlyForRetryableErrors(t *testing.T) {
	tests := []struct {
		name       string
		errs       []error
		wantStatus model.FileStatus
		wantCalls  int
	}{
		{
			name:       "retryable then success",
			errs:       []error{apperror.Transient(apperror.KindParse, "p", errors.New("bad json"), "invalid json")},
			wantStatus: model.FileStatusConverted,
			wantCalls:  2,
		},
		{
			name:       "fatal is not retried",
			errs:       []error{apperror.Wrap(apperror.KindParse, "p", errors.New("bad key"), "completion failed")},
			wantStatus: model.FileStatusFailed,
			wantCalls:  1,
		},
		{
			name: "retryable exhausted",
			errs: []error{
				apperror.Transient(apperror.KindParse, "p", errors.New("x"), "invalid json"),
				apperror.Transient(apperror.KindParse, "p", errors.New("y"), "invalid json"),
			},
			wantStatus: model.FileStatusFailed,
			wantCalls:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, tasks := newJobWithFiles("a.txt")
			h := newHarness(t, job, tasks)
			h.parser.errs = tt.errs

			if err := h.orch.ProcessJob(context.Background(), job.ID); err != nil {
				t.Fatalf("ProcessJob() error = %v", err)
			}
			if got := h.files.statuses()[0]; got != tt.wantStatus {
				t.Fatalf("status = %q, want %q", got, tt.wantStatus)
			}
			if h.parser.calls != tt.wantCalls {
				t.Fatalf("parser calls = %d, want %d", h.parser.calls, tt.wantCalls)
			}
		})
	}
}

func TestProcessJobEmptyJobCompletes(t *testing.T) {
	job, tasks := newJobWithFiles()
	h := newHarness(t, job, tasks)

	if err := h.orch.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	got := h.jobs.get(job.ID)
	if got.Status != model.JobStatusCompleted || got.Progress != 100 {
		t.Fatalf("job = %+v", got)
	}
}

func TestProcessJobSkipsTerminalJobs(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt")
	job.Status = model.JobStatusStopped
	h := newHarness(t, job, tasks)

	if err := h.orch.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if h.ping.calls != 0 || h.files.statuses()[0] != model.FileStatusPending {
		t.Fatalf("stopped job was processed")
	}
}

func TestProcessJobMissingJob(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt")
	h := newHarness(t, job, tasks)

	err := h.orch.ProcessJob(context.Background(), uuid.New())
	if !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if len(h.sleeps) != 0 {
		t.Fatalf("missing job must not be retried")
	}
}

func TestRecoverResetsAndEnqueues(t *testing.T) {
	job, tasks := newJobWithFiles("a.txt", "b.txt")
	job.Status = model.JobStatusProcessing
	tasks[0].Status = model.FileStatusConverted
	tasks[1].Status = model.FileStatusProcessing
	h := newHarness(t, job, tasks)

	var enqueued []uuid.UUID
	n, err := h.orch.Recover(context.Background(), func(_ context.Context, id uuid.UUID) error {
		enqueued = append(enqueued, id)
		return nil
	})
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if n != 1 || len(enqueued) != 1 || enqueued[0] != job.ID {
		t.Fatalf("enqueued = %v", enqueued)
	}
	want := []model.FileStatus{model.FileStatusConverted, model.FileStatusPending}
	if got := h.files.statuses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, Success},
		{apperror.Transient(apperror.KindParse, "op", nil, "x"), Retryable},
		{apperror.New(apperror.KindExtraction, "op", "x"), Fatal},
		{context.DeadlineExceeded, Fatal},
		{errors.New("plain"), Fatal},
	}
	for _, tt := range tests {
		if got := classify(tt.err); got != tt.want {
			t.Errorf("classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
