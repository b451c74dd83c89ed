package worker

import (
	"context"
	"errors"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
)

// Outcome is how the orchestrator treats a stage result.
type Outcome int

const (
	Success Outcome = iota
	Retryable
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// StageResult carries a stage's value or its classified error.
type StageResult[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Fatal
	case apperror.IsRetryable(err):
		return Retryable
	default:
		return Fatal
	}
}
