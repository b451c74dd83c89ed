package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindExtraction        Kind = "extraction_error"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindParse             Kind = "parse_error"
	KindScoring           Kind = "scoring_error"
	KindConnectivity      Kind = "connectivity_error"
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindInternal          Kind = "internal_error"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyText         = errors.New("no text extracted")
	ErrEmptyResponse     = errors.New("empty response from language model")
	ErrNotFound          = errors.New("resource not found")
)

// Error is the application error carried across component boundaries.
type Error struct {
	Kind      Kind
	Op        string
	Message   string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Transient marks a wrapped error as safe to retry.
func Transient(kind Kind, op string, err error, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err, Retryable: true}
}

// KindOf returns the kind of the outermost *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}

func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
