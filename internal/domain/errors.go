package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a rejected request (empty query, bad limit).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrTimeout signals that a collaborator did not answer within the request deadline.
	ErrTimeout = errors.New("timeout")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreUnavailable signals a vector store failure or malformed store response.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrClassifierUnavailable signals that the AI room classifier could not answer.
	ErrClassifierUnavailable = errors.New("room classifier unavailable")
	// ErrAssistantUnavailable signals that the AI query assistant could not answer.
	ErrAssistantUnavailable = errors.New("query assistant unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// Stage names a step of the search pipeline.
type Stage string

// Search pipeline stages used to annotate collaborator failures.
const (
	StageDetection Stage = "detection"
	StageFetch     Stage = "fetch"
	StageFilter    Stage = "filter"
	StageCorpus    Stage = "corpus"
)

// StageError annotates a collaborator failure with the pipeline stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// AtStage wraps err with stage context. Nil stays nil.
func AtStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the outermost pipeline stage recorded on err, or "" when none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// ValidationError describes which input was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
