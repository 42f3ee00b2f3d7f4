package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrClassification marks every failure of the embed or predict step.
	ErrClassification = errors.New("classification failed")
	// ErrEmptyHeadline rejects batch entries that are empty after trimming.
	ErrEmptyHeadline = errors.New("empty headline")
	// ErrBatchTooLarge rejects batches over the configured maximum.
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrNotReady is returned by a Service that holds no model bundle.
	ErrNotReady = errors.New("model bundle not loaded")
)

// ValidationError reports a batch the service refuses to classify. Err is
// ErrEmptyHeadline or ErrBatchTooLarge.
type ValidationError struct {
	Err   error
	Index int // offending entry for ErrEmptyHeadline, -1 otherwise
	Size  int // batch size
	Limit int // configured maximum for ErrBatchTooLarge
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrBatchTooLarge) {
		return fmt.Sprintf("%v: %d headlines, limit %d", e.Err, e.Size, e.Limit)
	}
	return fmt.Sprintf("%v at index %d", e.Err, e.Index)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Stage names the step of Classify that failed.
type Stage string

const (
	StageEmbed   Stage = "embed"
	StagePredict Stage = "predict"
)

// ClassificationError is the single batch-level failure of Classify. It
// matches ErrClassification and also unwraps to the underlying cause.
type ClassificationError struct {
	Stage     Stage
	BatchSize int
	Err       error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%v: %s stage, batch of %d: %v", ErrClassification, e.Stage, e.BatchSize, e.Err)
}

func (e *ClassificationError) Unwrap() []error { return []error{ErrClassification, e.Err} }

// StartupError means the model bundle could not be loaded; the service must
// not start.
type StartupError struct {
	Component string // "classifier" or "embedder"
	Err       error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup: loading %s: %v", e.Component, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }
