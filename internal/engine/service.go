// Package engine is the classification service: it owns the model bundle
// and turns batches of headlines into batches of labels.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crimson-sun/headlinescore/internal/model"
)

// DefaultMaxBatch is the largest batch Classify accepts unless overridden.
const DefaultMaxBatch = 512

// Service classifies batches of headlines with a loaded Bundle. It holds no
// mutable state and is safe for concurrent use.
type Service struct {
	bundle   *Bundle
	maxBatch int
}

// Option configures a Service.
type Option func(*Service)

// WithMaxBatch sets the largest accepted batch. Non-positive values keep
// the default.
func WithMaxBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// New creates a Service over an already loaded bundle. A nil bundle gives a
// Service that reports NotReady and refuses to classify.
func New(b *Bundle, opts ...Option) *Service {
	s := &Service{bundle: b, maxBatch: DefaultMaxBatch}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports Ready once the service holds a bundle. It runs no inference.
func (s *Service) Status() model.Status {
	if s == nil || s.bundle == nil {
		return model.NotReady
	}
	return model.Ready
}

// Labels returns the label vocabulary of the loaded classifier, or nil
// without one.
func (s *Service) Labels() []string {
	if s.Status() != model.Ready {
		return nil
	}
	return s.bundle.Labels()
}

// Classify returns one label per headline, positionally aligned with batch.
//
// An empty batch is a no-op returning an empty slice. Entries that are empty
// after trimming, or a batch larger than the configured maximum, are
// rejected with *ValidationError before any inference. The whole batch is
// embedded in one call and classified in one call; any failure there is
// returned as a single *ClassificationError and no labels are returned.
// Without a bundle every call fails with ErrNotReady.
func (s *Service) Classify(ctx context.Context, batch []string) ([]string, error) {
	if s.Status() != model.Ready {
		return nil, ErrNotReady
	}
	if len(batch) == 0 {
		return []string{}, nil
	}
	if len(batch) > s.maxBatch {
		return nil, &ValidationError{Err: ErrBatchTooLarge, Index: -1, Size: len(batch), Limit: s.maxBatch}
	}
	for i, h := range batch {
		if strings.TrimSpace(h) == "" {
			return nil, &ValidationError{Err: ErrEmptyHeadline, Index: i, Size: len(batch)}
		}
	}

	start := time.Now()
	slog.InfoContext(ctx, "scoring headlines", "batch_size", len(batch))

	var vectors [][]float32
	err := runStage(StageEmbed, len(batch), func() (err error) {
		vectors, err = s.bundle.embedder.EmbedBatch(batch)
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("embedder returned %d vectors for %d headlines", len(vectors), len(batch))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	var labels []string
	err = runStage(StagePredict, len(batch), func() (err error) {
		labels, err = s.bundle.classifier.Predict(vectors)
		if err == nil && len(labels) != len(batch) {
			err = fmt.Errorf("classifier returned %d labels for %d headlines", len(labels), len(batch))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "headlines scored", "batch_size", len(batch), "duration_ms", time.Since(start).Milliseconds())
	return labels, nil
}

// runStage runs fn, converting an error or a panic into a
// *ClassificationError for the stage.
func runStage(stage Stage, size int, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ClassificationError{Stage: stage, BatchSize: size, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := fn(); err != nil {
		return &ClassificationError{Stage: stage, BatchSize: size, Err: err}
	}
	return nil
}
