package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/crimson-sun/headlinescore/internal/model"
)

// ErrInvalidSource rejects source names that cannot be part of a file name.
var ErrInvalidSource = errors.New("invalid source name")

// Classifier scores a batch of headlines, positionally.
type Classifier interface {
	Classify(ctx context.Context, batch []string) ([]string, error)
}

// Runner scores one batch of headlines and writes the results file.
type Runner struct {
	Classifier Classifier
	Dir        string           // output directory; "" means the working directory
	Now        func() time.Time // date source for the file name; nil means time.Now
}

// ValidateSource reports whether source can be embedded in an output file
// name.
func ValidateSource(source string) error {
	if strings.TrimSpace(source) == "" || strings.ContainsAny(source, `/\`) || source == "." || source == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	return nil
}

// Run classifies headlines in a single call and writes them, with their
// labels and in the same order, to Dir/OutputName(source, today). It returns
// the path written.
func (r *Runner) Run(ctx context.Context, headlines []string, source string) (string, error) {
	if err := ValidateSource(source); err != nil {
		return "", err
	}
	if len(headlines) == 0 {
		return "", ErrInputEmpty
	}

	labels, err := r.Classifier.Classify(ctx, headlines)
	if err != nil {
		return "", err
	}
	if len(labels) != len(headlines) {
		return "", fmt.Errorf("batch: %d labels for %d headlines", len(labels), len(headlines))
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	path := filepath.Join(r.Dir, OutputName(source, now()))
	if err := writeScores(path, model.Pair(headlines, labels)); err != nil {
		return "", err
	}
	slog.Info("predictions written", "path", path, "count", len(labels), "source", source)
	return path, nil
}
