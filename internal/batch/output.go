package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/crimson-sun/headlinescore/internal/model"
)

const defaultBufSize = 64 * 1024

// OutputName is the results file name for a source on a date:
// headline_scores_<source>_<YYYY>_<MM>_<DD>.txt.
func OutputName(source string, date time.Time) string {
	return fmt.Sprintf("headline_scores_%s_%04d_%02d_%02d.txt", source, date.Year(), int(date.Month()), date.Day())
}

// writeScores writes one "label,headline" line per row to path. Rows go to a
// temp file in the same directory that is renamed over path only after a
// complete write, so a failure never leaves a partial results file.
func writeScores(path string, rows []model.Scored) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".headline_scores-*.tmp")
	if err != nil {
		return fmt.Errorf("batch output: create temp in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriterSize(tmp, defaultBufSize)
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s,%s\n", r.Label, r.Headline); err != nil {
			return fmt.Errorf("batch output: write: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("batch output: flush: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("batch output: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("batch output: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("batch output: rename to %s: %w", path, err)
	}
	return nil
}
