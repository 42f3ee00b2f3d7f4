// Package batch scores a file of headlines offline and writes a dated
// results file.
package batch

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/crimson-sun/headlinescore/internal/model"
)

var (
	// ErrInputMissing means the input path does not name a readable file.
	ErrInputMissing = errors.New("input file not found")
	// ErrInputEmpty means the input file holds no non-blank lines.
	ErrInputEmpty = errors.New("no headlines found in the input file")
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// ReadHeadlines returns the trimmed, non-empty lines of the UTF-8 file at
// path, in file order.
func ReadHeadlines(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: '%s'", ErrInputMissing, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("batch: open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("batch: read %s: %w", path, err)
	}

	headlines := model.Clean(lines)
	if len(headlines) == 0 {
		return nil, ErrInputEmpty
	}
	return headlines, nil
}
