// Package interactive is the terminal front end for the scoring API: an
// editable list of headlines and a line-oriented session around it.
package interactive

import (
	"errors"
	"fmt"

	"github.com/crimson-sun/headlinescore/internal/model"
)

// ErrNoSuchHeadline is returned for positions outside the list.
var ErrNoSuchHeadline = errors.New("no such headline")

// List is the ordered set of headlines being edited. Positions are
// zero-based. A List is not safe for concurrent use.
type List struct {
	items []string
}

// NewList returns a list holding a single empty entry, ready to be filled.
func NewList() *List {
	return &List{items: []string{""}}
}

// Add appends text, which may be empty.
func (l *List) Add(text string) {
	l.items = append(l.items, text)
}

// Edit replaces the entry at i.
func (l *List) Edit(i int, text string) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.items[i] = text
	return nil
}

// Delete removes the entry at i, shifting later entries down.
func (l *List) Delete(i int) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Len reports the number of entries, empty ones included.
func (l *List) Len() int { return len(l.items) }

// Items returns a copy of every entry as typed.
func (l *List) Items() []string {
	return append([]string(nil), l.items...)
}

// Submission returns the trimmed, non-empty entries in order. This is what
// gets sent for classification.
func (l *List) Submission() []string {
	return model.Clean(l.items)
}

func (l *List) check(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: position %d of %d", ErrNoSuchHeadline, i+1, len(l.items))
	}
	return nil
}
