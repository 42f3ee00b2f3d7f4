// Package testdata embeds a small hand-labeled headline corpus shared by
// integration tests.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed corpus.json
var corpusJSON []byte

// CorpusEntry is a labeled headline for classification validation.
type CorpusEntry struct {
	Headline      string `json:"headline"`
	ExpectedLabel string `json:"expected_label"`
	Description   string `json:"description"`
}

// LoadCorpus parses the embedded corpus.json and returns all entries.
func LoadCorpus() ([]CorpusEntry, error) {
	var entries []CorpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus.json: %w", err)
	}
	return entries, nil
}

// Headlines returns just the headline text of every entry, in corpus order.
func Headlines(entries []CorpusEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Headline
	}
	return out
}
