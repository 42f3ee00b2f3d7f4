package testdata

import (
	"strings"
	"testing"
)

func TestLoadCorpus(t *testing.T) {
	entries, err := LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("corpus is empty")
	}

	seen := map[string]bool{}
	for i, e := range entries {
		if strings.TrimSpace(e.Headline) == "" {
			t.Errorf("entry[%d] has empty headline", i)
		}
		if strings.ContainsAny(e.Headline, "\n\r") {
			t.Errorf("entry[%d] headline spans lines", i)
		}
		if seen[e.Headline] {
			t.Errorf("entry[%d] duplicates %q", i, e.Headline)
		}
		seen[e.Headline] = true
	}
}

func TestCorpusCoverage(t *testing.T) {
	entries, err := LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}

	counts := map[string]int{"Optimistic": 0, "Pessimistic": 0, "Neutral": 0}
	for i, e := range entries {
		if _, ok := counts[e.ExpectedLabel]; !ok {
			t.Errorf("entry[%d] (%s) has unknown label %q", i, e.Description, e.ExpectedLabel)
			continue
		}
		counts[e.ExpectedLabel]++
	}
	for label, n := range counts {
		if n < 5 {
			t.Errorf("label %q has only %d entries (want >= 5)", label, n)
		}
	}
}

func TestHeadlinesKeepsOrder(t *testing.T) {
	entries, err := LoadCorpus()
	if err != nil {
		t.Fatal(err)
	}
	hs := Headlines(entries)
	if len(hs) != len(entries) || hs[0] != entries[0].Headline || hs[len(hs)-1] != entries[len(entries)-1].Headline {
		t.Fatal("Headlines must mirror corpus order")
	}
}
