package headlinescore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/crimson-sun/headlinescore/internal/engine/testdata"
)

const testModelDir = "../../models/all-MiniLM-L6-v2"

func testScorer(t *testing.T) *Scorer {
	t.Helper()
	classifierPath := "../../models/svm.safetensors"
	for _, p := range []string{filepath.Join(testModelDir, "vocab.txt"), classifierPath, "../../models/libonnxruntime.so"} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			t.Skipf("%s not available, skipping integration test", p)
		}
	}
	s, err := New(context.Background(),
		WithModelDir(testModelDir),
		WithClassifierPath(classifierPath),
		WithRuntimeLibrary("../../models/libonnxruntime.so"),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewMissingClassifier(t *testing.T) {
	_, err := New(context.Background(),
		WithModelDir(t.TempDir()),
		WithClassifierPath(filepath.Join(t.TempDir(), "svm.safetensors")),
	)
	if !errors.Is(err, ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := defaultOptions()
	if o.modelDir != "/opt/huggingface_models/all-MiniLM-L6-v2" {
		t.Errorf("modelDir = %q", o.modelDir)
	}
	if o.modelName != "sentence-transformers/all-MiniLM-L6-v2" {
		t.Errorf("modelName = %q", o.modelName)
	}
	if o.maxBatch != 0 {
		t.Errorf("maxBatch = %d, want 0 (engine default)", o.maxBatch)
	}
	if o.maxSeqLen != 256 {
		t.Errorf("maxSeqLen = %d, want 256", o.maxSeqLen)
	}
	if o.downloadTimeout != 10*time.Minute {
		t.Errorf("downloadTimeout = %v, want 10m", o.downloadTimeout)
	}
}

func TestOptionsApply(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithModelDir("m"),
		WithPretrained("org/model", "cache"),
		WithHub("http://hub.local", "tok"),
		WithClassifierPath("c.safetensors"),
		WithMaxBatch(8),
	} {
		opt(&o)
	}
	if o.modelDir != "m" || o.modelName != "org/model" || o.cacheDir != "cache" ||
		o.hubURL != "http://hub.local" || o.hubToken != "tok" || o.classifierPath != "c.safetensors" || o.maxBatch != 8 {
		t.Fatalf("options not applied: %+v", o)
	}
}

func TestScoreKnownHeadlines(t *testing.T) {
	s := testScorer(t)

	labels, err := s.Score(context.Background(), []string{
		"Stocks soar to record highs as economy booms",
		"Markets crash amid fears of deep recession",
	})
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(labels))
	}
	known := map[string]bool{}
	for _, l := range s.Labels() {
		known[l] = true
	}
	for _, l := range labels {
		if !known[l] {
			t.Errorf("label %q not in vocabulary %v", l, s.Labels())
		}
	}
}

func TestScoreEmpty(t *testing.T) {
	s := testScorer(t)
	labels, err := s.Score(context.Background(), nil)
	if err != nil || len(labels) != 0 {
		t.Fatalf("expected empty result, got %v, %v", labels, err)
	}
}

func TestConcurrentScore(t *testing.T) {
	s := testScorer(t)
	batch := []string{"Fed holds rates steady", "Tech shares rally", "Factory output slumps"}
	want, err := s.Score(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Score(context.Background(), batch)
			if err != nil {
				t.Error(err)
				return
			}
			for j := range want {
				if got[j] != want[j] {
					t.Errorf("concurrent result %d = %q, want %q", j, got[j], want[j])
				}
			}
		}()
	}
	wg.Wait()
}

func TestPredictPairsHeadlines(t *testing.T) {
	s := testScorer(t)
	preds, err := s.Predict(context.Background(), []string{"Oil prices plunge"})
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != 1 || preds[0].Headline != "Oil prices plunge" || preds[0].Label == "" {
		t.Fatalf("unexpected predictions %+v", preds)
	}
}

func TestCorpusAgreement(t *testing.T) {
	s := testScorer(t)
	entries, err := testdata.LoadCorpus()
	if err != nil {
		t.Fatal(err)
	}

	labels, err := s.Score(context.Background(), testdata.Headlines(entries))
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(labels) != len(entries) {
		t.Fatalf("got %d labels for %d headlines", len(labels), len(entries))
	}
	agree := 0
	for i, e := range entries {
		if labels[i] == e.ExpectedLabel {
			agree++
		} else {
			t.Logf("%-60q got %-12s want %s", e.Headline, labels[i], e.ExpectedLabel)
		}
	}
	t.Logf("agreement: %d/%d", agree, len(entries))
}
