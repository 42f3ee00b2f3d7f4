package engine

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/crimson-sun/headlinescore/internal/engine/classifier"
)

func TestLoadBundleMissingClassifier(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadBundle(context.Background(), BundleConfig{
		LocalModelDir:  filepath.Join(dir, "model"),
		ClassifierPath: filepath.Join(dir, "svm.safetensors"),
	})

	var sErr *StartupError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected *StartupError, got %T: %v", err, err)
	}
	if sErr.Component != "classifier" {
		t.Fatalf("expected classifier component, got %q", sErr.Component)
	}
	if !errors.Is(err, classifier.ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}
}

type closingEmbedder struct {
	indexEmbedder
	closed bool
}

func (e *closingEmbedder) Close() error {
	e.closed = true
	return nil
}

func TestBundleClose(t *testing.T) {
	emb := &closingEmbedder{}
	b, err := NewBundle(emb, &echoClassifier{})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if !emb.closed {
		t.Fatal("expected Close to reach the embedder")
	}

	// Embedders without Close are fine.
	b, err = NewBundle(&indexEmbedder{}, &echoClassifier{})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

// writeClassifierArtifact writes an all-zero one-vs-rest artifact with one
// coef row per label.
func writeClassifierArtifact(t *testing.T, path string, labels []string, dim int) {
	t.Helper()
	rows := len(labels)
	coefBytes, interceptBytes := rows*dim*4, rows*4
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		t.Fatal(err)
	}
	header, err := json.Marshal(map[string]any{
		"coef":         map[string]any{"dtype": "F32", "shape": []int{rows, dim}, "data_offsets": []int{0, coefBytes}},
		"intercept":    map[string]any{"dtype": "F32", "shape": []int{rows}, "data_offsets": []int{coefBytes, coefBytes + interceptBytes}},
		"__metadata__": map[string]string{"labels": string(labelsJSON), "model": "LinearSVC"},
	})
	if err != nil {
		t.Fatal(err)
	}
	data := binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
	data = append(data, header...)
	data = append(data, make([]byte, coefBytes+interceptBytes)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadBundleFetchesOncePerProcess(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := BundleConfig{
		LocalModelDir:  filepath.Join(dir, "model"),
		ModelName:      "sentence-transformers/all-MiniLM-L6-v2",
		CacheDir:       filepath.Join(dir, "cache"),
		HubURL:         srv.URL,
		ClassifierPath: filepath.Join(dir, "svm.safetensors"),
	}
	writeClassifierArtifact(t, cfg.ClassifierPath, []string{"Neutral", "Optimistic", "Pessimistic"}, 384)

	for i := 0; i < 3; i++ {
		_, err := LoadBundle(context.Background(), cfg)
		var sErr *StartupError
		if !errors.As(err, &sErr) || sErr.Component != "embedder" {
			t.Fatalf("load %d: expected embedder *StartupError, got %v", i, err)
		}
	}
	if n := fetches.Load(); n != 1 {
		t.Fatalf("expected 1 hub fetch across loads, got %d", n)
	}
}

func TestSharedResolverPerLocation(t *testing.T) {
	dir := t.TempDir()
	a := sharedResolver(dir, "org/model", filepath.Join(dir, "cache"), nil)
	b := sharedResolver(dir, "org/model", filepath.Join(dir, "cache"), &fakeHub{})
	if a != b {
		t.Fatal("expected the same resolver for the same model location")
	}
	if a.Hub != nil {
		t.Fatal("expected the first caller's downloader to be kept")
	}
	if c := sharedResolver(dir, "org/other", filepath.Join(dir, "cache"), nil); c == a {
		t.Fatal("expected a separate resolver for a different model")
	}
}
