package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/crimson-sun/headlinescore/internal/engine/classifier"
	"github.com/crimson-sun/headlinescore/internal/engine/embedder"
	"github.com/crimson-sun/headlinescore/internal/hub"
)

// Embedder turns a batch of texts into vectors, in order.
type Embedder interface {
	EmbedBatch(texts []string) ([][]float32, error)
	Dim() int
}

// Classifier maps a batch of vectors to labels, in order. The label
// vocabulary belongs to the classifier.
type Classifier interface {
	Predict(vectors [][]float32) ([]string, error)
	Dim() int
	Labels() []string
}

// Bundle is the embedder and classifier pair. It never changes after
// construction and is shared read-only by every request.
type Bundle struct {
	embedder   Embedder
	classifier Classifier
}

// NewBundle pairs an embedder with a classifier whose input dimension
// matches the embedder's output.
func NewBundle(emb Embedder, cls Classifier) (*Bundle, error) {
	if emb == nil || cls == nil {
		return nil, errors.New("bundle: embedder and classifier are required")
	}
	if emb.Dim() != cls.Dim() {
		return nil, fmt.Errorf("bundle: embedder produces %d-dim vectors, classifier expects %d", emb.Dim(), cls.Dim())
	}
	return &Bundle{embedder: emb, classifier: cls}, nil
}

// Labels returns the classifier's label vocabulary.
func (b *Bundle) Labels() []string {
	return b.classifier.Labels()
}

// Close releases the embedder's runtime resources, if it holds any.
func (b *Bundle) Close() error {
	if c, ok := b.embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// BundleConfig locates everything LoadBundle reads. Zero MaxSeqLen and
// DownloadTimeout keep the embedder and hub defaults.
type BundleConfig struct {
	LocalModelDir   string
	ModelName       string
	CacheDir        string
	HubURL          string
	HubToken        string
	RuntimeLibrary  string
	ClassifierPath  string
	IntraOpThreads  int
	MaxSeqLen       int
	DownloadTimeout time.Duration
}

// LoadBundle loads the classifier artifact and the embedding model
// synchronously. Model resolution, including any hub download, happens once
// per model location per process; later calls reuse that result, even a
// failed one. Every failure is a *StartupError; a missing artifact
// matches classifier.ErrArtifactMissing.
func LoadBundle(ctx context.Context, cfg BundleConfig) (*Bundle, error) {
	start := time.Now()

	cls, err := classifier.Load(cfg.ClassifierPath)
	if err != nil {
		return nil, &StartupError{Component: "classifier", Err: err}
	}
	slog.Info("classifier loaded", "path", cfg.ClassifierPath, "labels", cls.Labels(), "dim", cls.Dim())

	resolver := sharedResolver(cfg.LocalModelDir, cfg.ModelName, cfg.CacheDir,
		hub.New(cfg.HubURL, cfg.HubToken, hub.WithTimeout(cfg.DownloadTimeout)))
	files, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, &StartupError{Component: "embedder", Err: err}
	}

	emb, err := embedder.New(files.ONNX, files.Vocab,
		embedder.WithRuntimeLibrary(cfg.RuntimeLibrary),
		embedder.WithIntraOpThreads(cfg.IntraOpThreads),
		embedder.WithMaxSeqLen(cfg.MaxSeqLen),
	)
	if err != nil {
		return nil, &StartupError{Component: "embedder", Err: err}
	}

	b, err := NewBundle(emb, cls)
	if err != nil {
		emb.Close()
		return nil, &StartupError{Component: "embedder", Err: err}
	}
	slog.Info("model bundle ready", "model_dir", files.Dir, "dim", emb.Dim(), "duration_ms", time.Since(start).Milliseconds())
	return b, nil
}
