package headlinescore

import (
	"context"
	"fmt"

	"github.com/crimson-sun/headlinescore/internal/engine"
	"github.com/crimson-sun/headlinescore/internal/engine/classifier"
	"github.com/crimson-sun/headlinescore/internal/model"
)

// Errors callers can match with errors.Is.
var (
	ErrClassification  = engine.ErrClassification
	ErrEmptyHeadline   = engine.ErrEmptyHeadline
	ErrBatchTooLarge   = engine.ErrBatchTooLarge
	ErrArtifactMissing = classifier.ErrArtifactMissing
	ErrArtifactInvalid = classifier.ErrArtifactInvalid
)

// Prediction is one headline with its label.
type Prediction struct {
	Headline string `json:"headline"`
	Label    string `json:"label"`
}

// Scorer is a loaded headline classifier.
type Scorer struct {
	service *engine.Service
	bundle  *engine.Bundle
}

// New loads the classifier artifact and the embedding model. This is
// expensive; create once, reuse across requests.
func New(ctx context.Context, opts ...Option) (*Scorer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b, err := engine.LoadBundle(ctx, engine.BundleConfig{
		LocalModelDir:   o.modelDir,
		ModelName:       o.modelName,
		CacheDir:        o.cacheDir,
		HubURL:          o.hubURL,
		HubToken:        o.hubToken,
		RuntimeLibrary:  o.runtimeLibrary,
		ClassifierPath:  o.classifierPath,
		IntraOpThreads:  o.intraOpThreads,
		MaxSeqLen:       o.maxSeqLen,
		DownloadTimeout: o.downloadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("headlinescore: %w", err)
	}
	return &Scorer{service: engine.New(b, engine.WithMaxBatch(o.maxBatch)), bundle: b}, nil
}

// Score returns one label per headline, in input order. An empty input
// returns an empty slice.
func (s *Scorer) Score(ctx context.Context, headlines []string) ([]string, error) {
	return s.service.Classify(ctx, headlines)
}

// Predict is Score with each label paired to its headline.
func (s *Scorer) Predict(ctx context.Context, headlines []string) ([]Prediction, error) {
	labels, err := s.service.Classify(ctx, headlines)
	if err != nil {
		return nil, err
	}
	scored := model.Pair(headlines, labels)
	out := make([]Prediction, len(scored))
	for i, p := range scored {
		out[i] = Prediction{Headline: p.Headline, Label: p.Label}
	}
	return out, nil
}

// Labels returns the classifier's label vocabulary.
func (s *Scorer) Labels() []string {
	return s.service.Labels()
}

// Close releases the ONNX runtime session.
func (s *Scorer) Close() error {
	return s.bundle.Close()
}
