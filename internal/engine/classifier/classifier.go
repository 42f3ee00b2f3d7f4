// Package classifier loads the pre-trained linear classifier that maps a
// sentence embedding to a label, and runs batched prediction with it.
//
// The artifact must come from a one-vs-rest linear estimator such as
// scikit-learn's LinearSVC or LogisticRegression, whose coef_ has one row
// per class. SVC and NuSVC train one-vs-one: for three classes their coef_
// also has three rows, but those rows are class pairs, so such artifacts
// are rejected when the model metadata names them. Export a fitted
// estimator with safetensors:
//
//	clf = joblib.load("svm.joblib")
//	save_file(
//	    {"coef": clf.coef_.astype("float32"), "intercept": clf.intercept_.astype("float32")},
//	    "svm.safetensors",
//	    metadata={"labels": json.dumps([str(c) for c in clf.classes_]), "model": type(clf).__name__},
//	)
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrArtifactMissing means the classifier artifact file does not exist.
	ErrArtifactMissing = errors.New("classifier artifact not found")
	// ErrArtifactInvalid means the artifact exists but cannot be used.
	ErrArtifactInvalid = errors.New("classifier artifact invalid")
)

// oneVsOne names estimators whose coef rows are class pairs, not classes.
var oneVsOne = map[string]bool{
	"SVC":   true,
	"NuSVC": true,
}

// Tensor names and metadata keys of the artifact format.
const (
	coefTensor      = "coef"
	interceptTensor = "intercept"
	labelsKey       = "labels"
	modelKey        = "model"
)

// Linear is a one-vs-rest linear classifier: the predicted label is the row
// of coef with the highest decision value coef[k]·x + intercept[k]. The
// binary layout (one row, two labels) picks labels[1] on a positive decision.
//
// A Linear is immutable and safe for concurrent use.
type Linear struct {
	labels    []string
	coef      []float32 // row-major [rows, dim]
	intercept []float32
	rows      int
	dim       int
	model     string
}

// New builds a classifier from in-memory weights, applying the same checks
// as Load.
func New(labels []string, coef [][]float32, intercept []float32) (*Linear, error) {
	dim := 0
	if len(coef) > 0 {
		dim = len(coef[0])
	}
	flat := make([]float32, 0, len(coef)*dim)
	for i, row := range coef {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: coef row %d has %d values, want %d", ErrArtifactInvalid, i, len(row), dim)
		}
		flat = append(flat, row...)
	}
	return newLinear(labels, flat, len(coef), dim, intercept, "")
}

// Load reads a classifier artifact: a safetensors file with an F32 "coef"
// tensor [rows, dim], an F32 "intercept" tensor [rows], and the class
// vocabulary as a JSON array under __metadata__["labels"].
func Load(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("classifier: %w", err)
	}

	tf, err := parseSafetensors(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactInvalid, path, err)
	}

	coef, ok := tf.tensors[coefTensor]
	if !ok {
		return nil, fmt.Errorf("%w: tensor %q not found", ErrArtifactInvalid, coefTensor)
	}
	if len(coef.shape) != 2 {
		return nil, fmt.Errorf("%w: expected 2D %q tensor, got shape %v", ErrArtifactInvalid, coefTensor, coef.shape)
	}
	intercept, ok := tf.tensors[interceptTensor]
	if !ok {
		return nil, fmt.Errorf("%w: tensor %q not found", ErrArtifactInvalid, interceptTensor)
	}
	if len(intercept.shape) != 1 {
		return nil, fmt.Errorf("%w: expected 1D %q tensor, got shape %v", ErrArtifactInvalid, interceptTensor, intercept.shape)
	}

	rawLabels, ok := tf.metadata[labelsKey]
	if !ok {
		return nil, fmt.Errorf("%w: metadata %q not found", ErrArtifactInvalid, labelsKey)
	}
	var labels []string
	if err := json.Unmarshal([]byte(rawLabels), &labels); err != nil {
		return nil, fmt.Errorf("%w: metadata %q is not a JSON string array: %v", ErrArtifactInvalid, labelsKey, err)
	}

	return newLinear(labels, coef.data, coef.shape[0], coef.shape[1], intercept.data, tf.metadata[modelKey])
}

// newLinear validates the label vocabulary against the weight shapes. Labels
// are never checked against a fixed set; only cardinality and sanity.
func newLinear(labels []string, coef []float32, rows, dim int, intercept []float32, model string) (*Linear, error) {
	if oneVsOne[model] {
		return nil, fmt.Errorf("%w: %s is a one-vs-one estimator; export a one-vs-rest model such as LinearSVC", ErrArtifactInvalid, model)
	}
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 labels, got %d", ErrArtifactInvalid, len(labels))
	}
	seen := make(map[string]bool, len(labels))
	for i, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("%w: label %d is empty", ErrArtifactInvalid, i)
		}
		if seen[l] {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrArtifactInvalid, l)
		}
		seen[l] = true
	}

	binary := rows == 1 && len(labels) == 2
	if rows != len(labels) && !binary {
		return nil, fmt.Errorf("%w: %d coef rows for %d labels", ErrArtifactInvalid, rows, len(labels))
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: coef has no columns", ErrArtifactInvalid)
	}
	if len(coef) != rows*dim {
		return nil, fmt.Errorf("%w: coef has %d values, want %d", ErrArtifactInvalid, len(coef), rows*dim)
	}
	if len(intercept) != rows {
		return nil, fmt.Errorf("%w: intercept has %d values, want %d", ErrArtifactInvalid, len(intercept), rows)
	}

	return &Linear{
		labels:    append([]string(nil), labels...),
		coef:      coef,
		intercept: append([]float32(nil), intercept...),
		rows:      rows,
		dim:       dim,
		model:     model,
	}, nil
}

// Labels returns a copy of the class vocabulary in artifact order.
func (c *Linear) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Dim returns the embedding length the classifier expects.
func (c *Linear) Dim() int {
	return c.dim
}

// Model returns the estimator name recorded in the artifact, if any.
func (c *Linear) Model() string {
	return c.model
}

// Predict returns one label per vector, in input order. Any vector whose
// length differs from Dim fails the whole call.
func (c *Linear) Predict(vectors [][]float32) ([]string, error) {
	for i, v := range vectors {
		if len(v) != c.dim {
			return nil, fmt.Errorf("classifier: vector %d has length %d, want %d", i, len(v), c.dim)
		}
	}

	out := make([]string, len(vectors))
	for i, v := range vectors {
		out[i] = c.labels[c.predictOne(v)]
	}
	return out, nil
}

func (c *Linear) predictOne(v []float32) int {
	if c.rows == 1 {
		if c.decision(0, v) > 0 {
			return 1
		}
		return 0
	}
	best, bestScore := 0, c.decision(0, v)
	for k := 1; k < c.rows; k++ {
		if s := c.decision(k, v); s > bestScore {
			best, bestScore = k, s
		}
	}
	return best
}

func (c *Linear) decision(k int, v []float32) float64 {
	row := c.coef[k*c.dim : (k+1)*c.dim]
	sum := float64(c.intercept[k])
	for j, w := range row {
		sum += float64(w) * float64(v[j])
	}
	return sum
}
