package classifier

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

type testTensor struct {
	dtype string
	shape []int
	data  []float32
}

// encodeSafetensors builds a safetensors file from the given tensors.
func encodeSafetensors(t *testing.T, tensors map[string]testTensor, metadata map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := map[string]any{}
	if metadata != nil {
		header["__metadata__"] = metadata
	}
	var body []byte
	for _, name := range names {
		tt := tensors[name]
		start := len(body)
		for _, v := range tt.data {
			body = binary.LittleEndian.AppendUint32(body, math.Float32bits(v))
		}
		header[name] = map[string]any{
			"dtype":        tt.dtype,
			"shape":        tt.shape,
			"data_offsets": []int{start, len(body)},
		}
	}

	hdr, err := json.Marshal(header)
	if err != nil {
		t.Fatal(err)
	}
	out := binary.LittleEndian.AppendUint64(nil, uint64(len(hdr)))
	out = append(out, hdr...)
	return append(out, body...)
}

func writeArtifact(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svm.safetensors")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func labelsJSON(labels ...string) string {
	b, _ := json.Marshal(labels)
	return string(b)
}

// sentimentArtifact is a 3-class, 2-dim classifier: each label owns one
// direction of the input plane.
func sentimentArtifact(t *testing.T) []byte {
	return encodeSafetensors(t, map[string]testTensor{
		"coef": {"F32", []int{3, 2}, []float32{
			0, 0, // Neutral
			1, 0, // Optimistic
			0, 1, // Pessimistic
		}},
		"intercept": {"F32", []int{3}, []float32{0.5, 0, 0}},
	}, map[string]string{
		"labels": labelsJSON("Neutral", "Optimistic", "Pessimistic"),
		"model":  "LinearSVC",
	})
}

func TestLoad(t *testing.T) {
	c, err := Load(writeArtifact(t, sentimentArtifact(t)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Dim() != 2 {
		t.Errorf("expected dim 2, got %d", c.Dim())
	}
	if want := []string{"Neutral", "Optimistic", "Pessimistic"}; !reflect.DeepEqual(c.Labels(), want) {
		t.Errorf("Labels() = %v, want %v", c.Labels(), want)
	}
	if c.Model() != "LinearSVC" {
		t.Errorf("Model() = %q, want LinearSVC", c.Model())
	}
}

func TestPredictArgmax(t *testing.T) {
	c, err := Load(writeArtifact(t, sentimentArtifact(t)))
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.Predict([][]float32{
		{2, 0},   // Optimistic: 2 > 0.5
		{0, 2},   // Pessimistic
		{0.1, 0}, // Neutral intercept wins
		{0.5, 0}, // tie Neutral/Optimistic → first row
	})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	want := []string{"Optimistic", "Pessimistic", "Neutral", "Neutral"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Predict = %v, want %v", got, want)
	}
}

func TestPredictBinaryLayout(t *testing.T) {
	c, err := New([]string{"Pessimistic", "Optimistic"}, [][]float32{{1, -1}}, []float32{0})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Predict([][]float32{{1, 0}, {0, 1}, {0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Optimistic", "Pessimistic", "Pessimistic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Predict = %v, want %v", got, want)
	}
}

func TestPredictEmpty(t *testing.T) {
	c, err := Load(writeArtifact(t, sentimentArtifact(t)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Predict(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no labels, got %v", got)
	}
}

func TestPredictDimMismatch(t *testing.T) {
	c, err := Load(writeArtifact(t, sentimentArtifact(t)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Predict([][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Fatal("expected error for wrong vector length")
	}
}

func TestLabelsReturnsCopy(t *testing.T) {
	c, err := New([]string{"a", "b"}, [][]float32{{1}, {2}}, []float32{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	c.Labels()[0] = "mutated"
	if c.Labels()[0] != "a" {
		t.Error("Labels() exposed internal slice")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "svm.safetensors"))
	if !errors.Is(err, ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	goodCoef := testTensor{"F32", []int{3, 2}, make([]float32, 6)}
	goodIntercept := testTensor{"F32", []int{3}, make([]float32, 3)}
	goodMeta := map[string]string{"labels": labelsJSON("Neutral", "Optimistic", "Pessimistic")}

	valid := encodeSafetensors(t, map[string]testTensor{"coef": goodCoef, "intercept": goodIntercept}, goodMeta)

	tests := []struct {
		name string
		data []byte
	}{
		{"too small", []byte{1, 2, 3}},
		{"header overflow", binary.LittleEndian.AppendUint64(nil, 1<<20)},
		{"bad header json", append(binary.LittleEndian.AppendUint64(nil, 3), []byte("{{{")...)},
		{"truncated data", valid[:len(valid)-4]},
		{"missing coef", encodeSafetensors(t, map[string]testTensor{"intercept": goodIntercept}, goodMeta)},
		{"missing intercept", encodeSafetensors(t, map[string]testTensor{"coef": goodCoef}, goodMeta)},
		{"missing labels", encodeSafetensors(t, map[string]testTensor{"coef": goodCoef, "intercept": goodIntercept}, map[string]string{})},
		{"labels not json", encodeSafetensors(t, map[string]testTensor{"coef": goodCoef, "intercept": goodIntercept},
			map[string]string{"labels": "Neutral,Optimistic"})},
		{"wrong dtype", encodeSafetensors(t, map[string]testTensor{
			"coef":      {"F16", []int{3, 2}, make([]float32, 6)},
			"intercept": goodIntercept,
		}, goodMeta)},
		{"coef not 2D", encodeSafetensors(t, map[string]testTensor{
			"coef":      {"F32", []int{6}, make([]float32, 6)},
			"intercept": goodIntercept,
		}, goodMeta)},
		{"rows vs labels", encodeSafetensors(t, map[string]testTensor{
			"coef":      {"F32", []int{2, 3}, make([]float32, 6)},
			"intercept": {"F32", []int{2}, make([]float32, 2)},
		}, goodMeta)},
		{"intercept length", encodeSafetensors(t, map[string]testTensor{
			"coef":      goodCoef,
			"intercept": {"F32", []int{2}, make([]float32, 2)},
		}, goodMeta)},
		{"single label", encodeSafetensors(t, map[string]testTensor{
			"coef":      {"F32", []int{1, 2}, make([]float32, 2)},
			"intercept": {"F32", []int{1}, make([]float32, 1)},
		}, map[string]string{"labels": labelsJSON("Neutral")})},
		{"duplicate label", encodeSafetensors(t, map[string]testTensor{"coef": goodCoef, "intercept": goodIntercept},
			map[string]string{"labels": labelsJSON("Neutral", "Neutral", "Pessimistic")})},
		{"empty label", encodeSafetensors(t, map[string]testTensor{"coef": goodCoef, "intercept": goodIntercept},
			map[string]string{"labels": labelsJSON("Neutral", "", "Pessimistic")})},
		{"one-vs-one SVC", encodeSafetensors(t, map[string]testTensor{"coef": goodCoef, "intercept": goodIntercept},
			map[string]string{"labels": goodMeta["labels"], "model": "SVC"})},
		{"one-vs-one NuSVC", encodeSafetensors(t, map[string]testTensor{"coef": goodCoef, "intercept": goodIntercept},
			map[string]string{"labels": goodMeta["labels"], "model": "NuSVC"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeArtifact(t, tt.data))
			if !errors.Is(err, ErrArtifactInvalid) {
				t.Fatalf("expected ErrArtifactInvalid, got %v", err)
			}
		})
	}
}

func TestNewRaggedCoef(t *testing.T) {
	_, err := New([]string{"a", "b"}, [][]float32{{1, 2}, {3}}, []float32{0, 0})
	if !errors.Is(err, ErrArtifactInvalid) {
		t.Fatalf("expected ErrArtifactInvalid, got %v", err)
	}
}
