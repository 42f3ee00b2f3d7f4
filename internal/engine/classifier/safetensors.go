package classifier

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// tensor is one F32 tensor decoded from a safetensors file.
type tensor struct {
	shape []int
	data  []float32
}

// tensorFile is a decoded safetensors file: named F32 tensors plus the
// free-form string metadata stored under "__metadata__".
type tensorFile struct {
	tensors  map[string]tensor
	metadata map[string]string
}

// parseSafetensors decodes the safetensors layout: an 8-byte little-endian
// header length, a JSON header describing each tensor, then raw data.
// Only F32 tensors are accepted.
func parseSafetensors(data []byte) (*tensorFile, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("file too small: %d bytes", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("header length %d exceeds file size", headerLen)
	}
	body := data[8+headerLen:]

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	tf := &tensorFile{tensors: make(map[string]tensor, len(header))}
	for name, raw := range header {
		if name == "__metadata__" {
			if err := json.Unmarshal(raw, &tf.metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		t, err := decodeTensor(name, raw, body)
		if err != nil {
			return nil, err
		}
		tf.tensors[name] = t
	}
	return tf, nil
}

func decodeTensor(name string, raw json.RawMessage, body []byte) (tensor, error) {
	var meta struct {
		Dtype       string `json:"dtype"`
		Shape       []int  `json:"shape"`
		DataOffsets [2]int `json:"data_offsets"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return tensor{}, fmt.Errorf("tensor %q: failed to parse metadata: %w", name, err)
	}
	if meta.Dtype != "F32" {
		return tensor{}, fmt.Errorf("tensor %q: expected dtype F32, got %s", name, meta.Dtype)
	}

	n := 1
	for _, d := range meta.Shape {
		if d < 0 {
			return tensor{}, fmt.Errorf("tensor %q: negative dimension in shape %v", name, meta.Shape)
		}
		n *= d
	}

	start, end := meta.DataOffsets[0], meta.DataOffsets[1]
	if start < 0 || end < start || end > len(body) {
		return tensor{}, fmt.Errorf("tensor %q: data range [%d:%d] exceeds data size %d", name, start, end, len(body))
	}
	if end-start != n*4 {
		return tensor{}, fmt.Errorf("tensor %q: data size %d doesn't match shape %v", name, end-start, meta.Shape)
	}

	values := make([]float32, n)
	for i := range values {
		off := start + i*4
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
	}
	return tensor{shape: meta.Shape, data: values}, nil
}
