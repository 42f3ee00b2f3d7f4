package embedder

import (
	"errors"
	"fmt"
)

// ONNXEmbedder runs a BERT-style sentence encoder (all-MiniLM-L6-v2 and
// friends) through ONNX Runtime. The pipeline is:
// tokenize → ONNX inference → mean pool → L2 normalize.
//
// An ONNXEmbedder is immutable after New and safe for concurrent use.
type ONNXEmbedder struct {
	session *onnxSession
	tok     *tokenizer
}

// New loads the ONNX model and WordPiece vocabulary. The ONNX Runtime shared
// library is initialized on first use; see WithRuntimeLibrary.
func New(modelPath, vocabPath string, opts ...Option) (*ONNXEmbedder, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	tok, err := newTokenizer(vocabPath, o.maxSeqLen)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	sess, err := newONNXSession(modelPath, o)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	return &ONNXEmbedder{session: sess, tok: tok}, nil
}

// Dim returns the embedding dimensionality reported by the model.
func (e *ONNXEmbedder) Dim() int {
	return int(e.session.embedDim)
}

// EmbedBatch produces embedding vectors for all texts in a single inference
// call, padded to the longest sequence in the batch.
func (e *ONNXEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	batch := e.tok.encodeBatch(texts)

	hidden, err := e.session.infer(batch)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	dim := e.session.embedDim
	pooled := meanPool(hidden, batch.attentionMask, batch.batchSize, batch.seqLen, dim)

	results := make([][]float32, batch.batchSize)
	for i := int64(0); i < batch.batchSize; i++ {
		vec := pooled[i*dim : (i+1)*dim : (i+1)*dim]
		normalize(vec)
		results[i] = vec
	}
	return results, nil
}

// Close releases ONNX Runtime session resources.
func (e *ONNXEmbedder) Close() error {
	if e.session == nil {
		return errors.New("embedder: already closed")
	}
	err := e.session.close()
	e.session = nil
	return err
}
