package embedder

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Only the first call has
// any effect; its error is returned to every caller.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// bertInputs are the tensors a sentence-transformers ONNX export expects, in
// the order infer passes them.
var bertInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

// onnxSession wraps a DynamicAdvancedSession for BERT-style encoders.
// Run is safe to call from multiple goroutines.
type onnxSession struct {
	session    *ort.DynamicAdvancedSession
	outputName string
	embedDim   int64
}

// newONNXSession loads the model and validates its tensor names and shapes.
func newONNXSession(modelPath string, o options) (*onnxSession, error) {
	if err := initORT(o.runtimeLibrary); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime from %s: %w", o.runtimeLibrary, err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if err := validateInputs(inputs); err != nil {
		return nil, err
	}
	outputName, embedDim, err := hiddenStateOutput(outputs)
	if err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	if err := opts.SetIntraOpNumThreads(o.intraOpThreads); err != nil {
		return nil, fmt.Errorf("onnx: set intra-op threads: %w", err)
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("onnx: set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, bertInputs, []string{outputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &onnxSession{
		session:    session,
		outputName: outputName,
		embedDim:   embedDim,
	}, nil
}

// validateInputs checks that the model declares every BERT-style input.
func validateInputs(inputs []ort.InputOutputInfo) error {
	names := make(map[string]bool, len(inputs))
	for _, inp := range inputs {
		names[inp.Name] = true
	}
	for _, name := range bertInputs {
		if !names[name] {
			return fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	return nil
}

// hiddenStateOutput picks the per-token hidden state tensor
// ([batch, seq, dim]). sentence-transformers exports name it
// last_hidden_state; otherwise the first 3D output is used.
func hiddenStateOutput(outputs []ort.InputOutputInfo) (string, int64, error) {
	if len(outputs) == 0 {
		return "", 0, fmt.Errorf("onnx: model has no outputs")
	}
	var chosen *ort.InputOutputInfo
	for i := range outputs {
		if len(outputs[i].Dimensions) != 3 {
			continue
		}
		if outputs[i].Name == "last_hidden_state" {
			chosen = &outputs[i]
			break
		}
		if chosen == nil {
			chosen = &outputs[i]
		}
	}
	if chosen == nil {
		return "", 0, fmt.Errorf("onnx: expected a 3D output tensor, got %v", outputs[0].Dimensions)
	}
	dim := chosen.Dimensions[2]
	if dim <= 0 {
		return "", 0, fmt.Errorf("onnx: output %q has no static embedding dimension: %v", chosen.Name, chosen.Dimensions)
	}
	return chosen.Name, dim, nil
}

// infer runs one inference call over a packed batch. Returns the hidden state
// tensor as a flat [batchSize * seqLen * embedDim] slice.
func (s *onnxSession) infer(b encoded) ([]float32, error) {
	shape := ort.NewShape(b.batchSize, b.seqLen)

	tIDs, err := ort.NewTensor(shape, b.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input_ids tensor: %w", err)
	}
	defer tIDs.Destroy()

	tMask, err := ort.NewTensor(shape, b.attentionMask)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create attention_mask tensor: %w", err)
	}
	defer tMask.Destroy()

	tTypes, err := ort.NewTensor(shape, b.tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create token_type_ids tensor: %w", err)
	}
	defer tTypes.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(b.batchSize, b.seqLen, s.embedDim))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := s.session.Run([]ort.Value{tIDs, tMask, tTypes}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy out before the tensor is destroyed.
	src := tOut.GetData()
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

func (s *onnxSession) close() error {
	return s.session.Destroy()
}
