package embedder

type options struct {
	runtimeLibrary string
	intraOpThreads int
	maxSeqLen      int
}

// Option configures an ONNXEmbedder.
type Option func(*options)

// WithRuntimeLibrary sets the path of the ONNX Runtime shared library
// (libonnxruntime.so / .dylib). Only the first embedder created in a process
// decides the library; later values are ignored.
func WithRuntimeLibrary(path string) Option {
	return func(o *options) { o.runtimeLibrary = path }
}

// WithIntraOpThreads sets the number of threads ONNX Runtime uses inside a
// single operator. Default: 4.
func WithIntraOpThreads(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.intraOpThreads = n
		}
	}
}

// WithMaxSeqLen caps tokenized sequence length including [CLS] and [SEP].
// Default: 256, the limit all-MiniLM-L6-v2 was trained with.
func WithMaxSeqLen(n int) Option {
	return func(o *options) {
		if n > 2 {
			o.maxSeqLen = n
		}
	}
}

func defaultOptions() options {
	return options{
		runtimeLibrary: "libonnxruntime.so",
		intraOpThreads: 4,
		maxSeqLen:      256,
	}
}
