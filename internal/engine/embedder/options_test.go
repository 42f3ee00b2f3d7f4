package embedder

import "testing"

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want options
	}{
		{"defaults", nil, options{runtimeLibrary: "libonnxruntime.so", intraOpThreads: 4, maxSeqLen: 256}},
		{"overrides", []Option{WithRuntimeLibrary("/opt/ort.so"), WithIntraOpThreads(2), WithMaxSeqLen(128)},
			options{runtimeLibrary: "/opt/ort.so", intraOpThreads: 2, maxSeqLen: 128}},
		// [CLS] + [SEP] need two slots; shorter limits keep the default.
		{"too short seq len", []Option{WithMaxSeqLen(2)}, options{runtimeLibrary: "libonnxruntime.so", intraOpThreads: 4, maxSeqLen: 256}},
		{"zero threads", []Option{WithIntraOpThreads(0)}, options{runtimeLibrary: "libonnxruntime.so", intraOpThreads: 4, maxSeqLen: 256}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			for _, opt := range tt.opts {
				opt(&o)
			}
			if o != tt.want {
				t.Fatalf("got %+v, want %+v", o, tt.want)
			}
		})
	}
}
