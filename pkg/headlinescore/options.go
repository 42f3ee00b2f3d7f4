package headlinescore

import (
	"time"

	"github.com/crimson-sun/headlinescore/internal/config"
)

type options struct {
	modelDir        string
	modelName       string
	cacheDir        string
	hubURL          string
	hubToken        string
	downloadTimeout time.Duration
	runtimeLibrary  string
	classifierPath  string
	intraOpThreads  int
	maxSeqLen       int
	maxBatch        int
}

// Option configures a Scorer.
type Option func(*options)

// WithModelDir sets the local all-MiniLM-L6-v2 directory. It must hold
// vocab.txt and onnx/model.onnx (or model.onnx). When it does not, the
// pretrained model is taken from the cache or downloaded.
func WithModelDir(dir string) Option {
	return func(o *options) { o.modelDir = dir }
}

// WithPretrained sets the hub repository fetched when no local model exists,
// and the directory it is cached in.
func WithPretrained(name, cacheDir string) Option {
	return func(o *options) {
		o.modelName = name
		o.cacheDir = cacheDir
	}
}

// WithHub sets the model hub base URL and an optional access token.
func WithHub(baseURL, token string) Option {
	return func(o *options) {
		o.hubURL = baseURL
		o.hubToken = token
	}
}

// WithRuntimeLibrary sets the path of the ONNX Runtime shared library.
func WithRuntimeLibrary(path string) Option {
	return func(o *options) { o.runtimeLibrary = path }
}

// WithClassifierPath sets the classifier artifact path.
func WithClassifierPath(path string) Option {
	return func(o *options) { o.classifierPath = path }
}

// WithIntraOpThreads sets ONNX Runtime intra-op parallelism.
func WithIntraOpThreads(n int) Option {
	return func(o *options) { o.intraOpThreads = n }
}

// WithMaxBatch sets the largest batch Score accepts. Default: 512.
func WithMaxBatch(n int) Option {
	return func(o *options) { o.maxBatch = n }
}

func defaultOptions() options {
	m := config.Defaults().Model
	return options{
		modelDir:        m.LocalDir,
		modelName:       m.Name,
		cacheDir:        m.CacheDir,
		hubURL:          m.HubURL,
		downloadTimeout: m.DownloadTimeout.Std(),
		runtimeLibrary:  m.RuntimeLibrary,
		classifierPath:  m.ClassifierPath,
		intraOpThreads:  m.IntraOpThreads,
		maxSeqLen:       m.MaxSeqLen,
	}
}
