package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// ModelFiles are the on-disk pieces of a sentence-transformers model the
// embedder needs.
type ModelFiles struct {
	Dir   string
	ONNX  string
	Vocab string
}

// Downloader fetches one file of a pretrained model repository.
type Downloader interface {
	Download(ctx context.Context, repo, file, dest string) error
}

// pretrainedFiles are fetched, in order, when no local copy exists.
var pretrainedFiles = []string{"vocab.txt", "onnx/model.onnx"}

// ModelResolver locates the embedding model: the local directory if it holds
// a usable model, else the cached copy of the named pretrained model, else a
// fresh download into the cache. Resolution runs at most once; every call
// returns the first result.
type ModelResolver struct {
	LocalDir string
	Name     string // repository id, e.g. sentence-transformers/all-MiniLM-L6-v2
	CacheDir string
	Hub      Downloader

	once  sync.Once
	files ModelFiles
	err   error
}

// Resolve returns the model files, fetching them on first use if needed.
func (r *ModelResolver) Resolve(ctx context.Context) (ModelFiles, error) {
	r.once.Do(func() {
		r.files, r.err = r.resolve(ctx)
	})
	return r.files, r.err
}

type resolverKey struct {
	localDir, name, cacheDir string
}

// resolvers holds one ModelResolver per model location for the life of the
// process, so repeated loads never fetch the same model twice.
var resolvers struct {
	mu sync.Mutex
	m  map[resolverKey]*ModelResolver
}

// sharedResolver returns the process-wide resolver for the given location,
// creating it with hub on first use. Later callers get the existing resolver
// and its memoized result; their hub is ignored.
func sharedResolver(localDir, name, cacheDir string, hub Downloader) *ModelResolver {
	key := resolverKey{localDir: localDir, name: name, cacheDir: cacheDir}

	resolvers.mu.Lock()
	defer resolvers.mu.Unlock()
	if r, ok := resolvers.m[key]; ok {
		return r
	}
	if resolvers.m == nil {
		resolvers.m = make(map[resolverKey]*ModelResolver)
	}
	r := &ModelResolver{LocalDir: localDir, Name: name, CacheDir: cacheDir, Hub: hub}
	resolvers.m[key] = r
	return r
}

func (r *ModelResolver) resolve(ctx context.Context) (ModelFiles, error) {
	if r.LocalDir != "" {
		if files, ok := findModelFiles(r.LocalDir); ok {
			slog.Info("using local embedding model", "dir", r.LocalDir)
			return files, nil
		}
	}
	if r.Name == "" {
		return ModelFiles{}, fmt.Errorf("resolve model: no usable model in %q and no pretrained model name", r.LocalDir)
	}

	cacheDir := filepath.Join(r.CacheDir, path.Base(r.Name))
	if files, ok := findModelFiles(cacheDir); ok {
		slog.Info("local model path not found, using cached pretrained model", "local_dir", r.LocalDir, "dir", cacheDir)
		return files, nil
	}
	if r.Hub == nil {
		return ModelFiles{}, fmt.Errorf("resolve model: %s not cached in %s and no downloader configured", r.Name, cacheDir)
	}

	slog.Info("local model path not found, fetching pretrained model", "local_dir", r.LocalDir, "model", r.Name, "dir", cacheDir)
	for _, f := range pretrainedFiles {
		if err := r.Hub.Download(ctx, r.Name, f, filepath.Join(cacheDir, filepath.FromSlash(f))); err != nil {
			return ModelFiles{}, fmt.Errorf("resolve model: fetch %s: %w", r.Name, err)
		}
	}
	files, ok := findModelFiles(cacheDir)
	if !ok {
		return ModelFiles{}, fmt.Errorf("resolve model: %s incomplete after download", cacheDir)
	}
	return files, nil
}

// findModelFiles reports whether dir holds vocab.txt and an ONNX export,
// either at onnx/model.onnx (hub layout) or model.onnx.
func findModelFiles(dir string) (ModelFiles, bool) {
	vocab := filepath.Join(dir, "vocab.txt")
	if !isFile(vocab) {
		return ModelFiles{}, false
	}
	for _, name := range []string{filepath.Join("onnx", "model.onnx"), "model.onnx"} {
		p := filepath.Join(dir, name)
		if isFile(p) {
			return ModelFiles{Dir: dir, ONNX: p, Vocab: vocab}, true
		}
	}
	return ModelFiles{}, false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Debug("stat failed", "path", p, "error", err)
		}
		return false
	}
	return info.Mode().IsRegular()
}
