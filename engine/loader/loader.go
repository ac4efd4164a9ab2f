package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
)

var (
	// ErrEmptyGeometry is returned when a file decodes to zero points or zero faces.
	ErrEmptyGeometry = errors.New("geometry has no points or no faces")

	// ErrUnsupportedFormat is returned for file extensions no backend handles.
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
)

// Result is the outcome of decoding one file in LoadAll.
type Result struct {
	Path string
	Data *geometry.PolyData
	Err  error
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache    map[string]*geometry.PolyData
	useCache bool
	backends map[string]loaderBackend
	workers  int
}

// Loader decodes mesh files into PolyData. The format is chosen by file extension and
// decoded results are cached by path until Invalidate is called.
type Loader interface {
	// Load decodes the file at path, or returns the cached result of an earlier Load.
	// A file that decodes to zero points or zero faces fails with ErrEmptyGeometry and is
	// not cached.
	//
	// Parameters:
	//   - path: the file path to decode
	//
	// Returns:
	//   - *geometry.PolyData: the decoded mesh; callers must not assume exclusive ownership
	//   - error: ErrUnsupportedFormat, ErrEmptyGeometry, or a wrapped decode error
	Load(path string) (*geometry.PolyData, error)

	// LoadReader decodes a stream using the backend registered for ext. Results are not cached.
	//
	// Parameters:
	//   - ext: file extension including the dot, e.g. ".stl"
	//   - r: the reader providing file data
	//
	// Returns:
	//   - *geometry.PolyData: the decoded mesh
	//   - error: ErrUnsupportedFormat, ErrEmptyGeometry, or a wrapped decode error
	LoadReader(ext string, r io.Reader) (*geometry.PolyData, error)

	// LoadAll decodes paths concurrently on a worker pool and returns one Result per
	// path in input order. The optional progress callback runs once per finished file.
	//
	// Parameters:
	//   - paths: the files to decode
	//   - progress: called after each file completes; may be nil
	//
	// Returns:
	//   - []Result: per-path results in input order
	LoadAll(paths []string, progress func(Result)) []Result

	// Supported reports whether a backend handles the extension of path.
	//
	// Parameters:
	//   - path: a file path
	//
	// Returns:
	//   - bool: true if Load can decode it
	Supported(path string) bool

	// Extensions returns the sorted list of supported extensions.
	//
	// Returns:
	//   - []string: extensions including the dot
	Extensions() []string

	// Invalidate drops the cached result for path so the next Load re-reads the file.
	//
	// Parameters:
	//   - path: the file path to forget
	Invalidate(path string)
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the STL and glTF backends registered.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	stlBackend := newSTLLoaderBackend()
	gltfBackend := newGLTFLoaderBackend()
	l := &loader{
		cache:    make(map[string]*geometry.PolyData),
		useCache: true,
		workers:  4,
		backends: map[string]loaderBackend{
			".stl":  stlBackend,
			".gltf": gltfBackend,
			".glb":  gltfBackend,
		},
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*geometry.PolyData, error) {
	if l.useCache {
		l.mu.RLock()
		cached, ok := l.cache[path]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	pd, err := backend.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if pd.Empty() {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyGeometry)
	}

	if l.useCache {
		l.mu.Lock()
		l.cache[path] = pd
		l.mu.Unlock()
	}
	common.Logger().Debug("mesh decoded", "path", path, "points", pd.NumPoints(), "faces", pd.NumFaces())
	return pd, nil
}

func (l *loader) LoadReader(ext string, r io.Reader) (*geometry.PolyData, error) {
	backend, ok := l.backends[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}
	pd, err := backend.DecodeReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader: %w", err)
	}
	if pd.Empty() {
		return nil, ErrEmptyGeometry
	}
	return pd, nil
}

func (l *loader) LoadAll(paths []string, progress func(Result)) []Result {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}

	pool := worker.NewDynamicWorkerPool(min(l.workers, len(paths)), 256, 1*time.Second)

	// The pool's own Wait blocks until workers idle-exit, so a WaitGroup is the barrier.
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	for i, path := range paths {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				pd, err := l.Load(path)
				results[i] = Result{Path: path, Data: pd, Err: err}
				if progress != nil {
					progressMu.Lock()
					progress(results[i])
					progressMu.Unlock()
				}
				return pd, err
			},
		})
	}
	wg.Wait()
	return results
}

func (l *loader) Supported(path string) bool {
	_, err := l.resolveBackend(path)
	return err == nil
}

func (l *loader) Extensions() []string {
	exts := make([]string, 0, len(l.backends))
	for ext := range l.backends {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (l *loader) Invalidate(path string) {
	l.mu.Lock()
	delete(l.cache, path)
	l.mu.Unlock()
}

// resolveBackend selects a loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	backend, ok := l.backends[ext]
	if !ok {
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
	return backend, nil
}
