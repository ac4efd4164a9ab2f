// Package watcher reports changes to loaded geometry files so they can be reloaded.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by Add after Close.
var ErrClosed = errors.New("watcher closed")

// DefaultDebounce is how long a file must stay quiet before its change is reported.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called with the cleaned absolute path of a changed file. It runs on a
// timer goroutine.
type ChangeFunc func(path string)

// fileWatcher is the implementation of the Watcher interface.
type fileWatcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeFunc
	files    map[string]struct{}
	dirs     map[string]int
	timers   map[string]*time.Timer
	closed   bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// Watcher watches individual files. The parent directory of every file is watched so
// that editors that save by replacing the file are still noticed. Bursts of events for
// one file are collapsed into a single ChangeFunc call.
type Watcher interface {
	// Add starts watching a file.
	//
	// Parameters:
	//   - path: the file
	//
	// Returns:
	//   - error: error if the directory cannot be watched or the watcher is closed
	Add(path string) error

	// Remove stops watching a file. Unknown paths are ignored.
	//
	// Parameters:
	//   - path: the file
	Remove(path string)

	// Watched returns the watched files, sorted.
	//
	// Returns:
	//   - []string: absolute paths
	Watched() []string

	// Close stops the watcher and cancels pending notifications.
	//
	// Returns:
	//   - error: error from the underlying watcher
	Close() error
}

var _ Watcher = &fileWatcher{}

// NewWatcher creates a watcher that calls onChange for modified files.
//
// Parameters:
//   - onChange: the change callback
//   - options: functional options to configure the watcher
//
// Returns:
//   - Watcher: the new watcher
//   - error: error if the platform watcher cannot be created
func NewWatcher(onChange ChangeFunc, options ...WatcherBuilderOption) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &fileWatcher{
		fsw:      fsw,
		debounce: DefaultDebounce,
		onChange: onChange,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func normalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func (w *fileWatcher) Add(path string) error {
	abs, err := normalize(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, ok := w.files[abs]; ok {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = struct{}{}
	common.Logger().Debug("watching file", "path", abs)
	return nil
}

func (w *fileWatcher) Remove(path string) {
	abs, err := normalize(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; !ok || w.closed {
		return
	}
	delete(w.files, abs)
	if t, ok := w.timers[abs]; ok {
		t.Stop()
		delete(w.timers, abs)
	}
	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if err := w.fsw.Remove(dir); err != nil {
			common.Logger().Debug("failed to unwatch directory", "dir", dir, "err", err)
		}
	}
}

func (w *fileWatcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

func (w *fileWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *fileWatcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("file watcher error", "err", err)
		}
	}
}

func (w *fileWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if _, ok := w.files[path]; !ok {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.fire(path) })
}

func (w *fileWatcher) fire(path string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.timers, path)
	_, watched := w.files[path]
	w.mu.Unlock()

	if !watched || w.onChange == nil {
		return
	}
	common.Logger().Info("file changed", "path", path)
	w.onChange(path)
}
