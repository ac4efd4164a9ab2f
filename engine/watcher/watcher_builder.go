package watcher

import "time"

// WatcherBuilderOption is a functional option for configuring a Watcher.
// Use the With* functions to create options.
type WatcherBuilderOption func(w *fileWatcher)

// WithDebounce sets the quiet period before a change is reported.
// Defaults to DefaultDebounce.
//
// Parameters:
//   - d: the quiet period, ignored when negative
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *fileWatcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}
