package loader

import "github.com/Carmen-Shannon/oxy-cad/engine/geometry"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers sets the maximum number of files LoadAll decodes at once.
//
// Parameters:
//   - n: worker count; values below 1 are treated as 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithCache enables or disables the decode cache.
//
// Parameters:
//   - enabled: false to decode on every Load
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithCache(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.useCache = enabled
	}
}

// WithGeometry pre-populates the cache so Load(key) returns pd without touching disk.
//
// Parameters:
//   - key: the cache key (a file path)
//   - pd: the geometry to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the geometry option to a loader
func WithGeometry(key string, pd *geometry.PolyData) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = pd
	}
}
