package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-cad/engine/config"
	"github.com/Carmen-Shannon/oxy-cad/engine/loader"
	"github.com/Carmen-Shannon/oxy-cad/engine/scene"
	"github.com/Carmen-Shannon/oxy-cad/engine/vr"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig sets the configuration the engine builds its collaborators from.
//
// Parameters:
//   - cfg: the viewer configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithLoader replaces the mesh loader built from the configuration.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithScene replaces the on-screen scene built from the configuration.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in ticks per second, overriding the configured rate.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithTickCallback sets a function called after every engine tick.
//
// Parameters:
//   - fn: receives the seconds elapsed since the previous tick
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickCallback(fn func(deltaTime float64)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = fn
	}
}

// WithWatch overrides whether loaded files are watched and reloaded on change.
//
// Parameters:
//   - enabled: false disables auto-reload regardless of the configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWatch(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.watchOff = !enabled
	}
}

// WithVROptions appends options applied to every VR thread the engine starts,
// after the ones derived from the configuration.
//
// Parameters:
//   - options: VR thread options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithVROptions(options ...vr.ThreadBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.vrOptions = append(e.vrOptions, options...)
	}
}
