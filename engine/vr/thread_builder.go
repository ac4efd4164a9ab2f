package vr

import (
	"time"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/scene"
)

// ThreadBuilderOption is a functional option for configuring a Thread.
// Use the With* functions to create options.
type ThreadBuilderOption func(t *thread)

// WithFrameInterval sets the minimum time between animation ticks.
// Defaults to DefaultFrameInterval.
//
// Parameters:
//   - d: the interval, ignored when not positive
//
// Returns:
//   - ThreadBuilderOption: option function to apply
func WithFrameInterval(d time.Duration) ThreadBuilderOption {
	return func(t *thread) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithPlacementRotation sets the X rotation applied once to every registered actor.
// Defaults to DefaultPlacementRotation.
//
// Parameters:
//   - deg: the rotation in degrees
//
// Returns:
//   - ThreadBuilderOption: option function to apply
func WithPlacementRotation(deg float64) ThreadBuilderOption {
	return func(t *thread) {
		t.placement = deg
	}
}

// WithBackground sets the VR clear colour. Defaults to DefaultBackground.
//
// Parameters:
//   - c: the colour
//
// Returns:
//   - ThreadBuilderOption: option function to apply
func WithBackground(c common.Color) ThreadBuilderOption {
	return func(t *thread) {
		t.background = &c
	}
}

// WithScene replaces the scene the loop renders.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - ThreadBuilderOption: option function to apply
func WithScene(s scene.Scene) ThreadBuilderOption {
	return func(t *thread) {
		t.scene = s
	}
}

// WithProfiler enables frame and memory statistics for the loop, logged every interval.
//
// Parameters:
//   - interval: the statistics window, zero disables profiling
//
// Returns:
//   - ThreadBuilderOption: option function to apply
func WithProfiler(interval time.Duration) ThreadBuilderOption {
	return func(t *thread) {
		t.profileInterval = interval
	}
}
