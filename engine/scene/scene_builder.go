package scene

import (
	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/actor"
	"github.com/Carmen-Shannon/oxy-cad/engine/camera"
	"github.com/Carmen-Shannon/oxy-cad/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier, used in log output.
//
// Parameters:
//   - name: the identifier
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithCamera replaces the default camera.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		if cam != nil {
			s.camera = cam
		}
	}
}

// WithLight replaces the default headlight.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLight(l light.Light) SceneBuilderOption {
	return func(s *scene) {
		if l != nil {
			s.light = l
		}
	}
}

// WithBackground sets the clear colour.
//
// Parameters:
//   - c: the colour
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackground(c common.Color) SceneBuilderOption {
	return func(s *scene) {
		s.background = c
	}
}

// WithActors adds initial actors to the scene. Duplicates and released actors are skipped.
//
// Parameters:
//   - actors: the actors to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActors(actors ...actor.Actor) SceneBuilderOption {
	return func(s *scene) {
		for _, a := range actors {
			if a == nil || a.Released() {
				continue
			}
			if _, ok := s.byID[a.ID()]; ok {
				continue
			}
			s.byID[a.ID()] = len(s.actors)
			s.actors = append(s.actors, a)
		}
	}
}

// WithRenderFunc registers a render callback, see Scene.OnRender.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRenderFunc(fn RenderFunc) SceneBuilderOption {
	return func(s *scene) {
		if fn != nil {
			s.onRender = append(s.onRender, fn)
		}
	}
}
