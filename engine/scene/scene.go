package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/actor"
	"github.com/Carmen-Shannon/oxy-cad/engine/camera"
	"github.com/Carmen-Shannon/oxy-cad/engine/light"
	"github.com/Carmen-Shannon/oxy-cad/engine/skybox"
	"github.com/go-gl/mathgl/mgl64"
)

// Frame is the immutable snapshot a Scene hands to its render callbacks.
type Frame struct {
	Number     uint64
	Actors     []actor.Actor
	View       mgl64.Mat4
	Projection mgl64.Mat4
	Background common.Color
	Texture    *skybox.Image
	Skybox     *skybox.Cubemap
	Light      float64
}

// RenderFunc consumes a Frame, typically by drawing it on a device.
type RenderFunc func(f Frame)

// scene is the implementation of the Scene interface.
type scene struct {
	mu         sync.Mutex
	name       string
	actors     []actor.Actor
	byID       map[uint64]int
	camera     camera.Camera
	light      light.Light
	background common.Color
	texture    *skybox.Image
	skybox     *skybox.Cubemap
	onRender   []RenderFunc
	frames     uint64
}

// Scene is a renderer's actor set together with its camera, light and backdrop.
// The on-screen view and the VR loop each own one. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// AddActor adds an actor to the scene. Adding an actor that is already present or
	// that has been released is a no-op.
	//
	// Parameters:
	//   - a: the actor to add
	//
	// Returns:
	//   - bool: true if the actor was added
	AddActor(a actor.Actor) bool

	// RemoveActor removes an actor by identity.
	//
	// Parameters:
	//   - a: the actor to remove
	//
	// Returns:
	//   - bool: true if the actor was present
	RemoveActor(a actor.Actor) bool

	// RemoveAllActors empties the actor set.
	RemoveAllActors()

	// RemoveReleased drops every actor whose resources were released.
	//
	// Returns:
	//   - int: number of actors removed
	RemoveReleased() int

	// Actors returns the actors in insertion order. The slice is a copy.
	//
	// Returns:
	//   - []actor.Actor: the actors
	Actors() []actor.Actor

	// HasActor reports whether the actor is in the scene.
	//
	// Parameters:
	//   - a: the actor to look up
	//
	// Returns:
	//   - bool: true if present
	HasActor(a actor.Actor) bool

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Light returns the scene's light.
	Light() light.Light

	// ResetCamera frames the camera around the union of the bounds of all visible actors.
	// Does nothing when no visible actor has geometry.
	ResetCamera()

	// Background returns the clear colour.
	Background() common.Color

	// SetBackground sets the clear colour.
	//
	// Parameters:
	//   - c: the colour
	SetBackground(c common.Color)

	// SetBackgroundTexture sets a flat background image, or clears it with nil.
	//
	// Parameters:
	//   - img: the decoded image
	SetBackgroundTexture(img *skybox.Image)

	// SetSkybox sets the environment cube map, or clears it with nil.
	//
	// Parameters:
	//   - cm: the decoded cube map
	SetSkybox(cm *skybox.Cubemap)

	// OnRender registers a callback invoked with every rendered Frame.
	//
	// Parameters:
	//   - fn: the callback
	OnRender(fn RenderFunc)

	// Render snapshots the visible actors and camera into a Frame, passes it to every
	// render callback and returns it. Callbacks run without the scene lock held.
	//
	// Returns:
	//   - Frame: the rendered frame
	Render() Frame

	// Frames returns the number of frames rendered so far.
	Frames() uint64
}

var _ Scene = &scene{}

// NewScene creates an empty scene with a default camera, a headlight at half intensity
// and a black background, then applies options.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		byID:   make(map[uint64]int),
		camera: camera.NewCamera(),
		light:  light.NewLight(light.LightTypeHeadlight, light.WithIntensity(0.5)),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) AddActor(a actor.Actor) bool {
	if a == nil || a.Released() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID()]; ok {
		return false
	}
	s.byID[a.ID()] = len(s.actors)
	s.actors = append(s.actors, a)
	return true
}

func (s *scene) RemoveActor(a actor.Actor) bool {
	if a == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[a.ID()]
	if !ok {
		return false
	}
	s.actors = slices.Delete(s.actors, i, i+1)
	s.reindex()
	return true
}

func (s *scene) RemoveAllActors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors = nil
	clear(s.byID)
}

func (s *scene) RemoveReleased() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.actors)
	s.actors = slices.DeleteFunc(s.actors, func(a actor.Actor) bool { return a.Released() })
	removed := before - len(s.actors)
	if removed > 0 {
		s.reindex()
	}
	return removed
}

// reindex rebuilds byID. Caller holds mu.
func (s *scene) reindex() {
	clear(s.byID)
	for i, a := range s.actors {
		s.byID[a.ID()] = i
	}
}

func (s *scene) Actors() []actor.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.actors)
}

func (s *scene) HasActor(a actor.Actor) bool {
	if a == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[a.ID()]
	return ok
}

func (s *scene) Camera() camera.Camera {
	return s.camera
}

func (s *scene) Light() light.Light {
	return s.light
}

func (s *scene) ResetCamera() {
	var lo, hi mgl64.Vec3
	found := false
	for _, a := range s.Actors() {
		if !a.Visible() {
			continue
		}
		alo, ahi, ok := a.Bounds()
		if !ok {
			continue
		}
		if !found {
			lo, hi, found = alo, ahi, true
			continue
		}
		for k := range 3 {
			lo[k] = min(lo[k], alo[k])
			hi[k] = max(hi[k], ahi[k])
		}
	}
	if !found {
		return
	}
	s.camera.Reset(lo, hi)
}

func (s *scene) Background() common.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background
}

func (s *scene) SetBackground(c common.Color) {
	s.mu.Lock()
	s.background = c
	s.mu.Unlock()
}

func (s *scene) SetBackgroundTexture(img *skybox.Image) {
	s.mu.Lock()
	s.texture = img
	s.mu.Unlock()
}

func (s *scene) SetSkybox(cm *skybox.Cubemap) {
	s.mu.Lock()
	s.skybox = cm
	s.mu.Unlock()
}

func (s *scene) OnRender(fn RenderFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onRender = append(s.onRender, fn)
	s.mu.Unlock()
}

func (s *scene) Render() Frame {
	s.mu.Lock()
	s.frames++
	f := Frame{
		Number:     s.frames,
		Background: s.background,
		Texture:    s.texture,
		Skybox:     s.skybox,
		Actors:     make([]actor.Actor, 0, len(s.actors)),
	}
	for _, a := range s.actors {
		if a.Visible() && !a.Released() {
			f.Actors = append(f.Actors, a)
		}
	}
	callbacks := slices.Clone(s.onRender)
	s.mu.Unlock()

	f.View = s.camera.ViewMatrix()
	f.Projection = s.camera.ProjectionMatrix()
	if s.light.Enabled() {
		f.Light = s.light.Intensity()
	}
	for _, fn := range callbacks {
		fn(f)
	}
	return f
}

func (s *scene) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
