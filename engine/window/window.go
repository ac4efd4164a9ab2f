// Package window provides the desktop mirror of the VR view: a GLFW window whose WebGPU
// surface is cleared to the VR background each frame, usable as a vr.Device when no
// headset runtime is present.
package window

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/scene"
	"github.com/Carmen-Shannon/oxy-cad/engine/vr"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNotInitialized is returned by Present before Initialize.
var ErrNotInitialized = errors.New("mirror window is not initialized")

// mirror is the implementation of the Mirror interface.
type mirror struct {
	mu          sync.Mutex
	title       string
	width       int
	height      int
	vsync       bool
	forceFallbk bool

	platform *glfwWindow
	gpu      *gpuSurface
	resized  bool
	frames   uint64
	actors   int
	onKey    KeyFunc
}

// KeyFunc receives key presses from the mirror window as common key codes. It runs on
// the VR loop goroutine.
type KeyFunc func(key int)

// Mirror is a desktop window presenting the VR loop's frames. All Device methods must
// be called from the VR loop goroutine, which is locked to its OS thread.
type Mirror interface {
	vr.Device

	// Size returns the framebuffer size in pixels.
	//
	// Returns:
	//   - int: width
	//   - int: height
	Size() (int, int)

	// Frames returns the number of frames presented.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64
}

var _ Mirror = &mirror{}

// NewMirror creates a mirror window description. Nothing is opened until Initialize.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Mirror: the new mirror
func NewMirror(options ...WindowBuilderOption) Mirror {
	m := &mirror{
		title:  "oxyview VR mirror",
		width:  1280,
		height: 720,
		vsync:  true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *mirror) Initialize(s scene.Scene) error {
	pw, err := newPlatformWindow(m)
	if err != nil {
		return err
	}
	gs, err := newGPUSurface(pw.surfaceDescriptor(), m.forceFallbk, m.vsync)
	if err != nil {
		pw.close()
		return err
	}

	m.mu.Lock()
	m.platform = pw
	m.gpu = gs
	m.resized = false
	m.frames = 0
	width, height := m.width, m.height
	m.mu.Unlock()

	gs.configure(width, height)
	s.Camera().SetAspect(float64(width) / float64(max(height, 1)))
	common.Logger().Info("vr mirror opened", "width", width, "height", height)
	return nil
}

func (m *mirror) ProcessEvent() bool {
	m.mu.Lock()
	pw := m.platform
	m.mu.Unlock()
	if pw == nil {
		return true
	}
	return !pw.processMessages()
}

func (m *mirror) Present(f scene.Frame) error {
	m.mu.Lock()
	gs, pw := m.gpu, m.platform
	resized := m.resized
	m.resized = false
	width, height := m.width, m.height
	m.mu.Unlock()
	if gs == nil || pw == nil {
		return ErrNotInitialized
	}

	if resized && width > 0 && height > 0 {
		gs.configure(width, height)
	}
	if err := gs.clear(clearColor(f)); err != nil {
		return fmt.Errorf("failed to present mirror frame %d: %w", f.Number, err)
	}

	m.mu.Lock()
	m.frames++
	changed := m.actors != len(f.Actors)
	m.actors = len(f.Actors)
	m.mu.Unlock()
	if changed {
		pw.setTitle(fmt.Sprintf("%s (%d parts)", m.title, len(f.Actors)))
	}
	return nil
}

func (m *mirror) Close() error {
	m.mu.Lock()
	gs, pw := m.gpu, m.platform
	m.gpu, m.platform = nil, nil
	m.mu.Unlock()

	if gs != nil {
		gs.release()
	}
	if pw == nil {
		return nil
	}
	common.Logger().Info("vr mirror closed")
	return pw.close()
}

func (m *mirror) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *mirror) Frames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// handleKey forwards a key press to the configured handler.
func (m *mirror) handleKey(key int) {
	m.mu.Lock()
	fn := m.onKey
	m.mu.Unlock()
	if fn != nil {
		fn(key)
	}
}

// onResize records a new framebuffer size; the surface is reconfigured on the next Present.
func (m *mirror) onResize(width, height int) {
	m.mu.Lock()
	m.width, m.height = width, height
	m.resized = true
	m.mu.Unlock()
}

// clearColor is the frame background dimmed by the light intensity, never fully black
// so an unlit scene still shows the backdrop.
func clearColor(f scene.Frame) wgpu.Color {
	c := f.Background.Float()
	k := 0.5 + 0.5*f.Light
	return wgpu.Color{R: c[0] * k, G: c[1] * k, B: c[2] * k, A: 1}
}
