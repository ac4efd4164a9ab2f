package window

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	window  *glfw.Window
	running bool
}

// newPlatformWindow initializes GLFW and opens the mirror window. The caller's goroutine
// must already be locked to its OS thread.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(m *mirror) (*glfwWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(m.width, m.height, m.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}

	gw := &glfwWindow{window: win, running: true}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if int(key) == common.KeyEsc {
			gw.running = false
			win.SetShouldClose(true)
			return
		}
		m.handleKey(int(key))
	})

	// On high-DPI displays the framebuffer size differs from the window size and the
	// surface needs pixel dimensions.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		m.onResize(width, height)
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	m.mu.Lock()
	m.width, m.height = fbWidth, fbHeight
	m.mu.Unlock()

	return gw, nil
}

// surfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor through the
// wgpuglfw bridge (Windows, X11, Wayland, macOS).
func (gw *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

// processMessages polls GLFW for pending events without blocking.
//
// Returns:
//   - bool: true while the window is open
func (gw *glfwWindow) processMessages() bool {
	glfw.PollEvents()
	return gw.running && !gw.window.ShouldClose()
}

func (gw *glfwWindow) setTitle(title string) {
	gw.window.SetTitle(title)
}

// close destroys the window and terminates the GLFW library.
func (gw *glfwWindow) close() error {
	if gw.window == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	gw.window = nil
	glfw.Terminate()
	return nil
}
