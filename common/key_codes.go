package common

// Virtual key codes delivered by the mirror window.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyX     = 88  // X key (ASCII)
	KeyY     = 89  // Y key (ASCII)
	KeyZ     = 90  // Z key (ASCII)
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
)
