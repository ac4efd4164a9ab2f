package window

// WindowBuilderOption is a functional option for configuring a Mirror.
// Use the With* functions to create options.
type WindowBuilderOption func(m *mirror)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(m *mirror) {
		m.title = title
	}
}

// WithSize sets the requested window size. The framebuffer may end up larger on
// high-DPI displays.
//
// Parameters:
//   - width, height: size in screen coordinates, ignored unless both are positive
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(m *mirror) {
		if width > 0 && height > 0 {
			m.width, m.height = width, height
		}
	}
}

// WithVSync selects FIFO presentation when enabled (default) and immediate otherwise.
//
// Parameters:
//   - enabled: whether presentation waits for vertical blank
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithVSync(enabled bool) WindowBuilderOption {
	return func(m *mirror) {
		m.vsync = enabled
	}
}

// WithFallbackAdapter forces the software adapter, useful on machines without a GPU.
//
// Parameters:
//   - force: whether to force the fallback adapter
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithFallbackAdapter(force bool) WindowBuilderOption {
	return func(m *mirror) {
		m.forceFallbk = force
	}
}

// WithKeyHandler sets the function receiving key presses other than Escape, which always
// closes the window.
//
// Parameters:
//   - fn: the key handler
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithKeyHandler(fn KeyFunc) WindowBuilderOption {
	return func(m *mirror) {
		m.onKey = fn
	}
}
