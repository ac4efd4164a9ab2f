package vr

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-cad/engine/scene"
)

// Device is the display a VR loop renders into: a head-mounted display runtime, a
// desktop mirror window, or a headless sink. All methods are called from the loop goroutine.
type Device interface {
	// Initialize opens the device for the given scene. A failed Initialize means the
	// thread never reaches StateRunning.
	//
	// Parameters:
	//   - s: the scene the loop renders
	//
	// Returns:
	//   - error: error if the device is unavailable
	Initialize(s scene.Scene) error

	// ProcessEvent handles at most one pending device or input event and may block briefly.
	//
	// Returns:
	//   - bool: true when the device reports that the session is done
	ProcessEvent() bool

	// Present draws a rendered frame.
	//
	// Parameters:
	//   - f: the frame
	//
	// Returns:
	//   - error: error if the frame could not be presented
	Present(f scene.Frame) error

	// Close releases device resources. Called once after a successful Initialize.
	//
	// Returns:
	//   - error: error if releasing failed
	Close() error
}

// HeadlessDevice is a Device without a display. It records presented frames and reports
// done once Finish is called. Used for tests and for running the VR loop without hardware.
type HeadlessDevice struct {
	poll    time.Duration
	initErr error
	done    atomic.Bool

	mu          sync.Mutex
	initialized bool
	closed      bool
	presented   int
	first       *scene.Frame
	last        *scene.Frame
}

var _ Device = &HeadlessDevice{}

// HeadlessOption configures a HeadlessDevice.
type HeadlessOption func(d *HeadlessDevice)

// WithPollInterval sets how long ProcessEvent blocks. Defaults to 1ms.
//
// Parameters:
//   - d: the poll interval
//
// Returns:
//   - HeadlessOption: option function to apply
func WithPollInterval(d time.Duration) HeadlessOption {
	return func(h *HeadlessDevice) {
		h.poll = d
	}
}

// WithInitError makes Initialize fail with err, simulating a missing runtime.
//
// Parameters:
//   - err: the error to return
//
// Returns:
//   - HeadlessOption: option function to apply
func WithInitError(err error) HeadlessOption {
	return func(h *HeadlessDevice) {
		h.initErr = err
	}
}

// NewHeadlessDevice creates a headless device.
//
// Parameters:
//   - options: functional options to configure the device
//
// Returns:
//   - *HeadlessDevice: the new device
func NewHeadlessDevice(options ...HeadlessOption) *HeadlessDevice {
	d := &HeadlessDevice{poll: time.Millisecond}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *HeadlessDevice) Initialize(scene.Scene) error {
	if d.initErr != nil {
		return d.initErr
	}
	d.done.Store(false)
	d.mu.Lock()
	d.initialized = true
	d.closed = false
	d.mu.Unlock()
	return nil
}

func (d *HeadlessDevice) ProcessEvent() bool {
	if d.poll > 0 {
		time.Sleep(d.poll)
	}
	return d.done.Load()
}

func (d *HeadlessDevice) Present(f scene.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presented++
	if d.first == nil {
		d.first = &f
	}
	d.last = &f
	return nil
}

func (d *HeadlessDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Finish makes the next ProcessEvent report done, like a user closing the headset session.
func (d *HeadlessDevice) Finish() {
	d.done.Store(true)
}

// Presented returns the number of frames presented.
func (d *HeadlessDevice) Presented() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presented
}

// FirstFrame returns the first presented frame.
func (d *HeadlessDevice) FirstFrame() (scene.Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.first == nil {
		return scene.Frame{}, false
	}
	return *d.first, true
}

// LastFrame returns the most recently presented frame.
func (d *HeadlessDevice) LastFrame() (scene.Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return scene.Frame{}, false
	}
	return *d.last, true
}

// Closed reports whether Close was called after the last Initialize.
func (d *HeadlessDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized && d.closed
}
