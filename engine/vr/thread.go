// Package vr runs the VR render loop on its own goroutine, locked to an OS thread, and
// exchanges actors and commands with the main thread under a single mutex.
package vr

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/actor"
	"github.com/Carmen-Shannon/oxy-cad/engine/profiler"
	"github.com/Carmen-Shannon/oxy-cad/engine/scene"
)

var (
	// ErrAlreadyRunning is returned by Start while a loop is active.
	ErrAlreadyRunning = errors.New("vr thread already running")

	// ErrNotIdle is returned by AddActorOffline once the loop has been started.
	ErrNotIdle = errors.New("vr thread is not idle")

	// ErrNoDevice is returned by Start when the thread has no device.
	ErrNoDevice = errors.New("vr thread has no device")

	// ErrNilActor is returned when a nil actor is registered.
	ErrNilActor = errors.New("nil actor")

	// ErrLoopPanic wraps a panic recovered from the loop.
	ErrLoopPanic = errors.New("vr loop panicked")
)

const (
	// DefaultFrameInterval is the minimum time between two animation ticks.
	DefaultFrameInterval = 20 * time.Millisecond

	// eventPollSlice bounds how long the loop sleeps between device polls while waiting
	// for the next tick, so input stays responsive without spinning.
	eventPollSlice = time.Millisecond

	// DefaultPlacementRotation is the X rotation in degrees that stands a Z-up model upright.
	DefaultPlacementRotation = -90.0
)

// DefaultBackground is the VR clear colour.
var DefaultBackground = common.Color{R: 26, G: 51, B: 102}

// thread is the implementation of the Thread interface.
type thread struct {
	mu        sync.Mutex
	state     State
	active    bool
	registry  []actor.Actor
	pending   []actor.Actor
	placed    map[uint64]struct{}
	rotation  [3]float64
	endRender bool
	done      chan struct{}
	err       error

	device          Device
	scene           scene.Scene
	background      *common.Color
	interval        time.Duration
	placement       float64
	profileInterval time.Duration
}

// Thread is an independent VR rendering context. Actors registered before Start form
// the offline registry, actors queued afterwards are added by the loop on its next tick.
// Commands are coalesced in a mailbox that keeps only the latest value per kind.
// All methods are safe for concurrent use.
type Thread interface {
	// State returns the lifecycle state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Active reports whether the loop goroutine is running, from Start until the loop
	// has exited. The state may still read Idle right after Start.
	Active() bool

	// Scene returns the scene the loop renders.
	//
	// Returns:
	//   - scene.Scene: the VR scene
	Scene() scene.Scene

	// AddActorOffline registers an actor before the loop starts. The placement correction
	// (rotate about X, then move by minus the origin) is applied once per actor.
	//
	// Parameters:
	//   - a: a fully constructed actor
	//
	// Returns:
	//   - error: ErrNotIdle once started, ErrNilActor for nil
	AddActorOffline(a actor.Actor) error

	// QueueActor places an actor in the pending queue, valid in any state. The loop adds
	// pending actors to its scene on the next tick.
	//
	// Parameters:
	//   - a: a fully constructed actor
	//
	// Returns:
	//   - error: ErrNilActor for nil
	QueueActor(a actor.Actor) error

	// ClearAllActors empties the pending queue. Actors already in the live scene or in the
	// offline registry are kept.
	ClearAllActors()

	// IssueCommand delivers a command. Rotation values persist and apply every tick until
	// replaced, visibility applies immediately to every registered actor, end-render stops the loop.
	//
	// Parameters:
	//   - cmd: the command
	//   - value: the payload, degrees for rotations and a 0/1 flag for visibility
	IssueCommand(cmd Command, value float64)

	// SetRotation sets all three per-tick rotations at once.
	//
	// Parameters:
	//   - x, y, z: degrees per tick
	SetRotation(x, y, z float64)

	// Rotation returns the per-tick rotations currently in the mailbox.
	//
	// Returns:
	//   - [3]float64: degrees per tick about X, Y and Z
	Rotation() [3]float64

	// Registered returns a copy of the offline registry.
	//
	// Returns:
	//   - []actor.Actor: the registry
	Registered() []actor.Actor

	// Pending returns the number of queued actors not yet consumed by the loop.
	//
	// Returns:
	//   - int: the queue length
	Pending() int

	// Start launches the loop goroutine.
	//
	// Returns:
	//   - error: ErrAlreadyRunning if a loop is active, ErrNoDevice without a device
	Start() error

	// Wait blocks until the loop exits and returns its error. Returns nil immediately when
	// the thread was never started. There is no timeout: CommandEndRender must be issued
	// first unless the device ends the session.
	//
	// Returns:
	//   - error: the device or panic error that ended the loop, or nil
	Wait() error
}

var _ Thread = &thread{}

// NewThread creates an idle VR thread rendering into device.
//
// Parameters:
//   - device: the display, may be nil until WithDevice is applied
//   - options: functional options to configure the thread
//
// Returns:
//   - Thread: the new thread
func NewThread(device Device, options ...ThreadBuilderOption) Thread {
	t := &thread{
		device:    device,
		placed:    make(map[uint64]struct{}),
		interval:  DefaultFrameInterval,
		placement: DefaultPlacementRotation,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.scene == nil {
		t.scene = scene.NewScene(scene.WithName("vr"), scene.WithBackground(DefaultBackground))
	}
	if t.background != nil {
		t.scene.SetBackground(*t.background)
	}
	return t
}

func (t *thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *thread) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *thread) Scene() scene.Scene {
	return t.scene
}

func (t *thread) AddActorOffline(a actor.Actor) error {
	if a == nil {
		return ErrNilActor
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return ErrNotIdle
	}
	t.place(a)
	if !slices.Contains(t.registry, a) {
		t.registry = append(t.registry, a)
	}
	return nil
}

func (t *thread) QueueActor(a actor.Actor) error {
	if a == nil {
		return ErrNilActor
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.place(a)
	t.pending = append(t.pending, a)
	return nil
}

// place applies the placement correction once per actor. Caller holds mu.
func (t *thread) place(a actor.Actor) {
	if _, ok := t.placed[a.ID()]; ok {
		return
	}
	origin := a.Origin()
	a.RotateX(t.placement)
	a.AddPosition(origin.Mul(-1))
	t.placed[a.ID()] = struct{}{}
}

func (t *thread) ClearAllActors() {
	t.mu.Lock()
	t.pending = nil
	t.mu.Unlock()
}

func (t *thread) IssueCommand(cmd Command, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch cmd {
	case CommandEndRender:
		t.endRender = true
		if t.state == StateRunning {
			t.state = StateStopping
		}
	case CommandRotateX:
		t.rotation[0] = value
	case CommandRotateY:
		t.rotation[1] = value
	case CommandRotateZ:
		t.rotation[2] = value
	case CommandToggleVisibility:
		visible := value > 0.5
		for _, a := range t.registry {
			a.SetVisible(visible)
		}
		for _, a := range t.pending {
			a.SetVisible(visible)
		}
		for _, a := range t.scene.Actors() {
			a.SetVisible(visible)
		}
	default:
		common.Logger().Warn("ignoring unknown vr command", "command", cmd, "value", value)
		return
	}
	common.Logger().Debug("vr command", "command", cmd, "value", value)
}

func (t *thread) SetRotation(x, y, z float64) {
	t.mu.Lock()
	t.rotation = [3]float64{x, y, z}
	t.mu.Unlock()
}

func (t *thread) Rotation() [3]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rotation
}

func (t *thread) Registered() []actor.Actor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.registry)
}

func (t *thread) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *thread) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return ErrAlreadyRunning
	}
	if t.device == nil {
		return ErrNoDevice
	}
	t.active = true
	t.endRender = false
	t.err = nil
	t.done = make(chan struct{})
	go t.run(t.done)
	return nil
}

func (t *thread) Wait() error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *thread) run(done chan struct{}) {
	err := t.loop()
	if err != nil {
		common.Logger().Warn("vr loop ended with error", "err", err)
	} else {
		common.Logger().Info("vr session ended")
	}

	t.mu.Lock()
	t.err = err
	t.state = StateIdle
	t.active = false
	t.mu.Unlock()
	close(done)
}

func (t *thread) loop() (err error) {
	// device runtimes expect every call from the thread that created the session
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	initialized := false
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("recovered panic in vr loop", "panic", r)
			err = fmt.Errorf("%w: %v", ErrLoopPanic, r)
		}
		if initialized {
			if cerr := t.device.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close vr device: %w", cerr)
			}
		}
	}()

	if err := t.device.Initialize(t.scene); err != nil {
		return fmt.Errorf("failed to initialize vr device: %w", err)
	}
	initialized = true

	var prof *profiler.Profiler
	if t.profileInterval > 0 {
		prof = profiler.NewProfiler("vr", t.profileInterval)
	}

	t.scene.RemoveAllActors()
	t.mu.Lock()
	registry := slices.Clone(t.registry)
	if t.endRender {
		t.state = StateStopping
	} else {
		t.state = StateRunning
	}
	t.mu.Unlock()
	for _, a := range registry {
		t.scene.AddActor(a)
	}
	common.Logger().Info("vr session started", "actors", len(registry))

	t.present(t.scene.Render())
	last := time.Now()
	for {
		if t.device.ProcessEvent() {
			return nil
		}
		t.mu.Lock()
		end := t.endRender
		t.mu.Unlock()
		if end {
			return nil
		}
		if wait := t.interval - time.Since(last); wait > 0 {
			time.Sleep(min(wait, eventPollSlice))
			continue
		}
		t.tick()
		if prof != nil {
			prof.Tick()
		}
		last = time.Now()
	}
}

// tick drains the pending queue, prunes released actors, applies the rotation deltas
// and renders one frame. The mutex is only held while copying state out.
func (t *thread) tick() {
	t.mu.Lock()
	rot := t.rotation
	queued := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, a := range queued {
		t.scene.AddActor(a)
	}
	if n := t.scene.RemoveReleased(); n > 0 {
		common.Logger().Debug("pruned released vr actors", "count", n)
	}

	for _, a := range t.scene.Actors() {
		if rot[0] != 0 {
			a.RotateX(rot[0])
		}
		if rot[1] != 0 {
			a.RotateY(rot[1])
		}
		if rot[2] != 0 {
			a.RotateZ(rot[2])
		}
	}
	t.present(t.scene.Render())
}

func (t *thread) present(f scene.Frame) {
	if err := t.device.Present(f); err != nil {
		common.Logger().Warn("failed to present vr frame", "frame", f.Number, "err", err)
	}
}
