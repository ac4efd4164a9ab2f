package vr

import "fmt"

// Command is a message the main thread sends to a running VR loop.
type Command int

const (
	// CommandEndRender stops the loop.
	CommandEndRender Command = iota

	// CommandRotateX sets the per-frame rotation about X in degrees.
	CommandRotateX

	// CommandRotateY sets the per-frame rotation about Y in degrees.
	CommandRotateY

	// CommandRotateZ sets the per-frame rotation about Z in degrees.
	CommandRotateZ

	// CommandToggleVisibility shows every registered actor when the value exceeds 0.5
	// and hides them otherwise.
	CommandToggleVisibility
)

func (c Command) String() string {
	switch c {
	case CommandEndRender:
		return "END_RENDER"
	case CommandRotateX:
		return "ROTATE_X"
	case CommandRotateY:
		return "ROTATE_Y"
	case CommandRotateZ:
		return "ROTATE_Z"
	case CommandToggleVisibility:
		return "TOGGLE_VISIBILITY"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// State is the lifecycle state of a Thread.
type State int

const (
	// StateIdle is a thread that is constructed or joined and may be started.
	StateIdle State = iota

	// StateRunning is a thread whose device is initialized and whose loop is executing.
	StateRunning

	// StateStopping is a running thread that has observed CommandEndRender.
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
