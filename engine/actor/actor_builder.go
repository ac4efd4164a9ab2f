package actor

import "github.com/go-gl/mathgl/mgl64"

// ActorBuilderOption is a functional option for configuring an Actor during construction.
type ActorBuilderOption func(*actor)

// WithMapper connects the Actor to an existing, possibly shared, Mapper.
//
// Parameters:
//   - m: the Mapper to use
//
// Returns:
//   - ActorBuilderOption: functional option to set the Mapper
func WithMapper(m *Mapper) ActorBuilderOption {
	return func(a *actor) {
		a.mapper = m
	}
}

// WithProperty gives the Actor an existing, possibly shared, Property.
//
// Parameters:
//   - p: the Property to use
//
// Returns:
//   - ActorBuilderOption: functional option to set the Property
func WithProperty(p *Property) ActorBuilderOption {
	return func(a *actor) {
		a.property = p
	}
}

// WithVisible sets the initial visibility of the Actor.
//
// Parameters:
//   - visible: true to draw the actor
//
// Returns:
//   - ActorBuilderOption: functional option to set visibility
func WithVisible(visible bool) ActorBuilderOption {
	return func(a *actor) {
		a.visible.Store(visible)
	}
}

// WithPosition sets the initial translation of the Actor.
//
// Parameters:
//   - p: the position
//
// Returns:
//   - ActorBuilderOption: functional option to set the position
func WithPosition(p mgl64.Vec3) ActorBuilderOption {
	return func(a *actor) {
		a.position = p
	}
}

// WithOrigin sets the rotation origin of the Actor.
//
// Parameters:
//   - o: the origin in model coordinates
//
// Returns:
//   - ActorBuilderOption: functional option to set the origin
func WithOrigin(o mgl64.Vec3) ActorBuilderOption {
	return func(a *actor) {
		a.origin = o
	}
}
