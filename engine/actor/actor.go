package actor

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

var nextID atomic.Uint64

type actor struct {
	id       uint64
	visible  atomic.Bool
	released atomic.Bool
	mapper   *Mapper
	property *Property

	mu          sync.RWMutex
	position    mgl64.Vec3
	origin      mgl64.Vec3
	orientation mgl64.Quat
}

// Actor is a drawable instance: a shared geometry connection (Mapper), a shared material
// (Property), and a transform plus visibility flag that belong to this instance alone.
type Actor interface {
	// ID returns the actor's process-unique identifier.
	//
	// Returns:
	//   - uint64: the actor ID
	ID() uint64

	// Visible reports whether the actor should be drawn.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// SetVisible sets whether the actor should be drawn.
	//
	// Parameters:
	//   - visible: true to draw the actor
	SetVisible(visible bool)

	// Mapper returns the geometry connection. It may be shared with other actors.
	//
	// Returns:
	//   - *Mapper: the mapper
	Mapper() *Mapper

	// Property returns the material. It may be shared with other actors.
	//
	// Returns:
	//   - *Property: the property
	Property() *Property

	// Position returns the actor's translation.
	//
	// Returns:
	//   - mgl64.Vec3: the position
	Position() mgl64.Vec3

	// SetPosition replaces the actor's translation.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl64.Vec3)

	// AddPosition offsets the actor's translation by d.
	//
	// Parameters:
	//   - d: the offset to add
	AddPosition(d mgl64.Vec3)

	// Origin returns the point rotations are applied about, in model coordinates.
	//
	// Returns:
	//   - mgl64.Vec3: the origin
	Origin() mgl64.Vec3

	// SetOrigin sets the point rotations are applied about.
	//
	// Parameters:
	//   - o: the new origin
	SetOrigin(o mgl64.Vec3)

	// RotateX rotates the actor about its own X axis.
	//
	// Parameters:
	//   - deg: the angle in degrees
	RotateX(deg float64)

	// RotateY rotates the actor about its own Y axis.
	//
	// Parameters:
	//   - deg: the angle in degrees
	RotateY(deg float64)

	// RotateZ rotates the actor about its own Z axis.
	//
	// Parameters:
	//   - deg: the angle in degrees
	RotateZ(deg float64)

	// Orientation returns the accumulated rotation.
	//
	// Returns:
	//   - mgl64.Quat: the orientation
	Orientation() mgl64.Quat

	// Matrix returns the model matrix: translate(position + origin) * rotate * translate(-origin).
	//
	// Returns:
	//   - mgl64.Mat4: the model matrix
	Matrix() mgl64.Mat4

	// Bounds returns the world-space bounding box of the mapper input under Matrix.
	//
	// Returns:
	//   - lo, hi: box corners
	//   - ok: false if the mapper has no geometry
	Bounds() (lo, hi mgl64.Vec3, ok bool)

	// Release marks the actor as destroyed. Renderers drop released actors.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true once released
	Released() bool
}

var _ Actor = &actor{}

// NewActor creates a new visible Actor configured with the given options. Without
// WithMapper or WithProperty the actor gets a private empty Mapper and a Property in
// DefaultColor.
//
// Parameters:
//   - options: functional options to configure the actor
//
// Returns:
//   - Actor: the newly created actor
func NewActor(options ...ActorBuilderOption) Actor {
	a := &actor{
		id:          nextID.Add(1),
		orientation: mgl64.QuatIdent(),
	}
	a.visible.Store(true)
	for _, option := range options {
		option(a)
	}
	if a.mapper == nil {
		a.mapper = NewMapper(nil)
	}
	if a.property == nil {
		a.property = NewProperty(DefaultColor)
	}
	return a
}

func (a *actor) ID() uint64 {
	return a.id
}

func (a *actor) Visible() bool {
	return a.visible.Load()
}

func (a *actor) SetVisible(visible bool) {
	a.visible.Store(visible)
}

func (a *actor) Mapper() *Mapper {
	return a.mapper
}

func (a *actor) Property() *Property {
	return a.property
}

func (a *actor) Position() mgl64.Vec3 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.position
}

func (a *actor) SetPosition(p mgl64.Vec3) {
	a.mu.Lock()
	a.position = p
	a.mu.Unlock()
}

func (a *actor) AddPosition(d mgl64.Vec3) {
	a.mu.Lock()
	a.position = a.position.Add(d)
	a.mu.Unlock()
}

func (a *actor) Origin() mgl64.Vec3 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.origin
}

func (a *actor) SetOrigin(o mgl64.Vec3) {
	a.mu.Lock()
	a.origin = o
	a.mu.Unlock()
}

func (a *actor) RotateX(deg float64) {
	a.rotate(deg, mgl64.Vec3{1, 0, 0})
}

func (a *actor) RotateY(deg float64) {
	a.rotate(deg, mgl64.Vec3{0, 1, 0})
}

func (a *actor) RotateZ(deg float64) {
	a.rotate(deg, mgl64.Vec3{0, 0, 1})
}

// rotate post-multiplies so the axis is interpreted in the actor's current frame.
func (a *actor) rotate(deg float64, axis mgl64.Vec3) {
	if deg == 0 {
		return
	}
	q := mgl64.QuatRotate(mgl64.DegToRad(deg), axis)
	a.mu.Lock()
	a.orientation = a.orientation.Mul(q).Normalize()
	a.mu.Unlock()
}

func (a *actor) Orientation() mgl64.Quat {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.orientation
}

func (a *actor) Matrix() mgl64.Mat4 {
	a.mu.RLock()
	pos, origin, q := a.position, a.origin, a.orientation
	a.mu.RUnlock()

	t := pos.Add(origin)
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Mat4()).
		Mul4(mgl64.Translate3D(-origin[0], -origin[1], -origin[2]))
}

func (a *actor) Bounds() (lo, hi mgl64.Vec3, ok bool) {
	mlo, mhi, ok := a.mapper.Input().Bounds()
	if !ok {
		return lo, hi, false
	}
	lo, hi = transformBox(a.Matrix(), mlo, mhi)
	return lo, hi, true
}

func (a *actor) Release() {
	a.released.Store(true)
}

func (a *actor) Released() bool {
	return a.released.Load()
}

// transformBox returns the axis-aligned box enclosing the eight corners of [lo, hi]
// transformed by m.
func transformBox(m mgl64.Mat4, lo, hi mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var rlo, rhi mgl64.Vec3
	for i := 0; i < 8; i++ {
		c := lo
		if i&1 != 0 {
			c[0] = hi[0]
		}
		if i&2 != 0 {
			c[1] = hi[1]
		}
		if i&4 != 0 {
			c[2] = hi[2]
		}
		c = mgl64.TransformCoordinate(c, m)
		if i == 0 {
			rlo, rhi = c, c
			continue
		}
		for k := 0; k < 3; k++ {
			rlo[k] = min(rlo[k], c[k])
			rhi[k] = max(rhi[k], c[k])
		}
	}
	return rlo, rhi
}
