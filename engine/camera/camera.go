package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

type cameraImpl struct {
	mu sync.RWMutex

	position   mgl64.Vec3
	focalPoint mgl64.Vec3
	viewUp     mgl64.Vec3
	viewAngle  float64 // degrees
	aspect     float64
	near       float64
	far        float64
}

// Camera is a perspective look-at camera. It is orbited with Azimuth and Elevation and
// framed around a bounding box with Reset.
type Camera interface {
	// Position returns the eye position.
	//
	// Returns:
	//   - mgl64.Vec3: the eye position
	Position() mgl64.Vec3

	// FocalPoint returns the point the camera looks at.
	//
	// Returns:
	//   - mgl64.Vec3: the focal point
	FocalPoint() mgl64.Vec3

	// ViewUp returns the unit up vector, orthogonal to the view direction.
	//
	// Returns:
	//   - mgl64.Vec3: the up vector
	ViewUp() mgl64.Vec3

	// ViewAngle returns the vertical field of view in degrees.
	//
	// Returns:
	//   - float64: the view angle
	ViewAngle() float64

	// Distance returns the distance from the eye to the focal point.
	//
	// Returns:
	//   - float64: the distance
	Distance() float64

	// SetAspect sets the viewport aspect ratio used by ProjectionMatrix.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float64)

	// Azimuth orbits the eye about the view-up axis through the focal point.
	//
	// Parameters:
	//   - deg: the angle in degrees
	Azimuth(deg float64)

	// Elevation orbits the eye about the horizontal axis through the focal point.
	// Positive angles raise the eye.
	//
	// Parameters:
	//   - deg: the angle in degrees
	Elevation(deg float64)

	// Reset keeps the view direction and moves the eye so the sphere enclosing the box
	// [lo, hi] fills the view angle.
	//
	// Parameters:
	//   - lo, hi: the box corners
	Reset(lo, hi mgl64.Vec3)

	// ViewMatrix returns the world-to-eye matrix.
	//
	// Returns:
	//   - mgl64.Mat4: the view matrix
	ViewMatrix() mgl64.Mat4

	// ProjectionMatrix returns the perspective projection.
	//
	// Returns:
	//   - mgl64.Mat4: the projection matrix
	ProjectionMatrix() mgl64.Mat4
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera at (0,0,1) looking at the origin with +Y up and a 30 degree
// view angle, then applies options.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the new camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		position:  mgl64.Vec3{0, 0, 1},
		viewUp:    mgl64.Vec3{0, 1, 0},
		viewAngle: 30,
		aspect:    1,
		near:      0.01,
		far:       1000,
	}
	for _, option := range options {
		option(c)
	}
	c.orthogonalizeViewUp()
	return c
}

func (c *cameraImpl) Position() mgl64.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *cameraImpl) FocalPoint() mgl64.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.focalPoint
}

func (c *cameraImpl) ViewUp() mgl64.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewUp
}

func (c *cameraImpl) ViewAngle() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewAngle
}

func (c *cameraImpl) Distance() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position.Sub(c.focalPoint).Len()
}

func (c *cameraImpl) SetAspect(aspect float64) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	c.aspect = aspect
	c.mu.Unlock()
}

func (c *cameraImpl) Azimuth(deg float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orbit(deg, c.viewUp)
}

func (c *cameraImpl) Elevation(deg float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	offset := c.position.Sub(c.focalPoint)
	axis := offset.Cross(c.viewUp)
	if axis.Len() < 1e-12 {
		return
	}
	c.orbit(deg, axis.Normalize())
	c.orthogonalizeViewUpLocked()
}

// orbit rotates the eye about axis through the focal point. Callers hold mu.
func (c *cameraImpl) orbit(deg float64, axis mgl64.Vec3) {
	q := mgl64.QuatRotate(mgl64.DegToRad(deg), axis)
	c.position = c.focalPoint.Add(q.Rotate(c.position.Sub(c.focalPoint)))
}

func (c *cameraImpl) Reset(lo, hi mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()

	center := lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius == 0 {
		radius = 0.5
	}
	dir := c.position.Sub(c.focalPoint)
	if dir.Len() < 1e-12 {
		dir = mgl64.Vec3{0, 0, 1}
	}
	dist := radius / math.Sin(mgl64.DegToRad(c.viewAngle)/2)

	c.focalPoint = center
	c.position = center.Add(dir.Normalize().Mul(dist))
	c.near = max(dist-radius*1.01, dist*0.001)
	c.far = dist + radius*1.01
}

func (c *cameraImpl) ViewMatrix() mgl64.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mgl64.LookAtV(c.position, c.focalPoint, c.viewUp)
}

func (c *cameraImpl) ProjectionMatrix() mgl64.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mgl64.Perspective(mgl64.DegToRad(c.viewAngle), c.aspect, c.near, c.far)
}

func (c *cameraImpl) orthogonalizeViewUp() {
	c.mu.Lock()
	c.orthogonalizeViewUpLocked()
	c.mu.Unlock()
}

// orthogonalizeViewUpLocked removes the view-direction component from viewUp.
func (c *cameraImpl) orthogonalizeViewUpLocked() {
	dir := c.focalPoint.Sub(c.position)
	if dir.Len() < 1e-12 {
		return
	}
	dir = dir.Normalize()
	up := c.viewUp.Sub(dir.Mul(c.viewUp.Dot(dir)))
	if up.Len() < 1e-12 {
		return
	}
	c.viewUp = up.Normalize()
}
