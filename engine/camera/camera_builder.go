package camera

import "github.com/go-gl/mathgl/mgl64"

// CameraBuilderOption is a functional option for configuring a Camera via NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the eye position.
//
// Parameters:
//   - p: the eye position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera position
func WithPosition(p mgl64.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = p
	}
}

// WithFocalPoint sets the point the camera looks at.
//
// Parameters:
//   - p: the focal point
//
// Returns:
//   - CameraBuilderOption: a function that sets the focal point
func WithFocalPoint(p mgl64.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.focalPoint = p
	}
}

// WithViewUp sets the up vector. It is orthogonalized against the view direction.
//
// Parameters:
//   - up: the up vector
//
// Returns:
//   - CameraBuilderOption: a function that sets the up vector
func WithViewUp(up mgl64.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewUp = up
	}
}

// WithViewAngle sets the vertical field of view in degrees.
//
// Parameters:
//   - deg: the view angle, clamped to [1, 179]
//
// Returns:
//   - CameraBuilderOption: a function that sets the view angle
func WithViewAngle(deg float64) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewAngle = min(max(deg, 1), 179)
	}
}
