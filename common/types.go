// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Color is an 8-bit RGB triple as edited in the part dialog and shown as the tree row background.
type Color struct {
	R, G, B uint8
}

// NewColor builds a Color from integer channels, clamping each to [0, 255].
//
// Parameters:
//   - r, g, b: channel values, typically 0-255 from a spin box
//
// Returns:
//   - Color: the clamped colour
func NewColor(r, g, b int) Color {
	return Color{R: clampChannel(r), G: clampChannel(g), B: clampChannel(b)}
}

// Float returns the colour as normalized [0, 1] channels, the form renderers consume.
//
// Returns:
//   - [3]float64: normalized (r, g, b)
func (c Color) Float() [3]float64 {
	return [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

// String formats the colour as rgb(r, g, b).
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Plane is an implicit plane given by a point on it and a normal vector.
// The normal does not need to be unit length but must not be zero.
type Plane struct {
	Origin mgl64.Vec3
	Normal mgl64.Vec3
}

// SignedDistance evaluates n·(p-o) with the normal normalized, so the result is the
// signed distance of p from the plane. Positive values lie on the side the normal points to.
//
// Parameters:
//   - pt: the point to evaluate
//
// Returns:
//   - float64: the signed distance
func (p Plane) SignedDistance(pt mgl64.Vec3) float64 {
	n := p.Normal.Normalize()
	return n.Dot(pt.Sub(p.Origin))
}

// Valid reports whether the plane normal is usable.
func (p Plane) Valid() bool {
	return p.Normal.Len() > 1e-12
}
