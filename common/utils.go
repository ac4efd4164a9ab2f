package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Coalesce returns the first non-zero value, or the zero value if all are zero. Used to
// fall back to built-in defaults when a configuration field is left empty.
//
// Parameters:
//   - values: candidates in order of preference
//
// Returns:
//   - T: the first non-zero candidate
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Near reports whether a and b differ by at most tol.
func Near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// VecNear reports whether every component of a and b differs by at most tol.
// Unlike mgl64's ApproxEqualThreshold the tolerance is absolute, so values close to
// zero compare as expected.
//
// Parameters:
//   - a, b: the vectors to compare
//   - tol: per-component absolute tolerance
//
// Returns:
//   - bool: true if every component is within tol
func VecNear(a, b mgl64.Vec3, tol float64) bool {
	for k := range a {
		if !Near(a[k], b[k], tol) {
			return false
		}
	}
	return true
}

// QuatNear reports whether two rotations are equal within an absolute per-component
// tolerance. q and -q describe the same rotation and compare as near.
func QuatNear(a, b mgl64.Quat, tol float64) bool {
	same := Near(a.W, b.W, tol) && VecNear(a.V, b.V, tol)
	flipped := Near(a.W, -b.W, tol) && VecNear(a.V, b.V.Mul(-1), tol)
	return same || flipped
}
