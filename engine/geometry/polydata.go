// Package geometry holds the triangle-mesh snapshot type shared by loaders, parts and the
// filter pipeline, together with the pure filters that derive processed geometry from it.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrFaceIndexOutOfRange is returned by NewPolyData when a face references a missing point.
var ErrFaceIndexOutOfRange = errors.New("face references a point index out of range")

// PolyData is an immutable triangle mesh: a point list and a list of faces indexing it.
// Nothing outside this package can mutate a PolyData once built, so a value can be
// shared freely between goroutines and between on-screen and VR renderables.
type PolyData struct {
	points []mgl64.Vec3
	faces  [][3]uint32
}

// NewPolyData builds a mesh from the given points and faces. Both slices are deep-copied,
// so the caller may reuse them afterwards.
//
// Parameters:
//   - points: vertex positions
//   - faces: triangles as triples of point indices
//
// Returns:
//   - *PolyData: the new mesh
//   - error: ErrFaceIndexOutOfRange if any face references a missing point
func NewPolyData(points []mgl64.Vec3, faces [][3]uint32) (*PolyData, error) {
	n := uint32(len(points))
	for i, f := range faces {
		if f[0] >= n || f[1] >= n || f[2] >= n {
			return nil, fmt.Errorf("face %d %v with %d points: %w", i, f, n, ErrFaceIndexOutOfRange)
		}
	}
	return newOwned(append([]mgl64.Vec3(nil), points...), append([][3]uint32(nil), faces...)), nil
}

// FromTriangles builds a mesh from unshared triangle corners, three points per face.
//
// Parameters:
//   - tris: triangle corner positions
//
// Returns:
//   - *PolyData: the new mesh
func FromTriangles(tris [][3]mgl64.Vec3) *PolyData {
	points := make([]mgl64.Vec3, 0, len(tris)*3)
	faces := make([][3]uint32, 0, len(tris))
	for _, t := range tris {
		base := uint32(len(points))
		points = append(points, t[0], t[1], t[2])
		faces = append(faces, [3]uint32{base, base + 1, base + 2})
	}
	return newOwned(points, faces)
}

// newOwned wraps slices the caller hands over; used internally by filters.
func newOwned(points []mgl64.Vec3, faces [][3]uint32) *PolyData {
	return &PolyData{points: points, faces: faces}
}

// NumPoints returns the number of points. Safe on a nil mesh.
func (pd *PolyData) NumPoints() int {
	if pd == nil {
		return 0
	}
	return len(pd.points)
}

// NumFaces returns the number of triangles. Safe on a nil mesh.
func (pd *PolyData) NumFaces() int {
	if pd == nil {
		return 0
	}
	return len(pd.faces)
}

// Empty reports whether the mesh has zero points or zero faces, which loaders treat as a failed load.
func (pd *PolyData) Empty() bool {
	return pd.NumPoints() == 0 || pd.NumFaces() == 0
}

// Point returns point i.
func (pd *PolyData) Point(i int) mgl64.Vec3 {
	return pd.points[i]
}

// Face returns the point indices of face i.
func (pd *PolyData) Face(i int) [3]uint32 {
	return pd.faces[i]
}

// Triangle returns the three corner positions of face i.
func (pd *PolyData) Triangle(i int) [3]mgl64.Vec3 {
	f := pd.faces[i]
	return [3]mgl64.Vec3{pd.points[f[0]], pd.points[f[1]], pd.points[f[2]]}
}

// Points returns a copy of the point list.
func (pd *PolyData) Points() []mgl64.Vec3 {
	if pd == nil {
		return nil
	}
	return append([]mgl64.Vec3(nil), pd.points...)
}

// Faces returns a copy of the face list.
func (pd *PolyData) Faces() [][3]uint32 {
	if pd == nil {
		return nil
	}
	return append([][3]uint32(nil), pd.faces...)
}

// Clone returns a deep copy that shares no memory with pd.
// The filter pipeline always starts from a clone of the original geometry.
//
// Returns:
//   - *PolyData: the copy, or nil when pd is nil
func (pd *PolyData) Clone() *PolyData {
	if pd == nil {
		return nil
	}
	return newOwned(pd.Points(), pd.Faces())
}

// Bounds returns the axis-aligned bounding box of the points.
//
// Returns:
//   - lo, hi: box corners
//   - bool: false when the mesh has no points
func (pd *PolyData) Bounds() (lo, hi mgl64.Vec3, ok bool) {
	if pd.NumPoints() == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range pd.points {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return lo, hi, true
}

// Center returns the centre of the bounding box, or the zero vector for an empty mesh.
func (pd *PolyData) Center() mgl64.Vec3 {
	lo, hi, ok := pd.Bounds()
	if !ok {
		return mgl64.Vec3{}
	}
	return lo.Add(hi).Mul(0.5)
}

// Equal reports whether two meshes have the same faces and points within tol.
//
// Parameters:
//   - other: the mesh to compare against
//   - tol: per-component absolute tolerance
//
// Returns:
//   - bool: true if equal
func (pd *PolyData) Equal(other *PolyData, tol float64) bool {
	if pd.NumPoints() != other.NumPoints() || pd.NumFaces() != other.NumFaces() {
		return false
	}
	for i := 0; i < pd.NumFaces(); i++ {
		if pd.faces[i] != other.faces[i] {
			return false
		}
	}
	for i := 0; i < pd.NumPoints(); i++ {
		if !common.VecNear(pd.points[i], other.points[i], tol) {
			return false
		}
	}
	return true
}

// Area returns the total surface area.
func (pd *PolyData) Area() float64 {
	var a float64
	for i := 0; i < pd.NumFaces(); i++ {
		t := pd.Triangle(i)
		a += t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Len() / 2
	}
	return a
}
