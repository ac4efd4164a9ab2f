package geometry

import (
	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/go-gl/mathgl/mgl64"
)

// Shrink moves every corner of every triangle toward the triangle centroid:
// p' = c + factor*(p - c). Each output face gets its own three points, so a factor
// below one opens visible gaps between neighbouring cells.
//
// Parameters:
//   - pd: the input mesh (not modified)
//   - factor: scale toward the centroid, expected in (0, 1]
//
// Returns:
//   - *PolyData: the shrunk mesh
func Shrink(pd *PolyData, factor float64) *PolyData {
	tris := make([][3]mgl64.Vec3, 0, pd.NumFaces())
	for i := 0; i < pd.NumFaces(); i++ {
		t := pd.Triangle(i)
		c := t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3.0)
		for k := range t {
			t[k] = c.Add(t[k].Sub(c).Mul(factor))
		}
		tris = append(tris, t)
	}
	return FromTriangles(tris)
}

// Clip keeps the part of the mesh on the side of the plane the normal points into
// (signed distance >= 0). Triangles crossing the plane are cut along it: one inside
// corner yields one triangle, two inside corners yield two. Cut points are shared per
// edge so neighbouring triangles stay connected along the cut.
//
// Parameters:
//   - pd: the input mesh (not modified)
//   - plane: the clip plane; an invalid plane returns a clone of pd
//
// Returns:
//   - *PolyData: the clipped mesh
func Clip(pd *PolyData, plane common.Plane) *PolyData {
	if !plane.Valid() {
		return pd.Clone()
	}

	dist := make([]float64, pd.NumPoints())
	for i := range dist {
		dist[i] = plane.SignedDistance(pd.points[i])
	}

	c := newClipBuilder(pd, dist)
	for _, f := range pd.faces {
		inside := [3]bool{dist[f[0]] >= 0, dist[f[1]] >= 0, dist[f[2]] >= 0}
		insideCount := 0
		for _, in := range inside {
			if in {
				insideCount++
			}
		}

		switch insideCount {
		case 3:
			c.emit(c.kept(f[0]), c.kept(f[1]), c.kept(f[2]))
		case 1:
			i := 0
			for !inside[i] {
				i++
			}
			v0, v1, v2 := f[i], f[(i+1)%3], f[(i+2)%3]
			c.emit(c.kept(v0), c.cut(v0, v1), c.cut(v0, v2))
		case 2:
			o := 0
			for inside[o] {
				o++
			}
			v0, v1, v2 := f[o], f[(o+1)%3], f[(o+2)%3]
			p01 := c.cut(v0, v1)
			p02 := c.cut(v0, v2)
			c.emit(p01, c.kept(v1), c.kept(v2))
			c.emit(p01, c.kept(v2), p02)
		}
	}
	return newOwned(c.points, c.faces)
}

// clipBuilder accumulates the clipped mesh, remapping surviving points and sharing
// one interpolated point per cut edge.
type clipBuilder struct {
	src    *PolyData
	dist   []float64
	points []mgl64.Vec3
	faces  [][3]uint32
	keep   map[uint32]uint32
	edges  map[[2]uint32]uint32
}

func newClipBuilder(src *PolyData, dist []float64) *clipBuilder {
	return &clipBuilder{
		src:   src,
		dist:  dist,
		keep:  make(map[uint32]uint32),
		edges: make(map[[2]uint32]uint32),
	}
}

func (c *clipBuilder) kept(i uint32) uint32 {
	if idx, ok := c.keep[i]; ok {
		return idx
	}
	idx := uint32(len(c.points))
	c.points = append(c.points, c.src.points[i])
	c.keep[i] = idx
	return idx
}

// cut returns the point where edge (a, b) crosses the plane; a and b lie on opposite sides.
func (c *clipBuilder) cut(a, b uint32) uint32 {
	key := [2]uint32{a, b}
	if b < a {
		key = [2]uint32{b, a}
	}
	if idx, ok := c.edges[key]; ok {
		return idx
	}
	// interpolate from the lower index so both faces sharing the edge get identical coordinates
	lo, hi := key[0], key[1]
	t := c.dist[lo] / (c.dist[lo] - c.dist[hi])
	p := c.src.points[lo].Add(c.src.points[hi].Sub(c.src.points[lo]).Mul(t))
	idx := uint32(len(c.points))
	c.points = append(c.points, p)
	c.edges[key] = idx
	return idx
}

func (c *clipBuilder) emit(a, b, d uint32) {
	c.faces = append(c.faces, [3]uint32{a, b, d})
}

// Clean merges coincident points, drops triangles that collapse onto fewer than three
// distinct points, and discards points no face uses. Point order follows first use.
//
// Parameters:
//   - pd: the input mesh (not modified)
//
// Returns:
//   - *PolyData: the cleaned mesh
func Clean(pd *PolyData) *PolyData {
	index := make(map[mgl64.Vec3]uint32, pd.NumPoints())
	points := make([]mgl64.Vec3, 0, pd.NumPoints())
	faces := make([][3]uint32, 0, pd.NumFaces())

	for i := 0; i < pd.NumFaces(); i++ {
		t := pd.Triangle(i)
		var f [3]uint32
		for k, p := range t {
			idx, ok := index[p]
			if !ok {
				idx = uint32(len(points))
				points = append(points, p)
				index[p] = idx
			}
			f[k] = idx
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		faces = append(faces, f)
	}

	// a dropped degenerate face may have introduced points nothing references
	used := make([]bool, len(points))
	for _, f := range faces {
		used[f[0]], used[f[1]], used[f[2]] = true, true, true
	}
	remap := make([]uint32, len(points))
	compact := points[:0]
	for i, p := range points {
		if used[i] {
			remap[i] = uint32(len(compact))
			compact = append(compact, p)
		}
	}
	for i := range faces {
		faces[i] = [3]uint32{remap[faces[i][0]], remap[faces[i][1]], remap[faces[i][2]]}
	}
	return newOwned(compact, faces)
}
