package geometry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShrinkMovesCornersTowardCentroid(t *testing.T) {
	pd := FromTriangles([][3]mgl64.Vec3{{{0, 0, 0}, {3, 0, 0}, {0, 3, 0}}})
	out := Shrink(pd, 0.5)

	require.Equal(t, 1, out.NumFaces())
	tri := out.Triangle(0)
	assert.True(t, common.VecNear(tri[0], mgl64.Vec3{0.5, 0.5, 0}, 1e-12))
	assert.True(t, common.VecNear(tri[1], mgl64.Vec3{2, 0.5, 0}, 1e-12))
	assert.True(t, common.VecNear(tri[2], mgl64.Vec3{0.5, 2, 0}, 1e-12))
	assert.InDelta(t, pd.Area()*0.25, out.Area(), 1e-12)
}

func TestShrinkFactorOneKeepsShape(t *testing.T) {
	pd := unitSquare(t)
	out := Shrink(pd, 1)
	assert.InDelta(t, pd.Area(), out.Area(), 1e-12)
	// cells are split apart even at factor 1
	assert.Equal(t, 6, out.NumPoints())
}

func TestClipKeepsPositiveSide(t *testing.T) {
	pd := unitSquare(t)
	out := Clip(pd, common.Plane{Origin: mgl64.Vec3{0.5, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}})

	lo, hi, ok := out.Bounds()
	require.True(t, ok)
	assert.InDelta(t, 0.5, lo[0], 1e-12)
	assert.InDelta(t, 1.0, hi[0], 1e-12)
	assert.InDelta(t, 0.5, out.Area(), 1e-12)
}

func TestClipAllInsideAndAllOutside(t *testing.T) {
	pd := unitSquare(t)

	in := Clip(pd, common.Plane{Origin: mgl64.Vec3{-1, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}})
	assert.InDelta(t, 1.0, in.Area(), 1e-12)
	assert.Equal(t, 2, in.NumFaces())

	out := Clip(pd, common.Plane{Origin: mgl64.Vec3{2, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}})
	assert.True(t, out.Empty())
}

func TestClipSharesCutPoints(t *testing.T) {
	pd := unitSquare(t)
	// diagonal cut through both triangles along the shared edge region
	out := Clip(pd, common.Plane{Origin: mgl64.Vec3{0, 0.5, 0}, Normal: mgl64.Vec3{0, 1, 0}})
	cleaned := Clean(out)
	assert.Equal(t, cleaned.NumPoints(), out.NumPoints())
	assert.InDelta(t, 0.5, out.Area(), 1e-12)
}

func TestClipInvalidPlaneReturnsClone(t *testing.T) {
	pd := unitSquare(t)
	out := Clip(pd, common.Plane{})
	assert.True(t, pd.Equal(out, 0))
}

func TestCleanMergesAndDropsDegenerate(t *testing.T) {
	pd := FromTriangles([][3]mgl64.Vec3{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		{{2, 2, 2}, {2, 2, 2}, {3, 3, 3}},
	})
	out := Clean(pd)
	assert.Equal(t, 2, out.NumFaces())
	assert.Equal(t, 4, out.NumPoints())
	assert.True(t, out.Equal(unitSquare(t), 0))
}

func TestFiltersDoNotMutateInput(t *testing.T) {
	pd := unitSquare(t)
	before := pd.Clone()
	Shrink(pd, 0.3)
	Clip(pd, common.Plane{Origin: mgl64.Vec3{0.5, 0.5, 0}, Normal: mgl64.Vec3{1, 1, 0}})
	Clean(pd)
	assert.True(t, pd.Equal(before, 0))
}
