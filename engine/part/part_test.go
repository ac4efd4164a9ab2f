package part

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
	"github.com/Carmen-Shannon/oxy-cad/engine/loader"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder serves geometry from memory.
type fakeDecoder map[string]*geometry.PolyData

func (d fakeDecoder) Load(path string) (*geometry.PolyData, error) {
	pd, ok := d[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return pd, nil
}

// slab is a 2x1 rectangle of two triangles spanning x in [-1, 1].
func slab() *geometry.PolyData {
	pd, _ := geometry.NewPolyData(
		[]mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}, {1, 1, 0}, {-1, 1, 0}},
		[][3]uint32{{0, 1, 2}, {0, 2, 3}},
	)
	return pd
}

func loadedPart(t *testing.T) *Part {
	t.Helper()
	p := NewPart(WithName("slab.stl"))
	require.NoError(t, p.LoadGeometry(fakeDecoder{"slab.stl": slab()}, "slab.stl"))
	return p
}

func TestRootIsHeaderOnly(t *testing.T) {
	root := NewRoot()
	assert.True(t, root.IsRoot())
	assert.Equal(t, 2, root.ColumnCount())
	assert.Equal(t, "Name", root.Data(ColumnName))
	assert.Equal(t, "Visible", root.Data(ColumnVisible))
	assert.Equal(t, "", root.Data(5))
	assert.ErrorIs(t, root.SetGeometry(slab()), ErrRootNotRenderable)
	assert.Nil(t, root.Renderable())
}

func TestAppendChildSetsParent(t *testing.T) {
	root := NewRoot()
	a := NewPart(WithName("a"))
	b := NewPart(WithName("b"), WithVisible(false))
	root.AppendChild(a)
	root.AppendChild(b)

	assert.Equal(t, 2, root.ChildCount())
	assert.Same(t, root, a.Parent())
	assert.Equal(t, 1, b.Row())
	assert.Equal(t, "b", b.Data(ColumnName))
	assert.Equal(t, "false", b.Data(ColumnVisible))
	assert.Nil(t, root.Child(2))
}

func TestAppendChildMovesBetweenParents(t *testing.T) {
	root := NewRoot()
	a, b, c := NewPart(), NewPart(), NewPart()
	root.AppendChild(a)
	root.AppendChild(b)
	a.AppendChild(c)

	b.AppendChild(c)
	assert.Equal(t, 0, a.ChildCount())
	assert.Same(t, b, c.Parent())
}

func TestAppendChildRejectsCycles(t *testing.T) {
	root := NewRoot()
	a, b := NewPart(), NewPart()
	root.AppendChild(a)
	a.AppendChild(b)

	b.AppendChild(a)
	a.AppendChild(a)
	b.AppendChild(root)

	assert.Same(t, root, a.Parent())
	assert.Same(t, a, b.Parent())
	assert.Equal(t, 0, b.ChildCount())
}

func TestRemoveChildDestroysSubtree(t *testing.T) {
	root := NewRoot()
	a := loadedPart(t)
	child := loadedPart(t)
	grandchild := loadedPart(t)
	sibling := NewPart()
	root.AppendChild(a)
	root.AppendChild(sibling)
	a.AppendChild(child)
	child.AppendChild(grandchild)
	vr := a.NewVRRenderable()

	assert.False(t, root.RemoveChild(7))
	require.True(t, root.RemoveChild(0))

	assert.Equal(t, 1, root.ChildCount())
	assert.Same(t, sibling, root.Child(0))
	assert.Equal(t, 0, sibling.Row())
	for _, p := range []*Part{a, child, grandchild} {
		assert.True(t, p.Destroyed())
		assert.Nil(t, p.Parent())
		assert.Equal(t, 0, p.ChildCount())
		assert.True(t, p.Renderable().Released())
	}
	assert.True(t, vr.Released())
	assert.False(t, sibling.Destroyed())
}

func TestLoadEmptyGeometryLeavesNoRenderable(t *testing.T) {
	empty, err := geometry.NewPolyData(nil, nil)
	require.NoError(t, err)
	root := NewRoot()
	p := NewPart(WithName("empty.stl"))
	root.AppendChild(p)

	err = p.LoadGeometry(fakeDecoder{"empty.stl": empty}, "empty.stl")
	assert.ErrorIs(t, err, loader.ErrEmptyGeometry)
	assert.Nil(t, p.Renderable())
	assert.Nil(t, p.NewVRRenderable())
	assert.False(t, p.HasGeometry())
	assert.Equal(t, 1, root.ChildCount())
	assert.Equal(t, "empty.stl", p.Source())
}

func TestLoadDecodeError(t *testing.T) {
	p := NewPart()
	require.Error(t, p.LoadGeometry(fakeDecoder{}, "missing.stl"))
	assert.Nil(t, p.Renderable())
}

func TestReleaseVRRenderables(t *testing.T) {
	p := NewPart()
	require.NoError(t, p.SetGeometry(slab()))
	first, second := p.NewVRRenderable(), p.NewVRRenderable()

	p.ReleaseVRRenderables()
	assert.True(t, first.Released())
	assert.True(t, second.Released())
	assert.False(t, p.Renderable().Released())
	assert.False(t, p.Destroyed())

	third := p.NewVRRenderable()
	require.NotNil(t, third)
	assert.False(t, third.Released())
}

func TestOriginalIsDeepCopy(t *testing.T) {
	src := slab()
	p := NewPart()
	require.NoError(t, p.SetGeometry(src))
	assert.NotSame(t, src, p.Original())
	assert.True(t, src.Equal(p.Original(), 0))
	assert.NotSame(t, p.Original(), p.Processed())
}

func TestFiltersWithoutGeometryAreNoOps(t *testing.T) {
	p := NewPart()
	require.NoError(t, p.ApplyShrinkFilter(true, 0.5))
	require.NoError(t, p.ApplyClipFilter(true, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}))
	assert.Equal(t, FilterSet{}, p.Filters())
	assert.Nil(t, p.Processed())
}

func TestFilterValidation(t *testing.T) {
	p := loadedPart(t)
	assert.ErrorIs(t, p.ApplyShrinkFilter(true, 0), ErrInvalidShrinkFactor)
	assert.ErrorIs(t, p.ApplyShrinkFilter(true, 1.5), ErrInvalidShrinkFactor)
	assert.ErrorIs(t, p.ApplyClipFilter(true, mgl64.Vec3{}, mgl64.Vec3{}), ErrInvalidClipNormal)
	assert.NoError(t, p.ApplyShrinkFilter(false, 0))
	assert.False(t, p.Filters().Any())
}

func TestPipelineOrderIgnoresToggleOrder(t *testing.T) {
	origin, normal := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}

	clipFirst := loadedPart(t)
	require.NoError(t, clipFirst.ApplyClipFilter(true, origin, normal))
	require.NoError(t, clipFirst.ApplyShrinkFilter(true, 0.5))

	shrinkFirst := loadedPart(t)
	require.NoError(t, shrinkFirst.ApplyShrinkFilter(true, 0.5))
	require.NoError(t, shrinkFirst.ApplyClipFilter(true, origin, normal))

	want := geometry.Clean(geometry.Clip(geometry.Shrink(slab(), 0.5), common.Plane{Origin: origin, Normal: normal}))
	assert.True(t, want.Equal(clipFirst.Processed(), 1e-12))
	assert.True(t, want.Equal(shrinkFirst.Processed(), 1e-12))

	// shrink then clip differs from clip then shrink on this mesh
	other := geometry.Clean(geometry.Shrink(geometry.Clip(slab(), common.Plane{Origin: origin, Normal: normal}), 0.5))
	assert.False(t, other.Equal(clipFirst.Processed(), 1e-12))

	lo, _, ok := clipFirst.Processed().Bounds()
	require.True(t, ok)
	assert.GreaterOrEqual(t, lo[0], -1e-9)
}

func TestRecomputeIsDeterministic(t *testing.T) {
	p := loadedPart(t)
	require.NoError(t, p.ApplyShrinkFilter(true, 0.7))
	require.NoError(t, p.ApplyClipFilter(true, mgl64.Vec3{0.2, 0, 0}, mgl64.Vec3{1, 1, 0}))
	first := p.Processed()
	p.Recompute()
	second := p.Processed()
	assert.NotSame(t, first, second)
	assert.True(t, first.Equal(second, 0))
}

func TestDisablingFiltersRestoresOriginal(t *testing.T) {
	p := loadedPart(t)
	require.NoError(t, p.ApplyShrinkFilter(true, 0.3))
	require.NoError(t, p.ApplyShrinkFilter(false, 0.3))
	assert.True(t, p.Original().Equal(p.Processed(), 0))
}

func TestProcessedIsPushedToSharedMapper(t *testing.T) {
	p := loadedPart(t)
	vr := p.NewVRRenderable()
	require.NotNil(t, vr)
	require.NoError(t, p.ApplyShrinkFilter(true, 0.5))

	assert.Same(t, p.Processed(), p.Renderable().Mapper().Input())
	assert.Same(t, p.Processed(), vr.Mapper().Input())
	assert.NotEqual(t, p.Renderable().ID(), vr.ID())
}

func TestColorAndVisibilityPropagate(t *testing.T) {
	p := loadedPart(t)
	vr := p.NewVRRenderable()

	var calls []bool
	p.OnVisibilityChanged(func(_ *Part, visible bool) { calls = append(calls, visible) })

	red := common.Color{R: 255}
	p.SetColor(red)
	assert.Equal(t, red, p.Renderable().Property().Color())
	assert.Equal(t, red, vr.Property().Color())

	p.SetVisible(false)
	p.SetVisible(false)
	assert.False(t, p.Renderable().Visible())
	assert.True(t, vr.Visible(), "VR copies keep their own visibility")
	assert.Equal(t, []bool{false}, calls)
}

func TestDefaultClipPlane(t *testing.T) {
	p := loadedPart(t)
	plane := p.DefaultClipPlane()
	assert.True(t, common.VecNear(plane.Origin, mgl64.Vec3{0, 0.5, 0}, 1e-9))
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, plane.Normal)
}

func TestSetGeometryKeepsRenderableAndFilters(t *testing.T) {
	p := loadedPart(t)
	r := p.Renderable()
	require.NoError(t, p.ApplyShrinkFilter(true, 0.5))

	require.NoError(t, p.SetGeometry(slab()))
	assert.Same(t, r, p.Renderable())
	assert.True(t, p.Filters().Shrink.Enabled)
	assert.Equal(t, p.Original().NumFaces()*3, p.Processed().NumPoints())
}
