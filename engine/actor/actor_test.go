package actor

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() *geometry.PolyData {
	return geometry.FromTriangles([][3]mgl64.Vec3{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}})
}

func TestNewActorDefaults(t *testing.T) {
	a := NewActor()
	assert.True(t, a.Visible())
	assert.False(t, a.Released())
	require.NotNil(t, a.Mapper())
	require.NotNil(t, a.Property())
	assert.Nil(t, a.Mapper().Input())
	assert.Equal(t, DefaultColor, a.Property().Color())
	assert.Equal(t, mgl64.Ident4(), a.Matrix())
}

func TestActorIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, NewActor().ID(), NewActor().ID())
}

func TestSharedMapperAndProperty(t *testing.T) {
	screen := NewActor(WithMapper(NewMapper(triangle())))
	vr := NewActor(WithMapper(screen.Mapper()), WithProperty(screen.Property()))

	screen.Property().SetColor(common.Color{R: 1, G: 2, B: 3})
	assert.Equal(t, common.Color{R: 1, G: 2, B: 3}, vr.Property().Color())

	replacement := geometry.FromTriangles([][3]mgl64.Vec3{{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}})
	v := screen.Mapper().Version()
	screen.Mapper().SetInput(replacement)
	assert.Same(t, replacement, vr.Mapper().Input())
	assert.Greater(t, vr.Mapper().Version(), v)

	// transforms and visibility stay per actor
	vr.RotateY(45)
	vr.SetVisible(false)
	assert.True(t, screen.Visible())
	assert.Equal(t, mgl64.QuatIdent(), screen.Orientation())
}

func TestRotateIsLocal(t *testing.T) {
	a := NewActor()
	a.RotateX(-90)
	a.RotateY(90)

	// the later Y turn acts in the frame left by the X turn
	got := a.Orientation().Rotate(mgl64.Vec3{1, 0, 0})
	assert.True(t, common.VecNear(got, mgl64.Vec3{0, -1, 0}, 1e-9), "got %v", got)
}

func TestMatrixRotatesAboutOrigin(t *testing.T) {
	a := NewActor(WithOrigin(mgl64.Vec3{1, 0, 0}))
	a.RotateZ(180)
	p := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, a.Matrix())
	assert.True(t, common.VecNear(p, mgl64.Vec3{1, 0, 0}, 1e-9))

	a.AddPosition(mgl64.Vec3{0, 0, 5})
	p = mgl64.TransformCoordinate(mgl64.Vec3{2, 0, 0}, a.Matrix())
	assert.True(t, common.VecNear(p, mgl64.Vec3{0, 0, 5}, 1e-9), "got %v", p)
}

func TestBounds(t *testing.T) {
	a := NewActor(WithMapper(NewMapper(triangle())), WithPosition(mgl64.Vec3{10, 0, 0}))
	lo, hi, ok := a.Bounds()
	require.True(t, ok)
	assert.True(t, common.VecNear(lo, mgl64.Vec3{10, 0, 0}, 1e-9))
	assert.True(t, common.VecNear(hi, mgl64.Vec3{11, 1, 0}, 1e-9))

	_, _, ok = NewActor().Bounds()
	assert.False(t, ok)
}

func TestPropertySharedColor(t *testing.T) {
	p := NewProperty(DefaultColor)
	a := NewActor(WithProperty(p))
	b := NewActor(WithProperty(p))
	p.SetColor(common.Color{B: 255})
	assert.Equal(t, common.Color{B: 255}, a.Property().Color())
	assert.Same(t, a.Property(), b.Property())
}
