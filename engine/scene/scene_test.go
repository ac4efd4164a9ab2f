package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/actor"
	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxActor(t *testing.T, lo, hi mgl64.Vec3) actor.Actor {
	t.Helper()
	pd, err := geometry.NewPolyData([]mgl64.Vec3{lo, {hi[0], lo[1], lo[2]}, hi}, [][3]uint32{{0, 1, 2}})
	require.NoError(t, err)
	return actor.NewActor(actor.WithMapper(actor.NewMapper(pd)))
}

func TestAddRemoveActors(t *testing.T) {
	s := NewScene()
	a := actor.NewActor()
	b := actor.NewActor()

	assert.True(t, s.AddActor(a))
	assert.False(t, s.AddActor(a), "duplicate add is a no-op")
	assert.True(t, s.AddActor(b))
	assert.False(t, s.AddActor(nil))
	assert.Equal(t, []actor.Actor{a, b}, s.Actors())

	assert.True(t, s.RemoveActor(a))
	assert.False(t, s.RemoveActor(a))
	assert.False(t, s.HasActor(a))
	assert.True(t, s.HasActor(b), "index rebuilt after removal")

	s.RemoveAllActors()
	assert.Empty(t, s.Actors())
}

func TestReleasedActors(t *testing.T) {
	s := NewScene()
	a := actor.NewActor()
	b := actor.NewActor()
	require.True(t, s.AddActor(a))
	require.True(t, s.AddActor(b))

	a.Release()
	assert.Len(t, s.Render().Actors, 1, "released actors are never drawn")
	assert.Equal(t, 1, s.RemoveReleased())
	assert.Equal(t, []actor.Actor{b}, s.Actors())
	assert.False(t, s.AddActor(a), "released actors cannot be added")
}

func TestRenderSnapshot(t *testing.T) {
	var got []Frame
	s := NewScene(WithBackground(common.NewColor(26, 51, 102)), WithRenderFunc(func(f Frame) {
		got = append(got, f)
	}))
	visible := actor.NewActor()
	hidden := actor.NewActor(actor.WithVisible(false))
	s.AddActor(visible)
	s.AddActor(hidden)

	f := s.Render()
	assert.Equal(t, uint64(1), f.Number)
	assert.Equal(t, []actor.Actor{visible}, f.Actors)
	assert.Equal(t, common.NewColor(26, 51, 102), f.Background)
	assert.InDelta(t, 0.5, f.Light, 1e-12)
	require.Len(t, got, 1)
	assert.Equal(t, f.Number, got[0].Number)

	s.Light().SetEnabled(false)
	assert.Zero(t, s.Render().Light)
	assert.Equal(t, uint64(2), s.Frames())
}

func TestResetCameraFitsVisibleActors(t *testing.T) {
	s := NewScene()
	s.AddActor(boxActor(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 2, 0}))
	far := boxActor(t, mgl64.Vec3{100, 100, 100}, mgl64.Vec3{101, 101, 101})
	far.SetVisible(false)
	s.AddActor(far)

	s.ResetCamera()
	assert.InDelta(t, 1, s.Camera().FocalPoint()[0], 1e-9)
	assert.InDelta(t, 1, s.Camera().FocalPoint()[1], 1e-9)
}

func TestResetCameraWithoutGeometry(t *testing.T) {
	s := NewScene()
	s.AddActor(actor.NewActor())
	before := s.Camera().Position()
	s.ResetCamera()
	assert.Equal(t, before, s.Camera().Position())
}

func TestWithActorsSkipsDuplicates(t *testing.T) {
	a := actor.NewActor()
	s := NewScene(WithActors(a, a, nil), WithName("vr"))
	assert.Len(t, s.Actors(), 1)
	assert.Equal(t, "vr", s.Name())
}
