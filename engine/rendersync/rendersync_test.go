package rendersync

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-cad/engine/actor"
	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
	"github.com/Carmen-Shannon/oxy-cad/engine/part"
	"github.com/Carmen-Shannon/oxy-cad/engine/parttree"
	"github.com/Carmen-Shannon/oxy-cad/engine/scene"
	"github.com/Carmen-Shannon/oxy-cad/engine/vr"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle(t *testing.T, offset float64) *geometry.PolyData {
	t.Helper()
	pd, err := geometry.NewPolyData([]mgl64.Vec3{
		{offset, 0, 0}, {offset + 1, 0, 0}, {offset, 1, 0},
	}, [][3]uint32{{0, 1, 2}})
	require.NoError(t, err)
	return pd
}

func addPart(t *testing.T, tree parttree.Tree, parent parttree.Index, name string, visible bool, withGeometry bool) *part.Part {
	t.Helper()
	p := tree.Item(tree.AppendChildTo(parent, name, visible))
	if withGeometry {
		require.NoError(t, p.SetGeometry(triangle(t, float64(p.Row()))))
	}
	return p
}

func TestSyncOnlyVisibleParts(t *testing.T) {
	tree := parttree.NewTree()
	s := scene.NewScene()
	a := addPart(t, tree, parttree.Index{}, "A", true, true)
	addPart(t, tree, parttree.Index{}, "B", false, true)

	res := NewSyncer(tree, s).Sync()
	assert.Equal(t, []actor.Actor{a.Renderable()}, s.Actors())
	assert.Equal(t, Result{Visited: 2, OnScreen: 1}, res)
	assert.Equal(t, uint64(1), s.Frames())
}

func TestSyncSkipsPartsWithoutGeometry(t *testing.T) {
	tree := parttree.NewTree()
	s := scene.NewScene()
	addPart(t, tree, parttree.Index{}, "empty", true, false)
	b := addPart(t, tree, parttree.Index{}, "B", true, true)

	NewSyncer(tree, s).Sync()
	assert.Equal(t, []actor.Actor{b.Renderable()}, s.Actors())
}

func TestSyncPreOrderThroughHiddenParents(t *testing.T) {
	tree := parttree.NewTree()
	s := scene.NewScene()
	a := addPart(t, tree, parttree.Index{}, "A", false, true)
	a1 := addPart(t, tree, tree.IndexOf(a), "A1", true, true)
	a2 := addPart(t, tree, tree.IndexOf(a), "A2", true, true)
	b := addPart(t, tree, parttree.Index{}, "B", true, true)

	res := NewSyncer(tree, s).Sync()
	assert.Equal(t, 4, res.Visited)
	assert.Equal(t, []actor.Actor{a1.Renderable(), a2.Renderable(), b.Renderable()}, s.Actors())
}

func TestSyncIsFullResync(t *testing.T) {
	tree := parttree.NewTree()
	s := scene.NewScene()
	a := addPart(t, tree, parttree.Index{}, "A", true, true)
	b := addPart(t, tree, parttree.Index{}, "B", true, true)
	sy := NewSyncer(tree, s)
	sy.Sync()
	require.Len(t, s.Actors(), 2)

	a.SetVisible(false)
	sy.Sync()
	assert.Equal(t, []actor.Actor{b.Renderable()}, s.Actors())

	require.True(t, tree.RemoveRow(1, parttree.Index{}))
	sy.Sync()
	assert.Empty(t, s.Actors())
}

func TestSyncCameraReset(t *testing.T) {
	tree := parttree.NewTree()
	addPart(t, tree, parttree.Index{}, "A", true, true)

	fixed := scene.NewScene()
	before := fixed.Camera().Position()
	NewSyncer(tree, fixed, WithCameraReset(false)).Sync()
	assert.Equal(t, before, fixed.Camera().Position())

	framed := scene.NewScene()
	NewSyncer(tree, framed, WithCameraAngles(0, 0)).Sync()
	assert.InDelta(t, 0.5, framed.Camera().FocalPoint()[0], 1e-9)
	assert.NotEqual(t, before, framed.Camera().Position())
}

func TestSyncSeedsIdleVRThread(t *testing.T) {
	tree := parttree.NewTree()
	a := addPart(t, tree, parttree.Index{}, "A", true, true)
	addPart(t, tree, parttree.Index{}, "B", false, true)
	th := vr.NewThread(vr.NewHeadlessDevice())
	sy := NewSyncer(tree, scene.NewScene())
	sy.AttachVR(th)

	res := sy.Sync()
	assert.Equal(t, 1, res.VR)
	vrActor := sy.VRActor(a)
	require.NotNil(t, vrActor)
	assert.NotSame(t, a.Renderable(), vrActor)
	assert.Same(t, a.Renderable().Mapper(), vrActor.Mapper())
	assert.Equal(t, []actor.Actor{vrActor}, th.Registered())

	sy.Sync()
	assert.Same(t, vrActor, sy.VRActor(a), "vr actor reused within a session")
	assert.Len(t, th.Registered(), 1)

	sy.DetachVR()
	assert.Nil(t, sy.VR())
	assert.Nil(t, sy.VRActor(a))
	assert.True(t, vrActor.Released(), "detaching releases the session's copies")
	assert.False(t, a.Renderable().Released())
}

func TestReattachReleasesPreviousSession(t *testing.T) {
	tree := parttree.NewTree()
	a := addPart(t, tree, parttree.Index{}, "A", true, true)
	sy := NewSyncer(tree, scene.NewScene())

	sy.AttachVR(vr.NewThread(vr.NewHeadlessDevice()))
	sy.Sync()
	first := sy.VRActor(a)
	require.NotNil(t, first)

	sy.AttachVR(vr.NewThread(vr.NewHeadlessDevice()))
	assert.True(t, first.Released())
	sy.Sync()
	second := sy.VRActor(a)
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.False(t, second.Released())
}

func TestSyncQueuesToRunningVRThread(t *testing.T) {
	tree := parttree.NewTree()
	th := vr.NewThread(vr.NewHeadlessDevice(), vr.WithFrameInterval(time.Millisecond))
	sy := NewSyncer(tree, scene.NewScene())
	sy.AttachVR(th)
	require.NoError(t, th.Start())
	require.Eventually(t, func() bool { return th.State() == vr.StateRunning }, 2*time.Second, time.Millisecond)

	a := addPart(t, tree, parttree.Index{}, "A", true, true)
	sy.Sync()
	vrActor := sy.VRActor(a)
	require.NotNil(t, vrActor)
	require.Eventually(t, func() bool { return th.Scene().HasActor(vrActor) }, 2*time.Second, time.Millisecond)

	require.True(t, tree.RemoveRow(0, parttree.Index{}))
	sy.Sync()
	assert.Nil(t, sy.VRActor(a))
	require.Eventually(t, func() bool { return !th.Scene().HasActor(vrActor) }, 2*time.Second, time.Millisecond)

	th.IssueCommand(vr.CommandEndRender, 0)
	require.NoError(t, th.Wait())
}

func TestSyncHidesVRCopyOfHiddenPart(t *testing.T) {
	tree := parttree.NewTree()
	a := addPart(t, tree, parttree.Index{}, "A", true, true)
	sy := NewSyncer(tree, scene.NewScene())
	sy.AttachVR(vr.NewThread(vr.NewHeadlessDevice()))
	sy.Sync()
	vrActor := sy.VRActor(a)
	require.NotNil(t, vrActor)

	a.SetVisible(false)
	sy.Sync()
	assert.False(t, vrActor.Visible())

	a.SetVisible(true)
	sy.Sync()
	assert.True(t, vrActor.Visible())
}
