package engine

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/config"
	"github.com/Carmen-Shannon/oxy-cad/engine/loader"
	"github.com/Carmen-Shannon/oxy-cad/engine/part"
	"github.com/Carmen-Shannon/oxy-cad/engine/parttree"
	"github.com/Carmen-Shannon/oxy-cad/engine/skybox"
	"github.com/Carmen-Shannon/oxy-cad/engine/vr"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	pollFor = time.Millisecond
)

func triangleSTL(size float32) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(1))
	_ = binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
	_ = binary.Write(&buf, binary.LittleEndian, [3][3]float32{{0, 0, 0}, {size, 0, 0}, {0, size, 0}})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	return buf.Bytes()
}

func emptySTL() []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newTestEngine(options ...EngineBuilderOption) *engine {
	base := []EngineBuilderOption{
		WithWatch(false),
		WithVROptions(vr.WithFrameInterval(time.Millisecond)),
	}
	return NewEngine(append(base, options...)...).(*engine)
}

func openOne(t *testing.T, e Engine, dir, name string) parttree.Index {
	t.Helper()
	res := e.OpenFiles([]string{writeFile(t, dir, name, triangleSTL(1))}, nil)
	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)
	return res[0].Index
}

func TestOpenFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.stl", triangleSTL(1))
	b := writeFile(t, dir, "b.stl", triangleSTL(2))
	empty := writeFile(t, dir, "empty.stl", emptySTL())
	unknown := writeFile(t, dir, "notes.txt", []byte("hello"))

	e := newTestEngine()
	var calls []int
	res := e.OpenFiles([]string{a, b, a, empty, unknown}, func(done, total int) {
		assert.Equal(t, 4, total)
		calls = append(calls, done)
	})

	require.Len(t, res, 5)
	assert.NoError(t, res[0].Err)
	assert.NoError(t, res[1].Err)
	assert.ErrorIs(t, res[2].Err, ErrDuplicatePart)
	assert.False(t, res[2].Index.Valid())
	assert.ErrorIs(t, res[3].Err, loader.ErrEmptyGeometry)
	assert.ErrorIs(t, res[4].Err, loader.ErrUnsupportedFormat)
	assert.Len(t, calls, 4)

	// failed loads still get an inert entry
	assert.Equal(t, 4, e.Tree().RowCount(parttree.Index{}))
	inert := e.Tree().Item(res[3].Index)
	assert.Equal(t, "empty.stl", inert.Name())
	assert.False(t, inert.HasGeometry())
	assert.Nil(t, inert.Renderable())

	p := e.Tree().Item(res[0].Index)
	assert.Equal(t, a, p.Source())
	assert.Equal(t, common.Color{R: 230, G: 0, B: 0}, p.Color())
	assert.Len(t, e.Scene().Actors(), 2)

	again := e.OpenFiles([]string{b}, nil)
	assert.ErrorIs(t, again[0].Err, ErrDuplicatePart)
	assert.Equal(t, 4, e.Tree().RowCount(parttree.Index{}))
}

func TestDeleteParts(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine()
	var idx []parttree.Index
	for _, name := range []string{"a.stl", "b.stl", "c.stl", "d.stl"} {
		idx = append(idx, openOne(t, e, dir, name))
	}
	removedPart := e.Tree().Item(idx[1])
	removedActor := removedPart.Renderable()
	e.Select(idx[1], idx[2])

	assert.Equal(t, 2, e.DeleteParts([]int{1, 3, 1, 9}))

	require.Equal(t, 2, e.Tree().RowCount(parttree.Index{}))
	assert.Equal(t, "a.stl", e.Tree().Root().Child(0).Name())
	assert.Equal(t, "c.stl", e.Tree().Root().Child(1).Name())
	assert.True(t, removedPart.Destroyed())
	assert.True(t, removedActor.Released())
	assert.Len(t, e.Scene().Actors(), 2)
	assert.Len(t, e.selection, 1)
	assert.Zero(t, e.DeleteParts(nil))
}

func TestEditPartNotifiesAndResyncs(t *testing.T) {
	e := newTestEngine()
	idx := openOne(t, e, t.TempDir(), "a.stl")

	var changed []parttree.Role
	var tl, br parttree.Index
	e.Tree().Subscribe(parttree.ObserverFuncs{
		OnDataChanged: func(topLeft, bottomRight parttree.Index, roles []parttree.Role) {
			tl, br, changed = topLeft, bottomRight, roles
		},
	})

	green := common.Color{G: 255}
	require.NoError(t, e.EditPart(idx, PartEdit{Name: "bracket", Color: green, Visible: false}))

	p := e.Tree().Item(idx)
	assert.Equal(t, "bracket", p.Name())
	assert.Equal(t, green, p.Color())
	assert.False(t, p.Visible())
	assert.Equal(t, []parttree.Role{parttree.RoleDisplay, parttree.RoleBackground}, changed)
	assert.Equal(t, part.ColumnName, tl.Column())
	assert.Equal(t, part.ColumnVisible, br.Column())
	assert.Empty(t, e.Scene().Actors())

	_, found := e.Tree().FindTopLevel("bracket")
	assert.True(t, found)
	assert.ErrorIs(t, e.EditPart(parttree.Index{}, PartEdit{}), ErrInvalidIndex)
}

func TestFilters(t *testing.T) {
	e := newTestEngine()
	idx := openOne(t, e, t.TempDir(), "a.stl")
	p := e.Tree().Item(idx)
	area := p.Original().Area()

	require.NoError(t, e.SetShrinkFilter(idx, true))
	assert.True(t, p.Filters().Shrink.Enabled)
	assert.InDelta(t, area*0.64, p.Processed().Area(), 1e-9)

	require.NoError(t, e.SetClipFilter(idx, true))
	assert.True(t, p.Filters().Clip.Enabled)
	assert.Less(t, p.Processed().Area(), area*0.64)

	require.NoError(t, e.SetShrinkFilter(idx, false))
	require.NoError(t, e.SetClipFilter(idx, false))
	assert.InDelta(t, area, p.Processed().Area(), 1e-9)

	assert.ErrorIs(t, e.SetClipFilter(parttree.Index{}, true), ErrInvalidIndex)
}

func TestShrinkFactorFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Filters.ShrinkFactor = 0.5
	e := newTestEngine(WithConfig(cfg))
	idx := openOne(t, e, t.TempDir(), "a.stl")
	p := e.Tree().Item(idx)

	require.NoError(t, e.SetShrinkFilter(idx, true))
	assert.InDelta(t, p.Original().Area()*0.25, p.Processed().Area(), 1e-9)
}

func TestEmptyFilterConfigFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.Filters.ShrinkFactor = 0
	cfg.Filters.ClipNormal = [3]float64{}
	e := newTestEngine(WithConfig(cfg))
	idx := openOne(t, e, t.TempDir(), "a.stl")
	p := e.Tree().Item(idx)

	require.NoError(t, e.SetShrinkFilter(idx, true))
	assert.Equal(t, part.DefaultShrinkFactor, p.Filters().Shrink.Factor)
	require.NoError(t, e.SetClipFilter(idx, true))
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, p.Filters().Clip.Plane.Normal)
}

func TestLightSlider(t *testing.T) {
	e := newTestEngine()
	e.SetLightIntensity(75)
	assert.InDelta(t, 0.75, e.Scene().Light().Intensity(), 1e-9)
	e.SetLightIntensity(150)
	assert.InDelta(t, 1.0, e.Scene().Light().Intensity(), 1e-9)
	e.SetLightIntensity(-3)
	assert.Zero(t, e.Scene().Light().Intensity())
}

func TestAutoRotateTick(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()
	a := openOne(t, e, dir, "a.stl")
	b := openOne(t, e, dir, "b.stl")
	e.Select(a)
	e.SetAutoRotate(50)

	e.tick(0.016)
	e.tick(0.016)

	want := mgl64.QuatRotate(mgl64.DegToRad(10), mgl64.Vec3{0, 1, 0})
	assert.True(t, common.QuatNear(e.Tree().Item(a).Renderable().Orientation(), want, 1e-9))
	assert.True(t, common.QuatNear(e.Tree().Item(b).Renderable().Orientation(), mgl64.QuatIdent(), 1e-9))
}

func TestTickCallbackAndRunQuit(t *testing.T) {
	ticks := make(chan float64, 16)
	e := newTestEngine(WithTickRate(500), WithTickCallback(func(dt float64) {
		select {
		case ticks <- dt:
		default:
		}
	}))
	openOne(t, e, t.TempDir(), "a.stl")

	finished := make(chan struct{})
	go func() {
		e.Run()
		close(finished)
	}()

	select {
	case <-ticks:
	case <-time.After(waitFor):
		t.Fatal("no tick observed")
	}
	e.SetTickRate(1000)
	e.Quit()
	e.Quit()

	select {
	case <-finished:
	case <-time.After(waitFor):
		t.Fatal("Run did not return after Quit")
	}
	assert.Zero(t, e.Tree().RowCount(parttree.Index{}))
	assert.Empty(t, e.Scene().Actors())
}

func TestVRSession(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()
	a := openOne(t, e, dir, "a.stl")

	assert.ErrorIs(t, e.StopVR(), ErrVRInactive)
	assert.ErrorIs(t, e.SetVRRotation(1, 0, 0), ErrVRInactive)

	dev := vr.NewHeadlessDevice()
	require.NoError(t, e.StartVR(dev))
	assert.True(t, e.VRActive())
	assert.ErrorIs(t, e.StartVR(vr.NewHeadlessDevice()), ErrVRActive)
	require.Eventually(t, func() bool { return dev.Presented() > 0 }, waitFor, pollFor)

	first, ok := dev.FirstFrame()
	require.True(t, ok)
	assert.Len(t, first.Actors, 1)

	// parts opened while running reach the VR scene on a later tick
	openOne(t, e, dir, "b.stl")
	require.Eventually(t, func() bool {
		f, ok := dev.LastFrame()
		return ok && len(f.Actors) == 2
	}, waitFor, pollFor)

	require.NoError(t, e.EditPart(a, PartEdit{Name: "a.stl", Color: common.Color{R: 1}, Visible: false}))
	vrActor := e.syncer.VRActor(e.Tree().Item(a))
	require.NotNil(t, vrActor)
	assert.False(t, vrActor.Visible())
	require.Eventually(t, func() bool {
		f, ok := dev.LastFrame()
		return ok && len(f.Actors) == 1
	}, waitFor, pollFor)

	require.NoError(t, e.SetVRRotation(0, 2, 0))
	require.NoError(t, e.StopVR())
	assert.False(t, e.VRActive())
	assert.True(t, dev.Closed())
	assert.Nil(t, e.syncer.VR())

	// a fresh session can follow
	dev2 := vr.NewHeadlessDevice()
	require.NoError(t, e.StartVR(dev2))
	require.Eventually(t, func() bool { return dev2.Presented() > 0 }, waitFor, pollFor)
	require.NoError(t, e.StopVR())
	assert.True(t, dev2.Closed())
}

func TestVRDeviceFinishing(t *testing.T) {
	e := newTestEngine()
	dev := vr.NewHeadlessDevice()
	require.NoError(t, e.StartVR(dev))
	require.Eventually(t, func() bool { return dev.Presented() > 0 }, waitFor, pollFor)

	dev.Finish()
	require.Eventually(t, func() bool { return !e.VRActive() }, waitFor, pollFor)
	require.NoError(t, e.StartVR(vr.NewHeadlessDevice()))
	require.NoError(t, e.StopVR())
}

func TestReloadFile(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()
	path := writeFile(t, dir, "a.stl", triangleSTL(1))
	res := e.OpenFiles([]string{path}, nil)
	require.NoError(t, res[0].Err)
	p := e.Tree().Item(res[0].Index)
	require.NoError(t, e.SetShrinkFilter(res[0].Index, true))

	writeFile(t, dir, "a.stl", triangleSTL(4))
	n, err := e.ReloadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.InDelta(t, 8.0, p.Original().Area(), 1e-9)
	assert.True(t, p.Filters().Shrink.Enabled)

	writeFile(t, dir, "a.stl", emptySTL())
	n, err = e.ReloadFile(path)
	assert.ErrorIs(t, err, loader.ErrEmptyGeometry)
	assert.Zero(t, n)
	assert.InDelta(t, 8.0, p.Original().Area(), 1e-9)

	n, err = e.ReloadFile(filepath.Join(dir, "other.stl"))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.Debounce = config.Duration(20 * time.Millisecond)
	e := NewEngine(WithConfig(cfg)).(*engine)
	t.Cleanup(e.Quit)
	require.NotNil(t, e.watcher)
	t.Cleanup(func() { _ = e.watcher.Close() })

	dir := t.TempDir()
	path := writeFile(t, dir, "a.stl", triangleSTL(1))
	res := e.OpenFiles([]string{path}, nil)
	require.NoError(t, res[0].Err)
	p := e.Tree().Item(res[0].Index)
	assert.Contains(t, e.watcher.Watched(), path)

	writeFile(t, dir, "a.stl", triangleSTL(2))
	require.Eventually(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return p.Original().Area() > 1.9
	}, waitFor, 5*time.Millisecond)

	e.DeleteParts([]int{0})
	assert.NotContains(t, e.watcher.Watched(), path)
}

func TestBackgroundAndSkybox(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	bg := writeFile(t, dir, "bg.png", buf.Bytes())
	require.NoError(t, e.LoadBackground(bg))
	f := e.Scene().Render()
	require.NotNil(t, f.Texture)
	assert.Equal(t, 4, f.Texture.Width)

	assert.ErrorIs(t, e.LoadBackground(writeFile(t, dir, "bg.gif", []byte("GIF89a"))), skybox.ErrUnsupportedImage)

	faces := t.TempDir()
	for _, name := range skybox.FaceNames {
		writeFile(t, faces, name+".png", buf.Bytes())
	}
	require.NoError(t, e.LoadSkybox(faces))
	f = e.Scene().Render()
	require.NotNil(t, f.Skybox)
	assert.Equal(t, 4, f.Skybox.Size)

	assert.ErrorIs(t, e.LoadSkybox(t.TempDir()), skybox.ErrMissingFace)
}
