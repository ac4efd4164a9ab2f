// Package engine is the viewer application core: it owns the part tree, the on-screen
// scene and the optional VR session, and exposes the operations a user interface calls.
package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/config"
	"github.com/Carmen-Shannon/oxy-cad/engine/light"
	"github.com/Carmen-Shannon/oxy-cad/engine/loader"
	"github.com/Carmen-Shannon/oxy-cad/engine/part"
	"github.com/Carmen-Shannon/oxy-cad/engine/parttree"
	"github.com/Carmen-Shannon/oxy-cad/engine/profiler"
	"github.com/Carmen-Shannon/oxy-cad/engine/rendersync"
	"github.com/Carmen-Shannon/oxy-cad/engine/scene"
	"github.com/Carmen-Shannon/oxy-cad/engine/skybox"
	"github.com/Carmen-Shannon/oxy-cad/engine/vr"
	"github.com/Carmen-Shannon/oxy-cad/engine/watcher"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrDuplicatePart is reported for a file whose name matches an existing top-level part.
	ErrDuplicatePart = errors.New("a part with this name is already loaded")

	// ErrVRActive is returned by StartVR while a VR session runs.
	ErrVRActive = errors.New("vr session already active")

	// ErrVRInactive is returned by VR operations without a running session.
	ErrVRInactive = errors.New("no active vr session")

	// ErrInvalidIndex is returned for an index that does not refer to a part.
	ErrInvalidIndex = errors.New("index does not refer to a part")
)

// Used when the configuration leaves the field empty.
var (
	defaultClipNormal = [3]float64{1, 0, 0}
	defaultTickRate   = 60
)

// OpenResult is the outcome of opening one file.
type OpenResult struct {
	Path  string
	Name  string
	Index parttree.Index
	Err   error
}

// PartEdit carries the fields of the part edit dialog, applied together.
type PartEdit struct {
	Name    string
	Color   common.Color
	Visible bool
}

// engine implements the Engine interface.
// All tree and scene mutations are serialized by mu; the tick goroutine and file watcher
// callbacks take the same lock.
type engine struct {
	mu sync.Mutex

	cfg      config.Config
	tree     parttree.Tree
	scene    scene.Scene
	syncer   rendersync.Syncer
	loader   loader.Loader
	watcher  watcher.Watcher
	watchOff bool

	vrThread  vr.Thread
	vrOptions []vr.ThreadBuilderOption

	selection  []*part.Part
	autoRotate float64

	tickRateChannel chan time.Duration
	engineTickRate  time.Duration
	tickCallback    func(deltaTime float64)
	running         bool
	wg              sync.WaitGroup
	quitChannel     chan struct{}
	quitOnce        sync.Once
	shutdownOnce    sync.Once

	profiler         *profiler.Profiler
	profilingEnabled bool
}

// Engine is the viewer core. It opens mesh files into the part tree, keeps the on-screen
// scene in sync with the tree and drives an optional VR session. Safe for concurrent use.
type Engine interface {
	// Tree returns the part tree. Structural changes should go through the engine so the
	// scene stays in sync.
	Tree() parttree.Tree

	// Scene returns the on-screen scene.
	Scene() scene.Scene

	// Config returns the configuration the engine was built with.
	Config() config.Config

	// OpenFiles decodes files concurrently and appends one top-level part per file, named
	// after the file. A file whose name is already loaded is skipped with ErrDuplicatePart.
	// A file that fails to decode still gets an inert part. The scene is resynced once.
	//
	// Parameters:
	//   - paths: the files to open
	//   - progress: called with (done, total) after each decoded file; may be nil
	//
	// Returns:
	//   - []OpenResult: per-file results in input order
	OpenFiles(paths []string, progress func(done, total int)) []OpenResult

	// DeleteParts removes and destroys the top-level parts at rows, highest row first,
	// then resyncs.
	//
	// Parameters:
	//   - rows: top-level rows, duplicates and out-of-range rows are ignored
	//
	// Returns:
	//   - int: number of parts removed
	DeleteParts(rows []int) int

	// Part resolves an index.
	//
	// Parameters:
	//   - idx: the index
	//
	// Returns:
	//   - *part.Part: the part
	//   - error: ErrInvalidIndex for the root or an invalid index
	Part(idx parttree.Index) (*part.Part, error)

	// EditPart applies a dialog result to a part, notifies tree observers for the display
	// and background roles, forwards a visibility change to the VR session and resyncs.
	//
	// Parameters:
	//   - idx: the part
	//   - edit: the new values
	//
	// Returns:
	//   - error: ErrInvalidIndex
	EditPart(idx parttree.Index, edit PartEdit) error

	// SetClipFilter toggles the clip filter using the configured normal through the centre
	// of the part's original bounds.
	//
	// Parameters:
	//   - idx: the part
	//   - enable: filter state
	//
	// Returns:
	//   - error: ErrInvalidIndex or a filter validation error
	SetClipFilter(idx parttree.Index, enable bool) error

	// SetShrinkFilter toggles the shrink filter with the configured factor.
	//
	// Parameters:
	//   - idx: the part
	//   - enable: filter state
	//
	// Returns:
	//   - error: ErrInvalidIndex or a filter validation error
	SetShrinkFilter(idx parttree.Index, enable bool) error

	// Select replaces the selection used for auto-rotation.
	//
	// Parameters:
	//   - indexes: the selected parts; invalid indexes are skipped
	Select(indexes ...parttree.Index)

	// SetAutoRotate sets the auto-rotation slider. Each tick rotates the selected parts'
	// on-screen actors about Y by slider times the configured scale, in degrees.
	//
	// Parameters:
	//   - slider: 0 to 100, clamped
	SetAutoRotate(slider int)

	// SetLightIntensity sets the scene light from a 0-100 slider.
	//
	// Parameters:
	//   - slider: 0 to 100, clamped
	SetLightIntensity(slider int)

	// LoadBackground sets a PNG or JPEG image as the scene background.
	//
	// Parameters:
	//   - path: the image file
	//
	// Returns:
	//   - error: skybox.ErrUnsupportedImage or a decode error
	LoadBackground(path string) error

	// LoadSkybox loads the six cube faces found in dir as the scene skybox.
	//
	// Parameters:
	//   - dir: the folder holding px, nx, py, ny, pz and nz images
	//
	// Returns:
	//   - error: skybox.ErrMissingFace or a decode error
	LoadSkybox(dir string) error

	// StartVR builds a fresh VR thread on device, pre-seeds it with the visible parts and
	// starts it.
	//
	// Parameters:
	//   - device: the VR display
	//
	// Returns:
	//   - error: ErrVRActive or a start error
	StartVR(device vr.Device) error

	// StopVR ends the VR session and waits for the loop to exit.
	//
	// Returns:
	//   - error: ErrVRInactive, or the error the loop ended with
	StopVR() error

	// VRActive reports whether a VR loop is running.
	VRActive() bool

	// SetVRRotation sets the per-tick VR rotation about each axis.
	//
	// Parameters:
	//   - x, y, z: degrees per tick
	//
	// Returns:
	//   - error: ErrVRInactive
	SetVRRotation(x, y, z float64) error

	// ReloadFile re-decodes every part loaded from path, keeping filters.
	//
	// Parameters:
	//   - path: the changed file
	//
	// Returns:
	//   - int: number of parts reloaded
	//   - error: the first decode error
	ReloadFile(path string) (int, error)

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// EnableProfiler enables tick statistics in the log.
	EnableProfiler()

	// DisableProfiler disables tick statistics.
	DisableProfiler()

	// Run starts the tick loop and blocks until Quit, then stops VR, closes the watcher
	// and destroys the part tree.
	Run()

	// Quit signals Run to return. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a viewer engine. Collaborators not supplied through options are built
// from the configuration.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		cfg:             config.Default(),
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	cfg := e.cfg

	if e.engineTickRate == 0 {
		e.engineTickRate = time.Second / time.Duration(max(common.Coalesce(cfg.Engine.TickRate, defaultTickRate), 1))
	}
	if e.loader == nil {
		e.loader = loader.NewLoader(loader.WithWorkers(cfg.Viewer.LoadWorkers), loader.WithCache(cfg.Viewer.CacheGeometry))
	}
	if e.scene == nil {
		e.scene = scene.NewScene(
			scene.WithName("main"),
			scene.WithBackground(cfg.Viewer.Background.Color()),
			scene.WithLight(light.NewLight(light.LightTypeHeadlight, light.WithIntensity(cfg.Light.Intensity))),
		)
	}
	e.tree = parttree.NewTree()
	e.syncer = rendersync.NewSyncer(e.tree, e.scene,
		rendersync.WithCameraAngles(cfg.Viewer.CameraAzimuth, cfg.Viewer.CameraElevation))
	e.vrOptions = append([]vr.ThreadBuilderOption{
		vr.WithFrameInterval(cfg.VR.FrameInterval.Duration()),
		vr.WithBackground(cfg.VR.Background.Color()),
		vr.WithPlacementRotation(cfg.VR.PlacementRotation),
		vr.WithProfiler(cfg.VR.ProfileInterval.Duration()),
	}, e.vrOptions...)
	e.profiler = profiler.NewProfiler("engine", time.Second)

	if cfg.Watch.Enabled && !e.watchOff {
		w, err := watcher.NewWatcher(e.onFileChanged, watcher.WithDebounce(cfg.Watch.Debounce.Duration()))
		if err != nil {
			common.Logger().Warn("auto-reload disabled", "err", err)
		} else {
			e.watcher = w
		}
	}
	return e
}

func (e *engine) Tree() parttree.Tree {
	return e.tree
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Config() config.Config {
	return e.cfg
}

func (e *engine) OpenFiles(paths []string, progress func(done, total int)) []OpenResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]OpenResult, len(paths))
	seen := make(map[string]bool, len(paths))
	var load []string
	var loadAt []int
	for i, p := range paths {
		name := filepath.Base(p)
		results[i] = OpenResult{Path: p, Name: name}
		if _, exists := e.tree.FindTopLevel(name); exists || seen[name] {
			results[i].Err = fmt.Errorf("%s: %w", name, ErrDuplicatePart)
			common.Logger().Info("skipping duplicate part", "name", name, "path", p)
			continue
		}
		seen[name] = true
		load = append(load, p)
		loadAt = append(loadAt, i)
	}

	done := 0
	decoded := e.loader.LoadAll(load, func(loader.Result) {
		done++
		if progress != nil {
			progress(done, len(load))
		}
	})

	color := e.cfg.Viewer.PartColor.Color()
	for k, r := range decoded {
		res := &results[loadAt[k]]
		res.Index = e.tree.AppendChild(res.Name, true, part.WithSource(r.Path), part.WithColor(color))
		p := e.tree.Item(res.Index)
		p.OnVisibilityChanged(e.forwardVisibility)

		err := r.Err
		if err == nil {
			err = p.SetGeometry(r.Data)
		}
		if err != nil {
			res.Err = err
			common.Logger().Warn("geometry not loaded; part left without renderable", "part", res.Name, "path", r.Path, "err", err)
			continue
		}
		if e.watcher != nil {
			if werr := e.watcher.Add(r.Path); werr != nil {
				common.Logger().Warn("cannot watch file", "path", r.Path, "err", werr)
			}
		}
		common.Logger().Info("part loaded", "name", res.Name, "points", r.Data.NumPoints(), "faces", r.Data.NumFaces())
	}

	e.syncer.Sync()
	return results
}

func (e *engine) DeleteParts(rows []int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	sorted := slices.Clone(rows)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	slices.Reverse(sorted)

	removed := 0
	for _, row := range sorted {
		p := e.tree.Item(e.tree.Index(row, 0, parttree.Index{}))
		if p.IsRoot() {
			continue
		}
		src := p.Source()
		if !e.tree.RemoveRow(row, parttree.Index{}) {
			continue
		}
		removed++
		e.unwatchIfUnused(src)
	}
	e.selection = slices.DeleteFunc(e.selection, (*part.Part).Destroyed)

	if removed > 0 {
		e.syncer.Sync()
	}
	return removed
}

// unwatchIfUnused stops watching src when no remaining part was loaded from it. Caller holds mu.
func (e *engine) unwatchIfUnused(src string) {
	if e.watcher == nil || src == "" {
		return
	}
	if len(e.partsFrom(src)) == 0 {
		e.watcher.Remove(src)
	}
}

func (e *engine) Part(idx parttree.Index) (*part.Part, error) {
	if !idx.Valid() {
		return nil, ErrInvalidIndex
	}
	p := e.tree.Item(idx)
	if p.IsRoot() || p.Destroyed() {
		return nil, ErrInvalidIndex
	}
	return p, nil
}

func (e *engine) EditPart(idx parttree.Index, edit PartEdit) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.Part(idx)
	if err != nil {
		return err
	}
	p.SetName(edit.Name)
	p.SetColor(edit.Color)
	p.SetVisible(edit.Visible)

	row := idx.Sibling(part.ColumnName)
	e.tree.NotifyDataChanged(row, row.Sibling(part.ColumnVisible), parttree.RoleDisplay, parttree.RoleBackground)
	e.syncer.Sync()
	return nil
}

// forwardVisibility is registered on every part and relays visibility changes to a
// running VR session immediately.
func (e *engine) forwardVisibility(p *part.Part, visible bool) {
	t := e.syncer.VR()
	if t == nil || !t.Active() {
		return
	}
	value := 0.0
	if visible {
		value = 1
	}
	t.IssueCommand(vr.CommandToggleVisibility, value)
	common.Logger().Debug("visibility forwarded to vr", "part", p.Name(), "visible", visible)
}

func (e *engine) SetClipFilter(idx parttree.Index, enable bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.Part(idx)
	if err != nil {
		return err
	}
	n := common.Coalesce(e.cfg.Filters.ClipNormal, defaultClipNormal)
	if err := p.ApplyClipFilter(enable, p.Original().Center(), mgl64.Vec3{n[0], n[1], n[2]}); err != nil {
		return err
	}
	e.scene.Render()
	return nil
}

func (e *engine) SetShrinkFilter(idx parttree.Index, enable bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.Part(idx)
	if err != nil {
		return err
	}
	if err := p.ApplyShrinkFilter(enable, common.Coalesce(e.cfg.Filters.ShrinkFactor, part.DefaultShrinkFactor)); err != nil {
		return err
	}
	e.scene.Render()
	return nil
}

func (e *engine) Select(indexes ...parttree.Index) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.selection = e.selection[:0]
	for _, idx := range indexes {
		if p, err := e.Part(idx); err == nil && !slices.Contains(e.selection, p) {
			e.selection = append(e.selection, p)
		}
	}
}

func (e *engine) SetAutoRotate(slider int) {
	e.mu.Lock()
	e.autoRotate = float64(clampSlider(slider)) * e.cfg.Engine.AutoRotateScale
	e.mu.Unlock()
}

func (e *engine) SetLightIntensity(slider int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Light().SetIntensity(float64(clampSlider(slider)) / 100)
	e.scene.Render()
}

func clampSlider(v int) int {
	return min(max(v, 0), 100)
}

func (e *engine) LoadBackground(path string) error {
	img, err := skybox.LoadBackground(path)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.SetBackgroundTexture(img)
	e.scene.Render()
	common.Logger().Info("background loaded", "path", path, "width", img.Width, "height", img.Height)
	return nil
}

func (e *engine) LoadSkybox(dir string) error {
	cm, err := skybox.LoadCubemapDir(dir)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.SetSkybox(cm)
	e.scene.Render()
	common.Logger().Info("skybox loaded", "dir", dir, "size", cm.Size)
	return nil
}

func (e *engine) StartVR(device vr.Device) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.vrThread != nil && e.vrThread.Active() {
		return ErrVRActive
	}
	t := vr.NewThread(device, e.vrOptions...)
	e.syncer.AttachVR(t)
	e.syncer.Sync()
	if err := t.Start(); err != nil {
		e.syncer.DetachVR()
		return fmt.Errorf("failed to start vr session: %w", err)
	}
	e.vrThread = t
	return nil
}

func (e *engine) StopVR() error {
	e.mu.Lock()
	t := e.vrThread
	e.mu.Unlock()
	if t == nil {
		return ErrVRInactive
	}

	t.IssueCommand(vr.CommandEndRender, 0)
	err := t.Wait()

	e.mu.Lock()
	if e.vrThread == t {
		e.vrThread = nil
		e.syncer.DetachVR()
	}
	e.mu.Unlock()
	return err
}

func (e *engine) VRActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vrThread != nil && e.vrThread.Active()
}

func (e *engine) SetVRRotation(x, y, z float64) error {
	e.mu.Lock()
	t := e.vrThread
	e.mu.Unlock()
	if t == nil || !t.Active() {
		return ErrVRInactive
	}
	t.IssueCommand(vr.CommandRotateX, x)
	t.IssueCommand(vr.CommandRotateY, y)
	t.IssueCommand(vr.CommandRotateZ, z)
	return nil
}

func (e *engine) onFileChanged(path string) {
	if _, err := e.ReloadFile(path); err != nil {
		common.Logger().Warn("auto-reload failed", "path", path, "err", err)
	}
}

func (e *engine) ReloadFile(path string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	reloaded := 0
	for _, p := range e.partsFrom(path) {
		src := p.Source()
		e.loader.Invalidate(src)
		pd, err := e.loader.Load(src)
		if err == nil {
			err = p.SetGeometry(pd)
		}
		if err != nil {
			common.Logger().Warn("reload failed; keeping previous geometry", "part", p.Name(), "path", src, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		reloaded++
	}
	if reloaded > 0 {
		e.scene.Render()
		common.Logger().Info("parts reloaded", "path", path, "count", reloaded)
	}
	return reloaded, firstErr
}

// partsFrom returns the parts whose source resolves to the same file as path. Caller holds mu.
func (e *engine) partsFrom(path string) []*part.Part {
	target := absPath(path)
	var out []*part.Part
	var walk func(p *part.Part)
	walk = func(p *part.Part) {
		for _, c := range p.Children() {
			if src := c.Source(); src != "" && absPath(src) == target {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e.tree.Root())
	return out
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}

// Run launches the tick and quit goroutines and blocks until Quit.
func (e *engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
	e.wg.Wait()

	e.shutdown()
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

func (e *engine) shutdown() {
	e.shutdownOnce.Do(func() {
		if err := e.StopVR(); err != nil && !errors.Is(err, ErrVRInactive) {
			common.Logger().Warn("vr session ended with error", "err", err)
		}
		if e.watcher != nil {
			if err := e.watcher.Close(); err != nil {
				common.Logger().Warn("failed to close file watcher", "err", err)
			}
		}
		e.mu.Lock()
		e.scene.RemoveAllActors()
		e.tree.Destroy()
		e.selection = nil
		e.mu.Unlock()
		common.Logger().Info("engine stopped")
	})
}

// handleEngine runs the fixed-rate tick loop. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("engine goroutine recovered from panic", "panic", r)
			e.Quit()
		}
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			e.tick(now.Sub(lastTick).Seconds())
			lastTick = now
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// tick rotates the selected parts when auto-rotation is on and redraws.
func (e *engine) tick(dt float64) {
	e.mu.Lock()
	if e.autoRotate != 0 && len(e.selection) > 0 {
		for _, p := range e.selection {
			if r := p.Renderable(); r != nil {
				r.RotateY(e.autoRotate)
			}
		}
		e.scene.Render()
	}
	callback := e.tickCallback
	profiling := e.profilingEnabled
	e.mu.Unlock()

	if callback != nil {
		callback(dt)
	}
	if profiling {
		e.profiler.Tick()
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()
	if !running {
		return
	}

	// non-blocking send; a pending update is replaced so the latest rate wins
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = true
	e.mu.Unlock()
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = false
	e.mu.Unlock()
}
