// Package part holds the Part: one node of the viewer's ownership tree, carrying the
// display attributes of a loaded mesh, its filter pipeline, and the renderable that
// draws it.
package part

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/actor"
	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
	"github.com/Carmen-Shannon/oxy-cad/engine/loader"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidShrinkFactor is returned when shrink is enabled with a factor outside (0, 1].
	ErrInvalidShrinkFactor = errors.New("shrink factor must be in (0, 1]")

	// ErrInvalidClipNormal is returned when clip is enabled with a zero normal.
	ErrInvalidClipNormal = errors.New("clip normal must be non-zero")

	// ErrRootNotRenderable is returned when geometry is loaded into a root part.
	ErrRootNotRenderable = errors.New("root part cannot hold geometry")
)

// Column indices of the fixed display fields.
const (
	ColumnName = iota
	ColumnVisible
	columnCount
)

var headers = [columnCount]string{"Name", "Visible"}

// Decoder is the geometry-decoding collaborator. loader.Loader satisfies it.
type Decoder interface {
	Load(path string) (*geometry.PolyData, error)
}

// VisibilityFunc is called after a part's visibility flag changes.
type VisibilityFunc func(p *Part, visible bool)

// Part is a node of the ownership tree. A Part owns its children: removing a child
// destroys it and its whole subtree. The parent back-reference is set only by AppendChild.
type Part struct {
	mu sync.RWMutex

	root     bool
	name     string
	visible  bool
	color    common.Color
	source   string
	parent   *Part
	children []*Part

	original  *geometry.PolyData
	processed *geometry.PolyData
	filters   FilterSet

	// mapper and property are shared with every VR copy of the renderable
	mapper     *actor.Mapper
	property   *actor.Property
	renderable actor.Actor
	vrActors   []actor.Actor

	observers []VisibilityFunc
	destroyed bool
}

// NewRoot creates the header-only root of a tree. It is never renderable.
//
// Returns:
//   - *Part: the root part
func NewRoot() *Part {
	return &Part{root: true, name: headers[ColumnName], visible: true}
}

// NewPart creates a detached, visible part in actor.DefaultColor.
//
// Parameters:
//   - options: functional options to configure the part
//
// Returns:
//   - *Part: the new part
func NewPart(options ...PartBuilderOption) *Part {
	p := &Part{visible: true, color: actor.DefaultColor}
	for _, option := range options {
		option(p)
	}
	return p
}

// IsRoot reports whether p is a tree root.
func (p *Part) IsRoot() bool {
	return p.root
}

// --- Structure ---

// AppendChild moves child under p as its last child. A child still attached elsewhere
// is detached from its old parent first. Appending a root, p itself, or an ancestor of
// p is ignored.
//
// Parameters:
//   - child: the part to take ownership of
func (p *Part) AppendChild(child *Part) {
	if child == nil || child.root || child == p || child.isAncestorOf(p) {
		common.Logger().Warn("rejected append that would break the tree", "parent", p.Name(), "child", child.Name())
		return
	}

	if old := child.Parent(); old != nil {
		old.detach(child)
	}

	p.mu.Lock()
	p.children = append(p.children, child)
	p.mu.Unlock()

	child.mu.Lock()
	child.parent = p
	child.mu.Unlock()
}

func (p *Part) isAncestorOf(other *Part) bool {
	for cur := other; cur != nil; cur = cur.Parent() {
		if cur == p {
			return true
		}
	}
	return false
}

// detach unlinks child without destroying it.
func (p *Part) detach(child *Part) {
	p.mu.Lock()
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	p.mu.Unlock()

	child.mu.Lock()
	child.parent = nil
	child.mu.Unlock()
}

// RemoveChild unlinks the child at row and destroys it with its subtree. Out of range
// rows are ignored.
//
// Parameters:
//   - row: the child index
//
// Returns:
//   - bool: true if a child was removed
func (p *Part) RemoveChild(row int) bool {
	p.mu.Lock()
	if row < 0 || row >= len(p.children) {
		p.mu.Unlock()
		return false
	}
	child := p.children[row]
	p.children = append(p.children[:row], p.children[row+1:]...)
	p.mu.Unlock()

	child.mu.Lock()
	child.parent = nil
	child.mu.Unlock()

	child.Destroy()
	return true
}

// Child returns the child at row, or nil when row is out of range.
func (p *Part) Child(row int) *Part {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if row < 0 || row >= len(p.children) {
		return nil
	}
	return p.children[row]
}

// Children returns a snapshot of the child list.
func (p *Part) Children() []*Part {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Part, len(p.children))
	copy(out, p.children)
	return out
}

func (p *Part) ChildCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.children)
}

func (p *Part) HasChildren() bool {
	return p.ChildCount() > 0
}

func (p *Part) Parent() *Part {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.parent
}

// Row returns p's index in its parent's child list, or 0 for a detached part.
func (p *Part) Row() int {
	parent := p.Parent()
	if parent == nil {
		return 0
	}
	parent.mu.RLock()
	defer parent.mu.RUnlock()
	for i, c := range parent.children {
		if c == p {
			return i
		}
	}
	return 0
}

// ColumnCount returns the number of display fields.
func (p *Part) ColumnCount() int {
	return columnCount
}

// Data returns the display text of column. The root reports the column headers.
// Unknown columns yield "".
//
// Parameters:
//   - column: ColumnName or ColumnVisible
//
// Returns:
//   - string: the display text
func (p *Part) Data(column int) string {
	if column < 0 || column >= columnCount {
		return ""
	}
	if p.root {
		return headers[column]
	}
	switch column {
	case ColumnName:
		return p.Name()
	default:
		return strconv.FormatBool(p.Visible())
	}
}

// --- Attributes ---

func (p *Part) Name() string {
	if p == nil {
		return ""
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

func (p *Part) SetName(name string) {
	if p.root {
		return
	}
	p.mu.Lock()
	p.name = name
	p.mu.Unlock()
}

// Source returns the geometry file path, or "" if none was loaded.
func (p *Part) Source() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source
}

func (p *Part) Color() common.Color {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.color
}

// SetColor updates the colour and the shared material of the renderable, so the
// on-screen actor and every VR copy change together.
func (p *Part) SetColor(c common.Color) {
	p.mu.Lock()
	p.color = c
	prop := p.property
	p.mu.Unlock()

	if prop != nil {
		prop.SetColor(c)
	}
}

func (p *Part) Visible() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.visible
}

// SetVisible updates the visibility of the part and its on-screen renderable, then
// notifies visibility observers when the value changed.
func (p *Part) SetVisible(visible bool) {
	p.mu.Lock()
	changed := p.visible != visible
	p.visible = visible
	r := p.renderable
	observers := append([]VisibilityFunc(nil), p.observers...)
	p.mu.Unlock()

	if r != nil {
		r.SetVisible(visible)
	}
	if !changed {
		return
	}
	for _, fn := range observers {
		fn(p, visible)
	}
}

// OnVisibilityChanged registers fn to run after every visibility change.
func (p *Part) OnVisibilityChanged(fn VisibilityFunc) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

// --- Geometry ---

// LoadGeometry decodes path through dec and installs the result with SetGeometry.
// A decode failure or an empty mesh leaves the part without geometry and without a
// renderable; the failure is logged as a warning and returned for callers that care.
//
// Parameters:
//   - dec: the geometry decoder
//   - path: the file to decode
//
// Returns:
//   - error: the wrapped decode error, or an error wrapping loader.ErrEmptyGeometry
func (p *Part) LoadGeometry(dec Decoder, path string) error {
	if p.root {
		return ErrRootNotRenderable
	}
	p.mu.Lock()
	p.source = path
	p.mu.Unlock()

	pd, err := dec.Load(path)
	if err == nil && pd.Empty() {
		err = fmt.Errorf("%s: %w", path, loader.ErrEmptyGeometry)
	}
	if err != nil {
		common.Logger().Warn("geometry not loaded; part left without renderable", "part", p.Name(), "path", path, "error", err)
		return err
	}
	return p.SetGeometry(pd)
}

// SetGeometry captures a deep copy of pd as the original geometry and re-runs the
// filter pipeline. The first call creates the renderable; later calls keep it and
// swap its input. Filter settings are preserved.
//
// Parameters:
//   - pd: the new original geometry; must be non-empty
//
// Returns:
//   - error: ErrRootNotRenderable, or loader.ErrEmptyGeometry for an empty mesh
func (p *Part) SetGeometry(pd *geometry.PolyData) error {
	if p.root {
		return ErrRootNotRenderable
	}
	if pd.Empty() {
		return loader.ErrEmptyGeometry
	}

	p.mu.Lock()
	p.original = pd.Clone()
	if p.renderable == nil && !p.destroyed {
		p.mapper = actor.NewMapper(nil)
		p.property = actor.NewProperty(p.color)
		p.renderable = actor.NewActor(
			actor.WithMapper(p.mapper),
			actor.WithProperty(p.property),
			actor.WithVisible(p.visible),
		)
	}
	p.mu.Unlock()

	p.Recompute()
	return nil
}

// HasGeometry reports whether original geometry is loaded.
func (p *Part) HasGeometry() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.original != nil
}

// Original returns the immutable as-loaded geometry, or nil.
func (p *Part) Original() *geometry.PolyData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.original
}

// Processed returns the current filter output, or nil.
func (p *Part) Processed() *geometry.PolyData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.processed
}

// Filters returns the current filter settings.
func (p *Part) Filters() FilterSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filters
}

// DefaultClipPlane returns the plane through the centre of the original geometry's
// bounds with normal +X. Without geometry the plane passes through the origin.
func (p *Part) DefaultClipPlane() common.Plane {
	return common.Plane{Origin: p.Original().Center(), Normal: mgl64.Vec3{1, 0, 0}}
}

// ApplyClipFilter enables or disables the clip filter and recomputes the pipeline.
// Without geometry the call does nothing.
//
// Parameters:
//   - enable: true to enable clipping
//   - origin: a point on the clip plane
//   - normal: the plane normal; the kept side is the one it points into
//
// Returns:
//   - error: ErrInvalidClipNormal if enabling with a zero normal
func (p *Part) ApplyClipFilter(enable bool, origin, normal mgl64.Vec3) error {
	plane := common.Plane{Origin: origin, Normal: normal}
	if enable && !plane.Valid() {
		return ErrInvalidClipNormal
	}
	if !p.HasGeometry() {
		return nil
	}

	p.mu.Lock()
	p.filters.Clip = ClipParams{Enabled: enable, Plane: plane}
	p.mu.Unlock()

	p.Recompute()
	return nil
}

// ApplyShrinkFilter enables or disables the shrink filter and recomputes the pipeline.
// Without geometry the call does nothing.
//
// Parameters:
//   - enable: true to enable shrinking
//   - factor: the shrink factor in (0, 1]
//
// Returns:
//   - error: ErrInvalidShrinkFactor if enabling with a factor outside (0, 1]
func (p *Part) ApplyShrinkFilter(enable bool, factor float64) error {
	if enable && (factor <= 0 || factor > 1) {
		return fmt.Errorf("%g: %w", factor, ErrInvalidShrinkFactor)
	}
	if !p.HasGeometry() {
		return nil
	}

	p.mu.Lock()
	p.filters.Shrink = ShrinkParams{Enabled: enable, Factor: factor}
	p.mu.Unlock()

	p.Recompute()
	return nil
}

// Recompute re-derives processed geometry from the original and the current filters,
// then swaps it into the shared mapper in one step.
func (p *Part) Recompute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.original == nil {
		return
	}
	p.processed = p.filters.Apply(p.original)
	if p.mapper != nil {
		p.mapper.SetInput(p.processed)
	}
}

// --- Renderables ---

// Renderable returns the on-screen actor, or nil when no geometry is loaded. The actor
// is shared; callers must not release it.
func (p *Part) Renderable() actor.Actor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.renderable
}

// NewVRRenderable builds a new actor that shares the on-screen actor's mapper and
// property but owns its transform and visibility. Returns nil without geometry.
//
// Returns:
//   - actor.Actor: the new VR actor, released when the part is destroyed
func (p *Part) NewVRRenderable() actor.Actor {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderable == nil || p.destroyed {
		return nil
	}
	a := actor.NewActor(
		actor.WithMapper(p.mapper),
		actor.WithProperty(p.property),
		actor.WithVisible(p.visible),
	)
	p.vrActors = append(p.vrActors, a)
	return a
}

// ReleaseVRRenderables releases every VR actor built by NewVRRenderable and forgets
// them. The on-screen renderable is untouched.
func (p *Part) ReleaseVRRenderables() {
	p.mu.Lock()
	vrActors := p.vrActors
	p.vrActors = nil
	p.mu.Unlock()

	for _, a := range vrActors {
		a.Release()
	}
}

// --- Lifecycle ---

// Destroy tears down the subtree rooted at p in post-order: every descendant is
// destroyed before p releases its own renderables. Calling it twice is harmless.
func (p *Part) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	children := p.children
	p.children = nil
	p.mu.Unlock()

	for _, c := range children {
		c.mu.Lock()
		c.parent = nil
		c.mu.Unlock()
		c.Destroy()
	}

	p.mu.Lock()
	if p.renderable != nil {
		p.renderable.Release()
	}
	for _, a := range p.vrActors {
		a.Release()
	}
	p.vrActors = nil
	p.observers = nil
	p.mu.Unlock()
}

// Destroyed reports whether Destroy has run.
func (p *Part) Destroyed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.destroyed
}
