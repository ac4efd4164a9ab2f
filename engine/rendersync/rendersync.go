// Package rendersync maps the part tree onto the actor sets of the on-screen scene and
// of an active VR thread.
package rendersync

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/actor"
	"github.com/Carmen-Shannon/oxy-cad/engine/part"
	"github.com/Carmen-Shannon/oxy-cad/engine/parttree"
	"github.com/Carmen-Shannon/oxy-cad/engine/scene"
	"github.com/Carmen-Shannon/oxy-cad/engine/vr"
)

const (
	// DefaultAzimuth is the camera azimuth applied after each camera reset.
	DefaultAzimuth = 30.0

	// DefaultElevation is the camera elevation applied after each camera reset.
	DefaultElevation = 30.0
)

// Result summarizes one Sync.
type Result struct {
	// Visited is the number of parts walked.
	Visited int

	// OnScreen is the number of actors placed in the on-screen scene.
	OnScreen int

	// VR is the number of actors handed to the VR thread.
	VR int
}

// syncer is the implementation of the Syncer interface.
type syncer struct {
	mu          sync.Mutex
	tree        parttree.Tree
	scene       scene.Scene
	vrThread    vr.Thread
	vrActors    map[*part.Part]actor.Actor
	resetCamera bool
	azimuth     float64
	elevation   float64
}

// Syncer rebuilds the on-screen actor set from the part tree, always as a full resync,
// and feeds VR copies of the visible parts to an attached VR thread.
type Syncer interface {
	// Sync removes every actor from the on-screen scene, walks the tree depth-first in
	// pre-order and adds the renderable of each visible part. Parts without geometry are
	// skipped. With a VR thread attached, each visible part also gets a VR actor, built
	// once per session and reused afterwards: offline registration while the loop is not
	// running, otherwise the pending queue is cleared and refilled. Finally the camera is
	// reset and the scene rendered.
	//
	// Returns:
	//   - Result: counts for the pass
	Sync() Result

	// AttachVR starts a VR session for this syncer. VR actors built for a previous
	// session are forgotten.
	//
	// Parameters:
	//   - t: the VR thread
	AttachVR(t vr.Thread)

	// DetachVR ends the VR session for this syncer.
	DetachVR()

	// VR returns the attached thread or nil.
	//
	// Returns:
	//   - vr.Thread: the VR thread
	VR() vr.Thread

	// VRActor returns the VR actor built for p in the current session, or nil.
	//
	// Parameters:
	//   - p: the part
	//
	// Returns:
	//   - actor.Actor: the VR actor
	VRActor(p *part.Part) actor.Actor
}

var _ Syncer = &syncer{}

// NewSyncer creates a Syncer between a part tree and the on-screen scene.
//
// Parameters:
//   - tree: the part tree
//   - s: the on-screen scene
//   - options: functional options to configure the syncer
//
// Returns:
//   - Syncer: the new syncer
func NewSyncer(tree parttree.Tree, s scene.Scene, options ...SyncerBuilderOption) Syncer {
	sy := &syncer{
		tree:        tree,
		scene:       s,
		vrActors:    make(map[*part.Part]actor.Actor),
		resetCamera: true,
		azimuth:     DefaultAzimuth,
		elevation:   DefaultElevation,
	}
	for _, opt := range options {
		opt(sy)
	}
	return sy
}

func (s *syncer) Sync() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	s.scene.RemoveAllActors()

	idle := false
	if s.vrThread != nil {
		idle = !s.vrThread.Active()
		if !idle {
			s.vrThread.ClearAllActors()
		}
		s.pruneVRActors()
	}

	for _, top := range s.tree.Root().Children() {
		s.visit(top, idle, &res)
	}

	if s.resetCamera {
		s.scene.ResetCamera()
		cam := s.scene.Camera()
		cam.Azimuth(s.azimuth)
		cam.Elevation(s.elevation)
	}
	s.scene.Render()

	common.Logger().Debug("render sync", "visited", res.Visited, "on_screen", res.OnScreen, "vr", res.VR)
	return res
}

func (s *syncer) visit(p *part.Part, vrIdle bool, res *Result) {
	res.Visited++
	if p.Visible() {
		if r := p.Renderable(); r != nil {
			s.scene.AddActor(r)
			res.OnScreen++
			if s.vrThread != nil {
				s.publishVR(p, vrIdle, res)
			}
		}
	} else if a := s.vrActors[p]; a != nil {
		a.SetVisible(false)
	}

	if !p.HasChildren() {
		return
	}
	for _, c := range p.Children() {
		s.visit(c, vrIdle, res)
	}
}

// publishVR hands the part's VR actor to the thread. Caller holds mu.
func (s *syncer) publishVR(p *part.Part, idle bool, res *Result) {
	a := s.vrActors[p]
	if a == nil {
		a = p.NewVRRenderable()
		if a == nil {
			return
		}
		s.vrActors[p] = a
	}
	a.SetVisible(true)

	var err error
	if idle {
		err = s.vrThread.AddActorOffline(a)
	} else {
		err = s.vrThread.QueueActor(a)
	}
	if err != nil {
		common.Logger().Warn("failed to publish vr actor", "part", p.Name(), "err", err)
		return
	}
	res.VR++
}

// pruneVRActors forgets VR actors of destroyed parts. Caller holds mu.
func (s *syncer) pruneVRActors() {
	for p, a := range s.vrActors {
		if p.Destroyed() || a.Released() {
			delete(s.vrActors, p)
		}
	}
}

func (s *syncer) AttachVR(t vr.Thread) {
	s.mu.Lock()
	s.vrThread = t
	s.releaseVRActors()
	s.mu.Unlock()
}

func (s *syncer) DetachVR() {
	s.mu.Lock()
	s.vrThread = nil
	s.releaseVRActors()
	s.mu.Unlock()
}

// releaseVRActors drops the previous session's VR copies. Caller holds mu.
func (s *syncer) releaseVRActors() {
	for p := range s.vrActors {
		p.ReleaseVRRenderables()
	}
	clear(s.vrActors)
}

func (s *syncer) VR() vr.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vrThread
}

func (s *syncer) VRActor(p *part.Part) actor.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vrActors[p]
}
