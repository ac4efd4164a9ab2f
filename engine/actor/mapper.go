package actor

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
)

// Mapper is the geometry connection of an Actor. One Mapper may be shared by several
// actors (the on-screen actor of a part and its VR counterparts), so swapping the input
// is visible to every holder at once.
type Mapper struct {
	input   atomic.Pointer[geometry.PolyData]
	version atomic.Uint64
}

// NewMapper creates a Mapper connected to pd, which may be nil.
//
// Parameters:
//   - pd: the initial input geometry
//
// Returns:
//   - *Mapper: the new mapper
func NewMapper(pd *geometry.PolyData) *Mapper {
	m := &Mapper{}
	m.SetInput(pd)
	return m
}

// SetInput atomically replaces the geometry the mapper draws. Readers either see the
// previous geometry or pd, never a partial state.
//
// Parameters:
//   - pd: the new input geometry
func (m *Mapper) SetInput(pd *geometry.PolyData) {
	m.input.Store(pd)
	m.version.Add(1)
}

// Input returns the current input geometry, or nil if none is connected.
func (m *Mapper) Input() *geometry.PolyData {
	return m.input.Load()
}

// Version counts SetInput calls; renderers use it to detect a swapped input.
func (m *Mapper) Version() uint64 {
	return m.version.Load()
}
