package actor

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cad/common"
)

// DefaultColor is the colour assigned to a freshly created Property.
var DefaultColor = common.Color{R: 230, G: 0, B: 0}

// Property holds the material attributes of an Actor. Like Mapper it is shared by
// reference between an on-screen actor and its VR copies.
type Property struct {
	mu    sync.RWMutex
	color common.Color
}

// NewProperty creates a Property with the given colour.
//
// Parameters:
//   - c: the initial colour
//
// Returns:
//   - *Property: the new property
func NewProperty(c common.Color) *Property {
	return &Property{color: c}
}

func (p *Property) Color() common.Color {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.color
}

func (p *Property) SetColor(c common.Color) {
	p.mu.Lock()
	p.color = c
	p.mu.Unlock()
}
