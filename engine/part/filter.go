package part

import (
	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
)

// DefaultShrinkFactor is the factor used when shrink is enabled without an explicit value.
const DefaultShrinkFactor = 0.8

// ClipParams configures the clip filter. Geometry on the side the normal points away
// from is removed.
type ClipParams struct {
	Enabled bool
	Plane   common.Plane
}

// ShrinkParams configures the shrink filter. Factor must lie in (0, 1].
type ShrinkParams struct {
	Enabled bool
	Factor  float64
}

// FilterSet is the enabled-filter state of a part. The zero value has every filter off.
type FilterSet struct {
	Clip   ClipParams
	Shrink ShrinkParams
}

// Any reports whether at least one filter is enabled.
func (f FilterSet) Any() bool {
	return f.Clip.Enabled || f.Shrink.Enabled
}

// Apply derives processed geometry from original. It always starts from a fresh copy
// of original and runs the enabled filters in the fixed order shrink, clip, clean, so
// the result depends only on original and f. A nil original yields nil.
//
// Parameters:
//   - original: the as-loaded geometry; never modified
//
// Returns:
//   - *geometry.PolyData: the processed geometry, sharing no memory with original
func (f FilterSet) Apply(original *geometry.PolyData) *geometry.PolyData {
	if original == nil {
		return nil
	}
	out := original.Clone()
	if f.Shrink.Enabled {
		out = geometry.Shrink(out, f.Shrink.Factor)
	}
	if f.Clip.Enabled {
		out = geometry.Clip(out, f.Clip.Plane)
	}
	if f.Any() {
		out = geometry.Clean(out)
	}
	return out
}
