package part

import "github.com/Carmen-Shannon/oxy-cad/common"

// PartBuilderOption is a functional option for configuring a Part during construction.
type PartBuilderOption func(*Part)

// WithName sets the display name of the Part.
//
// Parameters:
//   - name: the display name
//
// Returns:
//   - PartBuilderOption: functional option to set the name
func WithName(name string) PartBuilderOption {
	return func(p *Part) {
		p.name = name
	}
}

// WithVisible sets the initial visibility of the Part.
//
// Parameters:
//   - visible: true to show the part
//
// Returns:
//   - PartBuilderOption: functional option to set visibility
func WithVisible(visible bool) PartBuilderOption {
	return func(p *Part) {
		p.visible = visible
	}
}

// WithColor sets the initial colour of the Part.
//
// Parameters:
//   - c: the colour
//
// Returns:
//   - PartBuilderOption: functional option to set the colour
func WithColor(c common.Color) PartBuilderOption {
	return func(p *Part) {
		p.color = c
	}
}

// WithSource records the file the Part's geometry comes from.
//
// Parameters:
//   - path: the geometry file path
//
// Returns:
//   - PartBuilderOption: functional option to set the source path
func WithSource(path string) PartBuilderOption {
	return func(p *Part) {
		p.source = path
	}
}
