package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/go-gl/mathgl/mgl64"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeHeadlight follows the camera.
	LightTypeHeadlight LightType = iota

	// LightTypeScene is fixed in world space at Position.
	LightTypeScene
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu        sync.RWMutex
	lightType LightType
	position  mgl64.Vec3
	color     common.Color
	intensity float64
	enabled   bool
}

// Light is the scene light whose intensity the viewer exposes as a slider.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// Position returns the world-space position of a scene light.
	//
	// Returns:
	//   - mgl64.Vec3: the position
	Position() mgl64.Vec3

	// Color returns the light colour.
	//
	// Returns:
	//   - common.Color: the colour
	Color() common.Color

	// Intensity returns the intensity in [0, 1].
	//
	// Returns:
	//   - float64: the intensity
	Intensity() float64

	// SetIntensity sets the intensity, clamped to [0, 1].
	//
	// Parameters:
	//   - intensity: the new intensity
	SetIntensity(intensity float64)

	// Enabled returns whether the light contributes to rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled switches the light on or off.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates an enabled white light of the given type at full intensity.
//
// Parameters:
//   - lightType: the kind of light
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the new light
func NewLight(lightType LightType, options ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		color:     common.Color{R: 255, G: 255, B: 255},
		intensity: 1,
		enabled:   true,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl64.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

func (l *lightImpl) Color() common.Color {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *lightImpl) Intensity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intensity
}

func (l *lightImpl) SetIntensity(intensity float64) {
	l.mu.Lock()
	l.intensity = clampUnit(intensity)
	l.mu.Unlock()
}

func (l *lightImpl) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.mu.Unlock()
}

func clampUnit(v float64) float64 {
	return min(max(v, 0), 1)
}
