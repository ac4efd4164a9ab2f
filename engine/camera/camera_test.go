package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, c.Position())
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, c.ViewUp())
	assert.Equal(t, 30.0, c.ViewAngle())
}

func TestAzimuthKeepsDistance(t *testing.T) {
	c := NewCamera()
	c.Azimuth(90)
	assert.True(t, common.VecNear(c.Position(), mgl64.Vec3{1, 0, 0}, 1e-9), "got %v", c.Position())
	assert.InDelta(t, 1.0, c.Distance(), 1e-9)
}

func TestElevationRaisesEye(t *testing.T) {
	c := NewCamera()
	c.Elevation(30)
	p := c.Position()
	assert.InDelta(t, math.Sin(mgl64.DegToRad(30)), p[1], 1e-9)
	assert.InDelta(t, 0.0, c.ViewUp().Dot(c.FocalPoint().Sub(p).Normalize()), 1e-9)
}

func TestResetFramesBox(t *testing.T) {
	c := NewCamera()
	c.Reset(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{3, 1, 1})

	assert.Equal(t, mgl64.Vec3{1, 0, 0}, c.FocalPoint())
	radius := math.Sqrt(16+4+4) / 2
	want := radius / math.Sin(mgl64.DegToRad(15))
	assert.InDelta(t, want, c.Distance(), 1e-9)
	// view direction is kept
	assert.True(t, common.VecNear(c.Position().Sub(c.FocalPoint()).Normalize(), mgl64.Vec3{0, 0, 1}, 1e-9))
}

func TestViewMatrixMapsFocalPointOntoAxis(t *testing.T) {
	c := NewCamera(WithPosition(mgl64.Vec3{0, 0, 10}))
	p := mgl64.TransformCoordinate(c.FocalPoint(), c.ViewMatrix())
	assert.True(t, common.VecNear(p, mgl64.Vec3{0, 0, -10}, 1e-9))
}
