package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrascape/internal/heightfield"
)

func flatField(height float32) *heightfield.Heightfield {
	hf := heightfield.New(64, 256, 100)
	for i := range hf.Data {
		hf.Data[i] = height
	}
	return hf
}

func TestRaycastHitsFlatPlane(t *testing.T) {
	hf := flatField(0.2) // world height 20

	r := Raycast(mgl32.Vec3{0, 100, 0}, mgl32.Vec3{0, -1, 0}, 500, hf)
	require.True(t, r.Hit)
	assert.InDelta(t, 20, r.Point.Y(), 0.01)
	assert.InDelta(t, 80, r.Distance, 0.01)
}

func TestRaycastDiagonal(t *testing.T) {
	hf := flatField(0)

	r := Raycast(mgl32.Vec3{-50, 40, -50}, mgl32.Vec3{1, -1, 1}.Normalize(), 500, hf)
	require.True(t, r.Hit)
	assert.InDelta(t, 0, r.Point.Y(), 0.05)
	assert.InDelta(t, -10, r.Point.X(), 0.1)
	assert.InDelta(t, -10, r.Point.Z(), 0.1)
}

func TestRaycastMissesWhenPointingUp(t *testing.T) {
	hf := flatField(0)
	r := Raycast(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, 1, 0}, 500, hf)
	assert.False(t, r.Hit)
}

func TestRaycastStartBelowSurface(t *testing.T) {
	hf := flatField(0.5) // world height 50
	r := Raycast(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0}, 500, hf)
	require.True(t, r.Hit)
	assert.Equal(t, mgl32.Vec3{0, 10, 0}, r.Point)
}

func TestRaycastNilHeightfield(t *testing.T) {
	r := Raycast(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0}, 100, nil)
	assert.False(t, r.Hit)
}

func TestGroundLevel(t *testing.T) {
	hf := flatField(0.1) // world height 10
	assert.InDelta(t, 12.5, GroundLevel(0, 0, 2.5, hf), 0.01)
	assert.Equal(t, float32(2.5), GroundLevel(0, 0, 2.5, nil))
}
