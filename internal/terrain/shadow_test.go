package terrain

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrascape/internal/graphics"
)

func TestSlotOffsetsAreSlotAligned(t *testing.T) {
	for slot := 0; slot < ShadowSlots; slot++ {
		off := SlotOffset(slot)
		assert.Zero(t, off%graphics.UniformSlotAlign, "slot %d", slot)
		assert.Equal(t, slot*256, off)
	}
	assert.Equal(t, 1280, ShadowBufferSize)
}

func matAt(buf []byte, offset int) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := 0; i < 16; i++ {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[offset+i*4:]))
	}
	return m
}

func TestShadowUniformImageLayout(t *testing.T) {
	slots := []ShadowSlot{
		{LightVP: mgl32.Translate3D(1, 0, 0), LightPos: mgl32.Vec3{10, 20, 30}},
		{LightVP: mgl32.Translate3D(2, 0, 0), LightPos: mgl32.Vec3{11, 21, 31}},
		{LightVP: mgl32.Translate3D(3, 0, 0), LightPos: mgl32.Vec3{12, 22, 32}},
		{LightVP: mgl32.Translate3D(4, 0, 0), LightPos: mgl32.Vec3{13, 23, 33}},
	}

	b := graphics.NewUniformBuilder(ShadowBufferSize)
	image := buildShadowUniformImage(b, slots, 1024, 160, 129, 1)
	require.Len(t, image, ShadowBufferSize)

	// Each written slot holds its own matrix: binding with offset
	// slot*256 makes exactly that matrix visible to the vertex stage.
	for i, s := range slots {
		off := SlotOffset(i)
		assert.Equal(t, s.LightVP, matAt(image, off), "slot %d", i)

		lp := off + 64
		assert.Equal(t, s.LightPos.X(), math.Float32frombits(binary.LittleEndian.Uint32(image[lp:])))
		assert.Equal(t, s.LightPos.Y(), math.Float32frombits(binary.LittleEndian.Uint32(image[lp+4:])))
		assert.Equal(t, s.LightPos.Z(), math.Float32frombits(binary.LittleEndian.Uint32(image[lp+8:])))

		params := off + 80
		assert.Equal(t, float32(1024), math.Float32frombits(binary.LittleEndian.Uint32(image[params:])))
		assert.Equal(t, float32(160), math.Float32frombits(binary.LittleEndian.Uint32(image[params+4:])))
		assert.Equal(t, float32(129), math.Float32frombits(binary.LittleEndian.Uint32(image[params+8:])))
		assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(image[params+12:])))
	}

	// The unwritten legacy slot is zero-filled.
	for i := SlotOffset(4); i < ShadowBufferSize; i++ {
		require.Zero(t, image[i], "byte %d", i)
	}
}

func TestShadowUniformImageDistinctMatricesStayDistinct(t *testing.T) {
	slots := make([]ShadowSlot, ShadowCascades)
	for i := range slots {
		slots[i] = ShadowSlot{LightVP: mgl32.HomogRotate3DY(float32(i) * 0.5)}
	}

	b := graphics.NewUniformBuilder(ShadowBufferSize)
	image := buildShadowUniformImage(b, slots, 512, 100, 65, 0.5)

	for i := 0; i < ShadowCascades; i++ {
		for j := i + 1; j < ShadowCascades; j++ {
			assert.NotEqual(t, matAt(image, SlotOffset(i)), matAt(image, SlotOffset(j)),
				"slots %d and %d", i, j)
		}
	}
}
