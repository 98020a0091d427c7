package graphics

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFloat(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func TestUniformBuilderFieldOffsets(t *testing.T) {
	b := NewUniformBuilder(64)
	b.Float(1.5)
	b.Pad4().Pad4().Pad4() // align the following vec4 to 16
	b.Vec4(mgl32.Vec4{2, 3, 4, 5})

	buf := b.Bytes()
	require.Equal(t, 32, len(buf))
	assert.Equal(t, float32(1.5), readFloat(buf, 0))
	assert.Equal(t, float32(2), readFloat(buf, 16))
	assert.Equal(t, float32(5), readFloat(buf, 28))
}

func TestUniformBuilderMat4IsColumnMajor(t *testing.T) {
	m := mgl32.Translate3D(7, 8, 9)
	b := NewUniformBuilder(64).Mat4(m)

	buf := b.Bytes()
	require.Equal(t, 64, len(buf))
	// Translation lives in the fourth column: elements 12..14.
	assert.Equal(t, float32(7), readFloat(buf, 12*4))
	assert.Equal(t, float32(8), readFloat(buf, 13*4))
	assert.Equal(t, float32(9), readFloat(buf, 14*4))
}

func TestUniformBuilderVec3NeedsExplicitPadding(t *testing.T) {
	b := NewUniformBuilder(16).Vec3(mgl32.Vec3{1, 2, 3}).Pad4()
	assert.Equal(t, 16, b.Len())
}

func TestUniformBuilderPadToSlot(t *testing.T) {
	b := NewUniformBuilder(256)
	b.Mat4(mgl32.Ident4()).Vec3(mgl32.Vec3{1, 2, 3}).Pad4()
	require.Equal(t, 80, b.Len())

	b.PadToSlot()
	assert.Equal(t, UniformSlotAlign, b.Len())

	// Padding must be zero-filled.
	for i := 80; i < b.Len(); i++ {
		require.Zero(t, b.Bytes()[i], "byte %d", i)
	}
}

func TestUniformBuilderBoolOccupiesFullSlot(t *testing.T) {
	b := NewUniformBuilder(8).Bool(true).Bool(false)
	require.Equal(t, 8, b.Len())
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b.Bytes()[0:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(b.Bytes()[4:]))
}

func TestUniformBuilderReset(t *testing.T) {
	b := NewUniformBuilder(32).Float(1).Float(2)
	b.Reset()
	assert.Zero(t, b.Len())
	b.Float(3)
	assert.Equal(t, float32(3), readFloat(b.Bytes(), 0))
}
