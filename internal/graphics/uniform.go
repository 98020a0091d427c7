package graphics

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformSlotAlign is the minimum alignment for dynamic uniform buffer
// ranges. Every CPU-side uniform struct is padded to a multiple of it so a
// slot index maps directly to a byte offset.
const UniformSlotAlign = 256

// UniformBuilder assembles the byte image of a GPU uniform block. Layout
// discipline is explicit: the caller appends fields in declaration order
// and pads exactly where the std140 rules require it, so the byte array
// mirrors the shader struct verbatim.
type UniformBuilder struct {
	buf []byte
}

// NewUniformBuilder returns a builder with the given initial capacity
func NewUniformBuilder(capacity int) *UniformBuilder {
	return &UniformBuilder{buf: make([]byte, 0, capacity)}
}

// Reset clears the builder for reuse without releasing its buffer
func (b *UniformBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the number of bytes appended so far
func (b *UniformBuilder) Len() int {
	return len(b.buf)
}

// Bytes returns the assembled buffer. The slice aliases builder storage and
// is valid until the next Reset.
func (b *UniformBuilder) Bytes() []byte {
	return b.buf
}

// Float appends one 32-bit float
func (b *UniformBuilder) Float(v float32) *UniformBuilder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, math.Float32bits(v))
	return b
}

// Uint appends one 32-bit unsigned integer
func (b *UniformBuilder) Uint(v uint32) *UniformBuilder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return b
}

// Bool appends a bool as a 32-bit uint slot
func (b *UniformBuilder) Bool(v bool) *UniformBuilder {
	if v {
		return b.Uint(1)
	}
	return b.Uint(0)
}

// Vec2 appends two floats
func (b *UniformBuilder) Vec2(v mgl32.Vec2) *UniformBuilder {
	return b.Float(v[0]).Float(v[1])
}

// Vec3 appends three floats. std140 aligns a vec3 to 16 bytes; the caller
// supplies the fourth component explicitly via Float or Pad4.
func (b *UniformBuilder) Vec3(v mgl32.Vec3) *UniformBuilder {
	return b.Float(v[0]).Float(v[1]).Float(v[2])
}

// Vec4 appends four floats
func (b *UniformBuilder) Vec4(v mgl32.Vec4) *UniformBuilder {
	return b.Float(v[0]).Float(v[1]).Float(v[2]).Float(v[3])
}

// Mat4 appends a column-major 4x4 matrix
func (b *UniformBuilder) Mat4(m mgl32.Mat4) *UniformBuilder {
	for i := 0; i < 16; i++ {
		b.Float(m[i])
	}
	return b
}

// Pad4 appends one zero float of padding
func (b *UniformBuilder) Pad4() *UniformBuilder {
	return b.Float(0)
}

// PadTo zero-fills until the length is a multiple of align
func (b *UniformBuilder) PadTo(align int) *UniformBuilder {
	for len(b.buf)%align != 0 {
		b.buf = append(b.buf, 0)
	}
	return b
}

// PadToSlot pads the buffer to the dynamic-offset slot alignment
func (b *UniformBuilder) PadToSlot() *UniformBuilder {
	return b.PadTo(UniformSlotAlign)
}
