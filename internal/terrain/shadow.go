package terrain

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"terrascape/internal/graphics"
	"terrascape/internal/profiling"
)

const (
	// ShadowCascades is the number of cascade slots.
	ShadowCascades = 4
	// ShadowSlots adds the legacy single-map slot after the cascades.
	ShadowSlots = ShadowCascades + 1
	// ShadowSlotSize is the stride of one uniform slot; dynamic offsets
	// must be multiples of it.
	ShadowSlotSize = graphics.UniformSlotAlign
	// ShadowBufferSize is the full dynamic uniform buffer: 1280 bytes.
	ShadowBufferSize = ShadowSlots * ShadowSlotSize
)

// SlotOffset returns the byte offset of a shadow uniform slot
func SlotOffset(slot int) int {
	return slot * ShadowSlotSize
}

// ShadowSlot is the per-cascade payload written once per frame
type ShadowSlot struct {
	LightVP  mgl32.Mat4
	LightPos mgl32.Vec3
}

// buildShadowUniformImage assembles the full five-slot buffer image. Slots
// beyond the provided ones are zero-filled; every slot starts on a 256-byte
// boundary so a slot index maps directly to a dynamic offset.
func buildShadowUniformImage(b *graphics.UniformBuilder, slots []ShadowSlot, terrainSize, heightScale float32, gridSize int, skirtDepth float32) []byte {
	b.Reset()
	for i := 0; i < ShadowSlots; i++ {
		if i < len(slots) {
			s := slots[i]
			b.Mat4(s.LightVP)
			b.Vec3(s.LightPos).Pad4()
			b.Float(terrainSize).Float(heightScale).Float(float32(gridSize)).Float(skirtDepth)
		}
		for b.Len() < (i+1)*ShadowSlotSize {
			b.Pad4()
		}
	}
	return b.Bytes()
}

// ShadowPass renders terrain depth from up to four light views for
// cascaded shadow mapping. All cascades share one uniform buffer; each
// draw binds its 256-byte slot with a dynamic offset.
type ShadowPass struct {
	prog *graphics.Shader
	ubo  uint32

	depthArray uint32
	fbos       [ShadowCascades]uint32
	mapSize    int

	gridSize   int
	skirtDepth float32

	builder *graphics.UniformBuilder
	written bool
}

// NewShadowPass builds the depth-only pipeline and its render targets
func NewShadowPass(mapSize, gridSize int, skirtDepth float32) (*ShadowPass, error) {
	prog, err := graphics.NewShader(ShadowVertexShader, ShadowFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("shadow pipeline: %v", err)
	}

	s := &ShadowPass{
		prog:       prog,
		mapSize:    mapSize,
		gridSize:   gridSize,
		skirtDepth: skirtDepth,
		builder:    graphics.NewUniformBuilder(ShadowBufferSize),
	}

	s.depthArray, err = graphics.NewDepthTextureArray(mapSize, ShadowCascades)
	if err != nil {
		prog.Delete()
		return nil, err
	}

	for i := range s.fbos {
		gl.CreateFramebuffers(1, &s.fbos[i])
		gl.NamedFramebufferTextureLayer(s.fbos[i], gl.DEPTH_ATTACHMENT, s.depthArray, 0, int32(i))
		gl.NamedFramebufferDrawBuffer(s.fbos[i], gl.NONE)
		if status := gl.CheckNamedFramebufferStatus(s.fbos[i], gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
			return nil, fmt.Errorf("shadow framebuffer %d incomplete (status 0x%x)", i, status)
		}
	}

	gl.CreateBuffers(1, &s.ubo)
	gl.NamedBufferData(s.ubo, ShadowBufferSize, nil, gl.DYNAMIC_DRAW)
	return s, nil
}

// DepthArray returns the cascade depth texture for main-pass sampling
func (s *ShadowPass) DepthArray() uint32 {
	return s.depthArray
}

// WriteShadowUniforms uploads all cascade slots for the frame. Must be
// called before any RenderSlot.
func (s *ShadowPass) WriteShadowUniforms(slots []ShadowSlot, terrainSize, heightScale float32) {
	image := buildShadowUniformImage(s.builder, slots, terrainSize, heightScale, s.gridSize, s.skirtDepth)
	gl.NamedBufferSubData(s.ubo, 0, len(image), gl.Ptr(image))
	s.written = true
}

// RenderSlot renders one depth-only pass for the given slot using the
// instances currently staged in the renderer. An empty selection renders
// nothing. The previously bound framebuffer is not restored.
func (s *ShadowPass) RenderSlot(slot int, r *PatchRenderer, heightmap, islandMask uint32) error {
	if slot < 0 || slot >= ShadowSlots {
		return fmt.Errorf("shadow slot %d out of range", slot)
	}
	if !s.written {
		return fmt.Errorf("shadow uniforms not written this frame")
	}
	defer profiling.Track("terrain.RenderShadow")()

	// The legacy single-map slot renders into the first layer.
	layer := slot
	if layer >= ShadowCascades {
		layer = 0
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbos[layer])
	gl.Viewport(0, 0, int32(s.mapSize), int32(s.mapSize))
	gl.ClearDepth(1)
	gl.Clear(gl.DEPTH_BUFFER_BIT)

	if r.InstanceCount() == 0 {
		return nil
	}

	// Shadow depth uses the standard convention, unlike the reversed-Z
	// main pass.
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	s.prog.Use()
	gl.BindBufferRange(gl.UNIFORM_BUFFER, 2, s.ubo, SlotOffset(slot), ShadowSlotSize)
	gl.BindTextureUnit(0, heightmap)
	gl.BindTextureUnit(2, islandMask)

	gl.BindVertexArray(r.VAO())
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(len(r.Mesh().Indices)), gl.UNSIGNED_INT, nil, int32(r.InstanceCount()))
	gl.BindVertexArray(0)
	return nil
}

// EndFrame resets the per-frame write guard
func (s *ShadowPass) EndFrame() {
	s.written = false
}

// Dispose releases the pass's GPU objects
func (s *ShadowPass) Dispose() {
	for i := range s.fbos {
		if s.fbos[i] != 0 {
			gl.DeleteFramebuffers(1, &s.fbos[i])
		}
	}
	graphics.DeleteTexture(s.depthArray)
	if s.ubo != 0 {
		gl.DeleteBuffers(1, &s.ubo)
	}
	if s.prog != nil {
		s.prog.Delete()
	}
}
