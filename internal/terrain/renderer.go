package terrain

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"terrascape/internal/config"
	"terrascape/internal/graphics"
	"terrascape/internal/profiling"
)

// Scene environment capability bits. The renderer binds only the subset of
// shared GPU data the mask announces.
const (
	CapIBLDiffuse uint32 = 1 << 0
	CapShadowMaps uint32 = 1 << 1
)

// LightParams describes the single directional light
type LightParams struct {
	Direction mgl32.Vec3 // toward the light
	Intensity float32
	Color     mgl32.Vec3
	Ambient   float32
}

// SceneEnvironment is the host-supplied shared lighting data: diffuse
// irradiance and cascade shadow maps, gated by the capability mask.
type SceneEnvironment struct {
	Capabilities uint32

	Irradiance uint32 // cubemap handle, CapIBLDiffuse
	ShadowMaps uint32 // depth array handle, CapShadowMaps

	CascadeVP     [ShadowCascades]mgl32.Mat4
	CascadeSplits [ShadowCascades]float32
	CascadeCount  int
}

// RenderParams carries everything one draw needs. All handles are borrowed
// for the duration of the call.
type RenderParams struct {
	ViewProj  mgl32.Mat4
	Model     mgl32.Mat4
	CameraPos mgl32.Vec3

	Light LightParams
	Env   *SceneEnvironment

	Heightmap  uint32
	NormalMap  uint32
	IslandMask uint32

	TerrainSize   float32
	HeightScale   float32
	IslandEnabled bool
	SeaFloorDepth float32

	Detail    config.Detail
	Wireframe bool
	DebugLOD  bool
}

// PatchRenderer draws the shared grid mesh once per selected quadtree node
// using per-instance offset/scale/morph records.
type PatchRenderer struct {
	mesh *GridMesh
	lod  config.LOD

	vao         uint32
	vbo         uint32
	ebo         uint32
	instanceVBO uint32

	sceneUBO    uint32
	materialUBO uint32
	cascadeUBO  uint32

	solid *graphics.Shader
	wire  *graphics.Shader

	defaultHeight uint32
	defaultNormal uint32
	defaultMask   uint32
	defaultShadow uint32
	defaultIBL    uint32

	instanceScratch []float32
	instanceCount   int32

	// ClippedLastFrame counts selected nodes dropped at upload because the
	// selection exceeded MaxInstances.
	ClippedLastFrame int

	sceneBuilder   *graphics.UniformBuilder
	cascadeBuilder *graphics.UniformBuilder
}

// NewPatchRenderer builds the shared mesh, pipelines and GPU buffers
func NewPatchRenderer(lod config.LOD) (*PatchRenderer, error) {
	mesh, err := NewGridMesh(lod.GridSize)
	if err != nil {
		return nil, err
	}

	r := &PatchRenderer{
		mesh:            mesh,
		lod:             lod,
		instanceScratch: make([]float32, 0, lod.MaxInstances*InstanceStride),
		sceneBuilder:    graphics.NewUniformBuilder(graphics.UniformSlotAlign),
		cascadeBuilder:  graphics.NewUniformBuilder(2 * graphics.UniformSlotAlign),
	}

	r.solid, err = graphics.NewShader(TerrainVertexShader, TerrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain pipeline: %v", err)
	}
	r.wire, err = graphics.NewShader(TerrainVertexShader, WireframeFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("wireframe pipeline: %v", err)
	}

	r.setupBuffers()
	r.defaultHeight = graphics.Default1x1(0.5)
	r.defaultNormal = graphics.Default1x1Normal()
	r.defaultMask = graphics.Default1x1(1)
	r.defaultShadow = graphics.Default1x1DepthArray(ShadowCascades)
	r.defaultIBL = graphics.Default1x1Cube()

	r.SetMaterial(config.DefaultTerrain().Material)
	return r, nil
}

func (r *PatchRenderer) setupBuffers() {
	gl.CreateVertexArrays(1, &r.vao)

	gl.CreateBuffers(1, &r.vbo)
	gl.NamedBufferData(r.vbo, len(r.mesh.Vertices)*4, gl.Ptr(r.mesh.Vertices), gl.STATIC_DRAW)
	gl.CreateBuffers(1, &r.ebo)
	gl.NamedBufferData(r.ebo, len(r.mesh.Indices)*4, gl.Ptr(r.mesh.Indices), gl.STATIC_DRAW)

	gl.CreateBuffers(1, &r.instanceVBO)
	gl.NamedBufferData(r.instanceVBO, r.lod.MaxInstances*InstanceStride*4, nil, gl.DYNAMIC_DRAW)

	gl.VertexArrayVertexBuffer(r.vao, 0, r.vbo, 0, VertexStride*4)
	gl.VertexArrayVertexBuffer(r.vao, 1, r.instanceVBO, 0, InstanceStride*4)
	gl.VertexArrayElementBuffer(r.vao, r.ebo)

	// Per-vertex: local XZ, UV, skirt flag.
	gl.EnableVertexArrayAttrib(r.vao, 0)
	gl.VertexArrayAttribFormat(r.vao, 0, 2, gl.FLOAT, false, 0)
	gl.VertexArrayAttribBinding(r.vao, 0, 0)
	gl.EnableVertexArrayAttrib(r.vao, 1)
	gl.VertexArrayAttribFormat(r.vao, 1, 2, gl.FLOAT, false, 2*4)
	gl.VertexArrayAttribBinding(r.vao, 1, 0)
	gl.EnableVertexArrayAttrib(r.vao, 2)
	gl.VertexArrayAttribFormat(r.vao, 2, 1, gl.FLOAT, false, 4*4)
	gl.VertexArrayAttribBinding(r.vao, 2, 0)

	// Per-instance: record split as vec4 + float.
	gl.EnableVertexArrayAttrib(r.vao, 3)
	gl.VertexArrayAttribFormat(r.vao, 3, 4, gl.FLOAT, false, 0)
	gl.VertexArrayAttribBinding(r.vao, 3, 1)
	gl.EnableVertexArrayAttrib(r.vao, 4)
	gl.VertexArrayAttribFormat(r.vao, 4, 1, gl.FLOAT, false, 4*4)
	gl.VertexArrayAttribBinding(r.vao, 4, 1)
	gl.VertexArrayBindingDivisor(r.vao, 1, 1)

	gl.CreateBuffers(1, &r.sceneUBO)
	gl.NamedBufferData(r.sceneUBO, graphics.UniformSlotAlign, nil, gl.DYNAMIC_DRAW)
	gl.CreateBuffers(1, &r.materialUBO)
	gl.NamedBufferData(r.materialUBO, graphics.UniformSlotAlign, nil, gl.DYNAMIC_DRAW)
	gl.CreateBuffers(1, &r.cascadeUBO)
	gl.NamedBufferData(r.cascadeUBO, 2*graphics.UniformSlotAlign, nil, gl.DYNAMIC_DRAW)
}

// UploadSelection rewrites the instance buffer from a selection pass.
// Nodes beyond MaxInstances are clipped silently in traversal order.
func (r *PatchRenderer) UploadSelection(sel *Selection) {
	defer profiling.Track("terrain.UploadSelection")()

	r.instanceScratch, r.ClippedLastFrame = BuildInstanceData(
		r.instanceScratch, sel.Nodes, r.lod.MaxInstances, r.lod.MaxLodLevels, r.lod.GridSize)
	r.instanceCount = int32(len(r.instanceScratch) / InstanceStride)
	if r.instanceCount > 0 {
		gl.NamedBufferSubData(r.instanceVBO, 0, len(r.instanceScratch)*4, gl.Ptr(r.instanceScratch))
	}
}

// InstanceCount returns the number of instances staged for drawing
func (r *PatchRenderer) InstanceCount() int {
	return int(r.instanceCount)
}

// SetMaterial rewrites the material uniform block. Takes effect next frame.
func (r *PatchRenderer) SetMaterial(m config.Material) {
	b := graphics.NewUniformBuilder(graphics.UniformSlotAlign)
	b.Vec3(m.GrassColor).Float(m.BeachHeight)
	b.Vec3(m.RockColor).Float(m.SnowHeight)
	b.Vec3(m.SnowColor).Float(m.RockSlope)
	b.Vec3(m.DirtColor).Float(m.BlendSharp)
	b.Vec3(m.BeachColor).Pad4()
	b.PadToSlot()
	gl.NamedBufferSubData(r.materialUBO, 0, b.Len(), gl.Ptr(b.Bytes()))
}

func (r *PatchRenderer) writeSceneUniforms(p RenderParams) {
	caps := uint32(0)
	if p.Env != nil {
		caps = p.Env.Capabilities
	}

	b := r.sceneBuilder
	b.Reset()
	b.Mat4(p.ViewProj)
	b.Mat4(p.Model)
	b.Vec3(p.CameraPos).Pad4()
	b.Vec3(p.Light.Direction.Normalize()).Float(p.Light.Intensity)
	b.Vec3(p.Light.Color).Float(p.Light.Ambient)
	b.Float(p.TerrainSize).Float(p.HeightScale).Float(float32(r.lod.GridSize)).Float(r.lod.SkirtDepthMultiplier)
	// Flags live in float lanes of a vec4; the shader tests them with > 0.5.
	b.Float(p.SeaFloorDepth).Float(flag(p.IslandEnabled)).Float(flag(p.DebugLOD)).Float(float32(caps))
	b.Float(p.Detail.Amplitude).Float(p.Detail.Frequency).Float(flag(p.Detail.Enabled)).Pad4()
	b.PadToSlot()
	gl.NamedBufferSubData(r.sceneUBO, 0, b.Len(), gl.Ptr(b.Bytes()))

	b = r.cascadeBuilder
	b.Reset()
	if p.Env != nil && caps&CapShadowMaps != 0 {
		for i := 0; i < ShadowCascades; i++ {
			b.Mat4(p.Env.CascadeVP[i])
		}
		b.Float(p.Env.CascadeSplits[0]).Float(p.Env.CascadeSplits[1]).
			Float(p.Env.CascadeSplits[2]).Float(p.Env.CascadeSplits[3])
		b.Float(float32(p.Env.CascadeCount)).Pad4().Pad4().Pad4()
	} else {
		for i := 0; i < ShadowCascades; i++ {
			b.Mat4(mgl32.Ident4())
		}
		b.Vec4(mgl32.Vec4{}).Vec4(mgl32.Vec4{})
	}
	b.PadTo(2 * graphics.UniformSlotAlign)
	gl.NamedBufferSubData(r.cascadeUBO, 0, b.Len(), gl.Ptr(b.Bytes()))
}

func flag(v bool) float32 {
	if v {
		return 1
	}
	return 0
}

func orDefault(tex, fallback uint32) uint32 {
	if tex != 0 {
		return tex
	}
	return fallback
}

func (r *PatchRenderer) bindTextures(p RenderParams) {
	gl.BindTextureUnit(0, orDefault(p.Heightmap, r.defaultHeight))
	gl.BindTextureUnit(1, orDefault(p.NormalMap, r.defaultNormal))
	gl.BindTextureUnit(2, orDefault(p.IslandMask, r.defaultMask))

	shadow := r.defaultShadow
	ibl := r.defaultIBL
	if p.Env != nil {
		if p.Env.Capabilities&CapShadowMaps != 0 {
			shadow = orDefault(p.Env.ShadowMaps, r.defaultShadow)
		}
		if p.Env.Capabilities&CapIBLDiffuse != 0 {
			ibl = orDefault(p.Env.Irradiance, r.defaultIBL)
		}
	}
	gl.BindTextureUnit(3, shadow)
	gl.BindTextureUnit(4, ibl)
}

// Render draws the staged instances into the currently bound render
// target. An empty selection is a valid no-op.
func (r *PatchRenderer) Render(p RenderParams) {
	if r.instanceCount == 0 {
		return
	}
	defer profiling.Track("terrain.Render")()

	r.writeSceneUniforms(p)
	r.bindTextures(p)

	gl.BindBufferBase(gl.UNIFORM_BUFFER, 0, r.sceneUBO)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, 1, r.materialUBO)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, 3, r.cascadeUBO)

	gl.BindVertexArray(r.vao)

	if p.Wireframe {
		r.wire.Use()
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	} else {
		r.solid.Use()
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	gl.DrawElementsInstanced(gl.TRIANGLES, int32(len(r.mesh.Indices)), gl.UNSIGNED_INT, nil, r.instanceCount)
	gl.BindVertexArray(0)
}

// ReloadShaders rebuilds both pipelines from new fragment source. On
// compile failure the previous pipelines stay in place and the error is
// returned for the hot-reload path to surface.
func (r *PatchRenderer) ReloadShaders(vertexSrc, fragmentSrc string) error {
	if err := r.solid.Replace(vertexSrc, fragmentSrc); err != nil {
		return err
	}
	// The wireframe pipeline shares the vertex stage.
	if err := r.wire.Replace(vertexSrc, WireframeFragmentShader); err != nil {
		return err
	}
	return nil
}

// Mesh exposes the shared grid mesh for the shadow pass
func (r *PatchRenderer) Mesh() *GridMesh {
	return r.mesh
}

// VAO exposes the vertex array for depth-only re-rendering
func (r *PatchRenderer) VAO() uint32 {
	return r.vao
}

// Dispose releases all GPU objects owned by the renderer
func (r *PatchRenderer) Dispose() {
	gl.DeleteVertexArrays(1, &r.vao)
	for _, buf := range []uint32{r.vbo, r.ebo, r.instanceVBO, r.sceneUBO, r.materialUBO, r.cascadeUBO} {
		b := buf
		gl.DeleteBuffers(1, &b)
	}
	for _, tex := range []uint32{r.defaultHeight, r.defaultNormal, r.defaultMask, r.defaultShadow, r.defaultIBL} {
		graphics.DeleteTexture(tex)
	}
	if r.solid != nil {
		r.solid.Delete()
	}
	if r.wire != nil {
		r.wire.Delete()
	}
}
