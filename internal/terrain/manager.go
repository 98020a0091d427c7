package terrain

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"terrascape/internal/compute"
	"terrascape/internal/config"
	"terrascape/internal/graphics"
	"terrascape/internal/heightfield"
	"terrascape/internal/profiling"
)

var (
	// ErrNotInitialized is returned when generation or rendering is
	// requested before Initialize succeeded.
	ErrNotInitialized = errors.New("terrain manager not initialized")
	// ErrGenerationInProgress rejects reentrant generation requests;
	// they are never queued.
	ErrGenerationInProgress = errors.New("generation already in progress")
)

// ProgressFunc receives pipeline milestones as (stage, percent 0-100)
type ProgressFunc func(stage string, percent int)

// erosionBatchSize is how many erosion iterations run between GPU fences
// and progress reports.
const erosionBatchSize = 5

// FrameParams is the per-frame input from the host: camera, lighting and
// the shared scene environment.
type FrameParams struct {
	ViewProj  mgl32.Mat4
	Model     mgl32.Mat4
	CameraPos mgl32.Vec3

	Light LightParams
	Env   *SceneEnvironment

	Wireframe bool
	DebugLOD  bool
}

// Manager owns every terrain GPU resource and wires the subsystems: the
// quadtree, patch renderer, shadow pass, and the generation pipeline.
// Subsystems keep their own programs, buffers and scratch textures and
// borrow the shared terrain texture handles per call.
type Manager struct {
	cfg config.Terrain

	initialized  bool
	generated    bool
	isGenerating bool

	quadtree *Quadtree
	renderer *PatchRenderer
	shadow   *ShadowPass

	mipgen    *compute.MipmapGenerator
	heightGen *compute.HeightmapGenerator
	erosion   *compute.ErosionSimulator

	heightmap  uint32
	normalMap  uint32
	islandMask uint32

	readback *heightfield.Heightfield

	shadowSlots  []ShadowSlot
	shadowCamera mgl32.Vec3

	shaderErrCb func(error)

	warnedNotReady bool
}

// NewManager validates and stores the configuration. No GPU resource is
// touched until Initialize.
func NewManager(cfg config.Terrain) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg}, nil
}

// Config returns the currently stored configuration
func (m *Manager) Config() config.Terrain {
	return m.cfg
}

// SetShaderErrorCallback installs the hot-reload error sink
func (m *Manager) SetShaderErrorCallback(cb func(error)) {
	m.shaderErrCb = cb
}

// Initialize builds all GPU resources and subsystems. Idempotent.
func (m *Manager) Initialize() error {
	if m.initialized {
		return nil
	}

	var err error
	if m.heightmap, err = graphics.NewHeightmapTexture(m.cfg.Resolution); err != nil {
		return err
	}
	if m.normalMap, err = graphics.NewNormalMapTexture(m.cfg.Resolution); err != nil {
		return err
	}
	maskRes := m.cfg.Island.Resolution
	if maskRes == 0 {
		maskRes = m.cfg.Resolution / 2
	}
	if m.islandMask, err = graphics.NewMaskTexture(maskRes); err != nil {
		return err
	}

	if m.mipgen, err = compute.NewMipmapGenerator(); err != nil {
		return err
	}
	if m.heightGen, err = compute.NewHeightmapGenerator(m.mipgen); err != nil {
		return err
	}
	if m.erosion, err = compute.NewErosionSimulator(m.cfg.Resolution); err != nil {
		return err
	}

	if m.renderer, err = NewPatchRenderer(m.cfg.LOD); err != nil {
		return err
	}
	m.renderer.SetMaterial(m.cfg.Material)
	if m.shadow, err = NewShadowPass(2048, m.cfg.LOD.GridSize, m.cfg.LOD.SkirtDepthMultiplier); err != nil {
		return err
	}

	m.rebuildQuadtree()
	m.initialized = true
	return nil
}

func (m *Manager) rebuildQuadtree() {
	half := m.cfg.HeightScale / 2
	m.quadtree = NewQuadtree(m.cfg.WorldSize, m.cfg.LOD.MinNodeSize, m.cfg.LOD.MaxLodLevels, -half, half)
}

func report(progress ProgressFunc, stage string, pct int) {
	if progress != nil {
		progress(stage, pct)
	}
}

// Generate runs the full pipeline: noise, erosion, mipmaps, normals,
// island mask, then a CPU readback for height queries. Single-flight: a
// request issued while one is running is rejected, not queued.
func (m *Manager) Generate(progress ProgressFunc) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if m.isGenerating {
		log.Printf("terrain: generation already running, request ignored")
		return ErrGenerationInProgress
	}
	m.isGenerating = true
	defer func() { m.isGenerating = false }()
	defer profiling.Track("terrain.Generate")()

	run := m.generateGPU
	if m.cfg.Backend == "cpu" {
		run = m.generateCPU
	}
	if err := run(progress); err != nil {
		// A failed fence wait means the device is gone; require a fresh
		// Initialize before anything else touches it.
		m.initialized = false
		return err
	}

	report(progress, "readback", 95)
	if err := m.readbackHeightmap(); err != nil {
		return err
	}

	stats := m.readback.ComputeStats()
	log.Printf("terrain: generated %dx%d, %s", m.cfg.Resolution, m.cfg.Resolution, stats)
	m.quadtree.UpdateHeightBounds(float32(stats.Min)*m.cfg.HeightScale, float32(stats.Max)*m.cfg.HeightScale)

	m.generated = true
	report(progress, "done", 100)
	return nil
}

func (m *Manager) generateGPU(progress ProgressFunc) error {
	report(progress, "noise", 0)
	m.heightGen.Generate(m.heightmap, m.cfg.Resolution, m.cfg.Noise)
	if err := graphics.AwaitCompletion(); err != nil {
		return fmt.Errorf("heightmap generation: %w", err)
	}

	if err := m.runErosionGPU(progress); err != nil {
		return err
	}

	report(progress, "normals", 85)
	m.heightGen.GenerateNormals(m.heightmap, m.normalMap, m.cfg.Resolution,
		m.cfg.WorldSize, m.cfg.HeightScale, m.cfg.Noise.NormalStrength)

	if m.cfg.Island.Enabled {
		report(progress, "island", 90)
		m.regenerateIslandMaskLocked()
	}
	return graphics.AwaitCompletion()
}

func (m *Manager) runErosionGPU(progress ProgressFunc) error {
	hydraulic := m.cfg.Erosion.Iterations
	thermal := m.cfg.Thermal.Iterations
	total := hydraulic + thermal
	if total == 0 {
		return nil
	}

	m.erosion.Attach(m.heightmap)
	done := 0
	for done < hydraulic {
		batch := min(erosionBatchSize, hydraulic-done)
		m.erosion.IterateHydraulic(m.cfg.Erosion, batch)
		if err := graphics.AwaitCompletion(); err != nil {
			return fmt.Errorf("hydraulic erosion: %w", err)
		}
		done += batch
		report(progress, "hydraulic erosion", 10+done*60/total)
	}
	for done < total {
		batch := min(erosionBatchSize, total-done)
		m.erosion.IterateThermal(m.cfg.Thermal, batch)
		if err := graphics.AwaitCompletion(); err != nil {
			return fmt.Errorf("thermal erosion: %w", err)
		}
		done += batch
		report(progress, "thermal erosion", 10+done*60/total)
	}

	m.erosion.ExportTo(m.heightmap)
	m.mipgen.Refresh(m.heightmap, m.cfg.Resolution)
	return graphics.AwaitCompletion()
}

func (m *Manager) generateCPU(progress ProgressFunc) error {
	report(progress, "noise", 0)
	data := heightfield.GenerateNoise(m.cfg.Resolution, m.cfg.Noise)

	// CPU erosion runs synchronously; the iteration counter advances inside
	// one call so droplet swarms stay uncorrelated across iterations.
	if m.cfg.Erosion.Iterations > 0 {
		report(progress, "hydraulic erosion", 10)
		heightfield.ErodeHydraulic(data, m.cfg.Resolution, m.cfg.Erosion, m.cfg.Erosion.Iterations)
	}
	if m.cfg.Thermal.Iterations > 0 {
		report(progress, "thermal erosion", 60)
		heightfield.ErodeThermal(data, m.cfg.Resolution, m.cfg.Thermal, m.cfg.Thermal.Iterations)
	}

	if err := graphics.UploadHeightmap(m.heightmap, m.cfg.Resolution, data); err != nil {
		return err
	}
	m.mipgen.Refresh(m.heightmap, m.cfg.Resolution)

	report(progress, "normals", 85)
	m.heightGen.GenerateNormals(m.heightmap, m.normalMap, m.cfg.Resolution,
		m.cfg.WorldSize, m.cfg.HeightScale, m.cfg.Noise.NormalStrength)
	if m.cfg.Island.Enabled {
		report(progress, "island", 90)
		m.regenerateIslandMaskLocked()
	}
	return graphics.AwaitCompletion()
}

func (m *Manager) readbackHeightmap() error {
	data := graphics.ReadHeightmap(m.heightmap, m.cfg.Resolution)
	hf, err := heightfield.FromData(data, m.cfg.Resolution, m.cfg.WorldSize, m.cfg.HeightScale)
	if err != nil {
		return err
	}
	m.readback = hf
	return nil
}

// Regenerate merges a partial configuration and re-runs the pipeline. An
// invalid patch is rejected before any state changes.
func (m *Manager) Regenerate(patch config.TerrainPatch, progress ProgressFunc) error {
	if m.isGenerating {
		log.Printf("terrain: generation already running, regenerate ignored")
		return ErrGenerationInProgress
	}

	merged := m.cfg.Merge(patch)
	if err := merged.Validate(); err != nil {
		return err
	}

	structural := merged.Resolution != m.cfg.Resolution ||
		merged.WorldSize != m.cfg.WorldSize ||
		merged.LOD != m.cfg.LOD
	heightScaleChanged := merged.HeightScale != m.cfg.HeightScale
	if structural && m.initialized {
		// Texture sizes and the tree layout depend on these; rebuild from
		// scratch rather than patching resources in place.
		m.disposeGPU()
		m.initialized = false
	}
	m.cfg = merged
	if !m.initialized {
		if err := m.Initialize(); err != nil {
			return err
		}
	} else if heightScaleChanged {
		m.rebuildQuadtree()
	}
	return m.Generate(progress)
}

// RegenerateHeightmapOnly re-runs noise and normals with new parameters,
// skipping erosion. Used for live parameter scrubbing.
func (m *Manager) RegenerateHeightmapOnly(noise config.Noise) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if m.isGenerating {
		return ErrGenerationInProgress
	}
	m.isGenerating = true
	defer func() { m.isGenerating = false }()

	m.cfg.Noise = noise
	m.heightGen.Generate(m.heightmap, m.cfg.Resolution, noise)
	m.heightGen.GenerateNormals(m.heightmap, m.normalMap, m.cfg.Resolution,
		m.cfg.WorldSize, m.cfg.HeightScale, noise.NormalStrength)
	return graphics.AwaitCompletion()
}

// Live setters: uniform or mask-texture updates only, visible next frame.

// SetMaterial updates biome shading parameters
func (m *Manager) SetMaterial(mat config.Material) {
	m.cfg.Material = mat
	if m.renderer != nil {
		m.renderer.SetMaterial(mat)
	}
}

// SetDetailConfig updates the shading detail noise
func (m *Manager) SetDetailConfig(d config.Detail) {
	m.cfg.Detail = d
}

// SetIslandEnabled toggles the island mask blend
func (m *Manager) SetIslandEnabled(enabled bool) {
	m.cfg.Island.Enabled = enabled
}

// SetSeaFloorDepth adjusts the ocean floor blend depth
func (m *Manager) SetSeaFloorDepth(depth float32) {
	m.cfg.Island.SeaFloorDepth = depth
}

// RegenerateIslandMask rebuilds only the mask texture
func (m *Manager) RegenerateIslandMask() {
	if !m.initialized {
		return
	}
	m.regenerateIslandMaskLocked()
}

func (m *Manager) regenerateIslandMaskLocked() {
	maskRes := m.cfg.Island.Resolution
	if maskRes == 0 {
		maskRes = m.cfg.Resolution / 2
	}
	m.heightGen.GenerateIslandMask(m.islandMask, maskRes, m.cfg.Island)
}

// Render selects LOD patches for the camera and draws them into the
// currently bound render pass. Rendering before a successful Generate is a
// logged no-op.
func (m *Manager) Render(p FrameParams) {
	if !m.initialized || !m.generated {
		if !m.warnedNotReady {
			log.Printf("terrain: render skipped, no generated terrain")
			m.warnedNotReady = true
		}
		return
	}

	if !config.GetFreezeLOD() {
		sel := m.quadtree.Select(Params{
			CameraPos:             p.CameraPos,
			Frustum:               p.ViewProj,
			LodDistanceMultiplier: m.cfg.LOD.LodDistanceMultiplier,
			MorphRegion:           m.cfg.LOD.MorphRegion,
		})
		m.renderer.UploadSelection(sel)
	}

	m.renderer.Render(RenderParams{
		ViewProj:      p.ViewProj,
		Model:         p.Model,
		CameraPos:     p.CameraPos,
		Light:         p.Light,
		Env:           p.Env,
		Heightmap:     m.heightmap,
		NormalMap:     m.normalMap,
		IslandMask:    m.islandMask,
		TerrainSize:   m.cfg.WorldSize,
		HeightScale:   m.cfg.HeightScale,
		IslandEnabled: m.cfg.Island.Enabled,
		SeaFloorDepth: m.cfg.Island.SeaFloorDepth,
		Detail:        m.cfg.Detail,
		Wireframe:     p.Wireframe,
		DebugLOD:      p.DebugLOD,
	})
}

// WriteShadowUniforms uploads all cascade slots for this frame. The camera
// position is retained so cascade selections reuse camera-based LOD
// distances, keeping shadow geometry in lockstep with the main pass.
func (m *Manager) WriteShadowUniforms(cameraPos mgl32.Vec3, slots []ShadowSlot) {
	if !m.initialized {
		return
	}
	m.shadowCamera = cameraPos
	m.shadowSlots = append(m.shadowSlots[:0], slots...)
	m.shadow.WriteShadowUniforms(slots, m.cfg.WorldSize, m.cfg.HeightScale)
}

// RenderShadow renders one depth-only cascade. Culling uses the cascade's
// light frustum; LOD distances use the camera recorded by
// WriteShadowUniforms.
func (m *Manager) RenderShadow(slot int) error {
	if !m.initialized || !m.generated {
		return nil
	}
	if slot < 0 || slot >= len(m.shadowSlots) {
		return fmt.Errorf("shadow slot %d not written this frame", slot)
	}

	sel := m.quadtree.Select(Params{
		CameraPos:             m.shadowCamera,
		Frustum:               m.shadowSlots[slot].LightVP,
		LodDistanceMultiplier: m.cfg.LOD.LodDistanceMultiplier,
		MorphRegion:           m.cfg.LOD.MorphRegion,
	})
	m.renderer.UploadSelection(sel)
	return m.shadow.RenderSlot(slot, m.renderer, m.heightmap, m.islandMask)
}

// EndFrame resets per-frame shadow state
func (m *Manager) EndFrame() {
	if m.shadow != nil {
		m.shadow.EndFrame()
	}
	m.shadowSlots = m.shadowSlots[:0]
}

// ShadowDepthArray exposes the cascade depth texture for the main pass
func (m *Manager) ShadowDepthArray() uint32 {
	if m.shadow == nil {
		return 0
	}
	return m.shadow.DepthArray()
}

// ReloadTerrainShaders swaps the render pipelines from new sources. On
// failure the previous pipelines stay active and the error goes to the
// shader error callback.
func (m *Manager) ReloadTerrainShaders(vertexSrc, fragmentSrc string) {
	if m.renderer == nil {
		return
	}
	if err := m.renderer.ReloadShaders(vertexSrc, fragmentSrc); err != nil {
		log.Printf("terrain: shader reload failed: %v", err)
		if m.shaderErrCb != nil {
			m.shaderErrCb(err)
		}
	}
}

// SampleHeightAt returns the bilinearly interpolated world-space height at
// world XZ, clamped to the terrain bounds. Returns 0 before the first
// successful readback.
func (m *Manager) SampleHeightAt(x, z float32) float32 {
	if m.readback == nil {
		return 0
	}
	return m.readback.SampleWorld(x, z)
}

// Heightfield returns the CPU readback, or nil before the first Generate
func (m *Manager) Heightfield() *heightfield.Heightfield {
	return m.readback
}

// ClippedInstances reports nodes dropped at upload last frame
func (m *Manager) ClippedInstances() int {
	if m.renderer == nil {
		return 0
	}
	return m.renderer.ClippedLastFrame
}

func (m *Manager) disposeGPU() {
	if m.renderer != nil {
		m.renderer.Dispose()
		m.renderer = nil
	}
	if m.shadow != nil {
		m.shadow.Dispose()
		m.shadow = nil
	}
	if m.erosion != nil {
		m.erosion.Dispose()
		m.erosion = nil
	}
	if m.heightGen != nil {
		m.heightGen.Dispose()
		m.heightGen = nil
	}
	if m.mipgen != nil {
		m.mipgen.Dispose()
		m.mipgen = nil
	}
	graphics.DeleteTexture(m.heightmap)
	graphics.DeleteTexture(m.normalMap)
	graphics.DeleteTexture(m.islandMask)
	m.heightmap, m.normalMap, m.islandMask = 0, 0, 0
	m.generated = false
}

// Dispose releases every owned GPU resource
func (m *Manager) Dispose() {
	m.disposeGPU()
	m.initialized = false
}
