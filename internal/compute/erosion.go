package compute

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"terrascape/internal/config"
	"terrascape/internal/graphics"
	"terrascape/internal/heightfield"
	"terrascape/internal/profiling"
)

// ErosionSimulator owns two ping-pong heightfield textures and a scatter
// buffer. A source heightmap is attached, iterated on, and exported back;
// the exported side may alias either ping-pong texture.
type ErosionSimulator struct {
	resolution int

	texA, texB uint32
	current    int // index of the most recent result: 0 = A, 1 = B

	scatter uint32 // R*R int32 SSBO for droplet deposits and cuts

	zeroProg    *graphics.Shader
	dropletProg *graphics.Shader
	applyProg   *graphics.Shader
	thermalProg *graphics.Shader

	hydraulicRuns int // advances the droplet seed across calls
}

// NewErosionSimulator allocates the ping-pong resources for one resolution
func NewErosionSimulator(resolution int) (*ErosionSimulator, error) {
	s := &ErosionSimulator{resolution: resolution}

	var err error
	if s.zeroProg, err = graphics.NewComputeShader(ZeroScatterKernel); err != nil {
		return nil, fmt.Errorf("scatter zero kernel: %v", err)
	}
	if s.dropletProg, err = graphics.NewComputeShader(DropletKernel); err != nil {
		s.Dispose()
		return nil, fmt.Errorf("droplet kernel: %v", err)
	}
	if s.applyProg, err = graphics.NewComputeShader(ApplyScatterKernel); err != nil {
		s.Dispose()
		return nil, fmt.Errorf("scatter apply kernel: %v", err)
	}
	if s.thermalProg, err = graphics.NewComputeShader(ThermalKernel); err != nil {
		s.Dispose()
		return nil, fmt.Errorf("thermal kernel: %v", err)
	}

	s.texA = newSideTexture(resolution)
	s.texB = newSideTexture(resolution)

	gl.CreateBuffers(1, &s.scatter)
	gl.NamedBufferData(s.scatter, resolution*resolution*4, nil, gl.DYNAMIC_COPY)
	return s, nil
}

func newSideTexture(resolution int) uint32 {
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &tex)
	gl.TextureStorage2D(tex, 1, gl.R32F, int32(resolution), int32(resolution))
	return tex
}

func (s *ErosionSimulator) sides() (src, dst uint32) {
	if s.current == 0 {
		return s.texA, s.texB
	}
	return s.texB, s.texA
}

// Attach copies a heightmap's mip 0 into the current ping-pong side
func (s *ErosionSimulator) Attach(heightTex uint32) {
	s.current = 0
	s.hydraulicRuns = 0
	gl.CopyImageSubData(heightTex, gl.TEXTURE_2D, 0, 0, 0, 0,
		s.texA, gl.TEXTURE_2D, 0, 0, 0, 0,
		int32(s.resolution), int32(s.resolution), 1)
}

// IterateHydraulic runs droplet erosion iterations. Each iteration zeroes
// the scatter buffer, simulates one droplet swarm, and folds the result
// onto the other ping-pong side. The seed advances per iteration so
// repeated calls stay uncorrelated.
func (s *ErosionSimulator) IterateHydraulic(p config.Erosion, iterations int) {
	defer profiling.Track("compute.ErodeHydraulic")()

	sp := heightfield.ScaleErosion(p, s.resolution)
	if sp.DropletsPerIteration < 1 || sp.MaxDropletLifetime < 1 {
		return
	}
	texels := s.resolution * s.resolution

	for iter := 0; iter < iterations; iter++ {
		src, dst := s.sides()

		s.zeroProg.Use()
		s.zeroProg.SetInt("uTexelCount", int32(texels))
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, s.scatter)
		gl.DispatchCompute(uint32((texels+255)/256), 1, 1)
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

		s.dropletProg.Use()
		s.dropletProg.SetInt("uResolution", int32(s.resolution))
		s.dropletProg.SetInt("uDropletCount", int32(sp.DropletsPerIteration))
		s.dropletProg.SetInt("uMaxLifetime", int32(sp.MaxDropletLifetime))
		s.dropletProg.SetFloat("uInertia", sp.Inertia)
		s.dropletProg.SetFloat("uSedimentCapacity", sp.SedimentCapacity)
		s.dropletProg.SetFloat("uMinCapacity", sp.MinCapacity)
		s.dropletProg.SetFloat("uMinSlope", sp.MinSlope)
		s.dropletProg.SetFloat("uDepositionRate", sp.DepositionRate)
		s.dropletProg.SetFloat("uErosionRate", sp.ErosionRate)
		s.dropletProg.SetFloat("uEvaporationRate", sp.EvaporationRate)
		s.dropletProg.SetFloat("uGravity", sp.Gravity)
		s.dropletProg.SetInt("uBrushRadius", int32(sp.BrushRadius))
		s.dropletProg.SetFloat("uHeightScaleFactor", sp.HeightScaleFactor)
		s.dropletProg.SetUint("uSeed", uint32(sp.Seed))
		s.dropletProg.SetUint("uIteration", uint32(s.hydraulicRuns))
		gl.BindImageTexture(0, src, 0, false, 0, gl.READ_ONLY, gl.R32F)
		gl.DispatchCompute(uint32((sp.DropletsPerIteration+63)/64), 1, 1)
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

		s.applyProg.Use()
		s.applyProg.SetInt("uResolution", int32(s.resolution))
		gl.BindImageTexture(0, src, 0, false, 0, gl.READ_ONLY, gl.R32F)
		gl.BindImageTexture(1, dst, 0, false, 0, gl.WRITE_ONLY, gl.R32F)
		gl.DispatchCompute(uint32(dispatchGroups(s.resolution)), uint32(dispatchGroups(s.resolution)), 1)
		gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)

		s.current = 1 - s.current
		s.hydraulicRuns++
	}
}

// IterateThermal runs thermal erosion iterations on the ping-pong pair
func (s *ErosionSimulator) IterateThermal(p config.Thermal, iterations int) {
	defer profiling.Track("compute.ErodeThermal")()

	s.thermalProg.Use()
	s.thermalProg.SetInt("uResolution", int32(s.resolution))
	s.thermalProg.SetFloat("uTalusThreshold", p.TalusAngle/float32(s.resolution))
	s.thermalProg.SetFloat("uErosionRate", p.ErosionRate)

	for iter := 0; iter < iterations; iter++ {
		src, dst := s.sides()
		gl.BindImageTexture(0, src, 0, false, 0, gl.READ_ONLY, gl.R32F)
		gl.BindImageTexture(1, dst, 0, false, 0, gl.WRITE_ONLY, gl.R32F)
		gl.DispatchCompute(uint32(dispatchGroups(s.resolution)), uint32(dispatchGroups(s.resolution)), 1)
		gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)
		s.current = 1 - s.current
	}
}

// ExportTo copies the current result into a heightmap's mip 0. The caller
// refreshes mips and normals afterwards.
func (s *ErosionSimulator) ExportTo(heightTex uint32) {
	src, _ := s.sides()
	gl.CopyImageSubData(src, gl.TEXTURE_2D, 0, 0, 0, 0,
		heightTex, gl.TEXTURE_2D, 0, 0, 0, 0,
		int32(s.resolution), int32(s.resolution), 1)
}

// Resolution returns the simulator's grid resolution
func (s *ErosionSimulator) Resolution() int {
	return s.resolution
}

// Dispose releases all GPU objects
func (s *ErosionSimulator) Dispose() {
	graphics.DeleteTexture(s.texA)
	graphics.DeleteTexture(s.texB)
	if s.scatter != 0 {
		gl.DeleteBuffers(1, &s.scatter)
	}
	for _, p := range []*graphics.Shader{s.zeroProg, s.dropletProg, s.applyProg, s.thermalProg} {
		if p != nil {
			p.Delete()
		}
	}
}
