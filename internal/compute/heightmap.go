package compute

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"terrascape/internal/config"
	"terrascape/internal/graphics"
	"terrascape/internal/profiling"
)

// HeightmapGenerator runs the noise, normal and island kernels. It borrows
// texture handles per call and owns only its shader programs.
type HeightmapGenerator struct {
	noiseProg  *graphics.Shader
	normalProg *graphics.Shader
	islandProg *graphics.Shader

	mipgen *MipmapGenerator
}

// NewHeightmapGenerator compiles the generation kernels
func NewHeightmapGenerator(mipgen *MipmapGenerator) (*HeightmapGenerator, error) {
	g := &HeightmapGenerator{mipgen: mipgen}

	var err error
	if g.noiseProg, err = graphics.NewComputeShader(NoiseKernel); err != nil {
		return nil, fmt.Errorf("noise kernel: %v", err)
	}
	if g.normalProg, err = graphics.NewComputeShader(NormalKernel); err != nil {
		g.Dispose()
		return nil, fmt.Errorf("normal kernel: %v", err)
	}
	if g.islandProg, err = graphics.NewComputeShader(IslandKernel); err != nil {
		g.Dispose()
		return nil, fmt.Errorf("island kernel: %v", err)
	}
	return g, nil
}

// Generate fills mip 0 of the heightmap from the noise configuration and
// immediately rebuilds the mip chain.
func (g *HeightmapGenerator) Generate(tex uint32, resolution int, p config.Noise) {
	defer profiling.Track("compute.GenerateHeightmap")()

	g.noiseProg.Use()
	g.noiseProg.SetInt("uResolution", int32(resolution))
	g.noiseProg.SetVector2("uOffset", p.OffsetX, p.OffsetY)
	g.noiseProg.SetVector2("uScale", p.ScaleX, p.ScaleY)
	g.noiseProg.SetInt("uOctaves", int32(p.Octaves))
	g.noiseProg.SetFloat("uPersistence", p.Persistence)
	g.noiseProg.SetFloat("uLacunarity", p.Lacunarity)
	g.noiseProg.SetUint("uSeed", uint32(p.Seed))
	g.noiseProg.SetFloat("uWarpStrength", p.WarpStrength)
	g.noiseProg.SetVector2("uWarpScale", p.WarpScaleX, p.WarpScaleY)
	g.noiseProg.SetInt("uWarpOctaves", int32(p.WarpOctaves))
	g.noiseProg.SetFloat("uRidgeWeight", p.RidgeWeight)
	g.noiseProg.SetBool("uRotateOctaves", p.RotateOctaves)
	g.noiseProg.SetFloat("uOctaveRotation", mgl32.DegToRad(p.OctaveRotationDeg))

	gl.BindImageTexture(0, tex, 0, false, 0, gl.WRITE_ONLY, gl.R32F)
	gl.DispatchCompute(uint32(dispatchGroups(resolution)), uint32(dispatchGroups(resolution)), 1)
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)

	g.mipgen.Refresh(tex, resolution)
}

// GenerateNormals derives the normal map from the heightmap's mip 0
func (g *HeightmapGenerator) GenerateNormals(heightTex, normalTex uint32, resolution int, worldSize, heightScale, strength float32) {
	defer profiling.Track("compute.GenerateNormals")()

	g.normalProg.Use()
	g.normalProg.SetFloat("uTexelSize", worldSize/float32(resolution))
	g.normalProg.SetFloat("uHeightScale", heightScale)
	g.normalProg.SetFloat("uStrength", strength)

	gl.BindImageTexture(0, heightTex, 0, false, 0, gl.READ_ONLY, gl.R32F)
	gl.BindImageTexture(1, normalTex, 0, false, 0, gl.WRITE_ONLY, gl.RGBA8_SNORM)
	gl.DispatchCompute(uint32(dispatchGroups(resolution)), uint32(dispatchGroups(resolution)), 1)
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)
}

// GenerateIslandMask regenerates the land/ocean mask texture
func (g *HeightmapGenerator) GenerateIslandMask(maskTex uint32, resolution int, p config.Island) {
	defer profiling.Track("compute.GenerateIslandMask")()

	g.islandProg.Use()
	g.islandProg.SetInt("uResolution", int32(resolution))
	g.islandProg.SetFloat("uRadius", p.Radius)
	g.islandProg.SetFloat("uCoastFalloff", p.CoastFalloff)
	g.islandProg.SetFloat("uCoastNoiseStrength", p.CoastNoiseStrength)
	g.islandProg.SetUint("uSeed", uint32(p.Seed))

	gl.BindImageTexture(0, maskTex, 0, false, 0, gl.WRITE_ONLY, gl.R32F)
	gl.DispatchCompute(uint32(dispatchGroups(resolution)), uint32(dispatchGroups(resolution)), 1)
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)
}

// Dispose releases the kernel programs
func (g *HeightmapGenerator) Dispose() {
	for _, p := range []*graphics.Shader{g.noiseProg, g.normalProg, g.islandProg} {
		if p != nil {
			p.Delete()
		}
	}
}
