package graphics

import (
	"fmt"
	"math"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// MipLevels returns the number of levels in a full mip chain for a square
// texture of the given resolution.
func MipLevels(resolution int) int {
	return int(math.Floor(math.Log2(float64(resolution)))) + 1
}

// NewHeightmapTexture allocates an immutable single-channel float texture
// with a full mipmap chain. Mip contents are undefined until the mipmap
// generator runs.
func NewHeightmapTexture(resolution int) (uint32, error) {
	if resolution <= 0 {
		return 0, fmt.Errorf("heightmap resolution %d out of range", resolution)
	}
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &tex)
	gl.TextureStorage2D(tex, int32(MipLevels(resolution)), gl.R32F, int32(resolution), int32(resolution))
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_NEAREST)
	gl.TextureParameteri(tex, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	return tex, nil
}

// NewNormalMapTexture allocates a signed 8-bit RGBA normal map without mips
func NewNormalMapTexture(resolution int) (uint32, error) {
	if resolution <= 0 {
		return 0, fmt.Errorf("normal map resolution %d out of range", resolution)
	}
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &tex)
	gl.TextureStorage2D(tex, 1, gl.RGBA8_SNORM, int32(resolution), int32(resolution))
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TextureParameteri(tex, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	return tex, nil
}

// NewMaskTexture allocates a single-channel float mask texture without mips
func NewMaskTexture(resolution int) (uint32, error) {
	if resolution <= 0 {
		return 0, fmt.Errorf("mask resolution %d out of range", resolution)
	}
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &tex)
	gl.TextureStorage2D(tex, 1, gl.R32F, int32(resolution), int32(resolution))
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TextureParameteri(tex, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	return tex, nil
}

// NewDepthTextureArray allocates a depth32f texture array for cascade
// shadow maps, with a comparison sampler for PCF lookups.
func NewDepthTextureArray(size, layers int) (uint32, error) {
	if size <= 0 || layers <= 0 {
		return 0, fmt.Errorf("depth array %dx%d out of range", size, layers)
	}
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D_ARRAY, 1, &tex)
	gl.TextureStorage3D(tex, 1, gl.DEPTH_COMPONENT32F, int32(size), int32(size), int32(layers))
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TextureParameteri(tex, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TextureParameteri(tex, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TextureParameteri(tex, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	return tex, nil
}

// UploadHeightmap writes CPU height data into mip 0 of a heightmap texture
func UploadHeightmap(tex uint32, resolution int, data []float32) error {
	if len(data) != resolution*resolution {
		return fmt.Errorf("heightmap upload: have %d texels, want %d", len(data), resolution*resolution)
	}
	gl.TextureSubImage2D(tex, 0, 0, 0, int32(resolution), int32(resolution), gl.RED, gl.FLOAT, gl.Ptr(data))
	return nil
}

// ReadHeightmap reads mip 0 of a heightmap texture back into a CPU slice
func ReadHeightmap(tex uint32, resolution int) []float32 {
	data := make([]float32, resolution*resolution)
	gl.GetTextureImage(tex, 0, gl.RED, gl.FLOAT, int32(len(data)*4), gl.Ptr(data))
	return data
}

// Default1x1 creates a 1x1 R32F texture holding a single value. Used as the
// fallback binding when a real texture is missing.
func Default1x1(value float32) uint32 {
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &tex)
	gl.TextureStorage2D(tex, 1, gl.R32F, 1, 1)
	data := []float32{value}
	gl.TextureSubImage2D(tex, 0, 0, 0, 1, 1, gl.RED, gl.FLOAT, gl.Ptr(data))
	return tex
}

// Default1x1Normal creates a 1x1 normal map pointing straight up
func Default1x1Normal() uint32 {
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &tex)
	gl.TextureStorage2D(tex, 1, gl.RGBA8_SNORM, 1, 1)
	data := []int8{0, 127, 0, 0}
	gl.TextureSubImage2D(tex, 0, 0, 0, 1, 1, gl.RGBA, gl.BYTE, gl.Ptr(data))
	return tex
}

// Default1x1Cube creates a black 1x1 cubemap for unbound environment slots
func Default1x1Cube() uint32 {
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_CUBE_MAP, 1, &tex)
	gl.TextureStorage2D(tex, 1, gl.RGBA8, 1, 1)
	data := []uint8{0, 0, 0, 255}
	for face := 0; face < 6; face++ {
		gl.TextureSubImage3D(tex, 0, 0, 0, int32(face), 1, 1, 1, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data))
	}
	return tex
}

// Default1x1DepthArray creates a fully-lit 1x1 shadow map array so shadow
// sampling stays defined when no cascade data is bound.
func Default1x1DepthArray(layers int) uint32 {
	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D_ARRAY, 1, &tex)
	gl.TextureStorage3D(tex, 1, gl.DEPTH_COMPONENT32F, 1, 1, int32(layers))
	gl.TextureParameteri(tex, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TextureParameteri(tex, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	data := []float32{1}
	for layer := 0; layer < layers; layer++ {
		gl.TextureSubImage3D(tex, 0, 0, 0, int32(layer), 1, 1, 1, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(data))
	}
	return tex
}

// DeleteTexture releases a texture object, tolerating the zero handle
func DeleteTexture(tex uint32) {
	if tex != 0 {
		gl.DeleteTextures(1, &tex)
	}
}
