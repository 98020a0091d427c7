package heightfield

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrascape/internal/config"
)

func testNoise() config.Noise {
	n := config.DefaultTerrain().Noise
	n.Seed = 42
	return n
}

func hashField(data []float32) [32]byte {
	h := sha256.New()
	var buf [4]byte
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func TestZeroOctavesYieldsFlatField(t *testing.T) {
	n := testNoise()
	n.Octaves = 0
	data := GenerateNoise(32, n)
	for i, v := range data {
		require.Zero(t, v, "texel %d", i)
	}

	// A flat field has straight-up normals everywhere.
	normals := GenerateNormals(data, 32, 1024, 160, 1)
	for i := 0; i < len(normals); i += 4 {
		require.Equal(t, int8(0), normals[i+0])
		require.Equal(t, int8(127), normals[i+1])
		require.Equal(t, int8(0), normals[i+2])
	}
}

func TestNoiseIsDeterministic(t *testing.T) {
	a := GenerateNoise(64, testNoise())
	b := GenerateNoise(64, testNoise())
	assert.Equal(t, hashField(a), hashField(b))

	other := testNoise()
	other.Seed = 43
	c := GenerateNoise(64, other)
	assert.NotEqual(t, hashField(a), hashField(c))
}

func TestNoiseIsRoughlyCentered(t *testing.T) {
	data := GenerateNoise(64, testNoise())
	h := &Heightfield{Resolution: 64, Data: data}
	mean := h.Sum() / float64(len(data))
	assert.Less(t, math.Abs(mean), 0.25)
}

func TestNoiseStaysInRange(t *testing.T) {
	data := GenerateNoise(64, testNoise())
	for i, v := range data {
		require.GreaterOrEqual(t, v, float32(-1), "texel %d", i)
		require.LessOrEqual(t, v, float32(1), "texel %d", i)
	}
}

func TestRidgeBlendFoldsField(t *testing.T) {
	n := testNoise()
	n.RidgeWeight = 0
	plain := GenerateNoise(64, n)

	n.RidgeWeight = 1
	ridged := GenerateNoise(64, n)

	// Full ridge weight replaces each sample with 0.5 - 2|h|.
	for i := range plain {
		want := 0.5 - 2*float32(math.Abs(float64(plain[i])))
		require.InDelta(t, want, ridged[i], 1e-5, "texel %d", i)
	}
}

func TestWarpChangesField(t *testing.T) {
	n := testNoise()
	n.WarpStrength = 0
	flatWarp := GenerateNoise(32, n)

	n.WarpStrength = 0.5
	warped := GenerateNoise(32, n)

	assert.NotEqual(t, hashField(flatWarp), hashField(warped))
}

func TestIslandMaskLandAtCenterOceanAtCorner(t *testing.T) {
	p := config.DefaultTerrain().Island
	mask := GenerateIslandMask(64, p)

	center := mask[32*64+32]
	corner := mask[0]
	assert.Greater(t, center, float32(0.9))
	assert.Less(t, corner, float32(0.1))
}

func TestIslandMaskStaysInUnitRange(t *testing.T) {
	mask := GenerateIslandMask(64, config.DefaultTerrain().Island)
	for i, v := range mask {
		require.GreaterOrEqual(t, v, float32(0), "texel %d", i)
		require.LessOrEqual(t, v, float32(1), "texel %d", i)
	}
}

func TestGenerateNormalsTiltAgainstSlope(t *testing.T) {
	const res = 16
	data := make([]float32, res*res)
	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			data[z*res+x] = float32(x) * 0.01 // rises toward +x
		}
	}

	normals := GenerateNormals(data, res, 64, 100, 1)
	// Interior texel: normal leans toward -x, stays upright, no z tilt.
	i := (8*res + 8) * 4
	assert.Negative(t, normals[i+0])
	assert.Positive(t, normals[i+1])
	assert.Equal(t, int8(0), normals[i+2])
}
