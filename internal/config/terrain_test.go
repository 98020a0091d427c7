package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32p(v float32) *float32 { return &v }
func intp(v int) *int         { return &v }

func TestDefaultTerrainValidates(t *testing.T) {
	require.NoError(t, DefaultTerrain().Validate())
}

func TestMergeLeavesReceiverUntouched(t *testing.T) {
	base := DefaultTerrain()
	merged := base.Merge(TerrainPatch{HeightScale: f32p(300)})

	assert.Equal(t, float32(300), merged.HeightScale)
	assert.Equal(t, DefaultTerrain().HeightScale, base.HeightScale)
}

func TestMergeIsRecursive(t *testing.T) {
	base := DefaultTerrain()
	merged := base.Merge(TerrainPatch{
		Noise: &NoisePatch{Octaves: intp(3), RidgeWeight: f32p(1)},
	})

	// Patched fields change, siblings survive.
	assert.Equal(t, 3, merged.Noise.Octaves)
	assert.Equal(t, float32(1), merged.Noise.RidgeWeight)
	assert.Equal(t, base.Noise.Persistence, merged.Noise.Persistence)
	assert.Equal(t, base.Noise.Seed, merged.Noise.Seed)
	assert.Equal(t, base.Erosion, merged.Erosion)
}

func TestMergeEmptyPatchIsIdentity(t *testing.T) {
	base := DefaultTerrain()
	assert.Equal(t, base, base.Merge(TerrainPatch{}))
}

func TestValidateRejectsNonPowerOfTwoResolution(t *testing.T) {
	c := DefaultTerrain()
	c.Resolution = 1000
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestValidateRejectsEvenGridSize(t *testing.T) {
	c := DefaultTerrain()
	c.LOD.GridSize = 128
	require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	c := DefaultTerrain()
	c.Backend = "metal"
	require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	cases := []func(*Terrain){
		func(c *Terrain) { c.Noise.Octaves = 11 },
		func(c *Terrain) { c.Noise.WarpOctaves = 4 },
		func(c *Terrain) { c.Noise.RidgeWeight = 1.5 },
		func(c *Terrain) { c.LOD.MaxLodLevels = 0 },
		func(c *Terrain) { c.LOD.MaxInstances = 0 },
		func(c *Terrain) { c.WorldSize = -1 },
	}
	for i, mutate := range cases {
		c := DefaultTerrain()
		mutate(&c)
		assert.ErrorIs(t, c.Validate(), ErrInvalidConfig, "case %d", i)
	}
}
