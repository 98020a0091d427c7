package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrascape/internal/config"
)

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultTerrain()
	cfg.Resolution = 999
	_, err := NewManager(cfg)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestGenerateRequiresInitialize(t *testing.T) {
	m, err := NewManager(config.DefaultTerrain())
	require.NoError(t, err)

	assert.ErrorIs(t, m.Generate(nil), ErrNotInitialized)
	assert.ErrorIs(t, m.RegenerateHeightmapOnly(config.DefaultTerrain().Noise), ErrNotInitialized)
}

func TestRenderBeforeGenerateIsNoOp(t *testing.T) {
	m, err := NewManager(config.DefaultTerrain())
	require.NoError(t, err)

	// Must not touch the GPU or panic; it logs once and returns.
	m.Render(FrameParams{ViewProj: mgl32.Ident4()})
	m.Render(FrameParams{ViewProj: mgl32.Ident4()})
}

func TestShadowCallsBeforeInitializeAreNoOps(t *testing.T) {
	m, err := NewManager(config.DefaultTerrain())
	require.NoError(t, err)

	m.WriteShadowUniforms(mgl32.Vec3{}, []ShadowSlot{{LightVP: mgl32.Ident4()}})
	assert.NoError(t, m.RenderShadow(0))
	m.EndFrame()
	assert.Zero(t, m.ShadowDepthArray())
}

func TestSampleHeightAtWithoutReadback(t *testing.T) {
	m, err := NewManager(config.DefaultTerrain())
	require.NoError(t, err)

	assert.Zero(t, m.SampleHeightAt(10, -20))
	assert.Nil(t, m.Heightfield())
	assert.Zero(t, m.ClippedInstances())
}

func TestRegenerateRejectsInvalidPatchWithoutMutating(t *testing.T) {
	m, err := NewManager(config.DefaultTerrain())
	require.NoError(t, err)

	bad := 77 // not a power of two
	err = m.Regenerate(config.TerrainPatch{Resolution: &bad}, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, config.DefaultTerrain().Resolution, m.Config().Resolution)
}

func TestLiveSettersUpdateStoredConfig(t *testing.T) {
	m, err := NewManager(config.DefaultTerrain())
	require.NoError(t, err)

	m.SetIslandEnabled(true)
	m.SetSeaFloorDepth(-0.3)
	m.SetDetailConfig(config.Detail{Enabled: false})

	cfg := m.Config()
	assert.True(t, cfg.Island.Enabled)
	assert.Equal(t, float32(-0.3), cfg.Island.SeaFloorDepth)
	assert.False(t, cfg.Detail.Enabled)
}
