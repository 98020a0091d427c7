package config

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Terrain is the full generation + rendering configuration tree. It is a
// plain value: the orchestrator stores one and derives everything from it.
type Terrain struct {
	WorldSize   float32 // side length of the square terrain, world units
	HeightScale float32 // world height = normalized sample * HeightScale
	Resolution  int     // heightmap resolution, power of two
	Backend     string  // "gpu" (compute kernels) or "cpu" (mirror + upload)

	LOD     LOD
	Noise   Noise
	Erosion Erosion
	Thermal Thermal
	Island  Island

	Material Material
	Detail   Detail
}

// LOD configures the quadtree and patch mesh.
type LOD struct {
	MaxLodLevels          int
	MinNodeSize           float32
	LodDistanceMultiplier float32
	MorphRegion           float32 // fraction of the split distance used for morphing
	GridSize              int     // patch grid resolution, must be odd
	MaxInstances          int
	SkirtDepthMultiplier  float32
}

// Noise configures the layered heightmap noise.
type Noise struct {
	OffsetX, OffsetY  float32
	ScaleX, ScaleY    float32
	Octaves           int // 1..10; 0 yields a flat field
	Persistence       float32
	Lacunarity        float32
	Seed              int64
	WarpStrength      float32
	WarpScaleX        float32
	WarpScaleY        float32
	WarpOctaves       int // 0..3; 0 disables the domain warp
	RidgeWeight       float32
	RotateOctaves     bool
	OctaveRotationDeg float32
	NormalStrength    float32
}

// Erosion configures hydraulic droplet erosion. Rates are given for the
// 1024 base resolution and rescaled per run.
type Erosion struct {
	Iterations           int
	DropletsPerIteration int
	MaxDropletLifetime   int
	Inertia              float32
	SedimentCapacity     float32
	MinCapacity          float32
	MinSlope             float32
	DepositionRate       float32
	ErosionRate          float32
	EvaporationRate      float32
	Gravity              float32
	BrushRadius          int
	HeightScaleFactor    float32
	Seed                 int64
}

// Thermal configures thermal (talus) erosion.
type Thermal struct {
	Iterations  int
	TalusAngle  float32 // slide threshold; the per-texel height delta is TalusAngle/resolution
	ErosionRate float32
}

// Island configures the optional island mask.
type Island struct {
	Enabled            bool
	SeaFloorDepth      float32 // normalized height the ocean floor blends toward
	Radius             float32 // in normalized [0, 0.5] space
	CoastFalloff       float32
	CoastNoiseStrength float32
	Seed               int64
	Resolution         int
}

// Material holds the biome shading parameters. All of these are live
// uniforms: changing them never requires a regeneration.
type Material struct {
	GrassColor mgl32.Vec3
	RockColor  mgl32.Vec3
	SnowColor  mgl32.Vec3
	DirtColor  mgl32.Vec3
	BeachColor mgl32.Vec3

	BeachHeight float32 // normalized height below which beach blends in
	SnowHeight  float32 // normalized height above which snow blends in
	RockSlope   float32 // slope above which rock dominates
	BlendSharp  float32 // sharpness of the biome transitions
}

// Detail configures the high-frequency shading detail noise.
type Detail struct {
	Enabled   bool
	Amplitude float32
	Frequency float32
}

// DefaultTerrain returns the stock configuration: a 1024-unit world at
// 1024x1024 with moderate mountains and a light erosion pass.
func DefaultTerrain() Terrain {
	return Terrain{
		WorldSize:   1024,
		HeightScale: 160,
		Resolution:  1024,
		Backend:     "gpu",
		LOD: LOD{
			MaxLodLevels:          7,
			MinNodeSize:           8,
			LodDistanceMultiplier: 2.0,
			MorphRegion:           0.3,
			GridSize:              129,
			MaxInstances:          512,
			SkirtDepthMultiplier:  1.0,
		},
		Noise: Noise{
			ScaleX:            2.2,
			ScaleY:            2.2,
			Octaves:           7,
			Persistence:       0.48,
			Lacunarity:        2.05,
			Seed:              1337,
			WarpStrength:      0.18,
			WarpScaleX:        1.4,
			WarpScaleY:        1.4,
			WarpOctaves:       2,
			RidgeWeight:       0.35,
			RotateOctaves:     true,
			OctaveRotationDeg: 31,
			NormalStrength:    1.0,
		},
		Erosion: Erosion{
			Iterations:           30,
			DropletsPerIteration: 20000,
			MaxDropletLifetime:   48,
			Inertia:              0.06,
			SedimentCapacity:     4.2,
			MinCapacity:          0.01,
			MinSlope:             0.0005,
			DepositionRate:       0.28,
			ErosionRate:          0.28,
			EvaporationRate:      0.015,
			Gravity:              4.0,
			BrushRadius:          3,
			HeightScaleFactor:    1.0,
			Seed:                 99,
		},
		Thermal: Thermal{
			Iterations:  12,
			TalusAngle:  0.9,
			ErosionRate: 0.4,
		},
		Island: Island{
			Enabled:            false,
			SeaFloorDepth:      -0.22,
			Radius:             0.38,
			CoastFalloff:       0.1,
			CoastNoiseStrength: 0.07,
			Seed:               7,
			Resolution:         512,
		},
		Material: Material{
			GrassColor:  mgl32.Vec3{0.27, 0.42, 0.17},
			RockColor:   mgl32.Vec3{0.44, 0.40, 0.38},
			SnowColor:   mgl32.Vec3{0.93, 0.94, 0.96},
			DirtColor:   mgl32.Vec3{0.42, 0.32, 0.22},
			BeachColor:  mgl32.Vec3{0.76, 0.70, 0.50},
			BeachHeight: -0.02,
			SnowHeight:  0.27,
			RockSlope:   0.45,
			BlendSharp:  8.0,
		},
		Detail: Detail{
			Enabled:   true,
			Amplitude: 0.06,
			Frequency: 24,
		},
	}
}

// TerrainPatch is a partial Terrain used for live regeneration requests.
// Nil fields keep the stored value; the merge is recursive, so a patch can
// change a single noise parameter without restating the rest.
type TerrainPatch struct {
	WorldSize   *float32
	HeightScale *float32
	Resolution  *int
	Backend     *string

	LOD     *LODPatch
	Noise   *NoisePatch
	Erosion *ErosionPatch
	Thermal *ThermalPatch
	Island  *IslandPatch
}

// LODPatch is a partial LOD.
type LODPatch struct {
	MaxLodLevels          *int
	MinNodeSize           *float32
	LodDistanceMultiplier *float32
	MorphRegion           *float32
	GridSize              *int
	MaxInstances          *int
	SkirtDepthMultiplier  *float32
}

// NoisePatch is a partial Noise.
type NoisePatch struct {
	OffsetX, OffsetY  *float32
	ScaleX, ScaleY    *float32
	Octaves           *int
	Persistence       *float32
	Lacunarity        *float32
	Seed              *int64
	WarpStrength      *float32
	WarpScaleX        *float32
	WarpScaleY        *float32
	WarpOctaves       *int
	RidgeWeight       *float32
	RotateOctaves     *bool
	OctaveRotationDeg *float32
	NormalStrength    *float32
}

// ErosionPatch is a partial Erosion.
type ErosionPatch struct {
	Iterations           *int
	DropletsPerIteration *int
	MaxDropletLifetime   *int
	Inertia              *float32
	SedimentCapacity     *float32
	MinCapacity          *float32
	MinSlope             *float32
	DepositionRate       *float32
	ErosionRate          *float32
	EvaporationRate      *float32
	Gravity              *float32
	BrushRadius          *int
	HeightScaleFactor    *float32
	Seed                 *int64
}

// ThermalPatch is a partial Thermal.
type ThermalPatch struct {
	Iterations  *int
	TalusAngle  *float32
	ErosionRate *float32
}

// IslandPatch is a partial Island.
type IslandPatch struct {
	Enabled            *bool
	SeaFloorDepth      *float32
	Radius             *float32
	CoastFalloff       *float32
	CoastNoiseStrength *float32
	Seed               *int64
	Resolution         *int
}

func setF(dst *float32, src *float32) {
	if src != nil {
		*dst = *src
	}
}

func setI(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setI64(dst *int64, src *int64) {
	if src != nil {
		*dst = *src
	}
}

func setB(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Merge applies a patch and returns the merged configuration. The receiver
// is not modified.
func (c Terrain) Merge(p TerrainPatch) Terrain {
	setF(&c.WorldSize, p.WorldSize)
	setF(&c.HeightScale, p.HeightScale)
	setI(&c.Resolution, p.Resolution)
	if p.Backend != nil {
		c.Backend = *p.Backend
	}
	if lp := p.LOD; lp != nil {
		setI(&c.LOD.MaxLodLevels, lp.MaxLodLevels)
		setF(&c.LOD.MinNodeSize, lp.MinNodeSize)
		setF(&c.LOD.LodDistanceMultiplier, lp.LodDistanceMultiplier)
		setF(&c.LOD.MorphRegion, lp.MorphRegion)
		setI(&c.LOD.GridSize, lp.GridSize)
		setI(&c.LOD.MaxInstances, lp.MaxInstances)
		setF(&c.LOD.SkirtDepthMultiplier, lp.SkirtDepthMultiplier)
	}
	if np := p.Noise; np != nil {
		setF(&c.Noise.OffsetX, np.OffsetX)
		setF(&c.Noise.OffsetY, np.OffsetY)
		setF(&c.Noise.ScaleX, np.ScaleX)
		setF(&c.Noise.ScaleY, np.ScaleY)
		setI(&c.Noise.Octaves, np.Octaves)
		setF(&c.Noise.Persistence, np.Persistence)
		setF(&c.Noise.Lacunarity, np.Lacunarity)
		setI64(&c.Noise.Seed, np.Seed)
		setF(&c.Noise.WarpStrength, np.WarpStrength)
		setF(&c.Noise.WarpScaleX, np.WarpScaleX)
		setF(&c.Noise.WarpScaleY, np.WarpScaleY)
		setI(&c.Noise.WarpOctaves, np.WarpOctaves)
		setF(&c.Noise.RidgeWeight, np.RidgeWeight)
		setB(&c.Noise.RotateOctaves, np.RotateOctaves)
		setF(&c.Noise.OctaveRotationDeg, np.OctaveRotationDeg)
		setF(&c.Noise.NormalStrength, np.NormalStrength)
	}
	if ep := p.Erosion; ep != nil {
		setI(&c.Erosion.Iterations, ep.Iterations)
		setI(&c.Erosion.DropletsPerIteration, ep.DropletsPerIteration)
		setI(&c.Erosion.MaxDropletLifetime, ep.MaxDropletLifetime)
		setF(&c.Erosion.Inertia, ep.Inertia)
		setF(&c.Erosion.SedimentCapacity, ep.SedimentCapacity)
		setF(&c.Erosion.MinCapacity, ep.MinCapacity)
		setF(&c.Erosion.MinSlope, ep.MinSlope)
		setF(&c.Erosion.DepositionRate, ep.DepositionRate)
		setF(&c.Erosion.ErosionRate, ep.ErosionRate)
		setF(&c.Erosion.EvaporationRate, ep.EvaporationRate)
		setF(&c.Erosion.Gravity, ep.Gravity)
		setI(&c.Erosion.BrushRadius, ep.BrushRadius)
		setF(&c.Erosion.HeightScaleFactor, ep.HeightScaleFactor)
		setI64(&c.Erosion.Seed, ep.Seed)
	}
	if tp := p.Thermal; tp != nil {
		setI(&c.Thermal.Iterations, tp.Iterations)
		setF(&c.Thermal.TalusAngle, tp.TalusAngle)
		setF(&c.Thermal.ErosionRate, tp.ErosionRate)
	}
	if ip := p.Island; ip != nil {
		setB(&c.Island.Enabled, ip.Enabled)
		setF(&c.Island.SeaFloorDepth, ip.SeaFloorDepth)
		setF(&c.Island.Radius, ip.Radius)
		setF(&c.Island.CoastFalloff, ip.CoastFalloff)
		setF(&c.Island.CoastNoiseStrength, ip.CoastNoiseStrength)
		setI64(&c.Island.Seed, ip.Seed)
		setI(&c.Island.Resolution, ip.Resolution)
	}
	return c
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate rejects configurations that would fail at GPU submission time.
// It is called before any resource is touched, so a bad patch leaves the
// stored configuration unchanged.
func (c Terrain) Validate() error {
	if !isPowerOfTwo(c.Resolution) || c.Resolution < 64 || c.Resolution > 8192 {
		return fmt.Errorf("terrain resolution %d: %w (must be a power of two in [64, 8192])", c.Resolution, ErrInvalidConfig)
	}
	if c.WorldSize <= 0 {
		return fmt.Errorf("world size %g: %w", c.WorldSize, ErrInvalidConfig)
	}
	if c.LOD.GridSize < 3 || c.LOD.GridSize%2 == 0 {
		return fmt.Errorf("grid size %d: %w (must be odd and >= 3)", c.LOD.GridSize, ErrInvalidConfig)
	}
	if c.LOD.MaxLodLevels < 1 || c.LOD.MaxLodLevels > 12 {
		return fmt.Errorf("max LOD levels %d: %w", c.LOD.MaxLodLevels, ErrInvalidConfig)
	}
	if c.LOD.MaxInstances < 1 {
		return fmt.Errorf("max instances %d: %w", c.LOD.MaxInstances, ErrInvalidConfig)
	}
	if c.Noise.Octaves < 0 || c.Noise.Octaves > 10 {
		return fmt.Errorf("noise octaves %d: %w (must be in [0, 10])", c.Noise.Octaves, ErrInvalidConfig)
	}
	if c.Noise.WarpOctaves < 0 || c.Noise.WarpOctaves > 3 {
		return fmt.Errorf("warp octaves %d: %w (must be in [0, 3])", c.Noise.WarpOctaves, ErrInvalidConfig)
	}
	if c.Noise.RidgeWeight < 0 || c.Noise.RidgeWeight > 1 {
		return fmt.Errorf("ridge weight %g: %w (must be in [0, 1])", c.Noise.RidgeWeight, ErrInvalidConfig)
	}
	if c.Backend != "gpu" && c.Backend != "cpu" {
		return fmt.Errorf("backend %q: %w (must be \"gpu\" or \"cpu\")", c.Backend, ErrInvalidConfig)
	}
	if c.Island.Resolution != 0 && !isPowerOfTwo(c.Island.Resolution) {
		return fmt.Errorf("island mask resolution %d: %w", c.Island.Resolution, ErrInvalidConfig)
	}
	return nil
}
