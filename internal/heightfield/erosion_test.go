package heightfield

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrascape/internal/config"
)

func TestScaleErosionIdentityAtBaseResolution(t *testing.T) {
	p := config.DefaultTerrain().Erosion
	assert.Equal(t, p, ScaleErosion(p, 1024))
}

func TestScaleErosionHalvesAndQuarters(t *testing.T) {
	p := config.DefaultTerrain().Erosion
	p.DropletsPerIteration = 20000
	p.MaxDropletLifetime = 48
	p.ErosionRate = 0.4
	p.DepositionRate = 0.2

	s := ScaleErosion(p, 512)
	assert.Equal(t, 5000, s.DropletsPerIteration)
	assert.Equal(t, 24, s.MaxDropletLifetime)
	assert.InDelta(t, 0.2, s.ErosionRate, 1e-6)
	assert.InDelta(t, 0.1, s.DepositionRate, 1e-6)
}

func TestThermalConservesMass(t *testing.T) {
	const res = 32
	data := GenerateNoise(res, testNoise())
	before := (&Heightfield{Resolution: res, Data: data}).Sum()

	p := config.DefaultTerrain().Thermal
	ErodeThermal(data, res, p, 20)

	after := (&Heightfield{Resolution: res, Data: data}).Sum()
	assert.InDelta(t, before, after, 1e-3)
}

func TestThermalSmoothsSpike(t *testing.T) {
	const res = 16
	data := make([]float32, res*res)
	data[8*res+8] = 0.5

	before := (&Heightfield{Resolution: res, Data: data}).ComputeStats()
	ErodeThermal(data, res, config.Thermal{TalusAngle: 0.9, ErosionRate: 0.1}, 10)
	after := (&Heightfield{Resolution: res, Data: data}).ComputeStats()

	assert.Less(t, after.StdDev, before.StdDev)
}

func TestThermalIgnoresSlopesBelowTalus(t *testing.T) {
	const res = 16
	p := config.Thermal{Iterations: 1, TalusAngle: 2.0, ErosionRate: 0.5}
	// Ramp with a per-texel step well below the 2/16 threshold.
	data := make([]float32, res*res)
	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			data[z*res+x] = float32(x) * 0.01
		}
	}
	want := append([]float32(nil), data...)

	ErodeThermal(data, res, p, 5)
	assert.Equal(t, want, data)
}

func basinParams() config.Erosion {
	p := config.DefaultTerrain().Erosion
	// Tuned for the 64-resolution test field; ScaleErosion divides the
	// droplet count by 256 and the rates by 16.
	p.DropletsPerIteration = 1024000
	p.MaxDropletLifetime = 512
	p.ErosionRate = 8
	p.DepositionRate = 4.8
	p.Seed = 7
	return p
}

func coneField(res int, radius, peak float32) []float32 {
	data := make([]float32, res*res)
	c := float32(res) / 2
	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			dx := float32(x) - c
			dz := float32(z) - c
			r := float32(math.Hypot(float64(dx), float64(dz)))
			h := peak * (1 - r/radius)
			if h < 0 {
				h = 0
			}
			data[z*res+x] = h
		}
	}
	return data
}

func TestHydraulicIsDeterministic(t *testing.T) {
	const res = 32
	a := coneField(res, 10, 0.5)
	b := coneField(res, 10, 0.5)

	p := basinParams()
	ErodeHydraulic(a, res, p, 3)
	ErodeHydraulic(b, res, p, 3)
	assert.Equal(t, a, b)
}

func TestHydraulicCarvesBasin(t *testing.T) {
	const res = 64
	data := coneField(res, 20, 0.5)

	var flat []int
	for i, v := range data {
		if v == 0 {
			flat = append(flat, i)
		}
	}
	require.NotEmpty(t, flat)

	before := &Heightfield{Resolution: res, Data: append([]float32(nil), data...)}
	beforeSum := before.Sum()
	beforePeak := before.ComputeStats().Max

	ErodeHydraulic(data, res, basinParams(), 50)

	after := &Heightfield{Resolution: res, Data: data}

	// The peak loses at least a fifth of its height.
	assert.Less(t, after.ComputeStats().Max, beforePeak*0.8)

	// Sediment settles on the plain around the cone.
	var flatGain float64
	for _, i := range flat {
		flatGain += float64(data[i] - 0)
	}
	assert.Greater(t, flatGain/float64(len(flat)), 1e-4)

	// Hydraulic erosion does not create mass; droplets leaving the field
	// only remove it.
	assert.Less(t, after.Sum(), beforeSum+1e-3)
}

func TestHydraulicNoopWithoutDroplets(t *testing.T) {
	const res = 32
	data := coneField(res, 10, 0.5)
	want := append([]float32(nil), data...)

	p := basinParams()
	p.DropletsPerIteration = 0
	ErodeHydraulic(data, res, p, 10)
	assert.Equal(t, want, data)
}
