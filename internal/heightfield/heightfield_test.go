package heightfield

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDataRejectsWrongLength(t *testing.T) {
	_, err := FromData(make([]float32, 10), 4, 16, 1)
	require.Error(t, err)
}

func TestSampleWorldMatchesTexelCenters(t *testing.T) {
	const res = 8
	h := New(res, 16, 2)
	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			h.Set(x, z, float32(x)*0.01+float32(z)*0.002)
		}
	}

	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			wx := (float32(x)+0.5)/res*h.WorldSize - h.WorldSize/2
			wz := (float32(z)+0.5)/res*h.WorldSize - h.WorldSize/2
			want := h.At(x, z) * h.HeightScale
			assert.InDelta(t, want, h.SampleWorld(wx, wz), 1e-5, "texel (%d,%d)", x, z)
		}
	}
}

func TestSampleWorldInterpolatesBetweenTexels(t *testing.T) {
	h := New(2, 2, 1)
	h.Set(0, 0, 0)
	h.Set(1, 0, 1)
	h.Set(0, 1, 0)
	h.Set(1, 1, 1)

	// Halfway between the two texel columns.
	assert.InDelta(t, 0.5, h.SampleWorld(0, 0), 1e-6)
}

func TestSampleWorldClampsToBounds(t *testing.T) {
	h := New(4, 8, 3)
	for i := range h.Data {
		h.Data[i] = 0.25
	}
	assert.InDelta(t, 0.75, h.SampleWorld(-100, -100), 1e-6)
	assert.InDelta(t, 0.75, h.SampleWorld(100, 100), 1e-6)
}

func TestDownsampleIsBoxFilter(t *testing.T) {
	h := New(4, 4, 1)
	for i := range h.Data {
		h.Data[i] = float32(i)
	}

	m := h.Downsample()
	require.Equal(t, 2, m.Resolution)
	assert.InDelta(t, float64(0+1+4+5)/4, float64(m.At(0, 0)), 1e-6)
	assert.InDelta(t, float64(2+3+6+7)/4, float64(m.At(1, 0)), 1e-6)
	assert.InDelta(t, float64(8+9+12+13)/4, float64(m.At(0, 1)), 1e-6)
	assert.InDelta(t, float64(10+11+14+15)/4, float64(m.At(1, 1)), 1e-6)
}

func TestMipChainPreservesMean(t *testing.T) {
	const res = 16
	h := New(res, res, 1)
	h.Data = GenerateNoise(res, testNoise())

	wantMean := h.Sum() / float64(len(h.Data))
	m := h
	for m.Resolution > 1 {
		m = m.Downsample()
		gotMean := m.Sum() / float64(len(m.Data))
		assert.InDelta(t, wantMean, gotMean, 1e-4, "mip at resolution %d", m.Resolution)
	}
	require.Equal(t, 1, m.Resolution)
}

func TestComputeStatsOrdering(t *testing.T) {
	h := New(8, 8, 1)
	h.Data = GenerateNoise(8, testNoise())

	s := h.ComputeStats()
	assert.LessOrEqual(t, s.Min, s.Q10)
	assert.LessOrEqual(t, s.Q10, s.Median)
	assert.LessOrEqual(t, s.Median, s.Q90)
	assert.LessOrEqual(t, s.Q90, s.Max)
	assert.False(t, math.IsNaN(s.StdDev))
}
