package heightfield

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Heightfield is a CPU-resident copy of the terrain heightmap. Heights are
// normalized (roughly [-0.5, 0.5]); world height is a sample multiplied by
// HeightScale. The renderer never touches this type: it exists for height
// queries, analysis and the CPU generation backend.
type Heightfield struct {
	Resolution  int
	WorldSize   float32
	HeightScale float32
	Data        []float32 // row-major, Data[z*Resolution+x]
}

// New allocates a zeroed heightfield
func New(resolution int, worldSize, heightScale float32) *Heightfield {
	return &Heightfield{
		Resolution:  resolution,
		WorldSize:   worldSize,
		HeightScale: heightScale,
		Data:        make([]float32, resolution*resolution),
	}
}

// FromData wraps existing height data. The slice is retained, not copied.
func FromData(data []float32, resolution int, worldSize, heightScale float32) (*Heightfield, error) {
	if len(data) != resolution*resolution {
		return nil, fmt.Errorf("heightfield data length %d does not match resolution %d", len(data), resolution)
	}
	return &Heightfield{
		Resolution:  resolution,
		WorldSize:   worldSize,
		HeightScale: heightScale,
		Data:        data,
	}, nil
}

// At returns the normalized height at integer texel coordinates, clamped to
// the field bounds.
func (h *Heightfield) At(x, z int) float32 {
	r := h.Resolution
	if x < 0 {
		x = 0
	}
	if x >= r {
		x = r - 1
	}
	if z < 0 {
		z = 0
	}
	if z >= r {
		z = r - 1
	}
	return h.Data[z*r+x]
}

// Set writes the normalized height at integer texel coordinates
func (h *Heightfield) Set(x, z int, v float32) {
	h.Data[z*h.Resolution+x] = v
}

// SampleNormalized bilinearly samples at continuous texel coordinates
// (texel centers at integer + 0.5) and returns the normalized height.
func (h *Heightfield) SampleNormalized(fx, fz float32) float32 {
	fx -= 0.5
	fz -= 0.5
	x0 := int(floorf(fx))
	z0 := int(floorf(fz))
	tx := fx - floorf(fx)
	tz := fz - floorf(fz)

	h00 := h.At(x0, z0)
	h10 := h.At(x0+1, z0)
	h01 := h.At(x0, z0+1)
	h11 := h.At(x0+1, z0+1)

	top := h00 + (h10-h00)*tx
	bot := h01 + (h11-h01)*tx
	return top + (bot-top)*tz
}

// SampleWorld returns the bilinearly interpolated world-space height at
// world XZ coordinates, clamped to the terrain bounds.
func (h *Heightfield) SampleWorld(x, z float32) float32 {
	r := float32(h.Resolution)
	u := (x + h.WorldSize/2) / h.WorldSize
	v := (z + h.WorldSize/2) / h.WorldSize
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return h.SampleNormalized(u*r, v*r) * h.HeightScale
}

// Downsample returns the next mip level: each texel is the mean of the
// corresponding 2x2 block. This is the reference the GPU mipmap generator
// is held to.
func (h *Heightfield) Downsample() *Heightfield {
	r := h.Resolution / 2
	if r < 1 {
		r = 1
	}
	out := New(r, h.WorldSize, h.HeightScale)
	for z := 0; z < r; z++ {
		for x := 0; x < r; x++ {
			sum := h.At(2*x, 2*z) + h.At(2*x+1, 2*z) + h.At(2*x, 2*z+1) + h.At(2*x+1, 2*z+1)
			out.Data[z*r+x] = sum / 4
		}
	}
	return out
}

// Sum returns the integral of normalized height over the field
func (h *Heightfield) Sum() float64 {
	total := 0.0
	for _, v := range h.Data {
		total += float64(v)
	}
	return total
}

// Stats summarizes the height distribution
type Stats struct {
	Min, Max float64
	Mean     float64
	StdDev   float64
	Q10      float64
	Median   float64
	Q90      float64
}

// ComputeStats returns distribution statistics over the normalized heights
func (h *Heightfield) ComputeStats() Stats {
	data := make([]float64, len(h.Data))
	for i, v := range h.Data {
		data[i] = float64(v)
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(data, nil)
	return Stats{
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Mean:   mean,
		StdDev: std,
		Q10:    stat.Quantile(0.1, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("min=%.4f max=%.4f mean=%.4f stddev=%.4f q10=%.4f q90=%.4f",
		s.Min, s.Max, s.Mean, s.StdDev, s.Q10, s.Q90)
}

func floorf(v float32) float32 {
	i := float32(int(v))
	if v < 0 && v != i {
		i--
	}
	return i
}
