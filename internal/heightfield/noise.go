package heightfield

import (
	"math"

	"github.com/aquilax/go-perlin"

	"terrascape/internal/config"
)

// CPU generation backend. Mirrors the compute kernel composition: a domain
// pre-warp, an FBM stack with optional per-octave rotation, and a ridge
// blend, centered so the mean sits near zero.

const (
	perlinAlpha = 2.0
	perlinBeta  = 2.0
	// seed offsets keep the warp channels decorrelated from the base field
	warpSeedOffsetX = 0x5f21
	warpSeedOffsetY = 0x9d07
)

type noiseGen struct {
	base  *perlin.Perlin
	warpX *perlin.Perlin
	warpY *perlin.Perlin
	p     config.Noise
}

func newNoiseGen(p config.Noise) *noiseGen {
	return &noiseGen{
		base:  perlin.NewPerlin(perlinAlpha, perlinBeta, 1, p.Seed),
		warpX: perlin.NewPerlin(perlinAlpha, perlinBeta, 1, p.Seed+warpSeedOffsetX),
		warpY: perlin.NewPerlin(perlinAlpha, perlinBeta, 1, p.Seed+warpSeedOffsetY),
		p:     p,
	}
}

func (g *noiseGen) fbm(src *perlin.Perlin, x, y float64, octaves int) float64 {
	if octaves <= 0 {
		return 0
	}
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	rot := float64(mglDegToRad(g.p.OctaveRotationDeg))
	for i := 0; i < octaves; i++ {
		sx, sy := x*frequency, y*frequency
		if g.p.RotateOctaves && i > 0 {
			a := rot * float64(i)
			c, s := math.Cos(a), math.Sin(a)
			sx, sy = sx*c-sy*s, sx*s+sy*c
		}
		sum += src.Noise2D(sx+12.9, sy+7.3) * amplitude
		norm += amplitude
		amplitude *= float64(g.p.Persistence)
		frequency *= float64(g.p.Lacunarity)
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// ridge folds a centered height into a crest: zero crossings of the source
// become ridgelines, and the output stays centered.
func ridge(h float64) float64 {
	return 0.5 - 2.0*math.Abs(h)
}

// sample returns the normalized height at position (u, v) in [0, 1]^2
func (g *noiseGen) sample(u, v float64) float32 {
	p := g.p
	if p.Octaves <= 0 {
		return 0
	}
	x := (u-0.5)*float64(p.ScaleX) + float64(p.OffsetX)
	y := (v-0.5)*float64(p.ScaleY) + float64(p.OffsetY)

	if p.WarpStrength != 0 && p.WarpOctaves > 0 {
		wx := g.fbm(g.warpX, x*float64(p.WarpScaleX), y*float64(p.WarpScaleY), p.WarpOctaves)
		wy := g.fbm(g.warpY, x*float64(p.WarpScaleX), y*float64(p.WarpScaleY), p.WarpOctaves)
		x += wx * float64(p.WarpStrength)
		y += wy * float64(p.WarpStrength)
	}

	h := g.fbm(g.base, x, y, p.Octaves) * 0.5
	if p.RidgeWeight > 0 {
		h += (ridge(h) - h) * float64(p.RidgeWeight)
	}
	return float32(h)
}

// GenerateNoise fills a heightfield of the given resolution from the noise
// configuration. Deterministic for a fixed (resolution, params) pair.
func GenerateNoise(resolution int, p config.Noise) []float32 {
	g := newNoiseGen(p)
	data := make([]float32, resolution*resolution)
	inv := 1.0 / float64(resolution)
	for z := 0; z < resolution; z++ {
		v := (float64(z) + 0.5) * inv
		for x := 0; x < resolution; x++ {
			u := (float64(x) + 0.5) * inv
			data[z*resolution+x] = g.sample(u, v)
		}
	}
	return data
}

// GenerateIslandMask builds the land/ocean mask: 1 on land, 0 in the ocean,
// continuous across the coast. The coastline is a radial falloff perturbed
// by low-frequency noise.
func GenerateIslandMask(resolution int, p config.Island) []float32 {
	coast := perlin.NewPerlin(perlinAlpha, perlinBeta, 1, p.Seed)
	data := make([]float32, resolution*resolution)
	inv := 1.0 / float64(resolution)
	for z := 0; z < resolution; z++ {
		py := (float64(z)+0.5)*inv - 0.5
		for x := 0; x < resolution; x++ {
			px := (float64(x)+0.5)*inv - 0.5
			r := math.Hypot(px, py)
			r += coast.Noise2D(px*3+31.7, py*3+17.3) * float64(p.CoastNoiseStrength)
			ocean := smoothstep(float64(p.Radius-p.CoastFalloff), float64(p.Radius), r)
			data[z*resolution+x] = float32(1 - ocean)
		}
	}
	return data
}

// GenerateNormals derives per-texel normals from central-difference
// gradients with world-space texel spacing, encoded as signed bytes
// (x, y, z, 0). This is the CPU mirror of the normal kernel, used by the
// CPU backend upload path.
func GenerateNormals(data []float32, resolution int, worldSize, heightScale, strength float32) []int8 {
	hf := &Heightfield{Resolution: resolution, Data: data}
	texel := worldSize / float32(resolution)
	out := make([]int8, resolution*resolution*4)
	for z := 0; z < resolution; z++ {
		for x := 0; x < resolution; x++ {
			dhdx := (hf.At(x+1, z) - hf.At(x-1, z)) * heightScale * strength / (2 * texel)
			dhdz := (hf.At(x, z+1) - hf.At(x, z-1)) * heightScale * strength / (2 * texel)
			nx, ny, nz := normalize3(-dhdx, 1, -dhdz)
			i := (z*resolution + x) * 4
			out[i+0] = packSnorm(nx)
			out[i+1] = packSnorm(ny)
			out[i+2] = packSnorm(nz)
			out[i+3] = 0
		}
	}
	return out
}

func normalize3(x, y, z float32) (float32, float32, float32) {
	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if l == 0 {
		return 0, 1, 0
	}
	return x / l, y / l, z / l
}

func packSnorm(v float32) int8 {
	s := v * 127
	if s > 127 {
		s = 127
	}
	if s < -127 {
		s = -127
	}
	return int8(math.Round(float64(s)))
}

func smoothstep(edge0, edge1, x float64) float64 {
	if edge1 == edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

func mglDegToRad(deg float32) float32 {
	return deg * math.Pi / 180
}
