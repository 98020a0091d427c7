package heightfield

import (
	"math"

	"terrascape/internal/config"
)

// CPU erosion backend. Semantics match the compute kernels: hydraulic
// droplets accumulate deposits and cuts into a scatter buffer that is
// folded back after each iteration; thermal erosion moves material to
// lower neighbors and conserves total mass.

// baseResolution is the resolution the erosion rate parameters are tuned
// for. Runs at other resolutions rescale droplet count, lifetime and rates.
const baseResolution = 1024

// ScaleErosion rescales resolution-dependent hydraulic parameters from the
// 1024 baseline to the given resolution.
func ScaleErosion(p config.Erosion, resolution int) config.Erosion {
	f := float32(resolution) / baseResolution
	p.DropletsPerIteration = int(float32(p.DropletsPerIteration) * f * f)
	p.MaxDropletLifetime = int(float32(p.MaxDropletLifetime) * f)
	p.ErosionRate *= f
	p.DepositionRate *= f
	return p
}

// splitmix64 hashes droplet identity into a stable 64-bit stream
func splitmix64(v uint64) uint64 {
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// dropletStart returns the hashed uniform start position of one droplet
func dropletStart(seed int64, iteration, index, resolution int) (float32, float32) {
	h := splitmix64(uint64(seed) ^ uint64(iteration)<<32 ^ uint64(index))
	x := float32(h&0xFFFFFFFF) / float32(0x100000000) * float32(resolution)
	z := float32(h>>32) / float32(0x100000000) * float32(resolution)
	return x, z
}

// gradientHeight returns the bilinear gradient and height at a continuous
// position inside the field.
func gradientHeight(data []float32, res int, px, pz float32) (gx, gz, h float32) {
	xi := int(px)
	zi := int(pz)
	if xi > res-2 {
		xi = res - 2
	}
	if zi > res-2 {
		zi = res - 2
	}
	u := px - float32(xi)
	v := pz - float32(zi)

	h00 := data[zi*res+xi]
	h10 := data[zi*res+xi+1]
	h01 := data[(zi+1)*res+xi]
	h11 := data[(zi+1)*res+xi+1]

	gx = (h10-h00)*(1-v) + (h11-h01)*v
	gz = (h01-h00)*(1-u) + (h11-h10)*u
	h = h00*(1-u)*(1-v) + h10*u*(1-v) + h01*(1-u)*v + h11*u*v
	return
}

// depositBrush spreads an amount over a Gaussian disc in the scatter buffer
func depositBrush(scatter []float32, res int, px, pz float32, radius int, amount float32) {
	if radius < 1 {
		radius = 1
	}
	cx := int(px)
	cz := int(pz)
	sigma := float32(radius) / 2
	var weightSum float32
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			x, z := cx+dx, cz+dz
			if x < 0 || x >= res || z < 0 || z >= res {
				continue
			}
			d2 := float32(dx*dx + dz*dz)
			if d2 > float32(radius*radius) {
				continue
			}
			weightSum += expf(-d2 / (2 * sigma * sigma))
		}
	}
	if weightSum == 0 {
		return
	}
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			x, z := cx+dx, cz+dz
			if x < 0 || x >= res || z < 0 || z >= res {
				continue
			}
			d2 := float32(dx*dx + dz*dz)
			if d2 > float32(radius*radius) {
				continue
			}
			w := expf(-d2/(2*sigma*sigma)) / weightSum
			scatter[z*res+x] += amount * w
		}
	}
}

// erodeAt removes an amount at the droplet position with bilinear weights
func erodeAt(scatter []float32, res int, px, pz float32, amount float32) {
	xi := int(px)
	zi := int(pz)
	if xi > res-2 {
		xi = res - 2
	}
	if zi > res-2 {
		zi = res - 2
	}
	u := px - float32(xi)
	v := pz - float32(zi)
	scatter[zi*res+xi] -= amount * (1 - u) * (1 - v)
	scatter[zi*res+xi+1] -= amount * u * (1 - v)
	scatter[(zi+1)*res+xi] -= amount * (1 - u) * v
	scatter[(zi+1)*res+xi+1] -= amount * u * v
}

// ErodeHydraulic runs droplet erosion iterations in place. The seed
// advances with the iteration index so repeated calls over the same field
// produce uncorrelated droplet swarms. Deterministic for identical
// parameters.
func ErodeHydraulic(data []float32, resolution int, p config.Erosion, iterations int) {
	sp := ScaleErosion(p, resolution)
	if sp.DropletsPerIteration < 1 || sp.MaxDropletLifetime < 1 {
		return
	}
	scatter := make([]float32, len(data))

	for iter := 0; iter < iterations; iter++ {
		for i := range scatter {
			scatter[i] = 0
		}
		for d := 0; d < sp.DropletsPerIteration; d++ {
			simulateDroplet(data, scatter, resolution, sp, iter, d)
		}
		// finalize: fold the scatter buffer back into the heightfield
		for i := range data {
			data[i] += scatter[i]
		}
	}
}

func simulateDroplet(data, scatter []float32, res int, p config.Erosion, iteration, index int) {
	px, pz := dropletStart(p.Seed, iteration, index, res)
	var dirX, dirZ float32
	speed := float32(1)
	water := float32(1)
	sediment := float32(0)

	for life := 0; life < p.MaxDropletLifetime; life++ {
		gx, gz, h := gradientHeight(data, res, px, pz)

		// blend flow direction with the downhill gradient
		dirX = dirX*p.Inertia - gx*(1-p.Inertia)
		dirZ = dirZ*p.Inertia - gz*(1-p.Inertia)
		l := float32(math.Sqrt(float64(dirX*dirX + dirZ*dirZ)))
		if l < 1e-8 {
			break
		}
		dirX /= l
		dirZ /= l

		px += dirX
		pz += dirZ
		if px < 0 || px >= float32(res-1) || pz < 0 || pz >= float32(res-1) {
			break
		}

		_, _, newH := gradientHeight(data, res, px, pz)
		dh := newH - h
		slope := -dh

		capacity := slope * speed * water * p.SedimentCapacity
		if capacity < p.MinCapacity {
			capacity = p.MinCapacity
		}

		if sediment > capacity || slope < p.MinSlope {
			deposit := (sediment - capacity) * p.DepositionRate
			if dh > 0 {
				// walked uphill into a pit: drop enough to level out
				deposit = sediment
				if deposit > dh {
					deposit = dh
				}
			}
			if deposit > 0 {
				sediment -= deposit
				depositBrush(scatter, res, px, pz, p.BrushRadius, deposit)
			}
		} else {
			erode := capacity - sediment
			if erode > slope {
				erode = slope
			}
			erode *= p.ErosionRate * p.HeightScaleFactor
			if erode > 0 {
				sediment += erode
				erodeAt(scatter, res, px, pz, erode)
			}
		}

		s2 := speed*speed + slope*p.Gravity
		if s2 < 0 {
			s2 = 0
		}
		speed = float32(math.Sqrt(float64(s2)))
		water *= 1 - p.EvaporationRate
		if water < 1e-4 {
			break
		}
	}
}

// ErodeThermal runs thermal (talus) erosion iterations in place. For each
// texel, material moves to every neighbor that sits lower by more than the
// talus threshold. All transfers are paired, so total mass is conserved to
// floating-point error.
func ErodeThermal(data []float32, resolution int, p config.Thermal, iterations int) {
	if iterations < 1 {
		return
	}
	res := resolution
	threshold := p.TalusAngle / float32(res)
	delta := make([]float32, len(data))

	var neighbors = [8][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}

	for iter := 0; iter < iterations; iter++ {
		for i := range delta {
			delta[i] = 0
		}
		for z := 0; z < res; z++ {
			for x := 0; x < res; x++ {
				h := data[z*res+x]
				for _, n := range neighbors {
					nx, nz := x+n[0], z+n[1]
					if nx < 0 || nx >= res || nz < 0 || nz >= res {
						continue
					}
					diff := h - data[nz*res+nx]
					if diff <= threshold {
						continue
					}
					move := p.ErosionRate * (diff - threshold) / 2
					delta[z*res+x] -= move
					delta[nz*res+nx] += move
				}
			}
		}
		for i := range data {
			data[i] += delta[i]
		}
	}
}

func expf(v float32) float32 {
	return float32(math.Exp(float64(v)))
}
