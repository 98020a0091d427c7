package compute

// Compute kernel sources for noise, mipmaps, normals, island mask, and both
// erosion passes. With the "cpu" backend, noise and erosion run on the CPU
// instead and only the mipmap, normal and island kernels are used. The
// hash/value-noise
// helpers are shared between kernels via source concatenation.

const noiseCommonSrc = `
// SplitMix-style integer hash, stable for a given (lattice, seed) pair
uint hashLattice(ivec2 p, uint seed) {
	uint v = uint(p.x) * 0x9E3779B9u + uint(p.y) * 0x85EBCA6Bu + seed * 0xC2B2AE35u;
	v += 0x9E3779B9u;
	v ^= v >> 15;
	v *= 0x2C1B3C6Du;
	v ^= v >> 12;
	v *= 0x297A2D39u;
	v ^= v >> 15;
	return v;
}

float latticeValue(ivec2 p, uint seed) {
	return float(hashLattice(p, seed)) / 4294967295.0;
}

float fade(float t) {
	return t * t * t * (t * (t * 6.0 - 15.0) + 10.0);
}

// Value noise in [-1, 1]
float valueNoise(vec2 p, uint seed) {
	vec2 p0 = floor(p);
	vec2 f = p - p0;
	ivec2 i0 = ivec2(p0);

	float v00 = latticeValue(i0, seed);
	float v10 = latticeValue(i0 + ivec2(1, 0), seed);
	float v01 = latticeValue(i0 + ivec2(0, 1), seed);
	float v11 = latticeValue(i0 + ivec2(1, 1), seed);

	float fx = fade(f.x);
	float fy = fade(f.y);
	float v = mix(mix(v00, v10, fx), mix(v01, v11, fx), fy);
	return v * 2.0 - 1.0;
}

float fbm(vec2 p, uint seed, int octaves, float persistence, float lacunarity,
          bool rotate, float rotation) {
	float amplitude = 1.0;
	float frequency = 1.0;
	float sum = 0.0;
	float norm = 0.0;
	for (int i = 0; i < octaves; i++) {
		vec2 sp = p * frequency;
		if (rotate && i > 0) {
			float a = rotation * float(i);
			float c = cos(a);
			float s = sin(a);
			sp = vec2(sp.x * c - sp.y * s, sp.x * s + sp.y * c);
		}
		sum += valueNoise(sp, seed + uint(i) * 131u) * amplitude;
		norm += amplitude;
		amplitude *= persistence;
		frequency *= lacunarity;
	}
	if (norm == 0.0) {
		return 0.0;
	}
	return sum / norm;
}
`

// NoiseKernel fills mip 0 of the heightmap with the layered noise field:
// domain pre-warp, rotated FBM stack, ridge blend, centered output.
const NoiseKernel = `#version 460 core
layout(local_size_x = 16, local_size_y = 16) in;
layout(binding = 0, r32f) uniform writeonly image2D uHeightOut;

uniform int uResolution;
uniform vec2 uOffset;
uniform vec2 uScale;
uniform int uOctaves;
uniform float uPersistence;
uniform float uLacunarity;
uniform uint uSeed;
uniform float uWarpStrength;
uniform vec2 uWarpScale;
uniform int uWarpOctaves;
uniform float uRidgeWeight;
uniform bool uRotateOctaves;
uniform float uOctaveRotation;
` + noiseCommonSrc + `
void main() {
	ivec2 gid = ivec2(gl_GlobalInvocationID.xy);
	if (gid.x >= uResolution || gid.y >= uResolution) {
		return;
	}
	if (uOctaves <= 0) {
		imageStore(uHeightOut, gid, vec4(0.0));
		return;
	}

	vec2 uv = (vec2(gid) + 0.5) / float(uResolution);
	vec2 p = (uv - 0.5) * uScale + uOffset;

	if (uWarpStrength != 0.0 && uWarpOctaves > 0) {
		vec2 wp = p * uWarpScale;
		float wx = fbm(wp, uSeed + 0x5F21u, uWarpOctaves, uPersistence, uLacunarity, false, 0.0);
		float wy = fbm(wp, uSeed + 0x9D07u, uWarpOctaves, uPersistence, uLacunarity, false, 0.0);
		p += vec2(wx, wy) * uWarpStrength;
	}

	float h = fbm(p, uSeed, uOctaves, uPersistence, uLacunarity, uRotateOctaves, uOctaveRotation) * 0.5;
	float ridged = 0.5 - 2.0 * abs(h);
	h = mix(h, ridged, uRidgeWeight);

	imageStore(uHeightOut, gid, vec4(h, 0.0, 0.0, 0.0));
}
`

// MipmapKernel writes one texel of mip k as the 2x2 box average of mip k-1
const MipmapKernel = `#version 460 core
layout(local_size_x = 16, local_size_y = 16) in;
layout(binding = 0, r32f) uniform readonly image2D uSrc;
layout(binding = 1, r32f) uniform writeonly image2D uDst;

void main() {
	ivec2 gid = ivec2(gl_GlobalInvocationID.xy);
	ivec2 dstSize = imageSize(uDst);
	if (gid.x >= dstSize.x || gid.y >= dstSize.y) {
		return;
	}
	ivec2 srcSize = imageSize(uSrc);
	ivec2 s = min(gid * 2, srcSize - 1);
	ivec2 s1 = min(s + 1, srcSize - 1);

	float sum = imageLoad(uSrc, s).r +
	            imageLoad(uSrc, ivec2(s1.x, s.y)).r +
	            imageLoad(uSrc, ivec2(s.x, s1.y)).r +
	            imageLoad(uSrc, s1).r;
	imageStore(uDst, gid, vec4(sum * 0.25, 0.0, 0.0, 0.0));
}
`

// NormalKernel derives normals from central-difference height gradients
// scaled by world-space texel spacing.
const NormalKernel = `#version 460 core
layout(local_size_x = 16, local_size_y = 16) in;
layout(binding = 0, r32f) uniform readonly image2D uHeight;
layout(binding = 1, rgba8_snorm) uniform writeonly image2D uNormalOut;

uniform float uTexelSize;   // worldSize / resolution
uniform float uHeightScale;
uniform float uStrength;

float heightAt(ivec2 p, ivec2 size) {
	return imageLoad(uHeight, clamp(p, ivec2(0), size - 1)).r;
}

void main() {
	ivec2 gid = ivec2(gl_GlobalInvocationID.xy);
	ivec2 size = imageSize(uHeight);
	if (gid.x >= size.x || gid.y >= size.y) {
		return;
	}

	float scale = uHeightScale * uStrength / (2.0 * uTexelSize);
	float dhdx = (heightAt(gid + ivec2(1, 0), size) - heightAt(gid - ivec2(1, 0), size)) * scale;
	float dhdz = (heightAt(gid + ivec2(0, 1), size) - heightAt(gid - ivec2(0, 1), size)) * scale;

	vec3 n = normalize(vec3(-dhdx, 1.0, -dhdz));
	imageStore(uNormalOut, gid, vec4(n, 0.0));
}
`

// IslandKernel builds the land/ocean mask from a noisy radial falloff
const IslandKernel = `#version 460 core
layout(local_size_x = 16, local_size_y = 16) in;
layout(binding = 0, r32f) uniform writeonly image2D uMaskOut;

uniform int uResolution;
uniform float uRadius;
uniform float uCoastFalloff;
uniform float uCoastNoiseStrength;
uniform uint uSeed;
` + noiseCommonSrc + `
void main() {
	ivec2 gid = ivec2(gl_GlobalInvocationID.xy);
	if (gid.x >= uResolution || gid.y >= uResolution) {
		return;
	}

	vec2 p = (vec2(gid) + 0.5) / float(uResolution) - 0.5;
	float r = length(p);
	r += fbm(p * 3.0, uSeed, 2, 0.5, 2.0, false, 0.0) * uCoastNoiseStrength;

	float ocean = smoothstep(uRadius - uCoastFalloff, uRadius, r);
	imageStore(uMaskOut, gid, vec4(1.0 - ocean, 0.0, 0.0, 0.0));
}
`

// erosionFixedPointSrc declares the scatter-buffer fixed-point scale. Height deltas
// are accumulated as integers so concurrent droplets can add atomically.
const erosionFixedPointSrc = `
const float FIXED_SCALE = 1048576.0; // 1 << 20
`

// ZeroScatterKernel clears the erosion scatter buffer
const ZeroScatterKernel = `#version 460 core
layout(local_size_x = 256) in;
layout(std430, binding = 0) buffer ScatterBuffer {
	int scatter[];
};

uniform int uTexelCount;

void main() {
	uint i = gl_GlobalInvocationID.x;
	if (i < uint(uTexelCount)) {
		scatter[i] = 0;
	}
}
`

// DropletKernel walks one droplet per thread down the heightfield,
// accumulating erosion and Gaussian-brush deposits into the scatter buffer
// with fixed-point atomics.
const DropletKernel = `#version 460 core
layout(local_size_x = 64) in;
layout(std430, binding = 0) buffer ScatterBuffer {
	int scatter[];
};
layout(binding = 0, r32f) uniform readonly image2D uHeight;

uniform int uResolution;
uniform int uDropletCount;
uniform int uMaxLifetime;
uniform float uInertia;
uniform float uSedimentCapacity;
uniform float uMinCapacity;
uniform float uMinSlope;
uniform float uDepositionRate;
uniform float uErosionRate;
uniform float uEvaporationRate;
uniform float uGravity;
uniform int uBrushRadius;
uniform float uHeightScaleFactor;
uniform uint uSeed;
uniform uint uIteration;
` + erosionFixedPointSrc + `
uint wellons(uint v) {
	v += 0x9E3779B9u;
	v ^= v >> 15;
	v *= 0x2C1B3C6Du;
	v ^= v >> 12;
	v *= 0x297A2D39u;
	v ^= v >> 15;
	return v;
}

void scatterAdd(ivec2 p, float amount) {
	atomicAdd(scatter[p.y * uResolution + p.x], int(amount * FIXED_SCALE));
}

// Bilinear gradient and height of the cell containing pos
vec3 gradientHeight(vec2 pos) {
	ivec2 cell = min(ivec2(pos), ivec2(uResolution - 2));
	vec2 f = pos - vec2(cell);

	float h00 = imageLoad(uHeight, cell).r;
	float h10 = imageLoad(uHeight, cell + ivec2(1, 0)).r;
	float h01 = imageLoad(uHeight, cell + ivec2(0, 1)).r;
	float h11 = imageLoad(uHeight, cell + ivec2(1, 1)).r;

	float gx = (h10 - h00) * (1.0 - f.y) + (h11 - h01) * f.y;
	float gz = (h01 - h00) * (1.0 - f.x) + (h11 - h10) * f.x;
	float h = h00 * (1.0 - f.x) * (1.0 - f.y) + h10 * f.x * (1.0 - f.y) +
	          h01 * (1.0 - f.x) * f.y + h11 * f.x * f.y;
	return vec3(gx, gz, h);
}

void erodeBilinear(vec2 pos, float amount) {
	ivec2 cell = min(ivec2(pos), ivec2(uResolution - 2));
	vec2 f = pos - vec2(cell);
	scatterAdd(cell, -amount * (1.0 - f.x) * (1.0 - f.y));
	scatterAdd(cell + ivec2(1, 0), -amount * f.x * (1.0 - f.y));
	scatterAdd(cell + ivec2(0, 1), -amount * (1.0 - f.x) * f.y);
	scatterAdd(cell + ivec2(1, 1), -amount * f.x * f.y);
}

void depositBrush(vec2 pos, float amount) {
	int radius = max(uBrushRadius, 1);
	ivec2 center = ivec2(pos);
	float sigma = float(radius) * 0.5;
	float denom = 2.0 * sigma * sigma;

	float weightSum = 0.0;
	for (int dz = -radius; dz <= radius; dz++) {
		for (int dx = -radius; dx <= radius; dx++) {
			ivec2 p = center + ivec2(dx, dz);
			if (p.x < 0 || p.x >= uResolution || p.y < 0 || p.y >= uResolution) {
				continue;
			}
			float d2 = float(dx * dx + dz * dz);
			if (d2 > float(radius * radius)) {
				continue;
			}
			weightSum += exp(-d2 / denom);
		}
	}
	if (weightSum == 0.0) {
		return;
	}
	for (int dz = -radius; dz <= radius; dz++) {
		for (int dx = -radius; dx <= radius; dx++) {
			ivec2 p = center + ivec2(dx, dz);
			if (p.x < 0 || p.x >= uResolution || p.y < 0 || p.y >= uResolution) {
				continue;
			}
			float d2 = float(dx * dx + dz * dz);
			if (d2 > float(radius * radius)) {
				continue;
			}
			scatterAdd(p, amount * exp(-d2 / denom) / weightSum);
		}
	}
}

void main() {
	uint id = gl_GlobalInvocationID.x;
	if (id >= uint(uDropletCount)) {
		return;
	}

	uint h1 = wellons(uSeed ^ (uIteration * 0x85EBCA6Bu) ^ id);
	uint h2 = wellons(h1);
	vec2 pos = vec2(float(h1), float(h2)) / 4294967296.0 * float(uResolution);

	vec2 dir = vec2(0.0);
	float speed = 1.0;
	float water = 1.0;
	float sediment = 0.0;

	for (int life = 0; life < uMaxLifetime; life++) {
		vec3 gh = gradientHeight(pos);

		dir = dir * uInertia - gh.xy * (1.0 - uInertia);
		float len = length(dir);
		if (len < 1e-8) {
			break;
		}
		dir /= len;

		pos += dir;
		if (pos.x < 0.0 || pos.x >= float(uResolution - 1) ||
		    pos.y < 0.0 || pos.y >= float(uResolution - 1)) {
			break;
		}

		float newH = gradientHeight(pos).z;
		float dh = newH - gh.z;
		float slope = -dh;

		float capacity = max(slope * speed * water * uSedimentCapacity, uMinCapacity);

		if (sediment > capacity || slope < uMinSlope) {
			float deposit = (sediment - capacity) * uDepositionRate;
			if (dh > 0.0) {
				deposit = min(sediment, dh);
			}
			if (deposit > 0.0) {
				sediment -= deposit;
				depositBrush(pos, deposit);
			}
		} else {
			float erode = min(capacity - sediment, slope) * uErosionRate * uHeightScaleFactor;
			if (erode > 0.0) {
				sediment += erode;
				erodeBilinear(pos, erode);
			}
		}

		speed = sqrt(max(speed * speed + slope * uGravity, 0.0));
		water *= 1.0 - uEvaporationRate;
		if (water < 1e-4) {
			break;
		}
	}
}
`

// ApplyScatterKernel folds the scatter buffer into the other ping-pong side
const ApplyScatterKernel = `#version 460 core
layout(local_size_x = 16, local_size_y = 16) in;
layout(std430, binding = 0) buffer ScatterBuffer {
	int scatter[];
};
layout(binding = 0, r32f) uniform readonly image2D uSrc;
layout(binding = 1, r32f) uniform writeonly image2D uDst;

uniform int uResolution;
` + erosionFixedPointSrc + `
void main() {
	ivec2 gid = ivec2(gl_GlobalInvocationID.xy);
	if (gid.x >= uResolution || gid.y >= uResolution) {
		return;
	}
	float delta = float(scatter[gid.y * uResolution + gid.x]) / FIXED_SCALE;
	float h = imageLoad(uSrc, gid).r + delta;
	imageStore(uDst, gid, vec4(h, 0.0, 0.0, 0.0));
}
`

// ThermalKernel moves material down slopes steeper than the talus
// threshold. The net delta is gathered symmetrically from both flow
// directions, so the pass conserves mass without atomics.
const ThermalKernel = `#version 460 core
layout(local_size_x = 16, local_size_y = 16) in;
layout(binding = 0, r32f) uniform readonly image2D uSrc;
layout(binding = 1, r32f) uniform writeonly image2D uDst;

uniform int uResolution;
uniform float uTalusThreshold; // height delta per texel
uniform float uErosionRate;

float heightAt(ivec2 p) {
	return imageLoad(uSrc, p).r;
}

void main() {
	ivec2 gid = ivec2(gl_GlobalInvocationID.xy);
	if (gid.x >= uResolution || gid.y >= uResolution) {
		return;
	}

	float h = heightAt(gid);
	float delta = 0.0;
	for (int dz = -1; dz <= 1; dz++) {
		for (int dx = -1; dx <= 1; dx++) {
			if (dx == 0 && dz == 0) {
				continue;
			}
			ivec2 np = gid + ivec2(dx, dz);
			if (np.x < 0 || np.x >= uResolution || np.y < 0 || np.y >= uResolution) {
				continue;
			}
			float diff = h - heightAt(np);
			if (diff > uTalusThreshold) {
				// outflow to the lower neighbor
				delta -= uErosionRate * (diff - uTalusThreshold) / 2.0;
			} else if (-diff > uTalusThreshold) {
				// inflow from the higher neighbor, mirrored exactly
				delta += uErosionRate * (-diff - uTalusThreshold) / 2.0;
			}
		}
	}
	imageStore(uDst, gid, vec4(h + delta, 0.0, 0.0, 0.0));
}
`
