package terrain

// Shader sources for the patch renderer and the shadow pass. The uniform
// block layouts mirror the byte images assembled in renderer.go and
// shadow.go exactly; when one side changes, the other must follow.

const sceneBlockSrc = `
layout(std140, binding = 0) uniform SceneBlock {
	mat4 uViewProj;
	mat4 uModel;
	vec4 uCameraPos;   // xyz camera, w unused
	vec4 uLightDir;    // xyz direction toward the light, w intensity
	vec4 uLightColor;  // rgb color, w ambient strength
	vec4 uParams0;     // terrainSize, heightScale, gridSize, skirtDepth
	vec4 uParams1;     // seaFloorDepth, islandEnabled, debugLod, capMask
	vec4 uParams2;     // detailAmplitude, detailFrequency, detailEnabled, unused
};
`

const materialBlockSrc = `
layout(std140, binding = 1) uniform MaterialBlock {
	vec4 uGrassColor; // w: beachHeight
	vec4 uRockColor;  // w: snowHeight
	vec4 uSnowColor;  // w: rockSlope
	vec4 uDirtColor;  // w: blendSharp
	vec4 uBeachColor; // w unused
};
`

const cascadeBlockSrc = `
layout(std140, binding = 3) uniform CascadeBlock {
	mat4 uCascadeVP[4];
	vec4 uCascadeSplits; // view distance upper bound per cascade
	vec4 uCascadeMeta;   // x: cascade count
};
`

// morphVertexSrc is the shared CDLOD vertex transform. Odd-index vertices
// slide toward the parent grid as the morph factor rises, keeping seams
// between neighboring LODs closed.
const morphVertexSrc = `
layout(location = 0) in vec2 aPos;   // local XZ in [-0.5, 0.5]
layout(location = 1) in vec2 aUV;
layout(location = 2) in float aSkirt;
layout(location = 3) in vec4 aInst0; // centerX, centerZ, worldUnitsPerVertex, morphFactor
layout(location = 4) in float aInst1; // inverseLodIndex

float oddWeight(float t) {
	float f = fract(t);
	return 1.0 - abs(2.0 * f - 1.0);
}

float morphAxis(float raw, float parentStep, float morph) {
	float snapped = round(raw / parentStep) * parentStep;
	return raw + (snapped - raw) * oddWeight(raw / parentStep) * morph;
}

vec3 terrainVertex(float terrainSize, float heightScale, float gridSize, float skirtDepth,
                   sampler2D heightMap, sampler2D islandMask,
                   float seaFloorDepth, float islandEnabled,
                   out vec2 outUV, out float outHeight) {
	float wupv = aInst0.z;
	float scale = wupv * (gridSize - 1.0);
	vec2 raw = aPos * scale + aInst0.xy;

	float parentStep = 2.0 * wupv;
	vec2 world;
	world.x = morphAxis(raw.x, parentStep, aInst0.w);
	world.y = morphAxis(raw.y, parentStep, aInst0.w);

	vec2 uv = (world + terrainSize * 0.5) / terrainSize;
	float h = textureLod(heightMap, uv, aInst1).r;
	if (islandEnabled > 0.5) {
		float mask = textureLod(islandMask, uv, 0.0).r;
		h = min(h, mix(seaFloorDepth, h, mask));
	}

	float y = h * heightScale;
	y -= skirtDepth * wupv * (gridSize - 1.0) * aSkirt;

	outUV = uv;
	outHeight = h;
	return vec3(world.x, y, world.y);
}
`

// TerrainVertexShader is the main-pass vertex stage
const TerrainVertexShader = `#version 460 core
` + sceneBlockSrc + morphVertexSrc + `
layout(binding = 0) uniform sampler2D uHeightMap;
layout(binding = 2) uniform sampler2D uIslandMask;

out vec3 vWorldPos;
out vec2 vUV;
out float vHeight;
out float vViewDist;
flat out float vLod;

void main() {
	vec2 uv;
	float h;
	vec3 pos = terrainVertex(uParams0.x, uParams0.y, uParams0.z, uParams0.w,
		uHeightMap, uIslandMask, uParams1.x, uParams1.y, uv, h);

	vec4 world = uModel * vec4(pos, 1.0);
	vWorldPos = world.xyz;
	vUV = uv;
	vHeight = h;
	vViewDist = distance(world.xyz, uCameraPos.xyz);
	vLod = aInst1;
	gl_Position = uViewProj * world;
}
`

// TerrainFragmentShader shades up to five biomes under one directional
// light, with optional IBL diffuse irradiance and PCF cascade shadows.
// Output is HDR; the host tone-maps.
const TerrainFragmentShader = `#version 460 core
` + sceneBlockSrc + materialBlockSrc + cascadeBlockSrc + `
layout(binding = 1) uniform sampler2D uNormalMap;
layout(binding = 3) uniform sampler2DArrayShadow uShadowMaps;
layout(binding = 4) uniform samplerCube uIrradiance;

in vec3 vWorldPos;
in vec2 vUV;
in float vHeight;
in float vViewDist;
flat in float vLod;

out vec4 fragColor;

const uint CAP_IBL_DIFFUSE = 1u;
const uint CAP_SHADOW_MAPS = 2u;

float hash12(vec2 p) {
	vec3 p3 = fract(vec3(p.xyx) * 0.1031);
	p3 += dot(p3, p3.yzx + 33.33);
	return fract((p3.x + p3.y) * p3.z);
}

float detailNoise(vec2 uv) {
	vec2 i = floor(uv);
	vec2 f = fract(uv);
	vec2 t = f * f * (3.0 - 2.0 * f);
	float a = hash12(i);
	float b = hash12(i + vec2(1, 0));
	float c = hash12(i + vec2(0, 1));
	float d = hash12(i + vec2(1, 1));
	return mix(mix(a, b, t.x), mix(c, d, t.x), t.y);
}

vec3 biomeColor(float heightN, float slope, float erosion) {
	float beachHeight = uGrassColor.w;
	float snowHeight = uRockColor.w;
	float rockSlope = uSnowColor.w;
	float sharp = max(uDirtColor.w, 1.0);

	float wBeach = 1.0 - smoothstep(beachHeight - 0.02, beachHeight + 0.02, vHeight);
	float wSnow = smoothstep(snowHeight - 0.04, snowHeight + 0.04, vHeight);
	float wRock = smoothstep(rockSlope - 0.1, rockSlope + 0.1, slope);
	float wDirt = erosion * (1.0 - wRock);
	float wGrass = max(1.0 - wBeach - wSnow - wRock - wDirt, 0.0);

	vec4 weights = pow(max(vec4(wGrass, wRock, wSnow, wDirt), 0.0), vec4(sharp / 4.0));
	float wb = pow(max(wBeach, 0.0), sharp / 4.0);
	float total = weights.x + weights.y + weights.z + weights.w + wb + 1e-5;

	return (uGrassColor.rgb * weights.x + uRockColor.rgb * weights.y +
	        uSnowColor.rgb * weights.z + uDirtColor.rgb * weights.w +
	        uBeachColor.rgb * wb) / total;
}

float cascadeShadow(vec3 worldPos) {
	int count = int(uCascadeMeta.x);
	int cascade = -1;
	for (int i = 0; i < count; i++) {
		if (vViewDist < uCascadeSplits[i]) {
			cascade = i;
			break;
		}
	}
	if (cascade < 0) {
		return 1.0;
	}

	vec4 lightClip = uCascadeVP[cascade] * vec4(worldPos, 1.0);
	vec3 proj = lightClip.xyz / lightClip.w;
	proj = proj * 0.5 + 0.5;
	if (proj.z > 1.0) {
		return 1.0;
	}

	float bias = 0.0015 * float(cascade + 1);
	float lit = 0.0;
	vec2 texel = 1.0 / vec2(textureSize(uShadowMaps, 0).xy);
	for (int dy = -1; dy <= 1; dy++) {
		for (int dx = -1; dx <= 1; dx++) {
			vec2 off = vec2(dx, dy) * texel;
			lit += texture(uShadowMaps, vec4(proj.xy + off, float(cascade), proj.z - bias));
		}
	}
	return lit / 9.0;
}

vec3 lodTint(float lod) {
	vec3 palette[8] = vec3[8](
		vec3(0.9, 0.2, 0.2), vec3(0.9, 0.6, 0.2), vec3(0.9, 0.9, 0.2),
		vec3(0.2, 0.9, 0.2), vec3(0.2, 0.9, 0.9), vec3(0.2, 0.4, 0.9),
		vec3(0.6, 0.2, 0.9), vec3(0.9, 0.2, 0.9));
	return palette[int(lod) & 7];
}

void main() {
	vec3 normal = normalize(texture(uNormalMap, vUV).xyz);
	normal = normalize(mat3(uModel) * normal);
	float slope = 1.0 - clamp(normal.y, 0.0, 1.0);

	float erosion = 0.0;
	if (uParams2.z > 0.5) {
		erosion = clamp(detailNoise(vUV * uParams2.y) * uParams2.x * 4.0, 0.0, 1.0);
	}

	vec3 albedo = biomeColor(vHeight + 0.5, slope, erosion);

	uint caps = uint(uParams1.w);
	float ndl = max(dot(normal, normalize(uLightDir.xyz)), 0.0);

	float shadow = 1.0;
	if ((caps & CAP_SHADOW_MAPS) != 0u) {
		shadow = cascadeShadow(vWorldPos);
	}

	vec3 ambient;
	if ((caps & CAP_IBL_DIFFUSE) != 0u) {
		ambient = texture(uIrradiance, normal).rgb * uLightColor.w;
	} else {
		ambient = uLightColor.rgb * uLightColor.w;
	}

	vec3 color = albedo * (ambient + uLightColor.rgb * uLightDir.w * ndl * shadow);

	if (uParams1.z > 0.5) {
		color = mix(color, lodTint(vLod), 0.6);
	}
	fragColor = vec4(color, 1.0);
}
`

// WireframeFragmentShader shares the terrain vertex stage and draws flat
// overlay lines.
const WireframeFragmentShader = `#version 460 core
in vec3 vWorldPos;
in vec2 vUV;
in float vHeight;
in float vViewDist;
flat in float vLod;

out vec4 fragColor;

void main() {
	fragColor = vec4(0.05, 0.05, 0.08, 1.0);
}
`

// ShadowVertexShader is the depth-only vertex stage. Its uniforms come
// from one 256-byte slot of the shadow uniform buffer, selected per
// cascade with a dynamic offset.
const ShadowVertexShader = `#version 460 core
layout(std140, binding = 2) uniform ShadowSlot {
	mat4 uLightVP;
	vec4 uLightPos;     // xyz light position, w unused
	vec4 uShadowParams; // terrainSize, heightScale, gridSize, skirtDepth
};
` + morphVertexSrc + `
layout(binding = 0) uniform sampler2D uHeightMap;
layout(binding = 2) uniform sampler2D uIslandMask;

void main() {
	vec2 uv;
	float h;
	vec3 pos = terrainVertex(uShadowParams.x, uShadowParams.y, uShadowParams.z, uShadowParams.w,
		uHeightMap, uIslandMask, 0.0, 0.0, uv, h);
	gl_Position = uLightVP * vec4(pos, 1.0);
}
`

// ShadowFragmentShader writes depth only
const ShadowFragmentShader = `#version 460 core
void main() {
}
`
