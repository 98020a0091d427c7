package main

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"terrascape/internal/graphics"
	"terrascape/internal/physics"
	"terrascape/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err := glfw.CreateWindow(winW, winH, "terrascape", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	return window, nil
}

// startPosition places the camera on the terrain's center line, 35% of the
// world size south of the center, lifted above the ground, facing the
// middle of the world.
func startPosition(m *terrain.Manager) mgl32.Vec3 {
	x, z := float32(0), m.Config().WorldSize*0.35
	y := physics.GroundLevel(x, z, 60, m.Heightfield())
	return mgl32.Vec3{x, y, z}
}

// hdrTarget is the host-owned HDR intermediate: an RGBA16F color buffer
// with a float depth buffer for the reversed-Z main pass, tone-mapped to
// the default framebuffer at the end of the frame.
type hdrTarget struct {
	fbo   uint32
	color uint32
	depth uint32

	width, height int

	tonemap  *graphics.Shader
	blitVAO  uint32
}

const tonemapVertexShader = `#version 460 core
out vec2 vUV;

void main() {
	// Fullscreen triangle from gl_VertexID, no buffers needed.
	vec2 pos = vec2(float((gl_VertexID << 1) & 2), float(gl_VertexID & 2));
	vUV = pos;
	gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

const tonemapFragmentShader = `#version 460 core
layout(binding = 0) uniform sampler2D uHDRColor;

in vec2 vUV;
out vec4 fragColor;

vec3 aces(vec3 x) {
	const float a = 2.51;
	const float b = 0.03;
	const float c = 2.43;
	const float d = 0.59;
	const float e = 0.14;
	return clamp((x * (a * x + b)) / (x * (c * x + d) + e), 0.0, 1.0);
}

void main() {
	vec3 hdr = texture(uHDRColor, vUV).rgb;
	vec3 mapped = aces(hdr);
	fragColor = vec4(pow(mapped, vec3(1.0 / 2.2)), 1.0);
}
`

func newHDRTarget(width, height int) (*hdrTarget, error) {
	t := &hdrTarget{width: width, height: height}

	gl.CreateTextures(gl.TEXTURE_2D, 1, &t.color)
	gl.TextureStorage2D(t.color, 1, gl.RGBA16F, int32(width), int32(height))
	gl.TextureParameteri(t.color, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TextureParameteri(t.color, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.CreateTextures(gl.TEXTURE_2D, 1, &t.depth)
	gl.TextureStorage2D(t.depth, 1, gl.DEPTH_COMPONENT32F, int32(width), int32(height))

	gl.CreateFramebuffers(1, &t.fbo)
	gl.NamedFramebufferTexture(t.fbo, gl.COLOR_ATTACHMENT0, t.color, 0)
	gl.NamedFramebufferTexture(t.fbo, gl.DEPTH_ATTACHMENT, t.depth, 0)
	if status := gl.CheckNamedFramebufferStatus(t.fbo, gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return nil, fmt.Errorf("hdr framebuffer incomplete (status 0x%x)", status)
	}

	var err error
	if t.tonemap, err = graphics.NewShader(tonemapVertexShader, tonemapFragmentShader); err != nil {
		return nil, err
	}
	gl.CreateVertexArrays(1, &t.blitVAO)
	return t, nil
}

// Resize reallocates the target for a new framebuffer size
func (t *hdrTarget) Resize(width, height int) error {
	if width == t.width && height == t.height || width == 0 || height == 0 {
		return nil
	}
	gl.DeleteFramebuffers(1, &t.fbo)
	graphics.DeleteTexture(t.color)
	graphics.DeleteTexture(t.depth)

	fresh, err := newHDRTarget(width, height)
	if err != nil {
		return err
	}
	fresh.tonemap, t.tonemap = t.tonemap, fresh.tonemap
	fresh.blitVAO, t.blitVAO = t.blitVAO, fresh.blitVAO
	*t = *fresh
	return nil
}

// Begin binds the HDR target and configures the reversed-Z pass
func (t *hdrTarget) Begin() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, int32(t.width), int32(t.height))

	gl.ClipControl(gl.LOWER_LEFT, gl.ZERO_TO_ONE)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.GREATER)
	gl.ClearDepth(0) // far plane under reversed-Z
	gl.ClearColor(0.45, 0.65, 0.85, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
}

// Blit tone-maps the HDR buffer onto the default framebuffer
func (t *hdrTarget) Blit() {
	gl.ClipControl(gl.LOWER_LEFT, gl.NEGATIVE_ONE_TO_ONE)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(t.width), int32(t.height))
	gl.Disable(gl.DEPTH_TEST)

	t.tonemap.Use()
	gl.BindTextureUnit(0, t.color)
	gl.BindVertexArray(t.blitVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// Dispose releases the target's GPU objects
func (t *hdrTarget) Dispose() {
	gl.DeleteFramebuffers(1, &t.fbo)
	graphics.DeleteTexture(t.color)
	graphics.DeleteTexture(t.depth)
	gl.DeleteVertexArrays(1, &t.blitVAO)
	if t.tonemap != nil {
		t.tonemap.Delete()
	}
}
