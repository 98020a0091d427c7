package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera handles the view and projection matrices. The projection uses the
// reversed-Z convention (near maps to 1, far to 0) and expects the depth
// test to be GREATER with the clip range set to [0, 1].
type Camera struct {
	Position    mgl32.Vec3
	Yaw         float32 // degrees, 0 looks down -Z
	Pitch       float32 // degrees, clamped to (-90, 90)
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		Position:    mgl32.Vec3{0, 200, 0},
		Yaw:         0,
		Pitch:       -20,
		AspectRatio: float32(width) / float32(height),
		FOV:         60.0,
		NearPlane:   0.5,
		FarPlane:    8000.0,
	}
}

// SetViewport updates the aspect ratio from new framebuffer dimensions
func (c *Camera) SetViewport(width, height int) {
	if height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

// Forward returns the normalized view direction
func (c *Camera) Forward() mgl32.Vec3 {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))
	return mgl32.Vec3{
		float32(math.Sin(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(-math.Cos(yaw) * math.Cos(pitch)),
	}.Normalize()
}

// Right returns the normalized right vector on the XZ plane
func (c *Camera) Right() mgl32.Vec3 {
	f := c.Forward()
	return f.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

// GetViewMatrix returns the look-at view matrix
func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

// GetProjectionMatrix returns a reversed-Z perspective projection mapping
// the near plane to depth 1 and the far plane to depth 0 in [0, 1] clip
// space. Built by hand since mgl32 only emits the GL [-1, 1] convention.
func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	f := float32(1.0 / math.Tan(float64(mgl32.DegToRad(c.FOV))/2.0))
	n, fp := c.NearPlane, c.FarPlane

	var m mgl32.Mat4
	m[0] = f / c.AspectRatio
	m[5] = f
	// Reversed depth: z' = n/(f-n) * z + n*f/(f-n); at z=-n depth=1, at z=-f depth=0
	m[10] = n / (fp - n)
	m[11] = -1
	m[14] = n * fp / (fp - n)
	return m
}

// GetViewProjection returns projection * view
func (c *Camera) GetViewProjection() mgl32.Mat4 {
	return c.GetProjectionMatrix().Mul4(c.GetViewMatrix())
}
