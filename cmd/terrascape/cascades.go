package main

import (
	"github.com/go-gl/mathgl/mgl32"

	"terrascape/internal/graphics"
	"terrascape/internal/terrain"
)

// Cascade extents in world units. Each cascade covers roughly three times
// the previous one; the split distances used for per-fragment selection
// match the extents.
var cascadeExtents = [terrain.ShadowCascades]float32{120, 360, 1080, 3240}

// buildCascades fits one orthographic light box per cascade around the
// camera's forward footprint and returns the shadow slots plus the view
// distance split for each.
func buildCascades(camera *graphics.Camera, lightDir mgl32.Vec3) ([]terrain.ShadowSlot, [terrain.ShadowCascades]float32) {
	slots := make([]terrain.ShadowSlot, terrain.ShadowCascades)
	var splits [terrain.ShadowCascades]float32

	forward := camera.Forward()
	flat := mgl32.Vec3{forward.X(), 0, forward.Z()}
	if flat.Len() > 1e-4 {
		flat = flat.Normalize()
	}

	for i, extent := range cascadeExtents {
		center := camera.Position.Add(flat.Mul(extent * 0.5))
		center[1] = 0

		eye := center.Add(lightDir.Mul(extent * 2))
		view := mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})
		proj := mgl32.Ortho(-extent, extent, -extent, extent, 1, extent*6)

		slots[i] = terrain.ShadowSlot{
			LightVP:  proj.Mul4(view),
			LightPos: eye,
		}
		splits[i] = extent
	}
	return slots, splits
}
