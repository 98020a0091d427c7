package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"terrascape/internal/heightfield"
	"terrascape/internal/profiling"
)

// RaycastResult stores the result of a ray-terrain intersection
type RaycastResult struct {
	Point    mgl32.Vec3
	Distance float32
	Hit      bool
}

// Raycast marches a ray against the heightfield and refines the hit with
// bisection. Step size follows the texel spacing so narrow ridges are not
// skipped at typical view distances.
func Raycast(start, direction mgl32.Vec3, maxDist float32, hf *heightfield.Heightfield) RaycastResult {
	defer profiling.Track("physics.Raycast")()

	result := RaycastResult{}
	if hf == nil || maxDist <= 0 {
		return result
	}

	dir := direction.Normalize()
	stepSize := hf.WorldSize / float32(hf.Resolution) * 0.5
	if stepSize <= 0 {
		return result
	}

	prevDist := float32(0)
	prevAbove := start.Y() > hf.SampleWorld(start.X(), start.Z())
	if !prevAbove {
		// Started below the surface.
		result.Point = start
		result.Hit = true
		return result
	}

	for dist := stepSize; dist <= maxDist; dist += stepSize {
		p := start.Add(dir.Mul(dist))
		if p.Y() > hf.SampleWorld(p.X(), p.Z()) {
			prevDist = dist
			continue
		}

		// Crossed the surface between prevDist and dist: bisect.
		lo, hi := prevDist, dist
		for i := 0; i < 16; i++ {
			mid := (lo + hi) / 2
			q := start.Add(dir.Mul(mid))
			if q.Y() > hf.SampleWorld(q.X(), q.Z()) {
				lo = mid
			} else {
				hi = mid
			}
		}
		result.Distance = (lo + hi) / 2
		result.Point = start.Add(dir.Mul(result.Distance))
		result.Hit = true
		return result
	}
	return result
}

// GroundLevel returns the terrain height at world XZ plus a clearance
// offset, for camera and object ground clamping.
func GroundLevel(x, z, clearance float32, hf *heightfield.Heightfield) float32 {
	if hf == nil {
		return clearance
	}
	return hf.SampleWorld(x, z) + clearance
}
