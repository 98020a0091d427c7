package terrain

import "math"

// CPU mirror of the vertex-stage morph snap. The renderer's shader and this
// function must stay in lockstep: the LOD seam guarantees are verified
// against this implementation.

// Instance mirrors one packed instance record.
type Instance struct {
	CenterX            float32
	CenterZ            float32
	WorldUnitsPerVertex float32
	MorphFactor        float32
	InverseLodIndex    float32
}

// InstanceFor builds the CPU-side record for a node
func InstanceFor(n *Node, maxLodLevels, gridSize int) Instance {
	return Instance{
		CenterX:             n.Center.X(),
		CenterZ:             n.Center.Z(),
		WorldUnitsPerVertex: n.Size / float32(gridSize-1),
		MorphFactor:         n.MorphFactor,
		InverseLodIndex:     float32(maxLodLevels - 1 - n.LodLevel),
	}
}

// MorphWorldXZ transforms a grid vertex (local XZ in [-0.5, 0.5]) into its
// morphed world position: odd-index vertices slide toward the parent grid
// as the morph factor approaches 1, giving C0 continuity across LOD
// boundaries.
func MorphWorldXZ(localX, localZ float32, inst Instance, gridSize int) (float32, float32) {
	scale := inst.WorldUnitsPerVertex * float32(gridSize-1)
	rawX := localX*scale + inst.CenterX
	rawZ := localZ*scale + inst.CenterZ

	parentStep := 2 * inst.WorldUnitsPerVertex
	return morphAxis(rawX, parentStep, inst.MorphFactor),
		morphAxis(rawZ, parentStep, inst.MorphFactor)
}

func morphAxis(raw, parentStep, morph float32) float32 {
	snapped := roundf(raw/parentStep) * parentStep
	odd := oddWeight(raw / parentStep)
	return raw + (snapped-raw)*odd*morph
}

// oddWeight is 1 at parent-grid midpoints (odd child indices) and 0 at
// parent-grid points (even child indices).
func oddWeight(t float32) float32 {
	f := t - floorf(t)
	return 1 - abs32(2*f-1)
}

func roundf(v float32) float32 {
	return float32(math.Round(float64(v)))
}

func floorf(v float32) float32 {
	return float32(math.Floor(float64(v)))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
