package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOddWeight(t *testing.T) {
	// Parent grid points carry no morph weight, midpoints carry full weight.
	assert.InDelta(t, 0, oddWeight(0), 1e-6)
	assert.InDelta(t, 0, oddWeight(3), 1e-6)
	assert.InDelta(t, 0, oddWeight(-2), 1e-6)
	assert.InDelta(t, 1, oddWeight(0.5), 1e-6)
	assert.InDelta(t, 1, oddWeight(-1.5), 1e-6)
	assert.InDelta(t, 0.5, oddWeight(0.25), 1e-6)
}

func TestMorphZeroKeepsRawPositions(t *testing.T) {
	inst := Instance{CenterX: 100, CenterZ: -60, WorldUnitsPerVertex: 2, MorphFactor: 0}
	const g = 5
	x, z := MorphWorldXZ(-0.5, 0.25, inst, g)
	assert.InDelta(t, -0.5*2*(g-1)+100, x, 1e-5)
	assert.InDelta(t, 0.25*2*(g-1)-60, z, 1e-5)
}

// gridWorldPositions returns the world XZ coordinates of a node's
// unmorphed grid vertices along one axis.
func gridWorldPositions(center, size float32, g int) []float32 {
	out := make([]float32, g)
	for i := 0; i < g; i++ {
		out[i] = center + (float32(i)/float32(g-1)-0.5)*size
	}
	return out
}

func TestFullMorphSnapsToParentGrid(t *testing.T) {
	const g = 9
	q := NewQuadtree(1024, 1, 5, -80, 80)
	parent := q.Root.Children[1] // top-right quadrant
	require.NotNil(t, parent.Children)
	child := parent.Children[2] // bottom-left child

	child.MorphFactor = 1
	inst := InstanceFor(child, q.MaxLodLevels, g)

	parentXs := gridWorldPositions(parent.Center.X(), parent.Size, g)
	parentZs := gridWorldPositions(parent.Center.Z(), parent.Size, g)

	for i := 0; i < g; i++ {
		for j := 0; j < g; j++ {
			lx := float32(i)/float32(g-1) - 0.5
			lz := float32(j)/float32(g-1) - 0.5
			x, z := MorphWorldXZ(lx, lz, inst, g)

			assert.True(t, containsApprox(parentXs, x, 1e-3),
				"morphed x %g not on parent grid %v", x, parentXs)
			assert.True(t, containsApprox(parentZs, z, 1e-3),
				"morphed z %g not on parent grid %v", z, parentZs)
		}
	}
}

func TestSharedEdgeAgreesBetweenSiblings(t *testing.T) {
	const g = 9
	q := NewQuadtree(1024, 1, 5, -80, 80)
	parent := q.Root.Children[0]
	left := parent.Children[0]  // top-left child
	right := parent.Children[1] // top-right child

	for _, morph := range []float32{0, 0.4, 1} {
		left.MorphFactor = morph
		right.MorphFactor = morph
		li := InstanceFor(left, q.MaxLodLevels, g)
		ri := InstanceFor(right, q.MaxLodLevels, g)

		// left's east edge and right's west edge share world positions.
		for j := 0; j < g; j++ {
			lz := float32(j)/float32(g-1) - 0.5
			lx, lzOut := MorphWorldXZ(0.5, lz, li, g)
			rx, rzOut := MorphWorldXZ(-0.5, lz, ri, g)

			assert.InDelta(t, lx, rx, 1e-3, "morph=%g row=%d", morph, j)
			assert.InDelta(t, lzOut, rzOut, 1e-3, "morph=%g row=%d", morph, j)
		}
	}
}

func TestFineFullMorphMatchesCoarseEdge(t *testing.T) {
	// A fine patch at morph 1 renders its shared edge on the coarse
	// neighbor's vertex positions, which is what makes LOD seams crack-free.
	const g = 9
	q := NewQuadtree(1024, 1, 5, -80, 80)
	coarse := q.Root.Children[0]       // lod 1, top-left
	fineParent := q.Root.Children[1]   // lod 1, top-right
	fine := fineParent.Children[0]     // lod 2, touching coarse's east edge

	fine.MorphFactor = 1
	coarse.MorphFactor = 0
	fi := InstanceFor(fine, q.MaxLodLevels, g)

	coarseXs := gridWorldPositions(coarse.Center.X(), coarse.Size, g)
	coarseZs := gridWorldPositions(coarse.Center.Z(), coarse.Size, g)

	for j := 0; j < g; j++ {
		lz := float32(j)/float32(g-1) - 0.5
		x, z := MorphWorldXZ(-0.5, lz, fi, g) // fine patch west edge

		assert.InDelta(t, coarseXs[g-1], x, 1e-3, "row %d", j)
		assert.True(t, containsApprox(coarseZs, z, 1e-3), "row %d: z=%g", j, z)
	}
}

func containsApprox(values []float32, v float32, eps float32) bool {
	for _, w := range values {
		if abs32(w-v) <= eps {
			return true
		}
	}
	return false
}
