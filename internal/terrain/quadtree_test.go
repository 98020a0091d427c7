package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openFrustum returns a view-projection that contains the whole world, so
// selection tests can isolate the distance logic from culling.
func openFrustum() mgl32.Mat4 {
	return mgl32.Ortho(-1e6, 1e6, -1e6, 1e6, -1e6, 1e6)
}

func testParams(cam mgl32.Vec3) Params {
	return Params{
		CameraPos:             cam,
		Frustum:               openFrustum(),
		LodDistanceMultiplier: 2.0,
		MorphRegion:           0.3,
	}
}

func collectLeaves(n *Node, out *[]*Node) {
	if n.IsLeaf() {
		*out = append(*out, n)
		return
	}
	for _, c := range n.Children {
		collectLeaves(c, out)
	}
}

func TestQuadtreeLeavesTileTheRoot(t *testing.T) {
	for _, levels := range []int{1, 3, 5} {
		q := NewQuadtree(1024, 1, levels, -80, 80)

		var leaves []*Node
		collectLeaves(q.Root, &leaves)
		require.Len(t, leaves, pow4(levels-1), "levels=%d", levels)

		var area float64
		for _, l := range leaves {
			area += float64(l.Size) * float64(l.Size)
			// Every leaf stays inside the root bounds.
			assert.GreaterOrEqual(t, l.AABBMin().X(), q.Root.AABBMin().X()-1e-3)
			assert.LessOrEqual(t, l.AABBMax().X(), q.Root.AABBMax().X()+1e-3)
			assert.GreaterOrEqual(t, l.AABBMin().Z(), q.Root.AABBMin().Z()-1e-3)
			assert.LessOrEqual(t, l.AABBMax().Z(), q.Root.AABBMax().Z()+1e-3)
		}
		assert.InDelta(t, 1024*1024, area, 1, "levels=%d", levels)

		// Grid coordinates are unique, so no two leaves overlap.
		seen := map[[2]int]bool{}
		for _, l := range leaves {
			key := [2]int{l.GridX, l.GridZ}
			assert.False(t, seen[key], "duplicate leaf at %v", key)
			seen[key] = true
		}
	}
}

func TestQuadtreeHonorsMinNodeSize(t *testing.T) {
	// Children of the root would be 512, grandchildren 256 < 300.
	q := NewQuadtree(1024, 300, 10, 0, 1)

	var leaves []*Node
	collectLeaves(q.Root, &leaves)
	require.Len(t, leaves, 4)
	for _, l := range leaves {
		assert.Equal(t, 1, l.LodLevel)
		assert.Equal(t, float32(512), l.Size)
	}
}

func TestSelectionPartitionsVisibleWorld(t *testing.T) {
	q := NewQuadtree(1024, 1, 6, -80, 80)
	sel := q.Select(testParams(mgl32.Vec3{100, 50, -200}))
	require.NotEmpty(t, sel.Nodes)

	var area float64
	for _, n := range sel.Nodes {
		area += float64(n.Size) * float64(n.Size)
	}
	assert.InDelta(t, 1024*1024, area, 1)

	// Pairwise disjoint in XZ.
	for i, a := range sel.Nodes {
		for _, b := range sel.Nodes[i+1:] {
			overlapX := a.AABBMin().X() < b.AABBMax().X()-1e-3 && b.AABBMin().X() < a.AABBMax().X()-1e-3
			overlapZ := a.AABBMin().Z() < b.AABBMax().Z()-1e-3 && b.AABBMin().Z() < a.AABBMax().Z()-1e-3
			assert.False(t, overlapX && overlapZ, "nodes overlap: lod %d (%d,%d) and lod %d (%d,%d)",
				a.LodLevel, a.GridX, a.GridZ, b.LodLevel, b.GridX, b.GridZ)
		}
	}
}

type nodeKey struct {
	Lod, GX, GZ int
	Morph       float32
}

func selectionKeys(sel *Selection) []nodeKey {
	keys := make([]nodeKey, 0, len(sel.Nodes))
	for _, n := range sel.Nodes {
		keys = append(keys, nodeKey{n.LodLevel, n.GridX, n.GridZ, n.MorphFactor})
	}
	return keys
}

func TestSelectionIsDeterministic(t *testing.T) {
	q := NewQuadtree(1024, 1, 6, -80, 80)
	p := testParams(mgl32.Vec3{333, 40, 77})

	first := selectionKeys(q.Select(p))
	second := selectionKeys(q.Select(p))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("selection differs between identical passes:\n%s", diff)
	}
}

func TestSelectionReusesStorage(t *testing.T) {
	q := NewQuadtree(1024, 1, 4, 0, 1)
	a := q.Select(testParams(mgl32.Vec3{0, 10, 0}))
	countA := len(a.Nodes)

	b := q.Select(testParams(mgl32.Vec3{5000, 10, 5000}))
	assert.Same(t, a, b)
	assert.NotEqual(t, countA, 0)
}

func TestFarCameraSelectsCoarseNodes(t *testing.T) {
	q := NewQuadtree(1024, 1, 6, -80, 80)
	// Camera displaced far beyond every split distance.
	sel := q.Select(testParams(mgl32.Vec3{1e4, 10, 0}))

	require.NotEmpty(t, sel.Nodes)
	for _, n := range sel.Nodes {
		assert.LessOrEqual(t, n.LodLevel, 2, "node (%d,%d)", n.GridX, n.GridZ)
	}
}

func TestCloseCameraRefinesToLeaves(t *testing.T) {
	q := NewQuadtree(1024, 1, 6, -80, 80)
	sel := q.Select(testParams(mgl32.Vec3{1, 5, 1}))

	maxLod := 0
	for _, n := range sel.Nodes {
		if n.LodLevel > maxLod {
			maxLod = n.LodLevel
		}
	}
	assert.Equal(t, q.MaxLodLevels-1, maxLod)
}

func TestFrustumCullingDropsNodesBehindCamera(t *testing.T) {
	q := NewQuadtree(1024, 1, 6, -80, 80)

	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.5, 4000)
	// Looking toward -Z from the world center: the +Z half of the terrain
	// sits behind the camera.
	view := mgl32.LookAtV(mgl32.Vec3{0, 100, 0}, mgl32.Vec3{0, 0, -900}, mgl32.Vec3{0, 1, 0})
	sel := q.Select(Params{
		CameraPos:             mgl32.Vec3{0, 100, 0},
		Frustum:               proj.Mul4(view),
		LodDistanceMultiplier: 2.0,
		MorphRegion:           0.3,
	})

	assert.Positive(t, sel.Culled)
	for _, n := range sel.Nodes {
		// Nothing selected entirely behind the camera (allowing the 10%
		// conservative inflation).
		assert.Less(t, n.AABBMin().Z(), float32(0+200))
	}
}

func TestEmptySelectionIsValid(t *testing.T) {
	q := NewQuadtree(1024, 1, 4, 0, 1)

	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.5, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 5000, 0}, mgl32.Vec3{0, 6000, 0}, mgl32.Vec3{0, 0, -1})
	sel := q.Select(Params{
		CameraPos:             mgl32.Vec3{0, 5000, 0},
		Frustum:               proj.Mul4(view),
		LodDistanceMultiplier: 2.0,
		MorphRegion:           0.3,
	})

	assert.Empty(t, sel.Nodes)
	assert.Equal(t, sel.Considered, sel.Culled)
}

func TestMorphFactorRange(t *testing.T) {
	q := NewQuadtree(1024, 1, 6, -80, 80)
	sel := q.Select(testParams(mgl32.Vec3{250, 30, -420}))
	require.NotEmpty(t, sel.Nodes)
	for _, n := range sel.Nodes {
		assert.GreaterOrEqual(t, n.MorphFactor, float32(0))
		assert.LessOrEqual(t, n.MorphFactor, float32(1))
	}
}

func TestMorphFactorFunction(t *testing.T) {
	assert.Zero(t, morphFactor(0, 100, 0.3))
	assert.Zero(t, morphFactor(69.9, 100, 0.3))
	assert.InDelta(t, 0.5, morphFactor(85, 100, 0.3), 1e-5)
	assert.Equal(t, float32(1), morphFactor(100, 100, 0.3))
	assert.Equal(t, float32(1), morphFactor(500, 100, 0.3))
}

func TestUpdateHeightBounds(t *testing.T) {
	q := NewQuadtree(512, 1, 4, -10, 10)
	q.UpdateHeightBounds(-50, 200)

	var walk func(n *Node)
	walk = func(n *Node) {
		assert.Equal(t, float32(-50), n.MinY)
		assert.Equal(t, float32(200), n.MaxY)
		assert.Equal(t, float32(75), n.Center.Y())
		if n.Children != nil {
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	walk(q.Root)
}

func pow4(n int) int {
	out := 1
	for i := 0; i < n; i++ {
		out *= 4
	}
	return out
}
