package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridMeshRejectsEvenOrTinyGrids(t *testing.T) {
	for _, g := range []int{0, 1, 2, 4, 128} {
		_, err := NewGridMesh(g)
		assert.Error(t, err, "g=%d", g)
	}
}

func TestGridMeshCounts(t *testing.T) {
	const g = 9
	m, err := NewGridMesh(g)
	require.NoError(t, err)

	assert.Equal(t, g*g+4*g, m.VertexCount())
	assert.Equal(t, (g-1)*(g-1)*6, m.InteriorIndexCount)
	assert.Equal(t, 4*(g-1)*6, m.SkirtIndexCount)
	assert.Equal(t, m.InteriorIndexCount+m.SkirtIndexCount, len(m.Indices))
}

func TestGridMeshIndicesInBounds(t *testing.T) {
	m, err := NewGridMesh(17)
	require.NoError(t, err)
	max := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		require.Less(t, idx, max, "index %d", i)
	}
}

func TestGridMeshInteriorSpansUnitSquare(t *testing.T) {
	const g = 5
	m, err := NewGridMesh(g)
	require.NoError(t, err)

	// Corners of the interior grid.
	first := m.Vertices[:VertexStride]
	assert.Equal(t, float32(-0.5), first[0])
	assert.Equal(t, float32(-0.5), first[1])
	assert.Equal(t, float32(0), first[2])
	assert.Equal(t, float32(0), first[3])
	assert.Equal(t, float32(0), first[4])

	last := m.Vertices[(g*g-1)*VertexStride : g*g*VertexStride]
	assert.Equal(t, float32(0.5), last[0])
	assert.Equal(t, float32(0.5), last[1])
	assert.Equal(t, float32(1), last[2])
	assert.Equal(t, float32(1), last[3])
}

func TestGridMeshSkirtVerticesShareBoundaryPositions(t *testing.T) {
	const g = 9
	m, err := NewGridMesh(g)
	require.NoError(t, err)

	interior := g * g
	for i := interior; i < m.VertexCount(); i++ {
		off := i * VertexStride
		x, z, skirt := m.Vertices[off], m.Vertices[off+1], m.Vertices[off+4]
		require.Equal(t, float32(1), skirt, "vertex %d", i)
		// Skirt vertices only exist on the grid boundary.
		onBoundary := x == -0.5 || x == 0.5 || z == -0.5 || z == 0.5
		require.True(t, onBoundary, "vertex %d at (%g, %g)", i, x, z)
	}

	// No interior vertex carries the skirt flag.
	for i := 0; i < interior; i++ {
		require.Equal(t, float32(0), m.Vertices[i*VertexStride+4], "vertex %d", i)
	}
}

func TestAppendInstancePacksRecord(t *testing.T) {
	n := &Node{
		Center:      mgl32.Vec3{100, 0, -50},
		Size:        256,
		LodLevel:    3,
		MorphFactor: 0.25,
	}

	data := AppendInstance(nil, n, 7, 129)
	require.Len(t, data, InstanceStride)
	assert.Equal(t, float32(100), data[0])
	assert.Equal(t, float32(-50), data[1])
	assert.InDelta(t, 256.0/128.0, data[2], 1e-6)
	assert.Equal(t, float32(0.25), data[3])
	assert.Equal(t, float32(3), data[4]) // 7-1-3
}

func TestBuildInstanceDataTruncatesInOrder(t *testing.T) {
	q := NewQuadtree(1024, 1, 6, -80, 80)
	sel := q.Select(testParams(mgl32.Vec3{10, 30, 10}))
	require.Greater(t, len(sel.Nodes), 8)

	data, clipped := BuildInstanceData(nil, sel.Nodes, 8, q.MaxLodLevels, 129)
	assert.Len(t, data, 8*InstanceStride)
	assert.Equal(t, len(sel.Nodes)-8, clipped)

	// Order is preserved: the packed prefix matches per-node packing.
	for i, n := range sel.Nodes[:8] {
		want := AppendInstance(nil, n, q.MaxLodLevels, 129)
		assert.Equal(t, want, data[i*InstanceStride:(i+1)*InstanceStride], "instance %d", i)
	}

	// No truncation when the limit covers the whole selection.
	data, clipped = BuildInstanceData(data, sel.Nodes, len(sel.Nodes), q.MaxLodLevels, 129)
	assert.Len(t, data, len(sel.Nodes)*InstanceStride)
	assert.Zero(t, clipped)
}
