package terrain

import "fmt"

// VertexStride is the number of floats per grid vertex: local XZ in
// [-0.5, 0.5], UV in [0, 1], and the skirt flag.
const VertexStride = 5

// InstanceStride is the number of floats per patch instance record:
// {centerX, centerZ, worldUnitsPerVertex, morphFactor, inverseLodIndex}.
const InstanceStride = 5

// GridMesh is the single shared patch mesh. Every selected quadtree node
// renders this grid, scaled and offset by its instance record. The four
// skirt strips duplicate the boundary vertices with the skirt flag set;
// the vertex stage extrudes them downward to hide cracks at LOD seams.
type GridMesh struct {
	GridSize int
	Vertices []float32
	Indices  []uint32

	InteriorIndexCount int
	SkirtIndexCount    int
}

// NewGridMesh builds a g x g grid with skirts. g must be odd so parent-grid
// snap positions land exactly on a subset of the child vertices.
func NewGridMesh(g int) (*GridMesh, error) {
	if g < 3 || g%2 == 0 {
		return nil, fmt.Errorf("grid size %d must be odd and >= 3", g)
	}

	m := &GridMesh{GridSize: g}
	step := 1 / float32(g-1)

	// Interior vertices.
	for z := 0; z < g; z++ {
		for x := 0; x < g; x++ {
			u := float32(x) * step
			v := float32(z) * step
			m.Vertices = append(m.Vertices, u-0.5, v-0.5, u, v, 0)
		}
	}

	// Interior triangles, counter-clockwise seen from above.
	for z := 0; z < g-1; z++ {
		for x := 0; x < g-1; x++ {
			v00 := uint32(z*g + x)
			v10 := uint32(z*g + x + 1)
			v01 := uint32((z+1)*g + x)
			v11 := uint32((z+1)*g + x + 1)
			m.Indices = append(m.Indices, v00, v01, v10, v10, v01, v11)
		}
	}
	m.InteriorIndexCount = len(m.Indices)

	// Skirt strips: duplicate each boundary edge with the skirt flag set
	// and stitch a quad strip between the originals and the copies.
	north := make([]uint32, g)
	south := make([]uint32, g)
	west := make([]uint32, g)
	east := make([]uint32, g)
	for i := 0; i < g; i++ {
		north[i] = uint32(i)
		south[i] = uint32((g-1)*g + i)
		west[i] = uint32(i * g)
		east[i] = uint32(i*g + g - 1)
	}
	m.appendSkirt(north, false)
	m.appendSkirt(south, true)
	m.appendSkirt(west, true)
	m.appendSkirt(east, false)
	m.SkirtIndexCount = len(m.Indices) - m.InteriorIndexCount

	return m, nil
}

// appendSkirt duplicates the given boundary vertices with skirt=1 and
// emits the connecting quads. flip reverses the winding for edges whose
// outward face points the other way.
func (m *GridMesh) appendSkirt(boundary []uint32, flip bool) {
	base := uint32(len(m.Vertices) / VertexStride)
	for _, b := range boundary {
		off := int(b) * VertexStride
		x, z, u, v := m.Vertices[off], m.Vertices[off+1], m.Vertices[off+2], m.Vertices[off+3]
		m.Vertices = append(m.Vertices, x, z, u, v, 1)
	}
	for i := 0; i < len(boundary)-1; i++ {
		b0, b1 := boundary[i], boundary[i+1]
		s0, s1 := base+uint32(i), base+uint32(i+1)
		if flip {
			m.Indices = append(m.Indices, b0, s0, b1, b1, s0, s1)
		} else {
			m.Indices = append(m.Indices, b0, b1, s0, s0, b1, s1)
		}
	}
}

// VertexCount returns the total number of vertices including skirts
func (m *GridMesh) VertexCount() int {
	return len(m.Vertices) / VertexStride
}

// AppendInstance packs one selected node into the instance stream
func AppendInstance(dst []float32, n *Node, maxLodLevels, gridSize int) []float32 {
	wupv := n.Size / float32(gridSize-1)
	inverseLod := float32(maxLodLevels - 1 - n.LodLevel)
	return append(dst, n.Center.X(), n.Center.Z(), wupv, n.MorphFactor, inverseLod)
}

// BuildInstanceData packs a selection into the per-instance vertex stream,
// truncating silently at maxInstances with traversal order preserved. The
// second return is the number of nodes that did not fit.
func BuildInstanceData(dst []float32, nodes []*Node, maxInstances, maxLodLevels, gridSize int) ([]float32, int) {
	dst = dst[:0]
	count := len(nodes)
	clipped := 0
	if count > maxInstances {
		clipped = count - maxInstances
		count = maxInstances
	}
	for _, n := range nodes[:count] {
		dst = AppendInstance(dst, n, maxLodLevels, gridSize)
	}
	return dst, clipped
}
