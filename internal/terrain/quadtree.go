package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is one cell of the terrain quadtree. Children are exclusively owned
// by their parent; the parent link is a plain back reference and must never
// be followed for ownership decisions.
type Node struct {
	Center   mgl32.Vec3 // world-space center (Y at the mid height bound)
	Size     float32    // XZ side length
	LodLevel int        // root = 0
	GridX    int        // integer grid coordinates at this LOD
	GridZ    int

	MinY, MaxY float32

	Children *[4]*Node // nil for leaves
	Parent   *Node

	// MorphFactor is transient selection state: 0 at native resolution,
	// 1 fully morphed toward the parent grid. Valid until the next Select.
	MorphFactor float32
}

// AABBMin returns the minimum corner of the node bounds
func (n *Node) AABBMin() mgl32.Vec3 {
	h := n.Size / 2
	return mgl32.Vec3{n.Center.X() - h, n.MinY, n.Center.Z() - h}
}

// AABBMax returns the maximum corner of the node bounds
func (n *Node) AABBMax() mgl32.Vec3 {
	h := n.Size / 2
	return mgl32.Vec3{n.Center.X() + h, n.MaxY, n.Center.Z() + h}
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return n.Children == nil
}

// Selection is the output of one selection pass. It is owned by the
// quadtree and valid only until the next Select call.
type Selection struct {
	Nodes      []*Node
	Considered int
	Culled     int
}

// Params drive one selection pass.
type Params struct {
	CameraPos             mgl32.Vec3
	Frustum               mgl32.Mat4 // view-projection used for culling
	LodDistanceMultiplier float32
	MorphRegion           float32
}

// Quadtree is a static complete 4-ary subdivision of the terrain square,
// rebuilt only when the world size or height bounds change.
type Quadtree struct {
	Root         *Node
	MaxLodLevels int
	WorldSize    float32
	MinNodeSize  float32

	NodeCount int

	selection Selection
}

// NewQuadtree builds the full tree for a square of side worldSize centered
// at the origin. Subdivision stops at maxLodLevels-1 or when a child would
// drop below minNodeSize.
func NewQuadtree(worldSize, minNodeSize float32, maxLodLevels int, minHeight, maxHeight float32) *Quadtree {
	q := &Quadtree{
		MaxLodLevels: maxLodLevels,
		WorldSize:    worldSize,
		MinNodeSize:  minNodeSize,
	}
	q.Root = q.build(nil, mgl32.Vec3{0, (minHeight + maxHeight) / 2, 0}, worldSize, 0, 0, 0, minHeight, maxHeight)
	return q
}

func (q *Quadtree) build(parent *Node, center mgl32.Vec3, size float32, level, gx, gz int, minH, maxH float32) *Node {
	n := &Node{
		Center:   center,
		Size:     size,
		LodLevel: level,
		GridX:    gx,
		GridZ:    gz,
		MinY:     minH,
		MaxY:     maxH,
		Parent:   parent,
	}
	q.NodeCount++

	childSize := size / 2
	if level+1 >= q.MaxLodLevels || childSize < q.MinNodeSize {
		return n
	}

	quarter := size / 4
	// Traversal order fixes selection determinism: top-left, top-right,
	// bottom-left, bottom-right.
	offsets := [4]mgl32.Vec3{
		{-quarter, 0, -quarter},
		{+quarter, 0, -quarter},
		{-quarter, 0, +quarter},
		{+quarter, 0, +quarter},
	}
	var children [4]*Node
	for i, off := range offsets {
		cgx := gx*2 + i%2
		cgz := gz*2 + i/2
		children[i] = q.build(n, center.Add(off), childSize, level+1, cgx, cgz, minH, maxH)
	}
	n.Children = &children
	return n
}

// Select walks the tree and returns the nodes to render for this camera.
// The returned selection aliases quadtree-owned storage and is invalidated
// by the next call.
func (q *Quadtree) Select(p Params) *Selection {
	q.selection.Nodes = q.selection.Nodes[:0]
	q.selection.Considered = 0
	q.selection.Culled = 0

	planes := extractFrustumPlanes(p.Frustum)
	q.selectNode(q.Root, p, planes)
	return &q.selection
}

func (q *Quadtree) selectNode(n *Node, p Params, planes [6]plane) {
	q.selection.Considered++

	min, max := inflateAABB(n.AABBMin(), n.AABBMax(), frustumMargin)
	if !aabbIntersectsFrustumPlanes(min, max, planes) {
		q.selection.Culled++
		return
	}

	d := distanceXZ(p.CameraPos, n.Center)
	t := n.Size * p.LodDistanceMultiplier

	if d < t && n.Children != nil {
		for _, c := range n.Children {
			q.selectNode(c, p, planes)
		}
		return
	}

	n.MorphFactor = morphFactor(d, t, p.MorphRegion)
	q.selection.Nodes = append(q.selection.Nodes, n)
}

// morphFactor maps camera distance into [0, 1]: 0 at the node's native
// resolution, 1 fully morphed toward the parent grid at the split distance.
func morphFactor(distance, splitDistance, morphRegion float32) float32 {
	mStart := splitDistance * (1 - morphRegion)
	mEnd := splitDistance
	if mEnd <= mStart {
		return 0
	}
	f := (distance - mStart) / (mEnd - mStart)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func distanceXZ(a, b mgl32.Vec3) float32 {
	dx := float64(a.X() - b.X())
	dz := float64(a.Z() - b.Z())
	return float32(math.Sqrt(dx*dx + dz*dz))
}

// UpdateHeightBounds rewrites the Y bounds of every node. Used after a
// regeneration when the world height range changed but the XZ layout did
// not, avoiding a full rebuild.
func (q *Quadtree) UpdateHeightBounds(minH, maxH float32) {
	var walk func(n *Node)
	walk = func(n *Node) {
		n.MinY = minH
		n.MaxY = maxH
		n.Center[1] = (minH + maxH) / 2
		if n.Children != nil {
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	walk(q.Root)
}
