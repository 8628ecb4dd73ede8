// Package octree implements the adaptive octree data structure the
// meshing core builds over a field: arena-indexed nodes (to avoid
// pointer-cycle ownership issues across worker goroutines), interval-based
// classification, and the manifold-safety tables that decide when a
// subtree may be collapsed into a single leaf.
package octree

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/region"
)

// NoIndex marks the absence of an arena index (no child, no root). An
// unassigned vertex is marked by Node.Index == 0 instead.
const NoIndex int32 = -1

// Node is one cell of the octree, addressed by arena index rather than
// by pointer. Children holds indices into the same Pool; a leaf has all
// Children set to NoIndex. Nodes carry no parent link: the bottom-up
// collapse walk that needs one (see dcbuild) tracks it with a transient
// side structure during construction rather than a field on Node, since
// once construction finishes the dual walk only ever descends from the
// root.
type Node struct {
	Region region.Region

	Children [8]int32

	Class eval.Classification

	// CornerSign[i] is true when corner i (using the bit0=X,bit1=Y,bit2=Z
	// ordering shared with region.Region.Corner) lies inside the surface
	// (field value <= 0). Populated for every leaf.
	CornerSign [8]bool

	// Index holds the lazily-assigned global vertex index for this leaf's
	// single dual-contouring vertex. 0 means "not yet assigned"; indices
	// are handed out starting at 1 by meshbuf so 0 can serve as the
	// sentinel, exactly as in the per-thread mesh buffer it comes from.
	Index uint32

	// Vertex is the leaf's QEF-solved surface vertex, valid once Index
	// is nonzero.
	Vertex r3.Vec

	// vertexOnce guards EnsureVertex. It is a pointer, not an embedded
	// sync.Once, so that Node stays copyable: Pool.Alloc and MergeAll both
	// copy Node values around (the arena is a plain slice, not a slice of
	// pointers), which would be a copylocks violation against a value
	// receiver's Once. Pool.Alloc allocates it before the node becomes
	// reachable from Pool.Get, so every copy made after that point is a
	// pointer copy, not a lock copy.
	vertexOnce *sync.Once
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	for _, c := range n.Children {
		if c != NoIndex {
			return false
		}
	}
	return true
}

// EnsureVertex lazily assigns this leaf's dual-contouring vertex the
// first time it is called for a given node, no matter how many dual-walk
// edges touch the leaf concurrently: assign is invoked at most once, and
// every caller (whether it ran assign or arrived after another goroutine
// already had) observes the same Vertex/Index afterward.
func (n *Node) EnsureVertex(assign func() (r3.Vec, uint32)) {
	n.ensureVertexOnce()
	n.vertexOnce.Do(func() {
		n.Vertex, n.Index = assign()
	})
}

// ensureVertexOnce gives n a live Once pointer if it doesn't have one
// yet. Pool.Alloc calls this before a node becomes reachable from
// Pool.Get, so EnsureVertex's own call to it is a no-op on the
// concurrent dual-walk path; it only does real work for a Node used
// standalone, outside any Pool.
func (n *Node) ensureVertexOnce() {
	if n.vertexOnce == nil {
		n.vertexOnce = new(sync.Once)
	}
}
