package octree

// Pool is an arena allocator for Node values, owned by a single worker
// goroutine during construction. Nodes are addressed by index rather than
// pointer so that a node's children links survive being merged into
// another Pool's backing array (see MergeAll), matching the original
// worker pool's per-thread object_pool that gets folded into a
// root-owned pool once a build phase ends.
type Pool struct {
	nodes []Node
}

// NewPool returns an empty Pool with capacity pre-reserved for hint
// nodes.
func NewPool(hint int) *Pool {
	return &Pool{nodes: make([]Node, 0, hint)}
}

// Alloc appends a new Node and returns its arena index.
func (p *Pool) Alloc(n Node) int32 {
	n.ensureVertexOnce()
	idx := int32(len(p.nodes))
	p.nodes = append(p.nodes, n)
	return idx
}

// Get returns a pointer to the node at idx. The pointer is only valid
// until the next Alloc on the same Pool, since Alloc may reallocate the
// backing slice.
func (p *Pool) Get(idx int32) *Node {
	return &p.nodes[idx]
}

// Len returns the number of nodes currently in the pool.
func (p *Pool) Len() int { return len(p.nodes) }
