// Package dual implements the dual-walk phase of the meshing core: a
// recursive cell/face/edge traversal of the merged octree that emits
// triangles wherever a shared edge crosses the surface, pairing each
// crossing with the QEF vertex of each of the (up to four) leaves touching
// it, solved the first time the walk touches that leaf.
//
// Branches are walked as if fully subdivided even where one side of a
// face or edge pair is actually a leaf, by virtually substituting the
// leaf itself for each of its non-existent children (walker.child
// below): recursion always terminates because a leaf substituted for
// itself never creates new work, so depth strictly decreases wherever a
// real subdivision exists and the walk bottoms out once every member of
// a group is a genuine leaf.
package dual

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/meshbuf"
	"github.com/soypat/dcmesh/octree"
	"github.com/soypat/dcmesh/qef"
)

// Options configures a dual walk.
type Options struct {
	Mode   qef.NormalizationMode
	Cutoff float64 // <= 0 uses qef.DefaultEigenvalueCutoff
	// Progress, if set, is ticked once per cell the walk processes. nil
	// uses eval.NopProgress.
	Progress eval.ProgressSink
}

// Walk traverses the octree rooted at root and appends every triangle it
// finds to buf, solving and caching each touched leaf's vertex lazily via
// octree.Node.EnsureVertex. Ticks opt.Progress once per cell visited; the
// caller is responsible for bookending the phase with NextPhase/Finish
// when Walk is used standalone rather than through ParallelWalk.
func Walk(field eval.FieldEvaluator, pool *octree.Pool, root int32, buf *meshbuf.Buffer, opt Options) {
	if root == octree.NoIndex {
		return
	}
	if opt.Progress == nil {
		opt.Progress = eval.NopProgress{}
	}
	w := &walker{field: field, pool: pool, buf: buf, opt: opt}
	w.cell(root)
}

// ParallelWalk splits work across the root's children (falling back to
// the root itself if it is a leaf) and walks each subtree with its own
// Buffer, returning the buffers for meshbuf.Merge. Unlike the build
// phase, which shares work through a task stack, this partitions the walk
// statically by top-level octant, trading a perfectly balanced
// work-stealing schedule for simplicity: most of the
// triangle-emission cost is near the surface, and the 8 top-level
// octants are where that work naturally splits.
func ParallelWalk(field eval.FieldEvaluator, pool *octree.Pool, root int32, counter *meshbuf.Counter, opt Options) []*meshbuf.Buffer {
	if root == octree.NoIndex {
		return nil
	}
	if opt.Progress == nil {
		opt.Progress = eval.NopProgress{}
	}
	// NextPhase's total is unknowable ahead of time (the cell count is
	// exactly what this walk is traversing), so progress is reported as
	// an unbounded tick stream.
	opt.Progress.NextPhase(0)
	opt.Progress = &mutexProgress{sink: opt.Progress}

	node := pool.Get(root)
	if node.IsLeaf() {
		buf := meshbuf.NewBuffer(counter)
		Walk(field, pool, root, buf, opt)
		return []*meshbuf.Buffer{buf}
	}

	buffers := make([]*meshbuf.Buffer, 8)
	done := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		buf := meshbuf.NewBuffer(counter)
		buffers[i] = buf
		go func(childRoot int32, buf *meshbuf.Buffer) {
			Walk(field.CloneForThread(), pool, childRoot, buf, opt)
			done <- struct{}{}
		}(node.Children[i], buf)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	// Internal faces/edges shared by the 8 top-level octants were not
	// visited by any child subtree walk above (each only descended its
	// own octant); resolve them here in a final single-threaded pass.
	seam := meshbuf.NewBuffer(counter)
	w := &walker{field: field, pool: pool, buf: seam, opt: opt}
	w.internalFacesAndEdges(node.Children)
	w.opt.Progress.Tick(1) // the root cell itself
	buffers = append(buffers, seam)

	return buffers
}

type walker struct {
	field eval.FieldEvaluator
	pool  *octree.Pool
	buf   *meshbuf.Buffer
	opt   Options
}

// mutexProgress serializes access to a ProgressSink shared by the
// multiple goroutines ParallelWalk spawns, one per top-level octant.
type mutexProgress struct {
	mu   sync.Mutex
	sink eval.ProgressSink
}

func (p *mutexProgress) Start(phases int) {
	p.mu.Lock()
	p.sink.Start(phases)
	p.mu.Unlock()
}

func (p *mutexProgress) NextPhase(total uint64) {
	p.mu.Lock()
	p.sink.NextPhase(total)
	p.mu.Unlock()
}

func (p *mutexProgress) Tick(delta uint64) {
	p.mu.Lock()
	p.sink.Tick(delta)
	p.mu.Unlock()
}

func (p *mutexProgress) Finish() {
	p.mu.Lock()
	p.sink.Finish()
	p.mu.Unlock()
}

// child returns idx's i'th child, or idx itself if idx is a leaf (the
// virtual-substitution rule every recursive step relies on).
func (w *walker) child(idx int32, i int) int32 {
	n := w.pool.Get(idx)
	if n.IsLeaf() {
		return idx
	}
	return n.Children[i]
}

func (w *walker) cell(idx int32) {
	n := w.pool.Get(idx)
	if n.IsLeaf() {
		w.opt.Progress.Tick(1)
		return
	}
	for i := 0; i < 8; i++ {
		w.cell(n.Children[i])
	}
	w.internalFacesAndEdges(n.Children)
	w.opt.Progress.Tick(1)
}

// internalFacesAndEdges resolves the 12 face pairs and 6 edge quads
// internal to one branch's 8 children (equivalently: the seams between
// any 8 subtrees known to tile one cube, root's 8 octants included).
func (w *walker) internalFacesAndEdges(children [8]int32) {
	for axis := 0; axis < 3; axis++ {
		for c0 := 0; c0 < 8; c0++ {
			if c0&(1<<axis) != 0 {
				continue
			}
			c1 := c0 | (1 << axis)
			w.face([2]int32{children[c0], children[c1]}, axis)
		}
	}
	for axis := 0; axis < 3; axis++ {
		for bit := 0; bit < 2; bit++ {
			group := edgeGroup(children, axis, bit)
			w.edge(group, axis)
		}
	}
}

// edgeGroup picks the 4 children sharing the internal edge along axis at
// the given bit value of axis (every child with that axis bit touches the
// parent's central line along axis), ordered by k = perp0bit | perp1bit<<1.
func edgeGroup(children [8]int32, axis, bit int) [4]int32 {
	p0, p1 := (axis+1)%3, (axis+2)%3
	var group [4]int32
	for k := 0; k < 4; k++ {
		var bits [3]int
		bits[axis] = bit
		bits[p0] = k & 1
		bits[p1] = (k >> 1) & 1
		c := bits[0] | bits[1]<<1 | bits[2]<<2
		group[k] = children[c]
	}
	return group
}

// face recurses into the 2 cells sharing a face perpendicular to axis,
// visiting the 4 finer face pairs and 4 finer edge quads (2 per in-face
// axis) that lie within their shared face. Faces never emit geometry directly
// in dual contouring: crossings are only detected and resolved in edge.
func (w *walker) face(cells [2]int32, axis int) {
	n0, n1 := w.pool.Get(cells[0]), w.pool.Get(cells[1])
	if n0.IsLeaf() && n1.IsLeaf() {
		return
	}
	p0, p1 := (axis+1)%3, (axis+2)%3
	// The two cells' children lying on the shared face: cell0's with its
	// axis-bit set (touching cell1), cell1's with its axis-bit clear.
	for k := 0; k < 4; k++ {
		var bits [3]int
		bits[p0] = k & 1
		bits[p1] = (k >> 1) & 1
		bits[axis] = 1
		cA := w.child(cells[0], bits[0]|bits[1]<<1|bits[2]<<2)
		bits[axis] = 0
		cB := w.child(cells[1], bits[0]|bits[1]<<1|bits[2]<<2)
		w.face([2]int32{cA, cB}, axis)
	}
	for _, perp := range [2]int{p0, p1} {
		// edge(group, perp) indexes group[k] by perp's own perpendicular
		// pair ((perp+1)%3, (perp+2)%3), the same convention edgeGroup
		// uses; building the group with any other bit assignment (e.g.
		// reusing axis/p0/p1 from this face's own frame) hands edge() a
		// group whose members are shuffled relative to what it expects.
		pp0, pp1 := (perp+1)%3, (perp+2)%3
		for bit := 0; bit < 2; bit++ {
			var group [4]int32
			for k := 0; k < 4; k++ {
				var bits [3]int
				bits[perp] = bit
				bits[pp0] = k & 1
				bits[pp1] = (k >> 1) & 1
				// Position 0 along axis is cells[0]'s side, position 1 is
				// cells[1]'s; each takes its child touching the shared
				// face, i.e. the opposite axis bit to its position.
				src := cells[0]
				if bits[axis] == 1 {
					src = cells[1]
				}
				bits[axis] = 1 - bits[axis]
				group[k] = w.child(src, bits[0]|bits[1]<<1|bits[2]<<2)
			}
			w.edge(group, perp)
		}
	}
}

// edge resolves one 4-cell edge group: recursing further while any
// member is a branch, and testing for (and emitting) a surface crossing
// once every member is a leaf.
func (w *walker) edge(group [4]int32, axis int) {
	allLeaf := true
	for _, idx := range group {
		if !w.pool.Get(idx).IsLeaf() {
			allLeaf = false
			break
		}
	}
	if allLeaf {
		w.emitEdge(group, axis)
		return
	}

	p0, p1 := (axis+1)%3, (axis+2)%3
	for bit := 0; bit < 2; bit++ {
		var next [4]int32
		for k := 0; k < 4; k++ {
			// group[k] sits at perp-position (p0=k&1, p1=(k>>1)&1); the
			// shared edge runs along its opposite corner, so its child
			// must be taken at the complement of that position, not at k's
			// own position (libfive dual.hpp's edge3: ts[0]->child(Q|R),
			// ts[1]->child(R), ts[2]->child(Q), ts[3]->child(0)).
			var bits [3]int
			bits[axis] = bit
			bits[p0] = 1 - (k & 1)
			bits[p1] = 1 - ((k >> 1) & 1)
			next[k] = w.child(group[k], bits[0]|bits[1]<<1|bits[2]<<2)
		}
		w.edge(next, axis)
	}
}

// emitEdge tests whether the edge shared by group (all leaves, running
// along axis) crosses the surface, and if so emits the quad formed by
// the 4 members' dual vertices.
//
// group[i] sits at perp-position (p0=i&1, p1=(i>>1)&1), so the corner
// all four members touch is group[0]'s own (p0=1,p1=1) corner (the
// complement of its own position, same rule edge's recursion uses).
func (w *walker) emitEdge(group [4]int32, axis int) {
	ref := w.pool.Get(group[0])
	p0, p1 := (axis+1)%3, (axis+2)%3
	var loBits, hiBits [3]int
	loBits[p0], loBits[p1] = 1, 1
	hiBits[p0], hiBits[p1] = 1, 1
	loBits[axis], hiBits[axis] = 0, 1
	loIdx := loBits[0] | loBits[1]<<1 | loBits[2]<<2
	hiIdx := hiBits[0] | hiBits[1]<<1 | hiBits[2]<<2
	loInside := ref.CornerSign[loIdx]
	hiInside := ref.CornerSign[hiIdx]
	if loInside == hiInside {
		return
	}

	var vs [4]uint32
	var vp [4]r3.Vec
	for i := 0; i < 4; i++ {
		n := w.pool.Get(group[i])
		n.EnsureVertex(func() (r3.Vec, uint32) {
			v := SolveLeafVertex(w.field, n, w.opt.Mode, w.opt.Cutoff)
			return v, w.buf.PushVertex(v)
		})
		vs[i] = n.Index
		vp[i] = n.Vertex
	}

	// loInside false means the edge's low end is outside the surface;
	// swapping the two off-diagonal corners normalizes both polarities
	// onto one winding before picking a diagonal and emitting, instead
	// of duplicating the triangulation logic below per polarity.
	if !loInside {
		vs[1], vs[2] = vs[2], vs[1]
		vp[1], vp[2] = vp[2], vp[1]
	}

	// Pick whichever diagonal keeps the two triangles from folding back
	// on each other, by comparing geometric corner normals across each
	// diagonal, rather than just picking the shorter of the two: this
	// is cheap since the quad's vertex positions are already solved, no
	// extra field evaluation needed.
	corner := func(a, b, c r3.Vec) r3.Vec {
		return r3.Unit(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
	}
	n0 := corner(vp[0], vp[1], vp[2])
	n1 := corner(vp[1], vp[3], vp[0])
	n2 := corner(vp[2], vp[0], vp[3])
	n3 := corner(vp[3], vp[2], vp[1])

	if r3.Dot(n0, n3) > r3.Dot(n1, n2) {
		w.buf.PushTriangle(vs[0], vs[1], vs[2])
		w.buf.PushTriangle(vs[2], vs[1], vs[3])
	} else {
		w.buf.PushTriangle(vs[0], vs[1], vs[3])
		w.buf.PushTriangle(vs[0], vs[3], vs[2])
	}
}
