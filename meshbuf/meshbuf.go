// Package meshbuf holds the per-thread output buffers the dual walk
// writes triangles into, and the global vertex index allocator shared
// across them, grounded on per_thread_brep.hpp's PerThreadBRep.
package meshbuf

import (
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"
)

// Counter is the shared, monotonically increasing vertex-index allocator
// every Buffer draws from. It starts at 1 so that 0 can serve as the
// "unassigned" sentinel on octree.Node.Index.
type Counter struct {
	next atomic.Uint32
}

// NewCounter returns a Counter whose first Next() call returns 1.
func NewCounter() *Counter {
	c := &Counter{}
	c.next.Store(1)
	return c
}

// Next returns the next unused vertex index.
func (c *Counter) Next() uint32 { return c.next.Add(1) - 1 }

// Buffer is one worker's private triangle mesh buffer. PushVertex and
// PushTriangle are only ever called by the goroutine that owns the
// Buffer; cross-thread vertex index assignment happens through Counter,
// not through the Buffer itself.
type Buffer struct {
	counter *Counter
	// Vertices and Indices are parallel: Indices[i] is the global vertex
	// index assigned to Vertices[i]. Indices are handed out from a
	// Counter shared across every worker's Buffer, so one buffer's
	// entries are a scattered subset of the overall index range, not a
	// contiguous run - Merge places each vertex at Indices[i] rather
	// than assuming buffers partition the range in order.
	Vertices  []r3.Vec
	Indices   []uint32
	Triangles [][3]uint32
}

// NewBuffer returns an empty Buffer drawing vertex indices from counter.
func NewBuffer(counter *Counter) *Buffer {
	return &Buffer{counter: counter}
}

// PushVertex records v, returning the globally unique index assigned to
// it.
func (b *Buffer) PushVertex(v r3.Vec) uint32 {
	idx := b.counter.Next()
	b.Vertices = append(b.Vertices, v)
	b.Indices = append(b.Indices, idx)
	return idx
}

// PushTriangle appends a triangle given by three global vertex indices,
// discarding it if any two indices coincide (a degenerate triangle,
// which the dual walk can produce at the boundary of a collapsed
// octant).
func (b *Buffer) PushTriangle(a, c, d uint32) {
	if a == c || c == d || a == d {
		return
	}
	b.Triangles = append(b.Triangles, [3]uint32{a, c, d})
}

// Mesh is the fully merged output of a meshing run: one global vertex
// array indexed the way octree.Node.Index and Triangles address it
// directly (Vertices[0] is an unused zero sentinel, since index 0 is
// never assigned to a real vertex), and a flat triangle index list.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]uint32
}

// Merge concatenates every worker Buffer into a single Mesh. Buffers draw
// indices from a shared Counter, so a vertex pushed with index i is
// placed at Vertices[i] regardless of which buffer produced it; slot 0
// is left as the zero sentinel no real vertex index ever points at.
func Merge(counter *Counter, buffers []*Buffer) Mesh {
	total := counter.next.Load() - 1
	m := Mesh{Vertices: make([]r3.Vec, total+1)}
	for _, b := range buffers {
		for i, v := range b.Vertices {
			m.Vertices[b.Indices[i]] = v
		}
		m.Triangles = append(m.Triangles, b.Triangles...)
	}
	return m
}
