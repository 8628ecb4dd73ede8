package octree

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPoolAllocGet(t *testing.T) {
	p := NewPool(0)
	a := p.Alloc(Node{Index: 1})
	b := p.Alloc(Node{Index: 2})
	if a != 0 || b != 1 {
		t.Fatalf("Alloc indices = %d, %d, want 0, 1", a, b)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
	if p.Get(a).Index != 1 || p.Get(b).Index != 2 {
		t.Error("Get returned wrong node")
	}
}

func TestNodeIsLeaf(t *testing.T) {
	var leaf Node
	leaf.Children = [8]int32{NoIndex, NoIndex, NoIndex, NoIndex, NoIndex, NoIndex, NoIndex, NoIndex}
	if !leaf.IsLeaf() {
		t.Error("node with all-NoIndex children should be a leaf")
	}
	branch := leaf
	branch.Children[3] = 5
	if branch.IsLeaf() {
		t.Error("node with a real child index should not be a leaf")
	}
}

func TestEnsureVertexRunsAssignOnce(t *testing.T) {
	var n Node
	calls := 0
	n.EnsureVertex(func() (r3.Vec, uint32) {
		calls++
		return r3.Vec{X: 1, Y: 2, Z: 3}, 7
	})
	n.EnsureVertex(func() (r3.Vec, uint32) {
		calls++
		return r3.Vec{X: 99, Y: 99, Z: 99}, 99
	})
	if calls != 1 {
		t.Fatalf("assign called %d times, want 1", calls)
	}
	if n.Index != 7 || n.Vertex.X != 1 {
		t.Errorf("node = %+v after EnsureVertex, want Index=7, Vertex.X=1", n)
	}
}
