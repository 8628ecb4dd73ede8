package dcbuild

import (
	"sync/atomic"

	"github.com/soypat/dcmesh/region"
)

// task is one unit of octree-construction work: classify a region and
// either resolve it as a leaf or subdivide it into 8 further tasks.
type task struct {
	region    region.Region
	parent    *branchState
	childSlot int
}

// branchState tracks the 8 outstanding children of a region that was
// subdivided. It is the transient, plain-pointer side structure the
// bottom-up collapse walk climbs through; it has no back edge into the
// octree arena itself, so it introduces no ownership cycle there. Pending
// starts at 8 and is decremented once per resolved child; the goroutine
// that drives it to zero is the one that finishes the branch (collapsing
// it into a single leaf when the manifold test allows, or materializing
// it as a real branch Node otherwise) and propagates the result to its
// own parent, exactly mirroring the original worker pool's walk-up-while-
// children-done loop.
type branchState struct {
	region    region.Region
	parent    *branchState
	childSlot int

	pending   atomic.Int32
	childRefs [8]atomic.Int32
	childLeaf [8]atomic.Bool
}

func newBranchState(r region.Region, parent *branchState, slot int) *branchState {
	bs := &branchState{region: r, parent: parent, childSlot: slot}
	bs.pending.Store(8)
	return bs
}
