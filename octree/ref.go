package octree

// A node reference identifies a node by which worker's pool it was
// allocated in plus its index within that pool. During construction each
// worker owns exactly one Pool, so a parent and its children can live in
// different pools; refs let a parent record children built by another
// worker without synchronizing the pools themselves. MergeAll folds every
// worker's pool into one, at which point every ref in the result is
// local to pool index 0 and degenerates to a plain arena index.
//
// refWorkerBits must be large enough for the largest worker count this
// module supports; refIndexBits bounds the number of nodes a single
// worker's pool may hold before being merged.
const (
	refWorkerBits = 10
	refIndexBits  = 32 - refWorkerBits - 1 // leave sign bit untouched
	refIndexMask  = int32(1)<<refIndexBits - 1
)

// NoRef is the reference value meaning "no node" (no parent, no child).
const NoRef int32 = -1

// PackRef encodes a (worker, index) pair into a single int32 reference.
func PackRef(worker int, index int32) int32 {
	return int32(worker)<<refIndexBits | (index & refIndexMask)
}

// UnpackRef decodes a reference produced by PackRef.
func UnpackRef(ref int32) (worker int, index int32) {
	if ref == NoRef {
		return -1, NoIndex
	}
	return int(ref >> refIndexBits), ref & refIndexMask
}

// MergeAll folds every pool in pools into a single new Pool, remapping
// every ref-encoded Children field it finds so that the result is
// addressed by plain local indices, with rootRef (itself a packed ref
// into the original pools) translated to the corresponding local index
// in the merged pool.
func MergeAll(pools []*Pool, rootRef int32) (merged *Pool, rootIndex int32) {
	if len(pools) == 0 {
		return NewPool(0), NoIndex
	}
	offsets := make([]int32, len(pools))
	merged = NewPool(0)
	for i, p := range pools {
		offsets[i] = int32(merged.Len())
		for _, n := range p.nodes {
			merged.nodes = append(merged.nodes, n)
		}
	}
	remap := func(ref int32) int32 {
		if ref == NoRef {
			return NoIndex
		}
		w, idx := UnpackRef(ref)
		return offsets[w] + idx
	}
	for i := range merged.nodes {
		n := &merged.nodes[i]
		for c := range n.Children {
			n.Children[c] = remap(n.Children[c])
		}
	}
	rootIndex = remap(rootRef)
	return merged, rootIndex
}
