// Package dcbuild implements the parallel octree construction phase: a
// bounded lock-free task stack feeding a worker pool, interval-based
// region classification, and the bottom-up manifold-collapse walk that
// turns fully-resolved octants back into single leaves where possible.
package dcbuild

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/soypat/dcmesh/dual"
	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/internal/d3"
	"github.com/soypat/dcmesh/octree"
	"github.com/soypat/dcmesh/qef"
	"github.com/soypat/dcmesh/region"
)

// defaultMaxErr is the combined-QEF-residual cutoff used when Options.MaxErr
// is left at its zero value.
const defaultMaxErr = 1e-8

// Options configures a Build call.
type Options struct {
	Workers    int
	MinFeature float64
	// MaxErr bounds the combined QEF residual a branch's candidate
	// collapse vertex may have against its children's surface crossings
	// before the branch is forced to stay subdivided. <= 0 uses
	// defaultMaxErr.
	MaxErr    float64
	QEFMode   qef.NormalizationMode
	QEFCutoff float64
	Prefilter eval.VolumePrefilter
	Progress  eval.ProgressSink
}

// Result is the output of Build: one merged node arena and the index of
// its root.
type Result struct {
	Pool *octree.Pool
	Root int32
}

// Build constructs the octree covering root by recursively classifying
// and subdividing regions with field (cloned once per worker via
// CloneForThread), stopping at MinFeature, and collapsing fully-resolved
// octants back into a single leaf wherever the manifold test allows.
//
// It mirrors worker_pool.inl's structure: a bounded lock-free stack
// shared by all workers, a thread-local overflow stack per worker for
// when the shared stack is full, and a shared outstanding-task counter
// that reaches zero exactly when every task has been resolved.
//
// opt.Progress is ticked once per completed octree subtree (leaf or
// collapsed/materialized branch). Build calls NextPhase on it but never
// Start or Finish: those bookend the whole pipeline and are owned by
// whoever composes this phase with others (dcmesh.Build does so for the
// build+dual-walk pipeline; a standalone caller may call them directly).
func Build(ctx context.Context, field eval.FieldEvaluator, root region.Region, opt Options) (Result, error) {
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if opt.Progress == nil {
		opt.Progress = eval.NopProgress{}
	}
	if opt.MaxErr <= 0 {
		opt.MaxErr = defaultMaxErr
	}
	// NextPhase's total is unknowable ahead of time (the octree's node
	// count is exactly what this phase is computing), so progress here is
	// reported as an unbounded tick stream rather than a fraction of a
	// known total.
	opt.Progress.NextPhase(0)
	var progressMu sync.Mutex
	tick := func(delta uint64) {
		progressMu.Lock()
		opt.Progress.Tick(delta)
		progressMu.Unlock()
	}

	shared := newTaskStack(workers)
	pools := make([]*octree.Pool, workers)
	for i := range pools {
		pools[i] = octree.NewPool(64)
	}

	var outstanding atomic.Int64
	outstanding.Store(1)

	var rootRef atomic.Int32
	rootRef.Store(octree.NoRef)

	var canceled atomic.Bool

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		w := w
		fieldCopy := field.CloneForThread()
		go func() {
			defer wg.Done()
			local := make([]*task, 0, 64)
			push := func(t *task) {
				if shared.push(t) {
					return
				}
				local = append(local, t)
			}
			pop := func() *task {
				if n := len(local); n > 0 {
					t := local[n-1]
					local = local[:n-1]
					return t
				}
				return shared.pop()
			}
			deliver := func(parent *branchState, slot int, ref int32, isLeaf bool) {
				for parent != nil {
					parent.childRefs[slot].Store(ref)
					parent.childLeaf[slot].Store(isLeaf)
					if parent.pending.Add(-1) != 0 {
						return
					}
					var localIdx int32
					localIdx, isLeaf = resolveBranch(fieldCopy, pools[w], parent, opt)
					tick(1)
					ref = octree.PackRef(w, localIdx)
					slot = parent.childSlot
					parent = parent.parent
				}
				rootRef.Store(ref)
			}
			process := func(t *task) {
				if canceled.Load() {
					outstanding.Add(-1)
					return
				}
				select {
				case <-ctx.Done():
					canceled.Store(true)
					outstanding.Add(-1)
					return
				default:
				}

				class := octree.ClassifyRegion(fieldCopy, opt.Prefilter, t.region)
				isLeafRegion := class != eval.Ambiguous || d3.Max(t.region.Size()) <= opt.MinFeature
				if isLeafRegion {
					signs, _ := octree.CornerSigns(fieldCopy, t.region)
					node := octree.Node{Region: t.region, Class: class, CornerSign: signs}
					for i := range node.Children {
						node.Children[i] = octree.NoIndex
					}
					ref := octree.PackRef(w, pools[w].Alloc(node))
					outstanding.Add(-1)
					tick(1)
					deliver(t.parent, t.childSlot, ref, true)
					return
				}

				bs := newBranchState(t.region, t.parent, t.childSlot)
				outstanding.Add(7) // replacing 1 task with 8
				for i := 0; i < 8; i++ {
					push(&task{region: t.region.Octant(i), parent: bs, childSlot: i})
				}
			}

			for {
				t := pop()
				if t != nil {
					process(t)
					continue
				}
				if outstanding.Load() == 0 {
					return
				}
				runtime.Gosched()
			}
		}()
	}

	// seed the shared stack with the root task from outside the pool so
	// every worker competes for work from the same starting point.
	shared.push(&task{region: root})
	wg.Wait()

	if canceled.Load() {
		return Result{}, context.Canceled
	}

	merged, mergedRoot := octree.MergeAll(pools, rootRef.Load())
	return Result{Pool: merged, Root: mergedRoot}, nil
}

// resolveBranch materializes the Node for a fully-resolved branchState,
// collapsing it to a single leaf when every child is itself a leaf, the
// combined corner pattern (plus its edge/face/cube-center sign tests)
// passes the manifold test, and the single QEF vertex that would replace
// the 8 children's surface crossings fits them within opt.MaxErr.
func resolveBranch(field eval.FieldEvaluator, pool *octree.Pool, bs *branchState, opt Options) (localIdx int32, isLeaf bool) {
	allLeaf := true
	for i := 0; i < 8; i++ {
		if !bs.childLeaf[i].Load() {
			allLeaf = false
			break
		}
	}
	if allLeaf {
		signs, _ := octree.CornerSigns(field, bs.region)
		mid, face, center := octree.SampleAuxSigns(field, bs.region)
		if octree.LeafsAreManifold(signs, mid, face, center) {
			_, residual := dual.SolveRegionVertex(field, bs.region, signs, opt.QEFMode, opt.QEFCutoff)
			if residual <= opt.MaxErr {
				node := octree.Node{Region: bs.region, Class: eval.Ambiguous, CornerSign: signs}
				for i := range node.Children {
					node.Children[i] = octree.NoIndex
				}
				return pool.Alloc(node), true
			}
		}
	}
	var node octree.Node
	node.Region = bs.region
	node.Class = eval.Ambiguous
	for i := 0; i < 8; i++ {
		node.Children[i] = bs.childRefs[i].Load()
	}
	return pool.Alloc(node), false
}
