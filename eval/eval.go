// Package eval defines the collaborator interfaces the meshing core
// consumes: the implicit-field evaluator, an optional coarse volume
// prefilter, and an optional progress sink. None of these are implemented
// by this module in terms of a symbolic expression tree; callers supply
// their own field. reference.go contains small concrete evaluators used
// by this module's own tests and the cmd/ commands.
package eval

import "gonum.org/v1/gonum/spatial/r3"

// Interval is a conservative lower/upper bound on a field's value over
// some region, used to classify whole octree cells without point sampling.
type Interval struct {
	Lo, Hi float64
}

// Classification is the result of interval-evaluating a field over a
// region.
type Classification uint8

const (
	// Empty means the field is provably positive (outside the
	// surface) everywhere in the region.
	Empty Classification = iota
	// Filled means the field is provably negative (inside the
	// surface) everywhere in the region.
	Filled
	// Ambiguous means the interval straddles zero: the region may
	// contain part of the surface and must be subdivided or sampled.
	Ambiguous
)

// Classify turns an Interval into a Classification using the standard
// sign convention: negative inside, positive outside.
func (iv Interval) Classify() Classification {
	switch {
	case iv.Lo > 0:
		return Empty
	case iv.Hi < 0:
		return Filled
	default:
		return Ambiguous
	}
}

// FieldEvaluator is the implicit-function collaborator the meshing core
// samples. Implementations are expected to be safe to call concurrently
// through independent clones obtained via CloneForThread; a single
// FieldEvaluator value need not be safe for concurrent use by itself.
type FieldEvaluator interface {
	// EvalInterval returns a conservative bound on the field's value
	// over the given box, used to classify octree cells without
	// per-point sampling.
	EvalInterval(min, max r3.Vec) Interval

	// EvalValues evaluates the field at each point in pos, writing the
	// results to out (len(out) must equal len(pos)).
	EvalValues(pos []r3.Vec, out []float64)

	// EvalGradients evaluates the field's gradient at each point in pos,
	// writing the results to out (len(out) must equal len(pos)).
	EvalGradients(pos []r3.Vec, out []r3.Vec)

	// CloneForThread returns an evaluator usable independently by one
	// worker goroutine. Implementations backed by shared mutable
	// scratch space (expression tape buffers, GPU contexts) return a
	// private copy here; implementations that are already safe for
	// concurrent use may return themselves.
	CloneForThread() FieldEvaluator
}

// VolumePrefilter is an optional collaborator that can classify a region
// as wholly empty or filled before any field evaluation happens, using
// out-of-band information (a bounding volume hierarchy, a voxel mask).
// Push reports a region that interval evaluation classified decisively
// (Empty or Filled) after Check could not answer, letting the prefilter
// refine its own acceleration structure.
type VolumePrefilter interface {
	Check(min, max r3.Vec) (Classification, bool)
	Push(min, max r3.Vec)
}

// ProgressSink is an optional collaborator notified of coarse-grained
// meshing progress. Phase indices are builder-defined (construction,
// dual walk); Start receives the phase count, and Tick reports completed
// work units within the current phase out of the total passed to
// NextPhase (0 when the total is not known in advance).
type ProgressSink interface {
	Start(phases int)
	NextPhase(total uint64)
	Tick(delta uint64)
	Finish()
}

// NopProgress is a ProgressSink that does nothing; the zero value
// NopProgress{} satisfies ProgressSink and is used as the default when a
// caller does not supply one.
type NopProgress struct{}

func (NopProgress) Start(int)        {}
func (NopProgress) NextPhase(uint64) {}
func (NopProgress) Tick(uint64)      {}
func (NopProgress) Finish()          {}
