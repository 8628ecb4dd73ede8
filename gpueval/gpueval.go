// Package gpueval adapts a batch-evaluated field expressed in terms of
// github.com/soypat/glgl/math/ms3.Vec (the representation the teacher's
// GPU/CPU compute evaluators already use) into the eval.FieldEvaluator
// collaborator interface the meshing core consumes, so a GPU-resident
// field can drive dcmesh.Build without any core package depending on
// ms3 or OpenGL directly.
package gpueval

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/glgl/math/ms3"

	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/internal/d3"
)

// SDF3 is the batch-evaluated field interface the GPU/CPU compute
// evaluators implement: distances for a batch of positions, plus a
// bounding box. It mirrors gleval.SDF3 in the teacher's glsdf3 package.
type SDF3 interface {
	Evaluate(pos []ms3.Vec, dist []float32, userData any) error
	Bounds() ms3.Box
}

// Adapter wraps an SDF3 batch evaluator as an eval.FieldEvaluator. It
// has no interval arithmetic of its own (SDF3 only evaluates values),
// so EvalInterval falls back to the same conservative corner+center
// sampling approximation eval.Box uses, padded by the region's
// half-diagonal.
type Adapter struct {
	SDF SDF3
}

func (a Adapter) EvalInterval(min, max r3.Vec) eval.Interval {
	box := d3.Box{Min: min, Max: max}
	corners := box.Vertices()
	pos := append(append([]r3.Vec{}, corners...), box.Center())
	vals := make([]float64, len(pos))
	a.EvalValues(pos, vals)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := r3.Norm(box.Size()) / 2
	return eval.Interval{Lo: lo - pad, Hi: hi + pad}
}

func (a Adapter) EvalValues(pos []r3.Vec, out []float64) {
	ms3pos := make([]ms3.Vec, len(pos))
	for i, p := range pos {
		ms3pos[i] = ms3.Vec{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
	}
	dist := make([]float32, len(pos))
	if err := a.SDF.Evaluate(ms3pos, dist, nil); err != nil {
		// eval.FieldEvaluator has no error return; surface a value that
		// reliably classifies as Ambiguous rather than silently
		// misclassifying the region as Empty or Filled.
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i, d := range dist {
		out[i] = float64(d)
	}
}

func (a Adapter) EvalGradients(pos []r3.Vec, out []r3.Vec) {
	const h = 1e-4
	var probe [6]r3.Vec
	var vals [6]float64
	for i, p := range pos {
		probe[0] = r3.Add(p, r3.Vec{X: h})
		probe[1] = r3.Add(p, r3.Vec{X: -h})
		probe[2] = r3.Add(p, r3.Vec{Y: h})
		probe[3] = r3.Add(p, r3.Vec{Y: -h})
		probe[4] = r3.Add(p, r3.Vec{Z: h})
		probe[5] = r3.Add(p, r3.Vec{Z: -h})
		a.EvalValues(probe[:], vals[:])
		out[i] = r3.Vec{
			X: (vals[0] - vals[1]) / (2 * h),
			Y: (vals[2] - vals[3]) / (2 * h),
			Z: (vals[4] - vals[5]) / (2 * h),
		}
	}
}

func (a Adapter) CloneForThread() eval.FieldEvaluator { return a }

// Bounds returns the wrapped SDF3's bounding box as a d3.Box.
func (a Adapter) Bounds() d3.Box {
	b := a.SDF.Bounds()
	return d3.Box{
		Min: r3.Vec{X: float64(b.Min.X), Y: float64(b.Min.Y), Z: float64(b.Min.Z)},
		Max: r3.Vec{X: float64(b.Max.X), Y: float64(b.Max.Y), Z: float64(b.Max.Z)},
	}
}
