package dual

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/octree"
	"github.com/soypat/dcmesh/qef"
	"github.com/soypat/dcmesh/region"
)

// crossingBisections is the fixed number of bisection steps used to
// refine a sign-changing octree edge down to an approximate zero
// crossing before it is pushed into the QEF accumulator.
const crossingBisections = 8

// SolveLeafVertex places a leaf's single dual-contouring vertex by
// walking its 12 edges, bisecting every sign-changing one down to an
// approximate surface crossing, and feeding those crossings (with the
// field's gradient there) into a QEF solve clamped to the leaf's region.
func SolveLeafVertex(field eval.FieldEvaluator, node *octree.Node, mode qef.NormalizationMode, cutoff float64) r3.Vec {
	v, _ := SolveRegionVertex(field, node.Region, node.CornerSign, mode, cutoff)
	return v
}

// SolveRegionVertex runs the same edge-bisection QEF solve as
// SolveLeafVertex over an arbitrary region and corner-sign pattern,
// without requiring an allocated octree.Node. This is what lets the
// octree build phase evaluate a candidate collapse vertex (and its
// residual, via the second return value) for a branch that has not yet
// been materialized as a leaf.
func SolveRegionVertex(field eval.FieldEvaluator, reg region.Region, signs [8]bool, mode qef.NormalizationMode, cutoff float64) (vertex r3.Vec, residual float64) {
	var q qef.Intersection
	q.Mode = mode
	q.Reset()

	for _, e := range octree.CubeEdges {
		a, b := e[0], e[1]
		if signs[a] == signs[b] {
			continue
		}
		ca, cb := reg.Corner(a), reg.Corner(b)
		pos := bisectCrossing(field, ca, cb, signs[a])
		grads := make([]r3.Vec, 1)
		vals := make([]float64, 1)
		pts := []r3.Vec{pos}
		field.EvalGradients(pts, grads)
		field.EvalValues(pts, vals)
		q.Push(pos, grads[0], vals[0])
	}

	vertex = q.Solve(reg.Box, cutoff)
	residual = q.Error(vertex)
	return vertex, residual
}

// bisectCrossing bisects the segment [a,b] crossingBisections times,
// assuming a's sign is signA (inside) and b's is the opposite, and
// returns the resulting approximate zero-crossing point.
func bisectCrossing(field eval.FieldEvaluator, a, b r3.Vec, signA bool) r3.Vec {
	lo, hi := a, b
	loInside := signA
	for i := 0; i < crossingBisections; i++ {
		mid := r3.Scale(0.5, r3.Add(lo, hi))
		v := evalOne(field, mid)
		midInside := v <= 0
		if midInside == loInside {
			lo = mid
		} else {
			hi = mid
		}
	}
	return r3.Scale(0.5, r3.Add(lo, hi))
}

func evalOne(field eval.FieldEvaluator, p r3.Vec) float64 {
	out := [1]float64{}
	field.EvalValues([]r3.Vec{p}, out[:])
	return out[0]
}
