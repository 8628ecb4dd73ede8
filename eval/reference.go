package eval

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/internal/d3"
)

// Sphere is a reference FieldEvaluator for a sphere of radius R centered
// at Center. Its distance field is exact, so EvalInterval is tight.
type Sphere struct {
	Center r3.Vec
	R      float64
}

func (s Sphere) value(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, s.Center)) - s.R
}

func (s Sphere) EvalInterval(min, max r3.Vec) Interval {
	box := d3.Box{Min: min, Max: max}
	mind2, maxd2 := box.MinMaxDist2(s.Center)
	return Interval{Lo: math.Sqrt(mind2) - s.R, Hi: math.Sqrt(maxd2) - s.R}
}

func (s Sphere) EvalValues(pos []r3.Vec, out []float64) {
	for i, p := range pos {
		out[i] = s.value(p)
	}
}

func (s Sphere) EvalGradients(pos []r3.Vec, out []r3.Vec) {
	for i, p := range pos {
		d := r3.Sub(p, s.Center)
		n := r3.Norm(d)
		if n < 1e-12 {
			out[i] = r3.Vec{X: 1}
			continue
		}
		out[i] = r3.Scale(1/n, d)
	}
}

func (s Sphere) CloneForThread() FieldEvaluator { return s }

// Box is a reference FieldEvaluator for an axis-aligned box centered at
// Center with the given half-extents. EvalInterval is a conservative
// approximation obtained by sampling the box corners and center rather
// than an exact bound; adequate for test fixtures, not a tight bound.
type Box struct {
	Center r3.Vec
	Half   r3.Vec
}

func (b Box) value(p r3.Vec) float64 {
	q := d3.AbsElem(r3.Sub(p, b.Center))
	q = r3.Sub(q, b.Half)
	outside := r3.Norm(d3.MaxElem(q, r3.Vec{}))
	inside := math.Min(math.Max(q.X, math.Max(q.Y, q.Z)), 0)
	return outside + inside
}

func (b Box) EvalInterval(min, max r3.Vec) Interval {
	region := d3.Box{Min: min, Max: max}
	corners := region.Vertices()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		v := b.value(c)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	center := region.Center()
	v := b.value(center)
	lo = math.Min(lo, v)
	hi = math.Max(hi, v)
	// Corners and center alone can miss the true minimum along a face;
	// widen both bounds by the region's half-diagonal so the
	// classification stays conservative (never claims Empty/Filled for a
	// region that actually straddles the surface).
	pad := r3.Norm(region.Size()) / 2
	lo -= pad
	hi += pad
	return Interval{Lo: lo, Hi: hi}
}

func (b Box) EvalValues(pos []r3.Vec, out []float64) {
	for i, p := range pos {
		out[i] = b.value(p)
	}
}

func (b Box) EvalGradients(pos []r3.Vec, out []r3.Vec) {
	const h = 1e-5
	for i, p := range pos {
		out[i] = centralDiffGradient(b.value, p, h)
	}
}

func (b Box) CloneForThread() FieldEvaluator { return b }

// Union is a reference FieldEvaluator combining two fields with a smooth
// minimum (polynomial smooth-min, k controlling the blend radius). k=0
// gives the ordinary sharp union.
type Union struct {
	A, B FieldEvaluator
	K    float64
}

func smoothMin(a, b, k float64) float64 {
	if k <= 0 {
		return math.Min(a, b)
	}
	h := math.Max(k-math.Abs(a-b), 0) / k
	return math.Min(a, b) - h*h*k*0.25
}

func (u Union) EvalInterval(min, max r3.Vec) Interval {
	ia := u.A.EvalInterval(min, max)
	ib := u.B.EvalInterval(min, max)
	return Interval{Lo: math.Min(ia.Lo, ib.Lo) - u.K, Hi: math.Min(ia.Hi, ib.Hi)}
}

func (u Union) EvalValues(pos []r3.Vec, out []float64) {
	va := make([]float64, len(pos))
	vb := make([]float64, len(pos))
	u.A.EvalValues(pos, va)
	u.B.EvalValues(pos, vb)
	for i := range pos {
		out[i] = smoothMin(va[i], vb[i], u.K)
	}
}

func (u Union) EvalGradients(pos []r3.Vec, out []r3.Vec) {
	for i, p := range pos {
		out[i] = centralDiffGradient(func(p r3.Vec) float64 {
			var va, vb [1]float64
			u.A.EvalValues([]r3.Vec{p}, va[:])
			u.B.EvalValues([]r3.Vec{p}, vb[:])
			return smoothMin(va[0], vb[0], u.K)
		}, p, 1e-5)
	}
}

func (u Union) CloneForThread() FieldEvaluator {
	return Union{A: u.A.CloneForThread(), B: u.B.CloneForThread(), K: u.K}
}

func centralDiffGradient(f func(r3.Vec) float64, p r3.Vec, h float64) r3.Vec {
	dx := (f(r3.Add(p, r3.Vec{X: h})) - f(r3.Add(p, r3.Vec{X: -h}))) / (2 * h)
	dy := (f(r3.Add(p, r3.Vec{Y: h})) - f(r3.Add(p, r3.Vec{Y: -h}))) / (2 * h)
	dz := (f(r3.Add(p, r3.Vec{Z: h})) - f(r3.Add(p, r3.Vec{Z: -h}))) / (2 * h)
	return r3.Vec{X: dx, Y: dy, Z: dz}
}
