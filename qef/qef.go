// Package qef implements the quadratic-error-function accumulator used
// to place a single vertex per octree leaf from a set of surface-crossing
// samples (position, gradient, value triples).
package qef

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/internal/d3"
)

// NormalizationMode selects how Intersection weighs a pushed sample.
type NormalizationMode uint8

const (
	// Normalized divides each sample's derivative and value by the
	// derivative's norm before accumulating, and uses an absolute
	// eigenvalue cutoff when determining rank. This is the default.
	Normalized NormalizationMode = iota
	// Unnormalized accumulates samples as given and uses a cutoff
	// relative to the largest eigenvalue when determining rank. Use
	// this when the field evaluator already returns unit gradients.
	Unnormalized
)

// degenerateGradientNorm is the minimum derivative norm a pushed sample
// must have to be accumulated; below this the sample is dropped as
// numerically degenerate, matching the reference implementation's own
// rejection threshold.
const degenerateGradientNorm = 1e-12

// DefaultEigenvalueCutoff is the default rank cutoff for Solve, matching
// the reference implementation's own default.
const DefaultEigenvalueCutoff = 0.1

// Intersection accumulates surface-crossing samples into a 3x3 normal
// system (AtA, AtB, BtB) plus a running mass point, and solves for the
// vertex position that best fits all pushed samples in a least-squares
// sense, biased toward the mass point centroid when the system is
// under-determined (rank-deficient).
type Intersection struct {
	Mode NormalizationMode

	ata      mat.SymDense // 3x3, A^T A
	atb      r3.Vec       // A^T b
	btb      float64      // b^T b
	massSum  r3.Vec
	massN    int
	numTerms int
}

// Reset clears the accumulator to receive a fresh set of samples.
func (q *Intersection) Reset() {
	q.ata = *mat.NewSymDense(3, nil)
	q.atb = r3.Vec{}
	q.btb = 0
	q.massSum = r3.Vec{}
	q.massN = 0
	q.numTerms = 0
}

// Push accumulates one surface-crossing sample: a position on (or near)
// the surface, the field's gradient there, and the field's value there
// (ideally 0, but a small residual is tolerated and folded into the
// system). Samples with a near-zero or non-finite gradient are dropped.
func (q *Intersection) Push(pos, grad r3.Vec, value float64) {
	q.massSum = r3.Add(q.massSum, pos)
	q.massN++

	norm := r3.Norm(grad)
	if !isFinite(norm) || norm <= degenerateGradientNorm {
		return
	}
	deriv := grad
	v := value
	if q.Mode == Normalized {
		deriv = r3.Scale(1/norm, grad)
		v = value / norm
	}
	if !isFiniteVec(deriv) || !isFinite(v) {
		return
	}
	b := r3.Dot(deriv, pos) - v

	if r, _ := q.ata.Dims(); r == 0 {
		// Zero-value Intersection that was never Reset.
		q.ata = *mat.NewSymDense(3, nil)
	}
	q.ata.SetSym(0, 0, q.ata.At(0, 0)+deriv.X*deriv.X)
	q.ata.SetSym(0, 1, q.ata.At(0, 1)+deriv.X*deriv.Y)
	q.ata.SetSym(0, 2, q.ata.At(0, 2)+deriv.X*deriv.Z)
	q.ata.SetSym(1, 1, q.ata.At(1, 1)+deriv.Y*deriv.Y)
	q.ata.SetSym(1, 2, q.ata.At(1, 2)+deriv.Y*deriv.Z)
	q.ata.SetSym(2, 2, q.ata.At(2, 2)+deriv.Z*deriv.Z)

	q.atb = r3.Add(q.atb, r3.Scale(b, deriv))
	q.btb += b * b
	q.numTerms++
}

// NumTerms returns the number of samples that contributed to the linear
// system (excluding degenerate ones dropped by Push).
func (q *Intersection) NumTerms() int { return q.numTerms }

// MassPoint returns the centroid of every position ever pushed,
// including degenerate samples; used as the fallback/bias vertex when
// the QEF system is rank-deficient.
func (q *Intersection) MassPoint() r3.Vec {
	if q.massN == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/float64(q.massN), q.massSum)
}

// rank returns the numerical rank of the accumulated system under the
// given cutoff (DefaultEigenvalueCutoff if cutoff <= 0), along with the
// eigendecomposition used, so Solve can reuse it.
func (q *Intersection) rank(cutoff float64) (rank int, eig mat.EigenSym) {
	if cutoff <= 0 {
		cutoff = DefaultEigenvalueCutoff
	}
	var es mat.EigenSym
	ok := es.Factorize(&q.ata, true)
	if !ok {
		return 0, es
	}
	values := es.Values(nil)
	maxAbs := 0.0
	for _, v := range values {
		if math.Abs(v) > maxAbs {
			maxAbs = math.Abs(v)
		}
	}
	threshold := cutoff
	if q.Mode == Unnormalized {
		threshold = cutoff * maxAbs
	}
	rank = 0
	for _, v := range values {
		if math.Abs(v) > threshold {
			rank++
		}
	}
	return rank, es
}

// Solve returns the vertex position minimizing the accumulated quadratic
// error, clamped into bound (the octree leaf's region), biased toward
// the mass point when the system is rank-deficient. cutoff selects the
// eigenvalue cutoff used to determine rank; pass <= 0 for the default.
func (q *Intersection) Solve(bound d3.Box, cutoff float64) r3.Vec {
	mp := q.MassPoint()
	if q.numTerms == 0 {
		return d3.Clamp(mp, bound.Min, bound.Max)
	}

	_, es := q.rank(cutoff)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	values := es.Values(nil)

	threshold := cutoff
	if threshold <= 0 {
		threshold = DefaultEigenvalueCutoff
	}
	if q.Mode == Unnormalized {
		maxAbs := 0.0
		for _, v := range values {
			if math.Abs(v) > maxAbs {
				maxAbs = math.Abs(v)
			}
		}
		threshold *= maxAbs
	}

	// rhs = AtB - AtA * massPoint, solved in the eigenbasis with small
	// eigenvalues (below threshold) treated as zero, then mapped back.
	rhs := r3.Sub(q.atb, mulSym(&q.ata, mp))
	rot := rhs
	// project rhs into eigenvector space, scale by pseudo-inverse
	// eigenvalues, project back.
	var coeffs [3]float64
	for i := 0; i < 3; i++ {
		col := r3.Vec{X: vecs.At(0, i), Y: vecs.At(1, i), Z: vecs.At(2, i)}
		c := r3.Dot(col, rot)
		if math.Abs(values[i]) > threshold {
			coeffs[i] = c / values[i]
		}
	}
	var delta r3.Vec
	for i := 0; i < 3; i++ {
		col := r3.Vec{X: vecs.At(0, i), Y: vecs.At(1, i), Z: vecs.At(2, i)}
		delta = r3.Add(delta, r3.Scale(coeffs[i], col))
	}

	vertex := r3.Add(mp, delta)
	return d3.Clamp(vertex, bound.Min, bound.Max)
}

// Error returns the accumulated system's residual quadratic error
// evaluated at vertex: the sum of squared per-sample plane residuals,
// sum_i (dot(deriv_i, vertex) - b_i)^2, computed from the accumulated
// normal system (AtA, AtB, BtB) without revisiting individual samples.
// Used to decide whether a candidate collapse vertex fits every pushed
// sample closely enough to replace them.
func (q *Intersection) Error(vertex r3.Vec) float64 {
	if q.numTerms == 0 {
		return 0
	}
	quad := r3.Dot(vertex, mulSym(&q.ata, vertex))
	linear := 2 * r3.Dot(q.atb, vertex)
	return quad - linear + q.btb
}

func mulSym(m *mat.SymDense, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func isFiniteVec(v r3.Vec) bool { return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z) }
