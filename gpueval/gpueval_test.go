package gpueval

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/glgl/math/ms3"
)

// sphereSDF3 is a minimal SDF3 stub used to exercise Adapter without any
// OpenGL dependency.
type sphereSDF3 struct {
	r    float32
	bb   ms3.Box
	fail bool
}

func (s sphereSDF3) Bounds() ms3.Box { return s.bb }

func (s sphereSDF3) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if s.fail {
		return errFake
	}
	for i, p := range pos {
		dist[i] = ms3len(p) - s.r
	}
	return nil
}

func ms3len(v ms3.Vec) float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

type fakeErr struct{}

func (fakeErr) Error() string { return "fake evaluate failure" }

var errFake error = fakeErr{}

func TestAdapterEvalValuesMatchesSphere(t *testing.T) {
	a := Adapter{SDF: sphereSDF3{r: 2, bb: ms3.Box{Max: ms3.Vec{X: 5, Y: 5, Z: 5}}}}
	pos := []r3.Vec{{X: 0}, {X: 2}, {X: 4}}
	out := make([]float64, len(pos))
	a.EvalValues(pos, out)
	want := []float64{-2, 0, 2}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-4 {
			t.Errorf("EvalValues[%d] = %g, want %g", i, out[i], want[i])
		}
	}
}

func TestAdapterEvalValuesOnErrorReturnsZero(t *testing.T) {
	a := Adapter{SDF: sphereSDF3{r: 2, fail: true}}
	pos := []r3.Vec{{X: 1}, {X: 2}}
	out := []float64{9, 9}
	a.EvalValues(pos, out)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %g, want 0 on evaluator error", i, v)
		}
	}
}

func TestAdapterEvalGradientPointsOutward(t *testing.T) {
	a := Adapter{SDF: sphereSDF3{r: 2, bb: ms3.Box{Max: ms3.Vec{X: 5, Y: 5, Z: 5}}}}
	pos := []r3.Vec{{X: 3}}
	out := make([]r3.Vec, 1)
	a.EvalGradients(pos, out)
	if out[0].X <= 0 {
		t.Errorf("gradient at (3,0,0) = %+v, want positive X component", out[0])
	}
}

func TestAdapterBoundsConvertsMs3Box(t *testing.T) {
	a := Adapter{SDF: sphereSDF3{bb: ms3.Box{Min: ms3.Vec{X: -1, Y: -2, Z: -3}, Max: ms3.Vec{X: 1, Y: 2, Z: 3}}}}
	b := a.Bounds()
	if b.Min.X != -1 || b.Min.Y != -2 || b.Min.Z != -3 {
		t.Errorf("Bounds().Min = %+v, want (-1,-2,-3)", b.Min)
	}
	if b.Max.X != 1 || b.Max.Y != 2 || b.Max.Z != 3 {
		t.Errorf("Bounds().Max = %+v, want (1,2,3)", b.Max)
	}
}

func TestAdapterCloneForThreadReturnsSelf(t *testing.T) {
	a := Adapter{SDF: sphereSDF3{r: 1}}
	if a.CloneForThread() != a {
		t.Error("Adapter.CloneForThread should return an equal copy")
	}
}
