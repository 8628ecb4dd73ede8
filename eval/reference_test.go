package eval

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestIntervalClassify(t *testing.T) {
	cases := []struct {
		iv   Interval
		want Classification
	}{
		{Interval{Lo: 1, Hi: 2}, Empty},
		{Interval{Lo: -2, Hi: -1}, Filled},
		{Interval{Lo: -1, Hi: 1}, Ambiguous},
		{Interval{Lo: 0, Hi: 0}, Ambiguous},
	}
	for _, c := range cases {
		if got := c.iv.Classify(); got != c.want {
			t.Errorf("%+v.Classify() = %v, want %v", c.iv, got, c.want)
		}
	}
}

func TestSphereValues(t *testing.T) {
	s := Sphere{R: 2}
	pos := []r3.Vec{{X: 0}, {X: 2}, {X: 4}}
	out := make([]float64, len(pos))
	s.EvalValues(pos, out)
	want := []float64{-2, 0, 2}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("EvalValues[%d] = %g, want %g", i, out[i], want[i])
		}
	}
}

func TestSphereGradientUnitLength(t *testing.T) {
	s := Sphere{R: 1}
	pos := []r3.Vec{{X: 3, Y: 4}, {X: 0, Y: 0, Z: 1}}
	out := make([]r3.Vec, len(pos))
	s.EvalGradients(pos, out)
	for i, g := range out {
		if n := r3.Norm(g); math.Abs(n-1) > 1e-9 {
			t.Errorf("gradient[%d] norm = %g, want 1", i, n)
		}
	}
}

func TestSphereIntervalClassifiesFarRegion(t *testing.T) {
	s := Sphere{R: 1}
	iv := s.EvalInterval(r3.Vec{X: 10, Y: 10, Z: 10}, r3.Vec{X: 11, Y: 11, Z: 11})
	if iv.Classify() != Empty {
		t.Fatalf("region far outside sphere classified %v, want Empty", iv.Classify())
	}
	iv = s.EvalInterval(r3.Vec{X: -0.1, Y: -0.1, Z: -0.1}, r3.Vec{X: 0.1, Y: 0.1, Z: 0.1})
	if iv.Classify() != Filled {
		t.Fatalf("region inside sphere classified %v, want Filled", iv.Classify())
	}
}

func TestBoxValuesInsideOutside(t *testing.T) {
	b := Box{Half: r3.Vec{X: 1, Y: 1, Z: 1}}
	if v := b.value(r3.Vec{}); v >= 0 {
		t.Errorf("center value = %g, want negative", v)
	}
	if v := b.value(r3.Vec{X: 5}); v <= 0 {
		t.Errorf("far value = %g, want positive", v)
	}
	if v := b.value(r3.Vec{X: 1}); math.Abs(v) > 1e-9 {
		t.Errorf("face value = %g, want 0", v)
	}
}

func TestUnionSmoothMinReducesToSharp(t *testing.T) {
	u := Union{A: Sphere{R: 1}, B: Sphere{Center: r3.Vec{X: 3}, R: 1}, K: 0}
	out := make([]float64, 1)
	u.EvalValues([]r3.Vec{{X: 1.5}}, out)
	wantA := Sphere{R: 1}.value(r3.Vec{X: 1.5})
	wantB := Sphere{Center: r3.Vec{X: 3}, R: 1}.value(r3.Vec{X: 1.5})
	want := math.Min(wantA, wantB)
	if math.Abs(out[0]-want) > 1e-9 {
		t.Errorf("sharp union value = %g, want %g", out[0], want)
	}
}

func TestUnionSmoothMinNeverExceedsSharp(t *testing.T) {
	u := Union{A: Sphere{R: 1}, B: Sphere{Center: r3.Vec{X: 1.5}, R: 1}, K: 0.5}
	pos := []r3.Vec{{X: 0.75}}
	out := make([]float64, 1)
	u.EvalValues(pos, out)
	sharp := math.Min(Sphere{R: 1}.value(pos[0]), Sphere{Center: r3.Vec{X: 1.5}, R: 1}.value(pos[0]))
	if out[0] > sharp+1e-9 {
		t.Errorf("smooth-min value %g exceeds sharp min %g", out[0], sharp)
	}
}

func TestCloneForThreadIdentityForStatelessEvaluators(t *testing.T) {
	s := Sphere{R: 1}
	if s.CloneForThread() != s {
		t.Error("Sphere.CloneForThread should return an equal copy")
	}
}
