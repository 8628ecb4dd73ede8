package dcmesh

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	sdfxrender "github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/internal/d3"
	"github.com/soypat/dcmesh/stl"
)

func sphereSettings() Settings {
	return Settings{
		Bounds:     d3.CenteredBox(r3.Vec{}, r3.Vec{X: 6, Y: 6, Z: 6}),
		MinFeature: 0.3,
		Workers:    2,
	}
}

func TestBuildMeshesASphere(t *testing.T) {
	field := eval.Sphere{R: 2}
	mesh, err := Build(context.Background(), field, sphereSettings())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(mesh.Triangles) == 0 {
		t.Fatal("Build() produced no triangles for a sphere within bounds")
	}
	if mesh.Vertices[0] != (r3.Vec{}) {
		t.Errorf("mesh.Vertices[0] = %+v, want the unused zero sentinel", mesh.Vertices[0])
	}
	for _, tri := range mesh.Triangles {
		for _, vi := range tri {
			if vi == 0 {
				t.Fatal("triangle references vertex index 0, which is reserved as a sentinel")
			}
		}
	}
	for _, v := range mesh.Vertices[1:] {
		r := r3.Norm(v)
		if r < 1.0 || r > 3.0 {
			t.Errorf("vertex %+v has radius %g, want close to 2", v, r)
		}
	}
}

func TestBuildMeshWritesValidSTL(t *testing.T) {
	field := eval.Sphere{R: 2}
	mesh, err := Build(context.Background(), field, sphereSettings())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var buf bytes.Buffer
	if err := stl.Write(&buf, mesh); err != nil {
		t.Fatalf("stl.Write() error = %v", err)
	}

	got, err := stl.Read(&buf)
	if err != nil {
		t.Fatalf("stl.Read() error = %v", err)
	}
	if len(got.Triangles) != len(mesh.Triangles) {
		t.Fatalf("round-tripped %d triangles, want %d", len(got.Triangles), len(mesh.Triangles))
	}
	for _, v := range got.Vertices {
		r := r3.Norm(v)
		if r < 1.0 || r > 3.0 {
			t.Errorf("round-tripped vertex %+v has radius %g, want close to 2", v, r)
		}
	}
}

type spyProgress struct {
	starts   int
	phases   []uint64
	ticks    uint64
	finishes int
}

func (s *spyProgress) Start(phases int)       { s.starts++ }
func (s *spyProgress) NextPhase(total uint64) { s.phases = append(s.phases, total) }
func (s *spyProgress) Tick(delta uint64)      { s.ticks += delta }
func (s *spyProgress) Finish()                { s.finishes++ }

func TestBuildDrivesProgressSinkThroughBothPhases(t *testing.T) {
	settings := sphereSettings()
	spy := &spyProgress{}
	settings.Progress = spy

	field := eval.Sphere{R: 2}
	_, err := Build(context.Background(), field, settings)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if spy.starts != 1 {
		t.Errorf("Start called %d times, want 1", spy.starts)
	}
	if len(spy.phases) != 2 {
		t.Errorf("NextPhase called %d times, want 2 (build, dual walk)", len(spy.phases))
	}
	if spy.ticks == 0 {
		t.Error("Tick was never called, want at least one tick per phase")
	}
	if spy.finishes != 1 {
		t.Errorf("Finish called %d times, want 1", spy.finishes)
	}
}

// TestBuildAgreesWithSDFXGoldenReferenceSphere renders the same sphere
// through sdfx's own marching-cubes octree mesher and checks the two
// independent implementations agree on the sphere's extent. Triangle
// counts and exact vertex placement differ between the two algorithms,
// so this only checks gross agreement, not a byte-for-byte golden file.
func TestBuildAgreesWithSDFXGoldenReferenceSphere(t *testing.T) {
	const radius = 2.0
	object, err := sdf.Sphere3D(radius)
	if err != nil {
		t.Fatalf("sdf.Sphere3D() error = %v", err)
	}

	goldenPath := filepath.Join(t.TempDir(), "golden.stl")
	sdfxrender.ToSTL(object, 40, goldenPath, &sdfxrender.MarchingCubesOctree{})
	golden, err := stl.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("stl.ReadFile(golden) error = %v", err)
	}
	if len(golden.Triangles) == 0 {
		t.Fatal("sdfx produced an empty golden mesh")
	}

	mesh, err := Build(context.Background(), eval.Sphere{R: radius}, sphereSettings())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	maxGolden := maxVertexRadius(golden.Vertices)
	maxOurs := maxVertexRadius(mesh.Vertices[1:])
	if math.Abs(maxGolden-maxOurs) > 0.5 {
		t.Errorf("our max vertex radius %g disagrees with sdfx golden reference %g by more than 0.5", maxOurs, maxGolden)
	}
}

func maxVertexRadius(vs []r3.Vec) float64 {
	var max float64
	for _, v := range vs {
		if r := r3.Norm(v); r > max {
			max = r
		}
	}
	return max
}

func TestBuildRejectsInvalidBounds(t *testing.T) {
	settings := sphereSettings()
	settings.Bounds = d3.Box{} // zero-size bounds
	_, err := Build(context.Background(), eval.Sphere{R: 1}, settings)
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("err = %v, want ErrInvalidSettings", err)
	}
}

func TestBuildRejectsNonPositiveMinFeature(t *testing.T) {
	settings := sphereSettings()
	settings.MinFeature = 0
	_, err := Build(context.Background(), eval.Sphere{R: 1}, settings)
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("err = %v, want ErrInvalidSettings", err)
	}
}

func TestBuildRejectsUnsupportedAlgorithm(t *testing.T) {
	settings := sphereSettings()
	settings.Algorithm = AlgorithmSimplex
	_, err := Build(context.Background(), eval.Sphere{R: 1}, settings)
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("err = %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestBuildReturnsEmptyMeshWhenSurfaceMissesBounds(t *testing.T) {
	settings := sphereSettings()
	field := eval.Sphere{R: 1, Center: r3.Vec{X: 100, Y: 100, Z: 100}}
	mesh, err := Build(context.Background(), field, settings)
	if err != nil {
		t.Fatalf("Build() error = %v, want nil (an empty region is a valid result, not an error)", err)
	}
	if len(mesh.Triangles) != 0 {
		t.Fatalf("mesh.Triangles has %d entries, want 0", len(mesh.Triangles))
	}
}

func TestBuildMapsCanceledContext(t *testing.T) {
	settings := sphereSettings()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, eval.Sphere{R: 2}, settings)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}
}
