package stl

import (
	"bytes"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/meshbuf"
)

func triangleMesh() meshbuf.Mesh {
	return meshbuf.Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
		},
		Triangles: [][3]uint32{{0, 1, 2}},
	}
}

func TestWriteRejectsEmptyMesh(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, meshbuf.Mesh{}); err == nil {
		t.Error("Write() should reject a mesh with no triangles")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	mesh := triangleMesh()
	var buf bytes.Buffer
	if err := Write(&buf, mesh); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got.Triangles) != 1 {
		t.Fatalf("len(got.Triangles) = %d, want 1", len(got.Triangles))
	}
	if len(got.Vertices) != 3 {
		t.Fatalf("len(got.Vertices) = %d, want 3 (STL keeps no shared vertices)", len(got.Vertices))
	}
	for i, v := range got.Vertices {
		want := mesh.Vertices[mesh.Triangles[0][i]]
		if v != want {
			t.Errorf("vertex %d = %+v, want %+v", i, v, want)
		}
	}
}

func TestWriteComputesOutwardNormal(t *testing.T) {
	mesh := triangleMesh()
	var buf bytes.Buffer
	if err := Write(&buf, mesh); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data := buf.Bytes()
	var d stlTriangle
	d.get(data[84:])
	want := triangleNormal(mesh.Vertices[0], mesh.Vertices[1], mesh.Vertices[2])
	got := vecFrom(d.Normal)
	if r3.Norm(r3.Sub(got, want)) > 1e-6 {
		t.Errorf("stored normal = %+v, want %+v", got, want)
	}
}

func TestReadRejectsTruncatedHeader(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{1, 2, 3}))
	if err == nil {
		t.Error("Read() should fail on a truncated header")
	}
}

func TestReadRejectsZeroTriangleCount(t *testing.T) {
	header := make([]byte, 84)
	_, err := Read(bytes.NewReader(header))
	if err == nil {
		t.Error("Read() should reject a header claiming 0 triangles")
	}
}

func TestReadRejectsDegenerateTriangle(t *testing.T) {
	mesh := meshbuf.Mesh{
		Vertices:  []r3.Vec{{}, {}, {X: 1}}, // first two vertices coincide
		Triangles: [][3]uint32{{0, 1, 2}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, mesh); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := Read(&buf); err == nil {
		t.Error("Read() should reject a triangle with two coincident vertices")
	}
}

func TestBad3F32DetectsNaNAndInf(t *testing.T) {
	if !bad3F32([3]float32{float32(math.NaN())}) {
		t.Error("bad3F32 should flag NaN")
	}
	if !bad3F32([3]float32{float32(math.Inf(1))}) {
		t.Error("bad3F32 should flag +Inf")
	}
	if bad3F32([3]float32{1, 2, 3}) {
		t.Error("bad3F32 should not flag finite values")
	}
}
