// Package stl encodes and decodes binary STL files from a meshbuf.Mesh,
// adapted from the teacher's own STL support to work off an indexed mesh
// instead of a pull-based triangle stream.
package stl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/meshbuf"
)

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8
	Count uint32
}

const triangleSize = 50

// Write encodes mesh as a binary STL file.
func Write(w io.Writer, mesh meshbuf.Mesh) error {
	if len(mesh.Triangles) == 0 {
		return errors.New("empty triangle slice")
	}
	header := stlHeader{Count: uint32(len(mesh.Triangles))}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	var d stlTriangle
	for _, tri := range mesh.Triangles {
		v0, v1, v2 := mesh.Vertices[tri[0]], mesh.Vertices[tri[1]], mesh.Vertices[tri[2]]
		n := triangleNormal(v0, v1, v2)
		setVec(&d.Normal, n)
		setVec(&d.Vertex1, v0)
		setVec(&d.Vertex2, v1)
		setVec(&d.Vertex3, v2)
		var b [triangleSize]byte
		d.put(b[:])
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile encodes mesh to path as a binary STL file.
func WriteFile(path string, mesh meshbuf.Mesh) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return Write(file, mesh)
}

func triangleNormal(v0, v1, v2 r3.Vec) r3.Vec {
	return r3.Unit(r3.Cross(r3.Sub(v1, v0), r3.Sub(v2, v0)))
}

func setVec(dst *[3]float32, v r3.Vec) {
	dst[0] = float32(v.X)
	dst[1] = float32(v.Y)
	dst[2] = float32(v.Z)
}

// Read decodes a binary STL file into a meshbuf.Mesh. Since STL has no
// concept of shared vertices, every triangle's three vertices are kept
// distinct (no welding). The result has no index-0 sentinel vertex:
// Vertices[0] is the first triangle's first vertex.
func Read(r io.Reader) (meshbuf.Mesh, error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return meshbuf.Mesh{}, errors.New("encountered EOF while reading STL header")
		}
		return meshbuf.Mesh{}, fmt.Errorf("STL header read failed: %w", err)
	}
	if header.Count == 0 {
		return meshbuf.Mesh{}, errors.New("STL header indicates 0 triangles present")
	}

	mesh := meshbuf.Mesh{
		Vertices:  make([]r3.Vec, 0, header.Count*3),
		Triangles: make([][3]uint32, 0, header.Count),
	}
	var d stlTriangle
	var buf [triangleSize]byte
	for i := 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return meshbuf.Mesh{}, fmt.Errorf("%d/%d STL triangles read: %w", i, header.Count, err)
		}
		d.get(buf[:])
		if err := d.validate(); err != nil {
			return meshbuf.Mesh{}, err
		}
		base := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices, vecFrom(d.Vertex1), vecFrom(d.Vertex2), vecFrom(d.Vertex3))
		mesh.Triangles = append(mesh.Triangles, [3]uint32{base, base + 1, base + 2})
	}
	return mesh, nil
}

// ReadFile decodes the binary STL file at path.
func ReadFile(path string) (meshbuf.Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return meshbuf.Mesh{}, err
	}
	defer file.Close()
	return Read(file)
}

type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16
}

func (t *stlTriangle) put(b []byte) {
	if len(b) < triangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < triangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11]
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11]
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func vecFrom(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func (t stlTriangle) degenerate(tol float32) bool {
	return equalWithin(t.Vertex1, t.Vertex2, tol) ||
		equalWithin(t.Vertex2, t.Vertex3, tol) ||
		equalWithin(t.Vertex3, t.Vertex1, tol)
}

func equalWithin(a, b [3]float32, tol float32) bool {
	return math32.Abs(a[0]-b[0]) <= tol && math32.Abs(a[1]-b[1]) <= tol && math32.Abs(a[2]-b[2]) <= tol
}

func bad3F32(f [3]float32) bool {
	for _, v := range f {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func (t stlTriangle) validate() error {
	const epsilon = 1e-12
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	if t.degenerate(epsilon) {
		return errors.New("triangle is degenerate")
	}
	return nil
}
