// Package snapshot rasterizes a meshed STL file to a PNG for visual
// regression testing, adapted from the teacher's own example-gallery
// renderer (examples/generate_examples.go's stlToPNG).
package snapshot

import (
	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"
)

// View describes the camera used to render a snapshot.
type View struct {
	LookAt r3.Vec
	Up     r3.Vec
	Eye    r3.Vec
	Near   float64
	Far    float64
}

// DefaultView is an isometric view suitable for most test meshes.
var DefaultView = View{
	Up:   r3.Vec{Z: 1},
	Eye:  r3.Vec{X: 2.4, Y: 2.4, Z: 2.4},
	Near: 1,
	Far:  10,
}

// STLToPNG loads the binary STL at stlPath, renders it with view into a
// width x height image, and writes the result to pngPath.
func STLToPNG(stlPath, pngPath string, width, height int, view View) error {
	mesh, err := fauxgl.LoadSTL(stlPath)
	if err != nil {
		return err
	}
	const fovy = 30.0

	eye := fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)
	center := fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z)
	up := fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)
	light := fauxgl.V(-0.75, 1, 0.25).Normalize()
	color := fauxgl.HexColor("#468966")

	mesh.BiUnitCube()
	context := fauxgl.NewContext(width, height)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)

	img := resize.Resize(uint(width), uint(height), context.Image(), resize.Bilinear)
	return fauxgl.SavePNG(pngPath, img)
}
