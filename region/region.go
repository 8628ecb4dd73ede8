// Package region defines the bounding-volume type threaded through the
// meshing pipeline: an axis-aligned cuboid tagged with its octree level.
package region

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/internal/d3"
)

// Axis names one of the three coordinate axes, or the absence of one.
type Axis uint8

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

// Region is an axis-aligned cuboid together with the octree level it
// occupies. Level counts down from the root: a region at Level L splits
// into eight children at Level L-1, and a leaf sits at Level 0.
//
// PerpAxis/PerpValue record the fixed coordinate of a region when it was
// produced by collapsing one axis to a constant (used by lower-dimensional
// embeddings of the volume; the Dual Contouring path never sets PerpAxis
// away from AxisNone, but the field is carried so region.Region can also
// describe the 2D sub-regions a simplex-style mesher would walk).
type Region struct {
	Box       d3.Box
	Level     int
	PerpAxis  Axis
	PerpValue float64
}

// New returns the Region covering box at the given octree level.
func New(box d3.Box, level int) Region {
	return Region{Box: box, Level: level}
}

// Cube returns the Region of a cube of the given half-width centered on
// center, at the given octree level.
func Cube(center r3.Vec, halfWidth float64, level int) Region {
	size := r3.Scale(2*halfWidth, r3.Vec{X: 1, Y: 1, Z: 1})
	return Region{Box: d3.CenteredBox(center, size), Level: level}
}

// WithResolution returns box as a Region whose level is set so that a
// leaf's edge length is at most minFeature: level = ceil(log2(maxEdge /
// minFeature)), floored at 0.
func WithResolution(box d3.Box, minFeature float64) Region {
	size := box.Size()
	maxEdge := size.X
	if size.Y > maxEdge {
		maxEdge = size.Y
	}
	if size.Z > maxEdge {
		maxEdge = size.Z
	}
	level := 0
	if minFeature > 0 && maxEdge > minFeature {
		level = int(math.Ceil(math.Log2(maxEdge / minFeature)))
	}
	return New(box, level)
}

// Center returns the region's center point.
func (r Region) Center() r3.Vec { return r.Box.Center() }

// Size returns the region's edge lengths.
func (r Region) Size() r3.Vec { return r.Box.Size() }

// IsLeaf reports whether the region is at the bottom of the octree.
func (r Region) IsLeaf() bool { return r.Level <= 0 }

// octantOffsets lists, for child index 0..7, the sign of the offset from
// the parent center along X, Y, Z respectively. Bit 0 of the index picks
// X, bit 1 picks Y, bit 2 picks Z, matching the corner/child numbering
// used throughout octree and dual.
var octantOffsets = [8]r3.Vec{
	{X: -1, Y: -1, Z: -1},
	{X: +1, Y: -1, Z: -1},
	{X: -1, Y: +1, Z: -1},
	{X: +1, Y: +1, Z: -1},
	{X: -1, Y: -1, Z: +1},
	{X: +1, Y: -1, Z: +1},
	{X: -1, Y: +1, Z: +1},
	{X: +1, Y: +1, Z: +1},
}

// Octant returns the i'th child region (i in [0,8)) obtained by splitting
// r at its center along all three axes.
func (r Region) Octant(i int) Region {
	half := r3.Scale(0.25, r.Box.Size())
	off := r3.Vec{
		X: half.X * octantOffsets[i].X,
		Y: half.Y * octantOffsets[i].Y,
		Z: half.Z * octantOffsets[i].Z,
	}
	center := r3.Add(r.Center(), off)
	return Region{
		Box:       d3.CenteredBox(center, r3.Scale(0.5, r.Box.Size())),
		Level:     r.Level - 1,
		PerpAxis:  r.PerpAxis,
		PerpValue: r.PerpValue,
	}
}

// Corner returns the i'th corner of the region's bounding box, using the
// same bit ordering as Octant (bit0=X, bit1=Y, bit2=Z, 0=min, 1=max).
func (r Region) Corner(i int) r3.Vec {
	v := r.Box.Min
	if i&1 != 0 {
		v.X = r.Box.Max.X
	}
	if i&2 != 0 {
		v.Y = r.Box.Max.Y
	}
	if i&4 != 0 {
		v.Z = r.Box.Max.Z
	}
	return v
}

// Contains reports whether p lies within the region's box.
func (r Region) Contains(p r3.Vec) bool { return r.Box.Contains(p) }

// Diagonal returns the length of the region's bounding box diagonal.
func (r Region) Diagonal() float64 {
	return r3.Norm(r.Box.Size())
}

// WithPerp returns a copy of r with its perpendicular-axis slot set,
// used when a region is produced by fixing one coordinate to a constant.
func (r Region) WithPerp(axis Axis, value float64) Region {
	r.PerpAxis = axis
	r.PerpValue = value
	return r
}
