package octree

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/region"
)

// ClassifyRegion asks a VolumePrefilter first, when one is supplied, and
// returns its answer if it can classify r without touching the field
// evaluator; otherwise it runs interval evaluation over r's bounding box.
func ClassifyRegion(f eval.FieldEvaluator, prefilter eval.VolumePrefilter, r region.Region) eval.Classification {
	if prefilter != nil {
		if c, ok := prefilter.Check(r.Box.Min, r.Box.Max); ok {
			return c
		}
	}
	iv := f.EvalInterval(r.Box.Min, r.Box.Max)
	class := iv.Classify()
	if prefilter != nil && class != eval.Ambiguous {
		prefilter.Push(r.Box.Min, r.Box.Max)
	}
	return class
}

// CornerSigns samples the field at the 8 corners of r and returns which
// ones lie inside the surface (value <= 0), along with the raw values.
func CornerSigns(f eval.FieldEvaluator, r region.Region) (signs [8]bool, values [8]float64) {
	pos := make([]r3.Vec, 8)
	for i := range pos {
		pos[i] = r.Corner(i)
	}
	out := make([]float64, 8)
	f.EvalValues(pos, out)
	for i := 0; i < 8; i++ {
		values[i] = out[i]
		signs[i] = out[i] <= 0
	}
	return signs, values
}

// SampleAuxSigns samples the field at the midpoint of each of r's 12
// edges, the center of each of its 6 faces, and its own center, in a
// single batched EvalValues call. The results feed LeafsAreManifold's
// edge, face, and cube-center tests. faceSigns is ordered by faceIdx =
// axis*2+bit (axis in {0=X,1=Y,2=Z}, bit 0=min face, 1=max face).
func SampleAuxSigns(f eval.FieldEvaluator, r region.Region) (midSigns [12]bool, faceSigns [6]bool, centerSign bool) {
	pos := make([]r3.Vec, 0, 12+6+1)
	for _, e := range CubeEdges {
		pos = append(pos, r3.Scale(0.5, r3.Add(r.Corner(e[0]), r.Corner(e[1]))))
	}
	for axis := 0; axis < 3; axis++ {
		for bit := 0; bit < 2; bit++ {
			corners := faceCorners(axis, bit)
			var sum r3.Vec
			for _, c := range corners {
				sum = r3.Add(sum, r.Corner(c))
			}
			pos = append(pos, r3.Scale(0.25, sum))
		}
	}
	pos = append(pos, r.Center())

	out := make([]float64, len(pos))
	f.EvalValues(pos, out)

	for i := range midSigns {
		midSigns[i] = out[i] <= 0
	}
	for i := range faceSigns {
		faceSigns[i] = out[12+i] <= 0
	}
	centerSign = out[18] <= 0
	return midSigns, faceSigns, centerSign
}
