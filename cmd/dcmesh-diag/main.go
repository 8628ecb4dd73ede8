// Command dcmesh-diag builds the octree for a reference field (without
// running the dual walk) and plots histograms of octree leaf level and
// QEF vertex displacement, to help tune MinFeature and QEF cutoff
// values.
package main

import (
	"context"
	"flag"
	"log"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/soypat/dcmesh/dcbuild"
	"github.com/soypat/dcmesh/dual"
	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/internal/d3"
	"github.com/soypat/dcmesh/octree"
	"github.com/soypat/dcmesh/qef"
	"github.com/soypat/dcmesh/region"
)

func main() {
	var (
		radius     = flag.Float64("r", 10, "sphere radius")
		minFeature = flag.Float64("min-feature", 0.25, "smallest octree cell edge length")
		out        = flag.String("o", "diag.png", "output plot path")
	)
	flag.Parse()

	field := eval.Sphere{R: *radius}
	bounds := d3.CenteredBox(r3.Vec{}, r3.Scale(2.2*(*radius), r3.Vec{X: 1, Y: 1, Z: 1}))
	root := region.WithResolution(bounds, *minFeature)

	result, err := dcbuild.Build(context.Background(), field, root, dcbuild.Options{MinFeature: *minFeature})
	if err != nil {
		log.Fatalf("dcmesh-diag: build failed: %v", err)
	}

	levels, displacements := collectStats(field, result.Pool, result.Root)
	log.Printf("dcmesh-diag: %d leaves", len(levels))

	if err := plotHistogram(*out, "octree leaf level", levels); err != nil {
		log.Fatalf("dcmesh-diag: plotting levels: %v", err)
	}
	log.Printf("dcmesh-diag: wrote %s", *out)

	const dispOut = "diag_displacement.png"
	if err := plotHistogram(dispOut, "QEF vertex displacement from region center", displacements); err != nil {
		log.Fatalf("dcmesh-diag: plotting displacements: %v", err)
	}
	log.Printf("dcmesh-diag: wrote %s", dispOut)
}

// collectStats walks every leaf of the built octree, recording its level
// and the distance from its QEF-solved vertex to its region's center (a
// proxy for how far the vertex solver had to pull the vertex off the
// mass-point centroid).
func collectStats(field eval.FieldEvaluator, pool *octree.Pool, root int32) (levels []float64, displacements []float64) {
	if root == octree.NoIndex {
		return nil, nil
	}
	var walk func(idx int32)
	walk = func(idx int32) {
		n := pool.Get(idx)
		if !n.IsLeaf() {
			for _, c := range n.Children {
				walk(c)
			}
			return
		}
		levels = append(levels, float64(n.Region.Level))
		v := dual.SolveLeafVertex(field, n, qef.Normalized, qef.DefaultEigenvalueCutoff)
		displacements = append(displacements, r3.Norm(r3.Sub(v, n.Region.Center())))
	}
	walk(root)
	return levels, displacements
}

func plotHistogram(path, title string, values []float64) error {
	p := plot.New()
	p.Title.Text = title

	hist, err := plotter.NewHist(plotter.Values(values), 10)
	if err != nil {
		return err
	}
	p.Add(hist)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
