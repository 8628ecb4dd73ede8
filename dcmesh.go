// Package dcmesh implements a parallel isosurface meshing core: adaptive
// octree construction over an implicit scalar field, QEF-based vertex
// placement, and a dual-grid walk that emits a triangle mesh approximating
// the field's zero level set.
//
// Build is the single entry point; everything else (region, eval, qef,
// octree, dcbuild, dual, meshbuf) is a collaborator package it wires
// together. Callers supply an eval.FieldEvaluator and get back a
// meshbuf.Mesh.
package dcmesh

import (
	"context"
	"errors"
	"fmt"

	"github.com/soypat/dcmesh/dcbuild"
	"github.com/soypat/dcmesh/dual"
	"github.com/soypat/dcmesh/eval"
	"github.com/soypat/dcmesh/internal/d3"
	"github.com/soypat/dcmesh/meshbuf"
	"github.com/soypat/dcmesh/qef"
	"github.com/soypat/dcmesh/region"
)

// Algorithm selects the meshing algorithm Build runs. Only
// AlgorithmDualContouring is implemented; the others are accepted so
// callers written against a forward superset of this API fail with
// ErrUnsupportedAlgorithm rather than a compile error.
type Algorithm uint8

const (
	// AlgorithmDualContouring runs the octree build + dual walk
	// pipeline implemented by this module. It is the default zero value.
	AlgorithmDualContouring Algorithm = iota
	// AlgorithmSimplex is not implemented.
	AlgorithmSimplex
	// AlgorithmHybrid is not implemented.
	AlgorithmHybrid
)

// Settings configures a Build call. The zero value is not valid: Bounds
// and MinFeature must be set by the caller. sanitize validates
// Bounds/MinFeature and fills in Progress; the other zero-valued fields
// get their defaults in the packages that consume them (dcbuild, qef).
type Settings struct {
	// Bounds is the axis-aligned region of interest to mesh.
	Bounds d3.Box
	// MinFeature is the smallest cell edge length the octree builder
	// will subdivide down to.
	MinFeature float64
	// Algorithm selects the meshing algorithm. Only
	// AlgorithmDualContouring is implemented.
	Algorithm Algorithm
	// Workers is the number of worker goroutines used by the octree build
	// phase. <= 0 uses runtime.GOMAXPROCS(0). The dual walk does not read
	// it: it runs one goroutine per top-level octant of a branch root.
	Workers int
	// QEFMode selects qef.Intersection's normalization mode.
	// The zero value, qef.Normalized, is the default.
	QEFMode qef.NormalizationMode
	// QEFCutoff is the eigenvalue rank cutoff passed to qef.Intersection.Solve.
	// <= 0 uses qef.DefaultEigenvalueCutoff.
	QEFCutoff float64
	// MaxErr bounds the combined QEF residual a branch's candidate
	// collapse vertex may have against its children's surface crossings
	// before the octree builder is forced to keep it subdivided.
	// <= 0 uses dcbuild's own default (1e-8).
	MaxErr float64
	// Prefilter, if set, lets a caller-supplied bounding-volume
	// hierarchy short-circuit interval evaluation for regions it can
	// already classify.
	Prefilter eval.VolumePrefilter
	// Progress, if set, receives build/dual-walk progress callbacks.
	Progress eval.ProgressSink
}

// sanitize validates s and returns a copy with Progress set to
// eval.NopProgress when it is nil.
func (s Settings) sanitize() (Settings, error) {
	size := s.Bounds.Size()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return s, fmt.Errorf("%w: bounds must have positive size, got %+v", ErrInvalidSettings, size)
	}
	if s.MinFeature <= 0 {
		return s, fmt.Errorf("%w: MinFeature must be positive, got %g", ErrInvalidSettings, s.MinFeature)
	}
	if s.Progress == nil {
		s.Progress = eval.NopProgress{}
	}
	return s, nil
}

// Build meshes field over the region described by settings, returning
// the resulting triangle mesh. It runs the octree construction phase
// (dcbuild.Build) to completion, then the dual-walk phase
// (dual.ParallelWalk), and merges every worker's output buffer
// (meshbuf.Merge) into a single mesh.
//
// The two phases never overlap: Build waits for the octree to fully
// resolve before starting the dual walk, matching spec.md's "the two
// phases do not overlap" concurrency rule.
func Build(ctx context.Context, field eval.FieldEvaluator, settings Settings) (meshbuf.Mesh, error) {
	settings, err := settings.sanitize()
	if err != nil {
		return meshbuf.Mesh{}, err
	}
	if settings.Algorithm != AlgorithmDualContouring {
		return meshbuf.Mesh{}, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, settings.Algorithm)
	}

	root := region.WithResolution(settings.Bounds, settings.MinFeature)

	settings.Progress.Start(2) // build, then dual walk
	defer settings.Progress.Finish()

	built, err := dcbuild.Build(ctx, field, root, dcbuild.Options{
		Workers:    settings.Workers,
		MinFeature: settings.MinFeature,
		MaxErr:     settings.MaxErr,
		QEFMode:    settings.QEFMode,
		QEFCutoff:  settings.QEFCutoff,
		Prefilter:  settings.Prefilter,
		Progress:   settings.Progress,
	})
	if err != nil {
		return meshbuf.Mesh{}, fmt.Errorf("dcmesh: building octree: %w", mapBuildErr(err))
	}
	// A wholly FILLED or EMPTY region, or a single leaf with no adjacent
	// cell to close a surface against, yields a root with no
	// sign-changing edge, so the dual walk emits nothing. That is a valid
	// outcome, not an error (ParallelWalk also no-ops on a NoIndex root):
	// the caller gets a Mesh with an empty Triangles slice.
	counter := meshbuf.NewCounter()
	buffers := dual.ParallelWalk(field, built.Pool, built.Root, counter, dual.Options{
		Mode:     settings.QEFMode,
		Cutoff:   settings.QEFCutoff,
		Progress: settings.Progress,
	})
	return meshbuf.Merge(counter, buffers), nil
}

func mapBuildErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrCanceled
	}
	return err
}
