package dcmesh

import "errors"

// Sentinel errors returned by Build and the packages it orchestrates.
// Callers should compare against these with errors.Is, since they are
// frequently wrapped with additional context on the way up.
var (
	// ErrCanceled is returned when the context passed to Build is
	// canceled before meshing completes.
	ErrCanceled = errors.New("dcmesh: build canceled")

	// ErrUnsupportedAlgorithm is returned when Settings.Algorithm names
	// a meshing algorithm this module does not implement. Only
	// AlgorithmDualContouring is currently supported.
	ErrUnsupportedAlgorithm = errors.New("dcmesh: unsupported algorithm")

	// ErrInvalidSettings is returned by Settings.sanitize when the
	// caller-provided settings cannot be made valid (e.g. a region with
	// zero or negative size).
	ErrInvalidSettings = errors.New("dcmesh: invalid settings")
)
