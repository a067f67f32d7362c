// Package metrics: sentinel error set. Check with errors.Is.

package metrics

import "errors"

var (
	// ErrNoClusters indicates an annotation with no usable clusters
	// (all were singletons, or the column is empty).
	ErrNoClusters = errors.New("metrics: no usable clusters")

	// ErrNoMarkers indicates that marker pooling produced no genes present
	// in the matrix.
	ErrNoMarkers = errors.New("metrics: no marker genes available")

	// ErrBadCutoff indicates a non-positive tf-idf depth.
	ErrBadCutoff = errors.New("metrics: cutoff must be > 0")

	// ErrBadOptions indicates malformed Options (non-positive counts).
	ErrBadOptions = errors.New("metrics: invalid options")
)
