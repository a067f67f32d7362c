// Package prune: sentinel error set. Check with errors.Is.

package prune

import "errors"

var (
	// ErrNoRawColumn indicates obs lacks the "raw" consensus column the
	// pruning strategies operate on.
	ErrNoRawColumn = errors.New("prune: obs has no raw column")

	// ErrAllInvalid indicates every cluster was invalidated: there is no
	// valid centroid left to reassign cells to.
	ErrAllInvalid = errors.New("prune: all clusters invalid")

	// ErrEmptyCluster indicates an inclusiveness query against a cluster
	// with no cells.
	ErrEmptyCluster = errors.New("prune: empty cluster")

	// ErrNoMetrics indicates a rank pruning with every metric discarded.
	ErrNoMetrics = errors.New("prune: no metrics left to rank")

	// ErrBadLabel indicates a consensus label that is not "key@cluster".
	ErrBadLabel = errors.New("prune: malformed consensus label")
)
