// Package triangulate: sentinel error set. Check with errors.Is.

package triangulate

import "errors"

var (
	// ErrNoQuery indicates a pipeline built with no annotation keys.
	ErrNoQuery = errors.New("triangulate: no query annotations")

	// ErrNotComputed indicates a stage ran before the one it depends on
	// (shapley before metrics, pruning before shapley, and so on).
	ErrNotComputed = errors.New("triangulate: required stage not computed yet")

	// ErrUnknownMethod indicates a pruning method this package does not know.
	ErrUnknownMethod = errors.New("triangulate: unknown pruning method")

	// ErrNoGoodness indicates win-fraction invalidation before rank pruning.
	ErrNoGoodness = errors.New("triangulate: goodness table not computed yet")

	// ErrBadSnapshot indicates a snapshot file this version cannot restore.
	ErrBadSnapshot = errors.New("triangulate: unreadable snapshot")

	// ErrUnknownStage indicates a salvage request naming no known stage.
	ErrUnknownStage = errors.New("triangulate: unknown pipeline stage")
)
