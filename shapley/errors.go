// Package shapley: sentinel error set. Check with errors.Is.

package shapley

import "errors"

var (
	// ErrEmptyLayer indicates a payoff layer with no players or no metrics.
	ErrEmptyLayer = errors.New("shapley: empty payoff layer")

	// ErrRaggedLayer indicates players with differing metric counts.
	ErrRaggedLayer = errors.New("shapley: ragged payoff layer")

	// ErrPlayerOutOfRange indicates a player index outside the layer.
	ErrPlayerOutOfRange = errors.New("shapley: player index out of range")

	// ErrTooManyPlayers guards the coalition enumeration: the game is
	// exponential in players, and annotation counts beyond 16 are a misuse.
	ErrTooManyPlayers = errors.New("shapley: too many players")

	// ErrBadQuery indicates query/cluster/value slices of mismatched length.
	ErrBadQuery = errors.New("shapley: query inputs of mismatched length")
)
