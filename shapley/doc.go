// Package shapley elects, per cell, which competing annotation to trust.
//
// Each annotation key is a player. A cell's payoff layer is an
// nPlayers×nMetrics matrix of that cell's cluster-stability scores under
// every annotation. Within each metric the players are ranked (average ranks,
// scipy-style tie handling); a player's strength is its total rank across
// metrics; a coalition is worth the strength of its strongest member.
// Value computes the classic Shapley value of a player under that game, and
// WhichToTake picks the winning annotation — largest value, ties resolved
// toward the finer (smaller) cluster, then stable query order.
package shapley
