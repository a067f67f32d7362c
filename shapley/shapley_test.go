package shapley_test

import (
	"testing"

	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/shapley"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRankdata_Average verifies 1-based average ranks with ties.
func TestRankdata_Average(t *testing.T) {
	assert.Equal(t, []float64{2, 1, 3}, shapley.Rankdata([]float64{5, 1, 9}))
	// Ties share the mean of the ranks they occupy: 1 appears at ranks 1,2.
	assert.Equal(t, []float64{1.5, 1.5, 3}, shapley.Rankdata([]float64{1, 1, 2}))
	assert.Equal(t, []float64{2, 2, 2}, shapley.Rankdata([]float64{7, 7, 7}))
	assert.Nil(t, shapley.Rankdata(nil))
}

// TestStrengths sums per-metric ranks into player strengths.
func TestStrengths(t *testing.T) {
	layer := [][]float64{
		{0.9, 0.8}, // best on both metrics → rank 2 + rank 2
		{0.1, 0.2},
	}
	s, err := shapley.Strengths(layer)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 2}, s)

	_, err = shapley.Strengths([][]float64{})
	assert.ErrorIs(t, err, shapley.ErrEmptyLayer)
	_, err = shapley.Strengths([][]float64{{1, 2}, {1}})
	assert.ErrorIs(t, err, shapley.ErrRaggedLayer)
}

// TestValue_TwoPlayers checks the closed form for two players.
//
// Strengths are (4, 2). Player 0: marginal 4 over ∅ (weight 1/2) and
// 4-2=2 over {1} (weight 1/2) → 3. Player 1: 2 over ∅ (1/2), 0 over {0} → 1.
func TestValue_TwoPlayers(t *testing.T) {
	layer := [][]float64{
		{0.9, 0.8},
		{0.1, 0.2},
	}
	v0, err := shapley.Value(0, layer)
	require.NoError(t, err)
	v1, err := shapley.Value(1, layer)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v0, 1e-12)
	assert.InDelta(t, 1.0, v1, 1e-12)

	all, err := shapley.Values(layer)
	require.NoError(t, err)
	assert.InDelta(t, v0, all[0], 1e-12)
	assert.InDelta(t, v1, all[1], 1e-12)
}

// TestValue_SymmetryAndDominance: equal players split evenly; a dominant
// player takes strictly more.
func TestValue_SymmetryAndDominance(t *testing.T) {
	equal := [][]float64{
		{0.5, 0.5},
		{0.5, 0.5},
		{0.5, 0.5},
	}
	vals, err := shapley.Values(equal)
	require.NoError(t, err)
	assert.InDelta(t, vals[0], vals[1], 1e-12)
	assert.InDelta(t, vals[1], vals[2], 1e-12)

	dominant := [][]float64{
		{0.9, 0.9},
		{0.5, 0.5},
		{0.1, 0.1},
	}
	vals, err = shapley.Values(dominant)
	require.NoError(t, err)
	assert.Greater(t, vals[0], vals[1])
	assert.Greater(t, vals[1], vals[2])

	_, err = shapley.Value(3, dominant)
	assert.ErrorIs(t, err, shapley.ErrPlayerOutOfRange)
}

// TestWhichToTake covers argmax, the smaller-cluster tie-break, and the
// stable order fallback.
func TestWhichToTake(t *testing.T) {
	sizes := expr.SizeMap{
		"leiden1": {"A": 100},
		"leiden2": {"a1": 20},
		"gs":      {"T": 500},
	}
	query := []string{"leiden1", "leiden2", "gs"}
	row := []string{"A", "a1", "T"}

	key, err := shapley.WhichToTake([]float64{1, 2, 0.5}, query, row, sizes)
	require.NoError(t, err)
	assert.Equal(t, "leiden2", key, "largest value wins")

	key, err = shapley.WhichToTake([]float64{2, 2, 0.5}, query, row, sizes)
	require.NoError(t, err)
	assert.Equal(t, "leiden2", key, "tie prefers the smaller cluster")

	same := expr.SizeMap{"leiden1": {"A": 10}, "leiden2": {"a1": 10}, "gs": {"T": 10}}
	key, err = shapley.WhichToTake([]float64{2, 2, 2}, query, row, same)
	require.NoError(t, err)
	assert.Equal(t, "leiden1", key, "full tie keeps query order")

	_, err = shapley.WhichToTake([]float64{1}, query, row, sizes)
	assert.ErrorIs(t, err, shapley.ErrBadQuery)
}
