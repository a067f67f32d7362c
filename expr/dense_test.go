package expr_test

import (
	"math"
	"testing"

	"github.com/sctriangulate/sctri/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDense_BadShape verifies that non-positive dimensions error.
func TestNewDense_BadShape(t *testing.T) {
	_, err := expr.NewDense(0, 3)
	assert.ErrorIs(t, err, expr.ErrBadShape, "zero rows must error")

	_, err = expr.NewDense(3, -1)
	assert.ErrorIs(t, err, expr.ErrBadShape, "negative cols must error")
}

// TestNewDenseData_Validation covers length mismatch and NaN rejection.
func TestNewDenseData_Validation(t *testing.T) {
	_, err := expr.NewDenseData(2, 2, []float64{1, 2, 3})
	assert.ErrorIs(t, err, expr.ErrDimensionMismatch, "short data must error")

	_, err = expr.NewDenseData(1, 2, []float64{1, math.NaN()})
	assert.ErrorIs(t, err, expr.ErrNaNInf, "NaN must be rejected at ingestion")

	_, err = expr.NewDenseData(1, 2, []float64{1, math.Inf(1)})
	assert.ErrorIs(t, err, expr.ErrNaNInf, "+Inf must be rejected at ingestion")
}

// TestDense_AtSet checks round-trips and bounds errors.
func TestDense_AtSet(t *testing.T) {
	m, err := expr.NewDense(2, 3)
	require.NoError(t, err)

	require.NoError(t, m.Set(1, 2, 7.5))
	v, err := m.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)

	_, err = m.At(2, 0)
	assert.ErrorIs(t, err, expr.ErrOutOfRange, "row past end must error")
	err = m.Set(0, 3, 1)
	assert.ErrorIs(t, err, expr.ErrOutOfRange, "col past end must error")
	err = m.Set(0, 0, math.NaN())
	assert.ErrorIs(t, err, expr.ErrNaNInf, "Set must reject NaN")
}

// TestDense_SubsetRows verifies order preservation and duplicates.
func TestDense_SubsetRows(t *testing.T) {
	m, err := expr.NewDenseData(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})
	require.NoError(t, err)

	sub, err := m.SubsetRows([]int{2, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Rows())
	assert.Equal(t, 2, sub.Cols())

	row, err := sub.RowView(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, row)
	row, err = sub.RowView(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, row, "duplicate index copies the row twice")

	_, err = m.SubsetRows([]int{3})
	assert.ErrorIs(t, err, expr.ErrOutOfRange)
	_, err = m.SubsetRows(nil)
	assert.ErrorIs(t, err, expr.ErrBadShape)
}

// TestDense_SubsetCols verifies column reordering.
func TestDense_SubsetCols(t *testing.T) {
	m, err := expr.NewDenseData(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	require.NoError(t, err)

	sub, err := m.SubsetCols([]int{2, 0})
	require.NoError(t, err)
	row, err := sub.RowView(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 4}, row)
}

// TestDense_MeanRows verifies centroid math.
func TestDense_MeanRows(t *testing.T) {
	m, err := expr.NewDenseData(3, 2, []float64{
		0, 0,
		2, 4,
		4, 8,
	})
	require.NoError(t, err)

	mean, err := m.MeanRows([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, mean)

	_, err = m.MeanRows(nil)
	assert.ErrorIs(t, err, expr.ErrBadShape, "empty row set has no centroid")
}

// TestDense_CloneIsDeep verifies that mutating a clone leaves the source alone.
func TestDense_CloneIsDeep(t *testing.T) {
	m, err := expr.NewDenseData(1, 2, []float64{1, 2})
	require.NoError(t, err)

	cl := m.Clone()
	require.NoError(t, cl.Set(0, 0, 99))

	v, err := m.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v, "clone must not alias the source buffer")
}
