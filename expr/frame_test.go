package expr_test

import (
	"strings"
	"testing"

	"github.com/sctriangulate/sctri/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFrame(t *testing.T) *expr.Frame {
	t.Helper()
	f, err := expr.NewFrame([]string{"c1", "c2", "c3", "c4", "c5"})
	require.NoError(t, err)
	require.NoError(t, f.SetStr("leiden1", []string{"A", "A", "B", "B", "B"}))
	require.NoError(t, f.SetNum("score", []float64{0.1, 0.2, 0.3, 0.4, 0.5}))

	return f
}

// TestFrame_Columns covers add/get and the duplicate-name guard.
func TestFrame_Columns(t *testing.T) {
	f := newTestFrame(t)

	col, err := f.Str("leiden1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A", "B", "B", "B"}, col)

	_, err = f.Str("nope")
	assert.ErrorIs(t, err, expr.ErrUnknownColumn)

	err = f.SetNum("leiden1", []float64{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, expr.ErrDuplicateColumn, "numeric column must not shadow a string column")

	err = f.SetStr("short", []string{"x"})
	assert.ErrorIs(t, err, expr.ErrDimensionMismatch)
}

// TestFrame_Counts verifies the deterministic ordering: count desc, label asc.
func TestFrame_Counts(t *testing.T) {
	f, err := expr.NewFrame([]string{"c1", "c2", "c3", "c4"})
	require.NoError(t, err)
	require.NoError(t, f.SetStr("k", []string{"b", "a", "b", "a"}))

	c, err := f.Counts("k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, c.Labels, "equal counts order by label")
	assert.Equal(t, 2, c.Of("a"))
	assert.Equal(t, 0, c.Of("missing"))

	top, n := c.Max()
	assert.Equal(t, "a", top)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, c.Total())
}

// TestFrame_GroupBy verifies groups come back sorted with original row order.
func TestFrame_GroupBy(t *testing.T) {
	f := newTestFrame(t)

	groups, err := f.GroupBy("leiden1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].Value)
	assert.Equal(t, []int{0, 1}, groups[0].Rows)
	assert.Equal(t, "B", groups[1].Value)
	assert.Equal(t, []int{2, 3, 4}, groups[1].Rows)
}

// TestFrame_Subset checks that every column follows the selected rows.
func TestFrame_Subset(t *testing.T) {
	f := newTestFrame(t)

	sub, err := f.Subset([]int{4, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, []string{"c5", "c1"}, sub.IDs())

	col, err := sub.Str("leiden1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, col)

	num, err := sub.Num("score")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.1}, num)

	_, err = f.Subset([]int{9})
	assert.ErrorIs(t, err, expr.ErrOutOfRange)
}

// TestSizes tabulates cluster sizes per annotation key.
func TestSizes(t *testing.T) {
	f := newTestFrame(t)

	sizes, err := expr.Sizes(f, []string{"leiden1"})
	require.NoError(t, err)
	assert.Equal(t, 2, sizes["leiden1"]["A"])
	assert.Equal(t, 3, sizes["leiden1"]["B"])

	_, err = expr.Sizes(f, []string{"missing"})
	assert.ErrorIs(t, err, expr.ErrUnknownColumn)
}

// TestFrame_WriteTSV sanity-checks the writer layout.
func TestFrame_WriteTSV(t *testing.T) {
	f := newTestFrame(t)

	var sb strings.Builder
	require.NoError(t, f.WriteTSV(&sb))
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "cell\tleiden1\tscore", lines[0])
	assert.Equal(t, "c1\tA\t0.1", lines[1])
}
