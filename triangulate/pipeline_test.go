package triangulate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/prune"
	"github.com/sctriangulate/sctri/triangulate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// pipelineMatrix: 12 cells, 4 genes, two populations (A expresses g1/g2,
// B expresses g3/g4). Two annotation columns carry the identical
// clustering, so the election is a tie the query order must resolve.
func pipelineMatrix(t *testing.T) *expr.Matrix {
	t.Helper()
	data := []float64{
		// g1, g2, g3, g4
		5.0, 4.0, 0.0, 0.1,
		6.0, 5.0, 0.1, 0.0,
		5.5, 4.5, 0.0, 0.0,
		6.5, 5.5, 0.1, 0.1,
		5.2, 4.8, 0.0, 0.1,
		6.2, 5.2, 0.1, 0.0,
		0.0, 0.1, 5.0, 4.0,
		0.1, 0.0, 6.0, 5.0,
		0.0, 0.0, 5.5, 4.5,
		0.1, 0.1, 6.5, 5.5,
		0.0, 0.1, 5.2, 4.8,
		0.1, 0.0, 6.2, 5.2,
	}
	x, err := expr.NewDenseData(12, 4, data)
	require.NoError(t, err)

	ids := make([]string, 12)
	labels := make([]string, 12)
	for i := range ids {
		ids[i] = "c" + string(rune('a'+i))
		if i < 6 {
			labels[i] = "A"
		} else {
			labels[i] = "B"
		}
	}
	obs, err := expr.NewFrame(ids)
	require.NoError(t, err)
	require.NoError(t, obs.SetStr("broad", labels))
	require.NoError(t, obs.SetStr("alt", labels))

	m, err := expr.NewMatrix(x, []string{"g1", "g2", "g3", "g4"}, obs)
	require.NoError(t, err)

	return m
}

// TestNew validates inputs and folds the reference into the query.
func TestNew(t *testing.T) {
	m := pipelineMatrix(t)

	_, err := triangulate.New(nil, []string{"broad"}, "broad", "")
	assert.ErrorIs(t, err, expr.ErrNilMatrix)

	_, err = triangulate.New(m, nil, "broad", "")
	assert.ErrorIs(t, err, triangulate.ErrNoQuery)

	_, err = triangulate.New(m, []string{"broad", "leiden9"}, "broad", "")
	assert.ErrorIs(t, err, expr.ErrUnknownColumn)

	tri, err := triangulate.New(m, []string{"broad"}, "alt", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"broad", "alt"}, tri.Query, "reference joins the query")
	assert.Equal(t, 6, tri.Sizes["broad"]["A"])
}

// TestStageOrder rejects stages run before their inputs exist.
func TestStageOrder(t *testing.T) {
	m := pipelineMatrix(t)
	tri, err := triangulate.New(m, []string{"broad", "alt"}, "broad", "")
	require.NoError(t, err)

	assert.ErrorIs(t, tri.ComputeShapley(context.Background()), triangulate.ErrNotComputed)
	assert.ErrorIs(t, tri.Pruning(context.Background(), triangulate.MethodRank, triangulate.PruneOptions{}),
		triangulate.ErrNotComputed, "pruning needs the raw column")
	assert.ErrorIs(t, tri.AddToInvalidByWinFraction(0.25), triangulate.ErrNoGoodness)
	_, err = tri.PruneStatistics()
	assert.ErrorIs(t, err, triangulate.ErrNotComputed)
}

// TestLazyRun drives the full pipeline on the tied fixture: the first
// query key wins every cell, rank pruning zeroes the loser's win
// fractions, and reassign pruning leaves the labels alone.
func TestLazyRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := pipelineMatrix(t)
	dir := t.TempDir()
	tri, err := triangulate.New(m, []string{"broad", "alt"}, "broad", dir,
		triangulate.WithAbsThreshold(2))
	require.NoError(t, err)

	require.NoError(t, tri.LazyRun(context.Background()))

	final, err := m.Obs.Str(triangulate.ColFinal)
	require.NoError(t, err)
	raw, err := m.Obs.Str(prune.ColRaw)
	require.NoError(t, err)
	pruned, err := m.Obs.Str(prune.ColPruned)
	require.NoError(t, err)
	prefixed, err := m.Obs.Str(triangulate.ColPrefixed)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		assert.Equal(t, "broad", final[i], "query order breaks the tie")
		want := "broad@A"
		if i >= 6 {
			want = "broad@B"
		}
		assert.Equal(t, want, raw[i])
		assert.Equal(t, want, pruned[i], "no invalid cells to reassign")
		assert.Equal(t, want+"|"+want, prefixed[i])
	}

	for _, key := range []string{"broad", "alt"} {
		for _, metric := range []string{"reassign", "tfidf10", "tfidf5", "sccaf", "doublet"} {
			assert.True(t, m.Obs.HasNum(metric+"@"+key), "%s@%s column", metric, key)
		}
	}
	sb, err := m.Obs.Num("shapley@broad")
	require.NoError(t, err)
	sa, err := m.Obs.Num("shapley@alt")
	require.NoError(t, err)
	for i := range sb {
		assert.InDelta(t, sb[i], sa[i], 1e-12, "identical clusterings tie exactly")
	}

	require.NotNil(t, tri.Goodness)
	assert.Len(t, tri.Goodness.Clusters, 4)
	wf, ok := tri.Goodness.WinFractionOf("broad@A")
	require.True(t, ok)
	assert.Equal(t, 1.0, wf)
	wf, _ = tri.Goodness.WinFractionOf("alt@A")
	assert.Equal(t, 0.0, wf)
	assert.Equal(t, []string{"alt@A", "alt@B"}, tri.Invalid, "losers fall under the win cutoff")

	for _, name := range []string{
		"after_metrics.snap.zst", "after_shapley.snap.zst", "after_rank_pruning.snap.zst",
		"goodness.tsv", "prune_statistics.tsv", "celltype.txt", "obs.tsv",
		"confusion_reassign_broad.tsv", "confusion_sccaf_broad.tsv",
		"confusion_reassign_alt.tsv", "confusion_sccaf_alt.tsv",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "%s written", name)
	}
	sheet, err := os.ReadFile(filepath.Join(dir, "celltype.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(sheet), "broad@A\tbroad@A\n")
	assert.Contains(t, string(sheet), "broad@B\tbroad@B\n")
}

// TestLazyRunCancel propagates context cancellation out of the worker pool.
func TestLazyRunCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := pipelineMatrix(t)
	tri, err := triangulate.New(m, []string{"broad", "alt"}, "broad", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tri.LazyRun(ctx), context.Canceled)
}

// TestPenalizeArtifact voids a stamped cluster: its key's metric columns go
// to zero for those cells, and the election hands them to the other key.
func TestPenalizeArtifact(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := pipelineMatrix(t)
	tri, err := triangulate.New(m, []string{"broad", "alt"}, "broad", "")
	require.NoError(t, err)

	assert.ErrorIs(t, tri.PenalizeArtifact([]string{"broad@A"}), triangulate.ErrNotComputed,
		"needs metrics for the stamped key")

	require.NoError(t, tri.ComputeMetrics(context.Background()))
	require.NoError(t, tri.PenalizeArtifact([]string{"broad@A"}))
	assert.Equal(t, []string{"broad@A"}, tri.Invalid)

	scores, err := m.Obs.Num("reassign@broad")
	require.NoError(t, err)
	altScores, err := m.Obs.Num("reassign@alt")
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Zero(t, scores[i], "stamped cells lose the key's scores")
		assert.Greater(t, altScores[i], 0.0, "the other key keeps its scores")
	}
	for i := 6; i < 12; i++ {
		assert.Greater(t, scores[i], 0.0, "unstamped cells keep their scores")
	}

	require.NoError(t, tri.ComputeShapley(context.Background()))
	final, err := m.Obs.Str(triangulate.ColFinal)
	require.NoError(t, err)
	raw, err := m.Obs.Str(prune.ColRaw)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Equal(t, "alt", final[i], "voided cluster cannot win its cells")
		assert.Equal(t, "alt@A", raw[i])
	}
	for i := 6; i < 12; i++ {
		assert.Equal(t, "broad", final[i], "untouched cells still tie toward query order")
	}
}

// TestPruningUnknownMethod names the offending method in the error.
func TestPruningUnknownMethod(t *testing.T) {
	m := pipelineMatrix(t)
	tri, err := triangulate.New(m, []string{"broad", "alt"}, "broad", "")
	require.NoError(t, err)
	raw := make([]string, 12)
	for i := range raw {
		raw[i] = "broad@A"
	}
	require.NoError(t, m.Obs.SetStr(prune.ColRaw, raw))

	err = tri.Pruning(context.Background(), triangulate.Method("shrink"), triangulate.PruneOptions{})
	assert.ErrorIs(t, err, triangulate.ErrUnknownMethod)
	assert.Contains(t, err.Error(), "shrink")
}

// TestAddToInvalid folds duplicates and keeps the set sorted.
func TestAddToInvalid(t *testing.T) {
	m := pipelineMatrix(t)
	tri, err := triangulate.New(m, []string{"broad", "alt"}, "broad", "")
	require.NoError(t, err)

	tri.AddToInvalid([]string{"broad@B", "alt@A"})
	tri.AddToInvalid([]string{"alt@A", "broad@A"})
	assert.Equal(t, []string{"alt@A", "broad@A", "broad@B"}, tri.Invalid)

	tri.ClearInvalid()
	assert.Empty(t, tri.Invalid)
}

// TestPruneStatistics orders by pruned occupancy and zero-fills dissolved
// clusters.
func TestPruneStatistics(t *testing.T) {
	m := pipelineMatrix(t)
	tri, err := triangulate.New(m, []string{"broad", "alt"}, "broad", "")
	require.NoError(t, err)
	require.NoError(t, m.Obs.SetStr(prune.ColRaw, []string{
		"broad@A", "broad@A", "broad@A", "broad@B", "broad@B", "broad@B",
		"broad@B", "alt@A", "alt@A", "alt@A", "alt@A", "alt@A",
	}))
	require.NoError(t, m.Obs.SetStr(prune.ColPruned, []string{
		"broad@A", "broad@A", "broad@A", "broad@A", "broad@A", "broad@A",
		"broad@A", "broad@B", "broad@B", "broad@B", "broad@B", "broad@B",
	}))

	stats, err := tri.PruneStatistics()
	require.NoError(t, err)
	assert.Equal(t, []string{"broad@A", "broad@B", "alt@A"}, stats.Clusters)
	assert.Equal(t, []int{3, 4, 5}, stats.Raw)
	assert.Equal(t, []int{7, 5, 0}, stats.Pruned, "alt@A was dissolved")

	var sb strings.Builder
	require.NoError(t, stats.WriteTSV(&sb))
	assert.Contains(t, sb.String(), "cluster\traw\tpruned\n")
	assert.Contains(t, sb.String(), "alt@A\t5\t0\n")
}
