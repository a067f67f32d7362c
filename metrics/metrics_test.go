package metrics_test

import (
	"context"
	"testing"

	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoClusterMatrix builds 8 cells × 4 genes with two clean populations:
// cluster A detects g1/g2, cluster B detects g3/g4, with mild within-cluster
// jitter so variances stay positive.
func twoClusterMatrix(t *testing.T) *expr.Matrix {
	t.Helper()
	data := []float64{
		// g1, g2, g3, g4
		5.0, 4.0, 0.0, 0.1,
		6.0, 5.0, 0.1, 0.0,
		5.5, 4.5, 0.0, 0.0,
		6.5, 5.5, 0.1, 0.1,
		0.0, 0.1, 5.0, 4.0,
		0.1, 0.0, 6.0, 5.0,
		0.0, 0.0, 5.5, 4.5,
		0.1, 0.1, 6.5, 5.5,
	}
	x, err := expr.NewDenseData(8, 4, data)
	require.NoError(t, err)
	obs, err := expr.NewFrame([]string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8"})
	require.NoError(t, err)
	require.NoError(t, obs.SetStr("leiden1", []string{"A", "A", "A", "A", "B", "B", "B", "B"}))
	m, err := expr.NewMatrix(x, []string{"g1", "g2", "g3", "g4"}, obs)
	require.NoError(t, err)

	return m
}

// TestMarkerGenes ranks each population's genes first and honors artifacts.
func TestMarkerGenes(t *testing.T) {
	m := twoClusterMatrix(t)
	opts := metrics.DefaultOptions()
	opts.TopMarkers = 2

	markers, err := metrics.MarkerGenes(m, "leiden1", opts)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2"}, markers["A"])
	assert.ElementsMatch(t, []string{"g3", "g4"}, markers["B"])

	opts.Artifacts = map[string]struct{}{"g1": {}}
	markers, err = metrics.MarkerGenes(m, "leiden1", opts)
	require.NoError(t, err)
	assert.NotContains(t, markers["A"], "g1", "artifact genes never become markers")
}

// TestPoolMarkers unions cluster tops deterministically.
func TestPoolMarkers(t *testing.T) {
	pool := metrics.PoolMarkers(1, map[string][]string{
		"B": {"g3", "g4"},
		"A": {"g1", "g2"},
	})
	assert.Equal(t, []string{"g1", "g3"}, pool, "clusters walk in sorted order, one gene each")
}

// TestReassignScore gives clean clusters a perfect self-projection.
func TestReassignScore(t *testing.T) {
	m := twoClusterMatrix(t)
	opts := metrics.DefaultOptions()
	markers, err := metrics.MarkerGenes(m, "leiden1", opts)
	require.NoError(t, err)

	scores, conf, err := metrics.ReassignScore(m, "leiden1", markers, opts)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores["A"])
	assert.Equal(t, 1.0, scores["B"])
	assert.Equal(t, 4, conf.Count("A", "A"))
	assert.Equal(t, 0, conf.Count("A", "B"))
}

// TestTFIDFScore finds each cluster's exclusive genes.
func TestTFIDFScore(t *testing.T) {
	m := twoClusterMatrix(t)

	scores, exclusive, err := metrics.TFIDFScore(m, "leiden1", 2, metrics.DefaultOptions())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2"}, exclusive["A"])
	assert.Greater(t, scores["A"], 0.0)
	assert.InDelta(t, scores["A"], scores["B"], 1e-9, "symmetric design scores symmetrically")

	_, _, err = metrics.TFIDFScore(m, "leiden1", 0, metrics.DefaultOptions())
	assert.ErrorIs(t, err, metrics.ErrBadCutoff)
}

// TestSCCAFScore separates the two populations near-perfectly.
func TestSCCAFScore(t *testing.T) {
	m := twoClusterMatrix(t)
	opts := metrics.DefaultOptions()
	opts.Components = 2

	scores, conf, err := metrics.SCCAFScore(m, "leiden1", opts)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores["A"], "well-separated cluster must have full held-out recall")
	assert.Equal(t, 1.0, scores["B"])
	assert.Equal(t, 0, conf.Count("A", "B"))
}

// TestDoubletScore is deterministic under a fixed seed and bounded in [0,1].
func TestDoubletScore(t *testing.T) {
	m := twoClusterMatrix(t)
	opts := metrics.DefaultOptions()
	opts.Components = 2
	opts.Neighbors = 3
	opts.DoubletSims = 8

	s1, perCell, err := metrics.DoubletScore(m, "leiden1", opts)
	require.NoError(t, err)
	s2, _, err := metrics.DoubletScore(m, "leiden1", opts)
	require.NoError(t, err)
	assert.Equal(t, s1, s2, "same seed, same simulation")
	require.Len(t, perCell, 8)
	for _, v := range perCell {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

// TestComputeKey assembles the full Result and zero-fills filtered clusters.
func TestComputeKey(t *testing.T) {
	m := twoClusterMatrix(t)
	// Turn the last cell into a singleton cluster: it must be filtered out.
	require.NoError(t, m.Obs.SetStr("leiden1",
		[]string{"A", "A", "A", "A", "B", "B", "B", "solo"}))

	opts := metrics.DefaultOptions()
	opts.Components = 2
	opts.Neighbors = 3

	res, err := metrics.ComputeKey(context.Background(), m, "leiden1", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.Clusters)

	for _, metric := range metrics.TotalMetrics() {
		col, ok := res.PerCell[metric]
		require.True(t, ok, metric)
		require.Len(t, col, 8)
		assert.Equal(t, 0.0, col[7], "singleton cluster cells read 0 in %s", metric)
	}
	assert.Equal(t, res.Metrics[metrics.MetricReassign]["A"], res.PerCell[metrics.MetricReassign][0])

	// Cancelled context stops between stages.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = metrics.ComputeKey(ctx, m, "leiden1", opts)
	assert.ErrorIs(t, err, context.Canceled)
}
