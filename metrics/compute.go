package metrics

import (
	"context"
	"sort"

	"github.com/sctriangulate/sctri/expr"
	"go.uber.org/zap"
)

// ComputeKey runs every metric for one annotation key and assembles the
// Result the pipeline consumes. Clusters with a single cell are dropped
// before computation (they cannot support a one-vs-rest contrast) and their
// cells read 0 in every per-cell column. The context is honored between
// metric stages.
func ComputeKey(ctx context.Context, m *expr.Matrix, key string, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.logger().With(zap.String("key", key))

	kept, clusters, err := usableRows(m.Obs, key)
	if err != nil {
		return nil, err
	}
	sub := m
	if len(kept) < m.X.Rows() {
		if sub, err = m.SubsetObs(kept); err != nil {
			return nil, err
		}
	}
	log.Info("computing metrics",
		zap.Int("cells", sub.X.Rows()),
		zap.Int("clusters", len(clusters)))

	res := &Result{
		Key:      key,
		Clusters: clusters,
		Metrics:  make(map[string]Scores, len(TotalMetrics())),
		PerCell:  make(map[string][]float64, len(TotalMetrics())),
	}

	if res.Markers, err = MarkerGenes(sub, key, opts); err != nil {
		return nil, err
	}
	log.Info("finished marker gene ranking")
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	if res.Metrics[MetricReassign], res.ConfusionReassign, err = ReassignScore(sub, key, res.Markers, opts); err != nil {
		return nil, err
	}
	log.Info("finished reassign score")
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	if res.Metrics[MetricTFIDF10], res.Exclusive, err = TFIDFScore(sub, key, 10, opts); err != nil {
		return nil, err
	}
	if res.Metrics[MetricTFIDF5], _, err = TFIDFScore(sub, key, 5, opts); err != nil {
		return nil, err
	}
	log.Info("finished tf-idf scores")
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	if res.Metrics[MetricSCCAF], res.ConfusionSCCAF, err = SCCAFScore(sub, key, opts); err != nil {
		return nil, err
	}
	log.Info("finished SCCAF score")
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	if res.Metrics[MetricDoublet], _, err = DoubletScore(sub, key, opts); err != nil {
		return nil, err
	}
	log.Info("finished doublet score")

	// Map cluster scores back onto the original cells; filtered clusters → 0.
	col, err := m.Obs.Str(key)
	if err != nil {
		return nil, err
	}
	for _, metric := range TotalMetrics() {
		scores := res.Metrics[metric]
		perCell := make([]float64, m.X.Rows())
		for i, cl := range col {
			perCell[i] = scores[cl] // missing clusters read as 0
		}
		res.PerCell[metric] = perCell
	}

	return res, nil
}

// usableRows returns the rows of clusters with at least two cells and the
// sorted list of those clusters.
func usableRows(obs *expr.Frame, key string) ([]int, []string, error) {
	groups, err := obs.GroupBy(key)
	if err != nil {
		return nil, nil, err
	}
	var rows []int
	var clusters []string
	for _, g := range groups {
		if len(g.Rows) < 2 {
			continue
		}
		rows = append(rows, g.Rows...)
		clusters = append(clusters, g.Value)
	}
	if len(clusters) == 0 {
		return nil, nil, ErrNoClusters
	}
	sort.Ints(rows)
	sort.Strings(clusters)

	return rows, clusters, nil
}
