package metrics

import (
	"math"
	"sort"

	"github.com/sctriangulate/sctri/expr"
)

// ReassignScore measures cluster self-cohesion: restrict the matrix to the
// pooled top markers, place one centroid per cluster, send every cell to its
// nearest centroid, and score each cluster by the fraction of its own cells
// it wins back. The full truth×prediction confusion comes along.
func ReassignScore(m *expr.Matrix, key string, markers map[string][]string, opts Options) (Scores, *Confusion, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	pool := PoolMarkers(opts.PoolMarkers, markers)
	if len(pool) == 0 {
		return nil, nil, ErrNoMarkers
	}
	sub, err := m.SubsetVars(pool)
	if err != nil {
		return nil, nil, err
	}

	groups, err := sub.Obs.GroupBy(key)
	if err != nil {
		return nil, nil, err
	}
	if len(groups) == 0 {
		return nil, nil, ErrNoClusters
	}

	labels := make([]string, len(groups))
	centroids := make([][]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Value
		centroids[i], err = sub.X.MeanRows(g.Rows)
		if err != nil {
			return nil, nil, err
		}
	}

	conf := NewConfusion(labels)
	col, err := sub.Obs.Str(key)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < sub.X.Rows(); i++ {
		row, err := sub.X.RowView(i)
		if err != nil {
			return nil, nil, err
		}
		conf.Add(col[i], labels[nearestCentroid(row, centroids)])
	}

	scores := make(Scores, len(labels))
	for _, l := range labels {
		scores[l] = conf.Recall(l)
	}
	sort.Strings(labels)

	return scores, conf, nil
}

// nearestCentroid returns the index of the closest centroid by squared
// euclidean distance; the first wins ties, keeping the projection stable.
func nearestCentroid(row []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for k, c := range centroids {
		d := 0.0
		for j, v := range row {
			diff := v - c[j]
			d += diff * diff
		}
		if d < bestDist {
			best, bestDist = k, d
		}
	}

	return best
}
