package prune

import (
	"math"
	"sort"

	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/metrics"
	"go.uber.org/zap"
)

// ReassignOptions configures reassign pruning.
type ReassignOptions struct {
	// AbsThresh is the minimum viable cluster size; 0 derives it from the
	// cell count (10, or 30 from 50k cells).
	AbsThresh int
	// Remove1 folds pruned singletons within each reference cluster into
	// the group's most abundant pruned cluster.
	Remove1 bool
	// Reference is the annotation key grouping the Remove1 cleanup.
	Reference string
	// PoolMarkers taken per cluster when pooling genes for the embedding.
	PoolMarkers int
	// Components of the marker-gene PCA embedding.
	Components int
	// Neighbors is the centroid-vote size (capped at the centroid count).
	Neighbors int
	// Logger receives progress; nil means silent.
	Logger *zap.Logger
}

// DefaultReassignOptions mirrors the pipeline defaults.
func DefaultReassignOptions() ReassignOptions {
	return ReassignOptions{Remove1: true, PoolMarkers: 30, Components: 30, Neighbors: 10}
}

// Reassign dissolves invalid raw clusters. The invalid set grows with every
// cluster that is too small in absolute terms or won under 5% of its home
// cluster; cells of invalid clusters are then embedded with the valid ones
// in marker-gene PCA space and handed to valid-cluster centroids by a
// distance-weighted k-nearest vote. Valid cells keep their raw label. The
// result lands in the pruned column; the grown invalid set is returned,
// sorted, so the caller can carry it forward.
func Reassign(m *expr.Matrix, markers map[string]map[string][]string, invalid []string, sizes expr.SizeMap, opts ReassignOptions) ([]string, error) {
	log := nopIfNil(opts.Logger)
	obs := m.Obs
	raw, err := obs.Str(ColRaw)
	if err != nil {
		return nil, ErrNoRawColumn
	}

	thresh := opts.AbsThresh
	if thresh <= 0 {
		thresh = AbsThreshold(len(raw))
	}

	// Grow the invalid set with too-small clusters.
	bad := make(map[string]bool, len(invalid))
	for _, label := range invalid {
		bad[label] = true
	}
	won := expr.CountLabels(raw)
	for _, label := range won.Labels {
		key, cl, err := SplitLabel(label)
		if err != nil {
			return nil, err
		}
		n := won.Of(label)
		if n < thresh || float64(n) < smallFraction*float64(sizes[key][cl]) {
			bad[label] = true
		}
	}

	var validRows, invalidRows []int
	for i, label := range raw {
		if bad[label] {
			invalidRows = append(invalidRows, i)
		} else {
			validRows = append(validRows, i)
		}
	}
	if len(validRows) == 0 {
		return nil, ErrAllInvalid
	}
	log.Info("reassign pruning",
		zap.Int("invalid_clusters", len(bad)),
		zap.Int("invalid_cells", len(invalidRows)))

	pruned := append([]string(nil), raw...)
	if len(invalidRows) > 0 {
		if err = reassignCells(m, markers, raw, pruned, validRows, invalidRows, opts); err != nil {
			return nil, err
		}
	}

	if opts.Remove1 && opts.Reference != "" {
		if err = foldSingletons(obs, opts.Reference, pruned); err != nil {
			return nil, err
		}
	}

	if err = obs.SetStr(ColPruned, pruned); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(bad))
	for label := range bad {
		out = append(out, label)
	}
	sort.Strings(out)

	return out, nil
}

// reassignCells embeds the cells on pooled markers and votes invalid cells
// into valid-cluster centroids.
func reassignCells(m *expr.Matrix, markers map[string]map[string][]string, raw, pruned []string, validRows, invalidRows []int, opts ReassignOptions) error {
	keys := make([]string, 0, len(markers))
	for key := range markers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	sets := make([]map[string][]string, len(keys))
	for i, key := range keys {
		sets[i] = markers[key]
	}
	pool := metrics.PoolMarkers(opts.PoolMarkers, sets...)
	if len(pool) == 0 {
		return metrics.ErrNoMarkers
	}

	sub, err := m.SubsetVars(pool)
	if err != nil {
		return err
	}
	scaled, _, _, err := expr.ScaleColumns(sub.X)
	if err != nil {
		return err
	}
	embed, err := expr.PCA(scaled, opts.Components)
	if err != nil {
		return err
	}

	// One centroid per valid cluster, over valid cells only.
	rowsByCluster := make(map[string][]int)
	for _, i := range validRows {
		rowsByCluster[raw[i]] = append(rowsByCluster[raw[i]], i)
	}
	labels := make([]string, 0, len(rowsByCluster))
	for label := range rowsByCluster {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	centroids := make([][]float64, len(labels))
	for k, label := range labels {
		if centroids[k], err = embed.MeanRows(rowsByCluster[label]); err != nil {
			return err
		}
	}

	k := opts.Neighbors
	if k > len(centroids) {
		k = len(centroids)
	}
	for _, i := range invalidRows {
		row, err := embed.RowView(i)
		if err != nil {
			return err
		}
		pruned[i] = labels[voteCentroids(row, centroids, k)]
	}

	return nil
}

// voteCentroids picks a centroid by inverse-distance vote over the k nearest.
// An exact hit (distance 0) wins outright.
func voteCentroids(row []float64, centroids [][]float64, k int) int {
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, len(centroids))
	for c := range centroids {
		d := 0.0
		for j, v := range row {
			diff := v - centroids[c][j]
			d += diff * diff
		}
		cands[c] = cand{idx: c, dist: math.Sqrt(d)}
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}

		return cands[a].idx < cands[b].idx
	})

	best, bestWeight := cands[0].idx, 0.0
	weights := make(map[int]float64, k)
	for _, c := range cands[:k] {
		if c.dist == 0 {
			return c.idx
		}
		weights[c.idx] += 1 / c.dist
	}
	for _, c := range cands[:k] {
		if w := weights[c.idx]; w > bestWeight {
			best, bestWeight = c.idx, w
		}
	}

	return best
}

// foldSingletons relabels pruned singletons inside each reference cluster to
// the group's most abundant pruned label (downstream contrasts need ≥2 cells).
func foldSingletons(obs *expr.Frame, reference string, pruned []string) error {
	groups, err := obs.GroupBy(reference)
	if err != nil {
		return err
	}
	for _, g := range groups {
		chunk := make([]string, len(g.Rows))
		for pos, i := range g.Rows {
			chunk[pos] = pruned[i]
		}
		counts := expr.CountLabels(chunk)
		top, _ := counts.Max()
		for pos, i := range g.Rows {
			if counts.Of(chunk[pos]) == 1 {
				pruned[i] = top
			}
		}
	}

	return nil
}
