package prune

import (
	"io"
	"sort"
	"strconv"

	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/metrics"
	"github.com/sctriangulate/sctri/shapley"
)

// Goodness is the raw-cluster quality table rank pruning produces: one row
// per competing cluster ("key@cluster"), its mean metric rank (higher is
// better) and its win fraction (cells won ÷ home-cluster size).
type Goodness struct {
	Clusters    []string
	MeanRank    []float64
	WinFraction []float64

	idx map[string]int
}

// NewGoodness rebuilds a Goodness from its columns (snapshot restore path).
// Slice lengths must agree.
func NewGoodness(clusters []string, meanRank, winFraction []float64) (*Goodness, error) {
	if len(meanRank) != len(clusters) || len(winFraction) != len(clusters) {
		return nil, expr.ErrDimensionMismatch
	}
	g := &Goodness{
		Clusters:    append([]string(nil), clusters...),
		MeanRank:    append([]float64(nil), meanRank...),
		WinFraction: append([]float64(nil), winFraction...),
		idx:         make(map[string]int, len(clusters)),
	}
	for i, cl := range g.Clusters {
		g.idx[cl] = i
	}

	return g, nil
}

// WinFractionOf looks up one cluster's win fraction.
func (g *Goodness) WinFractionOf(cluster string) (float64, bool) {
	i, ok := g.idx[cluster]
	if !ok {
		return 0, false
	}

	return g.WinFraction[i], true
}

// Below returns the clusters whose win fraction is strictly under percent,
// in table order. This is the feed for invalidation before reassign pruning.
func (g *Goodness) Below(percent float64) []string {
	var out []string
	for i, cl := range g.Clusters {
		if g.WinFraction[i] < percent {
			out = append(out, cl)
		}
	}

	return out
}

// WriteTSV emits the goodness table.
func (g *Goodness) WriteTSV(w io.Writer) error {
	if _, err := io.WriteString(w, "cluster\tmean_rank\twin_fraction\n"); err != nil {
		return err
	}
	for i, cl := range g.Clusters {
		line := cl + "\t" +
			strconv.FormatFloat(g.MeanRank[i], 'g', -1, 64) + "\t" +
			strconv.FormatFloat(g.WinFraction[i], 'g', -1, 64) + "\n"
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}

	return nil
}

// Rank scores every competing cluster across all annotation keys. Each
// metric column is ranked over all clusters (average ranks; doublet burden
// is negated first, lower is better there) and the mean rank becomes the
// cluster's goodness. Win fractions come from the raw column of obs. The
// obs gains pruned (= raw, rank pruning never relabels) and confidence
// columns. discard names metrics excluded from the ranking.
func Rank(results map[string]*metrics.Result, obs *expr.Frame, sizes expr.SizeMap, discard []string) (*Goodness, error) {
	if !obs.HasStr(ColRaw) {
		return nil, ErrNoRawColumn
	}

	dropped := make(map[string]bool, len(discard))
	for _, m := range discard {
		dropped[m] = true
	}
	var used []string
	for _, m := range metrics.TotalMetrics() {
		if !dropped[m] {
			used = append(used, m)
		}
	}
	if len(used) == 0 {
		return nil, ErrNoMetrics
	}

	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var clusters []string
	var scoreRows [][]float64
	for _, key := range keys {
		res := results[key]
		for _, cl := range res.Clusters {
			row := make([]float64, len(used))
			for j, metric := range used {
				v := res.Metrics[metric][cl]
				if metric == metrics.MetricDoublet {
					v = -v // burden: lower is better
				}
				row[j] = v
			}
			clusters = append(clusters, JoinLabel(key, cl))
			scoreRows = append(scoreRows, row)
		}
	}
	if len(clusters) == 0 {
		return nil, metrics.ErrNoClusters
	}

	meanRank := make([]float64, len(clusters))
	col := make([]float64, len(clusters))
	for j := range used {
		for i := range scoreRows {
			col[i] = scoreRows[i][j]
		}
		for i, r := range shapley.Rankdata(col) {
			meanRank[i] += r
		}
	}
	for i := range meanRank {
		meanRank[i] /= float64(len(used))
	}

	raw, err := obs.Str(ColRaw)
	if err != nil {
		return nil, err
	}
	won := expr.CountLabels(raw)

	g := &Goodness{
		Clusters:    clusters,
		MeanRank:    meanRank,
		WinFraction: make([]float64, len(clusters)),
		idx:         make(map[string]int, len(clusters)),
	}
	for i, label := range clusters {
		g.idx[label] = i
		key, cl, err := SplitLabel(label)
		if err != nil {
			return nil, err
		}
		if home := sizes[key][cl]; home > 0 {
			g.WinFraction[i] = float64(won.Of(label)) / float64(home)
		}
	}

	// pruned = raw; confidence = win fraction of the cell's raw cluster.
	if err = obs.SetStr(ColPruned, raw); err != nil {
		return nil, err
	}
	conf := make([]float64, len(raw))
	for i, label := range raw {
		if wf, ok := g.WinFractionOf(label); ok {
			conf[i] = wf
		}
	}
	if err = obs.SetNum(ColConfidence, conf); err != nil {
		return nil, err
	}

	return g, nil
}
