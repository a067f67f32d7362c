package metrics

import (
	"math"
	"sort"

	"github.com/sctriangulate/sctri/expr"
)

// MarkerGenes ranks genes per cluster by a one-vs-rest Welch t statistic on
// the (log-scale) expression matrix. Artifact genes are dropped before
// ranking; at most opts.TopMarkers genes are kept per cluster, ordered by
// descending t (gene name ascending on exact ties, for determinism).
func MarkerGenes(m *expr.Matrix, key string, opts Options) (map[string][]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	groups, err := m.Obs.GroupBy(key)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrNoClusters
	}

	r, c := m.X.Rows(), m.X.Cols()

	// Global sums per gene; cluster stats derive the rest by subtraction.
	totalSum := make([]float64, c)
	totalSq := make([]float64, c)
	for i := 0; i < r; i++ {
		row, err := m.X.RowView(i)
		if err != nil {
			return nil, err
		}
		for j, v := range row {
			totalSum[j] += v
			totalSq[j] += v * v
		}
	}

	out := make(map[string][]string, len(groups))
	sum := make([]float64, c)
	sq := make([]float64, c)
	t := make([]float64, c)
	for _, g := range groups {
		n1 := float64(len(g.Rows))
		n2 := float64(r - len(g.Rows))
		if n2 == 0 {
			// a single all-cells cluster has no "rest" to contrast against
			out[g.Value] = nil
			continue
		}
		for j := 0; j < c; j++ {
			sum[j], sq[j] = 0, 0
		}
		for _, i := range g.Rows {
			row, err := m.X.RowView(i)
			if err != nil {
				return nil, err
			}
			for j, v := range row {
				sum[j] += v
				sq[j] += v * v
			}
		}
		for j := 0; j < c; j++ {
			m1 := sum[j] / n1
			m2 := (totalSum[j] - sum[j]) / n2
			v1 := sq[j]/n1 - m1*m1
			v2 := (totalSq[j]-sq[j])/n2 - m2*m2
			if v1 < 0 {
				v1 = 0 // numeric jitter
			}
			if v2 < 0 {
				v2 = 0
			}
			denom := math.Sqrt(v1/n1 + v2/n2)
			if denom == 0 {
				// zero spread on both sides: a mean gap is a perfect marker
				switch {
				case m1 > m2:
					t[j] = math.MaxFloat64
				case m1 < m2:
					t[j] = -math.MaxFloat64
				default:
					t[j] = 0
				}
				continue
			}
			t[j] = (m1 - m2) / denom
		}

		order := make([]int, 0, c)
		for j := 0; j < c; j++ {
			if _, artifact := opts.Artifacts[m.Vars[j]]; artifact {
				continue
			}
			order = append(order, j)
		}
		sort.SliceStable(order, func(a, b int) bool {
			if t[order[a]] != t[order[b]] {
				return t[order[a]] > t[order[b]]
			}

			return m.Vars[order[a]] < m.Vars[order[b]]
		})
		top := opts.TopMarkers
		if top > len(order) {
			top = len(order)
		}
		ranked := make([]string, top)
		for i := 0; i < top; i++ {
			ranked[i] = m.Vars[order[i]]
		}
		out[g.Value] = ranked
	}

	return out, nil
}

// PoolMarkers unions the leading markers of every cluster across one or more
// marker maps, preserving first-seen order. n caps the take per cluster.
func PoolMarkers(n int, markerSets ...map[string][]string) []string {
	var pool []string
	seen := make(map[string]bool)
	for _, markers := range markerSets {
		clusters := make([]string, 0, len(markers))
		for cl := range markers {
			clusters = append(clusters, cl)
		}
		sort.Strings(clusters)
		for _, cl := range clusters {
			genes := markers[cl]
			take := n
			if take > len(genes) {
				take = len(genes)
			}
			for _, gene := range genes[:take] {
				if !seen[gene] {
					seen[gene] = true
					pool = append(pool, gene)
				}
			}
		}
	}

	return pool
}
