package metrics

import (
	"math"
	"sort"

	"github.com/sctriangulate/sctri/expr"
)

// expressedFraction is the within-cluster detection rate above which a
// cluster counts as "expressing" a gene for document frequency.
const expressedFraction = 0.5

// TFIDFScore measures how exclusively a cluster owns its genes. Clusters are
// the documents: tf(c,g) is the fraction of the cluster's cells detecting g
// (value > 0), df(g) counts the clusters whose tf exceeds expressedFraction,
// and idf(g) = ln((1+K)/(1+df)) + 1 over K clusters. A cluster's score is
// the mean tf·idf of its top `cutoff` genes; those genes are returned as the
// cluster's exclusive set.
func TFIDFScore(m *expr.Matrix, key string, cutoff int, opts Options) (Scores, map[string][]string, error) {
	if cutoff <= 0 {
		return nil, nil, ErrBadCutoff
	}
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	groups, err := m.Obs.GroupBy(key)
	if err != nil {
		return nil, nil, err
	}
	if len(groups) == 0 {
		return nil, nil, ErrNoClusters
	}

	k := len(groups)
	c := m.X.Cols()

	// tf per cluster per gene
	tf := make([][]float64, k)
	for gi, g := range groups {
		tf[gi] = make([]float64, c)
		for _, i := range g.Rows {
			row, err := m.X.RowView(i)
			if err != nil {
				return nil, nil, err
			}
			for j, v := range row {
				if v > 0 {
					tf[gi][j]++
				}
			}
		}
		inv := 1.0 / float64(len(g.Rows))
		for j := range tf[gi] {
			tf[gi][j] *= inv
		}
	}

	idf := make([]float64, c)
	for j := 0; j < c; j++ {
		df := 0
		for gi := 0; gi < k; gi++ {
			if tf[gi][j] > expressedFraction {
				df++
			}
		}
		idf[j] = math.Log(float64(1+k)/float64(1+df)) + 1
	}

	scores := make(Scores, k)
	exclusive := make(map[string][]string, k)
	for gi, g := range groups {
		weight := make([]float64, c)
		order := make([]int, c)
		for j := 0; j < c; j++ {
			weight[j] = tf[gi][j] * idf[j]
			order[j] = j
		}
		sort.SliceStable(order, func(a, b int) bool {
			if weight[order[a]] != weight[order[b]] {
				return weight[order[a]] > weight[order[b]]
			}

			return m.Vars[order[a]] < m.Vars[order[b]]
		})
		take := cutoff
		if take > c {
			take = c
		}
		total := 0.0
		genes := make([]string, take)
		for i := 0; i < take; i++ {
			total += weight[order[i]]
			genes[i] = m.Vars[order[i]]
		}
		scores[g.Value] = total / float64(take)
		exclusive[g.Value] = genes
	}

	return scores, exclusive, nil
}
