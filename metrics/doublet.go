package metrics

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sctriangulate/sctri/expr"
)

// DoubletScore estimates per-cluster doublet burden, scrublet-style but on a
// budget: embed the cells with PCA, simulate doublets by averaging the
// embeddings of random cell pairs, and score each observed cell by the
// fraction of simulated doublets among its k nearest neighbors in the joint
// set. The cluster score is the mean over its cells; higher means the
// cluster looks doublet-made. Lower is better — the election negates it.
func DoubletScore(m *expr.Matrix, key string, opts Options) (Scores, []float64, error) {
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

	embed, err := expr.PCA(m.X, opts.Components)
	if err != nil {
		return nil, nil, err
	}
	n, d := embed.Rows(), embed.Cols()

	nSim := opts.DoubletSims
	if nSim <= 0 {
		nSim = n
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	sims := make([][]float64, nSim)
	for s := range sims {
		a := rng.Intn(n)
		b := rng.Intn(n)
		for b == a && n > 1 {
			b = rng.Intn(n)
		}
		ra, err := embed.RowView(a)
		if err != nil {
			return nil, nil, err
		}
		rb, err := embed.RowView(b)
		if err != nil {
			return nil, nil, err
		}
		row := make([]float64, d)
		for j := 0; j < d; j++ {
			row[j] = (ra[j] + rb[j]) / 2
		}
		sims[s] = row
	}

	k := opts.Neighbors
	if k > n+nSim-1 {
		k = n + nSim - 1
	}

	perCell := make([]float64, n)
	type neighbor struct {
		dist  float64
		isSim bool
	}
	for i := 0; i < n; i++ {
		ri, err := embed.RowView(i)
		if err != nil {
			return nil, nil, err
		}
		neigh := make([]neighbor, 0, n+nSim-1)
		for o := 0; o < n; o++ {
			if o == i {
				continue
			}
			ro, err := embed.RowView(o)
			if err != nil {
				return nil, nil, err
			}
			neigh = append(neigh, neighbor{dist: sqDist(ri, ro)})
		}
		for _, s := range sims {
			neigh = append(neigh, neighbor{dist: sqDist(ri, s), isSim: true})
		}
		sort.Slice(neigh, func(a, b int) bool { return neigh[a].dist < neigh[b].dist })
		hits := 0
		for _, nb := range neigh[:k] {
			if nb.isSim {
				hits++
			}
		}
		perCell[i] = float64(hits) / float64(k)
	}

	scores := make(Scores, len(groups))
	for _, g := range groups {
		total := 0.0
		for _, i := range g.Rows {
			total += perCell[i]
		}
		scores[g.Value] = total / float64(len(g.Rows))
	}

	return scores, perCell, nil
}

// sqDist is the squared euclidean distance of two equal-length rows.
func sqDist(a, b []float64) float64 {
	d := 0.0
	for j, v := range a {
		diff := v - b[j]
		d += diff * diff
	}
	if math.IsNaN(d) {
		return math.Inf(1)
	}

	return d
}
