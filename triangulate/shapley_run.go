package triangulate

import (
	"context"
	"fmt"

	"github.com/sctriangulate/sctri/metrics"
	"github.com/sctriangulate/sctri/prune"
	"github.com/sctriangulate/sctri/shapley"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ComputeShapley elects a winning annotation per cell. For each cell the
// metric payoffs of every query key are played as a coalition game; the
// key with the decisive Shapley value (ties broken toward the smaller,
// then earlier cluster) wins the cell. Writes the obs columns
// "final_annotation" (winning key), "raw" (winning "key@cluster"),
// "shapley@key" (per-key value) and, when a reference is set, "prefixed".
// Cells over contiguous chunks are processed concurrently.
func (t *Triangulate) ComputeShapley(ctx context.Context) error {
	if t.Results == nil {
		return ErrNotComputed
	}

	n := t.M.Obs.Len()
	payoff, cols, err := t.electionInputs()
	if err != nil {
		return err
	}

	final := make([]string, n)
	raw := make([]string, n)
	values := make([][]float64, len(t.Query))
	for k := range values {
		values[k] = make([]float64, n)
	}

	workers := t.workerCount(n)
	t.log.Info("electing consensus labels",
		zap.Int("cells", n), zap.Int("workers", workers))

	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			return t.electChunk(gctx, lo, hi, payoff, cols, final, raw, values)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := t.M.Obs.SetStr(ColFinal, final); err != nil {
		return err
	}
	if err := t.M.Obs.SetStr(prune.ColRaw, raw); err != nil {
		return err
	}
	for k, key := range t.Query {
		if err := t.M.Obs.SetNum("shapley@"+key, values[k]); err != nil {
			return err
		}
	}

	return t.prefixColumn(prune.ColRaw)
}

// electionInputs gathers, per query key, the per-cell payoff columns of the
// election metrics and the key's cluster column.
func (t *Triangulate) electionInputs() (payoff [][][]float64, cols [][]string, err error) {
	game := metrics.ShapleyMetrics()
	payoff = make([][][]float64, len(t.Query))
	cols = make([][]string, len(t.Query))
	for k, key := range t.Query {
		res, ok := t.Results[key]
		if !ok {
			return nil, nil, fmt.Errorf("triangulate: no metrics for %q: %w", key, ErrNotComputed)
		}
		payoff[k] = make([][]float64, len(game))
		for j, m := range game {
			payoff[k][j] = res.PerCell[m]
		}
		if cols[k], err = t.M.Obs.Str(key); err != nil {
			return nil, nil, err
		}
	}

	return payoff, cols, nil
}

// electChunk runs the election for cells [lo, hi).
func (t *Triangulate) electChunk(ctx context.Context, lo, hi int, payoff [][][]float64, cols [][]string, final, raw []string, values [][]float64) error {
	game := len(metrics.ShapleyMetrics())
	layer := make([][]float64, len(t.Query))
	for k := range layer {
		layer[k] = make([]float64, game)
	}
	clusterRow := make([]string, len(t.Query))

	for i := lo; i < hi; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for k := range t.Query {
			for j := 0; j < game; j++ {
				layer[k][j] = payoff[k][j][i]
			}
			clusterRow[k] = cols[k][i]
		}

		vals, err := shapley.Values(layer)
		if err != nil {
			return err
		}
		winner, err := shapley.WhichToTake(vals, t.Query, clusterRow, t.Sizes)
		if err != nil {
			return err
		}

		for k := range t.Query {
			values[k][i] = vals[k]
		}
		final[i] = winner
		for k, key := range t.Query {
			if key == winner {
				raw[i] = prune.JoinLabel(winner, clusterRow[k])
			}
		}
	}

	return nil
}

// prefixColumn namespaces a label column under the reference cluster:
// "ref@refCluster|label". No-op without a reference annotation.
func (t *Triangulate) prefixColumn(name string) error {
	if t.Reference == "" {
		return nil
	}
	refCol, err := t.M.Obs.Str(t.Reference)
	if err != nil {
		return err
	}
	col, err := t.M.Obs.Str(name)
	if err != nil {
		return err
	}

	prefixed := make([]string, len(col))
	for i, label := range col {
		prefixed[i] = prune.JoinLabel(t.Reference, refCol[i]) + "|" + label
	}

	return t.M.Obs.SetStr(ColPrefixed, prefixed)
}
