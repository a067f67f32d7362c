package triangulate

import (
	"context"
	"fmt"

	"github.com/sctriangulate/sctri/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ComputeMetrics scores every query annotation independently on a worker
// pool and publishes the per-cell scores as "metric@key" obs columns.
// The first failing key cancels the rest.
func (t *Triangulate) ComputeMetrics(ctx context.Context) error {
	t.log.Info("computing stability metrics",
		zap.Strings("query", t.Query),
		zap.Int("workers", t.workerCount(len(t.Query))))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workerCount(len(t.Query)))

	out := make([]*metrics.Result, len(t.Query))
	for i, key := range t.Query {
		i, key := i, key
		g.Go(func() error {
			res, err := metrics.ComputeKey(gctx, t.M, key, t.metricOptions())
			if err != nil {
				return fmt.Errorf("triangulate: metrics for %q: %w", key, err)
			}
			out[i] = res

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	t.Results = make(map[string]*metrics.Result, len(out))
	for i, key := range t.Query {
		t.Results[key] = out[i]
		if err := t.publishMetricColumns(key, out[i]); err != nil {
			return err
		}
	}
	t.log.Info("stability metrics done", zap.Int("keys", len(t.Results)))

	return nil
}

// publishMetricColumns writes one result's per-cell scores into obs.
func (t *Triangulate) publishMetricColumns(key string, res *metrics.Result) error {
	for _, m := range metrics.TotalMetrics() {
		if err := t.M.Obs.SetNum(m+"@"+key, res.PerCell[m]); err != nil {
			return err
		}
	}

	return nil
}

// AssessKey scores one extra annotation column (typically "pruned") the
// same way the query keys were scored, stores the result under that name
// and publishes its obs columns.
func (t *Triangulate) AssessKey(ctx context.Context, key string) error {
	res, err := metrics.ComputeKey(ctx, t.M, key, t.metricOptions())
	if err != nil {
		return fmt.Errorf("triangulate: metrics for %q: %w", key, err)
	}
	if t.Results == nil {
		t.Results = make(map[string]*metrics.Result, 1)
	}
	t.Results[key] = res

	return t.publishMetricColumns(key, res)
}
