package triangulate

import (
	"fmt"

	"github.com/sctriangulate/sctri/metrics"
	"github.com/sctriangulate/sctri/prune"
	"go.uber.org/zap"
)

// PenalizeArtifact voids stamped clusters ("key@cluster") a curator knows
// to be artifacts: each stamp joins the invalid set, and every metric score
// of the stamped key is zeroed for the cells of that cluster — in the
// published "metric@key" obs columns and in the per-cell payoffs the
// election reads — so the cluster can never win a cell. Requires metrics
// for the stamped keys.
func (t *Triangulate) PenalizeArtifact(stamps []string) error {
	for _, stamp := range stamps {
		key, cluster, err := prune.SplitLabel(stamp)
		if err != nil {
			return err
		}
		col, err := t.M.Obs.Str(key)
		if err != nil {
			return err
		}
		res, ok := t.Results[key]
		if !ok {
			return fmt.Errorf("triangulate: no metrics for %q: %w", key, ErrNotComputed)
		}

		for _, metric := range metrics.TotalMetrics() {
			masked := append([]float64(nil), res.PerCell[metric]...)
			for i, v := range col {
				if v == cluster {
					masked[i] = 0
				}
			}
			res.PerCell[metric] = masked
			if err := t.M.Obs.SetNum(metric+"@"+key, masked); err != nil {
				return err
			}
		}
	}
	t.AddToInvalid(stamps)
	t.log.Info("penalized artifact clusters", zap.Strings("stamps", stamps))

	return nil
}
