package triangulate

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sctriangulate/sctri/prune"
	"go.uber.org/zap"
)

// snapshotName maps a stage to its checkpoint file under Dir.
func (t *Triangulate) snapshotName(stage string) string {
	return filepath.Join(t.Dir, stage+".snap.zst")
}

// checkpoint snapshots after a stage when an output directory is set.
func (t *Triangulate) checkpoint(stage string) error {
	if t.Dir == "" {
		return nil
	}

	return t.Snapshot(t.snapshotName(stage))
}

// LazyRun runs the whole pipeline: metrics, election, rank pruning,
// win-fraction invalidation and reassign pruning, with a checkpoint after
// each expensive stage. The goodness and prune-statistics tables land in
// Dir alongside the celltype sheet; with WithPrunedAssessment the pruned
// labeling is scored as one more annotation at the end.
func (t *Triangulate) LazyRun(ctx context.Context) error {
	if err := t.ComputeMetrics(ctx); err != nil {
		return err
	}
	if err := t.writeConfusions(); err != nil {
		return err
	}
	if err := t.checkpoint(StageMetrics); err != nil {
		return err
	}

	return t.resumeAfterMetrics(ctx)
}

// writeConfusions dumps each key's reassign and SCCAF confusion tables
// into Dir; skipped without a directory.
func (t *Triangulate) writeConfusions() error {
	for _, key := range t.Query {
		res, ok := t.Results[key]
		if !ok {
			continue
		}
		if res.ConfusionReassign != nil {
			if err := t.writeTable("confusion_reassign_"+key+".tsv", res.ConfusionReassign.WriteTSV); err != nil {
				return err
			}
		}
		if res.ConfusionSCCAF != nil {
			if err := t.writeTable("confusion_sccaf_"+key+".tsv", res.ConfusionSCCAF.WriteTSV); err != nil {
				return err
			}
		}
	}

	return nil
}

func (t *Triangulate) resumeAfterMetrics(ctx context.Context) error {
	if err := t.ComputeShapley(ctx); err != nil {
		return err
	}
	if err := t.checkpoint(StageShapley); err != nil {
		return err
	}

	return t.resumeAfterShapley(ctx)
}

func (t *Triangulate) resumeAfterShapley(ctx context.Context) error {
	if err := t.Pruning(ctx, MethodRank, PruneOptions{}); err != nil {
		return err
	}
	if err := t.writeTable("goodness.tsv", t.Goodness.WriteTSV); err != nil {
		return err
	}
	if err := t.checkpoint(StageRank); err != nil {
		return err
	}

	return t.resumeAfterRank(ctx)
}

func (t *Triangulate) resumeAfterRank(ctx context.Context) error {
	if err := t.AddToInvalidByWinFraction(t.opts.winCutoff); err != nil {
		return err
	}
	if err := t.Pruning(ctx, MethodReassign, PruneOptions{Remove1: true}); err != nil {
		return err
	}

	stats, err := t.PruneStatistics()
	if err != nil {
		return err
	}
	if err := t.writeTable("prune_statistics.tsv", stats.WriteTSV); err != nil {
		return err
	}

	if t.opts.assessPruned {
		if err := t.AssessKey(ctx, prune.ColPruned); err != nil {
			return err
		}
	}
	if err := t.writeTable("obs.tsv", t.M.Obs.WriteTSV); err != nil {
		return err
	}
	t.log.Info("pipeline done",
		zap.Int("cells", t.M.Obs.Len()), zap.Int("invalid", len(t.Invalid)))

	return nil
}

// writeTable writes one TSV product into Dir; skipped without a directory.
func (t *Triangulate) writeTable(name string, dump func(w io.Writer) error) error {
	if t.Dir == "" {
		return nil
	}
	f, err := os.Create(filepath.Join(t.Dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := dump(f); err != nil {
		return err
	}

	return f.Close()
}

// SalvageRun restores the checkpoint a crashed LazyRun left behind and
// replays the remaining stages. The stage names the checkpoint, not the
// next stage to run.
func SalvageRun(ctx context.Context, path, stage string, opts ...Option) (*Triangulate, error) {
	t, err := Restore(path, opts...)
	if err != nil {
		return nil, err
	}
	t.log.Info("salvaging run", zap.String("stage", stage), zap.String("path", path))

	switch stage {
	case StageMetrics:
		err = t.resumeAfterMetrics(ctx)
	case StageShapley:
		err = t.resumeAfterShapley(ctx)
	case StageRank:
		err = t.resumeAfterRank(ctx)
	default:
		return nil, ErrUnknownStage
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}
