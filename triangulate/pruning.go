package triangulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sctriangulate/sctri/metrics"
	"github.com/sctriangulate/sctri/prune"
	"go.uber.org/zap"
)

// Method names a pruning strategy.
type Method string

const (
	// MethodRank builds the goodness table; no relabeling.
	MethodRank Method = "rank"
	// MethodReassign dissolves invalid clusters by centroid vote.
	MethodReassign Method = "reassign"
	// MethodReference audits won clusters against the reference annotation.
	MethodReference Method = "reference"
)

// PruneOptions tunes a single Pruning call.
type PruneOptions struct {
	// Discard names metrics excluded from rank pruning.
	Discard []string
	// Remove1 folds pruned singletons per reference cluster (reassign).
	Remove1 bool
}

// Pruning cleans the raw consensus labeling with one strategy. Rank fills
// the goodness table and seeds pruned=raw; reassign and reference rewrite
// the pruned column. Afterward the prefixed column tracks the pruned
// labels and, when an output directory is set, the reference→cell-cluster
// sheet is rewritten.
func (t *Triangulate) Pruning(ctx context.Context, method Method, opts PruneOptions) error {
	if !t.M.Obs.HasStr(prune.ColRaw) {
		return ErrNotComputed
	}
	t.log.Info("pruning", zap.String("method", string(method)))

	switch method {
	case MethodRank:
		if t.Results == nil {
			return ErrNotComputed
		}
		goodness, err := prune.Rank(t.queryResults(), t.M.Obs, t.Sizes, opts.Discard)
		if err != nil {
			return err
		}
		t.Goodness = goodness

	case MethodReassign:
		markers := make(map[string]map[string][]string, len(t.Query))
		for _, key := range t.Query {
			res, ok := t.Results[key]
			if !ok {
				return ErrNotComputed
			}
			markers[key] = res.Markers
		}
		ropts := prune.DefaultReassignOptions()
		ropts.AbsThresh = t.opts.absThresh
		ropts.Remove1 = opts.Remove1
		ropts.Reference = t.Reference
		ropts.Components = t.opts.metric.Components
		ropts.PoolMarkers = t.opts.metric.PoolMarkers
		ropts.Logger = t.log
		invalid, err := prune.Reassign(t.M, markers, t.Invalid, t.Sizes, ropts)
		if err != nil {
			return err
		}
		t.Invalid = invalid

	case MethodReference:
		err := prune.Reference(ctx, t.M.Obs, t.Reference, t.Sizes, prune.ReferenceOptions{
			AbsThresh: t.opts.absThresh,
			Workers:   t.opts.workers,
			Logger:    t.log,
		})
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	if err := t.prefixColumn(prune.ColPruned); err != nil {
		return err
	}
	if t.Dir == "" || method == MethodRank {
		return nil
	}

	return t.writeCelltypeSheet()
}

// queryResults filters Results down to the query keys, so extra assessed
// columns (like a scored pruned labeling) stay out of rank pruning.
func (t *Triangulate) queryResults() map[string]*metrics.Result {
	out := make(map[string]*metrics.Result, len(t.Query))
	for _, key := range t.Query {
		if res, ok := t.Results[key]; ok {
			out[key] = res
		}
	}

	return out
}

// writeCelltypeSheet dumps, per reference cluster, the pruned clusters its
// cells ended in. Two tab-separated columns: "ref@refCluster", label.
func (t *Triangulate) writeCelltypeSheet() error {
	f, err := os.Create(filepath.Join(t.Dir, "celltype.txt"))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := t.celltypeSheet(f); err != nil {
		return err
	}

	return f.Close()
}

func (t *Triangulate) celltypeSheet(w io.Writer) error {
	pruned, err := t.M.Obs.Str(prune.ColPruned)
	if err != nil {
		return err
	}
	groups, err := t.M.Obs.GroupBy(t.Reference)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, "reference\tcell_cluster\n"); err != nil {
		return err
	}
	for _, grp := range groups {
		seen := make(map[string]bool, 4)
		var labels []string
		for _, row := range grp.Rows {
			if !seen[pruned[row]] {
				seen[pruned[row]] = true
				labels = append(labels, pruned[row])
			}
		}
		sort.Strings(labels)
		ref := prune.JoinLabel(t.Reference, grp.Value)
		for _, label := range labels {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", ref, label); err != nil {
				return err
			}
		}
	}

	return nil
}
