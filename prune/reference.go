package prune

import (
	"context"
	"runtime"

	"github.com/sctriangulate/sctri/expr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReferenceOptions configures reference pruning.
type ReferenceOptions struct {
	// AbsThresh is the minimum viable overlap size; 0 derives it from the
	// cell count (10, or 30 from 50k cells).
	AbsThresh int
	// Workers caps the concurrent reference-cluster chunks; 0 means
	// min(groups, GOMAXPROCS).
	Workers int
	// Logger receives progress; nil means silent.
	Logger *zap.Logger
}

// Inclusiveness measures the overlap of a reference cluster (rKey=rCluster)
// and a query cluster (cKey=cCluster) over the same cells: the fraction of
// the reference covered by the intersection, and the fraction of the query
// covered by it. Either cluster being empty yields ErrEmptyCluster.
func Inclusiveness(obs *expr.Frame, rKey, rCluster, cKey, cCluster string) (fractionR, fractionC float64, err error) {
	rCol, err := obs.Str(rKey)
	if err != nil {
		return 0, 0, err
	}
	cCol, err := obs.Str(cKey)
	if err != nil {
		return 0, 0, err
	}

	var nR, nC, both int
	for i := range rCol {
		inR := rCol[i] == rCluster
		inC := cCol[i] == cCluster
		if inR {
			nR++
		}
		if inC {
			nC++
		}
		if inR && inC {
			both++
		}
	}
	if nR == 0 || nC == 0 {
		return 0, 0, ErrEmptyCluster
	}

	return float64(both) / float64(nR), float64(both) / float64(nC), nil
}

// Reference audits every won cluster against a trusted annotation. Each
// reference cluster is one chunk: inside it, a won cluster keeps its label
// when its won cells here cover ≥60% of its home cluster, claim ≥5% of the
// chunk, or exceed the absolute size floor; otherwise its cells fall back
// to "reference@cluster". Only won cells count: cells that carry the
// annotation but were won by another key do not defend the cluster.
// Chunks run concurrently on a bounded pool; the pruned column comes back
// in the original row order.
func Reference(ctx context.Context, obs *expr.Frame, reference string, sizes expr.SizeMap, opts ReferenceOptions) error {
	log := nopIfNil(opts.Logger)
	raw, err := obs.Str(ColRaw)
	if err != nil {
		return ErrNoRawColumn
	}
	groups, err := obs.GroupBy(reference)
	if err != nil {
		return err
	}

	thresh := opts.AbsThresh
	if thresh <= 0 {
		thresh = AbsThreshold(len(raw))
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(groups) {
		workers = len(groups)
	}
	log.Info("reference pruning",
		zap.Int("chunks", len(groups)),
		zap.Int("workers", workers))

	results := make([][]string, len(groups))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for gi := range groups {
		gi := gi
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk, err := referenceChunk(raw, reference, groups[gi], sizes, thresh)
			if err != nil {
				return err
			}
			results[gi] = chunk

			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	pruned := append([]string(nil), raw...)
	for gi, grp := range groups {
		for pos, i := range grp.Rows {
			pruned[i] = results[gi][pos]
		}
	}

	return obs.SetStr(ColPruned, pruned)
}

// referenceChunk decides the fate of every won cluster overlapping one
// reference cluster, then folds pruned singletons into the chunk's most
// abundant label. The decision runs on the chunk's raw value counts, not
// annotation overlaps: n won cells here against the cluster's full home
// size and against the chunk size.
func referenceChunk(raw []string, reference string, grp expr.Group, sizes expr.SizeMap, thresh int) ([]string, error) {
	chunk := make([]string, len(grp.Rows))
	for pos, i := range grp.Rows {
		chunk[pos] = raw[i]
	}
	counts := expr.CountLabels(chunk)

	mapping := make(map[string]string, len(counts.Labels))
	for _, label := range counts.Labels {
		key, cluster, err := SplitLabel(label)
		if err != nil {
			return nil, err
		}
		n := counts.Of(label)
		home := sizes[key][cluster]
		if home == 0 {
			return nil, ErrEmptyCluster
		}
		toSelf := float64(n) / float64(home)
		toRef := float64(n) / float64(len(grp.Rows))
		switch {
		case toSelf >= selfInclusive:
			// nearly all of its home cluster was won here: keep regardless
			mapping[label] = label
		case toRef >= smallFraction:
			// claims a decent share of the reference: keep
			mapping[label] = label
		case n > thresh:
			// thin share but absolutely large: keep
			mapping[label] = label
		default:
			mapping[label] = JoinLabel(reference, grp.Value)
		}
	}

	out := make([]string, len(chunk))
	for pos, label := range chunk {
		out[pos] = mapping[label]
	}

	// singleton cleanup, for downstream differential contrasts
	counts2 := expr.CountLabels(out)
	top, _ := counts2.Max()
	for pos, label := range out {
		if counts2.Of(label) == 1 {
			out[pos] = top
		}
	}

	return out, nil
}
