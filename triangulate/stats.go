package triangulate

import (
	"io"
	"sort"
	"strconv"

	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/prune"
)

// PruneStats compares cluster occupancy before and after pruning: one row
// per label seen in either column, ordered by pruned count descending
// (label ascending on ties).
type PruneStats struct {
	Clusters []string
	Raw      []int
	Pruned   []int
}

// PruneStatistics tallies the raw and pruned columns. A label absent from
// one column counts zero there; clusters pruning dissolved are the rows
// with Pruned == 0.
func (t *Triangulate) PruneStatistics() (*PruneStats, error) {
	rawCol, err := t.M.Obs.Str(prune.ColRaw)
	if err != nil {
		return nil, ErrNotComputed
	}
	prunedCol, err := t.M.Obs.Str(prune.ColPruned)
	if err != nil {
		return nil, ErrNotComputed
	}

	raw := expr.CountLabels(rawCol)
	pruned := expr.CountLabels(prunedCol)

	seen := make(map[string]bool, len(raw.Labels)+len(pruned.Labels))
	var labels []string
	for _, set := range [][]string{pruned.Labels, raw.Labels} {
		for _, l := range set {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		pi, pj := pruned.Of(labels[i]), pruned.Of(labels[j])
		if pi != pj {
			return pi > pj
		}

		return labels[i] < labels[j]
	})

	s := &PruneStats{
		Clusters: labels,
		Raw:      make([]int, len(labels)),
		Pruned:   make([]int, len(labels)),
	}
	for i, l := range labels {
		s.Raw[i] = raw.Of(l)
		s.Pruned[i] = pruned.Of(l)
	}

	return s, nil
}

// WriteTSV dumps the table with a header row.
func (s *PruneStats) WriteTSV(w io.Writer) error {
	if _, err := io.WriteString(w, "cluster\traw\tpruned\n"); err != nil {
		return err
	}
	for i, cl := range s.Clusters {
		line := cl + "\t" + strconv.Itoa(s.Raw[i]) + "\t" + strconv.Itoa(s.Pruned[i]) + "\n"
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}

	return nil
}
