package triangulate

import (
	"sort"

	"go.uber.org/zap"
)

// AddToInvalid flags raw clusters ("key@cluster") for dissolution in the
// next reassign pruning. Duplicates are folded; the set stays sorted.
func (t *Triangulate) AddToInvalid(clusters []string) {
	seen := make(map[string]bool, len(t.Invalid)+len(clusters))
	for _, cl := range t.Invalid {
		seen[cl] = true
	}
	for _, cl := range clusters {
		if !seen[cl] {
			seen[cl] = true
			t.Invalid = append(t.Invalid, cl)
		}
	}
	sort.Strings(t.Invalid)
}

// AddToInvalidByWinFraction flags every cluster whose win fraction sits
// strictly under percent. Requires rank pruning to have run.
func (t *Triangulate) AddToInvalidByWinFraction(percent float64) error {
	if t.Goodness == nil {
		return ErrNoGoodness
	}
	low := t.Goodness.Below(percent)
	t.AddToInvalid(low)
	t.log.Info("invalidated by win fraction",
		zap.Float64("cutoff", percent), zap.Int("flagged", len(low)))

	return nil
}

// ClearInvalid drops every flag, curator-set and win-fraction alike.
func (t *Triangulate) ClearInvalid() { t.Invalid = nil }
