package prune

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Obs column names the strategies read and write.
const (
	// ColRaw is the per-cell consensus label "key@cluster" from the election.
	ColRaw = "raw"
	// ColPruned is where every strategy writes its result.
	ColPruned = "pruned"
	// ColConfidence carries the win fraction of the cell's raw cluster.
	ColConfidence = "confidence"
)

// Decision thresholds shared across strategies.
const (
	// smallAbs / largeAbs are the absolute cluster-size floors; the larger
	// one applies from bigN cells on.
	smallAbs = 10
	largeAbs = 30
	bigN     = 50000

	// smallFraction invalidates clusters that won under 5% of their home
	// cluster (reassign) or claim under 5% of a reference cluster.
	smallFraction = 0.05

	// selfInclusive keeps a won cluster that sits ≥60% inside one reference
	// cluster, no matter how small its share of the reference is.
	selfInclusive = 0.6
)

// AbsThreshold returns the minimum viable cluster size for a run of nCells.
func AbsThreshold(nCells int) int {
	if nCells >= bigN {
		return largeAbs
	}

	return smallAbs
}

// SplitLabel splits a "key@cluster" consensus label.
func SplitLabel(label string) (key, cluster string, err error) {
	at := strings.IndexByte(label, '@')
	if at <= 0 || at == len(label)-1 {
		return "", "", fmt.Errorf("%q: %w", label, ErrBadLabel)
	}

	return label[:at], label[at+1:], nil
}

// JoinLabel forms a "key@cluster" consensus label.
func JoinLabel(key, cluster string) string { return key + "@" + cluster }

// nopIfNil keeps loggers optional everywhere in this package.
func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}

	return log
}
