package shapley

import "github.com/sctriangulate/sctri/expr"

// WhichToTake picks the winning annotation key for one cell.
//
// Inputs are parallel slices over the query keys: values are the cell's
// Shapley values, clusterRow the cell's cluster label under each key.
// The largest value wins; exact ties prefer the smaller cluster (a finer
// annotation carries more information), and any remaining tie resolves to
// the earliest key in query order, which keeps the election deterministic.
func WhichToTake(values []float64, query []string, clusterRow []string, sizes expr.SizeMap) (string, error) {
	if len(query) == 0 || len(values) != len(query) || len(clusterRow) != len(query) {
		return "", ErrBadQuery
	}

	best := 0
	for i := 1; i < len(query); i++ {
		if values[i] > values[best] {
			best = i
			continue
		}
		if values[i] == values[best] && clusterSize(sizes, query[i], clusterRow[i]) < clusterSize(sizes, query[best], clusterRow[best]) {
			best = i
		}
	}

	return query[best], nil
}

// clusterSize resolves a cluster's size; unknown clusters rank last.
func clusterSize(sizes expr.SizeMap, key, cluster string) int {
	byCluster, ok := sizes[key]
	if !ok {
		return int(^uint(0) >> 1)
	}
	n, ok := byCluster[cluster]
	if !ok {
		return int(^uint(0) >> 1)
	}

	return n
}
