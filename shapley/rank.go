package shapley

import "sort"

// Rankdata assigns average ranks to the values of x, 1-based and ascending:
// the smallest value gets rank 1, ties share the mean of the ranks they
// would occupy. Matches scipy.stats.rankdata(method="average").
//
// Complexity: O(n log n) time, O(n) space.
func Rankdata(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[order[j+1]] == x[order[i]] {
			j++
		}
		// positions i..j share the same value: average of ranks i+1..j+1
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	return ranks
}
