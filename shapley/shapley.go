package shapley

// maxPlayers bounds the coalition enumeration (2^n subsets).
const maxPlayers = 16

// Strengths converts a payoff layer (nPlayers×nMetrics) into per-player
// strengths: within each metric the players are ranked ascending with
// Rankdata, and a player's strength is the sum of its ranks. Higher is
// better for every metric in the layer; callers negate "lower is better"
// metrics before building the layer.
func Strengths(layer [][]float64) ([]float64, error) {
	n := len(layer)
	if n == 0 || len(layer[0]) == 0 {
		return nil, ErrEmptyLayer
	}
	m := len(layer[0])
	for _, row := range layer {
		if len(row) != m {
			return nil, ErrRaggedLayer
		}
	}
	strength := make([]float64, n)
	col := make([]float64, n)
	for j := 0; j < m; j++ {
		for p := 0; p < n; p++ {
			col[p] = layer[p][j]
		}
		for p, r := range Rankdata(col) {
			strength[p] += r
		}
	}

	return strength, nil
}

// Value computes the Shapley value of player i under the coalition game
// v(S) = max strength in S, v(∅) = 0. The payoff layer is ranked with
// Strengths first, so the value reflects how often the player's metric
// profile dominates every possible coalition of competitors.
//
// Complexity: O(2^(n-1)·n) over n players; n is the number of annotation
// keys (a handful), and n > 16 errors rather than burning the CPU.
func Value(i int, layer [][]float64) (float64, error) {
	strength, err := Strengths(layer)
	if err != nil {
		return 0, err
	}

	return valueOf(i, strength)
}

// Values computes the Shapley value of every player at once, sharing the
// rank pass.
func Values(layer [][]float64) ([]float64, error) {
	strength, err := Strengths(layer)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(strength))
	for i := range strength {
		v, err := valueOf(i, strength)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

// valueOf enumerates coalitions of the other players as bitmasks.
func valueOf(i int, strength []float64) (float64, error) {
	n := len(strength)
	if i < 0 || i >= n {
		return 0, ErrPlayerOutOfRange
	}
	if n > maxPlayers {
		return 0, ErrTooManyPlayers
	}

	others := make([]int, 0, n-1)
	for p := 0; p < n; p++ {
		if p != i {
			others = append(others, p)
		}
	}

	fact := factorials(n)
	total := 0.0
	for mask := 0; mask < 1<<len(others); mask++ {
		s := 0
		best := 0.0 // v(∅) = 0
		for b, p := range others {
			if mask&(1<<b) == 0 {
				continue
			}
			s++
			if strength[p] > best {
				best = strength[p]
			}
		}
		marginal := strength[i] - best
		if marginal < 0 {
			marginal = 0 // max game: adding i to a stronger coalition changes nothing
		}
		weight := fact[s] * fact[n-s-1] / fact[n]
		total += weight * marginal
	}

	return total, nil
}

// factorials returns [0!..n!] as float64.
func factorials(n int) []float64 {
	f := make([]float64, n+1)
	f[0] = 1
	for k := 1; k <= n; k++ {
		f[k] = f[k-1] * float64(k)
	}

	return f
}
