package metrics

import (
	"math"

	"github.com/sctriangulate/sctri/expr"
)

// Softmax trainer knobs. Features are a z-scored PCA embedding, so a fixed
// schedule converges on every input we feed it.
const (
	sccafEpochs = 300
	sccafRate   = 0.1
	sccafL2     = 1e-4
)

// SCCAFScore estimates cluster separability the SCCAF way: embed the cells
// (optional gene scaling, then PCA, then per-component z-scoring), hold out
// every other cell of each cluster, train a multinomial logistic classifier
// on the rest, and score each cluster by its held-out recall.
func SCCAFScore(m *expr.Matrix, key string, opts Options) (Scores, *Confusion, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	groups, err := m.Obs.GroupBy(key)
	if err != nil {
		return nil, nil, err
	}
	if len(groups) == 0 {
		return nil, nil, ErrNoClusters
	}

	x := m.X
	if opts.ScaleSCCAF {
		if x, _, _, err = expr.ScaleColumns(x); err != nil {
			return nil, nil, err
		}
	}
	embed, err := expr.PCA(x, opts.Components)
	if err != nil {
		return nil, nil, err
	}
	if embed, _, _, err = expr.ScaleColumns(embed); err != nil {
		return nil, nil, err
	}

	// Stratified even/odd split inside each cluster keeps both halves
	// populated for every cluster with at least two cells.
	labels := make([]string, len(groups))
	class := make([]int, embed.Rows())
	var trainRows, testRows []int
	for k, g := range groups {
		labels[k] = g.Value
		for pos, i := range g.Rows {
			class[i] = k
			if pos%2 == 0 {
				trainRows = append(trainRows, i)
			} else {
				testRows = append(testRows, i)
			}
		}
	}

	w := trainSoftmax(embed, class, trainRows, len(groups))

	conf := NewConfusion(labels)
	for _, i := range testRows {
		row, err := embed.RowView(i)
		if err != nil {
			return nil, nil, err
		}
		conf.Add(labels[class[i]], labels[predictSoftmax(w, row)])
	}

	scores := make(Scores, len(labels))
	for _, l := range labels {
		scores[l] = conf.Recall(l)
	}

	return scores, conf, nil
}

// trainSoftmax fits one weight row per class (bias last) by batch gradient
// descent with L2 shrinkage. Zero init keeps the fit deterministic.
func trainSoftmax(embed *expr.Dense, class, rows []int, nClasses int) [][]float64 {
	d := embed.Cols()
	w := make([][]float64, nClasses)
	for k := range w {
		w[k] = make([]float64, d+1)
	}
	if len(rows) == 0 {
		return w
	}

	p := make([]float64, nClasses)
	grad := make([][]float64, nClasses)
	for k := range grad {
		grad[k] = make([]float64, d+1)
	}
	inv := 1.0 / float64(len(rows))
	for epoch := 0; epoch < sccafEpochs; epoch++ {
		for k := range grad {
			for j := range grad[k] {
				grad[k][j] = 0
			}
		}
		for _, i := range rows {
			row, err := embed.RowView(i)
			if err != nil {
				continue // rows were validated by the caller
			}
			softmax(w, row, p)
			for k := 0; k < nClasses; k++ {
				delta := p[k]
				if k == class[i] {
					delta -= 1
				}
				gk := grad[k]
				for j, v := range row {
					gk[j] += delta * v
				}
				gk[d] += delta
			}
		}
		for k := 0; k < nClasses; k++ {
			for j := 0; j <= d; j++ {
				w[k][j] -= sccafRate * (grad[k][j]*inv + sccafL2*w[k][j])
			}
		}
	}

	return w
}

// softmax fills p with class probabilities for one feature row.
func softmax(w [][]float64, row []float64, p []float64) {
	maxZ := math.Inf(-1)
	for k := range w {
		z := w[k][len(row)]
		for j, v := range row {
			z += w[k][j] * v
		}
		p[k] = z
		if z > maxZ {
			maxZ = z
		}
	}
	sum := 0.0
	for k := range p {
		p[k] = math.Exp(p[k] - maxZ)
		sum += p[k]
	}
	for k := range p {
		p[k] /= sum
	}
}

// predictSoftmax returns the argmax class; first wins ties.
func predictSoftmax(w [][]float64, row []float64) int {
	best, bestZ := 0, math.Inf(-1)
	for k := range w {
		z := w[k][len(row)]
		for j, v := range row {
			z += w[k][j] * v
		}
		if z > bestZ {
			best, bestZ = k, z
		}
	}

	return best
}
