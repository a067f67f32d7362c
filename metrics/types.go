package metrics

import "go.uber.org/zap"

// Metric column names. Scores in obs columns are namespaced "metric@key".
const (
	MetricReassign = "reassign"
	MetricTFIDF10  = "tfidf10"
	MetricTFIDF5   = "tfidf5"
	MetricSCCAF    = "sccaf"
	MetricDoublet  = "doublet"
)

// TotalMetrics lists every metric in stable column order.
func TotalMetrics() []string {
	return []string{MetricReassign, MetricTFIDF10, MetricTFIDF5, MetricSCCAF, MetricDoublet}
}

// ShapleyMetrics lists the metrics that feed the election. Doublet burden is
// a veto signal, not a quality payoff, so it stays out of the game.
func ShapleyMetrics() []string {
	return []string{MetricReassign, MetricTFIDF10, MetricTFIDF5, MetricSCCAF}
}

// Scores maps cluster label → score for one metric.
type Scores map[string]float64

// Options configures metric computation for one annotation key.
type Options struct {
	// TopMarkers ranks kept per cluster by MarkerGenes.
	TopMarkers int
	// PoolMarkers taken per cluster when pooling genes for the reassign score.
	PoolMarkers int
	// Artifacts are gene names excluded from marker ranking (ribosomal,
	// mitochondrial, dissociation-stress sets and the like).
	Artifacts map[string]struct{}
	// ScaleSCCAF z-scores genes before the SCCAF embedding.
	ScaleSCCAF bool
	// Components of the PCA embedding behind SCCAF and doublet scoring.
	Components int
	// DoubletSims is the number of simulated doublets; 0 means one per cell.
	DoubletSims int
	// Neighbors is the kNN size for doublet scoring.
	Neighbors int
	// Seed drives the doublet pair sampling.
	Seed int64
	// Logger receives per-stage progress; nil means silent.
	Logger *zap.Logger
}

// DefaultOptions mirrors the defaults the pipeline runs with.
func DefaultOptions() Options {
	return Options{
		TopMarkers:  100,
		PoolMarkers: 30,
		ScaleSCCAF:  true,
		Components:  30,
		Neighbors:   20,
		Seed:        1,
	}
}

// validate rejects nonsensical option values.
func (o Options) validate() error {
	if o.TopMarkers <= 0 || o.PoolMarkers <= 0 || o.Components <= 0 || o.Neighbors <= 0 {
		return ErrBadOptions
	}

	return nil
}

// logger never returns nil.
func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}

	return o.Logger
}

// Result bundles everything ComputeKey learned about one annotation key.
type Result struct {
	Key      string
	Clusters []string // usable clusters, sorted

	// Metrics holds cluster→score per metric name.
	Metrics map[string]Scores
	// PerCell holds, per metric, one value per cell of the original matrix:
	// the score of the cell's cluster, 0 for filtered singleton clusters.
	PerCell map[string][]float64

	Markers   map[string][]string // cluster → ranked marker genes
	Exclusive map[string][]string // cluster → tf-idf exclusive genes (depth 10)

	ConfusionReassign *Confusion
	ConfusionSCCAF    *Confusion
}
