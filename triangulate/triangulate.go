package triangulate

import (
	"runtime"

	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/metrics"
	"github.com/sctriangulate/sctri/prune"
	"go.uber.org/zap"
)

// Obs column names the pipeline writes beyond the per-metric ones.
const (
	// ColFinal is the per-cell winning annotation key from the election.
	ColFinal = "final_annotation"
	// ColPrefixed is the consensus label namespaced under the reference
	// cluster: "ref@refCluster|key@cluster".
	ColPrefixed = "prefixed"
)

// Triangulate drives the consensus pipeline over one expression matrix.
// Build it with New, then run stages in order (or let LazyRun do it).
type Triangulate struct {
	M         *expr.Matrix
	Query     []string // annotation keys competing in the election
	Reference string   // trusted annotation; always a member of Query
	Dir       string   // output directory; "" disables file outputs

	// Stage products. Nil/empty until the producing stage has run.
	Results  map[string]*metrics.Result
	Sizes    expr.SizeMap
	Goodness *prune.Goodness
	Invalid  []string // clusters flagged for reassign pruning, sorted

	opts options
	log  *zap.Logger
}

type options struct {
	workers      int
	metric       metrics.Options
	winCutoff    float64
	absThresh    int
	assessPruned bool
	log          *zap.Logger
}

func defaultPipelineOptions() options {
	return options{
		metric:    metrics.DefaultOptions(),
		winCutoff: 0.25,
	}
}

// Option tweaks pipeline behavior at construction time.
type Option func(*options)

// WithLogger attaches a structured logger; nil keeps the pipeline silent.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithWorkers caps concurrent per-key metric runs and per-chunk election
// workers; 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithMetricOptions replaces the metric computation defaults wholesale.
func WithMetricOptions(mo metrics.Options) Option {
	return func(o *options) { o.metric = mo }
}

// WithWinFractionCutoff sets the win fraction under which LazyRun
// invalidates a cluster before reassign pruning. Default 0.25.
func WithWinFractionCutoff(p float64) Option {
	return func(o *options) { o.winCutoff = p }
}

// WithAbsThreshold pins the minimum viable cluster size; 0 derives it
// from the cell count.
func WithAbsThreshold(n int) Option {
	return func(o *options) { o.absThresh = n }
}

// WithPrunedAssessment makes LazyRun score the pruned labeling as a
// sixth annotation key after reassign pruning.
func WithPrunedAssessment() Option {
	return func(o *options) { o.assessPruned = true }
}

// New validates the inputs and builds a pipeline. Every query key and the
// reference must be obs string columns; the reference joins the query if it
// is not already a member. Cluster sizes are tallied up front.
func New(m *expr.Matrix, query []string, reference, dir string, opts ...Option) (*Triangulate, error) {
	if m == nil {
		return nil, expr.ErrNilMatrix
	}
	if len(query) == 0 {
		return nil, ErrNoQuery
	}

	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	keys := make([]string, 0, len(query)+1)
	seen := make(map[string]bool, len(query)+1)
	for _, key := range query {
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	if !seen[reference] {
		keys = append(keys, reference)
	}
	for _, key := range keys {
		if !m.Obs.HasStr(key) {
			return nil, expr.ErrUnknownColumn
		}
	}

	sizes, err := expr.Sizes(m.Obs, keys)
	if err != nil {
		return nil, err
	}

	return &Triangulate{
		M:         m,
		Query:     keys,
		Reference: reference,
		Dir:       dir,
		Sizes:     sizes,
		opts:      o,
		log:       nopIfNil(o.log),
	}, nil
}

// workerCount resolves the configured worker cap against the job count.
func (t *Triangulate) workerCount(jobs int) int {
	w := t.opts.workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > jobs {
		w = jobs
	}
	if w < 1 {
		w = 1
	}

	return w
}

// metricOptions returns the per-key metric options with the pipeline
// logger attached.
func (t *Triangulate) metricOptions() metrics.Options {
	mo := t.opts.metric
	mo.Logger = t.log

	return mo
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}

	return log
}
