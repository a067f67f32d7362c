package triangulate

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/metrics"
	"github.com/sctriangulate/sctri/prune"
	"go.uber.org/zap"
)

// Pipeline stage names, used in snapshot file names and for SalvageRun.
const (
	StageMetrics = "after_metrics"
	StageShapley = "after_shapley"
	StageRank    = "after_rank_pruning"
)

// snapshotVersion guards the on-disk layout.
const snapshotVersion = 1

// snapshotState is the gob payload: the matrix, the obs frame column by
// column, and every stage product. Confusion tables are recomputable and
// stay out; a restored run rebuilds them on the next metric pass.
type snapshotState struct {
	Version int

	Rows, Cols int
	Data       []float64
	Vars       []string

	IDs      []string
	StrNames []string
	StrCols  [][]string
	NumNames []string
	NumCols  [][]float64

	Query     []string
	Reference string
	Dir       string

	Results map[string]*metrics.Result
	Invalid []string

	GoodnessClusters []string
	GoodnessMeanRank []float64
	GoodnessWinFrac  []float64
}

// Snapshot writes a zstd-compressed gob checkpoint of the whole pipeline
// state to path.
func (t *Triangulate) Snapshot(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(enc).Encode(t.state()); err != nil {
		enc.Close()

		return fmt.Errorf("triangulate: encoding snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	t.log.Info("snapshot written", zap.String("path", path))

	return f.Close()
}

func (t *Triangulate) state() *snapshotState {
	s := &snapshotState{
		Version:   snapshotVersion,
		Rows:      t.M.X.Rows(),
		Cols:      t.M.X.Cols(),
		Data:      t.M.X.Raw(),
		Vars:      t.M.Vars,
		IDs:       t.M.Obs.IDs(),
		StrNames:  t.M.Obs.StrNames(),
		NumNames:  t.M.Obs.NumNames(),
		Query:     t.Query,
		Reference: t.Reference,
		Dir:       t.Dir,
		Results:   strippedResults(t.Results),
		Invalid:   t.Invalid,
	}
	for _, name := range s.StrNames {
		col, _ := t.M.Obs.Str(name)
		s.StrCols = append(s.StrCols, col)
	}
	for _, name := range s.NumNames {
		col, _ := t.M.Obs.Num(name)
		s.NumCols = append(s.NumCols, col)
	}
	if t.Goodness != nil {
		s.GoodnessClusters = t.Goodness.Clusters
		s.GoodnessMeanRank = t.Goodness.MeanRank
		s.GoodnessWinFrac = t.Goodness.WinFraction
	}

	return s
}

// strippedResults shallow-copies results without their confusion tables,
// which gob cannot carry and restore does not need.
func strippedResults(results map[string]*metrics.Result) map[string]*metrics.Result {
	if results == nil {
		return nil
	}
	out := make(map[string]*metrics.Result, len(results))
	for key, res := range results {
		cp := *res
		cp.ConfusionReassign = nil
		cp.ConfusionSCCAF = nil
		out[key] = &cp
	}

	return out
}

// Restore rebuilds a pipeline from a Snapshot file. Options are applied
// fresh; they are run configuration, not state.
func Restore(path string, opts ...Option) (*Triangulate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	defer dec.Close()

	var s snapshotState
	if err := gob.NewDecoder(dec).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadSnapshot, s.Version)
	}

	return fromState(&s, opts...)
}

func fromState(s *snapshotState, opts ...Option) (*Triangulate, error) {
	x, err := expr.NewDenseData(s.Rows, s.Cols, s.Data)
	if err != nil {
		return nil, err
	}
	obs, err := expr.NewFrame(s.IDs)
	if err != nil {
		return nil, err
	}
	for i, name := range s.StrNames {
		if err := obs.SetStr(name, s.StrCols[i]); err != nil {
			return nil, err
		}
	}
	for i, name := range s.NumNames {
		if err := obs.SetNum(name, s.NumCols[i]); err != nil {
			return nil, err
		}
	}
	m, err := expr.NewMatrix(x, s.Vars, obs)
	if err != nil {
		return nil, err
	}

	t, err := New(m, s.Query, s.Reference, s.Dir, opts...)
	if err != nil {
		return nil, err
	}
	t.Results = s.Results
	t.Invalid = s.Invalid
	if len(s.GoodnessClusters) > 0 {
		t.Goodness, err = prune.NewGoodness(s.GoodnessClusters, s.GoodnessMeanRank, s.GoodnessWinFrac)
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}
