// Package config loads the pipeline run configuration from a YAML file,
// with sane defaults and environment overrides for the paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sctriangulate/sctri/metrics"
	"github.com/sctriangulate/sctri/triangulate"
	"gopkg.in/yaml.v3"
)

// ErrInvalid flags a configuration that cannot drive a run.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds everything one consensus run needs.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Run     RunConfig     `yaml:"run"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig names the expression matrix and cell annotations on disk.
type InputConfig struct {
	// MatrixPath is the cells×genes TSV ("cell" header, one gene per column).
	MatrixPath string `yaml:"matrix_path"`
	// ObsPath is the per-cell annotation TSV ("barcode" header); barcodes
	// must match the matrix row order.
	ObsPath string `yaml:"obs_path"`
	// Log1p applies ln(1+x) to the matrix after loading.
	Log1p bool `yaml:"log1p"`
}

// RunConfig configures the pipeline proper.
type RunConfig struct {
	// Query lists the competing annotation columns.
	Query []string `yaml:"query"`
	// Reference is the trusted annotation column.
	Reference string `yaml:"reference"`
	// OutDir receives snapshots, tables and the celltype sheet.
	OutDir string `yaml:"outdir"`
	// Workers caps concurrency; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// WinFractionCutoff invalidates clusters under this win fraction.
	WinFractionCutoff float64 `yaml:"win_fraction_cutoff"`
	// AbsThreshold pins the minimum viable cluster size; 0 derives it
	// from the cell count.
	AbsThreshold int `yaml:"abs_threshold"`
	// AssessPruned scores the pruned labeling as one more annotation.
	AssessPruned bool `yaml:"assess_pruned"`
}

// MetricsConfig mirrors the per-key metric options.
type MetricsConfig struct {
	TopMarkers  int      `yaml:"top_markers"`
	PoolMarkers int      `yaml:"pool_markers"`
	Artifacts   []string `yaml:"artifacts"`
	ScaleSCCAF  bool     `yaml:"scale_sccaf"`
	Components  int      `yaml:"components"`
	DoubletSims int      `yaml:"doublet_sims"`
	Neighbors   int      `yaml:"neighbors"`
	Seed        int64    `yaml:"seed"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the defaults the pipeline runs with.
func DefaultConfig() *Config {
	mo := metrics.DefaultOptions()

	return &Config{
		Run: RunConfig{
			OutDir:            "sctri_out",
			WinFractionCutoff: 0.25,
		},
		Metrics: MetricsConfig{
			TopMarkers:  mo.TopMarkers,
			PoolMarkers: mo.PoolMarkers,
			ScaleSCCAF:  mo.ScaleSCCAF,
			Components:  mo.Components,
			DoubletSims: mo.DoubletSims,
			Neighbors:   mo.Neighbors,
			Seed:        mo.Seed,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config over the defaults. A missing file yields the
// defaults; SCTRI_MATRIX, SCTRI_OBS and SCTRI_OUTDIR override the paths.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()

			return cfg, nil
		}

		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("SCTRI_MATRIX"); p != "" {
		c.Input.MatrixPath = p
	}
	if p := os.Getenv("SCTRI_OBS"); p != "" {
		c.Input.ObsPath = p
	}
	if p := os.Getenv("SCTRI_OUTDIR"); p != "" {
		c.Run.OutDir = p
	}
}

// Validate rejects configurations that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.Input.MatrixPath == "":
		return fmt.Errorf("%w: input.matrix_path is required", ErrInvalid)
	case c.Input.ObsPath == "":
		return fmt.Errorf("%w: input.obs_path is required", ErrInvalid)
	case len(c.Run.Query) == 0:
		return fmt.Errorf("%w: run.query needs at least one annotation", ErrInvalid)
	case c.Run.Reference == "":
		return fmt.Errorf("%w: run.reference is required", ErrInvalid)
	case c.Run.WinFractionCutoff < 0 || c.Run.WinFractionCutoff > 1:
		return fmt.Errorf("%w: run.win_fraction_cutoff must be in [0,1]", ErrInvalid)
	case c.Metrics.TopMarkers <= 0 || c.Metrics.PoolMarkers <= 0:
		return fmt.Errorf("%w: metrics marker counts must be positive", ErrInvalid)
	case c.Metrics.Components <= 0 || c.Metrics.Neighbors <= 0:
		return fmt.Errorf("%w: metrics.components and metrics.neighbors must be positive", ErrInvalid)
	}

	return nil
}

// MetricOptions converts the metrics section into the runtime options.
func (c *Config) MetricOptions() metrics.Options {
	mo := metrics.DefaultOptions()
	mo.TopMarkers = c.Metrics.TopMarkers
	mo.PoolMarkers = c.Metrics.PoolMarkers
	mo.ScaleSCCAF = c.Metrics.ScaleSCCAF
	mo.Components = c.Metrics.Components
	mo.DoubletSims = c.Metrics.DoubletSims
	mo.Neighbors = c.Metrics.Neighbors
	mo.Seed = c.Metrics.Seed
	if len(c.Metrics.Artifacts) > 0 {
		mo.Artifacts = make(map[string]struct{}, len(c.Metrics.Artifacts))
		for _, g := range c.Metrics.Artifacts {
			mo.Artifacts[g] = struct{}{}
		}
	}

	return mo
}

// PipelineOptions converts the run section into pipeline options. The
// logger is the caller's to attach.
func (c *Config) PipelineOptions() []triangulate.Option {
	opts := []triangulate.Option{
		triangulate.WithWorkers(c.Run.Workers),
		triangulate.WithMetricOptions(c.MetricOptions()),
		triangulate.WithWinFractionCutoff(c.Run.WinFractionCutoff),
		triangulate.WithAbsThreshold(c.Run.AbsThreshold),
	}
	if c.Run.AssessPruned {
		opts = append(opts, triangulate.WithPrunedAssessment())
	}

	return opts
}
