package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sctriangulate/sctri/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadMissingFile falls back to the defaults.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sctri_out", cfg.Run.OutDir)
	assert.Equal(t, 0.25, cfg.Run.WinFractionCutoff)
	assert.Equal(t, 100, cfg.Metrics.TopMarkers)
	assert.Equal(t, "info", cfg.Logging.Level)
}

// TestLoadOverridesDefaults merges the file over the defaults.
func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  matrix_path: counts.tsv
  obs_path: cells.tsv
  log1p: true
run:
  query: [leiden1, leiden2]
  reference: azimuth
  win_fraction_cutoff: 0.4
metrics:
  top_markers: 50
  artifacts: [MT-CO1]
logging:
  level: debug
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"leiden1", "leiden2"}, cfg.Run.Query)
	assert.Equal(t, 0.4, cfg.Run.WinFractionCutoff)
	assert.Equal(t, 50, cfg.Metrics.TopMarkers)
	assert.Equal(t, "sctri_out", cfg.Run.OutDir, "unset fields keep their defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)

	mo := cfg.MetricOptions()
	assert.Equal(t, 50, mo.TopMarkers)
	assert.Contains(t, mo.Artifacts, "MT-CO1")
}

// TestEnvOverrides let the environment rewrite the paths.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCTRI_MATRIX", "/data/m.tsv")
	t.Setenv("SCTRI_OUTDIR", "/data/out")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/data/m.tsv", cfg.Input.MatrixPath)
	assert.Equal(t, "/data/out", cfg.Run.OutDir)
}

// TestValidate names the first broken field.
func TestValidate(t *testing.T) {
	cfg := config.DefaultConfig()
	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.Contains(t, err.Error(), "matrix_path")

	cfg.Input.MatrixPath = "m.tsv"
	cfg.Input.ObsPath = "o.tsv"
	cfg.Run.Query = []string{"leiden1"}
	cfg.Run.Reference = "azimuth"
	assert.NoError(t, cfg.Validate())

	cfg.Run.WinFractionCutoff = 1.5
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
}

// TestSaveRoundTrip writes YAML Load can read back.
func TestSaveRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Input.MatrixPath = "counts.tsv"
	cfg.Run.Query = []string{"leiden1"}

	path := filepath.Join(t.TempDir(), "sub", "run.yaml")
	require.NoError(t, cfg.Save(path))

	back, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Input.MatrixPath, back.Input.MatrixPath)
	assert.Equal(t, cfg.Run.Query, back.Run.Query)
}
