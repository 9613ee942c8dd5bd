package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvOutdir, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, mags.DefaultThresholds(), cfg.Thresholds.Filter())
	assert.True(t, cfg.Output.Header)
	assert.Equal(t, "nMAG_list.txt", cfg.Output.Candidates)
	assert.Equal(t, "betterMAGs.txt", cfg.Output.Better)
	assert.Equal(t, "MAGs.tsv", cfg.Output.Table)
	assert.Empty(t, cfg.Output.Dir)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magclass.yaml")
	content := `logLevel: debug
thresholds:
  ani: 99
  aniInclusive: false
inputs:
  ani: s3://bucket/ani.tsv
  mags: MAG_list.txt
output:
  dir: results
  header: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 99.0, cfg.Thresholds.ANI)
	assert.False(t, cfg.Thresholds.ANIInclusive)
	assert.Equal(t, 60.0, cfg.Thresholds.AlignFraction)
	assert.Equal(t, "s3://bucket/ani.tsv", cfg.Inputs.Sources().Identity)
	assert.Equal(t, "MAG_list.txt", cfg.Inputs.Sources().Genomes)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.False(t, cfg.Output.Header)
	assert.Equal(t, "run.yaml", cfg.Output.Manifest)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magclass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds: [1, 2"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestOutdirFromEnvironment(t *testing.T) {
	t.Setenv(EnvOutdir, "/scratch/out")
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "/scratch/out", cfg.Output.Dir)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	assert.Equal(t, DefaultPath, Path(""))
	assert.Equal(t, "x.yaml", Path("x.yaml"))

	t.Setenv(EnvConfig, "/etc/magclass.yaml")
	assert.Equal(t, "/etc/magclass.yaml", Path(""))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ani above 100", func(c *Config) { c.Thresholds.ANI = 101 }},
		{"negative aligned fraction", func(c *Config) { c.Thresholds.AlignFraction = -1 }},
		{"distance above 1", func(c *Config) { c.Thresholds.MashDistance = 5 }},
		{"quality above 100", func(c *Config) { c.Thresholds.QualityScore = 150 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidThreshold))
		})
	}
}

func TestValidateReportsFirstInvalidThreshold(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Thresholds.ANI = 120
	cfg.Thresholds.AlignFraction = -5
	cfg.Thresholds.ReportedANI = 200

	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ani=120")
	}
}

func TestRequireInputs(t *testing.T) {
	t.Setenv(EnvOutdir, "")
	cfg, err := Default()
	require.NoError(t, err)

	cfg.Inputs.ANI = "ani.tsv"
	cfg.Inputs.CheckM = "quality_report.tsv"

	err = cfg.RequireInputs()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), `"mags", "metadata", "outdir"`)

	cfg.Inputs.MAGs = "MAG_list.txt"
	cfg.Inputs.Metadata = "bac120_metadata.tsv"
	cfg.Output.Dir = "out"
	assert.NoError(t, cfg.RequireInputs())
}
