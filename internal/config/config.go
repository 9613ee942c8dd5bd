package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

const (
	// DefaultPath is read when no config file is named.
	DefaultPath = "magclass.yaml"
	// EnvConfig names the config file.
	EnvConfig = "MAGCLASS_CONFIG"
	// EnvOutdir supplies a default output directory.
	EnvOutdir = "MAGCLASS_OUTDIR"
)

var (
	// ErrMissingInput is returned when a required input or the output directory is not set
	ErrMissingInput = errors.New("required input not set")
	// ErrInvalidThreshold is returned when a threshold is out of range
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// Config is the magclass configuration.
type Config struct {
	LogLevel   string     `yaml:"logLevel" default:"info"`
	Thresholds Thresholds `yaml:"thresholds"`
	Inputs     Inputs     `yaml:"inputs"`
	Output     Output     `yaml:"output"`
}

// Thresholds mirror mags.Thresholds.
type Thresholds struct {
	ANI           float64 `yaml:"ani" default:"95.0"`
	ANIInclusive  bool    `yaml:"aniInclusive" default:"true"`
	AlignFraction float64 `yaml:"alignFraction" default:"60.0"`
	QualityScore  float64 `yaml:"qualityScore" default:"50.0"`
	MashDistance  float64 `yaml:"mashDistance" default:"0.05"`
	ReportedANI   float64 `yaml:"reportedANI" default:"80.0"`
}

// Inputs are report locations, local paths or s3:// URIs.
type Inputs struct {
	ANI      string `yaml:"ani"`
	MAGs     string `yaml:"mags"`
	CheckM   string `yaml:"checkm"`
	Metadata string `yaml:"metadata"`
	Mash     string `yaml:"mash,omitempty"`
	GTDBTk   string `yaml:"gtdbtk,omitempty"`
}

// Output controls where and how results are written.
type Output struct {
	Dir        string `yaml:"dir"`
	Header     bool   `yaml:"header" default:"true"`
	Candidates string `yaml:"candidates" default:"nMAG_list.txt"`
	Comparison string `yaml:"comparison" default:"reference_comparison.tsv"`
	Better     string `yaml:"better" default:"betterMAGs.txt"`
	Table      string `yaml:"table" default:"MAGs.tsv"`
	Manifest   string `yaml:"manifest" default:"run.yaml"`
	Bundle     string `yaml:"bundle" default:"nMAGs.fna.gz"`

	// WriteBundle writes candidate sequences to Bundle; AssemblyStats adds
	// assembly columns to Table.
	WriteBundle   bool `yaml:"writeBundle"`
	AssemblyStats bool `yaml:"assemblyStats"`

	// SQLite and Metrics are local paths; empty disables them.
	SQLite  string `yaml:"sqlite,omitempty"`
	Metrics string `yaml:"metrics,omitempty"`
}

// LoadEnv reads a .env file from the working directory, if present.
func LoadEnv() error {
	return godotenv.Load()
}

// Path resolves the config file location: explicit flag, then
// MAGCLASS_CONFIG, then DefaultPath.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return DefaultPath
}

// Default returns a config holding only defaults.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}
	cfg.Output.Dir = os.Getenv(EnvOutdir)
	return cfg, nil
}

// Load reads configuration from a YAML file over the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks threshold ranges.
func (c *Config) Validate() error {
	t := c.Thresholds
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"ani", t.ANI},
		{"alignFraction", t.AlignFraction},
		{"reportedANI", t.ReportedANI},
	} {
		if p.v < 0 || p.v > 100 {
			return fmt.Errorf("%w: %s=%g must be within 0..100", ErrInvalidThreshold, p.name, p.v)
		}
	}
	if t.MashDistance < 0 || t.MashDistance > 1 {
		return fmt.Errorf("%w: mashDistance=%g must be within 0..1", ErrInvalidThreshold, t.MashDistance)
	}
	if t.QualityScore > 100 {
		return fmt.Errorf("%w: qualityScore=%g cannot exceed 100", ErrInvalidThreshold, t.QualityScore)
	}
	return nil
}

// RequireInputs checks that every report needed by the classification
// pipeline and the output directory are set. The error names the flags.
func (c *Config) RequireInputs() error {
	var missing []string
	for flag, v := range map[string]string{
		"ani":      c.Inputs.ANI,
		"mags":     c.Inputs.MAGs,
		"checkm":   c.Inputs.CheckM,
		"metadata": c.Inputs.Metadata,
		"outdir":   c.Output.Dir,
	} {
		if v == "" {
			missing = append(missing, fmt.Sprintf("%q", flag))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: flag(s) %s", ErrMissingInput, strings.Join(missing, ", "))
}

// Filter converts the configured thresholds.
func (t Thresholds) Filter() mags.Thresholds {
	return mags.Thresholds{
		MinANI:           t.ANI,
		ANIInclusive:     t.ANIInclusive,
		MinAlignFraction: t.AlignFraction,
		MinQS:            t.QualityScore,
		MaxDistance:      t.MashDistance,
		ReportedANI:      t.ReportedANI,
	}
}

// Sources converts the configured inputs.
func (in Inputs) Sources() mags.Sources {
	return mags.Sources{
		Genomes:    in.MAGs,
		Quality:    in.CheckM,
		Identity:   in.ANI,
		References: in.Metadata,
		Distances:  in.Mash,
		Placements: in.GTDBTk,
	}
}
