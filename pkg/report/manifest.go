package report

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

// Manifest records what a run read, which thresholds it applied and how many
// genomes each stage kept.
type Manifest struct {
	RunID      string              `yaml:"run_id"`
	Started    time.Time           `yaml:"started"`
	Thresholds ManifestThresholds  `yaml:"thresholds"`
	Inputs     map[string]string   `yaml:"inputs"`
	Outputs    map[string]string   `yaml:"outputs,omitempty"`
	Counts     Counts              `yaml:"counts"`
	Increase   map[string]*float64 `yaml:"increase"`
}

// ManifestThresholds is the serialised form of mags.Thresholds.
type ManifestThresholds struct {
	ANI           float64 `yaml:"ani"`
	ANIInclusive  bool    `yaml:"ani_inclusive"`
	AlignFraction float64 `yaml:"align_fraction"`
	QualityScore  float64 `yaml:"quality_score"`
	MashDistance  float64 `yaml:"mash_distance"`
}

// Counts are the stage sizes of a run.
type Counts struct {
	Evaluated          int `yaml:"evaluated"`
	IdentityQueries    int `yaml:"identity_queries"`
	Clustered          int `yaml:"clustered"`
	HighQuality        int `yaml:"high_quality"`
	Candidates         int `yaml:"candidates"`
	UnlistedCandidates int `yaml:"unlisted_candidates"`
	Compared           int `yaml:"compared"`
	Better             int `yaml:"better"`
	UndefinedIncrease  int `yaml:"undefined_increase"`
	SkippedReferences  int `yaml:"skipped_references"`
}

// NewManifest summarises a finished run.
func NewManifest(runID string, started time.Time, src mags.Sources, res *mags.Result, summary Summary) *Manifest {
	t := res.Thresholds
	m := &Manifest{
		RunID:   runID,
		Started: started.UTC(),
		Thresholds: ManifestThresholds{
			ANI:           t.MinANI,
			ANIInclusive:  t.ANIInclusive,
			AlignFraction: t.MinAlignFraction,
			QualityScore:  t.MinQS,
			MashDistance:  t.MaxDistance,
		},
		Inputs: map[string]string{
			"ani":      src.Identity,
			"mags":     src.Genomes,
			"checkm":   src.Quality,
			"metadata": src.References,
		},
		Counts: Counts{
			Evaluated:          res.Evaluated,
			IdentityQueries:    res.IdentityQueries,
			Clustered:          res.Clustered.Len(),
			HighQuality:        res.HighQuality.Len(),
			Candidates:         res.Candidates.Len(),
			UnlistedCandidates: len(res.UnlistedCandidates),
			Compared:           len(res.Comparisons),
			Better:             summary.Better,
			UndefinedIncrease:  summary.Better - summary.Defined,
		},
		Increase: map[string]*float64{
			"mean":   nullable(summary.Mean.Float64, summary.Mean.Valid),
			"stddev": nullable(summary.StdDev.Float64, summary.StdDev.Valid),
		},
	}
	if src.Distances != "" {
		m.Inputs["mash"] = src.Distances
	}
	if src.Placements != "" {
		m.Inputs["gtdbtk"] = src.Placements
	}
	return m
}

func nullable(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// Marshal renders the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}
