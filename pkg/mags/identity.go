package mags

import (
	"database/sql"
	"errors"
	"fmt"
)

// Default thresholds.
const (
	DefaultMinANI           = 95.0
	DefaultMinAlignFraction = 60.0
	DefaultMinQS            = 50.0
	DefaultMaxDistance      = 0.05
	DefaultReportedANI      = 80.0
)

// ErrUndefinedIncrease is returned when the relative quality increase over a
// reference cannot be computed because the reference score is not positive.
var ErrUndefinedIncrease = errors.New("increase undefined for non-positive reference quality score")

// Thresholds control every filtering decision of a run.
type Thresholds struct {
	// MinANI is the species-level identity threshold in percent.
	MinANI float64
	// ANIInclusive selects ANI >= MinANI; otherwise ANI > MinANI.
	ANIInclusive bool
	// MinAlignFraction is a strict lower bound on the aligned fraction of
	// the query, in percent.
	MinAlignFraction float64
	// MinQS is the inclusive quality score threshold.
	MinQS float64
	// MaxDistance is the genome-distance threshold above which a genome has
	// no close hit.
	MaxDistance float64
	// ReportedANI is the minimum ANI the identity tool reports, used only in
	// narration.
	ReportedANI float64
}

// DefaultThresholds returns ANI >= 95, AF > 60, QS >= 50, distance > 0.05.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinANI:           DefaultMinANI,
		ANIInclusive:     true,
		MinAlignFraction: DefaultMinAlignFraction,
		MinQS:            DefaultMinQS,
		MaxDistance:      DefaultMaxDistance,
		ReportedANI:      DefaultReportedANI,
	}
}

// ANIOperator renders the identity comparison for messages.
func (t Thresholds) ANIOperator() string {
	if t.ANIInclusive {
		return ">="
	}
	return ">"
}

// SpeciesMatch reports whether an identity record places the query in the
// reference's species cluster: both identity and aligned fraction must pass.
func (t Thresholds) SpeciesMatch(r Identity) bool {
	aniOK := r.ANI > t.MinANI
	if t.ANIInclusive {
		aniOK = r.ANI >= t.MinANI
	}
	return aniOK && r.AlignFraction > t.MinAlignFraction
}

// Queries returns the distinct query genomes of an identity report.
func Queries(records []Identity) IDSet {
	out := make(IDSet)
	for _, r := range records {
		out.Add(r.Query)
	}
	return out
}

// Clustered returns the query genomes with at least one species-level match.
func Clustered(records []Identity, t Thresholds) IDSet {
	out := make(IDSet)
	for _, r := range records {
		if t.SpeciesMatch(r) {
			out.Add(r.Query)
		}
	}
	return out
}

// NoveltyCandidates is the exact set difference highQuality - clustered.
func NoveltyCandidates(highQuality, clustered IDSet) IDSet {
	return highQuality.Difference(clustered)
}

// BestMatches returns, for every query in queries, its species-level match
// with the highest ANI. Ties keep the first record. Results are ordered by
// the first qualifying record of each query.
func BestMatches(records []Identity, queries IDSet, t Thresholds) []Identity {
	pos := make(map[string]int)
	var out []Identity
	for _, r := range records {
		if !queries.Has(r.Query) || !t.SpeciesMatch(r) {
			continue
		}
		i, seen := pos[r.Query]
		if !seen {
			pos[r.Query] = len(out)
			out = append(out, r)
			continue
		}
		if r.ANI > out[i].ANI {
			out[i] = r
		}
	}
	return out
}

// IndexReferences keys reference records by accession; the first wins.
func IndexReferences(refs []Reference) map[string]Reference {
	idx := make(map[string]Reference, len(refs))
	for _, r := range refs {
		if _, ok := idx[r.Accession]; !ok {
			idx[r.Accession] = r
		}
	}
	return idx
}

// Increase is the relative quality gain (qs - refQS) / refQS.
func Increase(qs, refQS float64) (float64, error) {
	if refQS <= 0 {
		return 0, fmt.Errorf("%w: QS_ref=%g", ErrUndefinedIncrease, refQS)
	}
	return (qs - refQS) / refQS, nil
}

// Status is the outcome of comparing a genome to its best reference.
type Status string

const (
	StatusBetter            Status = "better"
	StatusNotBetter         Status = "not_better"
	StatusReferenceMissing  Status = "reference_missing"
	StatusUndefinedIncrease Status = "undefined_increase"
)

// Comparison pairs a genome with its best species-level reference.
type Comparison struct {
	Genome        string
	Reference     string
	ANI           float64
	AlignFraction float64
	QS            float64
	RefQS         sql.NullFloat64
	Increase      sql.NullFloat64
	Status        Status
}

// Better reports whether the genome scores higher than its reference,
// whether or not the relative increase is defined.
func (c Comparison) Better() bool {
	return c.Status == StatusBetter || c.Status == StatusUndefinedIncrease
}

// Compare joins best matches to genome quality (inner: matches without a
// quality record are dropped) and to reference quality (left: a missing
// reference yields StatusReferenceMissing with a null QS_ref).
func Compare(best []Identity, quality map[string]Quality, refs map[string]Reference) []Comparison {
	out := make([]Comparison, 0, len(best))
	for _, m := range best {
		q, ok := quality[m.Query]
		if !ok {
			continue
		}

		c := Comparison{
			Genome:        m.Query,
			Reference:     m.Reference,
			ANI:           m.ANI,
			AlignFraction: m.AlignFraction,
			QS:            q.QS(),
		}

		ref, ok := refs[m.Reference]
		switch {
		case !ok:
			c.Status = StatusReferenceMissing
		case c.QS <= ref.QS():
			c.RefQS = sql.NullFloat64{Float64: ref.QS(), Valid: true}
			c.Status = StatusNotBetter
		default:
			c.RefQS = sql.NullFloat64{Float64: ref.QS(), Valid: true}
			inc, err := Increase(c.QS, ref.QS())
			if err != nil {
				c.Status = StatusUndefinedIncrease
			} else {
				c.Status = StatusBetter
				c.Increase = sql.NullFloat64{Float64: inc, Valid: true}
			}
		}

		out = append(out, c)
	}
	return out
}
