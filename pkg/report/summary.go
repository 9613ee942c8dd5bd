package report

import (
	"database/sql"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

// Undefined is printed in place of a statistic that cannot be computed.
const Undefined = "undefined"

// Summary describes the genomes that outscored their best reference.
type Summary struct {
	// Better counts every genome with QS above its reference QS.
	Better int
	// Defined counts those whose relative increase is defined.
	Defined int
	// Mean and StdDev of the increase fraction. Mean is invalid for an empty
	// subset; StdDev needs at least two values.
	Mean   sql.NullFloat64
	StdDev sql.NullFloat64
}

// Summarize computes increase statistics over the better-than-reference
// subset. Rows with an undefined increase are counted but excluded from the
// mean and standard deviation.
func Summarize(comparisons []mags.Comparison) Summary {
	var s Summary
	var increases []float64
	for _, c := range comparisons {
		if !c.Better() {
			continue
		}
		s.Better++
		if c.Increase.Valid {
			increases = append(increases, c.Increase.Float64)
		}
	}
	s.Defined = len(increases)

	switch {
	case s.Defined == 0:
	case s.Defined == 1:
		s.Mean = sql.NullFloat64{Float64: increases[0], Valid: true}
	default:
		mean, sd := stat.MeanStdDev(increases, nil)
		s.Mean = sql.NullFloat64{Float64: mean, Valid: true}
		s.StdDev = sql.NullFloat64{Float64: sd, Valid: true}
	}
	return s
}

// Percent renders a fraction as a percentage with one decimal.
func Percent(v sql.NullFloat64) string {
	if !v.Valid {
		return Undefined
	}
	return fmt.Sprintf("%.1f", v.Float64*100)
}

func (s Summary) String() string {
	return fmt.Sprintf("found %d MAGs with higher quality score (mean increase %s ± %s%%)",
		s.Better, Percent(s.Mean), Percent(s.StdDev))
}
