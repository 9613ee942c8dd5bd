package mags

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Genome is an entry of the genome list: the path as given and its
// canonical identifier.
type Genome struct {
	ID   string
	Path string
}

// Quality is a completeness/contamination estimate for one genome.
type Quality struct {
	ID            string
	Completeness  float64
	Contamination float64
}

// QS recomputes the quality score from the record's current values.
func (q Quality) QS() float64 {
	return QualityScore(q.Completeness, q.Contamination)
}

// Identity is one pairwise identity record between a query genome and a
// reference genome.
type Identity struct {
	Query         string
	Reference     string
	ANI           float64
	AlignFraction float64
}

// Distance is one genome-distance hit for a query genome.
type Distance struct {
	Hit      string
	Query    string
	Distance float64
}

// Placement is the taxonomic placement of one genome.
type Placement struct {
	ID             string
	Classification string
	RED            sql.NullFloat64
	ClosestANI     sql.NullFloat64
	ClosestAF      sql.NullFloat64
}

// Species returns the assigned species label, if any.
func (p Placement) Species() (string, bool) {
	return Species(p.Classification)
}

// Reference is the quality estimate of a reference genome.
type Reference struct {
	Accession     string
	Completeness  float64
	Contamination float64
}

// QS recomputes the reference quality score.
func (r Reference) QS() float64 {
	return QualityScore(r.Completeness, r.Contamination)
}

// Flag is a boolean that may be unknown because a join found no match.
type Flag int8

const (
	FlagNA Flag = iota
	FlagFalse
	FlagTrue
)

// FlagOf converts a known boolean.
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "True"
	case FlagFalse:
		return "False"
	}
	return "NA"
}

// ParseFlag reads a flag written by Flag.String. It also accepts lower case
// and empty cells (NA).
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return FlagTrue, nil
	case "false":
		return FlagFalse, nil
	case "", "na", "nan":
		return FlagNA, nil
	}
	return FlagNA, fmt.Errorf("invalid flag %q", s)
}

// IDSet is a set of canonical genome identifiers.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int { return len(s) }

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Difference returns the members of s that are not in other. Membership is
// exact on canonical identifiers.
func (s IDSet) Difference(other IDSet) IDSet {
	out := make(IDSet)
	for id := range s {
		if !other.Has(id) {
			out.Add(id)
		}
	}
	return out
}

// Intersect returns the members present in both sets.
func (s IDSet) Intersect(other IDSet) IDSet {
	out := make(IDSet)
	for id := range s {
		if other.Has(id) {
			out.Add(id)
		}
	}
	return out
}
