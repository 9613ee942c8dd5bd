package mags

import "database/sql"

// Classification is one row of the combined classification table.
type Classification struct {
	Genome string
	Path   string
	QS     sql.NullFloat64

	// Mash05: no genome-distance hit at or below the distance threshold.
	Mash05 Flag
	// QS50: quality score reaches the quality threshold.
	QS50 Flag
	// ANI95: no species-level identity match with any reference.
	ANI95 Flag
	// GTDBs: no species-level taxonomic label.
	GTDBs Flag

	// Placement details carried from the taxonomic report, if any.
	Taxonomy   string
	RED        sql.NullFloat64
	ClosestANI sql.NullFloat64
	ClosestAF  sql.NullFloat64

	Reference string
	RefQS     sql.NullFloat64

	GenomeSize sql.NullInt64
	Contigs    sql.NullInt64
	N50        sql.NullInt64
}

// Candidate reports whether the row is a novelty candidate.
func (c Classification) Candidate() bool {
	return c.QS50 == FlagTrue && c.ANI95 == FlagTrue
}

// Result carries every intermediate set of a run, for reporting.
type Result struct {
	Thresholds Thresholds

	Evaluated       int
	IdentityQueries int
	Clustered       IDSet
	HighQuality     IDSet
	Candidates      IDSet

	// CandidateGenomes are the genome list entries that are candidates, in
	// list order.
	CandidateGenomes []Genome
	// UnlistedCandidates are candidates from the quality report that are
	// absent from the genome list.
	UnlistedCandidates []string

	Comparisons []Comparison
	Table       []Classification
}

// MinDistances returns the smallest distance seen for each query.
func MinDistances(distances []Distance) map[string]float64 {
	out := make(map[string]float64)
	for _, d := range distances {
		if cur, ok := out[d.Query]; !ok || d.Distance < cur {
			out[d.Query] = d.Distance
		}
	}
	return out
}

// Classify runs the quality scoring and identity filtering stages over
// loaded inputs.
func Classify(in *Inputs, t Thresholds) *Result {
	res := &Result{
		Thresholds:      t,
		Evaluated:       len(in.Genomes),
		IdentityQueries: Queries(in.Identity).Len(),
		Clustered:       Clustered(in.Identity, t),
		HighQuality:     HighQuality(in.Quality, t.MinQS),
	}
	res.Candidates = NoveltyCandidates(res.HighQuality, res.Clustered)

	listed := make(IDSet, len(in.Genomes))
	for _, g := range in.Genomes {
		listed.Add(g.ID)
		if res.Candidates.Has(g.ID) {
			res.CandidateGenomes = append(res.CandidateGenomes, g)
		}
	}
	res.UnlistedCandidates = res.Candidates.Difference(listed).Sorted()

	quality := IndexQuality(in.Quality)
	refs := IndexReferences(in.References)

	// Best references are resolved for every clustered genome so the
	// table can show them; only quality-passing ones are compared.
	best := BestMatches(in.Identity, res.Clustered, t)
	bestByGenome := make(map[string]Identity, len(best))
	var compared []Identity
	for _, m := range best {
		bestByGenome[m.Query] = m
		if res.HighQuality.Has(m.Query) {
			compared = append(compared, m)
		}
	}
	res.Comparisons = Compare(compared, quality, refs)

	var minDist map[string]float64
	if in.Distances != nil {
		minDist = MinDistances(in.Distances)
	}
	var placements map[string]Placement
	if in.Placements != nil {
		placements = make(map[string]Placement, len(in.Placements))
		for _, p := range in.Placements {
			if _, ok := placements[p.ID]; !ok {
				placements[p.ID] = p
			}
		}
	}

	res.Table = make([]Classification, 0, len(in.Genomes))
	for _, g := range in.Genomes {
		row := Classification{Genome: g.ID, Path: g.Path}

		if q, ok := quality[g.ID]; ok {
			row.QS = sql.NullFloat64{Float64: q.QS(), Valid: true}
			row.QS50 = FlagOf(q.QS() >= t.MinQS)
		}

		if minDist != nil {
			d, ok := minDist[g.ID]
			row.Mash05 = FlagOf(!ok || d > t.MaxDistance)
		}

		row.ANI95 = FlagOf(!res.Clustered.Has(g.ID))

		if placements != nil {
			if p, ok := placements[g.ID]; ok {
				_, assigned := p.Species()
				row.GTDBs = FlagOf(!assigned)
				row.Taxonomy = p.Classification
				row.RED = p.RED
				row.ClosestANI = p.ClosestANI
				row.ClosestAF = p.ClosestAF
			}
		}

		if m, ok := bestByGenome[g.ID]; ok {
			row.Reference = m.Reference
			if ref, ok := refs[m.Reference]; ok {
				row.RefQS = sql.NullFloat64{Float64: ref.QS(), Valid: true}
			}
		}

		res.Table = append(res.Table, row)
	}

	return res
}

// BetterComparisons returns the comparisons where the genome outscored its
// reference.
func (r *Result) BetterComparisons() []Comparison {
	var out []Comparison
	for _, c := range r.Comparisons {
		if c.Better() {
			out = append(out, c)
		}
	}
	return out
}

// ClusteredHighQuality returns the genomes that both pass quality and
// cluster with a reference, sorted.
func (r *Result) ClusteredHighQuality() []string {
	return r.HighQuality.Intersect(r.Clustered).Sorted()
}
