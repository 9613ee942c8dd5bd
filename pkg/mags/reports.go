package mags

import (
	"context"
	"fmt"
	"io"

	"github.com/scttfrdmn/magclass-go/pkg/tsv"
)

// Report schemas of the upstream tools.
var (
	GenomeListSchema = tsv.Schema{
		Columns: []tsv.Column{{Name: "path", Position: 0}},
	}

	DistanceSchema = tsv.Schema{
		Columns: []tsv.Column{
			{Name: "hit", Position: 0, Normalize: ReferenceID},
			{Name: "query", Position: 1, Normalize: GenomeID},
			{Name: "distance", Position: 2, Kind: tsv.Float},
		},
	}

	QualitySchema = tsv.Schema{
		Header: true,
		Columns: []tsv.Column{
			{Name: "Name", Normalize: GenomeID},
			{Name: "Completeness", Kind: tsv.Float},
			{Name: "Contamination", Kind: tsv.Float},
		},
	}

	IdentitySchema = tsv.Schema{
		Header: true,
		Columns: []tsv.Column{
			{Name: "Ref_file", Normalize: ReferenceID},
			{Name: "Query_file", Normalize: GenomeID},
			{Name: "ANI", Kind: tsv.Float},
			{Name: "Align_fraction_query", Kind: tsv.Float},
		},
	}

	PlacementSchema = tsv.Schema{
		Header: true,
		Columns: []tsv.Column{
			{Name: "user_genome", Normalize: GenomeID},
			{Name: "classification"},
			{Name: "red_value", Kind: tsv.Float, Optional: true},
			{Name: "closest_placement_ani", Kind: tsv.Float, Optional: true},
			{Name: "closest_placement_af", Kind: tsv.Float, Optional: true},
		},
	}

	ReferenceSchema = tsv.Schema{
		Header: true,
		Columns: []tsv.Column{
			{Name: "accession", Normalize: MetadataAccession},
			{Name: "checkm2_completeness", Kind: tsv.Float},
			{Name: "checkm2_contamination", Kind: tsv.Float},
		},
	}
)

func required(t *tsv.Table, i int, col string) (float64, error) {
	v := t.Float(i, col)
	if !v.Valid {
		return 0, fmt.Errorf("%s: row %d: %w: column %q has no value", t.Name(), i+1, tsv.ErrMalformed, col)
	}
	return v.Float64, nil
}

// GenomesFromTable converts a loaded genome list.
func GenomesFromTable(t *tsv.Table) []Genome {
	out := make([]Genome, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		path := t.String(i, "path")
		if path == "" {
			continue
		}
		out = append(out, Genome{ID: GenomeID(path), Path: path})
	}
	return out
}

// DistancesFromTable converts a loaded genome-distance report. Rows without
// a distance are skipped.
func DistancesFromTable(t *tsv.Table) []Distance {
	out := make([]Distance, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		d := t.Float(i, "distance")
		if !d.Valid {
			continue
		}
		out = append(out, Distance{
			Hit:      t.String(i, "hit"),
			Query:    t.String(i, "query"),
			Distance: d.Float64,
		})
	}
	return out
}

// QualityFromTable converts a loaded quality report. Missing completeness or
// contamination is malformed input.
func QualityFromTable(t *tsv.Table) ([]Quality, error) {
	out := make([]Quality, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		comp, err := required(t, i, "Completeness")
		if err != nil {
			return nil, err
		}
		cont, err := required(t, i, "Contamination")
		if err != nil {
			return nil, err
		}
		out = append(out, Quality{ID: t.String(i, "Name"), Completeness: comp, Contamination: cont})
	}
	return out, nil
}

// IdentitiesFromTable converts a loaded pairwise-identity report.
func IdentitiesFromTable(t *tsv.Table) ([]Identity, error) {
	out := make([]Identity, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		ani, err := required(t, i, "ANI")
		if err != nil {
			return nil, err
		}
		af, err := required(t, i, "Align_fraction_query")
		if err != nil {
			return nil, err
		}
		out = append(out, Identity{
			Query:         t.String(i, "Query_file"),
			Reference:     t.String(i, "Ref_file"),
			ANI:           ani,
			AlignFraction: af,
		})
	}
	return out, nil
}

// PlacementsFromTable converts a loaded taxonomic placement report.
func PlacementsFromTable(t *tsv.Table) []Placement {
	out := make([]Placement, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		out = append(out, Placement{
			ID:             t.String(i, "user_genome"),
			Classification: t.String(i, "classification"),
			RED:            t.Float(i, "red_value"),
			ClosestANI:     t.Float(i, "closest_placement_ani"),
			ClosestAF:      t.Float(i, "closest_placement_af"),
		})
	}
	return out
}

// ReferencesFromTable converts a loaded reference metadata report. References
// without quality estimates are returned separately by accession so callers
// can report them; they never match a join.
func ReferencesFromTable(t *tsv.Table) (refs []Reference, skipped []string) {
	refs = make([]Reference, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		comp := t.Float(i, "checkm2_completeness")
		cont := t.Float(i, "checkm2_contamination")
		acc := t.String(i, "accession")
		if !comp.Valid || !cont.Valid {
			skipped = append(skipped, acc)
			continue
		}
		refs = append(refs, Reference{Accession: acc, Completeness: comp.Float64, Contamination: cont.Float64})
	}
	return refs, skipped
}

// ReadQuality parses a quality report from r.
func ReadQuality(r io.Reader, name string) ([]Quality, error) {
	t, err := tsv.Read(r, QualitySchema.WithName(name))
	if err != nil {
		return nil, err
	}
	return QualityFromTable(t)
}

// Inputs are the loaded reports feeding one classification run. Distances
// and Placements are nil when the corresponding report was not supplied.
type Inputs struct {
	Genomes    []Genome
	Quality    []Quality
	Identity   []Identity
	References []Reference
	Distances  []Distance
	Placements []Placement

	// SkippedReferences lists metadata accessions without quality values.
	SkippedReferences []string
}

// Sources names the report locations for LoadInputs. Empty Distances or
// Placements leave the optional reports out.
type Sources struct {
	Genomes    string
	Quality    string
	Identity   string
	References string
	Distances  string
	Placements string
}

// LoadInputs reads every report named by src.
func LoadInputs(ctx context.Context, src Sources) (*Inputs, error) {
	in := &Inputs{}

	t, err := tsv.Load(ctx, src.Genomes, GenomeListSchema.WithName(src.Genomes))
	if err != nil {
		return nil, err
	}
	in.Genomes = GenomesFromTable(t)

	if t, err = tsv.Load(ctx, src.Quality, QualitySchema.WithName(src.Quality)); err != nil {
		return nil, err
	}
	if in.Quality, err = QualityFromTable(t); err != nil {
		return nil, err
	}

	if t, err = tsv.Load(ctx, src.Identity, IdentitySchema.WithName(src.Identity)); err != nil {
		return nil, err
	}
	if in.Identity, err = IdentitiesFromTable(t); err != nil {
		return nil, err
	}

	if t, err = tsv.Load(ctx, src.References, ReferenceSchema.WithName(src.References)); err != nil {
		return nil, err
	}
	in.References, in.SkippedReferences = ReferencesFromTable(t)

	if src.Distances != "" {
		if t, err = tsv.Load(ctx, src.Distances, DistanceSchema.WithName(src.Distances)); err != nil {
			return nil, err
		}
		in.Distances = DistancesFromTable(t)
	}

	if src.Placements != "" {
		if t, err = tsv.Load(ctx, src.Placements, PlacementSchema.WithName(src.Placements)); err != nil {
			return nil, err
		}
		in.Placements = PlacementsFromTable(t)
	}

	return in, nil
}
