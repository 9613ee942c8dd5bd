package report

import (
	"database/sql"
	"fmt"
	"io"
	"math"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
	"github.com/scttfrdmn/magclass-go/pkg/tsv"
)

// Output columns.
var (
	ComparisonColumns = []string{"genome", "reference", "ANI", "align_fraction", "QS", "QS_ref", "status"}
	BetterColumns     = []string{"genome", "QS", "reference", "QS_ref", "increase"}
	TableColumns      = []string{"genome", "path", "QS", "mash_05", "QS_50", "ANI_95", "GTDB_s", "reference", "QS_ref"}
	AssemblyColumns   = []string{"genome_size", "contigs", "N50"}
)

// WriteCandidates writes the genome-list path of every candidate, one per
// line, without a header.
func WriteCandidates(w io.Writer, genomes []mags.Genome) error {
	tw := tsv.NewWriter(w, []string{"path"}, false)
	for _, g := range genomes {
		if err := tw.Write(g.Path); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteComparisons writes every best-reference comparison.
func WriteComparisons(w io.Writer, comparisons []mags.Comparison, header bool) error {
	tw := tsv.NewWriter(w, ComparisonColumns, header)
	for _, c := range comparisons {
		err := tw.Write(
			c.Genome,
			c.Reference,
			tsv.FormatFloat(c.ANI),
			tsv.FormatFloat(c.AlignFraction),
			tsv.FormatFloat(c.QS),
			tsv.FormatNullFloat(c.RefQS),
			string(c.Status),
		)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteBetter writes the genomes that outscored their reference. An empty
// subset still produces the header.
func WriteBetter(w io.Writer, comparisons []mags.Comparison, header bool) error {
	tw := tsv.NewWriter(w, BetterColumns, header)
	for _, c := range comparisons {
		if !c.Better() {
			continue
		}
		err := tw.Write(
			c.Genome,
			tsv.FormatFloat(c.QS),
			c.Reference,
			tsv.FormatNullFloat(c.RefQS),
			tsv.FormatNullFloat(c.Increase),
		)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

func orNA(s string) string {
	if s == "" {
		return tsv.NA
	}
	return s
}

// WriteClassification writes the combined classification table in row order.
// withAssembly appends the assembly statistic columns.
func WriteClassification(w io.Writer, rows []mags.Classification, header, withAssembly bool) error {
	columns := TableColumns
	if withAssembly {
		columns = append(append([]string{}, TableColumns...), AssemblyColumns...)
	}
	tw := tsv.NewWriter(w, columns, header)
	for _, r := range rows {
		fields := []string{
			r.Genome,
			r.Path,
			tsv.FormatNullFloat(r.QS),
			r.Mash05.String(),
			r.QS50.String(),
			r.ANI95.String(),
			r.GTDBs.String(),
			orNA(r.Reference),
			tsv.FormatNullFloat(r.RefQS),
		}
		if withAssembly {
			fields = append(fields,
				tsv.FormatNullInt(r.GenomeSize),
				tsv.FormatNullInt(r.Contigs),
				tsv.FormatNullInt(r.N50),
			)
		}
		if err := tw.Write(fields...); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// ClassificationSchema reads a table written by WriteClassification.
// Assembly columns are optional.
func ClassificationSchema(header bool) tsv.Schema {
	s := tsv.Schema{Header: header}
	for i, name := range TableColumns {
		c := tsv.Column{Name: name, Position: i}
		if name == "QS" || name == "QS_ref" {
			c.Kind = tsv.Float
		}
		s.Columns = append(s.Columns, c)
	}
	for i, name := range AssemblyColumns {
		s.Columns = append(s.Columns, tsv.Column{
			Name:     name,
			Kind:     tsv.Float,
			Position: len(TableColumns) + i,
			Optional: true,
		})
	}
	return s
}

func nullInt(v sql.NullFloat64) sql.NullInt64 {
	if !v.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(math.Round(v.Float64)), Valid: true}
}

// ReadClassification reads a classification table back. name labels the
// source in errors.
func ReadClassification(r io.Reader, name string, header bool) ([]mags.Classification, error) {
	t, err := tsv.Read(r, ClassificationSchema(header).WithName(name))
	if err != nil {
		return nil, err
	}

	out := make([]mags.Classification, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := mags.Classification{
			Genome:     t.String(i, "genome"),
			Path:       t.String(i, "path"),
			QS:         t.Float(i, "QS"),
			RefQS:      t.Float(i, "QS_ref"),
			GenomeSize: nullInt(t.Float(i, "genome_size")),
			Contigs:    nullInt(t.Float(i, "contigs")),
			N50:        nullInt(t.Float(i, "N50")),
		}
		if ref := t.String(i, "reference"); ref != tsv.NA {
			row.Reference = ref
		}

		for _, f := range []struct {
			col  string
			dest *mags.Flag
		}{
			{"mash_05", &row.Mash05},
			{"QS_50", &row.QS50},
			{"ANI_95", &row.ANI95},
			{"GTDB_s", &row.GTDBs},
		} {
			flag, err := mags.ParseFlag(t.String(i, f.col))
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w: column %q: %v", name, i+1, tsv.ErrMalformed, f.col, err)
			}
			*f.dest = flag
		}

		out = append(out, row)
	}
	return out, nil
}
