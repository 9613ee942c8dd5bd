package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started     TEXT NOT NULL,
	min_ani     REAL NOT NULL,
	ani_inclusive INTEGER NOT NULL,
	min_af      REAL NOT NULL,
	min_qs      REAL NOT NULL,
	max_distance REAL NOT NULL,
	evaluated   INTEGER NOT NULL,
	clustered   INTEGER NOT NULL,
	high_quality INTEGER NOT NULL,
	candidates  INTEGER NOT NULL,
	better      INTEGER NOT NULL,
	mean_increase REAL,
	sd_increase REAL
);
CREATE TABLE IF NOT EXISTS classification (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	genome    TEXT NOT NULL,
	path      TEXT NOT NULL,
	qs        REAL,
	mash_05   INTEGER,
	qs_50     INTEGER,
	ani_95    INTEGER,
	gtdb_s    INTEGER,
	reference TEXT,
	qs_ref    REAL,
	genome_size INTEGER,
	contigs   INTEGER,
	n50       INTEGER,
	taxonomy  TEXT,
	red_value REAL,
	closest_placement_ani REAL,
	closest_placement_af  REAL
);
CREATE TABLE IF NOT EXISTS comparison (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	genome    TEXT NOT NULL,
	reference TEXT NOT NULL,
	ani       REAL NOT NULL,
	align_fraction REAL NOT NULL,
	qs        REAL NOT NULL,
	qs_ref    REAL,
	increase  REAL,
	status    TEXT NOT NULL
);
`

// flagValue stores a flag as 0/1, NULL when unknown.
func flagValue(f mags.Flag) sql.NullInt64 {
	switch f {
	case mags.FlagTrue:
		return sql.NullInt64{Int64: 1, Valid: true}
	case mags.FlagFalse:
		return sql.NullInt64{Int64: 0, Valid: true}
	}
	return sql.NullInt64{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ExportSQLite appends a run to the SQLite database at path, creating the
// tables on first use. The run is written in a single transaction.
func ExportSQLite(ctx context.Context, path string, m *Manifest, res *mags.Result, summary Summary) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema in %s: %w", path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	t := res.Thresholds
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RunID, m.Started.Format(time.RFC3339), t.MinANI, t.ANIInclusive, t.MinAlignFraction,
		t.MinQS, t.MaxDistance, res.Evaluated, res.Clustered.Len(), res.HighQuality.Len(),
		res.Candidates.Len(), summary.Better, summary.Mean, summary.StdDev)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO classification VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range res.Table {
		_, err := stmt.ExecContext(ctx, m.RunID, r.Genome, r.Path, r.QS,
			flagValue(r.Mash05), flagValue(r.QS50), flagValue(r.ANI95), flagValue(r.GTDBs),
			nullString(r.Reference), r.RefQS, r.GenomeSize, r.Contigs, r.N50,
			nullString(r.Taxonomy), r.RED, r.ClosestANI, r.ClosestAF)
		if err != nil {
			return fmt.Errorf("insert classification of %s: %w", r.Genome, err)
		}
	}

	cstmt, err := tx.PrepareContext(ctx,
		`INSERT INTO comparison VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cstmt.Close()
	for _, c := range res.Comparisons {
		_, err := cstmt.ExecContext(ctx, m.RunID, c.Genome, c.Reference, c.ANI, c.AlignFraction,
			c.QS, c.RefQS, c.Increase, string(c.Status))
		if err != nil {
			return fmt.Errorf("insert comparison of %s: %w", c.Genome, err)
		}
	}

	return tx.Commit()
}
