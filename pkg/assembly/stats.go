// Package assembly measures MAG assemblies and bundles their sequences.
package assembly

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"sort"

	"github.com/biogo/hts/fai"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"go.uber.org/zap"

	"github.com/scttfrdmn/magclass-go/internal/logger"
	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

// Stats summarises one assembly.
type Stats struct {
	Size    int64
	Contigs int
	N50     int64
}

// N50 returns the length of the shortest contig among the longest contigs
// that together cover at least half of the assembly.
func N50(lengths []int64) int64 {
	if len(lengths) == 0 {
		return 0
	}
	sorted := append([]int64(nil), lengths...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	var total int64
	for _, l := range sorted {
		total += l
	}
	var sum int64
	for _, l := range sorted {
		sum += l
		if 2*sum >= total {
			return l
		}
	}
	return sorted[len(sorted)-1]
}

// FromLengths builds stats from contig lengths.
func FromLengths(lengths []int64) Stats {
	s := Stats{Contigs: len(lengths), N50: N50(lengths)}
	for _, l := range lengths {
		s.Size += l
	}
	return s
}

// FromFASTA measures an uncompressed FASTA stream by indexing it. Sequences
// must be wrapped at a constant width, as fai requires.
func FromFASTA(r io.Reader) (Stats, error) {
	idx, err := fai.NewIndex(r)
	if err != nil {
		return Stats{}, err
	}
	lengths := make([]int64, 0, len(idx))
	for _, rec := range idx {
		lengths = append(lengths, int64(rec.Length))
	}
	return FromLengths(lengths), nil
}

// scan measures a FASTA file record by record.
func scan(path string) (Stats, error) {
	reader, err := fastx.NewReader(seq.DNAredundant, path, fastx.DefaultIDRegexp)
	if err != nil {
		return Stats{}, err
	}
	defer reader.Close()

	var lengths []int64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Stats{}, err
		}
		lengths = append(lengths, int64(len(record.Seq.Seq)))
	}
	return FromLengths(lengths), nil
}

// Compute measures the (optionally compressed) FASTA file at path. Files the
// index cannot describe, such as irregularly wrapped ones, are scanned
// record by record instead.
func Compute(path string) (Stats, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open %s: %w", path, err)
	}
	data, err := io.ReadAll(fh)
	fh.Close()
	if err != nil {
		return Stats{}, fmt.Errorf("read %s: %w", path, err)
	}

	s, err := FromFASTA(bytes.NewReader(data))
	if err == nil {
		return s, nil
	}
	logger.Debug("Index failed, scanning records", zap.String("file", path), zap.Error(err))

	s, err = scan(path)
	if err != nil {
		return Stats{}, fmt.Errorf("scan %s: %w", path, err)
	}
	return s, nil
}

// Annotate fills the assembly columns of every row whose FASTA file can be
// measured. Unreadable files leave the columns NA and are counted in the
// returned number of failures.
func Annotate(rows []mags.Classification) (failed int) {
	for i := range rows {
		s, err := Compute(rows[i].Path)
		if err != nil {
			failed++
			logger.Warn("No assembly statistics",
				zap.String("genome", rows[i].Genome),
				zap.Error(err))
			continue
		}
		rows[i].GenomeSize = sql.NullInt64{Int64: s.Size, Valid: true}
		rows[i].Contigs = sql.NullInt64{Int64: int64(s.Contigs), Valid: true}
		rows[i].N50 = sql.NullInt64{Int64: s.N50, Valid: true}
	}
	return failed
}
