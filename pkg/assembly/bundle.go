package assembly

import (
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

// LineWidth is the sequence wrap width of bundled FASTA.
const LineWidth = 60

// Bundle concatenates the sequences of genomes into w as FASTA, prefixing
// each header with "<genome id>|". It returns the number of records written.
func Bundle(w io.Writer, genomes []mags.Genome) (int, error) {
	n := 0
	for _, g := range genomes {
		written, err := appendGenome(w, g)
		n += written
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func appendGenome(w io.Writer, g mags.Genome) (int, error) {
	reader, err := fastx.NewReader(seq.DNAredundant, g.Path, fastx.DefaultIDRegexp)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", g.Path, err)
	}
	defer reader.Close()

	prefix := []byte(g.ID + "|")
	n := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, fmt.Errorf("read %s: %w", g.Path, err)
		}
		record.Name = append(append([]byte{}, prefix...), record.Name...)
		if _, err := w.Write(record.Format(LineWidth)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
