package assembly

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

func writeFASTA(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := []byte(content)
	if strings.HasSuffix(name, ".gz") {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		data = buf.Bytes()
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestN50(t *testing.T) {
	tests := []struct {
		lengths []int64
		want    int64
	}{
		{nil, 0},
		{[]int64{100}, 100},
		{[]int64{10, 20, 30, 40}, 30},
		{[]int64{50, 50}, 50},
		{[]int64{1, 1, 1, 97}, 97},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, N50(tt.lengths), "lengths %v", tt.lengths)
	}
}

func TestFromFASTA(t *testing.T) {
	in := ">a first\nACGTACGT\nACGT\n>b\nACGTAC\n"
	s, err := FromFASTA(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, Stats{Size: 18, Contigs: 2, N50: 12}, s)
}

func TestCompute(t *testing.T) {
	dir := t.TempDir()
	fasta := ">c1\nACGTACGTAC\n>c2\nACGTA\n>c3\nACG\n"

	for _, name := range []string{"MAG_1.fa", "MAG_1.fa.gz"} {
		t.Run(name, func(t *testing.T) {
			s, err := Compute(writeFASTA(t, dir, name, fasta))
			require.NoError(t, err)
			assert.Equal(t, Stats{Size: 18, Contigs: 3, N50: 10}, s)
		})
	}
}

func TestComputeIrregularWrapping(t *testing.T) {
	path := writeFASTA(t, t.TempDir(), "MAG_2.fna", ">c1\nACG\nACGTACGT\nAC\n>c2\nAC\n")
	s, err := Compute(path)
	require.NoError(t, err)
	assert.Equal(t, int64(15), s.Size)
	assert.Equal(t, 2, s.Contigs)
	assert.Equal(t, int64(13), s.N50)
}

func TestAnnotate(t *testing.T) {
	dir := t.TempDir()
	rows := []mags.Classification{
		{Genome: "MAG_1", Path: writeFASTA(t, dir, "MAG_1.fa", ">c1\nACGTACGT\n")},
		{Genome: "MAG_2", Path: filepath.Join(dir, "missing.fa")},
	}

	assert.Equal(t, 1, Annotate(rows))
	assert.Equal(t, sql.NullInt64{Int64: 8, Valid: true}, rows[0].GenomeSize)
	assert.Equal(t, sql.NullInt64{Int64: 1, Valid: true}, rows[0].Contigs)
	assert.Equal(t, sql.NullInt64{Int64: 8, Valid: true}, rows[0].N50)
	assert.False(t, rows[1].GenomeSize.Valid)
}

func TestBundle(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("ACGT", 20)
	genomes := []mags.Genome{
		{ID: "MAG_1", Path: writeFASTA(t, dir, "MAG_1.fa", ">k141_1 flag=1\n"+long+"\n>k141_2\nACGT\n")},
		{ID: "MAG_7", Path: writeFASTA(t, dir, "MAG_7.fa.gz", ">NODE_1\nGGCC\n")},
	}

	var buf bytes.Buffer
	n, err := Bundle(&buf, genomes)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var headers []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.HasPrefix(line, ">") {
			headers = append(headers, line)
			continue
		}
		assert.LessOrEqual(t, len(line), LineWidth)
	}
	assert.Equal(t, []string{">MAG_1|k141_1 flag=1", ">MAG_1|k141_2", ">MAG_7|NODE_1"}, headers)
	assert.Contains(t, buf.String(), long[:LineWidth]+"\n"+long[LineWidth:]+"\n")
}

func TestBundleMissingFile(t *testing.T) {
	_, err := Bundle(&bytes.Buffer{}, []mags.Genome{{ID: "MAG_1", Path: filepath.Join(t.TempDir(), "nope.fa")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.fa")
}
