package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/magclass-go/internal/config"
	"github.com/scttfrdmn/magclass-go/pkg/mags"
	"github.com/scttfrdmn/magclass-go/pkg/report"
	"github.com/scttfrdmn/magclass-go/pkg/storage"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testConfig lays out the reports of three MAGs: A clusters with Ref1 and
// outscores it, B fails quality, C is a novelty candidate.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.EnvOutdir, "")
	dir := t.TempDir()

	bins := filepath.Join(dir, "bins")
	a := writeFile(t, filepath.Join(bins, "A.fa"), ">a1\nACGTACGTAC\n")
	b := writeFile(t, filepath.Join(bins, "B.fa"), ">b1\nACGT\n")
	c := writeFile(t, filepath.Join(bins, "C.fa"), ">c1 len=8\nACGTACGT\n>c2\nACGT\n")

	cfg, err := config.Default()
	require.NoError(t, err)

	cfg.Inputs = config.Inputs{
		MAGs: writeFile(t, filepath.Join(dir, "MAG_list.txt"), strings.Join([]string{a, b, c}, "\n")+"\n"),
		CheckM: writeFile(t, filepath.Join(dir, "quality_report.tsv"),
			"Name\tCompleteness\tContamination\nA\t60\t0\nB\t40\t0\nC\t55\t0\n"),
		ANI: writeFile(t, filepath.Join(dir, "ani.tsv"),
			"Ref_file\tQuery_file\tANI\tAlign_fraction_query\n"+
				"refs/GCF_000000001.1_Ref1_genomic.fna.gz\tbins/A.fa\t96\t70\n"),
		Metadata: writeFile(t, filepath.Join(dir, "bac120_metadata.tsv"),
			"accession\tcheckm2_completeness\tcheckm2_contamination\n"+
				"RS_GCF_000000001.1\t50\t0\n"),
	}
	cfg.Output.Dir = filepath.Join(dir, "out")
	return cfg
}

func TestRunClassify(t *testing.T) {
	cfg := testConfig(t)
	dbPath := filepath.Join(t.TempDir(), "magclass.db")
	metricsPath := filepath.Join(t.TempDir(), "magclass.prom")
	cfg.Output.SQLite = dbPath
	cfg.Output.Metrics = metricsPath
	cfg.Output.WriteBundle = true
	cfg.Output.AssemblyStats = true

	var stdout bytes.Buffer
	require.NoError(t, runClassify(context.Background(), &stdout, cfg))

	assert.Equal(t, strings.Join([]string{
		"3 MAGs evaluated.",
		"1 MAGs have an ANI >= 80% with at least one reference genome.",
		"1 MAGs share a species cluster (ANI >= 95%, AF > 60%) with at least one reference genome.",
		"2 MAGs have quality score (QS) >= 50.",
		"1 MAGs are potentially novel species-level MAGs with QS >= 50.",
		"1 high-quality clustered MAGs compared against their best reference.",
		"found 1 MAGs with higher quality score (mean increase 20.0 ± undefined%)",
	}, "\n")+"\n", stdout.String())

	out := cfg.Output.Dir
	candidates, err := os.ReadFile(filepath.Join(out, "nMAG_list.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.Inputs.MAGs), "bins", "C.fa")+"\n", string(candidates))

	betterMAGs, err := os.ReadFile(filepath.Join(out, "betterMAGs.txt"))
	require.NoError(t, err)
	assert.Equal(t, "genome\tQS\treference\tQS_ref\tincrease\nA\t60\tGCF_000000001.1\t50\t0.2\n", string(betterMAGs))

	table, err := os.Open(filepath.Join(out, "MAGs.tsv"))
	require.NoError(t, err)
	defer table.Close()
	rows, err := report.ReadClassification(table, "MAGs.tsv", true)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "C", rows[2].Genome)
	assert.True(t, rows[2].Candidate())
	assert.Equal(t, mags.FlagNA, rows[2].Mash05)
	assert.Equal(t, int64(12), rows[2].GenomeSize.Int64)
	assert.Equal(t, int64(2), rows[2].Contigs.Int64)
	assert.Equal(t, "GCF_000000001.1", rows[0].Reference)
	assert.Equal(t, mags.FlagFalse, rows[0].ANI95)

	bundle, err := storage.ReadSource(context.Background(), filepath.Join(out, "nMAGs.fna.gz"))
	require.NoError(t, err)
	assert.Equal(t, ">C|c1 len=8\nACGTACGT\n>C|c2\nACGT\n", string(bundle))

	manifest, err := os.ReadFile(filepath.Join(out, "run.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "bundle: nMAGs.fna.gz")
	assert.Contains(t, string(manifest), "candidates: 1")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM classification`).Scan(&n))
	assert.Equal(t, 3, n)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `stage="candidates"} 1`)
}

func TestRunClassifyEmptyBetterSubset(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Inputs.Metadata,
		"accession\tcheckm2_completeness\tcheckm2_contamination\nRS_GCF_000000001.1\t90\t0\n")

	var stdout bytes.Buffer
	require.NoError(t, runClassify(context.Background(), &stdout, cfg))
	assert.Contains(t, stdout.String(),
		"found 0 MAGs with higher quality score (mean increase undefined ± undefined%)")

	betterMAGs, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "betterMAGs.txt"))
	require.NoError(t, err)
	assert.Equal(t, "genome\tQS\treference\tQS_ref\tincrease\n", string(betterMAGs))
}

func TestRunClassifyMissingColumn(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Inputs.CheckM, "Name\tCompleteness\nA\t60\n")

	err := runClassify(context.Background(), &bytes.Buffer{}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quality_report.tsv")
	assert.Contains(t, err.Error(), "Contamination")
}

func TestClassifyRequiresInputs(t *testing.T) {
	t.Setenv(config.EnvOutdir, "")
	t.Setenv(config.EnvConfig, filepath.Join(t.TempDir(), "absent.yaml"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"classify", "--ani", "ani.tsv", "--log-level", "error"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingInput))
	assert.Contains(t, err.Error(), `"checkm", "mags", "metadata", "outdir"`)
	assert.Contains(t, out.String(), "Usage:")
}

func TestApplyClassifyFlags(t *testing.T) {
	t.Setenv(config.EnvOutdir, "")
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Inputs.Mash = "from-config.tsv"

	f := pflag.NewFlagSet("classify", pflag.ContinueOnError)
	classifyFlags(f)
	require.NoError(t, f.Parse([]string{"--ani-threshold", "99", "--strict-ani", "--no-header", "--outdir", "out"}))
	require.NoError(t, applyClassifyFlags(f, cfg))

	assert.Equal(t, 99.0, cfg.Thresholds.ANI)
	assert.False(t, cfg.Thresholds.ANIInclusive)
	assert.False(t, cfg.Output.Header)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "from-config.tsv", cfg.Inputs.Mash)
	assert.Equal(t, 60.0, cfg.Thresholds.AlignFraction)
}

func TestRunScore(t *testing.T) {
	dir := t.TempDir()
	qr := writeFile(t, filepath.Join(dir, "quality_report.tsv"),
		"Name\tCompleteness\tContamination\tNotes\nbins/MAG_1.fa\t95.5\t2\tx\nMAG_2\t30\t10\ty\n")

	var stdout bytes.Buffer
	require.NoError(t, runScore(context.Background(), qr, "", &stdout, true))
	assert.Equal(t,
		"Name\tCompleteness\tContamination\tQS\nMAG_1\t95.5\t2\t85.5\nMAG_2\t30\t10\t-20\n",
		stdout.String())

	out := filepath.Join(dir, "scores.tsv.gz")
	require.NoError(t, runScore(context.Background(), qr, out, &stdout, false))
	data, err := storage.ReadSource(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, "MAG_1\t95.5\t2\t85.5\nMAG_2\t30\t10\t-20\n", string(data))
}

func TestRunAssembly(t *testing.T) {
	dir := t.TempDir()
	mag := writeFile(t, filepath.Join(dir, "MAG_1.fna"), ">c1\nACGTACGT\n>c2\nACG\n")
	missing := filepath.Join(dir, "MAG_2.fna")
	list := writeFile(t, filepath.Join(dir, "MAG_list.txt"), mag+"\n"+missing+"\n")

	var stdout bytes.Buffer
	require.NoError(t, runAssembly(context.Background(), list, "", &stdout, true))
	assert.Equal(t,
		"genome\tpath\tgenome_size\tcontigs\tN50\n"+
			"MAG_1\t"+mag+"\t11\t2\t8\n"+
			"MAG_2\t"+missing+"\tNA\tNA\tNA\n",
		stdout.String())
}
