package main

import (
	"bytes"
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scttfrdmn/magclass-go/internal/logger"
	"github.com/scttfrdmn/magclass-go/pkg/assembly"
	"github.com/scttfrdmn/magclass-go/pkg/mags"
	"github.com/scttfrdmn/magclass-go/pkg/storage"
	"github.com/scttfrdmn/magclass-go/pkg/tsv"
)

var assemblyOut string

var assemblyCmd = &cobra.Command{
	Use:   "assembly <mag_list>",
	Short: "Report genome size, contig count and N50 of each MAG",
	Long: `Measure every MAG FASTA file named in a genome list.

FASTA files may be gzip, xz, zstd or bzip2 compressed. Files that cannot be
read are reported with NA values.

Example:
  magclass assembly MAG_list.txt --out assembly_stats.tsv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runAssembly(cmd.Context(), args[0], assemblyOut, cmd.OutOrStdout(), cfg.Output.Header)
	},
}

func init() {
	assemblyCmd.Flags().StringVarP(&assemblyOut, "out", "o", "",
		"Output file, local path or s3:// URI (default stdout)")
}

func writeAssemblyStats(w io.Writer, rows []mags.Classification, header bool) error {
	tw := tsv.NewWriter(w, []string{"genome", "path", "genome_size", "contigs", "N50"}, header)
	for _, r := range rows {
		err := tw.Write(
			r.Genome,
			r.Path,
			tsv.FormatNullInt(r.GenomeSize),
			tsv.FormatNullInt(r.Contigs),
			tsv.FormatNullInt(r.N50),
		)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runAssembly(ctx context.Context, list, out string, stdout io.Writer, header bool) error {
	t, err := tsv.Load(ctx, list, mags.GenomeListSchema)
	if err != nil {
		return err
	}
	genomes := mags.GenomesFromTable(t)

	rows := make([]mags.Classification, len(genomes))
	for i, g := range genomes {
		rows[i] = mags.Classification{Genome: g.ID, Path: g.Path}
	}
	failed := assembly.Annotate(rows)
	logger.Info("Measured assemblies",
		zap.String("file", list),
		zap.Int("genomes", len(rows)),
		zap.Int("failed", failed))

	if out == "" {
		return writeAssemblyStats(stdout, rows, header)
	}

	var buf bytes.Buffer
	if err := writeAssemblyStats(&buf, rows, header); err != nil {
		return err
	}
	return storage.WriteDestination(ctx, out, buf.Bytes())
}
