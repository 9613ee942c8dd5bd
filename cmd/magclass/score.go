package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scttfrdmn/magclass-go/internal/logger"
	"github.com/scttfrdmn/magclass-go/pkg/mags"
	"github.com/scttfrdmn/magclass-go/pkg/storage"
	"github.com/scttfrdmn/magclass-go/pkg/tsv"
)

var scoreOut string

var scoreCmd = &cobra.Command{
	Use:   "score <quality_report>",
	Short: "Compute quality scores from a CheckM2 report",
	Long: `Compute QS = completeness - 5 x contamination for every genome of a
CheckM2 quality report. Values are not clamped: heavily contaminated
genomes get a negative score.

Example:
  magclass score quality_report.tsv --out scores.tsv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runScore(cmd.Context(), args[0], scoreOut, cmd.OutOrStdout(), cfg.Output.Header)
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreOut, "out", "o", "",
		"Output file, local path or s3:// URI (default stdout)")
}

func writeScores(w io.Writer, records []mags.Quality, header bool) error {
	tw := tsv.NewWriter(w, []string{"Name", "Completeness", "Contamination", "QS"}, header)
	for _, q := range records {
		err := tw.Write(
			q.ID,
			tsv.FormatFloat(q.Completeness),
			tsv.FormatFloat(q.Contamination),
			tsv.FormatFloat(q.QS()),
		)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runScore(ctx context.Context, in, out string, stdout io.Writer, header bool) error {
	data, err := storage.ReadSource(ctx, in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	records, err := mags.ReadQuality(bytes.NewReader(data), in)
	if err != nil {
		return err
	}
	logger.Info("Scored genomes", zap.String("file", in), zap.Int("rows", len(records)))

	if out == "" {
		return writeScores(stdout, records, header)
	}

	var buf bytes.Buffer
	if err := writeScores(&buf, records, header); err != nil {
		return err
	}
	return storage.WriteDestination(ctx, out, buf.Bytes())
}
