package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/scttfrdmn/magclass-go/internal/config"
	"github.com/scttfrdmn/magclass-go/internal/logger"
	"github.com/scttfrdmn/magclass-go/pkg/assembly"
	"github.com/scttfrdmn/magclass-go/pkg/mags"
	"github.com/scttfrdmn/magclass-go/pkg/report"
	"github.com/scttfrdmn/magclass-go/pkg/storage"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify MAGs by quality and species-level novelty",
	Long: `Run the classification pipeline over the upstream reports.

Stages:
  1. Score every MAG: QS = completeness - 5 x contamination
  2. Cluster MAGs with references (ANI >= 95 and aligned fraction > 60)
  3. Novelty candidates: QS >= 50 and no species-level match
  4. Compare clustered high-quality MAGs with their best reference

Outputs (in --outdir, local or s3://):
  nMAG_list.txt             paths of novelty candidates
  reference_comparison.tsv  best reference of every compared MAG
  betterMAGs.txt            MAGs scoring higher than their reference
  MAGs.tsv                  combined classification table
  run.yaml                  run manifest

Required inputs may also be set in the config file.

Examples:
  magclass classify --ani ani.tsv --mags MAG_list.txt \
    --checkm quality_report.tsv --metadata bac120_metadata.tsv \
    --outdir results

  # Enrich the table and bundle candidate sequences
  magclass classify --ani ani.tsv --mags MAG_list.txt \
    --checkm quality_report.tsv --metadata bac120_metadata.tsv \
    --mash mash_dist.tsv --gtdbtk gtdbtk.bac120.summary.tsv \
    --assembly-stats --bundle --outdir s3://bucket/run1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyClassifyFlags(cmd.Flags(), cfg); err != nil {
			return err
		}
		if err := cfg.RequireInputs(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Inputs are valid; later failures are not usage errors.
		cmd.SilenceUsage = true
		return runClassify(cmd.Context(), cmd.OutOrStdout(), cfg)
	},
}

func init() {
	classifyFlags(classifyCmd.Flags())
}

func classifyFlags(f *pflag.FlagSet) {
	f.String("ani", "", "Pairwise identity report (Ref_file, Query_file, ANI, Align_fraction_query)")
	f.String("mags", "", "Genome list, one MAG FASTA path per line")
	f.String("checkm", "", "CheckM2 quality report (Name, Completeness, Contamination)")
	f.String("metadata", "", "GTDB reference metadata (accession, checkm2_completeness, checkm2_contamination)")
	f.String("mash", "", "Mash distance report (optional)")
	f.String("gtdbtk", "", "GTDB-Tk summary (optional)")
	f.String("outdir", "", "Output directory, local path or s3://bucket/prefix")

	f.Float64("ani-threshold", mags.DefaultMinANI, "Species-level ANI threshold (percent)")
	f.Bool("strict-ani", false, "Require ANI strictly above the threshold")
	f.Float64("af-threshold", mags.DefaultMinAlignFraction, "Aligned fraction must exceed this (percent)")
	f.Float64("qs-threshold", mags.DefaultMinQS, "Minimum quality score")
	f.Float64("mash-distance", mags.DefaultMaxDistance, "Mash distance above which a MAG has no close hit")
	f.Bool("no-header", false, "Omit header rows from tabular outputs")

	f.String("sqlite", "", "Append results to this SQLite database")
	f.String("metrics-file", "", "Write stage counts in Prometheus text format")
	f.Bool("bundle", false, "Write all candidate sequences to one FASTA file")
	f.Bool("assembly-stats", false, "Add genome size, contig count and N50 to the classification table")
}

// applyClassifyFlags overlays explicitly set flags on the loaded config.
func applyClassifyFlags(f *pflag.FlagSet, c *config.Config) error {
	for name, dst := range map[string]*string{
		"ani":          &c.Inputs.ANI,
		"mags":         &c.Inputs.MAGs,
		"checkm":       &c.Inputs.CheckM,
		"metadata":     &c.Inputs.Metadata,
		"mash":         &c.Inputs.Mash,
		"gtdbtk":       &c.Inputs.GTDBTk,
		"outdir":       &c.Output.Dir,
		"sqlite":       &c.Output.SQLite,
		"metrics-file": &c.Output.Metrics,
	} {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	for name, dst := range map[string]*float64{
		"ani-threshold": &c.Thresholds.ANI,
		"af-threshold":  &c.Thresholds.AlignFraction,
		"qs-threshold":  &c.Thresholds.QualityScore,
		"mash-distance": &c.Thresholds.MashDistance,
	} {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetFloat64(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	for name, set := range map[string]func(bool){
		"strict-ani":     func(v bool) { c.Thresholds.ANIInclusive = !v },
		"no-header":      func(v bool) { c.Output.Header = !v },
		"bundle":         func(v bool) { c.Output.WriteBundle = v },
		"assembly-stats": func(v bool) { c.Output.AssemblyStats = v },
	} {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetBool(name)
		if err != nil {
			return err
		}
		set(v)
	}
	return nil
}

func runClassify(ctx context.Context, out io.Writer, c *config.Config) error {
	runID := uuid.NewString()
	started := time.Now()
	defer logger.With(zap.String("run_id", runID))()

	src := c.Inputs.Sources()
	logger.Info("Loading reports",
		zap.String("ani", src.Identity),
		zap.String("mags", src.Genomes),
		zap.String("checkm", src.Quality),
		zap.String("metadata", src.References))

	in, err := mags.LoadInputs(ctx, src)
	if err != nil {
		return err
	}
	for _, acc := range in.SkippedReferences {
		logger.Warn("Reference metadata without CheckM2 values skipped", zap.String("accession", acc))
	}
	if in.Distances == nil {
		logger.Info("No Mash report given, mash_05 is NA")
	}
	if in.Placements == nil {
		logger.Info("No GTDB-Tk report given, GTDB_s is NA")
	}

	res := mags.Classify(in, c.Thresholds.Filter())
	for _, id := range res.UnlistedCandidates {
		logger.Warn("Candidate missing from genome list, not written to candidate list",
			zap.String("genome", id))
	}

	if c.Output.AssemblyStats {
		if failed := assembly.Annotate(res.Table); failed > 0 {
			logger.Warn("Assembly statistics unavailable for some MAGs", zap.Int("failed", failed))
		}
	}

	summary := report.Summarize(res.Comparisons)
	if err := report.NewNarrator(out).Narrate(res, summary); err != nil {
		return fmt.Errorf("write narration: %w", err)
	}

	store, err := storage.NewStorage(ctx, c.Output.Dir)
	if err != nil {
		return fmt.Errorf("failed to open output %s: %w", c.Output.Dir, err)
	}
	pub := report.NewPublisher(store, c.Output.Header)

	m := report.NewManifest(runID, started, src, res, summary)
	m.Counts.SkippedReferences = len(in.SkippedReferences)

	if c.Output.WriteBundle {
		err := pub.Write(c.Output.Bundle, func(w io.Writer) error {
			n, err := assembly.Bundle(w, res.CandidateGenomes)
			logger.Info("Bundled candidate sequences", zap.Int("records", n))
			return err
		})
		if err != nil {
			return err
		}
		m.Outputs = map[string]string{"bundle": c.Output.Bundle}
	}

	files := report.Files{
		Candidates: c.Output.Candidates,
		Comparison: c.Output.Comparison,
		Better:     c.Output.Better,
		Table:      c.Output.Table,
		Manifest:   c.Output.Manifest,
	}
	if err := pub.Publish(files, res, m, c.Output.AssemblyStats); err != nil {
		return err
	}

	if c.Output.SQLite != "" {
		if err := report.ExportSQLite(ctx, c.Output.SQLite, m, res, summary); err != nil {
			return fmt.Errorf("sqlite export: %w", err)
		}
		logger.Info("Exported run to SQLite", zap.String("file", c.Output.SQLite))
	}
	if c.Output.Metrics != "" {
		if err := report.WriteMetrics(c.Output.Metrics, m); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	logger.Info("Run complete",
		zap.String("outdir", store.GetBasePath()),
		zap.Int("candidates", res.Candidates.Len()),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}
