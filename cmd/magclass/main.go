package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/magclass-go/internal/config"
	"github.com/scttfrdmn/magclass-go/internal/logger"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "magclass",
	Short: "magclass - MAG quality and novelty classification",
	Long: `magclass classifies metagenome-assembled genomes (MAGs) by quality and
species-level novelty.

It joins the reports of the upstream tools (CheckM2 quality, skani/fastANI
identity, Mash distance, GTDB-Tk placement and GTDB reference metadata) on
a canonical genome identifier, scores every MAG (QS = completeness - 5 x
contamination) and lists the high-quality MAGs that do not share a species
cluster with any reference genome.

Inputs and outputs may be local paths or s3:// URIs; gzip and zstd
compressed reports are read transparently.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envErr := config.LoadEnv()

		var err error
		cfg, err = config.Load(config.Path(configPath))
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
			cfg.LogLevel = logLevel
		}

		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		if err := logger.InitLogger(level); err != nil {
			return fmt.Errorf("failed to initialise logger: %w", err)
		}
		if envErr != nil {
			logger.Warn("No .env found, using local environment")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default $MAGCLASS_CONFIG or ./magclass.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(assemblyCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "magclass version %s\n", version)
	},
}
