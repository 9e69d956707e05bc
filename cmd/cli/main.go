package main

import (
	"fmt"
	"log"
	"os"

	"gosurv/internal"
	"gosurv/internal/config"
	"gosurv/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	file        string
	sheet       string
	sql         string
	durationCol string
	eventCol    string
	outputDir   string
	logLevel    string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[CLI] No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "gosurv",
		Short: "Survival analysis of tabular lifetime data",
		Long: `Kaplan-Meier estimates, log-rank tests, Cox proportional hazards and
Aalen additive regression over a dataset with a duration and an event column.

The dataset is read from --file (.xlsx or .csv) or from a SQL query (--sql,
using DATABASE_URL). Every other numeric column is a covariate.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logLevel == "" {
				return nil
			}
			level, ok := internal.ParseLogLevel(opts.logLevel)
			if !ok {
				return errors.InvalidInput("unknown log level " + opts.logLevel)
			}
			internal.DefaultLogger.SetLevel(level)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.file, "file", cfg.Data.File, "Dataset file (.xlsx or .csv)")
	flags.StringVar(&opts.sheet, "sheet", cfg.Data.Sheet, "Worksheet to read from .xlsx files")
	flags.StringVar(&opts.sql, "sql", cfg.Database.Query, "SQL query returning the dataset (requires DATABASE_URL)")
	flags.StringVar(&opts.durationCol, "duration", cfg.Data.DurationCol, "Duration column")
	flags.StringVar(&opts.eventCol, "event", cfg.Data.EventCol, "Event indicator column (1 = observed, 0 = censored)")
	flags.StringVar(&opts.outputDir, "plots", cfg.Plot.OutputDir, "Directory figures are written to")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: error|warn|info|debug|trace (default LOG_LEVEL or info)")

	rootCmd.AddCommand(
		newKaplanMeierCmd(cfg, opts),
		newLogRankCmd(cfg, opts),
		newCoxCmd(cfg, opts),
		newAalenCmd(cfg, opts),
		newDescribeCmd(cfg, opts),
		newReportCmd(cfg, opts),
		newServeCmd(cfg, opts),
		newGenerateCmd(cfg),
	)

	return rootCmd
}
