package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gosurv/adapters/excel"
	"gosurv/domain/survival"
	"gosurv/internal/config"
	"gosurv/internal/errors"
	"gosurv/internal/profiling"
	"gosurv/internal/query"
	"gosurv/internal/report"
	"gosurv/internal/testkit"
	"gosurv/ui"

	"github.com/spf13/cobra"
)

func newKaplanMeierCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var label string
	var stop float64
	var points int

	cmd := &cobra.Command{
		Use:   "km",
		Short: "Estimate and plot the Kaplan-Meier survival curve",
		Long: `Fit a Kaplan-Meier estimator to the whole dataset and save the survival curve.

Example: gosurv km --file rossi.csv --duration week --event arrest --label rossi`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			analyzer, err := env.analyzer(cmd.OutOrStdout(), survival.Linspace(0, stop, points))
			if err != nil {
				return err
			}
			fig, err := analyzer.KaplanMeier(label)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", fig.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", survival.DefaultKaplanMeierLabel, "Curve label")
	cmd.Flags().Float64Var(&stop, "timeline-stop", survival.DefaultTimelineEnd, "Last point of the evaluation timeline")
	cmd.Flags().IntVar(&points, "timeline-points", survival.DefaultTimelinePoints, "Number of timeline points")
	return cmd
}

func newLogRankCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logrank [group-a] [group-b]",
		Short: "Compare the survival of two groups with the log-rank test",
		Long: `Select two groups of rows with query expressions and test whether their
survival differs.

Queries compare columns with numbers and combine with and/or/not:

Example: gosurv logrank --file rossi.csv --duration week --event arrest "fin == 0" "fin == 1"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			groupA, err := query.Compile(args[0], env.table)
			if err != nil {
				return errors.Wrap(err, "group A")
			}
			groupB, err := query.Compile(args[1], env.table)
			if err != nil {
				return errors.Wrap(err, "group B")
			}

			analyzer, err := env.analyzer(cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			_, err = analyzer.LogRank(groupA, groupB)
			return err
		},
	}
}

func newCoxCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cox",
		Short: "Fit a Cox proportional hazards model on every covariate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			analyzer, err := env.analyzer(cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			return analyzer.CoxPH()
		},
	}
}

func newAalenCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "aalen",
		Short: "Fit Aalen's additive hazards model and plot cumulative coefficients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			analyzer, err := env.analyzer(cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			return analyzer.AalenAdditive()
		},
	}
}

func newDescribeCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Summarise the dataset's duration, events and covariates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			profile, err := profiling.NewDistributionAnalyzer().ProfileTable(env.table, opts.durationCol, opts.eventCol)
			if err != nil {
				return errors.WithCode(errors.CodeValidationError, err)
			}
			return profile.WriteSummary(cmd.OutOrStdout())
		},
	}
}

func newReportCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var out, title, groupA, groupB string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run every analysis and write an HTML or markdown report",
		Long: `Run Kaplan-Meier, Cox and Aalen (and a log-rank test when both groups are
given) concurrently and assemble the results into one report.

Example: gosurv report --file rossi.csv --group-a "fin == 0" --group-b "fin == 1" --out rossi.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}

			outDir := filepath.Dir(out)
			prefix, err := filepath.Rel(outDir, env.plotter.OutputDir())
			if err != nil {
				prefix = env.plotter.OutputDir()
			}

			rep, err := report.NewBuilder(env.library, env.plotter, nil).Build(cmd.Context(), env.table, report.Options{
				Title:         title,
				DurationCol:   opts.durationCol,
				EventCol:      opts.eventCol,
				GroupA:        groupA,
				GroupB:        groupB,
				PlotURLPrefix: filepath.ToSlash(prefix),
			})
			if err != nil {
				return err
			}

			content := rep.RenderHTML()
			if filepath.Ext(out) == ".md" {
				content = []byte(rep.Markdown)
			}
			if err := os.WriteFile(out, content, 0o644); err != nil {
				return errors.Wrap(err, "failed to write report")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report %s written to %s (%d sections, %d failed)\n",
				rep.ID.Short(), out, len(rep.Sections), len(rep.Failed()))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "report.html", "Output file (.html or .md)")
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	cmd.Flags().StringVar(&groupA, "group-a", "", "Query selecting the first log-rank group")
	cmd.Flags().StringVar(&groupB, "group-b", "", "Query selecting the second log-rank group")
	return cmd
}

func newServeCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyses, plots, report and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			app, err := ui.NewApp(ui.Config{
				Port:        port,
				DurationCol: opts.durationCol,
				EventCol:    opts.eventCol,
				PlotDir:     env.plotter.OutputDir(),
			}, env.table, env.library, env.plotter)
			if err != nil {
				return err
			}
			return app.Start()
		},
	}

	cmd.Flags().StringVar(&port, "port", cfg.Server.Port, "HTTP port")
	return cmd
}

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	genConfig := testkit.DefaultSurvivalConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic two-group cohort with an age covariate",
		Long: `Simulate exponential lifetimes with a group and an age effect, administrative
censoring and random dropout.

Example: gosurv generate --out cohort.xlsx --subjects 500 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := testkit.NewSurvivalDataGenerator(genConfig).Generate()
			if err != nil {
				return err
			}
			if err := excel.WriteTable(table, out, cfg.Data.Sheet); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d subjects to %s\n", table.NumRows(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "cohort.xlsx", "Output file (.xlsx or .csv)")
	cmd.Flags().IntVar(&genConfig.Subjects, "subjects", genConfig.Subjects, "Number of subjects")
	cmd.Flags().Int64Var(&genConfig.Seed, "seed", genConfig.Seed, "Random seed")
	cmd.Flags().Float64Var(&genConfig.GroupEffect, "group-effect", genConfig.GroupEffect, "Log hazard ratio of group 1")
	cmd.Flags().Float64Var(&genConfig.FollowUp, "follow-up", genConfig.FollowUp, "Administrative censoring time")
	return cmd
}
