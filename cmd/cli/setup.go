package main

import (
	"context"
	"io"
	"log"

	"gosurv/adapters/excel"
	"gosurv/adapters/plotting"
	"gosurv/adapters/postgres"
	"gosurv/adapters/stats/survfit"
	"gosurv/app"
	"gosurv/domain/dataset"
	"gosurv/internal/config"
	"gosurv/internal/errors"
	"gosurv/ports"
)

// environment is the wiring shared by the analysis commands
type environment struct {
	table   *dataset.Table
	library ports.SurvivalLibrary
	plotter *plotting.FilePlotter
	opts    *globalOptions
}

func setup(ctx context.Context, cfg *config.Config, opts *globalOptions) (*environment, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	source, cleanup, err := tableSource(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	table, err := source.LoadTable(ctx)
	if err != nil {
		return nil, err
	}

	plotConfig := plotting.Config{
		OutputDir: opts.outputDir,
		Format:    cfg.Plot.Format,
		WidthCM:   cfg.Plot.WidthCM,
		HeightCM:  cfg.Plot.HeightCM,
	}
	plotter, err := plotting.NewFilePlotter(plotConfig)
	if err != nil {
		return nil, err
	}

	library := survfit.NewLibrary(survfit.Config{
		CoxPenalizer:     cfg.Fitting.CoxPenalizer,
		CoxMaxIterations: cfg.Fitting.CoxMaxIterations,
		CoxTolerance:     cfg.Fitting.CoxTolerance,
		AalenPenalizer:   cfg.Fitting.AalenPenalizer,
	})

	return &environment{table: table, library: library, plotter: plotter, opts: opts}, nil
}

// tableSource picks the SQL source when a query is given, otherwise the file reader
func tableSource(ctx context.Context, cfg *config.Config, opts *globalOptions) (ports.TableSource, func(), error) {
	if opts.sql != "" {
		if cfg.Database.URL == "" {
			return nil, nil, errors.ConfigInvalid("--sql requires DATABASE_URL")
		}
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[CLI] Loading dataset from SQL query")
		return postgres.NewTableSource(db, opts.sql), func() { db.Close() }, nil
	}

	if opts.file == "" {
		return nil, nil, errors.InvalidInput("no dataset: pass --file or --sql")
	}
	reader := excel.NewDataReader(excel.ReaderConfig{FilePath: opts.file, Sheet: opts.sheet})
	return reader, func() {}, nil
}

// analyzer binds the loaded table; a nil timeline keeps the default grid
func (e *environment) analyzer(out io.Writer, timeline []float64) (*app.SurvivalAnalyzer, error) {
	options := []app.AnalyzerOption{app.WithOutput(out)}
	if timeline != nil {
		options = append(options, app.WithTimeline(timeline))
	}
	return app.NewSurvivalAnalyzer(e.table, e.opts.durationCol, e.opts.eventCol, e.library, e.plotter, options...)
}
