package main

import (
	"context"
	"log"
	"time"

	"gosurv/adapters/excel"
	"gosurv/adapters/plotting"
	"gosurv/adapters/postgres"
	"gosurv/adapters/stats/survfit"
	"gosurv/domain/dataset"
	"gosurv/internal/config"
	"gosurv/internal/errors"
	"gosurv/ui"

	"github.com/joho/godotenv"
)

// loadDataset reads the configured SQL query, or the configured file when no query is set
func loadDataset(ctx context.Context, appConfig *config.Config) (*dataset.Table, error) {
	if appConfig.Database.Query != "" {
		db, err := postgres.Connect(ctx, appConfig.Database.URL)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return postgres.NewTableSource(db, appConfig.Database.Query).LoadTable(ctx)
	}

	if appConfig.Data.File == "" {
		return nil, errors.ConfigInvalid("SURV_DATA_FILE or SURV_SQL_QUERY is required")
	}
	reader := excel.NewDataReader(excel.ReaderConfig{
		FilePath: appConfig.Data.File,
		Sheet:    appConfig.Data.Sheet,
	})
	return reader.LoadTable(ctx)
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	table, err := loadDataset(ctx, appConfig)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	plotter, err := plotting.NewFilePlotter(plotting.Config{
		OutputDir: appConfig.Plot.OutputDir,
		Format:    appConfig.Plot.Format,
		WidthCM:   appConfig.Plot.WidthCM,
		HeightCM:  appConfig.Plot.HeightCM,
	})
	if err != nil {
		log.Fatalf("Failed to initialize plotter: %v", err)
	}

	library := survfit.NewLibrary(survfit.Config{
		CoxPenalizer:     appConfig.Fitting.CoxPenalizer,
		CoxMaxIterations: appConfig.Fitting.CoxMaxIterations,
		CoxTolerance:     appConfig.Fitting.CoxTolerance,
		AalenPenalizer:   appConfig.Fitting.AalenPenalizer,
	})

	app, err := ui.NewApp(ui.Config{
		Port:        appConfig.Server.Port,
		DurationCol: appConfig.Data.DurationCol,
		EventCol:    appConfig.Data.EventCol,
		PlotDir:     plotter.OutputDir(),
	}, table, library, plotter)
	if err != nil {
		log.Fatalf("Failed to create UI app: %v", err)
	}

	log.Printf("Starting gosurv on http://localhost:%s", appConfig.Server.Port)
	log.Fatal(app.Start())
}
