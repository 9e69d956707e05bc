package ports

import (
	"context"

	"gosurv/domain/dataset"
	"gosurv/domain/survival"
)

// SurvivalLibrary is the statistics collaborator the analyzer delegates every
// estimate, test and regression to.
type SurvivalLibrary interface {
	// FitKaplanMeier estimates S(t) from durations and event indicators, evaluated on timeline.
	FitKaplanMeier(durations, events, timeline []float64, label string) (*survival.KaplanMeierCurve, error)

	// LogRankTest compares the survival of two groups.
	LogRankTest(durationsA, durationsB, eventsA, eventsB []float64) (*survival.LogRankResult, error)

	// FitCoxPH regresses every column other than durationCol and eventCol.
	FitCoxPH(table *dataset.Table, durationCol, eventCol string) (*survival.CoxModel, error)

	// FitAalenAdditive fits an additive hazards model on every other column.
	FitAalenAdditive(table *dataset.Table, durationCol, eventCol string, opts survival.AalenOptions) (*survival.AalenModel, error)
}

// Plotter renders fitted results
type Plotter interface {
	PlotSurvival(curve *survival.KaplanMeierCurve) (*survival.Figure, error)
	PlotCoefficients(model *survival.CoxModel) (*survival.Figure, error)
	PlotCumulativeHazards(model *survival.AalenModel) (*survival.Figure, error)
}

// TableSource loads a dataset from an external store
type TableSource interface {
	LoadTable(ctx context.Context) (*dataset.Table, error)
}
