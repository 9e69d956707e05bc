package app

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"gosurv/domain/dataset"
	"gosurv/domain/survival"
	"gosurv/internal/errors"
	"gosurv/ports"
)

// SurvivalAnalyzer binds a dataset and its duration/event columns and delegates
// Kaplan-Meier, log-rank, Cox and Aalen analyses to a survival library.
// It never modifies the table.
type SurvivalAnalyzer struct {
	table       *dataset.Table
	durationCol string
	eventCol    string

	library ports.SurvivalLibrary
	plotter ports.Plotter

	out      io.Writer
	timeline []float64
	onFigure func(*survival.Figure)
}

// AnalyzerOption configures a SurvivalAnalyzer
type AnalyzerOption func(*SurvivalAnalyzer)

// WithOutput sets where summaries are printed (default os.Stdout)
func WithOutput(w io.Writer) AnalyzerOption {
	return func(a *SurvivalAnalyzer) { a.out = w }
}

// WithTimeline overrides the Kaplan-Meier evaluation grid (default 200 points over [0, 200])
func WithTimeline(timeline []float64) AnalyzerOption {
	return func(a *SurvivalAnalyzer) { a.timeline = append([]float64(nil), timeline...) }
}

// WithFigureSink receives every figure the analyzer renders
func WithFigureSink(fn func(*survival.Figure)) AnalyzerOption {
	return func(a *SurvivalAnalyzer) { a.onFigure = fn }
}

// NewSurvivalAnalyzer validates the duration and event columns and returns an analyzer over table.
func NewSurvivalAnalyzer(table *dataset.Table, durationCol, eventCol string, library ports.SurvivalLibrary, plotter ports.Plotter, opts ...AnalyzerOption) (*SurvivalAnalyzer, error) {
	if table == nil {
		return nil, errors.InvalidInput("dataset is required")
	}
	if library == nil || plotter == nil {
		return nil, errors.InvalidInput("survival library and plotter are required")
	}
	if durationCol == eventCol {
		return nil, errors.ValidationError(fmt.Sprintf("duration and event column are both %q", durationCol))
	}
	if err := validateSurvivalColumns(table, durationCol, eventCol); err != nil {
		return nil, err
	}

	a := &SurvivalAnalyzer{
		table:       table,
		durationCol: durationCol,
		eventCol:    eventCol,
		library:     library,
		plotter:     plotter,
		out:         os.Stdout,
		timeline:    survival.DefaultTimeline(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// validateSurvivalColumns rejects missing columns, negative or non-finite
// durations, and event indicators outside {0, 1}.
func validateSurvivalColumns(table *dataset.Table, durationCol, eventCol string) error {
	durations, err := table.Column(durationCol)
	if err != nil {
		return errors.WithCode(errors.CodeValidationError, fmt.Errorf("duration column: %w", err))
	}
	events, err := table.Column(eventCol)
	if err != nil {
		return errors.WithCode(errors.CodeValidationError, fmt.Errorf("event column: %w", err))
	}

	for i, d := range durations {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return errors.ValidationError(fmt.Sprintf("row %d: duration %v in %q must be a non-negative number", i, d, durationCol))
		}
	}
	for i, e := range events {
		if e != 0 && e != 1 {
			return errors.ValidationError(fmt.Sprintf("row %d: event %v in %q must be 0 or 1", i, e, eventCol))
		}
	}
	return nil
}

// Table returns the bound dataset
func (a *SurvivalAnalyzer) Table() *dataset.Table { return a.table }

// DurationColumn returns the bound duration column name
func (a *SurvivalAnalyzer) DurationColumn() string { return a.durationCol }

// EventColumn returns the bound event column name
func (a *SurvivalAnalyzer) EventColumn() string { return a.eventCol }

// KaplanMeier estimates the survival curve of the whole dataset and plots it.
// An empty label means "KM_estimate".
func (a *SurvivalAnalyzer) KaplanMeier(label string) (*survival.Figure, error) {
	if label == "" {
		label = survival.DefaultKaplanMeierLabel
	}

	durations, events := a.outcomes(a.table)
	curve, err := a.library.FitKaplanMeier(durations, events, a.timeline, label)
	if err != nil {
		return nil, errors.AnalysisFailed("kaplan-meier fit", err)
	}

	fig, err := a.plotter.PlotSurvival(curve)
	if err != nil {
		return nil, errors.RenderFailed("survival curve", err)
	}
	a.emit(fig)

	fmt.Fprintf(a.out, "<Figure %s: %s>\n", fig.Kind, fig.Title)
	return fig, nil
}

// LogRank splits the dataset with the two predicates and tests whether the
// groups' survival differs. Groups are not checked for emptiness or overlap;
// the library decides. The library's result is returned as is.
func (a *SurvivalAnalyzer) LogRank(groupA, groupB dataset.Predicate) (*survival.LogRankResult, error) {
	durA, evA := a.outcomes(a.table.Filter(groupA))
	durB, evB := a.outcomes(a.table.Filter(groupB))

	log.Printf("[SurvivalAnalyzer] Log-rank test on groups of %d and %d rows", len(durA), len(durB))
	result, err := a.library.LogRankTest(durA, durB, evA, evB)
	if err != nil {
		return nil, errors.AnalysisFailed("log-rank test", err)
	}

	if err := result.WriteSummary(a.out); err != nil {
		return nil, errors.Wrap(err, "failed to print log-rank summary")
	}
	fmt.Fprintf(a.out, "p_value   %v\n", result.PValue)
	fmt.Fprintf(a.out, "test_statistic   %v\n", result.TestStatistic)

	return result, nil
}

// CoxPH fits a proportional hazards model of every other column, prints its
// coefficient summary and plots the coefficients.
func (a *SurvivalAnalyzer) CoxPH() error {
	model, err := a.library.FitCoxPH(a.table, a.durationCol, a.eventCol)
	if err != nil {
		return errors.AnalysisFailed("cox proportional hazards fit", err)
	}

	if err := model.WriteSummary(a.out); err != nil {
		return errors.Wrap(err, "failed to print cox summary")
	}

	fig, err := a.plotter.PlotCoefficients(model)
	if err != nil {
		return errors.RenderFailed("cox coefficients", err)
	}
	a.emit(fig)
	return nil
}

// AalenAdditive fits Aalen's additive hazards model without an intercept and
// plots the cumulative coefficients.
func (a *SurvivalAnalyzer) AalenAdditive() error {
	model, err := a.library.FitAalenAdditive(a.table, a.durationCol, a.eventCol, survival.AalenOptions{FitIntercept: false})
	if err != nil {
		return errors.AnalysisFailed("aalen additive fit", err)
	}

	fig, err := a.plotter.PlotCumulativeHazards(model)
	if err != nil {
		return errors.RenderFailed("aalen cumulative hazards", err)
	}
	a.emit(fig)
	return nil
}

// outcomes returns the duration and event columns of t. Both were checked at construction.
func (a *SurvivalAnalyzer) outcomes(t *dataset.Table) ([]float64, []float64) {
	durations, _ := t.Column(a.durationCol)
	events, _ := t.Column(a.eventCol)
	return durations, events
}

func (a *SurvivalAnalyzer) emit(fig *survival.Figure) {
	if a.onFigure != nil && fig != nil {
		a.onFigure(fig)
	}
}
