package survival

import (
	"math"

	"gosurv/domain/core"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultKaplanMeierLabel is used when no label is given for a Kaplan-Meier fit
	DefaultKaplanMeierLabel = "KM_estimate"

	// DefaultTimelineStart, DefaultTimelineEnd and DefaultTimelinePoints describe
	// the evaluation grid used for Kaplan-Meier curves unless overridden.
	DefaultTimelineStart  = 0.0
	DefaultTimelineEnd    = 200.0
	DefaultTimelinePoints = 200

	// InterceptName is the coefficient name of the Aalen baseline term
	InterceptName = "baseline"

	// ConfidenceLevel of all reported intervals
	ConfidenceLevel = 0.95
)

// Linspace returns n evenly spaced points over [start, stop], endpoints included.
func Linspace(start, stop float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}
	out := floats.Span(make([]float64, n), start, stop)
	out[n-1] = stop
	return out
}

// DefaultTimeline is the 200-point grid over [0, 200].
func DefaultTimeline() []float64 {
	return Linspace(DefaultTimelineStart, DefaultTimelineEnd, DefaultTimelinePoints)
}

// ============================================================================
// KAPLAN-MEIER
// ============================================================================

// EventTableRow is one distinct observed time of a Kaplan-Meier fit
type EventTableRow struct {
	Time     float64 `json:"time"`
	AtRisk   int     `json:"at_risk"`
	Observed int     `json:"observed"`
	Censored int     `json:"censored"`
}

// KaplanMeierCurve is a product-limit survival estimate evaluated on a timeline
type KaplanMeierCurve struct {
	Label           string          `json:"label"`
	Timeline        []float64       `json:"timeline"`
	Survival        []float64       `json:"survival"`
	LowerCI         []float64       `json:"lower_ci"`
	UpperCI         []float64       `json:"upper_ci"`
	MedianSurvival  float64         `json:"median_survival"` // +Inf when S(t) never drops to 0.5
	EventTable      []EventTableRow `json:"event_table"`
	NumObservations int             `json:"num_observations"`
	NumEvents       int             `json:"num_events"`
}

// MedianReached reports whether the survival curve dropped to 0.5
func (c *KaplanMeierCurve) MedianReached() bool {
	return !math.IsInf(c.MedianSurvival, 1)
}

// ============================================================================
// LOG-RANK
// ============================================================================

// LogRankResult is the outcome of a two-sample log-rank test
type LogRankResult struct {
	TestName         string  `json:"test_name"`
	NullDistribution string  `json:"null_distribution"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	TestStatistic    float64 `json:"test_statistic"`
	PValue           float64 `json:"p_value"`
	NumA             int     `json:"num_a"`
	NumB             int     `json:"num_b"`
	ObservedA        float64 `json:"observed_a"`
	ExpectedA        float64 `json:"expected_a"`
	ObservedB        float64 `json:"observed_b"`
	ExpectedB        float64 `json:"expected_b"`
}

// ============================================================================
// COX PROPORTIONAL HAZARDS
// ============================================================================

// CoxCoefficient is one fitted covariate of a Cox model
type CoxCoefficient struct {
	Covariate string  `json:"covariate"`
	Coef      float64 `json:"coef"`
	ExpCoef   float64 `json:"exp_coef"`
	SE        float64 `json:"se"`
	Z         float64 `json:"z"`
	P         float64 `json:"p"`
	Lower95   float64 `json:"lower_95"`
	Upper95   float64 `json:"upper_95"`
}

// CoxModel is a fitted proportional hazards regression
type CoxModel struct {
	DurationCol        string           `json:"duration_col"`
	EventCol           string           `json:"event_col"`
	TieMethod          string           `json:"tie_method"`
	Penalizer          float64          `json:"penalizer"`
	Coefficients       []CoxCoefficient `json:"coefficients"`
	LogLikelihood      float64          `json:"log_likelihood"`
	NullLogLikelihood  float64          `json:"null_log_likelihood"`
	LRStatistic        float64          `json:"lr_statistic"`
	LRDegreesOfFreedom int              `json:"lr_degrees_of_freedom"`
	LRPValue           float64          `json:"lr_p_value"`
	Concordance        float64          `json:"concordance"`
	PartialAIC         float64          `json:"partial_aic"`
	NumObservations    int              `json:"num_observations"`
	NumEvents          int              `json:"num_events"`
	Iterations         int              `json:"iterations"`
}

// Coefficient looks up a covariate by name
func (m *CoxModel) Coefficient(name string) (CoxCoefficient, bool) {
	for _, c := range m.Coefficients {
		if c.Covariate == name {
			return c, true
		}
	}
	return CoxCoefficient{}, false
}

// ============================================================================
// AALEN ADDITIVE
// ============================================================================

// AalenOptions controls the additive hazards fit
type AalenOptions struct {
	FitIntercept bool    `json:"fit_intercept"`
	Penalizer    float64 `json:"penalizer"`
}

// AalenModel holds cumulative regression functions B_j(t) of an additive hazards fit.
// Cumulative[j][k] is covariate j at Times[k].
type AalenModel struct {
	DurationCol     string      `json:"duration_col"`
	EventCol        string      `json:"event_col"`
	FitIntercept    bool        `json:"fit_intercept"`
	Penalizer       float64     `json:"penalizer"`
	Covariates      []string    `json:"covariates"`
	Times           []float64   `json:"times"`
	Cumulative      [][]float64 `json:"cumulative"`
	Variance        [][]float64 `json:"variance"`
	NumObservations int         `json:"num_observations"`
	NumEvents       int         `json:"num_events"`
	SkippedTimes    int         `json:"skipped_times"`
}

// HasCovariate reports whether the model carries a coefficient with the given name
func (m *AalenModel) HasCovariate(name string) bool {
	for _, c := range m.Covariates {
		if c == name {
			return true
		}
	}
	return false
}

// ============================================================================
// FIGURES
// ============================================================================

// FigureKind identifies what a rendered plot shows
type FigureKind string

const (
	FigureSurvival          FigureKind = "survival"
	FigureCoefficients      FigureKind = "coefficients"
	FigureCumulativeHazards FigureKind = "cumulative_hazards"
)

// Figure is a rendered plot
type Figure struct {
	ID    core.FigureID `json:"id"`
	Kind  FigureKind    `json:"kind"`
	Title string        `json:"title"`
	Path  string        `json:"path"`
}
