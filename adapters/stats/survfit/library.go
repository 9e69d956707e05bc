// Package survfit implements the survival library port on gonum: product-limit
// estimation, the log-rank test, Cox regression and Aalen's additive model.
package survfit

import (
	"fmt"
	"math"
	"sort"

	"gosurv/domain/core"
	"gosurv/ports"
)

// Config holds fitting parameters
type Config struct {
	CoxPenalizer     float64 // L2 penalty on Cox coefficients
	CoxMaxIterations int
	CoxTolerance     float64 // Newton decrement, in log-likelihood units, at which Newton-Raphson stops
	AalenPenalizer   float64 // ridge penalty used when a call does not set one
}

// DefaultConfig returns the fitting parameters used when nothing is configured
func DefaultConfig() Config {
	return Config{
		CoxPenalizer:     0,
		CoxMaxIterations: 50,
		CoxTolerance:     1e-7,
		AalenPenalizer:   0,
	}
}

// Library is the gonum-backed survival library
type Library struct {
	config Config
}

var _ ports.SurvivalLibrary = (*Library)(nil)

// NewLibrary creates a survival library with the given config
func NewLibrary(config Config) *Library {
	if config.CoxMaxIterations <= 0 {
		config.CoxMaxIterations = DefaultConfig().CoxMaxIterations
	}
	if config.CoxTolerance <= 0 {
		config.CoxTolerance = DefaultConfig().CoxTolerance
	}
	return &Library{config: config}
}

// validateObservations checks durations and event indicators for one sample
func validateObservations(durations, events []float64) error {
	if len(durations) != len(events) {
		return fmt.Errorf("%w: %d durations, %d event indicators", core.ErrLengthMismatch, len(durations), len(events))
	}
	for i, d := range durations {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return fmt.Errorf("%w: row %d has duration %v", core.ErrInvalidDuration, i, d)
		}
	}
	for i, e := range events {
		if e != 0 && e != 1 {
			return fmt.Errorf("%w: row %d has event %v, expected 0 or 1", core.ErrInvalidEvent, i, e)
		}
	}
	return nil
}

// countEvents returns the number of observed events
func countEvents(events []float64) int {
	n := 0
	for _, e := range events {
		if e == 1 {
			n++
		}
	}
	return n
}

// orderByDuration returns row indices sorted by ascending duration, stable on ties
func orderByDuration(durations []float64) []int {
	idx := make([]int, len(durations))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return durations[idx[a]] < durations[idx[b]] })
	return idx
}

// atRisk counts values in sorted that are >= t
func atRisk(sorted []float64, t float64) int {
	return len(sorted) - sort.SearchFloat64s(sorted, t)
}
