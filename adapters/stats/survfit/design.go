package survfit

import (
	"fmt"
	"math"

	"gosurv/domain/core"
	"gosurv/domain/dataset"
)

// regressionData is a table split into survival outcome and covariate matrix
type regressionData struct {
	names     []string
	durations []float64
	events    []float64
	x         [][]float64 // row-major, len(durations) x len(names)
}

// extractRegressionData pulls durations, events and every other column out of table
func extractRegressionData(table *dataset.Table, durationCol, eventCol string) (*regressionData, error) {
	durations, err := table.Column(durationCol)
	if err != nil {
		return nil, err
	}
	events, err := table.Column(eventCol)
	if err != nil {
		return nil, err
	}
	if err := validateObservations(durations, events); err != nil {
		return nil, err
	}
	if len(durations) == 0 {
		return nil, fmt.Errorf("%w: no rows", core.ErrInsufficientData)
	}

	names := table.Covariates(durationCol, eventCol)
	cols := make([][]float64, len(names))
	for j, name := range names {
		col, err := table.Column(name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: covariate %q row %d is %v", core.ErrInsufficientData, name, i, v)
			}
		}
		cols[j] = col
	}

	x := make([][]float64, len(durations))
	for i := range x {
		x[i] = make([]float64, len(names))
		for j := range names {
			x[i][j] = cols[j][i]
		}
	}

	return &regressionData{names: names, durations: durations, events: events, x: x}, nil
}

// centered returns a copy of x with each column's mean subtracted, and the means
func (d *regressionData) centered() ([][]float64, []float64) {
	p := len(d.names)
	n := len(d.x)
	means := make([]float64, p)
	for _, row := range d.x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}

	out := make([][]float64, n)
	for i, row := range d.x {
		out[i] = make([]float64, p)
		for j, v := range row {
			out[i][j] = v - means[j]
		}
	}
	return out, means
}
