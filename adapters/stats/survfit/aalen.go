package survfit

import (
	"fmt"

	"gosurv/domain/core"
	"gosurv/domain/dataset"
	"gosurv/domain/survival"
	"gosurv/internal"

	"gonum.org/v1/gonum/mat"
)

// maxAalenCondition bounds the condition number of X'X + λI at an event time;
// beyond it the increment is skipped.
const maxAalenCondition = 1e12

// FitAalenAdditive estimates the cumulative regression functions of Aalen's
// additive hazards model. At each event time the increment dB(t) is the
// least-squares regression of the event indicators on the at-risk design matrix.
func (l *Library) FitAalenAdditive(table *dataset.Table, durationCol, eventCol string, opts survival.AalenOptions) (*survival.AalenModel, error) {
	data, err := extractRegressionData(table, durationCol, eventCol)
	if err != nil {
		return nil, err
	}

	names := data.names
	rows := data.x
	if opts.FitIntercept {
		names = append([]string{survival.InterceptName}, names...)
		rows = make([][]float64, len(data.x))
		for i, r := range data.x {
			rows[i] = append([]float64{1}, r...)
		}
	}
	p := len(names)
	if p == 0 {
		return nil, fmt.Errorf("%w: no covariates and no intercept", core.ErrInsufficientData)
	}

	penalizer := opts.Penalizer
	if penalizer == 0 {
		penalizer = l.config.AalenPenalizer
	}

	model := &survival.AalenModel{
		DurationCol:     durationCol,
		EventCol:        eventCol,
		FitIntercept:    opts.FitIntercept,
		Penalizer:       penalizer,
		Covariates:      names,
		Cumulative:      make([][]float64, p),
		Variance:        make([][]float64, p),
		NumObservations: len(data.durations),
		NumEvents:       countEvents(data.events),
	}

	order := orderByDuration(data.durations)
	cum := make([]float64, p)
	vars := make([]float64, p)

	for start := 0; start < len(order); {
		t := data.durations[order[start]]
		end := start
		hasEvent := false
		for end < len(order) && data.durations[order[end]] == t {
			if data.events[order[end]] == 1 {
				hasEvent = true
			}
			end++
		}
		if !hasEvent {
			start = end
			continue
		}

		// Risk set: everyone from start onward, since order is ascending in time.
		riskSet := order[start:]
		dB, dVar, ok := aalenIncrement(rows, data.durations, data.events, riskSet, t, p, penalizer)
		if !ok {
			model.SkippedTimes++
			start = end
			continue
		}

		for j := 0; j < p; j++ {
			cum[j] += dB[j]
			vars[j] += dVar[j]
			model.Cumulative[j] = append(model.Cumulative[j], cum[j])
			model.Variance[j] = append(model.Variance[j], vars[j])
		}
		model.Times = append(model.Times, t)
		start = end
	}

	if len(model.Times) == 0 {
		return nil, fmt.Errorf("%w: no event time had an estimable increment", core.ErrSingularDesign)
	}
	if model.SkippedTimes > 0 {
		internal.DefaultLogger.Warn("[SurvivalLibrary] Aalen fit skipped %d of %d event times with singular design; estimates may be unstable",
			model.SkippedTimes, model.SkippedTimes+len(model.Times))
	}

	return model, nil
}

// aalenIncrement solves (X'X + λI) dB = X'dN over the risk set at time t and
// returns dB with its variance increment, or ok=false when the system is singular.
func aalenIncrement(rows [][]float64, durations, events []float64, riskSet []int, t float64, p int, penalizer float64) ([]float64, []float64, bool) {
	n := len(riskSet)
	if n < p && penalizer == 0 {
		return nil, nil, false
	}

	x := mat.NewDense(n, p, nil)
	dN := mat.NewVecDense(n, nil)
	for k, i := range riskSet {
		x.SetRow(k, rows[i])
		if durations[i] == t && events[i] == 1 {
			dN.SetVec(k, 1)
		}
	}

	a := mat.NewSymDense(p, nil)
	a.SymOuterK(1, x.T())
	for j := 0; j < p; j++ {
		a.SetSym(j, j, a.At(j, j)+penalizer)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok || chol.Cond() > maxAalenCondition {
		return nil, nil, false
	}

	// Generalised inverse X⁻ = (X'X + λI)⁻¹ X', so dB = X⁻ dN.
	var pinv mat.Dense
	if err := chol.SolveTo(&pinv, x.T()); err != nil {
		return nil, nil, false
	}

	dB := make([]float64, p)
	dVar := make([]float64, p)
	for k := 0; k < n; k++ {
		if dN.AtVec(k) == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			v := pinv.At(j, k)
			dB[j] += v
			dVar[j] += v * v
		}
	}
	return dB, dVar, true
}
