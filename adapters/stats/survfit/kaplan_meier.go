package survfit

import (
	"fmt"
	"math"
	"sort"

	"gosurv/domain/core"
	"gosurv/domain/survival"

	"gonum.org/v1/gonum/stat/distuv"
)

// FitKaplanMeier computes the product-limit estimate of S(t) on the timeline,
// with exponential Greenwood confidence bounds.
func (l *Library) FitKaplanMeier(durations, events, timeline []float64, label string) (*survival.KaplanMeierCurve, error) {
	if err := validateObservations(durations, events); err != nil {
		return nil, err
	}
	if len(durations) == 0 {
		return nil, fmt.Errorf("%w: Kaplan-Meier needs at least one observation", core.ErrInsufficientData)
	}

	steps, table := productLimit(durations, events)

	curve := &survival.KaplanMeierCurve{
		Label:           label,
		Timeline:        append([]float64(nil), timeline...),
		Survival:        make([]float64, len(timeline)),
		LowerCI:         make([]float64, len(timeline)),
		UpperCI:         make([]float64, len(timeline)),
		MedianSurvival:  math.Inf(1),
		EventTable:      table,
		NumObservations: len(durations),
		NumEvents:       countEvents(events),
	}

	z := distuv.UnitNormal.Quantile(1 - (1-survival.ConfidenceLevel)/2)
	for i, t := range timeline {
		s, gw := steps.at(t)
		curve.Survival[i] = s
		curve.LowerCI[i], curve.UpperCI[i] = greenwoodBounds(s, gw, z)
	}

	for _, st := range steps {
		if st.survival <= 0.5 {
			curve.MedianSurvival = st.time
			break
		}
	}

	return curve, nil
}

type kmStep struct {
	time      float64
	survival  float64
	greenwood float64 // running sum of d / (n (n - d))
}

type kmSteps []kmStep

// at evaluates the right-continuous step function at t
func (s kmSteps) at(t float64) (float64, float64) {
	i := sort.Search(len(s), func(i int) bool { return s[i].time > t })
	if i == 0 {
		return 1, 0
	}
	return s[i-1].survival, s[i-1].greenwood
}

// productLimit walks the distinct observed times in order and returns the
// survival steps at event times plus the full event table.
func productLimit(durations, events []float64) (kmSteps, []survival.EventTableRow) {
	order := orderByDuration(durations)
	n := len(durations)

	var steps kmSteps
	var table []survival.EventTableRow
	s, gw := 1.0, 0.0

	for i := 0; i < n; {
		t := durations[order[i]]
		row := survival.EventTableRow{Time: t, AtRisk: n - i}
		j := i
		for ; j < n && durations[order[j]] == t; j++ {
			if events[order[j]] == 1 {
				row.Observed++
			} else {
				row.Censored++
			}
		}
		table = append(table, row)

		if row.Observed > 0 {
			d, r := float64(row.Observed), float64(row.AtRisk)
			s *= 1 - d/r
			if r > d {
				gw += d / (r * (r - d))
			} else {
				gw = math.Inf(1)
			}
			steps = append(steps, kmStep{time: t, survival: s, greenwood: gw})
		}
		i = j
	}

	return steps, table
}

// greenwoodBounds returns the log(-log) transformed confidence interval
func greenwoodBounds(s, gw, z float64) (float64, float64) {
	switch {
	case s >= 1:
		return 1, 1
	case s <= 0 || math.IsInf(gw, 1):
		return 0, 0
	}
	logS := math.Log(s)
	se := math.Sqrt(gw / (logS * logS))
	c := math.Log(-logS)
	lower := math.Exp(-math.Exp(c + z*se))
	upper := math.Exp(-math.Exp(c - z*se))
	return lower, upper
}
