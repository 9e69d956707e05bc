package survfit

import (
	"fmt"
	"sort"

	"gosurv/domain/core"
	"gosurv/domain/survival"

	"gonum.org/v1/gonum/stat/distuv"
)

// LogRankTest runs the two-sample log-rank test. The statistic is
// (O_A - E_A)^2 / Var and is compared against a chi-squared distribution with one degree of freedom.
func (l *Library) LogRankTest(durationsA, durationsB, eventsA, eventsB []float64) (*survival.LogRankResult, error) {
	if err := validateObservations(durationsA, eventsA); err != nil {
		return nil, fmt.Errorf("group A: %w", err)
	}
	if err := validateObservations(durationsB, eventsB); err != nil {
		return nil, fmt.Errorf("group B: %w", err)
	}
	if len(durationsA) == 0 {
		return nil, core.NewEmptyGroupError("group A")
	}
	if len(durationsB) == 0 {
		return nil, core.NewEmptyGroupError("group B")
	}

	sortedA := sortedCopy(durationsA)
	sortedB := sortedCopy(durationsB)

	deathsA := eventCounts(durationsA, eventsA)
	deathsB := eventCounts(durationsB, eventsB)
	times := unionKeys(deathsA, deathsB)

	var observedA, expectedA, variance, totalDeaths float64
	for _, t := range times {
		n1 := float64(atRisk(sortedA, t))
		n2 := float64(atRisk(sortedB, t))
		d1 := float64(deathsA[t])
		d := d1 + float64(deathsB[t])
		n := n1 + n2

		observedA += d1
		expectedA += d * n1 / n
		totalDeaths += d
		if n > 1 {
			variance += d * (n1 / n) * (n2 / n) * (n - d) / (n - 1)
		}
	}

	if variance <= 0 {
		return nil, fmt.Errorf("%w: log-rank variance is zero (%v events across %d distinct times)", core.ErrDegenerateTest, totalDeaths, len(times))
	}

	diff := observedA - expectedA
	statistic := diff * diff / variance

	return &survival.LogRankResult{
		TestName:         "logrank_test",
		NullDistribution: "chi squared",
		DegreesOfFreedom: 1,
		TestStatistic:    statistic,
		PValue:           distuv.ChiSquared{K: 1}.Survival(statistic),
		NumA:             len(durationsA),
		NumB:             len(durationsB),
		ObservedA:        observedA,
		ExpectedA:        expectedA,
		ObservedB:        totalDeaths - observedA,
		ExpectedB:        totalDeaths - expectedA,
	}, nil
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

// eventCounts maps each event time to its number of observed events
func eventCounts(durations, events []float64) map[float64]int {
	out := make(map[float64]int)
	for i, t := range durations {
		if events[i] == 1 {
			out[t]++
		}
	}
	return out
}

func unionKeys(a, b map[float64]int) []float64 {
	seen := make(map[float64]bool, len(a)+len(b))
	var keys []float64
	for _, m := range []map[float64]int{a, b} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Float64s(keys)
	return keys
}
