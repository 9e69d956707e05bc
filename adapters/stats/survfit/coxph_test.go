package survfit

import (
	"errors"
	"math"
	"testing"

	"gosurv/domain/core"
	"gosurv/domain/dataset"
	"gosurv/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generatedCohort(t *testing.T, subjects int) *dataset.Table {
	t.Helper()
	config := testkit.DefaultSurvivalConfig()
	config.Subjects = subjects
	table, err := testkit.NewSurvivalDataGenerator(config).Generate()
	require.NoError(t, err)
	return table
}

func TestFitCoxPH_RecoversEffects(t *testing.T) {
	lib := NewLibrary(DefaultConfig())
	table := generatedCohort(t, 1500)

	model, err := lib.FitCoxPH(table, testkit.ColumnDuration, testkit.ColumnEvent)
	require.NoError(t, err)

	require.Len(t, model.Coefficients, 2)
	group, ok := model.Coefficient(testkit.ColumnGroup)
	require.True(t, ok)
	age, ok := model.Coefficient(testkit.ColumnAge)
	require.True(t, ok)

	// True log hazard ratios are 0.8 and 0.03.
	assert.InDelta(t, 0.8, group.Coef, 0.2)
	assert.InDelta(t, 0.03, age.Coef, 0.015)
	assert.Less(t, group.P, 0.001)
	assert.InDelta(t, math.Exp(group.Coef), group.ExpCoef, 1e-12)
	assert.Less(t, group.Lower95, group.Coef)
	assert.Greater(t, group.Upper95, group.Coef)
	assert.InDelta(t, group.Coef/group.SE, group.Z, 1e-12)

	assert.Equal(t, "Efron", model.TieMethod)
	assert.Equal(t, testkit.ColumnDuration, model.DurationCol)
	assert.Equal(t, testkit.ColumnEvent, model.EventCol)
	assert.Equal(t, 1500, model.NumObservations)
	assert.Greater(t, model.LogLikelihood, model.NullLogLikelihood)
	assert.Greater(t, model.LRStatistic, 0.0)
	assert.Equal(t, 2, model.LRDegreesOfFreedom)
	assert.Greater(t, model.Concordance, 0.5)
	assert.LessOrEqual(t, model.Concordance, 1.0)
	assert.InDelta(t, -2*model.LogLikelihood+4, model.PartialAIC, 1e-9)
}

func TestFitCoxPH_ScoreIsZeroAtOptimum(t *testing.T) {
	lib := NewLibrary(DefaultConfig())
	table := generatedCohort(t, 300)

	model, err := lib.FitCoxPH(table, testkit.ColumnDuration, testkit.ColumnEvent)
	require.NoError(t, err)

	data, err := extractRegressionData(table, testkit.ColumnDuration, testkit.ColumnEvent)
	require.NoError(t, err)
	x, _ := data.centered()
	lik := newEfronLikelihood(data.durations, data.events, x)

	beta := []float64{model.Coefficients[0].Coef, model.Coefficients[1].Coef}
	_, grad, info := lik.evaluate(beta, true, true)
	for j, g := range grad {
		// Standardised score; bounded by the Newton decrement at convergence.
		assert.Less(t, math.Abs(g)/math.Sqrt(info.At(j, j)), 1e-3, "score component %d", j)
	}
}

func TestFitCoxPH_ConvergesAcrossCohortSizes(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	for _, subjects := range []int{200, 500, 1500, 3000} {
		table := generatedCohort(t, subjects)
		model, err := lib.FitCoxPH(table, testkit.ColumnDuration, testkit.ColumnEvent)
		require.NoError(t, err, "%d subjects", subjects)

		group, ok := model.Coefficient(testkit.ColumnGroup)
		require.True(t, ok)
		assert.InDelta(t, 0.8, group.Coef, 0.4, "%d subjects", subjects)
		assert.LessOrEqual(t, model.Iterations, DefaultConfig().CoxMaxIterations)
	}
}

func TestFitCoxPH_IterationLimit(t *testing.T) {
	config := DefaultConfig()
	config.CoxMaxIterations = 0
	_, err := NewLibrary(config).FitCoxPH(generatedCohort(t, 300), testkit.ColumnDuration, testkit.ColumnEvent)
	assert.True(t, errors.Is(err, core.ErrNonConvergence), "got %v", err)
}

func TestFitCoxPH_PenalizerShrinks(t *testing.T) {
	table := generatedCohort(t, 300)

	plain, err := NewLibrary(DefaultConfig()).FitCoxPH(table, testkit.ColumnDuration, testkit.ColumnEvent)
	require.NoError(t, err)

	config := DefaultConfig()
	config.CoxPenalizer = 50
	shrunk, err := NewLibrary(config).FitCoxPH(table, testkit.ColumnDuration, testkit.ColumnEvent)
	require.NoError(t, err)

	g0, _ := plain.Coefficient(testkit.ColumnGroup)
	g1, _ := shrunk.Coefficient(testkit.ColumnGroup)
	assert.Less(t, math.Abs(g1.Coef), math.Abs(g0.Coef))
	assert.Equal(t, 50.0, shrunk.Penalizer)
}

func TestFitCoxPH_TiedTimes(t *testing.T) {
	lib := NewLibrary(DefaultConfig())
	table, err := dataset.NewTableFromRows(
		[]string{"t", "e", "x"},
		[][]float64{
			{1, 1, 1}, {1, 1, 0}, {2, 1, 1}, {2, 0, 0}, {3, 1, 0},
			{3, 1, 1}, {4, 0, 0}, {5, 1, 0}, {5, 1, 1}, {6, 0, 1},
		},
	)
	require.NoError(t, err)

	model, err := lib.FitCoxPH(table, "t", "e")
	require.NoError(t, err)
	assert.Len(t, model.Coefficients, 1)
	assert.False(t, math.IsNaN(model.Coefficients[0].Coef))
	assert.Greater(t, model.Coefficients[0].SE, 0.0)
}

func TestFitCoxPH_Errors(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	onlyOutcome, err := dataset.NewTableFromRows([]string{"t", "e"}, [][]float64{{1, 1}, {2, 0}})
	require.NoError(t, err)
	_, err = lib.FitCoxPH(onlyOutcome, "t", "e")
	assert.True(t, errors.Is(err, core.ErrInsufficientData), "got %v", err)

	noEvents, err := dataset.NewTableFromRows([]string{"t", "e", "x"}, [][]float64{{1, 0, 1}, {2, 0, 0}})
	require.NoError(t, err)
	_, err = lib.FitCoxPH(noEvents, "t", "e")
	assert.True(t, errors.Is(err, core.ErrInsufficientData), "got %v", err)

	_, err = lib.FitCoxPH(noEvents, "time", "e")
	assert.True(t, core.IsNotFoundError(err), "got %v", err)
}

func TestConcordanceIndex(t *testing.T) {
	durations := []float64{1, 2, 3, 4}
	events := []float64{1, 1, 1, 0}

	// Higher risk fails first everywhere.
	assert.Equal(t, 1.0, concordanceIndex(durations, events, []float64{4, 3, 2, 1}))
	// Reversed ordering.
	assert.Equal(t, 0.0, concordanceIndex(durations, events, []float64{1, 2, 3, 4}))
	// Constant scores are uninformative.
	assert.Equal(t, 0.5, concordanceIndex(durations, events, []float64{1, 1, 1, 1}))
	// No comparable pairs.
	assert.Equal(t, 0.5, concordanceIndex([]float64{1, 2}, []float64{0, 0}, []float64{1, 2}))
}
