package survfit

import (
	"errors"
	"testing"

	"gosurv/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRankTest_HandComputed(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	res, err := lib.LogRankTest(
		[]float64{1, 2, 3}, []float64{2, 4, 5},
		[]float64{1, 1, 1}, []float64{1, 1, 0},
	)
	require.NoError(t, err)

	// Event times 1,2,3,4: E_A = 1/2 + 4/5 + 1/3, Var = 1/4 + 9/25 + 2/9.
	assert.Equal(t, "logrank_test", res.TestName)
	assert.Equal(t, 1, res.DegreesOfFreedom)
	assert.InDelta(t, 3.0, res.ObservedA, 1e-12)
	assert.InDelta(t, 1.633333, res.ExpectedA, 1e-6)
	assert.InDelta(t, 2.0, res.ObservedB, 1e-12)
	assert.InDelta(t, 5-1.633333, res.ExpectedB, 1e-6)
	assert.InDelta(t, 2.244326, res.TestStatistic, 1e-6)
	assert.InDelta(t, 0.134105, res.PValue, 1e-6)
	assert.Equal(t, 3, res.NumA)
	assert.Equal(t, 3, res.NumB)
}

func TestLogRankTest_Symmetric(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	ab, err := lib.LogRankTest([]float64{1, 2, 3}, []float64{2, 4, 5}, []float64{1, 1, 1}, []float64{1, 1, 0})
	require.NoError(t, err)
	ba, err := lib.LogRankTest([]float64{2, 4, 5}, []float64{1, 2, 3}, []float64{1, 1, 0}, []float64{1, 1, 1})
	require.NoError(t, err)

	assert.InDelta(t, ab.TestStatistic, ba.TestStatistic, 1e-12)
	assert.InDelta(t, ab.PValue, ba.PValue, 1e-12)
}

func TestLogRankTest_IdenticalGroups(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	d := []float64{1, 2, 3, 4}
	e := []float64{1, 0, 1, 1}
	res, err := lib.LogRankTest(d, d, e, e)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.TestStatistic, 1e-12)
	assert.InDelta(t, 1.0, res.PValue, 1e-12)
}

func TestLogRankTest_EmptyGroup(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	_, err := lib.LogRankTest(nil, []float64{1, 2}, nil, []float64{1, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmptyGroup))

	_, err = lib.LogRankTest([]float64{1, 2}, []float64{}, []float64{1, 1}, []float64{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmptyGroup))
	assert.Contains(t, err.Error(), "group B")
}

func TestLogRankTest_NoEvents(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	_, err := lib.LogRankTest([]float64{1, 2}, []float64{3}, []float64{0, 0}, []float64{0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDegenerateTest))
}

func TestLogRankTest_InvalidEvents(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	_, err := lib.LogRankTest([]float64{1}, []float64{3}, []float64{1}, []float64{5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidEvent))
}
