package survfit

import (
	"errors"
	"math"
	"testing"

	"gosurv/domain/core"
	"gosurv/domain/survival"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// durations 1,2,2,3,4,5 with the tied 2 and the 4 censored
var (
	kmDurations = []float64{1, 2, 2, 3, 4, 5}
	kmEvents    = []float64{1, 1, 0, 1, 0, 1}
)

func TestFitKaplanMeier_ProductLimit(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	curve, err := lib.FitKaplanMeier(kmDurations, kmEvents, []float64{0, 1, 2.5, 3, 4.5, 10}, "cohort")
	require.NoError(t, err)

	want := []float64{1, 5.0 / 6, 4.0 / 6, 4.0 / 9, 4.0 / 9, 0}
	require.Len(t, curve.Survival, len(want))
	for i := range want {
		assert.InDelta(t, want[i], curve.Survival[i], 1e-12, "S(t) at timeline index %d", i)
	}

	assert.Equal(t, "cohort", curve.Label)
	assert.Equal(t, 6, curve.NumObservations)
	assert.Equal(t, 4, curve.NumEvents)
	assert.Equal(t, 3.0, curve.MedianSurvival)
	assert.True(t, curve.MedianReached())
}

func TestFitKaplanMeier_GreenwoodBounds(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	curve, err := lib.FitKaplanMeier(kmDurations, kmEvents, []float64{0, 1, 10}, "cohort")
	require.NoError(t, err)

	// Before the first event the curve is certain.
	assert.Equal(t, 1.0, curve.LowerCI[0])
	assert.Equal(t, 1.0, curve.UpperCI[0])

	// Exponential Greenwood interval at S = 5/6, variance term 1/30.
	assert.InDelta(t, 0.273123, curve.LowerCI[1], 1e-5)
	assert.InDelta(t, 0.974712, curve.UpperCI[1], 1e-5)

	// Curve reached zero.
	assert.Equal(t, 0.0, curve.LowerCI[2])
	assert.Equal(t, 0.0, curve.UpperCI[2])
}

func TestFitKaplanMeier_EventTable(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	curve, err := lib.FitKaplanMeier(kmDurations, kmEvents, survival.DefaultTimeline(), survival.DefaultKaplanMeierLabel)
	require.NoError(t, err)

	assert.Equal(t, []survival.EventTableRow{
		{Time: 1, AtRisk: 6, Observed: 1, Censored: 0},
		{Time: 2, AtRisk: 5, Observed: 1, Censored: 1},
		{Time: 3, AtRisk: 3, Observed: 1, Censored: 0},
		{Time: 4, AtRisk: 2, Observed: 0, Censored: 1},
		{Time: 5, AtRisk: 1, Observed: 1, Censored: 0},
	}, curve.EventTable)
	assert.Len(t, curve.Timeline, 200)
}

func TestFitKaplanMeier_EventAtTimelineEnd(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	curve, err := lib.FitKaplanMeier([]float64{50, 200}, []float64{1, 1}, survival.DefaultTimeline(), "end")
	require.NoError(t, err)
	require.Len(t, curve.Survival, 200)
	assert.Equal(t, 200.0, curve.Timeline[199])
	assert.Equal(t, 0.0, curve.Survival[199])
	assert.InDelta(t, 0.5, curve.Survival[198], 1e-12)
}

func TestFitKaplanMeier_AllCensored(t *testing.T) {
	lib := NewLibrary(DefaultConfig())

	curve, err := lib.FitKaplanMeier([]float64{3, 4}, []float64{0, 0}, []float64{0, 5}, "censored")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, curve.Survival)
	assert.False(t, curve.MedianReached())
	assert.True(t, math.IsInf(curve.MedianSurvival, 1))
}

func TestFitKaplanMeier_InvalidInput(t *testing.T) {
	lib := NewLibrary(DefaultConfig())
	timeline := []float64{0, 1}

	tests := []struct {
		name      string
		durations []float64
		events    []float64
		want      error
	}{
		{"empty", nil, nil, core.ErrInsufficientData},
		{"length mismatch", []float64{1, 2}, []float64{1}, core.ErrLengthMismatch},
		{"negative duration", []float64{-1}, []float64{1}, core.ErrInvalidDuration},
		{"nan duration", []float64{math.NaN()}, []float64{1}, core.ErrInvalidDuration},
		{"event not binary", []float64{1}, []float64{2}, core.ErrInvalidEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lib.FitKaplanMeier(tt.durations, tt.events, timeline, "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
