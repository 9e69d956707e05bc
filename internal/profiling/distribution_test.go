package profiling

import (
	"bytes"
	"testing"

	"gosurv/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileTable(t *testing.T) {
	table, err := dataset.NewTableFromRows(
		[]string{"duration", "event", "age"},
		[][]float64{
			{2, 1, 50}, {4, 0, 60}, {6, 1, 70}, {8, 1, 80},
			{10, 1, 90}, {12, 0, 100}, {100, 0, 110},
		},
	)
	require.NoError(t, err)

	profile, err := NewDistributionAnalyzer().ProfileTable(table, "duration", "event")
	require.NoError(t, err)

	assert.Equal(t, 7, profile.Rows)
	assert.Equal(t, 4, profile.Events)
	assert.Equal(t, 3, profile.Censored)
	assert.InDelta(t, 4.0/7, profile.EventRate, 1e-12)

	assert.Equal(t, "duration", profile.Duration.Name)
	assert.InDelta(t, 142.0/7, profile.Duration.Mean, 1e-12)
	assert.Equal(t, 8.0, profile.Duration.Median)
	assert.Equal(t, 4.0, profile.Duration.Q25)
	assert.Equal(t, 12.0, profile.Duration.Q75)
	assert.Equal(t, 2.0, profile.Duration.Min)
	assert.Equal(t, 100.0, profile.Duration.Max)
	assert.Equal(t, 1, profile.Duration.Outliers)
	assert.Greater(t, profile.Duration.Skewness, 0.0)

	require.Len(t, profile.Covariates, 1)
	assert.Equal(t, "age", profile.Covariates[0].Name)
	assert.InDelta(t, 80.0, profile.Covariates[0].Mean, 1e-12)
	assert.InDelta(t, 21.6025, profile.Covariates[0].StdDev, 1e-4)
	assert.InDelta(t, 0.0, profile.Covariates[0].Skewness, 1e-12)

	var buf bytes.Buffer
	require.NoError(t, profile.WriteSummary(&buf))
	assert.Contains(t, buf.String(), "rows = 7, events = 4, censored = 3, event rate = 0.571")
	assert.Contains(t, buf.String(), "duration")
}

func TestProfileTable_MissingColumn(t *testing.T) {
	table, err := dataset.NewTableFromRows([]string{"duration", "event"}, [][]float64{{1, 1}})
	require.NoError(t, err)

	_, err = NewDistributionAnalyzer().ProfileTable(table, "time", "event")
	assert.Error(t, err)
}

func TestAnalyzeColumn_Empty(t *testing.T) {
	p, err := NewDistributionAnalyzer().AnalyzeColumn("x", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Count)
}
