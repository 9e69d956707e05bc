package plotting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gosurv/domain/survival"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlotter(t *testing.T, format string) *FilePlotter {
	t.Helper()
	p, err := NewFilePlotter(Config{OutputDir: filepath.Join(t.TempDir(), "figs"), Format: format})
	require.NoError(t, err)
	return p
}

func assertWritten(t *testing.T, fig *survival.Figure, kind survival.FigureKind, ext string) {
	t.Helper()
	assert.Equal(t, kind, fig.Kind)
	assert.False(t, fig.ID.String() == "")
	assert.True(t, strings.HasSuffix(fig.Path, "."+ext), "unexpected path %s", fig.Path)
	info, err := os.Stat(fig.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlotSurvival(t *testing.T) {
	p := newTestPlotter(t, "png")

	curve := &survival.KaplanMeierCurve{
		Label:    "KM_estimate",
		Timeline: []float64{0, 1, 2, 3},
		Survival: []float64{1, 0.8, 0.5, 0.5},
		LowerCI:  []float64{1, 0.6, 0.3, 0.3},
		UpperCI:  []float64{1, 0.9, 0.7, 0.7},
	}
	fig, err := p.PlotSurvival(curve)
	require.NoError(t, err)
	assertWritten(t, fig, survival.FigureSurvival, "png")
	assert.Equal(t, "KM_estimate", fig.Title)
	assert.Contains(t, filepath.Base(fig.Path), "survival_KM_estimate_")
}

func TestPlotSurvival_EmptyTimeline(t *testing.T) {
	p := newTestPlotter(t, "png")
	_, err := p.PlotSurvival(&survival.KaplanMeierCurve{Label: "empty"})
	assert.Error(t, err)
}

func TestPlotCoefficients(t *testing.T) {
	p := newTestPlotter(t, "svg")

	model := &survival.CoxModel{
		DurationCol: "duration",
		EventCol:    "event",
		Coefficients: []survival.CoxCoefficient{
			{Covariate: "group", Coef: 0.8, Lower95: 0.6, Upper95: 1.0},
			{Covariate: "age", Coef: 0.03, Lower95: 0.02, Upper95: 0.04},
		},
	}
	fig, err := p.PlotCoefficients(model)
	require.NoError(t, err)
	assertWritten(t, fig, survival.FigureCoefficients, "svg")

	_, err = p.PlotCoefficients(&survival.CoxModel{})
	assert.Error(t, err)
}

func TestPlotCumulativeHazards(t *testing.T) {
	p := newTestPlotter(t, ".PNG")

	model := &survival.AalenModel{
		Covariates: []string{"group", "age"},
		Times:      []float64{1, 2, 4},
		Cumulative: [][]float64{{0.1, 0.2, 0.25}, {0.01, 0.015, 0.03}},
		Variance:   [][]float64{{0.01, 0.02, 0.03}, {0.001, 0.001, 0.002}},
	}
	fig, err := p.PlotCumulativeHazards(model)
	require.NoError(t, err)
	assertWritten(t, fig, survival.FigureCumulativeHazards, "png")

	_, err = p.PlotCumulativeHazards(&survival.AalenModel{})
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "treated_vs_control", sanitize("treated vs control"))
	assert.Equal(t, "a_b", sanitize("a/b"))
	assert.Equal(t, "figure", sanitize(""))
}

func TestNewFilePlotter_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p, err := NewFilePlotter(Config{OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, p.OutputDir())
	assert.Equal(t, "png", p.config.Format)
	assert.Equal(t, 16.0, p.config.WidthCM)
}
