package plotting

import (
	"fmt"

	"gosurv/domain/survival"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var dashed = []vg.Length{vg.Points(4), vg.Points(3)}

// PlotSurvival draws S(t) as a post-step line with dashed confidence bounds
func (f *FilePlotter) PlotSurvival(curve *survival.KaplanMeierCurve) (*survival.Figure, error) {
	if len(curve.Timeline) == 0 {
		return nil, fmt.Errorf("survival curve %q has an empty timeline", curve.Label)
	}

	p := plot.New()
	p.Title.Text = curve.Label
	p.X.Label.Text = "timeline"
	p.Y.Label.Text = "survival probability"
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	est, err := stepLine(curve.Timeline, curve.Survival)
	if err != nil {
		return nil, err
	}
	est.Color = plotutil.Color(0)
	est.Width = vg.Points(1.5)

	lower, err := stepLine(curve.Timeline, curve.LowerCI)
	if err != nil {
		return nil, err
	}
	upper, err := stepLine(curve.Timeline, curve.UpperCI)
	if err != nil {
		return nil, err
	}
	for _, l := range []*plotter.Line{lower, upper} {
		l.Color = plotutil.Color(0)
		l.Dashes = dashed
	}

	p.Add(lower, upper, est)
	p.Legend.Add(curve.Label, est)
	p.Legend.Add(fmt.Sprintf("%.0f%% CI", survival.ConfidenceLevel*100), lower)
	p.Legend.Top = true

	return f.save(p, survival.FigureSurvival, curve.Label)
}

// coefficientBars pairs coefficient positions with their confidence offsets
type coefficientBars struct {
	plotter.XYs
	plotter.XErrors
}

// PlotCoefficients draws each Cox coefficient with its 95% interval
func (f *FilePlotter) PlotCoefficients(model *survival.CoxModel) (*survival.Figure, error) {
	n := len(model.Coefficients)
	if n == 0 {
		return nil, fmt.Errorf("cox model has no coefficients to plot")
	}

	bars := coefficientBars{
		XYs:     make(plotter.XYs, n),
		XErrors: make(plotter.XErrors, n),
	}
	names := make([]string, n)
	for i, c := range model.Coefficients {
		bars.XYs[i].X = c.Coef
		bars.XYs[i].Y = float64(i)
		bars.XErrors[i].Low = c.Coef - c.Lower95
		bars.XErrors[i].High = c.Upper95 - c.Coef
		names[i] = c.Covariate
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cox PH coefficients (%s, %s)", model.DurationCol, model.EventCol)
	p.X.Label.Text = fmt.Sprintf("log(HR) (%.0f%% CI)", survival.ConfidenceLevel*100)
	p.NominalY(names...)

	errBars, err := plotter.NewXErrorBars(bars)
	if err != nil {
		return nil, fmt.Errorf("failed to build error bars: %w", err)
	}
	points, err := plotter.NewScatter(bars.XYs)
	if err != nil {
		return nil, fmt.Errorf("failed to build coefficient points: %w", err)
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: -0.5}, {X: 0, Y: float64(n) - 0.5}})
	if err != nil {
		return nil, err
	}
	zero.Dashes = dashed

	p.Add(zero, errBars, points)
	return f.save(p, survival.FigureCoefficients, "cox")
}

// PlotCumulativeHazards draws one step line per cumulative regression function
func (f *FilePlotter) PlotCumulativeHazards(model *survival.AalenModel) (*survival.Figure, error) {
	if len(model.Times) == 0 {
		return nil, fmt.Errorf("aalen model has no estimated times")
	}

	p := plot.New()
	p.Title.Text = "Aalen additive cumulative coefficients"
	p.X.Label.Text = "timeline"
	p.Y.Label.Text = "cumulative coefficient"
	p.Add(plotter.NewGrid())

	for j, name := range model.Covariates {
		l, err := stepLine(model.Times, model.Cumulative[j])
		if err != nil {
			return nil, err
		}
		l.Color = plotutil.Color(j)
		l.Width = vg.Points(1.2)
		p.Add(l)
		p.Legend.Add(name, l)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return f.save(p, survival.FigureCumulativeHazards, "aalen")
}

func stepLine(xs, ys []float64) (*plotter.Line, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("line has %d x values and %d y values", len(xs), len(ys))
	}
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build line: %w", err)
	}
	l.StepStyle = plotter.PostStep
	return l, nil
}
