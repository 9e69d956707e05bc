package survival

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
)

// MarshalJSON encodes an unreached median as null
func (c KaplanMeierCurve) MarshalJSON() ([]byte, error) {
	type plain KaplanMeierCurve
	out := struct {
		plain
		MedianSurvival *float64 `json:"median_survival"`
	}{plain: plain(c)}
	if c.MedianReached() {
		m := c.MedianSurvival
		out.MedianSurvival = &m
	}
	return json.Marshal(out)
}

// WriteSummary prints the fit size, the median survival time and the event table
func (c *KaplanMeierCurve) WriteSummary(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<KaplanMeierFitter: %q, fitted with %d total observations, %d right-censored observations>\n",
		c.Label, c.NumObservations, c.NumObservations-c.NumEvents)
	if c.MedianReached() {
		fmt.Fprintf(&b, "median survival time = %s\n", formatFloat(c.MedianSurvival))
	} else {
		b.WriteString("median survival time = inf\n")
	}
	b.WriteString("---\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "event_at\tat_risk\tobserved\tcensored\t")
	for _, r := range c.EventTable {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t\n", formatFloat(r.Time), r.AtRisk, r.Observed, r.Censored)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary prints the test header and its statistic, p-value and -log2(p)
func (r *LogRankResult) WriteSummary(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<StatisticalResult: %s>\n", r.TestName)

	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "null_distribution\t = %s\n", r.NullDistribution)
	fmt.Fprintf(tw, "degrees_of_freedom\t = %d\n", r.DegreesOfFreedom)
	fmt.Fprintf(tw, "test_name\t = %s\n", r.TestName)
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("\n---\n")
	tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "test_statistic\tp\t-log2(p)\t")
	fmt.Fprintf(tw, "%.2f\t%s\t%.2f\t\n", r.TestStatistic, formatP(r.PValue), negLog2(r.PValue))
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary prints the coefficient table and the model fit statistics
func (m *CoxModel) WriteSummary(w io.Writer) error {
	var b strings.Builder
	b.WriteString("<CoxPHFitter: fitted with ")
	fmt.Fprintf(&b, "%d total observations, %d right-censored observations>\n", m.NumObservations, m.NumObservations-m.NumEvents)

	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "duration col\t = '%s'\n", m.DurationCol)
	fmt.Fprintf(tw, "event col\t = '%s'\n", m.EventCol)
	fmt.Fprintf(tw, "penalizer\t = %s\n", formatFloat(m.Penalizer))
	fmt.Fprintf(tw, "baseline estimation\t = breslow\n")
	fmt.Fprintf(tw, "tie method\t = %s\n", m.TieMethod)
	fmt.Fprintf(tw, "number of observations\t = %d\n", m.NumObservations)
	fmt.Fprintf(tw, "number of events observed\t = %d\n", m.NumEvents)
	fmt.Fprintf(tw, "partial log-likelihood\t = %.2f\n", m.LogLikelihood)
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("\n---\n")
	tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "covariate\tcoef\texp(coef)\tse(coef)\tcoef lower 95%\tcoef upper 95%\tz\tp\t-log2(p)\t")
	for _, c := range m.Coefficients {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%.2f\t\n",
			c.Covariate, c.Coef, c.ExpCoef, c.SE, c.Lower95, c.Upper95, c.Z, formatP(c.P), negLog2(c.P))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "Concordance = %.2f\n", m.Concordance)
	fmt.Fprintf(&b, "Partial AIC = %.2f\n", m.PartialAIC)
	fmt.Fprintf(&b, "log-likelihood ratio test = %.2f on %d df\n", m.LRStatistic, m.LRDegreesOfFreedom)
	fmt.Fprintf(&b, "-log2(p) of ll-ratio test = %.2f\n", negLog2(m.LRPValue))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary prints the cumulative coefficients at the last estimated time
func (m *AalenModel) WriteSummary(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<AalenAdditiveFitter: fitted with %d total observations, %d right-censored observations>\n",
		m.NumObservations, m.NumObservations-m.NumEvents)
	fmt.Fprintf(&b, "fit intercept = %t, penalizer = %s, event times = %d\n", m.FitIntercept, formatFloat(m.Penalizer), len(m.Times))
	if m.SkippedTimes > 0 {
		fmt.Fprintf(&b, "skipped %d singular event times\n", m.SkippedTimes)
	}
	b.WriteString("---\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "covariate\tcumulative coef\tse\t")
	last := len(m.Times) - 1
	for j, name := range m.Covariates {
		if last < 0 {
			fmt.Fprintf(tw, "%s\t-\t-\t\n", name)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t\n", name, m.Cumulative[j][last], math.Sqrt(m.Variance[j][last]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

func formatP(p float64) string {
	if p < 0.005 {
		return "<0.005"
	}
	return fmt.Sprintf("%.2f", p)
}

func negLog2(p float64) float64 {
	if p <= 0 {
		return math.Inf(1)
	}
	return -math.Log2(p)
}
