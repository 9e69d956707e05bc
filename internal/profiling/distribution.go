package profiling

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"gosurv/domain/dataset"

	"github.com/montanaflynn/stats"
)

// ColumnProfile summarises one numeric column
type ColumnProfile struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"` // outside 1.5 IQR
}

// TableProfile summarises a survival dataset
type TableProfile struct {
	Rows       int             `json:"rows"`
	Events     int             `json:"events"`
	Censored   int             `json:"censored"`
	EventRate  float64         `json:"event_rate"`
	Duration   ColumnProfile   `json:"duration"`
	Covariates []ColumnProfile `json:"covariates"`
}

// DistributionAnalyzer builds column summaries
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// ProfileTable describes the duration column, the event split and every covariate
func (da *DistributionAnalyzer) ProfileTable(table *dataset.Table, durationCol, eventCol string) (*TableProfile, error) {
	durations, err := table.Column(durationCol)
	if err != nil {
		return nil, err
	}
	events, err := table.Column(eventCol)
	if err != nil {
		return nil, err
	}

	profile := &TableProfile{Rows: table.NumRows()}
	for _, e := range events {
		if e == 1 {
			profile.Events++
		}
	}
	profile.Censored = profile.Rows - profile.Events
	if profile.Rows > 0 {
		profile.EventRate = float64(profile.Events) / float64(profile.Rows)
	}

	if profile.Duration, err = da.AnalyzeColumn(durationCol, durations); err != nil {
		return nil, err
	}

	for _, name := range table.Covariates(durationCol, eventCol) {
		values, _ := table.Column(name)
		col, err := da.AnalyzeColumn(name, values)
		if err != nil {
			return nil, err
		}
		profile.Covariates = append(profile.Covariates, col)
	}

	return profile, nil
}

// AnalyzeColumn computes summary statistics of data
func (da *DistributionAnalyzer) AnalyzeColumn(name string, data []float64) (ColumnProfile, error) {
	p := ColumnProfile{Name: name, Count: len(data)}
	if len(data) == 0 {
		return p, nil
	}

	var err error
	if p.Mean, err = stats.Mean(data); err != nil {
		return p, fmt.Errorf("mean of %s: %w", name, err)
	}
	if p.StdDev, err = stats.StandardDeviationSample(data); err != nil {
		return p, fmt.Errorf("standard deviation of %s: %w", name, err)
	}
	if p.Min, err = stats.Min(data); err != nil {
		return p, fmt.Errorf("min of %s: %w", name, err)
	}
	if p.Max, err = stats.Max(data); err != nil {
		return p, fmt.Errorf("max of %s: %w", name, err)
	}
	if p.Median, err = stats.Median(data); err != nil {
		return p, fmt.Errorf("median of %s: %w", name, err)
	}

	quartiles, err := stats.Quartile(data)
	if err == nil {
		p.Q25, p.Q75 = quartiles.Q1, quartiles.Q3
	} else {
		p.Q25, p.Q75 = p.Median, p.Median
	}

	if math.IsNaN(p.StdDev) {
		p.StdDev = 0
	}
	p.Skewness = calculateSkewness(data, p.Mean, p.StdDev)
	p.Outliers = detectOutliers(data, p.Q25, p.Q75)

	return p, nil
}

// WriteSummary prints the profile as a table
func (tp *TableProfile) WriteSummary(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "rows = %d, events = %d, censored = %d, event rate = %.3f\n---\n",
		tp.Rows, tp.Events, tp.Censored, tp.EventRate)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\tskew\toutliers\t")
	for _, c := range append([]ColumnProfile{tp.Duration}, tp.Covariates...) {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%d\t\n",
			c.Name, c.Count, c.Mean, c.StdDev, c.Min, c.Q25, c.Median, c.Q75, c.Max, c.Skewness, c.Outliers)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	return sumCubedDeviations * n / ((n - 1) * (n - 2))
}

// detectOutliers counts values outside the 1.5 IQR fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
