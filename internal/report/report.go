package report

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"gosurv/app"
	"gosurv/domain/core"
	"gosurv/domain/dataset"
	"gosurv/domain/survival"
	"gosurv/internal/errors"
	"gosurv/internal/profiling"
	"gosurv/internal/query"
	"gosurv/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/sync/errgroup"
)

// Options selects what goes into a report
type Options struct {
	Title       string
	DurationCol string
	EventCol    string

	// GroupA and GroupB are row queries; the log-rank section is included only when both are set.
	// Setting exactly one of them is an input error.
	GroupA string
	GroupB string

	// PlotURLPrefix replaces the directory of figure paths in links, e.g. "/plots/"
	PlotURLPrefix string
}

// Section is one analysis block of a report
type Section struct {
	Name    string             `json:"name"`
	Output  string             `json:"output"`
	Figures []*survival.Figure `json:"figures,omitempty"`
	Err     string             `json:"error,omitempty"`
	Elapsed time.Duration      `json:"elapsed"`

	run func(*app.SurvivalAnalyzer) error
}

// Report is an assembled analysis report
type Report struct {
	ID        core.ReportID `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	Sections  []*Section    `json:"sections"`
	Markdown  string        `json:"markdown"`
}

// Builder runs every analysis on a table and assembles the results
type Builder struct {
	library  ports.SurvivalLibrary
	plotter  ports.Plotter
	profiler *profiling.DistributionAnalyzer
	timeline []float64
}

// NewBuilder creates a report builder
func NewBuilder(library ports.SurvivalLibrary, plotter ports.Plotter, timeline []float64) *Builder {
	if timeline == nil {
		timeline = survival.DefaultTimeline()
	}
	return &Builder{
		library:  library,
		plotter:  plotter,
		profiler: profiling.NewDistributionAnalyzer(),
		timeline: timeline,
	}
}

// Build runs the analyses concurrently, one analyzer per section over the
// shared read-only table. A failing analysis is recorded in its section and
// does not fail the report.
func (b *Builder) Build(ctx context.Context, table *dataset.Table, opts Options) (*Report, error) {
	if opts.Title == "" {
		opts.Title = "Survival analysis"
	}

	profile, err := b.profiler.ProfileTable(table, opts.DurationCol, opts.EventCol)
	if err != nil {
		return nil, errors.Wrap(err, "failed to profile dataset")
	}

	sections, err := b.sections(table, opts)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, s := range sections {
		s := s
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			b.runSection(table, opts, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "report cancelled")
	}

	r := &Report{
		ID:        core.NewReportID(),
		Title:     opts.Title,
		CreatedAt: time.Now().UTC(),
		Sections:  sections,
	}
	r.Markdown = r.assemble(profile, opts)
	log.Printf("[Report] Built report %s with %d sections", r.ID.Short(), len(sections))
	return r, nil
}

func (b *Builder) sections(table *dataset.Table, opts Options) ([]*Section, error) {
	sections := []*Section{
		{Name: "Kaplan-Meier estimate", run: func(a *app.SurvivalAnalyzer) error {
			_, err := a.KaplanMeier("")
			return err
		}},
	}

	if (opts.GroupA == "") != (opts.GroupB == "") {
		return nil, errors.InvalidInput("log-rank needs both group_a and group_b")
	}
	if opts.GroupA != "" {
		groupA, err := query.Compile(opts.GroupA, table)
		if err != nil {
			return nil, errors.Wrap(err, "group A")
		}
		groupB, err := query.Compile(opts.GroupB, table)
		if err != nil {
			return nil, errors.Wrap(err, "group B")
		}
		sections = append(sections, &Section{
			Name: fmt.Sprintf("Log-rank test: %s vs %s", opts.GroupA, opts.GroupB),
			run: func(a *app.SurvivalAnalyzer) error {
				_, err := a.LogRank(groupA, groupB)
				return err
			},
		})
	}

	sections = append(sections,
		&Section{Name: "Cox proportional hazards", run: (*app.SurvivalAnalyzer).CoxPH},
		&Section{Name: "Aalen additive model", run: (*app.SurvivalAnalyzer).AalenAdditive},
	)
	return sections, nil
}

func (b *Builder) runSection(table *dataset.Table, opts Options, s *Section) {
	start := time.Now()
	var buf bytes.Buffer

	analyzer, err := app.NewSurvivalAnalyzer(table, opts.DurationCol, opts.EventCol, b.library, b.plotter,
		app.WithOutput(&buf),
		app.WithTimeline(b.timeline),
		app.WithFigureSink(func(fig *survival.Figure) {
			s.Figures = append(s.Figures, fig)
		}),
	)
	if err == nil {
		err = s.run(analyzer)
	}

	s.Output = buf.String()
	s.Elapsed = time.Since(start)
	if err != nil {
		s.Err = err.Error()
		log.Printf("[Report] %s failed: %v", s.Name, err)
	}
}

func (r *Report) assemble(profile *profiling.TableProfile, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	fmt.Fprintf(&sb, "Report `%s`, generated %s.\n\n", r.ID.Short(), r.CreatedAt.Format(time.RFC3339))

	sb.WriteString("## Dataset\n\n```\n")
	_ = profile.WriteSummary(&sb)
	sb.WriteString("```\n\n")

	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "## %s\n\n", s.Name)
		if s.Err != "" {
			fmt.Fprintf(&sb, "**Failed:** %s\n\n", s.Err)
		}
		if strings.TrimSpace(s.Output) != "" {
			fmt.Fprintf(&sb, "```\n%s```\n\n", ensureNewline(s.Output))
		}
		for _, fig := range s.Figures {
			fmt.Fprintf(&sb, "![%s](%s)\n\n", fig.Title, figureURL(fig, opts.PlotURLPrefix))
		}
	}
	return sb.String()
}

// Failed returns the sections whose analysis returned an error
func (r *Report) Failed() []*Section {
	var out []*Section
	for _, s := range r.Sections {
		if s.Err != "" {
			out = append(out, s)
		}
	}
	return out
}

// RenderHTML converts the report markdown to a standalone HTML page
func (r *Report) RenderHTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(r.Markdown))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
		Title: r.Title,
	})
	return markdown.Render(doc, renderer)
}

func figureURL(fig *survival.Figure, prefix string) string {
	if prefix == "" {
		return fig.Path
	}
	return strings.TrimSuffix(prefix, "/") + "/" + filepath.Base(fig.Path)
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
