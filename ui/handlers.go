package ui

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"gosurv/app"
	"gosurv/domain/survival"
	"gosurv/internal/errors"
	"gosurv/internal/metrics"
	"gosurv/internal/query"
	"gosurv/internal/report"
)

// analysisResponse is the JSON body of every analysis endpoint
type analysisResponse struct {
	Output  string                  `json:"output"`
	Figures []*survival.Figure      `json:"figures"`
	LogRank *survival.LogRankResult `json:"logrank,omitempty"`
}

type kaplanMeierRequest struct {
	Label string `json:"label"`
}

type logRankRequest struct {
	GroupA string `json:"group_a"`
	GroupB string `json:"group_b"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"rows":   a.table.NumRows(),
	})
}

func (a *App) handleDescribe(w http.ResponseWriter, r *http.Request) {
	profile, err := a.profiler.ProfileTable(a.table, a.config.DurationCol, a.config.EventCol)
	if err != nil {
		writeError(w, errors.WithCode(errors.CodeValidationError, err))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *App) handleKaplanMeier(w http.ResponseWriter, r *http.Request) {
	var req kaplanMeierRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}
	a.runAnalysis(w, "kaplan_meier", func(an *app.SurvivalAnalyzer, resp *analysisResponse) error {
		_, err := an.KaplanMeier(req.Label)
		return err
	})
}

func (a *App) handleLogRank(w http.ResponseWriter, r *http.Request) {
	var req logRankRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}
	groupA, err := query.Compile(req.GroupA, a.table)
	if err != nil {
		writeError(w, errors.Wrap(err, "group_a"))
		return
	}
	groupB, err := query.Compile(req.GroupB, a.table)
	if err != nil {
		writeError(w, errors.Wrap(err, "group_b"))
		return
	}

	a.runAnalysis(w, "logrank", func(an *app.SurvivalAnalyzer, resp *analysisResponse) error {
		result, err := an.LogRank(groupA, groupB)
		resp.LogRank = result
		return err
	})
}

func (a *App) handleCox(w http.ResponseWriter, r *http.Request) {
	a.runAnalysis(w, "cox", func(an *app.SurvivalAnalyzer, _ *analysisResponse) error {
		return an.CoxPH()
	})
}

func (a *App) handleAalen(w http.ResponseWriter, r *http.Request) {
	a.runAnalysis(w, "aalen", func(an *app.SurvivalAnalyzer, _ *analysisResponse) error {
		return an.AalenAdditive()
	})
}

// runAnalysis builds a fresh analyzer for the request and reports its output and figures
func (a *App) runAnalysis(w http.ResponseWriter, name string, run func(*app.SurvivalAnalyzer, *analysisResponse) error) {
	start := time.Now()
	var buf bytes.Buffer
	resp := &analysisResponse{Figures: []*survival.Figure{}}

	analyzer, err := app.NewSurvivalAnalyzer(a.table, a.config.DurationCol, a.config.EventCol, a.library, a.plotter,
		app.WithOutput(&buf),
		app.WithTimeline(a.timeline()),
		app.WithFigureSink(func(fig *survival.Figure) { resp.Figures = append(resp.Figures, fig) }),
	)
	if err == nil {
		err = run(analyzer, resp)
	}
	metrics.ObserveAnalysis(name, time.Since(start), err)

	if err != nil {
		writeError(w, err)
		return
	}
	resp.Output = buf.String()
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := report.Options{
		Title:         q.Get("title"),
		DurationCol:   a.config.DurationCol,
		EventCol:      a.config.EventCol,
		GroupA:        q.Get("group_a"),
		GroupB:        q.Get("group_b"),
		PlotURLPrefix: "/plots/",
	}

	start := time.Now()
	rep, err := a.reports.Build(r.Context(), a.table, opts)
	metrics.ObserveAnalysis("report", time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	if q.Get("format") == "json" {
		writeJSON(w, http.StatusOK, rep)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(rep.RenderHTML()); err != nil {
		log.Printf("[UI] Failed to write report: %v", err)
	}
}

func (a *App) handlePlot(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	if a.config.PlotDir == "" || name == "." || name == string(filepath.Separator) {
		writeError(w, errors.NotFound("plot"))
		return
	}
	path := filepath.Join(a.config.PlotDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, errors.NotFound("plot "+name))
		return
	}
	http.ServeFile(w, r, path)
}

func (a *App) timeline() []float64 {
	if a.config.Timeline != nil {
		return a.config.Timeline
	}
	return survival.DefaultTimeline()
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return errors.InvalidInput("malformed JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[UI] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		log.Printf("[UI] Request failed: %v", err)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeValidationError, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeAnalysisFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
