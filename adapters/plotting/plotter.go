// Package plotting renders survival results with gonum/plot.
package plotting

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gosurv/domain/core"
	"gosurv/domain/survival"
	"gosurv/ports"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Config controls where and how figures are written
type Config struct {
	OutputDir string
	Format    string // png, svg, pdf, ...: anything plot.Save understands
	WidthCM   float64
	HeightCM  float64
}

// DefaultConfig writes 16x10cm PNGs to ./plots
func DefaultConfig() Config {
	return Config{
		OutputDir: "plots",
		Format:    "png",
		WidthCM:   16,
		HeightCM:  10,
	}
}

// FilePlotter writes each figure to its own file under OutputDir
type FilePlotter struct {
	config Config
}

var _ ports.Plotter = (*FilePlotter)(nil)

// NewFilePlotter creates the output directory if needed
func NewFilePlotter(config Config) (*FilePlotter, error) {
	def := DefaultConfig()
	if config.OutputDir == "" {
		config.OutputDir = def.OutputDir
	}
	if config.Format == "" {
		config.Format = def.Format
	}
	if config.WidthCM <= 0 {
		config.WidthCM = def.WidthCM
	}
	if config.HeightCM <= 0 {
		config.HeightCM = def.HeightCM
	}
	config.Format = strings.TrimPrefix(strings.ToLower(config.Format), ".")

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory %s: %w", config.OutputDir, err)
	}
	return &FilePlotter{config: config}, nil
}

// OutputDir is the directory figures are written to
func (f *FilePlotter) OutputDir() string {
	return f.config.OutputDir
}

// save writes p and describes the written file
func (f *FilePlotter) save(p *plot.Plot, kind survival.FigureKind, name string) (*survival.Figure, error) {
	id := core.NewFigureID()
	file := fmt.Sprintf("%s_%s_%s.%s", kind, sanitize(name), core.ID(id).Short(), f.config.Format)
	path := filepath.Join(f.config.OutputDir, file)

	width := vg.Length(f.config.WidthCM) * vg.Centimeter
	height := vg.Length(f.config.HeightCM) * vg.Centimeter
	if err := p.Save(width, height, path); err != nil {
		return nil, fmt.Errorf("failed to save %s plot: %w", kind, err)
	}

	log.Printf("[Plotter] Wrote %s figure to %s", kind, path)
	return &survival.Figure{ID: id, Kind: kind, Title: p.Title.Text, Path: path}, nil
}

// sanitize keeps letters, digits, dashes and underscores
func sanitize(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
	if mapped == "" {
		return "figure"
	}
	return mapped
}
