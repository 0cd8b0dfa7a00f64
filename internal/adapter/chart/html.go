package chart

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

// HTMLWriter saves a report as one HTML page holding an interactive bar
// chart per report chart.
type HTMLWriter struct {
	dir    string
	logger *slog.Logger
}

// NewHTMLWriter writes into dir, creating it on first use.
func NewHTMLWriter(dir string, logger *slog.Logger) *HTMLWriter {
	return &HTMLWriter{dir: dir, logger: logger}
}

// WriteReport renders r to <kind>-report-<timestamp>.html.
func (w *HTMLWriter) WriteReport(_ context.Context, r report.Report) error {
	if err := ensureDir(w.dir); err != nil {
		return err
	}
	path := filepath.Join(w.dir, r.FileName(report.Chart{Name: "report"}, "html"))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := Page(r).Render(f); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	w.logger.Info("report page saved", "path", path)
	return f.Close()
}

// Page builds the echarts page for r.
func Page(r report.Report) *components.Page {
	page := components.NewPage()
	for _, c := range r.Charts {
		page.AddCharts(bar(r.Title, c))
	}
	return page
}

func bar(pageTitle string, c report.Chart) *charts.Bar {
	x := make([]string, len(c.Buckets))
	y := make([]opts.BarData, len(c.Buckets))
	for i, b := range c.Buckets {
		x[i] = b.Key
		y[i] = opts.BarData{Value: b.Count}
	}

	b := charts.NewBar()
	b.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: pageTitle, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: subtitle(c)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.YLabel}),
	)
	b.SetXAxis(x).
		AddSeries(c.Name, y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return b
}
