package chart

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

// PNGWriter saves each chart of a report as a PNG bar chart.
type PNGWriter struct {
	dir    string
	logger *slog.Logger
}

// NewPNGWriter writes into dir, creating it on first use.
func NewPNGWriter(dir string, logger *slog.Logger) *PNGWriter {
	return &PNGWriter{dir: dir, logger: logger}
}

// WriteReport renders every non-empty chart of r.
func (w *PNGWriter) WriteReport(ctx context.Context, r report.Report) error {
	if err := ensureDir(w.dir); err != nil {
		return err
	}
	for _, c := range r.Charts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(c.Buckets) == 0 {
			w.logger.Info("chart has no data, skipping", "chart", c.Name, "report_id", r.ID)
			continue
		}
		path := filepath.Join(w.dir, r.FileName(c, "png"))
		if err := renderPNG(c, path); err != nil {
			return fmt.Errorf("render %s: %w", c.Name, err)
		}
		w.logger.Info("chart saved", "path", path)
	}
	return nil
}

func renderPNG(c report.Chart, path string) error {
	p := plot.New()
	p.Title.Text = c.Title
	if s := subtitle(c); s != "" {
		p.Title.Text += "\n" + s
	}
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Y.Min = 0

	values := make(plotter.Values, len(c.Buckets))
	labels := make([]string, len(c.Buckets))
	for i, b := range c.Buckets {
		values[i] = float64(b.Count)
		labels[i] = b.Key
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	width := max(6*vg.Inch, vg.Length(len(labels))*0.6*vg.Inch)
	return p.Save(width, 5*vg.Inch, path)
}
