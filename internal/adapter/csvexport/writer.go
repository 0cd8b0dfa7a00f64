// Package csvexport writes report buckets as CSV files.
package csvexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

var header = []string{"report_id", "kind", "period", "chart", "key", "count"}

// Writer saves each report to <kind>-report-<timestamp>.csv in a directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter writes into dir, creating it on first use.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// WriteReport writes one row per bucket of every chart in r.
func (w *Writer) WriteReport(_ context.Context, r report.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", w.dir, err)
	}
	path := filepath.Join(w.dir, r.FileName(report.Chart{Name: "report"}, "csv"))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.logger.Info("report exported", "path", path)
	return f.Close()
}

// Encode writes r as CSV with a header row.
func Encode(out io.Writer, r report.Report) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range r.Charts {
		for _, b := range c.Buckets {
			row := []string{r.ID, string(r.Kind), r.Period, c.Name, b.Key, strconv.Itoa(b.Count)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
