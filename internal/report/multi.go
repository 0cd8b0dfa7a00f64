package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/accident-weather-analysis/internal/observability"
)

// Sink is a named Writer.
type Sink struct {
	Name   string
	Writer Writer
}

// MultiWriter fans a report out to every sink. A failing sink does not stop
// delivery to the others.
type MultiWriter struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMultiWriter returns a writer that delivers to sinks in order.
func NewMultiWriter(logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *MultiWriter {
	return &MultiWriter{sinks: sinks, logger: logger, metrics: metrics}
}

// WriteReport writes r to each sink and joins the errors.
func (m *MultiWriter) WriteReport(ctx context.Context, r Report) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Writer.WriteReport(ctx, r); err != nil {
			m.logger.Error("report sink failed", "sink", s.Name, "report_id", r.ID, "error", err)
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name, err))
			continue
		}
		m.metrics.ReportsWritten.WithLabelValues(s.Name).Inc()
		m.logger.Debug("report written", "sink", s.Name, "report_id", r.ID, "kind", r.Kind)
	}
	return errors.Join(errs...)
}
