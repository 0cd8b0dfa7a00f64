// Package report defines the presentational model handed to report sinks.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/accident-weather-analysis/internal/aggregate"
)

// Kind identifies which analysis produced a report.
type Kind string

const (
	KindEvents     Kind = "events"
	KindConditions Kind = "conditions"
	KindMonthly    Kind = "monthly"
)

// Annotation is a labelled value displayed next to a chart, such as the
// total count or the number of unknown values.
type Annotation struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Chart is one titled series of buckets.
type Chart struct {
	Name        string             `json:"name"`
	Title       string             `json:"title"`
	XLabel      string             `json:"x_label"`
	YLabel      string             `json:"y_label"`
	Buckets     []aggregate.Bucket `json:"buckets"`
	Annotations []Annotation       `json:"annotations,omitempty"`
}

// Total returns the sum of the chart's bucket counts.
func (c Chart) Total() int {
	n := 0
	for _, b := range c.Buckets {
		n += b.Count
	}
	return n
}

// Report is the output of a single analysis run.
type Report struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	Title       string            `json:"title"`
	Period      string            `json:"period"`
	Filters     map[string]string `json:"filters,omitempty"`
	Total       int               `json:"total"`
	// Skipped counts accidents and events excluded from the join as malformed.
	Skipped     int               `json:"skipped,omitempty"`
	Partial     bool              `json:"partial,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Charts      []Chart           `json:"charts"`
}

// New returns an empty report with a fresh ID and timestamp.
func New(kind Kind, title, period string) Report {
	return Report{
		ID:          uuid.NewString(),
		Kind:        kind,
		Title:       title,
		Period:      period,
		GeneratedAt: clock.Now().UTC(),
	}
}

// FileName returns a file name for one chart of the report, unique per
// generation time, e.g. "events-by-type-20200115T100000Z.png".
func (r Report) FileName(c Chart, ext string) string {
	name := string(r.Kind) + "-" + c.Name + "-" + r.GeneratedAt.UTC().Format("20060102T150405Z")
	return sanitize(name) + "." + strings.TrimPrefix(ext, ".")
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// Writer delivers a report to a destination.
type Writer interface {
	WriteReport(ctx context.Context, r Report) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, r Report) error

// WriteReport calls f.
func (f WriterFunc) WriteReport(ctx context.Context, r Report) error { return f(ctx, r) }
