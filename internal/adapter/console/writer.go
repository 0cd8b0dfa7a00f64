// Package console prints reports as terminal tables.
package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

const barWidth = 30

var (
	pink = lipgloss.Color("#FF69B4")
	cyan = lipgloss.Color("#42D9C8")
	gray = lipgloss.Color("#626262")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(pink)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(cyan).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(gray)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9F43"))
)

// Writer renders reports to an io.Writer, typically stdout.
type Writer struct {
	out io.Writer
}

// NewWriter returns a console writer printing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteReport prints the report header followed by one table per chart.
func (w *Writer) WriteReport(_ context.Context, r report.Report) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Title) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("period %s · total %d · id %s", r.Period, r.Total, r.ID)) + "\n")
	for _, k := range slices.Sorted(maps.Keys(r.Filters)) {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("filter %s = %s", k, r.Filters[k])) + "\n")
	}
	if r.Skipped > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d malformed records skipped", r.Skipped)) + "\n")
	}
	if r.Partial {
		b.WriteString(warnStyle.Render("partial result: the run was interrupted") + "\n")
	}
	for _, c := range r.Charts {
		b.WriteString("\n" + renderChart(c) + "\n")
	}
	_, err := io.WriteString(w.out, b.String())
	return err
}

func renderChart(c report.Chart) string {
	total := c.Total()
	peak := 0
	for _, bk := range c.Buckets {
		peak = max(peak, bk.Count)
	}

	rows := make([][]string, 0, len(c.Buckets))
	for _, bk := range c.Buckets {
		rows = append(rows, []string{bk.Key, strconv.Itoa(bk.Count), share(bk.Count, total), bar(bk.Count, peak)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(pink)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(c.XLabel, c.YLabel, "Share", "").
		Rows(rows...)

	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Title) + "\n")
	for _, a := range c.Annotations {
		b.WriteString(mutedStyle.Render(a.Label+": "+a.Value) + "\n")
	}
	b.WriteString(t.String())
	return b.String()
}

func share(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}

func bar(n, peak int) string {
	if peak == 0 {
		return ""
	}
	return strings.Repeat("█", n*barWidth/peak)
}
