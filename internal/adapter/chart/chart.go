// Package chart renders reports as PNG bar charts and interactive HTML pages.
package chart

import (
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

// subtitle joins a chart's annotations into a single line.
func subtitle(c report.Chart) string {
	parts := make([]string, 0, len(c.Annotations))
	for _, a := range c.Annotations {
		parts = append(parts, a.Label+": "+a.Value)
	}
	return strings.Join(parts, " | ")
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return nil
}
