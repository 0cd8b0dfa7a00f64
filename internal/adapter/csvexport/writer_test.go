package csvexport

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-weather-analysis/internal/aggregate"
	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

func testReport() report.Report {
	return report.Report{
		ID:          "rep-1",
		Kind:        report.KindConditions,
		Period:      "2020-01-01 to 2020-01-31",
		GeneratedAt: time.Date(2020, 2, 1, 9, 30, 0, 0, time.UTC),
		Charts: []report.Chart{
			{Name: "weather-condition", Buckets: []aggregate.Bucket{{Key: "Rain", Count: 2}, {Key: "Fog, Patches", Count: 1}}},
			{Name: "humidity", Buckets: []aggregate.Bucket{{Key: "30.00-40.00", Count: 5}}},
		},
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testReport()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		header,
		{"rep-1", "conditions", "2020-01-01 to 2020-01-31", "weather-condition", "Rain", "2"},
		{"rep-1", "conditions", "2020-01-01 to 2020-01-31", "weather-condition", "Fog, Patches", "1"},
		{"rep-1", "conditions", "2020-01-01 to 2020-01-31", "humidity", "30.00-40.00", "5"},
	}, rows)
}

func TestWriter_WriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewWriter(dir, slog.New(slog.DiscardHandler))

	require.NoError(t, w.WriteReport(context.Background(), testReport()))

	_, err := os.Stat(filepath.Join(dir, "conditions-report-20200201T093000Z.csv"))
	assert.NoError(t, err)
}
