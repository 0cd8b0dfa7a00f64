package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-weather-analysis/internal/aggregate"
	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

func TestWriter_WriteReport(t *testing.T) {
	var buf bytes.Buffer
	r := report.Report{
		ID:      "rep-1",
		Title:   "Accidents by weather event",
		Period:  "2020-01-01 to 2020-01-31",
		Total:   4,
		Skipped: 2,
		Partial: true,
		Filters: map[string]string{"severity": "Heavy", "event_type": "Rain"},
		Charts: []report.Chart{{
			Title:       "Accidents by weather event type",
			XLabel:      "Event type",
			YLabel:      "Accidents",
			Buckets:     []aggregate.Bucket{{Key: "Rain", Count: 3}, {Key: "Snow", Count: 1}},
			Annotations: []report.Annotation{{Label: "Total accidents", Value: "4"}},
		}},
	}

	require.NoError(t, NewWriter(&buf).WriteReport(context.Background(), r))
	out := buf.String()

	assert.Contains(t, out, "Accidents by weather event type")
	assert.Contains(t, out, "period 2020-01-01 to 2020-01-31")
	assert.Contains(t, out, "Total accidents: 4")
	assert.Contains(t, out, "Event type")
	assert.Contains(t, out, "Rain")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "partial result")
	assert.Contains(t, out, "2 malformed records skipped")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("filter event_type")), bytes.Index(buf.Bytes(), []byte("filter severity")))
}

func TestShareAndBar(t *testing.T) {
	assert.Equal(t, "-", share(0, 0))
	assert.Equal(t, "50.0%", share(1, 2))
	assert.Empty(t, bar(0, 0))
	assert.Equal(t, barWidth, len([]rune(bar(5, 5))))
	assert.Equal(t, barWidth/2, len([]rune(bar(1, 2))))
}
