package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-weather-analysis/internal/aggregate"
	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

type mockMessageWriter struct {
	msgs []kafkago.Message
	err  error
}

func (m *mockMessageWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockMessageWriter) Close() error { return nil }

func testReport() report.Report {
	return report.Report{
		ID:          "rep-1",
		Kind:        report.KindEvents,
		Period:      "2020-01-01 to 2020-01-31",
		Total:       1,
		GeneratedAt: time.Date(2020, 2, 1, 9, 30, 0, 0, time.UTC),
		Charts: []report.Chart{{
			Name:    "by-type",
			Buckets: []aggregate.Bucket{{Key: "Rain", Count: 1}},
		}},
	}
}

func TestSerializeToMessage(t *testing.T) {
	r := testReport()

	msg, err := serializeToMessage(r)
	require.NoError(t, err)

	assert.Equal(t, []byte("rep-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"kind":"events"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("events"), msg.Headers[0].Value)
	assert.Equal(t, "period", msg.Headers[1].Key)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2020-02-01T09:30:00Z"), msg.Headers[2].Value)

	var roundtrip report.Report
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	assert.Equal(t, r, roundtrip)
}

func TestWriter_WriteReport(t *testing.T) {
	mw := &mockMessageWriter{}
	w := &Writer{writer: mw, logger: slog.New(slog.DiscardHandler)}

	require.NoError(t, w.WriteReport(context.Background(), testReport()))
	require.Len(t, mw.msgs, 1)
	assert.Equal(t, []byte("rep-1"), mw.msgs[0].Key)

	mw.err = errors.New("leader not available")
	err := w.WriteReport(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish report rep-1")
}
