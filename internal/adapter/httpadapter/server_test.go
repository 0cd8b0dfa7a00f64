package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-weather-analysis/internal/adapter/httpadapter"
	"github.com/couchcryptid/accident-weather-analysis/internal/analysis"
	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockReporter struct {
	eventQuery   analysis.EventQuery
	window       domain.Window
	monthlyQuery analysis.MonthlyQuery
	err          error
}

func (m *mockReporter) EventImpact(_ context.Context, q analysis.EventQuery) (report.Report, error) {
	m.eventQuery = q
	return report.Report{ID: "rep-events", Kind: report.KindEvents}, m.err
}

func (m *mockReporter) Conditions(_ context.Context, w domain.Window) (report.Report, error) {
	m.window = w
	return report.Report{ID: "rep-conditions", Kind: report.KindConditions}, m.err
}

func (m *mockReporter) Monthly(_ context.Context, q analysis.MonthlyQuery) (report.Report, error) {
	m.monthlyQuery = q
	return report.Report{ID: "rep-monthly", Kind: report.KindMonthly}, m.err
}

func newTestServer(readyErr error, reporter *mockReporter) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, reporter, slog.New(slog.DiscardHandler))
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(nil, &mockReporter{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(nil, &mockReporter{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(fmt.Errorf("accident source: no reachable servers"), &mockReporter{}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(nil, &mockReporter{}), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestEventsReport(t *testing.T) {
	rep := &mockReporter{}
	rec := get(newTestServer(nil, rep),
		"/v1/reports/events?start=2020-01-01T00:00:00Z&end=2020-01-31T23:59:59Z&type=Rain&severity=Heavy")

	require.Equal(t, http.StatusOK, rec.Code)
	var body report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rep-events", body.ID)

	assert.Equal(t, "Rain", rep.eventQuery.EventType)
	assert.Equal(t, "Heavy", rep.eventQuery.Severity)
	assert.Equal(t, domain.MonthWindow(2020, time.January), rep.eventQuery.Window)
}

func TestConditionsReport_YearMonth(t *testing.T) {
	rep := &mockReporter{}
	rec := get(newTestServer(nil, rep), "/v1/reports/conditions?year=2021&month=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.MonthWindow(2021, time.February), rep.window)

	rec = get(newTestServer(nil, rep), "/v1/reports/conditions?year=2021")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.YearWindow(2021), rep.window)
}

func TestMonthlyReport(t *testing.T) {
	rep := &mockReporter{}
	rec := get(newTestServer(nil, rep), "/v1/reports/monthly?year=2019&type=Snow")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, analysis.MonthlyQuery{Year: 2019, EventType: "Snow"}, rep.monthlyQuery)
}

func TestReportErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"missing window", "/v1/reports/events", nil, http.StatusBadRequest},
		{"bad month", "/v1/reports/conditions?year=2020&month=13", nil, http.StatusBadRequest},
		{"bad timestamp", "/v1/reports/events?start=soon&end=later", nil, http.StatusBadRequest},
		{"inverted window", "/v1/reports/events?start=2020-02-01&end=2020-01-01", nil, http.StatusBadRequest},
		{"missing year", "/v1/reports/monthly", nil, http.StatusBadRequest},
		{"year out of range", "/v1/reports/monthly?year=0", fmt.Errorf("%w: year 0 out of range", domain.ErrInvalidWindow), http.StatusBadRequest},
		{"store down", "/v1/reports/monthly?year=2020", errors.New("server selection timeout"), http.StatusInternalServerError},
		{"cancelled", "/v1/reports/events?year=2020", context.Canceled, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestServer(nil, &mockReporter{err: tt.err}), tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
