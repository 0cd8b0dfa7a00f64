package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/accident-weather-analysis/internal/analysis"
	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

// Reporter builds reports on demand.
type Reporter interface {
	EventImpact(ctx context.Context, q analysis.EventQuery) (report.Report, error)
	Conditions(ctx context.Context, w domain.Window) (report.Report, error)
	Monthly(ctx context.Context, q analysis.MonthlyQuery) (report.Report, error)
}

// Server exposes health, readiness, metrics, and report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	reporter   Reporter
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/reports/{events,conditions,monthly} routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reporter Reporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			// Reports join a full period in memory.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		reporter: reporter,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/reports/events", s.handleEvents)
	mux.HandleFunc("GET /v1/reports/conditions", s.handleConditions)
	mux.HandleFunc("GET /v1/reports/monthly", s.handleMonthly)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	win, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	q := r.URL.Query()
	rep, err := s.reporter.EventImpact(r.Context(), analysis.EventQuery{
		Window:    win,
		EventType: q.Get("type"),
		Severity:  q.Get("severity"),
	})
	s.respond(w, r, rep, err)
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	win, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := s.reporter.Conditions(r.Context(), win)
	s.respond(w, r, rep, err)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("year is required"))
		return
	}
	rep, err := s.reporter.Monthly(r.Context(), analysis.MonthlyQuery{
		Year:      year,
		EventType: q.Get("type"),
		Severity:  q.Get("severity"),
	})
	s.respond(w, r, rep, err)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, rep report.Report, err error) {
	switch {
	case err == nil:
		sharedobs.WriteJSON(w, http.StatusOK, rep)
	case errors.Is(err, domain.ErrInvalidWindow), errors.Is(err, domain.ErrInvalidTimestamp):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("report request cancelled", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.logger.Error("report request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

// windowFromQuery accepts either start and end timestamps, or a year with an
// optional month.
func windowFromQuery(r *http.Request) (domain.Window, error) {
	q := r.URL.Query()
	if q.Has("start") || q.Has("end") {
		return domain.ParseWindow(q.Get("start"), q.Get("end"))
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return domain.Window{}, errors.New("either start and end, or year, is required")
	}
	if !q.Has("month") {
		return domain.YearWindow(year), nil
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		return domain.Window{}, errors.New("month must be between 1 and 12")
	}
	return domain.MonthWindow(year, time.Month(month)), nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
