// Package analysis loads accidents and weather events for a period, joins
// them, and assembles the reports analysts ask for.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
	"github.com/couchcryptid/accident-weather-analysis/internal/match"
	"github.com/couchcryptid/accident-weather-analysis/internal/observability"
)

// AccidentSource reads the accidents whose start time falls in a window.
type AccidentSource interface {
	Accidents(ctx context.Context, w domain.Window) ([]domain.Accident, error)
}

// EventSource reads the weather events whose active window overlaps a window.
type EventSource interface {
	Events(ctx context.Context, w domain.Window) ([]domain.WeatherEvent, error)
}

// Joiner matches accidents to weather events.
type Joiner interface {
	Join(ctx context.Context, accidents []domain.Accident, events []domain.WeatherEvent) (match.Result, error)
}

// Pinger is implemented by sources that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FilterAll is accepted in place of an empty type or severity filter.
const FilterAll = "all"

// Service builds event-impact, condition, and monthly reports.
type Service struct {
	accidents AccidentSource
	events    EventSource
	joiner    Joiner
	logger    *slog.Logger
	metrics   *observability.Metrics
	bins      int
}

// New creates a Service. bins is the histogram bin count for condition reports.
func New(accidents AccidentSource, events EventSource, joiner Joiner, logger *slog.Logger, metrics *observability.Metrics, bins int) *Service {
	return &Service{
		accidents: accidents,
		events:    events,
		joiner:    joiner,
		logger:    logger,
		metrics:   metrics,
		bins:      bins,
	}
}

// CheckReadiness pings every source that supports it.
func (s *Service) CheckReadiness(ctx context.Context) error {
	var errs []error
	for name, src := range map[string]any{"accident source": s.accidents, "event source": s.events} {
		p, ok := src.(Pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// joined is the outcome of loading and joining one window.
type joined struct {
	accidents int
	events    int
	result    match.Result
}

// loadAndJoin reads both sources concurrently and joins them. A cancelled
// join still returns its partial result together with the error.
func (s *Service) loadAndJoin(ctx context.Context, w domain.Window) (joined, error) {
	var (
		accidents []domain.Accident
		events    []domain.WeatherEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accidents, err = s.loadAccidents(gctx, w)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.events.Events(gctx, w)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		s.metrics.EventsLoaded.Add(float64(len(events)))
		return nil
	})
	if err := g.Wait(); err != nil {
		return joined{}, err
	}
	s.logger.Info("sources loaded", "period", w.Label(), "accidents", len(accidents), "events", len(events))

	res, err := s.joiner.Join(ctx, accidents, events)
	out := joined{accidents: len(accidents), events: len(events), result: res}
	if err != nil {
		return out, fmt.Errorf("join: %w", err)
	}
	return out, nil
}

func (s *Service) loadAccidents(ctx context.Context, w domain.Window) ([]domain.Accident, error) {
	accidents, err := s.accidents.Accidents(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("load accidents: %w", err)
	}
	s.metrics.AccidentsLoaded.Add(float64(len(accidents)))
	return accidents, nil
}

// run wraps a report build with run metrics and logging.
func (s *Service) run(kind string, build func() error) error {
	s.metrics.RunsTotal.WithLabelValues(kind).Inc()
	if err := build(); err != nil {
		s.metrics.RunErrors.WithLabelValues(kind).Inc()
		s.logger.Error("analysis failed", "kind", kind, "error", err)
		return err
	}
	return nil
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, FilterAll) {
		return ""
	}
	return v
}

func applyFilters(matches []domain.MatchResult, eventType, severity string) []domain.MatchResult {
	return match.FilterBySeverity(match.FilterByType(matches, eventType), severity)
}

func filterMap(eventType, severity string) map[string]string {
	f := map[string]string{}
	if eventType != "" {
		f["event_type"] = eventType
	}
	if severity != "" {
		f["severity"] = severity
	}
	if len(f) == 0 {
		return nil
	}
	return f
}

func skipped(res match.Result) int {
	return res.Stats.SkippedAccidents + res.Stats.SkippedEvents
}

func itoa(n int) string { return strconv.Itoa(n) }
