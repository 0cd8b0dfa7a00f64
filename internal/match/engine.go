// Package match joins accidents to the weather events active at the same
// place and time.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
	"github.com/couchcryptid/accident-weather-analysis/internal/geo"
	"github.com/couchcryptid/accident-weather-analysis/internal/observability"
)

// ErrMaxDistanceRequired is returned by NewEngine when no positive, finite
// maximum distance was supplied.
var ErrMaxDistanceRequired = errors.New("max distance km is required")

// DefaultLinearThreshold is the event count below which the linear scan is used.
const DefaultLinearThreshold = 256

// batchSize is the number of accidents handed to a worker at a time. Batches
// are also the unit of progress when a run is cancelled.
const batchSize = 512

// testHookBatchDone, if non-nil, is called after each batch completes.
var testHookBatchDone func(batch int)

// Record kinds used in Skip and metrics labels.
const (
	RecordAccident = "accident"
	RecordEvent    = "event"
)

// Options configures an Engine.
type Options struct {
	// MaxDistanceKM bounds the accident to event distance. Required.
	MaxDistanceKM float64
	// LinearThreshold selects the spatial index strategy. Zero means
	// DefaultLinearThreshold; a negative value always builds the tree.
	LinearThreshold int
	// Workers is the number of concurrent matchers. One or less runs the
	// join on the calling goroutine.
	Workers int
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Engine performs spatial-temporal joins. It holds no per-run state and may
// be reused.
type Engine struct {
	maxDistanceKM   float64
	linearThreshold int
	workers         int
	logger          *slog.Logger
	metrics         *observability.Metrics
}

// NewEngine validates opts and returns an Engine.
func NewEngine(opts Options) (*Engine, error) {
	if !(opts.MaxDistanceKM > 0) || math.IsInf(opts.MaxDistanceKM, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrMaxDistanceRequired, opts.MaxDistanceKM)
	}
	threshold := opts.LinearThreshold
	switch {
	case threshold == 0:
		threshold = DefaultLinearThreshold
	case threshold < 0:
		threshold = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewDiscardMetrics()
	}
	return &Engine{
		maxDistanceKM:   opts.MaxDistanceKM,
		linearThreshold: threshold,
		workers:         max(opts.Workers, 1),
		logger:          logger,
		metrics:         metrics,
	}, nil
}

// MaxDistanceKM returns the configured search radius.
func (e *Engine) MaxDistanceKM() float64 { return e.maxDistanceKM }

// Skip records a record excluded from the join and why.
type Skip struct {
	Record string
	Index  int
	ID     string
	Err    error
}

// Stats summarizes a join run. Matched + Unmatched == Processed, and
// Processed == Accidents unless the run was cancelled.
type Stats struct {
	Accidents        int
	Processed        int
	Matched          int
	Unmatched        int
	SkippedAccidents int
	Events           int
	IndexedEvents    int
	SkippedEvents    int
	Strategy         string
	Duration         time.Duration
}

// Result is the output of a join run. Matches are in input accident order.
type Result struct {
	Matches []domain.MatchResult
	Skipped []Skip
	Stats   Stats
	// Partial is set when the run was cancelled; Matches then cover the
	// first Stats.Processed accidents only.
	Partial bool
}

// preparedEvent is a validated event with its original input position.
type preparedEvent struct {
	position   int
	start, end time.Time
}

type batchOutcome struct {
	matches   []domain.MatchResult
	skips     []Skip
	processed int
	done      bool
}

// Join matches each accident to the nearest weather event within the
// maximum distance whose active window contains the accident time. Ties are
// broken by the lower event position. Records that cannot take part are
// reported in Result.Skipped. A cancelled context stops the run between
// batches; the partial Result is returned with the context error.
func (e *Engine) Join(ctx context.Context, accidents []domain.Accident, events []domain.WeatherEvent) (Result, error) {
	started := time.Now()

	prepared, points, skipped := prepareEvents(events)
	index, err := geo.NewIndex(points, e.linearThreshold)
	if err != nil {
		return Result{}, fmt.Errorf("build spatial index: %w", err)
	}
	e.metrics.IndexBuilds.WithLabelValues(index.Strategy()).Inc()

	batches := (len(accidents) + batchSize - 1) / batchSize
	outcomes := make([]batchOutcome, batches)
	runBatch := func(b int) {
		lo := b * batchSize
		hi := min(lo+batchSize, len(accidents))
		outcomes[b] = e.matchBatch(accidents, lo, hi, events, prepared, index)
		if testHookBatchDone != nil {
			testHookBatchDone(b)
		}
	}

	if e.workers == 1 {
		for b := range batches {
			if ctx.Err() != nil {
				break
			}
			runBatch(b)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for b := range batches {
			if gctx.Err() != nil {
				break
			}
			// A dispatched batch always finishes, so completed batches
			// stay a contiguous prefix.
			g.Go(func() error {
				runBatch(b)
				return nil
			})
		}
		_ = g.Wait() // workers never return errors
	}

	res := Result{Skipped: skipped}
	for _, out := range outcomes {
		if !out.done {
			res.Partial = true
			break
		}
		res.Matches = append(res.Matches, out.matches...)
		res.Skipped = append(res.Skipped, out.skips...)
		res.Stats.Processed += out.processed
	}

	res.Stats.Accidents = len(accidents)
	res.Stats.Matched = len(res.Matches)
	res.Stats.Unmatched = res.Stats.Processed - res.Stats.Matched
	res.Stats.Events = len(events)
	res.Stats.IndexedEvents = index.Len()
	res.Stats.Strategy = index.Strategy()
	res.Stats.Duration = time.Since(started)
	for _, s := range res.Skipped {
		if s.Record == RecordAccident {
			res.Stats.SkippedAccidents++
		} else {
			res.Stats.SkippedEvents++
		}
	}

	e.record(res)

	if res.Partial {
		return res, fmt.Errorf("join cancelled after %d of %d accidents: %w",
			res.Stats.Processed, res.Stats.Accidents, ctx.Err())
	}
	return res, nil
}

// matchBatch joins accidents[lo:hi]. It only reads the shared index.
func (e *Engine) matchBatch(
	accidents []domain.Accident, lo, hi int,
	events []domain.WeatherEvent, prepared []preparedEvent, index geo.Index,
) batchOutcome {
	out := batchOutcome{done: true, processed: hi - lo}
	for i := lo; i < hi; i++ {
		a := accidents[i]
		at, err := validateAccident(a)
		if err != nil {
			out.skips = append(out.skips, Skip{Record: RecordAccident, Index: i, ID: a.ID, Err: err})
			continue
		}
		for _, c := range index.Query(a.Location.Lat, a.Location.Lng, e.maxDistanceKM) {
			ev := prepared[c.Index]
			if !domain.Contains(ev.start, ev.end, at) {
				continue
			}
			out.matches = append(out.matches, domain.MatchResult{
				Accident:     a,
				Event:        events[ev.position],
				AccidentTime: at,
				EventIndex:   ev.position,
				DistanceKM:   c.DistanceKM,
			})
			break
		}
	}
	return out
}

func (e *Engine) record(res Result) {
	for _, s := range res.Skipped {
		e.logger.Warn("record skipped",
			"record", s.Record,
			"index", s.Index,
			"id", s.ID,
			"error", s.Err,
		)
		e.metrics.SkippedRecords.WithLabelValues(s.Record, Reason(s.Err)).Inc()
	}
	e.metrics.Matches.Add(float64(res.Stats.Matched))
	e.metrics.JoinDuration.Observe(res.Stats.Duration.Seconds())
	e.logger.Info("join complete",
		"accidents", res.Stats.Accidents,
		"processed", res.Stats.Processed,
		"matched", res.Stats.Matched,
		"unmatched", res.Stats.Unmatched,
		"events", res.Stats.Events,
		"indexed_events", res.Stats.IndexedEvents,
		"skipped_accidents", res.Stats.SkippedAccidents,
		"skipped_events", res.Stats.SkippedEvents,
		"strategy", res.Stats.Strategy,
		"max_distance_km", e.maxDistanceKM,
		"partial", res.Partial,
		"duration", res.Stats.Duration,
	)
}

// prepareEvents validates events and returns them in input order alongside
// their index points. Event i of the returned slices is point i.
func prepareEvents(events []domain.WeatherEvent) ([]preparedEvent, []geo.Point, []Skip) {
	prepared := make([]preparedEvent, 0, len(events))
	points := make([]geo.Point, 0, len(events))
	var skips []Skip
	for i, ev := range events {
		start, end, err := validateEvent(ev)
		if err != nil {
			skips = append(skips, Skip{Record: RecordEvent, Index: i, ID: ev.ID, Err: err})
			continue
		}
		prepared = append(prepared, preparedEvent{position: i, start: start, end: end})
		points = append(points, geo.Point{Lat: ev.Location.Lat, Lng: ev.Location.Lng})
	}
	return prepared, points, skips
}

func validateEvent(ev domain.WeatherEvent) (time.Time, time.Time, error) {
	if ev.ID == "" {
		return time.Time{}, time.Time{}, domain.ErrMissingID
	}
	if ev.Location == nil || !ev.Location.Valid() {
		return time.Time{}, time.Time{}, domain.ErrMissingLocation
	}
	start, err := ev.StartTime.Resolve()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start time: %w", err)
	}
	end, err := ev.EndTime.Resolve()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end time: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s before start %s",
			domain.ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return start, end, nil
}

func validateAccident(a domain.Accident) (time.Time, error) {
	if a.ID == "" {
		return time.Time{}, domain.ErrMissingID
	}
	if a.Location == nil || !a.Location.Valid() {
		return time.Time{}, domain.ErrMissingLocation
	}
	at, err := a.StartTime.Resolve()
	if err != nil {
		return time.Time{}, fmt.Errorf("start time: %w", err)
	}
	return at, nil
}

// Reason maps a skip error to a short metrics label.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTimestamp):
		return "invalid_timestamp"
	case errors.Is(err, domain.ErrInvalidWindow):
		return "invalid_window"
	case errors.Is(err, domain.ErrMissingLocation):
		return "missing_location"
	case errors.Is(err, domain.ErrMissingID):
		return "missing_id"
	default:
		return "other"
	}
}
