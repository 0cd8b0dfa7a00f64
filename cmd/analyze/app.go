package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/accident-weather-analysis/internal/adapter/chart"
	"github.com/couchcryptid/accident-weather-analysis/internal/adapter/console"
	"github.com/couchcryptid/accident-weather-analysis/internal/adapter/csvexport"
	kafkaadapter "github.com/couchcryptid/accident-weather-analysis/internal/adapter/kafka"
	mongoadapter "github.com/couchcryptid/accident-weather-analysis/internal/adapter/mongo"
	neo4jadapter "github.com/couchcryptid/accident-weather-analysis/internal/adapter/neo4j"
	"github.com/couchcryptid/accident-weather-analysis/internal/adapter/sqlite"
	"github.com/couchcryptid/accident-weather-analysis/internal/analysis"
	"github.com/couchcryptid/accident-weather-analysis/internal/config"
	"github.com/couchcryptid/accident-weather-analysis/internal/match"
	"github.com/couchcryptid/accident-weather-analysis/internal/observability"
	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

// globalFlags override the corresponding environment settings when set.
type globalFlags struct {
	maxDistanceKM float64
	formats       string
	outputDir     string
	workers       int
}

func (f *globalFlags) apply(cfg *config.Config) error {
	if f.maxDistanceKM != 0 {
		cfg.MaxDistanceKM = f.maxDistanceKM
	}
	if f.formats != "" {
		cfg.ReportFormats = config.ParseFormats(f.formats)
		if err := config.ValidateFormats(cfg.ReportFormats); err != nil {
			return fmt.Errorf("--format: %w", err)
		}
	}
	if f.outputDir != "" {
		cfg.ReportOutputDir = f.outputDir
	}
	if f.workers > 0 {
		cfg.JoinWorkers = f.workers
	}
	return nil
}

// app holds the wired dependencies of one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	service *analysis.Service
	writer  report.Writer
	closers []func(context.Context) error
}

// newApp loads configuration and connects the sources. needJoin requires a
// maximum distance and builds the match engine.
func newApp(ctx context.Context, flags *globalFlags, needJoin bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := flags.apply(cfg); err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  observability.NewLogger(cfg),
		metrics: observability.NewMetrics(),
	}

	var joiner analysis.Joiner
	if needJoin {
		engine, err := match.NewEngine(match.Options{
			MaxDistanceKM:   cfg.MaxDistanceKM,
			LinearThreshold: linearThreshold(cfg.IndexLinearThreshold),
			Workers:         cfg.JoinWorkers,
			Logger:          a.logger,
			Metrics:         a.metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: set --max-distance-km or MAX_DISTANCE_KM", err)
		}
		joiner = engine
	}

	accidents, events, err := a.connectSources(ctx, needJoin)
	if err != nil {
		a.close()
		return nil, err
	}
	a.service = analysis.New(accidents, events, joiner, a.logger, a.metrics, cfg.HistogramBins)

	writer, err := a.reportWriter()
	if err != nil {
		a.close()
		return nil, err
	}
	a.writer = writer
	return a, nil
}

// linearThreshold maps INDEX_LINEAR_THRESHOLD=0 to "always use the tree".
func linearThreshold(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

func (a *app) connectSources(ctx context.Context, needEvents bool) (analysis.AccidentSource, analysis.EventSource, error) {
	var store *sqlite.Store
	openSQLite := func() (*sqlite.Store, error) {
		if store != nil {
			return store, nil
		}
		s, err := sqlite.Open(ctx, a.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		store = s
		return s, nil
	}

	var accidents analysis.AccidentSource
	switch a.cfg.AccidentSource {
	case config.SourceSQLite:
		s, err := openSQLite()
		if err != nil {
			return nil, nil, err
		}
		accidents = s
	default:
		src, err := mongoadapter.Connect(ctx, a.cfg, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, src.Close)
		accidents = src
	}

	if !needEvents {
		return accidents, nil, nil
	}

	var events analysis.EventSource
	switch a.cfg.EventSource {
	case config.SourceSQLite:
		s, err := openSQLite()
		if err != nil {
			return nil, nil, err
		}
		events = s
	default:
		src, err := neo4jadapter.Connect(ctx, a.cfg, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, src.Close)
		events = src
	}
	return accidents, events, nil
}

func (a *app) reportWriter() (report.Writer, error) {
	sinks := make([]report.Sink, 0, len(a.cfg.ReportFormats))
	for _, f := range a.cfg.ReportFormats {
		var w report.Writer
		switch f {
		case config.FormatConsole:
			w = console.NewWriter(stdout)
		case config.FormatPNG:
			w = chart.NewPNGWriter(a.cfg.ReportOutputDir, a.logger)
		case config.FormatHTML:
			w = chart.NewHTMLWriter(a.cfg.ReportOutputDir, a.logger)
		case config.FormatCSV:
			w = csvexport.NewWriter(a.cfg.ReportOutputDir, a.logger)
		case config.FormatKafka:
			kw := kafkaadapter.NewWriter(a.cfg, a.logger)
			a.closers = append(a.closers, func(context.Context) error { return kw.Close() })
			w = kw
		default:
			return nil, fmt.Errorf("unknown report format %q", f)
		}
		sinks = append(sinks, report.Sink{Name: f, Writer: w})
	}
	return report.NewMultiWriter(a.logger, a.metrics, sinks...), nil
}

// publish delivers rep even when ctx was cancelled, so a partial result is
// still reported, then returns runErr.
func (a *app) publish(ctx context.Context, rep report.Report, runErr error) error {
	if runErr != nil && !rep.Partial {
		return runErr
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.StoreTimeout)
	defer cancel()
	if err := a.writer.WriteReport(wctx, rep); err != nil {
		return errors.Join(runErr, fmt.Errorf("write report: %w", err))
	}
	return runErr
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && a.logger != nil {
			a.logger.Error("close failed", "error", err)
		}
	}
}

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout
