package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/accident-weather-analysis/internal/adapter/httpadapter"
	"github.com/couchcryptid/accident-weather-analysis/internal/analysis"
	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// periodFlags select the analysis window: either --start/--end, or --year
// with an optional --month.
type periodFlags struct {
	start, end string
	year       int
	month      int
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.start, "start", "", "window start, ISO-8601 (UTC when no offset)")
	cmd.Flags().StringVar(&p.end, "end", "", "window end, ISO-8601 (UTC when no offset)")
	cmd.Flags().IntVar(&p.year, "year", 0, "calendar year, instead of --start/--end")
	cmd.Flags().IntVar(&p.month, "month", 0, "month 1-12 within --year")
	cmd.MarkFlagsRequiredTogether("start", "end")
	cmd.MarkFlagsMutuallyExclusive("start", "year")
}

func (p *periodFlags) window() (domain.Window, error) {
	switch {
	case p.start != "":
		return domain.ParseWindow(p.start, p.end)
	case p.year == 0:
		return domain.Window{}, errors.New("a period is required: --start and --end, or --year")
	case p.month == 0:
		return domain.YearWindow(p.year), nil
	case p.month < 1 || p.month > 12:
		return domain.Window{}, errors.New("--month must be between 1 and 12")
	default:
		return domain.MonthWindow(p.year, time.Month(p.month)), nil
	}
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func newEventsCmd(flags *globalFlags) *cobra.Command {
	var (
		period              periodFlags
		eventType, severity string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Count accidents by the type and severity of the matched weather event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := period.window()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := newApp(ctx, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			rep, err := a.service.EventImpact(ctx, analysis.EventQuery{Window: w, EventType: eventType, Severity: severity})
			return a.publish(ctx, rep, err)
		},
	}
	period.register(cmd)
	cmd.Flags().StringVar(&eventType, "type", "", "keep only this weather event type (case-insensitive, \"all\" for every type)")
	cmd.Flags().StringVar(&severity, "severity", "", "keep only this weather event severity")
	return cmd
}

func newConditionsCmd(flags *globalFlags) *cobra.Command {
	var period periodFlags
	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "Summarize the weather recorded on accidents: condition, precipitation, temperature, humidity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := period.window()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			rep, err := a.service.Conditions(ctx, w)
			return a.publish(ctx, rep, err)
		},
	}
	period.register(cmd)
	return cmd
}

func newMonthlyCmd(flags *globalFlags) *cobra.Command {
	var (
		year                int
		eventType, severity string
	)
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Count matched accidents per month of a year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := newApp(ctx, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			rep, err := a.service.Monthly(ctx, analysis.MonthlyQuery{Year: year, EventType: eventType, Severity: severity})
			return a.publish(ctx, rep, err)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year")
	cmd.Flags().StringVar(&eventType, "type", "", "keep only this weather event type (\"all\" for every type)")
	cmd.Flags().StringVar(&severity, "severity", "", "keep only this weather event severity")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve reports, health, and metrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := newApp(ctx, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.service, a.service, a.logger)
			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return err
				}
			}
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http server shutdown error", "error", err)
			}
			a.logger.Info("shutdown complete")
			return nil
		},
	}
}
