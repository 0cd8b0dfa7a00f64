package analysis

import (
	"context"
	"fmt"

	"github.com/couchcryptid/accident-weather-analysis/internal/aggregate"
	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

// conditionClear is pulled out of the condition chart so it does not dwarf
// the other bars.
const conditionClear = "Clear"

// skippedLabel annotates joined reports with the malformed record count.
const skippedLabel = "Skipped records"

// EventQuery selects matches for an event-impact report.
type EventQuery struct {
	Window    domain.Window
	EventType string
	Severity  string
}

// MonthlyQuery selects matches for a monthly report over one calendar year.
type MonthlyQuery struct {
	Year      int
	EventType string
	Severity  string
}

// EventImpact counts accidents in the window by the type and by the severity
// of the weather event they matched. A cancelled join yields a report marked
// Partial alongside the error.
func (s *Service) EventImpact(ctx context.Context, q EventQuery) (report.Report, error) {
	var rep report.Report
	err := s.run(string(report.KindEvents), func() error {
		if err := q.Window.Validate(); err != nil {
			return err
		}
		eventType, severity := normalizeFilter(q.EventType), normalizeFilter(q.Severity)

		j, joinErr := s.loadAndJoin(ctx, q.Window)
		if joinErr != nil && !j.result.Partial {
			return joinErr
		}
		matches := applyFilters(j.result.Matches, eventType, severity)

		rep = report.New(report.KindEvents, "Accidents by weather event", q.Window.Label())
		rep.Filters = filterMap(eventType, severity)
		rep.Total = len(matches)
		rep.Skipped = skipped(j.result)
		rep.Partial = j.result.Partial
		summary := []report.Annotation{
			{Label: "Period", Value: rep.Period},
			{Label: "Total accidents", Value: itoa(len(matches))},
			{Label: skippedLabel, Value: itoa(rep.Skipped)},
		}
		rep.Charts = []report.Chart{
			{
				Name:        "by-type",
				Title:       "Accidents by weather event type",
				XLabel:      "Event type",
				YLabel:      "Accidents",
				Buckets:     aggregate.Matches(matches, aggregate.ByEventType).Buckets(),
				Annotations: summary,
			},
			{
				Name:        "by-severity",
				Title:       "Accidents by weather event severity",
				XLabel:      "Severity",
				YLabel:      "Accidents",
				Buckets:     aggregate.Matches(matches, aggregate.BySeverity).Buckets(),
				Annotations: summary,
			},
		}
		return joinErr
	})
	return rep, err
}

// Conditions describes the weather recorded on the accidents themselves: a
// category count of the reported condition and histograms of precipitation,
// temperature, and humidity.
func (s *Service) Conditions(ctx context.Context, w domain.Window) (report.Report, error) {
	var rep report.Report
	err := s.run(string(report.KindConditions), func() error {
		if err := w.Validate(); err != nil {
			return err
		}
		accidents, err := s.loadAccidents(ctx, w)
		if err != nil {
			return err
		}

		rep = report.New(report.KindConditions, "Weather conditions at accident time", w.Label())
		rep.Total = len(accidents)

		conditions, clearCount := aggregate.Raw(accidents, domain.FieldWeatherCondition).Split(conditionClear)
		rep.Charts = append(rep.Charts, report.Chart{
			Name:    "weather-condition",
			Title:   "Accidents by weather condition",
			XLabel:  "Condition",
			YLabel:  "Accidents",
			Buckets: conditions.Buckets(),
			Annotations: []report.Annotation{
				{Label: "Period", Value: rep.Period},
				{Label: conditionClear, Value: itoa(clearCount)},
			},
		})

		for _, f := range []struct{ field, name, title string }{
			{domain.FieldPrecipitation, "precipitation", "Precipitation (in)"},
			{domain.FieldTemperature, "temperature", "Temperature (F)"},
			{domain.FieldHumidity, "humidity", "Humidity (%)"},
		} {
			h := aggregate.NewHistogram(accidents, f.field, s.bins)
			rep.Charts = append(rep.Charts, report.Chart{
				Name:    f.name,
				Title:   "Accidents by " + f.title,
				XLabel:  f.title,
				YLabel:  "Accidents",
				Buckets: h.Buckets(),
				Annotations: []report.Annotation{
					{Label: "Period", Value: rep.Period},
					{Label: aggregate.Unknown, Value: itoa(h.Unknown)},
				},
			})
		}
		return nil
	})
	return rep, err
}

// Monthly counts matched accidents per month of a calendar year.
func (s *Service) Monthly(ctx context.Context, q MonthlyQuery) (report.Report, error) {
	var rep report.Report
	err := s.run(string(report.KindMonthly), func() error {
		if q.Year < 1 || q.Year > 9999 {
			return fmt.Errorf("%w: year %d out of range", domain.ErrInvalidWindow, q.Year)
		}
		w := domain.YearWindow(q.Year)
		eventType, severity := normalizeFilter(q.EventType), normalizeFilter(q.Severity)

		j, joinErr := s.loadAndJoin(ctx, w)
		if joinErr != nil && !j.result.Partial {
			return joinErr
		}
		matches := applyFilters(j.result.Matches, eventType, severity)
		months := aggregate.ByMonth(matches)

		rep = report.New(report.KindMonthly, fmt.Sprintf("Accidents per month in %d", q.Year), w.Label())
		rep.Filters = filterMap(eventType, severity)
		rep.Total = months.Total()
		rep.Skipped = skipped(j.result)
		rep.Partial = j.result.Partial
		rep.Charts = []report.Chart{{
			Name:    "by-month",
			Title:   fmt.Sprintf("Accidents per month in %d", q.Year),
			XLabel:  "Month",
			YLabel:  "Accidents",
			Buckets: months.Buckets(),
			Annotations: []report.Annotation{
				{Label: "Year", Value: itoa(q.Year)},
				{Label: "Total accidents", Value: itoa(rep.Total)},
				{Label: skippedLabel, Value: itoa(rep.Skipped)},
			},
		}}
		return joinErr
	})
	return rep, err
}
