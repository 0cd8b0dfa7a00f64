package domain

import (
	"fmt"
	"time"
)

// Contains reports whether instant lies in [start, end], inclusive.
// All three values must already be normalized to UTC.
func Contains(start, end, instant time.Time) bool {
	return !instant.Before(start) && !instant.After(end)
}

// Window is the analysis period an analyst selects.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseWindow parses both bounds with [ParseTimestamp] and rejects an end
// before the start.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseTimestamp(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := ParseTimestamp(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	w := Window{Start: s, End: e}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// MonthWindow covers a calendar month, from the first day at 00:00:00 to the
// last day at 23:59:59 UTC.
func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}
}

// YearWindow covers a calendar year in UTC.
func YearWindow(year int) Window {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Second)}
}

// Validate returns ErrInvalidWindow when End is before Start.
func (w Window) Validate() error {
	if w.End.Before(w.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow,
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return Contains(w.Start, w.End, t.UTC())
}

// Label renders the window by date only, e.g. "2020-01-01 to 2020-01-31".
func (w Window) Label() string {
	return w.Start.UTC().Format(time.DateOnly) + " to " + w.End.UTC().Format(time.DateOnly)
}
