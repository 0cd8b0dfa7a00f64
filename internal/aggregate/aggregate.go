// Package aggregate turns match results and raw accident records into
// category counts and equal-width histograms.
package aggregate

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// Unknown is the bucket for records whose value is missing.
const Unknown = "Unknown"

// Aggregate maps a category key to the number of records carrying it.
type Aggregate map[string]int

// Bucket is a single key and its count.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Total returns the sum of all counts.
func (a Aggregate) Total() int {
	n := 0
	for _, c := range a {
		n += c
	}
	return n
}

// Buckets returns the entries ordered by descending count, then by key.
func (a Aggregate) Buckets() []Bucket {
	out := make([]Bucket, 0, len(a))
	for k, c := range a {
		out = append(out, Bucket{Key: k, Count: c})
	}
	slices.SortFunc(out, func(x, y Bucket) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return strings.Compare(x.Key, y.Key)
	})
	return out
}

// Split returns a copy of a without key, and the count that key held.
func (a Aggregate) Split(key string) (Aggregate, int) {
	rest := make(Aggregate, len(a))
	for k, c := range a {
		if k != key {
			rest[k] = c
		}
	}
	return rest, a[key]
}

// EventField selects the attribute of the matched event to group by.
type EventField string

const (
	ByEventType EventField = "EventType"
	BySeverity  EventField = "Severity"
)

func (f EventField) value(ev domain.WeatherEvent) string {
	switch f {
	case BySeverity:
		return ev.Severity
	default:
		return ev.Type
	}
}

// Matches counts matches by a field of their weather event. Blank values are
// counted under Unknown.
func Matches(matches []domain.MatchResult, field EventField) Aggregate {
	out := make(Aggregate)
	for _, m := range matches {
		key := strings.TrimSpace(field.value(m.Event))
		if key == "" {
			key = Unknown
		}
		out[key]++
	}
	return out
}

// Raw counts accidents by one of their own attributes. Every accident
// contributes exactly once; missing values are counted under Unknown.
func Raw(accidents []domain.Accident, field string) Aggregate {
	out := make(Aggregate)
	for _, a := range accidents {
		out[categoryKey(a, field)]++
	}
	return out
}

func categoryKey(a domain.Accident, field string) string {
	v, ok := a.Attribute(field)
	if !ok {
		return Unknown
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}

// numeric converts an attribute value to a finite float. Strings holding a
// number are accepted since some stores keep every column as text.
func numeric(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
