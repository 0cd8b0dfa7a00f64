package aggregate

import (
	"time"

	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// Monthly holds match counts per calendar month, January first.
type Monthly [12]int

// ByMonth counts matches by the month of the accident time.
func ByMonth(matches []domain.MatchResult) Monthly {
	var m Monthly
	for _, r := range matches {
		m[r.AccidentTime.UTC().Month()-1]++
	}
	return m
}

// Total returns the sum over all months.
func (m Monthly) Total() int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}

// Buckets returns one bucket per month in calendar order, keyed "Jan".."Dec".
func (m Monthly) Buckets() []Bucket {
	out := make([]Bucket, len(m))
	for i, c := range m {
		out[i] = Bucket{Key: time.Month(i + 1).String()[:3], Count: c}
	}
	return out
}
