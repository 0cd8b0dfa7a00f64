package aggregate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// DefaultBins is the bin count used when none is requested.
const DefaultBins = 10

// Bin is one equal-width interval. Bins are half-open [Low, High) except the
// last, which also includes High.
type Bin struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram is the distribution of a continuous accident attribute.
type Histogram struct {
	Field string `json:"field"`
	Bins  []Bin  `json:"bins"`
	// Unknown counts accidents whose value was missing or not numeric.
	Unknown int `json:"unknown"`
}

// Known returns the number of accidents placed into a bin.
func (h Histogram) Known() int {
	n := 0
	for _, b := range h.Bins {
		n += b.Count
	}
	return n
}

// Total returns Known plus Unknown.
func (h Histogram) Total() int { return h.Known() + h.Unknown }

// Buckets returns the bins in ascending order as labelled counts.
func (h Histogram) Buckets() []Bucket {
	out := make([]Bucket, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = Bucket{Key: b.Label, Count: b.Count}
	}
	return out
}

// NewHistogram bins the numeric values of field into equal-width intervals
// spanning the observed range. Unknown values are excluded from the range.
// A non-positive bins uses DefaultBins. When every known value is equal a
// single bin is produced.
func NewHistogram(accidents []domain.Accident, field string, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	h := Histogram{Field: field}

	values := make([]float64, 0, len(accidents))
	for _, a := range accidents {
		v, ok := a.Attribute(field)
		if !ok {
			h.Unknown++
			continue
		}
		f, ok := numeric(v)
		if !ok {
			h.Unknown++
			continue
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return h
	}

	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		h.Bins = []Bin{{Label: label(lo, hi), Low: lo, High: hi, Count: len(values)}}
		return h
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	h.Bins = make([]Bin, bins)
	for i := range h.Bins {
		h.Bins[i] = Bin{Label: label(edges[i], edges[i+1]), Low: edges[i], High: edges[i+1]}
	}
	for _, v := range values {
		i := sort.Search(bins, func(i int) bool { return v < edges[i+1] })
		if i == bins {
			i = bins - 1
		}
		h.Bins[i].Count++
	}
	return h
}

func label(lo, hi float64) string {
	return fmt.Sprintf("%.2f-%.2f", lo, hi)
}
