package domain

import (
	"math"
	"strings"
	"time"
)

// Accident attribute names as stored in the US-Accidents documents.
const (
	FieldWeatherCondition = "Weather_Condition"
	FieldPrecipitation    = "Precipitation(in)"
	FieldTemperature      = "Temperature(F)"
	FieldHumidity         = "Humidity(%)"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair in degrees.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite and in range.
func (g Geo) Valid() bool {
	return !math.IsNaN(g.Lat) && !math.IsNaN(g.Lng) &&
		g.Lat >= -90 && g.Lat <= 90 && g.Lng >= -180 && g.Lng <= 180
}

// Accident is a traffic-accident record from the document store.
type Accident struct {
	ID        string    `json:"id"`
	StartTime Timestamp `json:"start_time"`
	// Location is nil when the record has no usable start coordinates.
	Location   *Geo           `json:"location,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Attribute returns the named attribute. Missing, nil, blank strings and NaN
// are reported as absent.
func (a Accident) Attribute(name string) (any, bool) {
	v, ok := a.Attributes[name]
	if !ok || v == nil {
		return nil, false
	}
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, false
		}
	case float64:
		if math.IsNaN(x) {
			return nil, false
		}
	case float32:
		if math.IsNaN(float64(x)) {
			return nil, false
		}
	}
	return v, true
}

// WeatherEvent is a geolocated weather event from the graph store.
type WeatherEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	StartTime Timestamp `json:"start_time"`
	EndTime   Timestamp `json:"end_time"`
	Location  *Geo      `json:"location,omitempty"`
}

// MatchResult pairs an accident with its canonical weather event.
type MatchResult struct {
	Accident     Accident     `json:"accident"`
	Event        WeatherEvent `json:"event"`
	AccidentTime time.Time    `json:"accident_time"`
	// EventIndex is the event's position in the input sequence of the run.
	EventIndex int     `json:"event_index"`
	DistanceKM float64 `json:"distance_km"`
}
