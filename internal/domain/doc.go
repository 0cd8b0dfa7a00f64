// Package domain models traffic-accident and weather-event records and the
// time and window rules used to correlate them.
//
// # Data Sources
//
// Accident records come from a document store loaded with the US-Accidents
// dataset (one document per accident). Weather events come from a graph store
// where each event is an :Evento node with a location and an active window.
// Both arrive at this package already decoded into [Accident] and
// [WeatherEvent]; adapters under internal/adapter own the wire formats.
//
// # Accident Conventions
//
// Accident documents carry the start position as Start_Lat / Start_Lng in
// decimal degrees and the start time as a string:
//
//	"2016-02-08 05:46:00"            offset-less, interpreted as UTC
//	"2016-02-08 05:46:00.000000000"  fractional seconds are accepted
//	"2016-02-08T05:46:00Z"           ISO-8601 with offset
//
// Weather attributes are recorded on the accident itself and are only used by
// raw aggregation, never by the join:
//
//	Weather_Condition   free text, e.g. "Light Rain", "Clear", "Overcast"
//	Precipitation(in)   inches, continuous
//	Temperature(F)      degrees Fahrenheit, continuous
//	Humidity(%)         percent, continuous
//
// Missing, empty and NaN attribute values are unknown.
//
// # Event Conventions
//
// Event windows come back from the graph store as strings produced by
// toString(datetime). Neo4j drops zero seconds and may append a zone id:
//
//	"2016-01-06T23:14:00Z"
//	"2016-01-06T23:14Z"
//	"2016-01-06T23:14Z[UTC]"
//
// All three parse to the same instant. A window is valid when start <= end;
// containment is inclusive on both ends.
package domain
