// Package neo4j reads weather events stored as (:Evento) nodes in Neo4j.
package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/couchcryptid/accident-weather-analysis/internal/config"
	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// queryLayout matches the prefix of toString() on a Neo4j datetime so that
// string comparison orders correctly.
const queryLayout = "2006-01-02T15:04:05"

// eventsQuery selects events whose active window overlaps [$start, $end].
const eventsQuery = `
MATCH (e:Evento)
WHERE toString(e.StartTime) <= $end AND toString(e.EndTime) >= $start
RETURN e.EventId AS EventId,
       e.LocationLat AS Lat,
       e.LocationLng AS Lng,
       e.Severity AS Severity,
       e.Type AS EventType,
       toString(e.StartTime) AS StartTime,
       toString(e.EndTime) AS EndTime
ORDER BY StartTime, EventId`

// Source is an event source backed by a Neo4j database.
type Source struct {
	driver neo4j.DriverWithContext
	logger *slog.Logger
}

// Connect creates a driver and verifies connectivity.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Source, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	logger.Info("neo4j connected", "uri", cfg.Neo4jURI)
	return &Source{driver: driver, logger: logger}, nil
}

// Ping verifies connectivity.
func (s *Source) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close closes the driver.
func (s *Source) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Events returns the events active at some point in w.
func (s *Source) Events(ctx context.Context, w domain.Window) ([]domain.WeatherEvent, error) {
	res, err := neo4j.ExecuteQuery(ctx, s.driver, eventsQuery,
		queryParams(w),
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, fmt.Errorf("query weather events: %w", err)
	}
	out := make([]domain.WeatherEvent, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, eventFromRecord(rec.AsMap()))
	}
	s.logger.Debug("weather events fetched", "count", len(out), "period", w.Label())
	return out, nil
}

func queryParams(w domain.Window) map[string]any {
	// The end bound is padded to the end of its second so values carrying a
	// zone suffix on the same second still compare as included.
	return map[string]any{
		"start": w.Start.UTC().Format(queryLayout),
		"end":   w.End.UTC().Format(queryLayout) + "\uffff",
	}
}

// eventFromRecord maps a returned row to a WeatherEvent. Missing values are
// left empty for the join to report.
func eventFromRecord(row map[string]any) domain.WeatherEvent {
	ev := domain.WeatherEvent{
		ID:        text(row["EventId"]),
		Type:      text(row["EventType"]),
		Severity:  text(row["Severity"]),
		StartTime: timestamp(row["StartTime"]),
		EndTime:   timestamp(row["EndTime"]),
	}
	lat, latOK := row["Lat"].(float64)
	lng, lngOK := row["Lng"].(float64)
	if latOK && lngOK {
		ev.Location = &domain.Geo{Lat: lat, Lng: lng}
	}
	return ev
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func timestamp(v any) domain.Timestamp {
	switch x := v.(type) {
	case string:
		return domain.RawTimestamp(x)
	case time.Time:
		return domain.At(x)
	case neo4j.LocalDateTime:
		return domain.At(time.Time(x))
	default:
		return domain.Timestamp{}
	}
}
