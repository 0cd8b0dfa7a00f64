// Package sqlite stores accidents and weather events in a local SQLite file,
// for offline analysis and generated fixtures.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// timeLayout sorts lexicographically in time order for UTC values.
const timeLayout = "2006-01-02T15:04:05Z"

const schema = `
CREATE TABLE IF NOT EXISTS accidents (
	id                TEXT PRIMARY KEY,
	start_time        TEXT NOT NULL,
	start_lat         REAL,
	start_lng         REAL,
	weather_condition TEXT,
	precipitation_in  REAL,
	temperature_f     REAL,
	humidity_pct      REAL
);
CREATE INDEX IF NOT EXISTS idx_accidents_start_time ON accidents(start_time);
CREATE TABLE IF NOT EXISTS weather_events (
	id         TEXT PRIMARY KEY,
	type       TEXT,
	severity   TEXT,
	start_time TEXT NOT NULL,
	end_time   TEXT NOT NULL,
	lat        REAL,
	lng        REAL
);
CREATE INDEX IF NOT EXISTS idx_weather_events_window ON weather_events(start_time, end_time);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// Store is both an accident and an event source.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Accidents returns accidents whose start time lies in w, oldest first.
func (s *Store) Accidents(ctx context.Context, w domain.Window) ([]domain.Accident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_time, start_lat, start_lng,
		       weather_condition, precipitation_in, temperature_f, humidity_pct
		FROM accidents
		WHERE start_time >= ? AND start_time <= ?
		ORDER BY start_time, id`,
		formatTime(w.Start), formatTime(w.End))
	if err != nil {
		return nil, fmt.Errorf("query accidents: %w", err)
	}
	defer rows.Close()

	var out []domain.Accident
	for rows.Next() {
		var (
			a                      domain.Accident
			start                  string
			lat, lng               sql.NullFloat64
			condition              sql.NullString
			precip, temp, humidity sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &start, &lat, &lng, &condition, &precip, &temp, &humidity); err != nil {
			return nil, fmt.Errorf("scan accident: %w", err)
		}
		a.StartTime = domain.RawTimestamp(start)
		a.Location = location(lat, lng)
		a.Attributes = map[string]any{}
		if condition.Valid {
			a.Attributes[domain.FieldWeatherCondition] = condition.String
		}
		setFloat(a.Attributes, domain.FieldPrecipitation, precip)
		setFloat(a.Attributes, domain.FieldTemperature, temp)
		setFloat(a.Attributes, domain.FieldHumidity, humidity)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accidents: %w", err)
	}
	return out, nil
}

// Events returns weather events whose active window overlaps w, in start order.
func (s *Store) Events(ctx context.Context, w domain.Window) ([]domain.WeatherEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, severity, start_time, end_time, lat, lng
		FROM weather_events
		WHERE start_time <= ? AND end_time >= ?
		ORDER BY start_time, id`,
		formatTime(w.End), formatTime(w.Start))
	if err != nil {
		return nil, fmt.Errorf("query weather events: %w", err)
	}
	defer rows.Close()

	var out []domain.WeatherEvent
	for rows.Next() {
		var (
			ev            domain.WeatherEvent
			typ, severity sql.NullString
			start, end    string
			lat, lng      sql.NullFloat64
		)
		if err := rows.Scan(&ev.ID, &typ, &severity, &start, &end, &lat, &lng); err != nil {
			return nil, fmt.Errorf("scan weather event: %w", err)
		}
		ev.Type, ev.Severity = typ.String, severity.String
		ev.StartTime, ev.EndTime = domain.RawTimestamp(start), domain.RawTimestamp(end)
		ev.Location = location(lat, lng)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weather events: %w", err)
	}
	return out, nil
}

// InsertAccidents upserts accidents in one transaction. Accidents whose start
// time does not parse are rejected.
func (s *Store) InsertAccidents(ctx context.Context, accidents []domain.Accident) error {
	return s.inTx(ctx, `
		INSERT OR REPLACE INTO accidents
			(id, start_time, start_lat, start_lng, weather_condition, precipitation_in, temperature_f, humidity_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(accidents), func(i int) ([]any, error) {
			a := accidents[i]
			start, err := a.StartTime.Resolve()
			if err != nil {
				return nil, fmt.Errorf("accident %s: %w", a.ID, err)
			}
			lat, lng := coords(a.Location)
			return []any{
				a.ID, formatTime(start), lat, lng,
				nullString(a, domain.FieldWeatherCondition),
				nullFloat(a, domain.FieldPrecipitation),
				nullFloat(a, domain.FieldTemperature),
				nullFloat(a, domain.FieldHumidity),
			}, nil
		})
}

// InsertEvents upserts weather events in one transaction.
func (s *Store) InsertEvents(ctx context.Context, events []domain.WeatherEvent) error {
	return s.inTx(ctx, `
		INSERT OR REPLACE INTO weather_events (id, type, severity, start_time, end_time, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(events), func(i int) ([]any, error) {
			ev := events[i]
			start, err := ev.StartTime.Resolve()
			if err != nil {
				return nil, fmt.Errorf("event %s start: %w", ev.ID, err)
			}
			end, err := ev.EndTime.Resolve()
			if err != nil {
				return nil, fmt.Errorf("event %s end: %w", ev.ID, err)
			}
			lat, lng := coords(ev.Location)
			return []any{ev.ID, ev.Type, ev.Severity, formatTime(start), formatTime(end), lat, lng}, nil
		})
}

func (s *Store) inTx(ctx context.Context, query string, n int, args func(int) ([]any, error)) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range n {
		a, err := args(i)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, a...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func location(lat, lng sql.NullFloat64) *domain.Geo {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &domain.Geo{Lat: lat.Float64, Lng: lng.Float64}
}

func coords(g *domain.Geo) (sql.NullFloat64, sql.NullFloat64) {
	if g == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: g.Lat, Valid: true}, sql.NullFloat64{Float64: g.Lng, Valid: true}
}

func setFloat(attrs map[string]any, field string, v sql.NullFloat64) {
	if v.Valid {
		attrs[field] = v.Float64
	}
}

func nullString(a domain.Accident, field string) sql.NullString {
	v, ok := a.Attribute(field)
	if !ok {
		return sql.NullString{}
	}
	s, ok := v.(string)
	return sql.NullString{String: s, Valid: ok}
}

func nullFloat(a domain.Accident, field string) sql.NullFloat64 {
	v, ok := a.Attribute(field)
	if !ok {
		return sql.NullFloat64{}
	}
	switch x := v.(type) {
	case float64:
		return sql.NullFloat64{Float64: x, Valid: true}
	case int:
		return sql.NullFloat64{Float64: float64(x), Valid: true}
	default:
		return sql.NullFloat64{}
	}
}
