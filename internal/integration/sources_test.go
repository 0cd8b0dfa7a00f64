//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	kafkaadapter "github.com/couchcryptid/accident-weather-analysis/internal/adapter/kafka"
	mongoadapter "github.com/couchcryptid/accident-weather-analysis/internal/adapter/mongo"
	neo4jadapter "github.com/couchcryptid/accident-weather-analysis/internal/adapter/neo4j"
	"github.com/couchcryptid/accident-weather-analysis/internal/analysis"
	"github.com/couchcryptid/accident-weather-analysis/internal/config"
	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
	"github.com/couchcryptid/accident-weather-analysis/internal/match"
	"github.com/couchcryptid/accident-weather-analysis/internal/observability"
	"github.com/couchcryptid/accident-weather-analysis/internal/report"
)

func seedMongo(ctx context.Context, t *testing.T, cfg *config.Config) {
	t.Helper()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(ctx) }()

	_, err = client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection).InsertMany(ctx, []any{
		bson.M{"ID": "A-1", "Start_Time": "2020-01-15 10:00:00", "Start_Lat": 40.0, "Start_Lng": -75.0,
			"Weather_Condition": "Light Rain", "Temperature(F)": 38.0},
		bson.M{"ID": "A-2", "Start_Time": time.Date(2020, 1, 20, 9, 0, 0, 0, time.UTC), "Start_Lat": 41.0, "Start_Lng": -74.0,
			"Weather_Condition": "Clear"},
		bson.M{"ID": "A-3", "Start_Time": "2020-02-01 00:00:00", "Start_Lat": 40.0, "Start_Lng": -75.0},
	})
	require.NoError(t, err)
}

func seedNeo4j(ctx context.Context, t *testing.T, uri string) {
	t.Helper()
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth("neo4j", neo4jPassword, ""))
	require.NoError(t, err)
	defer driver.Close(ctx)

	_, err = neo4j.ExecuteQuery(ctx, driver, `
		UNWIND $events AS ev
		CREATE (:Evento {
			EventId: ev.id, Type: ev.type, Severity: ev.severity,
			StartTime: datetime(ev.start), EndTime: datetime(ev.end),
			LocationLat: ev.lat, LocationLng: ev.lng
		})`,
		map[string]any{"events": []map[string]any{
			{"id": "W-1", "type": "Rain", "severity": "Light", "start": "2020-01-15T08:00:00Z", "end": "2020-01-15T12:00:00Z", "lat": 40.05, "lng": -75.05},
			{"id": "W-2", "type": "Snow", "severity": "Heavy", "start": "2019-12-31T20:00:00Z", "end": "2020-01-01T04:00:00Z", "lat": 41.0, "lng": -74.0},
			{"id": "W-3", "type": "Fog", "severity": "Moderate", "start": "2020-03-01T08:00:00Z", "end": "2020-03-01T09:00:00Z", "lat": 40.0, "lng": -75.0},
		}},
		neo4j.EagerResultTransformer)
	require.NoError(t, err)
}

// Runs the event-impact analysis against real MongoDB and Neo4j containers.
func TestEventImpact_MongoNeo4j(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	cfg := testConfig()
	cfg.MongoURI = startMongo(ctx, t)
	cfg.Neo4jURI = startNeo4j(ctx, t)
	seedMongo(ctx, t, cfg)
	seedNeo4j(ctx, t, cfg.Neo4jURI)

	accidents, err := mongoadapter.Connect(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer accidents.Close(ctx)
	events, err := neo4jadapter.Connect(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer events.Close(ctx)

	january := domain.MonthWindow(2020, time.January)

	got, err := accidents.Accidents(ctx, january)
	require.NoError(t, err)
	require.Len(t, got, 2, "string and date Start_Time values within January")
	assert.Equal(t, "A-1", got[0].ID)
	assert.Equal(t, "A-2", got[1].ID)

	evs, err := events.Events(ctx, january)
	require.NoError(t, err)
	ids := make([]string, len(evs))
	for i, ev := range evs {
		ids[i] = ev.ID
	}
	assert.ElementsMatch(t, []string{"W-1", "W-2"}, ids, "events overlapping January")

	metrics := observability.NewMetricsForTesting()
	engine, err := match.NewEngine(match.Options{MaxDistanceKM: 50, Logger: testLogger(), Metrics: metrics})
	require.NoError(t, err)
	svc := analysis.New(accidents, events, engine, testLogger(), metrics, 0)

	require.NoError(t, svc.CheckReadiness(ctx))
	rep, err := svc.EventImpact(ctx, analysis.EventQuery{Window: january})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Total)
	assert.False(t, rep.Partial)
}

// Publishes a report through the Kafka sink and reads it back.
func TestKafkaWriter_PublishesReport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	cfg := testConfig()
	cfg.KafkaBrokers = []string{broker}
	createTopic(t, broker, cfg.KafkaReportTopic)

	w := kafkaadapter.NewWriter(cfg, testLogger())
	defer w.Close()

	rep := report.New(report.KindMonthly, "Monthly accidents", "2020")
	rep.Total = 3
	require.NoError(t, w.WriteReport(ctx, rep))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     cfg.KafkaReportTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)

	assert.Equal(t, rep.ID, string(msg.Key))
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, string(report.KindMonthly), headers["kind"])
	assert.Equal(t, "2020", headers["period"])

	var got report.Report
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, rep.ID, got.ID)
	assert.Equal(t, 3, got.Total)
}
