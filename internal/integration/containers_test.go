//go:build integration

package integration_test

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"

	"github.com/couchcryptid/accident-weather-analysis/internal/config"
)

const neo4jPassword = "integration-secret"

func testConfig() *config.Config {
	return &config.Config{
		MongoDatabase:    "traffic",
		MongoCollection:  "accidents",
		MongoTimeLayout:  time.DateTime,
		Neo4jUser:        "neo4j",
		Neo4jPassword:    neo4jPassword,
		StoreTimeout:     30 * time.Second,
		KafkaReportTopic: "test-reports",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()
	c, err := tcmongo.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err, "start mongodb container")
	uri, err := c.ConnectionString(ctx)
	require.NoError(t, err)
	return uri
}

func startNeo4j(ctx context.Context, t *testing.T) string {
	t.Helper()
	c, err := tcneo4j.Run(ctx, "neo4j:5", tcneo4j.WithAdminPassword(neo4jPassword))
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err, "start neo4j container")
	uri, err := c.BoltUrl(ctx)
	require.NoError(t, err)
	return uri
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	c, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err, "start kafka container")
	brokers, err := c.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}
