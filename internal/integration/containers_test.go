//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/couchcryptid/crisis-event-etl/internal/geo"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("crisis-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic on the broker via the controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// newTestResolver loads a small gazetteer from generated CSV fixtures.
func newTestResolver(t *testing.T) *geo.Resolver {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"country_centroids.csv": "iso2,iso3,name,lat,lon,population\n" +
			"US,USA,United States,39.8283,-98.5795,331000000\n" +
			"ID,IDN,Indonesia,-0.7893,113.9213,273000000\n",
		"admin1_centroids.csv": "country_iso2,admin1_name,lat,lon\n" +
			"US,California,36.7783,-119.4179\n",
		"cities_light.csv": "country_iso2,admin1_name,city,lat,lon,pop\n" +
			"US,California,Los Angeles,34.0522,-118.2437,3900000\n" +
			"ID,Jakarta,Jakarta,-6.2088,106.8456,10560000\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	return geo.NewResolver(geo.Load(dir, discardLogger()))
}

// mockFeedRecords returns raw feed payloads covering each resolution path.
func mockFeedRecords() []map[string]any {
	return []map[string]any{
		{
			"id":         "EONET_101",
			"source":     "eonet",
			"type":       "Wildfires",
			"title":      "Canyon Fire",
			"lat":        34.1,
			"lon":        -118.3,
			"updated_at": "2026-08-12T09:30:00Z",
		},
		{
			"source":       "reliefweb",
			"type":         "Flood",
			"title":        "Flooding in Jakarta",
			"severity":     6.5,
			"country_code": "ID",
			"city":         "Jakarta",
			"updated_at":   "2026-08-12T08:00:00Z",
		},
		{
			"source":     "social",
			"title":      "Power outage reports",
			"country":    "usa",
			"updated_at": "2026-08-12T07:45:00Z",
		},
	}
}
