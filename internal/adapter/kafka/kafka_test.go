package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/crisis-event-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	processed := time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)
	geo := domain.Geo{Lat: 34.05, Lon: -118.24}
	event := domain.CrisisEvent{
		ID:        "eonet-abc123",
		Source:    "eonet",
		EventType: "Wildfires",
		Title:     "Canyon Fire",
		Severity:  7.0,
		Location: domain.ResolvedLocation{
			Geo:        &geo,
			Method:     domain.MethodCityGeocode,
			Confidence: 0.8,
		},
		RawPayload:  []byte(`{"original":"payload"}`),
		ProcessedAt: processed,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("eonet-abc123"), msg.Key)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "eonet", headers["source"])
	assert.Equal(t, "city_geocode", headers["resolve_method"])
	assert.Equal(t, "2026-08-12T09:30:00Z", headers["processed_at"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Canyon Fire", decoded["title"])
	assert.NotContains(t, decoded, "RawPayload", "raw payload stays out of the sink message")
}

func TestMapMessageToRawEvent(t *testing.T) {
	r := &Reader{}
	msg := kafkago.Message{
		Topic:     "raw-crisis-events",
		Partition: 2,
		Offset:    41,
		Key:       []byte("evt-1"),
		Value:     []byte(`{"source":"reliefweb"}`),
		Time:      time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC),
		Headers: []kafkago.Header{
			{Key: "feed", Value: []byte("reliefweb")},
		},
	}

	raw := r.mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("evt-1"), raw.Key)
	assert.Equal(t, []byte(`{"source":"reliefweb"}`), raw.Value)
	assert.Equal(t, "raw-crisis-events", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(41), raw.Offset)
	assert.Equal(t, msg.Time, raw.Timestamp)
	assert.Equal(t, map[string]string{"feed": "reliefweb"}, raw.Headers)
	assert.NotNil(t, raw.Commit)
}
