package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseRawEvent deserializes a RawEvent's value into a CrisisEvent.
// It expects the flat JSON produced by the collector services. Field-level
// problems (coordinates that fail to parse, a bad bbox, a garbled timestamp)
// are absorbed: the field is simply absent from the resulting signal. Only a
// payload that is not valid JSON is an error.
func ParseRawEvent(raw RawEvent) (CrisisEvent, error) {
	var rec RawFeedRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return CrisisEvent{}, fmt.Errorf("parse raw event: %w", err)
	}

	signal := LocationSignal{
		Lat:         coerceCoordinate(rec.Lat),
		Lon:         coerceCoordinate(rec.Lon),
		BBox:        coerceBBox(rec.BBox),
		CountryCode: strings.TrimSpace(rec.CountryCode),
		Country:     strings.TrimSpace(rec.Country),
		Admin1:      strings.TrimSpace(rec.Admin1),
		City:        strings.TrimSpace(rec.City),
		PlaceName:   strings.TrimSpace(rec.PlaceName),
	}

	return CrisisEvent{
		ID:          strings.TrimSpace(rec.ID),
		Source:      strings.TrimSpace(rec.Source),
		EventType:   strings.TrimSpace(rec.Type),
		Title:       strings.TrimSpace(rec.Title),
		Description: rec.Description,
		Severity:    coerceFloat(rec.Severity),
		UpdatedAt:   parseUpdatedAt(rec.UpdatedAt, raw.Timestamp),
		Signal:      signal,
		RawPayload:  raw.Value,
	}, nil
}

// coerceCoordinate accepts the value shapes the feeds actually send: a JSON
// number, a numeric string, or nothing. Anything else is treated as absent.
func coerceCoordinate(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// coerceBBox converts a raw bbox into floats. A box with the wrong arity or a
// non-numeric member is dropped whole; the resolver treats a partial box as no
// box at all.
func coerceBBox(raw []any) []float64 {
	if len(raw) != 4 {
		return nil
	}
	box := make([]float64, 4)
	for i, v := range raw {
		f := coerceCoordinate(v)
		if f == nil {
			return nil
		}
		box[i] = *f
	}
	return box
}

func coerceFloat(v any) float64 {
	if f := coerceCoordinate(v); f != nil {
		return *f
	}
	return 0
}

// parseUpdatedAt parses the feed timestamp, falling back to the Kafka message
// timestamp when the field is missing or malformed.
func parseUpdatedAt(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

// EnrichCrisisEvent fills derived fields on a parsed event: a deterministic ID
// when the feed omitted one, a default severity by category, the hourly time
// bucket, and the processing timestamp.
func EnrichCrisisEvent(event CrisisEvent) CrisisEvent {
	if event.ID == "" {
		event.ID = generateID(event.Source, event.Title, event.UpdatedAt)
	}
	if event.Severity == 0 {
		event.Severity = defaultSeverity(event.EventType)
	}
	event.TimeBucket = deriveTimeBucket(event.UpdatedAt)
	event.ProcessedAt = clock.Now()
	return event
}

// generateID produces a deterministic ID from the event's key fields.
// Deterministic IDs enable idempotent upserts (INSERT OR REPLACE keyed by id)
// and replay safety: reprocessing the same raw event produces the same ID.
func generateID(source, title string, updatedAt time.Time) string {
	input := fmt.Sprintf("%s|%s|%s", source, title, updatedAt.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if source == "" {
		return short
	}
	return strings.ToLower(source) + "-" + short
}

// defaultSeverity supplies the baseline severity the collectors use when a
// feed carries no magnitude of its own: elevated for fast-moving hazard
// categories, midpoint for everything else.
func defaultSeverity(eventType string) float64 {
	switch eventType {
	case "Wildfires", "Severe Storms":
		return 7.0
	default:
		return 5.0
	}
}

// deriveTimeBucket truncates the event time to the hour in UTC.
// Returns zero time if the input is zero.
func deriveTimeBucket(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Hour)
}

// ResolveEventLocation attaches a resolved location to an event. A nil
// resolver leaves the event unresolved rather than failing, mirroring how the
// pipeline degrades when reference data never loaded.
func ResolveEventLocation(event CrisisEvent, resolver LocationResolver) CrisisEvent {
	if resolver == nil {
		event.Location = Unresolved("location resolver unavailable")
		return event
	}
	event.Location = resolver.Resolve(event.Signal)
	return event
}
