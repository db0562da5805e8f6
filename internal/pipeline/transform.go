package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/crisis-event-etl/internal/domain"
	"github.com/couchcryptid/crisis-event-etl/internal/observability"
)

// CrisisTransformer implements Transformer: parse, enrich, then resolve the
// event's location against the shared gazetteer. Pass a nil resolver to leave
// every event unresolved (reference data never loaded).
type CrisisTransformer struct {
	resolver domain.LocationResolver
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates a CrisisTransformer.
func NewTransformer(resolver domain.LocationResolver, metrics *observability.Metrics, logger *slog.Logger) *CrisisTransformer {
	return &CrisisTransformer{
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *CrisisTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.CrisisEvent, error) {
	event, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.CrisisEvent{}, err
	}

	event = domain.EnrichCrisisEvent(event)
	event = domain.ResolveEventLocation(event, t.resolver)

	t.metrics.ResolveOutcomes.WithLabelValues(string(event.Location.Method)).Inc()
	if event.Location.Method == domain.MethodNone && !event.Signal.Empty() {
		t.logger.Debug("location unresolved",
			"event_id", event.ID,
			"source", event.Source,
			"notes", event.Location.Notes,
		)
	}

	return event, nil
}
