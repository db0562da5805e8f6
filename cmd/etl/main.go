package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/crisis-event-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/crisis-event-etl/internal/adapter/kafka"
	"github.com/couchcryptid/crisis-event-etl/internal/config"
	"github.com/couchcryptid/crisis-event-etl/internal/domain"
	"github.com/couchcryptid/crisis-event-etl/internal/geo"
	"github.com/couchcryptid/crisis-event-etl/internal/observability"
	"github.com/couchcryptid/crisis-event-etl/internal/pipeline"
	"github.com/couchcryptid/crisis-event-etl/internal/storage"
)

// countingLoader wraps the event store so stored batches feed the
// events_stored_total counter.
type countingLoader struct {
	store   *storage.EventStore
	metrics *observability.Metrics
}

func (c countingLoader) LoadBatch(ctx context.Context, events []domain.CrisisEvent) error {
	if err := c.store.LoadBatch(ctx, events); err != nil {
		return err
	}
	c.metrics.EventsStored.Add(float64(len(events)))
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Build the gazetteer before anything serves: resolution calls must only
	// ever see a fully constructed, immutable index.
	gaz := geo.Load(cfg.GeoDataDir, logger)
	stats := gaz.Stats()
	metrics.GazetteerEntries.WithLabelValues("countries").Set(float64(stats.Countries))
	metrics.GazetteerEntries.WithLabelValues("admin_regions").Set(float64(stats.AdminRegions))
	metrics.GazetteerEntries.WithLabelValues("cities").Set(float64(stats.Cities))
	for table, skipped := range stats.SkippedRows {
		metrics.GazetteerRowsSkipped.WithLabelValues(table).Set(float64(skipped))
	}

	resolver := geo.NewResolver(gaz)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(resolver, metrics, logger)

	// The sink topic always receives enriched events; the local event store is
	// opt-in via EVENT_DB_PATH.
	loader := pipeline.FanoutLoader{writer}
	var store *storage.EventStore
	if cfg.EventDBPath != "" {
		store, err = storage.Open(context.Background(), cfg.EventDBPath)
		if err != nil {
			logger.Error("failed to open event store", "path", cfg.EventDBPath, "error", err)
			os.Exit(1)
		}
		loader = append(loader, countingLoader{store, metrics})
		logger.Info("event store enabled", "path", cfg.EventDBPath)
	} else {
		logger.Info("event store disabled")
	}

	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("event store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
