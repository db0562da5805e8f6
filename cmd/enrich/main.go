// Command enrich runs the location-resolution pipeline offline: it reads a
// JSON array of raw feed records, resolves each against a local gazetteer
// directory, and writes the enriched events as JSON. Useful for backfills and
// for inspecting resolver behavior on captured feed data without Kafka.
//
// Usage:
//
//	go run ./cmd/enrich \
//	  -data-dir data/geo \
//	  -in captures/reliefweb_2026-08.json \
//	  -out enriched.json \
//	  -db crisis.db
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/crisis-event-etl/internal/domain"
	"github.com/couchcryptid/crisis-event-etl/internal/geo"
	"github.com/couchcryptid/crisis-event-etl/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "data/geo", "gazetteer CSV directory")
	inPath := flag.String("in", "", "input JSON file (array of raw feed records)")
	outPath := flag.String("out", "", "output JSON file (enriched events); defaults to stdout")
	dbPath := flag.String("db", "", "optional SQLite event store to upsert into")
	flag.Parse()

	if *inPath == "" {
		return fmt.Errorf("-in is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	data, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	gaz := geo.Load(*dataDir, logger)
	resolver := geo.NewResolver(gaz)

	now := time.Now().UTC()
	events := make([]domain.CrisisEvent, 0, len(records))
	counts := map[domain.ResolveMethod]int{}
	for i, rec := range records {
		event, err := domain.ParseRawEvent(domain.RawEvent{Value: rec, Timestamp: now})
		if err != nil {
			logger.Warn("skipping unparsable record", "index", i, "error", err)
			continue
		}
		event = domain.EnrichCrisisEvent(event)
		event = domain.ResolveEventLocation(event, resolver)
		counts[event.Location.Method]++
		events = append(events, event)
	}

	out, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if *outPath == "" {
		fmt.Println(string(out))
	} else if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if *dbPath != "" {
		ctx := context.Background()
		store, err := storage.Open(ctx, *dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.LoadBatch(ctx, events); err != nil {
			return err
		}
		logger.Info("events upserted", "path", *dbPath, "count", len(events))
	}

	for method, n := range counts {
		logger.Info("resolution outcome", "method", string(method), "count", n)
	}
	return nil
}
