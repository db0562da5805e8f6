package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/crisis-event-etl/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id             TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	type           TEXT,
	title          TEXT,
	description    TEXT,
	severity       REAL,
	lat            REAL,
	lon            REAL,
	loc_method     TEXT NOT NULL,
	loc_confidence REAL NOT NULL,
	loc_notes      TEXT,
	updated_at     TEXT,
	processed_at   TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_loc_method ON events (loc_method);
`

const upsertSQL = `
INSERT INTO events
	(id, source, type, title, description, severity, lat, lon,
	 loc_method, loc_confidence, loc_notes, updated_at, processed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	source = excluded.source,
	type = excluded.type,
	title = excluded.title,
	description = excluded.description,
	severity = excluded.severity,
	lat = excluded.lat,
	lon = excluded.lon,
	loc_method = excluded.loc_method,
	loc_confidence = excluded.loc_confidence,
	loc_notes = excluded.loc_notes,
	updated_at = excluded.updated_at,
	processed_at = excluded.processed_at
`

// EventStore persists enriched events in an embedded SQLite database, keyed
// by event ID so replays upsert rather than duplicate.
// It implements pipeline.BatchLoader.
type EventStore struct {
	db *sql.DB
}

// StoredEvent is the flattened row shape read back from the store.
type StoredEvent struct {
	ID         string
	Source     string
	EventType  string
	Title      string
	Severity   float64
	Lat        sql.NullFloat64
	Lon        sql.NullFloat64
	Method     domain.ResolveMethod
	Confidence float64
	Notes      string
}

// Open opens (creating if necessary) the event database and applies the schema.
func Open(ctx context.Context, path string) (*EventStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply event store schema: %w", err)
	}
	return &EventStore{db: db}, nil
}

// LoadBatch upserts a batch of enriched events in one transaction.
func (s *EventStore) LoadBatch(ctx context.Context, events []domain.CrisisEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		var lat, lon any
		if e.Location.Geo != nil {
			lat, lon = e.Location.Geo.Lat, e.Location.Geo.Lon
		}
		_, err := stmt.ExecContext(ctx,
			e.ID, e.Source, e.EventType, e.Title, e.Description, e.Severity,
			lat, lon,
			string(e.Location.Method), e.Location.Confidence, e.Location.Notes,
			e.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			e.ProcessedAt.UTC().Format("2006-01-02T15:04:05Z"),
		)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// ReadAll returns every stored event, for the offline tooling and tests.
func (s *EventStore) ReadAll(ctx context.Context) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, type, title, severity, lat, lon,
		       loc_method, loc_confidence, loc_notes
		FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var method string
		if err := rows.Scan(&e.ID, &e.Source, &e.EventType, &e.Title, &e.Severity,
			&e.Lat, &e.Lon, &method, &e.Confidence, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Method = domain.ResolveMethod(method)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *EventStore) Close() error {
	return s.db.Close()
}
