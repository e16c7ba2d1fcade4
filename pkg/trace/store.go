// Package trace persists the append-only run trace: one event per phase
// transition, degraded source, conflict summary and validation outcome.
// The store is diagnostic; losing it never affects pipeline output.
package trace

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// EventType classifies a trace event.
type EventType string

const (
	EventRunStarted      EventType = "run.started"
	EventPhaseEntered    EventType = "run.phase_entered"
	EventSourceDegraded  EventType = "run.source_degraded"
	EventConflictSummary EventType = "run.conflict_summary"
	EventValidation      EventType = "run.validation"
	EventRunCompleted    EventType = "run.completed"
	EventRunFailed       EventType = "run.failed"
)

// Event is one trace record. Payload is free-form JSON.
type Event struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Type    EventType       `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// NewStore initializes the SQLite database connection. WAL mode is
// enabled for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the append-only trace table if it doesn't exist.
func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS run_events (
		event_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		ts_event DATETIME NOT NULL,
		ts_ingest DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		payload JSON
	);

	CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_events_ts ON run_events(ts_ingest);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create run_events table: %w", err)
	}
	return nil
}

// Append records one event. The event id is assigned here if unset.
func (s *Store) Append(e Event) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload := e.Payload
	if payload == nil {
		payload = json.RawMessage("null")
	}
	_, err := s.db.Exec(
		`INSERT INTO run_events (event_id, run_id, event_type, ts_event, payload) VALUES (?, ?, ?, ?, ?)`,
		e.EventID, e.RunID, string(e.Type), e.At, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to append run event: %w", err)
	}
	return nil
}

// Recent returns up to limit events in reverse ingestion order.
func (s *Store) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT event_id, run_id, event_type, ts_event, payload FROM run_events ORDER BY ts_ingest DESC, event_id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ByRun returns all events for one run in ingestion order.
func (s *Store) ByRun(runID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT event_id, run_id, event_type, ts_event, payload FROM run_events WHERE run_id = ? ORDER BY ts_ingest ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var et string
		var payload sql.NullString
		if err := rows.Scan(&e.EventID, &e.RunID, &et, &e.At, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan run event: %w", err)
		}
		e.Type = EventType(et)
		if payload.Valid && payload.String != "null" {
			e.Payload = json.RawMessage(payload.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
