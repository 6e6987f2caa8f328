// Package audit records every report mutation in a session journal. The
// journal lives in an in-memory SQLite database: queryable like a real
// store, gone with the session.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vetreport-server/internal/domain"
)

// SQLiteJournal implements domain.Journal on an in-memory SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens the session journal and creates its schema.
func NewSQLiteJournal() (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// A :memory: database exists per connection; the pool must stay at one.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// createSchema creates the journal table and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		entity_kind TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		actor TEXT DEFAULT '',
		title TEXT NOT NULL,
		message TEXT DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_events(entity_kind, entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_events(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Record appends a mutation event to the journal.
func (j *SQLiteJournal) Record(ctx context.Context, event domain.Event) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO audit_events (action, entity_kind, entity_id, actor, title, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(event.Action), string(event.EntityKind), event.EntityID,
		event.Actor, event.Title, event.Message, ts.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEvent scans a row into an Event.
func scanEvent(s scanner) (domain.Event, error) {
	var event domain.Event
	var action, kind, createdAt string

	err := s.Scan(&action, &kind, &event.EntityID, &event.Actor,
		&event.Title, &event.Message, &createdAt)
	if err != nil {
		return domain.Event{}, err
	}

	event.Action = domain.EventAction(action)
	event.EntityKind = domain.EntityKind(kind)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		event.Timestamp = ts
	}
	return event, nil
}

// List returns journal entries newest first, with pagination.
func (j *SQLiteJournal) List(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT action, entity_kind, entity_id, actor, title, message, created_at
		 FROM audit_events ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Count returns the total number of journal entries.
func (j *SQLiteJournal) Count(ctx context.Context) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

// ExportJSON writes all journal entries, oldest first, as a JSON array.
func (j *SQLiteJournal) ExportJSON(ctx context.Context, w io.Writer) error {
	rows, err := j.db.QueryContext(ctx,
		`SELECT action, entity_kind, entity_id, actor, title, message, created_at
		 FROM audit_events ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("failed to export audit events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// Close releases the journal database. The session record is discarded.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
