package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"veld/internal/config"
)

// Store persists a journal of delivered maintenance work backed by SQLite.
// The worker records every delivered deferred event; the CLI reads recent
// history back out.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS deliveries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    object_refs INTEGER NOT NULL DEFAULT 0,
    code_refs INTEGER NOT NULL DEFAULT 0,
    delivered_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deliveries_delivered_at ON deliveries(delivered_at);
`

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.JournalPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Delivery is one recorded event delivery.
type Delivery struct {
	ID          int64
	EventID     string
	Kind        string
	Message     string
	ObjectRefs  int
	CodeRefs    int
	DeliveredAt time.Time
}

// RecordDelivery appends a delivery row.
func (s *Store) RecordDelivery(ctx context.Context, d Delivery) error {
	when := d.DeliveredAt
	if when.IsZero() {
		when = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO deliveries (event_id, kind, message, object_refs, code_refs, delivered_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		d.EventID,
		d.Kind,
		d.Message,
		d.ObjectRefs,
		d.CodeRefs,
		when.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// Recent returns the most recent deliveries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, event_id, kind, message, object_refs, code_refs, delivered_at
         FROM deliveries ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		var deliveredAt string
		if err := rows.Scan(&d.ID, &d.EventID, &d.Kind, &d.Message, &d.ObjectRefs, &d.CodeRefs, &deliveredAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, deliveredAt); parseErr == nil {
			d.DeliveredAt = ts
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the total number of recorded deliveries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deliveries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return count, nil
}
