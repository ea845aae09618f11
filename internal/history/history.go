// Package history records finalized health reports in SQLite.
//
// The store is append-only trend data for the performance view. Health
// reports are always recomputed fresh; nothing here is read back during a
// health check.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/geoclue-exporter/geodiag/internal/health"
	"github.com/geoclue-exporter/geodiag/internal/probe"
)

const schema = `
CREATE TABLE IF NOT EXISTS health_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	overall TEXT NOT NULL,
	probes TEXT NOT NULL,
	generated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_reports_generated_at
	ON health_reports (generated_at DESC);
`

// Store wraps the SQLite history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single connection for writes
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() {
	s.db.Close()
}

// Record appends a finalized report.
func (s *Store) Record(ctx context.Context, report *health.Report) error {
	probes, err := json.Marshal(report.Probes)
	if err != nil {
		return fmt.Errorf("encode probes: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO health_reports (overall, probes, generated_at)
		VALUES (?, ?, ?)
	`, string(report.Overall), string(probes), report.GeneratedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Entry is one stored report, newest first in Recent results.
type Entry struct {
	ID          int64           `json:"id"`
	Overall     health.Overall  `json:"overall_status"`
	Probes      []probe.Outcome `json:"probes"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Recent returns up to limit reports, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, overall, probes, generated_at
		FROM health_reports
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var overall, probesJSON, generatedAt string
		if err := rows.Scan(&e.ID, &overall, &probesJSON, &generatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		e.Overall = health.Overall(overall)
		if err := json.Unmarshal([]byte(probesJSON), &e.Probes); err != nil {
			return nil, fmt.Errorf("decode probes: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, generatedAt); err == nil {
			e.GeneratedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
