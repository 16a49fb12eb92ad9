// Package history keeps a ledger of finished builds in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// Entry is one finished build.
type Entry struct {
	ID            int64
	RunID         string
	Started       time.Time
	Duration      time.Duration
	Outcome       string
	FilesRendered int
	LiteralFiles  int
	PagesWritten  int
	BodiesWritten int
	BodiesSkipped int
	Stages        map[string]time.Duration
	Error         string
}

// Store persists build entries.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the ledger at dbPath. Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.HistoryError("failed to open history database").
			WithCause(err).
			WithContext(ferrors.KeyPath, dbPath).
			Build()
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.HistoryError("failed to initialize history schema").
			WithCause(err).
			WithContext(ferrors.KeyPath, dbPath).
			Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		files_rendered INTEGER NOT NULL,
		literal_files INTEGER NOT NULL,
		pages_written INTEGER NOT NULL,
		bodies_written INTEGER NOT NULL,
		bodies_skipped INTEGER NOT NULL,
		stages TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores e.
func (s *Store) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stages, err := json.Marshal(stageMillis(e.Stages))
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (run_id, started, duration_ms, outcome, files_rendered, literal_files,
			pages_written, bodies_written, bodies_skipped, stages, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Started.UnixMilli(), e.Duration.Milliseconds(), e.Outcome, e.FilesRendered, e.LiteralFiles,
		e.PagesWritten, e.BodiesWritten, e.BodiesSkipped, string(stages), e.Error,
	)
	if err != nil {
		return ferrors.HistoryError("failed to record build").
			WithCause(err).
			WithContext("run_id", e.RunID).
			Build()
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, started, duration_ms, outcome, files_rendered, literal_files,
			pages_written, bodies_written, bodies_skipped, stages, error
		FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, ferrors.HistoryError("failed to query builds").WithCause(err).Build()
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                   Entry
			started, durationMS int64
			stages, errText     sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RunID, &started, &durationMS, &e.Outcome, &e.FilesRendered, &e.LiteralFiles,
			&e.PagesWritten, &e.BodiesWritten, &e.BodiesSkipped, &stages, &errText); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		e.Started = time.UnixMilli(started)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Error = errText.String
		if stages.Valid && stages.String != "" {
			var ms map[string]int64
			if err := json.Unmarshal([]byte(stages.String), &ms); err != nil {
				return nil, fmt.Errorf("unmarshal stages: %w", err)
			}
			e.Stages = make(map[string]time.Duration, len(ms))
			for k, v := range ms {
				e.Stages[k] = time.Duration(v) * time.Millisecond
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func stageMillis(stages map[string]time.Duration) map[string]int64 {
	out := make(map[string]int64, len(stages))
	for k, v := range stages {
		out[k] = v.Milliseconds()
	}
	return out
}
