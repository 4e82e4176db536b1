package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"fmtd/internal/config"
)

// Record captures one format invocation.
type Record struct {
	ID           int64
	InstanceID   string
	FileName     string
	Status       string
	Duration     time.Duration
	ErrorMessage string
	CreatedAt    time.Time
}

// Summary aggregates the retained history.
type Summary struct {
	Total    int
	ByStatus map[string]int
	LastAt   time.Time
}

// Store persists invocation history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	keep int
}

// Open initializes or connects to the history database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
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

	store := &Store{db: db, path: dbPath, keep: cfg.History.Keep}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts one invocation and prunes rows beyond the retention limit.
func (s *Store) Record(ctx context.Context, rec Record) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO format_history (
            instance_id, file_name, status, duration_ms, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.InstanceID,
		rec.FileName,
		rec.Status,
		rec.Duration.Milliseconds(),
		nullableString(rec.ErrorMessage),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}

	if s.keep > 0 {
		_, err = s.db.ExecContext(
			ctx,
			`DELETE FROM format_history WHERE id NOT IN (
                SELECT id FROM format_history ORDER BY id DESC LIMIT ?
            )`,
			s.keep,
		)
		if err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = s.keep
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, instance_id, file_name, status, duration_ms, error_message, created_at
         FROM format_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			durationMS int64
			errMsg     sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&rec.ID, &rec.InstanceID, &rec.FileName, &rec.Status, &durationMS, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.ErrorMessage = errMsg.String
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summarize aggregates retained history for status output.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	summary := Summary{ByStatus: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM format_history GROUP BY status`)
	if err != nil {
		return summary, fmt.Errorf("summarize history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return summary, fmt.Errorf("scan history summary: %w", err)
		}
		summary.ByStatus[status] = count
		summary.Total += count
	}
	if err := rows.Err(); err != nil {
		return summary, err
	}

	var lastAt sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM format_history`).Scan(&lastAt); err != nil {
		return summary, fmt.Errorf("query last history entry: %w", err)
	}
	if lastAt.Valid {
		if ts, parseErr := time.Parse(time.RFC3339Nano, lastAt.String); parseErr == nil {
			summary.LastAt = ts
		}
	}
	return summary, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
