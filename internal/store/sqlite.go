package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

// SQLiteStore keeps thread records in a local SQLite file. The schema
// matches the original snails.db layout, so existing databases keep
// working.
type SQLiteStore struct {
	db  *sql.DB
	now func() int64
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "snails.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLiteStore{db: db, now: func() int64 { return time.Now().UnixMilli() }}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS thread_summaries (
		snowflake TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		transcriptJson TEXT NOT NULL,
		aiSummary TEXT NOT NULL,
		lastMessageTimestamp INTEGER NOT NULL,
		updatedAt INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_thread_summaries_last_message
		ON thread_summaries(lastMessageTimestamp);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) Upsert(ctx context.Context, record *models.ThreadRecord) error {
	if record == nil || strings.TrimSpace(record.ID) == "" {
		return ErrInvalidInput
	}
	transcriptJSON, err := json.Marshal(record.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	updatedAt := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO thread_summaries (
			snowflake, name, transcriptJson, aiSummary, lastMessageTimestamp, updatedAt
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(snowflake) DO UPDATE SET
			name = excluded.name,
			transcriptJson = excluded.transcriptJson,
			aiSummary = excluded.aiSummary,
			lastMessageTimestamp = excluded.lastMessageTimestamp,
			updatedAt = excluded.updatedAt`,
		record.ID, record.Name, string(transcriptJSON), record.Summary,
		record.LastMessageTimestamp, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert thread %s: %w", record.ID, err)
	}
	record.UpdatedAt = updatedAt
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.ThreadRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snowflake, name, transcriptJson, aiSummary, lastMessageTimestamp, updatedAt
		FROM thread_summaries WHERE snowflake = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.ThreadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT snowflake, name, transcriptJson, aiSummary, lastMessageTimestamp, updatedAt
		FROM thread_summaries ORDER BY lastMessageTimestamp DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ThreadRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ThreadRecord, error) {
	var record models.ThreadRecord
	var transcriptJSON string
	if err := row.Scan(&record.ID, &record.Name, &transcriptJSON, &record.Summary,
		&record.LastMessageTimestamp, &record.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(transcriptJSON), &record.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshal transcript for %s: %w", record.ID, err)
	}
	return &record, nil
}
