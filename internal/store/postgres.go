package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

const postgresOperationTimeout = 5 * time.Second

// PostgresStore keeps thread records in a Postgres table for
// deployments that already run a database server.
type PostgresStore struct {
	db  *sql.DB
	now func() int64
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrInvalidInput
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &PostgresStore{db: db, now: func() int64 { return time.Now().UnixMilli() }}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS thread_summaries (
			snowflake TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			transcript_json TEXT NOT NULL,
			ai_summary TEXT NOT NULL,
			last_message_timestamp BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`)
	return err
}

func (s *PostgresStore) Upsert(ctx context.Context, record *models.ThreadRecord) error {
	if record == nil || strings.TrimSpace(record.ID) == "" {
		return ErrInvalidInput
	}
	transcriptJSON, err := json.Marshal(record.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	updatedAt := s.now()
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO thread_summaries (
			snowflake, name, transcript_json, ai_summary, last_message_timestamp, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (snowflake) DO UPDATE SET
			name = EXCLUDED.name,
			transcript_json = EXCLUDED.transcript_json,
			ai_summary = EXCLUDED.ai_summary,
			last_message_timestamp = EXCLUDED.last_message_timestamp,
			updated_at = EXCLUDED.updated_at`,
		record.ID, record.Name, string(transcriptJSON), record.Summary,
		record.LastMessageTimestamp, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert thread %s: %w", record.ID, err)
	}
	record.UpdatedAt = updatedAt
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.ThreadRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, `
		SELECT snowflake, name, transcript_json, ai_summary, last_message_timestamp, updated_at
		FROM thread_summaries WHERE snowflake = $1`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.ThreadRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		SELECT snowflake, name, transcript_json, ai_summary, last_message_timestamp, updated_at
		FROM thread_summaries ORDER BY last_message_timestamp DESC`)
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

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
