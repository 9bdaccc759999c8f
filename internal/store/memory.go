package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

// MemoryStore holds records in process memory. Used by tests and the
// memory:// DSN.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.ThreadRecord
	now     func() int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[string]models.ThreadRecord{},
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

func (s *MemoryStore) Upsert(_ context.Context, record *models.ThreadRecord) error {
	if record == nil || strings.TrimSpace(record.ID) == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record.UpdatedAt = s.now()
	clone := *record
	clone.Transcript = append([]models.TranscriptMessage(nil), record.Transcript...)
	s.records[record.ID] = clone
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.ThreadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := record
	clone.Transcript = append([]models.TranscriptMessage(nil), record.Transcript...)
	return &clone, nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.ThreadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]models.ThreadRecord, 0, len(s.records))
	for _, record := range s.records {
		clone := record
		clone.Transcript = append([]models.TranscriptMessage(nil), record.Transcript...)
		records = append(records, clone)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastMessageTimestamp > records[j].LastMessageTimestamp
	})
	return records, nil
}

func (s *MemoryStore) Close() error { return nil }
