// Package store persists thread records in a keyed durable table with
// upsert, point lookup, and full-scan listing.
package store

import (
	"context"
	"errors"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

var (
	// ErrNotFound is returned by Get when no record exists for the id.
	ErrNotFound = errors.New("thread record not found")
	// ErrInvalidInput marks unusable constructor arguments.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the durable table of thread records, keyed by thread id.
// Upsert is the only mutation path: it writes the full row atomically
// and stamps UpdatedAt. List returns records ordered by
// LastMessageTimestamp descending.
type Store interface {
	Upsert(ctx context.Context, record *models.ThreadRecord) error
	Get(ctx context.Context, id string) (*models.ThreadRecord, error)
	List(ctx context.Context) ([]models.ThreadRecord, error)
	Close() error
}
