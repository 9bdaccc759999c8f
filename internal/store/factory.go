package store

import (
	"context"
	"fmt"
	"strings"
)

// BuildFromDSN picks a backend by DSN scheme. An empty DSN or a bare
// file path means the default SQLite store.
func BuildFromDSN(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return NewSQLiteStore(ctx, "")
	}
	scheme := ""
	if idx := strings.Index(dsn, "://"); idx >= 0 {
		scheme = strings.ToLower(dsn[:idx])
	}
	switch scheme {
	case "":
		return NewSQLiteStore(ctx, dsn)
	case "sqlite", "sqlite3", "file":
		return NewSQLiteStore(ctx, dsn[len(scheme)+3:])
	case "memory", "mem", "inmem":
		return NewMemoryStore(), nil
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store scheme: %s", scheme)
	}
}
