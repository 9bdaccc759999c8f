package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFromDSNMemory(t *testing.T) {
	s, err := BuildFromDSN(context.Background(), "memory://")
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
}

func TestBuildFromDSNSQLitePath(t *testing.T) {
	dir := t.TempDir()
	s, err := BuildFromDSN(context.Background(), "sqlite://"+dir+"/snails.db")
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)
}

func TestBuildFromDSNBarePath(t *testing.T) {
	dir := t.TempDir()
	s, err := BuildFromDSN(context.Background(), dir+"/bare.db")
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)
}

func TestBuildFromDSNUnknownScheme(t *testing.T) {
	_, err := BuildFromDSN(context.Background(), "redis://localhost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store scheme")
}
