package db

import (
	"path/filepath"
	"testing"
)

// Helper functions for creating pointer values
func floatPtr(f float64) *float64 {
	return &f
}

// setupTestDB opens a migrated database in a per-test temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "particles.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
