// Package storagetest opens throwaway SQLite databases with the schema applied.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/semanticallynull/tripstats-backend/internal/storage"
)

// Open returns a fresh database in t's temp dir. It is closed when the test ends.
func Open(t *testing.T) *storage.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tripstats.db")
	db, err := storage.Open(context.Background(), storage.SQLite, path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db
}

// Exec runs a statement with ? placeholders, failing the test on error.
func Exec(t *testing.T, db *storage.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(db.Rebind(query), args...); err != nil {
		t.Fatalf("failed to exec %q: %v", query, err)
	}
}
