// Package testing provides database helpers, fixtures and fakes shared by the
// foundry test suites.
package testing

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/aristath/foundry/internal/database"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// NewTestDB creates a temp-file SQLite database with the embedded schema for name applied.
// Returns the database instance and a cleanup function that closes and removes it.
// The cleanup function is idempotent and can be called multiple times safely.
//
// Supported schema names:
//   - "foundry" - applies foundry_schema.sql
//   - "cache" - applies cache_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// Temporary files rather than :memory: so every pooled connection sees the same data
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(tmpPath + suffix)
		}
	}
}

// NewMemoryDB opens a private in-memory database through the cgo sqlite3 driver
// and applies the named schema. The pool is pinned to one connection because
// each :memory: connection is its own database.
func NewMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := database.Schema(name)
	if err != nil {
		t.Fatalf("Failed to load schema %s: %v", name, err)
	}
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to apply schema %s: %v", name, err)
	}
	return db
}
