// Package testing provides testing utilities and helpers for the rebalancer project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/menabung/rebalancer/internal/database"
)

// NewTestDB creates a temp-file SQLite database with its embedded schema
// applied. The database is closed when the test ends.
//
// Supported schema names:
//   - "store" - applies store_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}
	return db
}
