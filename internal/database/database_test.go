package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wantsync.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close() //nolint:errcheck

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Second run is a no-op.
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate again: %v", err)
	}

	for _, table := range []string{"settings", "import_runs", "import_lines"} {
		var name string
		err := db.QueryRowContext(context.Background(),
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close() //nolint:errcheck
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
}
