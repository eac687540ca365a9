package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database; tests and --no-history
// runs use it.
const MemoryPath = ":memory:"

// Open opens a SQLite database at the given path with WAL mode enabled.
// It creates the parent directory if it does not exist.
func Open(dbPath string) (*sql.DB, error) {
	if dbPath != MemoryPath {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single writer connection for SQLite; also keeps an in-memory
	// database alive for the life of the handle.
	db.SetMaxOpenConns(1)

	return db, nil
}
