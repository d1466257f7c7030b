package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ConnectDB opens the local preference database, creating its directory
// and file when missing
func ConnectDB(dbPath string) (*sqlx.DB, error) {
	// Expand tilde to home directory if present
	if strings.HasPrefix(dbPath, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = homeDir + dbPath[1:]
	}

	if dbPath != ":memory:" {
		dbDir := filepath.Dir(dbPath)
		if dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open preferences %s: %w", dbPath, err)
	}
	// One connection, so ":memory:" databases are shared across calls
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open preferences %s: %w", dbPath, err)
	}
	return db, nil
}

// EnsureSchema creates the key/value table if it doesn't exist
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			lastmodified TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}
