// Package cache provides a SQLite-backed cache of Todoist snapshots.
// The cache lives in <cache dir>/reportist.db and lets reports run offline
// from the last fetched project tree and completed tasks.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBFileName is the cache database file name.
const DBFileName = "reportist.db"

// ErrNotCached is returned when offline data was never fetched.
var ErrNotCached = errors.New("not in cache")

// Cache manages the reportist.db SQLite database.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database in dir.
// It initializes the schema if the database is new.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, DBFileName)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	cache := &Cache{db: db, dbPath: dbPath}

	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return cache, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Clear removes all cached data.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM projects; DELETE FROM completed_tasks; DELETE FROM completed_fetches; DELETE FROM sync_state;")
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Stats summarizes the cache contents.
type Stats struct {
	Projects        int64
	CompletedTasks  int64
	FetchedProjects int64
	ProjectsSynced  string
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	var stats Stats

	if err := c.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&stats.Projects); err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	if err := c.db.QueryRow("SELECT COUNT(*) FROM completed_tasks").Scan(&stats.CompletedTasks); err != nil {
		return nil, fmt.Errorf("count completed tasks: %w", err)
	}
	if err := c.db.QueryRow("SELECT COUNT(*) FROM completed_fetches").Scan(&stats.FetchedProjects); err != nil {
		return nil, fmt.Errorf("count fetches: %w", err)
	}

	err := c.db.QueryRow("SELECT value FROM sync_state WHERE key = ?", keyProjectsSynced).Scan(&stats.ProjectsSynced)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read sync state: %w", err)
	}

	return &stats, nil
}
