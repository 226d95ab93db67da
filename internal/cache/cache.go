// Package cache is a process-wide get/put-with-TTL layer over a small
// SQLite database. Keys are fixed strings chosen by callers; values are
// opaque serialized snapshots. Entries survive restarts, which keeps the
// article index warm across deploys.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

// Cache is safe for concurrent use. Concurrent fills of the same key after
// expiry are collapsed through singleflight; the values are idempotently
// derivable, so last-writer-wins on the store itself is harmless.
type Cache struct {
	db    *sql.DB
	group singleflight.Group
	now   func() time.Time
}

// Open opens (or creates) the cache database in dir. Pass ":memory:" for an
// in-memory cache (used by tests and one-shot CLI runs).
func Open(dir string) (*Cache, error) {
	var dsn string
	if dir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		dsn = filepath.Join(dir, "cache.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging cache database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	c := &Cache{db: db, now: time.Now}
	if err := c.init(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("initializing cache schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the value stored under key, or ok=false if the key is absent
// or its entry has expired.
func (c *Cache) Get(key string) (value []byte, ok bool, err error) {
	var expiresAt int64
	row := c.db.QueryRow("SELECT value, expires_at FROM cache WHERE key = ?", key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache key %q: %w", key, err)
	}
	if c.now().Unix() >= expiresAt {
		return nil, false, nil
	}
	return value, true, nil
}

// Put stores value under key with the given TTL, overwriting any previous
// entry.
func (c *Cache) Put(key string, value []byte, ttl time.Duration) error {
	expiresAt := c.now().Add(ttl).Unix()
	_, err := c.db.Exec(
		"INSERT INTO cache (key, value, expires_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("writing cache key %q: %w", key, err)
	}
	return nil
}

// Delete evicts the given keys regardless of TTL. Missing keys are ignored.
func (c *Cache) Delete(keys ...string) error {
	for _, key := range keys {
		if _, err := c.db.Exec("DELETE FROM cache WHERE key = ?", key); err != nil {
			return fmt.Errorf("deleting cache key %q: %w", key, err)
		}
	}
	return nil
}

// GetOrFill returns the cached value for key, or runs fill and stores its
// result with the given TTL. Concurrent callers filling the same key share
// one fill call.
func (c *Cache) GetOrFill(key string, ttl time.Duration, fill func() ([]byte, error)) ([]byte, error) {
	if value, ok, err := c.Get(key); err != nil {
		return nil, err
	} else if ok {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have filled while we waited on the group.
		if value, ok, err := c.Get(key); err != nil {
			return nil, err
		} else if ok {
			return value, nil
		}

		value, err := fill()
		if err != nil {
			return nil, err
		}
		if err := c.Put(key, value, ttl); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
