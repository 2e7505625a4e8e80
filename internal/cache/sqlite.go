package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

// SQLite stores entries in a single table of a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at dbPath and runs migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewSQLiteMemory creates an in-memory store for testing.
func NewSQLiteMemory() (*SQLite, error) {
	return NewSQLite(":memory:")
}

// DefaultDBPath returns ~/.harvest/cache.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".harvest", "cache.db"), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}

	const ddl = `
	CREATE TABLE IF NOT EXISTS cache (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		stored_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_stored_at ON cache(stored_at);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *SQLite) Get(key string) ([]byte, bool) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.WithError(err).Warnf("cache read %q failed", key)
		}
		return nil, false
	}
	return value, true
}

func (s *SQLite) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO cache (key, value, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at`,
		key, value, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("set cache entry %q: %w", key, err)
	}
	return nil
}

// List returns every stored entry, oldest first.
func (s *SQLite) List() ([]Info, error) {
	rows, err := s.db.Query(`SELECT key, length(value), stored_at FROM cache ORDER BY stored_at, key`)
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info   Info
			stored int64
		)
		if err := rows.Scan(&info.Key, &info.Size, &stored); err != nil {
			return nil, err
		}
		info.StoredAt = time.Unix(0, stored).UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Purge removes entries stored more than maxAge ago; maxAge <= 0 removes
// everything.
func (s *SQLite) Purge(maxAge time.Duration) (int, error) {
	var (
		res sql.Result
		err error
	)
	if maxAge <= 0 {
		res, err = s.db.Exec(`DELETE FROM cache`)
	} else {
		res, err = s.db.Exec(`DELETE FROM cache WHERE stored_at < ?`, time.Now().Add(-maxAge).UnixNano())
	}
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
