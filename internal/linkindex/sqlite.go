package linkindex

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS link_hashes (
	url        TEXT PRIMARY KEY,
	hash       TEXT NOT NULL,
	path       TEXT NOT NULL DEFAULT '',
	size       INTEGER NOT NULL DEFAULT 0,
	mod_time   INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// addedColumns are appended to databases created before the column existed.
var addedColumns = []struct{ name, ddl string }{
	{"size", `ALTER TABLE link_hashes ADD COLUMN size INTEGER NOT NULL DEFAULT 0`},
	{"mod_time", `ALTER TABLE link_hashes ADD COLUMN mod_time INTEGER NOT NULL DEFAULT 0`},
}

// SQLite persists the index across restarts, with an LRU in front of it.
type SQLite struct {
	conn  *sql.DB
	cache *lru.Cache[string, Entry]
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string, cacheSize int) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("linkindex: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("linkindex: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("linkindex: apply schema: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &SQLite{conn: conn, cache: newCache(cacheSize)}, nil
}

func migrate(conn *sql.DB) error {
	rows, err := conn.Query(`SELECT name FROM pragma_table_info('link_hashes')`)
	if err != nil {
		return fmt.Errorf("linkindex: table info: %w", err)
	}
	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("linkindex: table info: %w", err)
		}
		have[name] = true
	}
	rows.Close()

	for _, c := range addedColumns {
		if have[c.name] {
			continue
		}
		if _, err := conn.Exec(c.ddl); err != nil {
			return fmt.Errorf("linkindex: add column %s: %w", c.name, err)
		}
	}
	return nil
}

// Get returns the entry for url, consulting the cache first.
func (s *SQLite) Get(url string) (Entry, bool) {
	if e, ok := s.cache.Get(url); ok {
		return e, true
	}
	var (
		e       Entry
		modTime int64
	)
	err := s.conn.QueryRow(`SELECT hash, path, size, mod_time FROM link_hashes WHERE url = ?`, url).
		Scan(&e.Hash, &e.Path, &e.Size, &modTime)
	if err != nil {
		return Entry{}, false
	}
	if modTime != 0 {
		e.ModTime = time.Unix(0, modTime)
	}
	s.cache.Add(url, e)
	return e, true
}

// Put upserts the entry for url.
func (s *SQLite) Put(url string, e Entry) error {
	if url == "" {
		return errors.New("linkindex: empty url")
	}
	_, err := s.conn.Exec(`
		INSERT INTO link_hashes (url, hash, path, size, mod_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			hash       = excluded.hash,
			path       = excluded.path,
			size       = excluded.size,
			mod_time   = excluded.mod_time,
			updated_at = excluded.updated_at
	`, url, e.Hash, e.Path, e.Size, unixNano(e.ModTime), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("linkindex: upsert: %w", err)
	}
	s.cache.Add(url, e)
	return nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
