// Package database persists history-cache entries so covered time windows
// survive process restarts.
package database

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	// Enable the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/polosync/polosync/exchanges/timecache"
)

const schema = `
CREATE TABLE IF NOT EXISTS history_cache (
	kind        TEXT    NOT NULL,
	qualifier   TEXT    NOT NULL,
	range_start INTEGER NOT NULL,
	range_end   INTEGER NOT NULL,
	payload     BLOB    NOT NULL,
	updated_at  INTEGER NOT NULL,
	PRIMARY KEY (kind, qualifier)
);`

const upsertQuery = `
INSERT INTO history_cache (kind, qualifier, range_start, range_end, payload, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (kind, qualifier) DO UPDATE SET
	range_start = excluded.range_start,
	range_end   = excluded.range_end,
	payload     = excluded.payload,
	updated_at  = excluded.updated_at`

const loadQuery = `
SELECT range_start, range_end, payload FROM history_cache
WHERE kind = ? AND qualifier = ?`

// Config holds database connection settings
type Config struct {
	Enabled bool   `json:"enabled"`
	Driver  string `json:"driver"`
	DSN     string `json:"dsn"`
}

// Store is a timecache.Backend over a SQL database
type Store struct {
	db *sqlx.DB
}

// Connect opens the configured database and ensures the cache table exists
func Connect(cfg Config) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite3"
	}

	db, err := sqlx.Connect(driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "connecting history cache database")
	}

	s := NewStore(db)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection. Callers are responsible for running
// migrate via Connect in production paths.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return errors.Wrap(err, "creating history_cache table")
}

// Load implements timecache.Backend
func (s *Store) Load(kind, qualifier string) ([]byte, timecache.Range, bool, error) {
	var row struct {
		RangeStart int64  `db:"range_start"`
		RangeEnd   int64  `db:"range_end"`
		Payload    []byte `db:"payload"`
	}
	err := s.db.Get(&row, loadQuery, kind, qualifier)
	if err == sql.ErrNoRows {
		return nil, timecache.Range{}, false, nil
	}
	if err != nil {
		return nil, timecache.Range{}, false, errors.Wrap(err, "loading history cache entry")
	}

	r := timecache.Range{
		Start: time.Unix(row.RangeStart, 0),
		End:   time.Unix(row.RangeEnd, 0),
	}
	return row.Payload, r, true, nil
}

// Save implements timecache.Backend
func (s *Store) Save(kind, qualifier string, r timecache.Range, payload []byte) error {
	_, err := s.db.Exec(upsertQuery,
		kind, qualifier, r.Start.Unix(), r.End.Unix(), payload, time.Now().Unix())
	return errors.Wrap(err, "saving history cache entry")
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}
