// Package storage persists decoded bearings to a sqlite database so that
// repeated observations of a station can be compared over time.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS observations (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    observed_at      DATETIME NOT NULL,
    station          TEXT NOT NULL DEFAULT '',
    recording        TEXT NOT NULL DEFAULT '',
    raw_deg          REAL NOT NULL,
    bearing_deg      REAL NOT NULL,
    calibrated       INTEGER NOT NULL,
    peak_correlation REAL NOT NULL
)`

const insertObservationSQL = `
INSERT INTO observations (
    observed_at,
    station,
    recording,
    raw_deg,
    bearing_deg,
    calibrated,
    peak_correlation)
VALUES (?, ?, ?, ?, ?, ?, ?)`

const selectObservationsSQL = `
SELECT
    id,
    observed_at,
    station,
    recording,
    raw_deg,
    bearing_deg,
    calibrated,
    peak_correlation
FROM observations
ORDER BY observed_at, id`

// Observation is one decoded bearing with its provenance.
type Observation struct {
	ID         int64
	ObservedAt time.Time
	Station    string
	Recording  string
	RawDeg     float64
	BearingDeg float64
	Calibrated bool
	Peak       float64
}

// Store appends and reads bearing observations. The database is opened
// lazily on first use and the schema is created if missing.
type Store struct {
	dbPath string

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error
}

// New creates a store backed by the sqlite database at dbPath.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", s.dbPath))
		if err != nil {
			s.dbErr = fmt.Errorf("opening database: %w", err)
			return
		}
		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.dbErr
}

// Append stores an observation and returns its row ID.
func (s *Store) Append(ctx context.Context, obs Observation) (int64, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}

	observedAt := obs.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	res, err := db.ExecContext(ctx, insertObservationSQL,
		observedAt.UTC(),
		obs.Station,
		obs.Recording,
		obs.RawDeg,
		obs.BearingDeg,
		obs.Calibrated,
		obs.Peak)
	if err != nil {
		return 0, fmt.Errorf("inserting observation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading observation ID: %w", err)
	}
	return id, nil
}

// Observations returns every stored observation in chronological order.
func (s *Store) Observations(ctx context.Context) ([]Observation, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectObservationsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var obs Observation
		if err := rows.Scan(&obs.ID, &obs.ObservedAt, &obs.Station, &obs.Recording,
			&obs.RawDeg, &obs.BearingDeg, &obs.Calibrated, &obs.Peak); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating observations: %w", err)
	}
	return out, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
