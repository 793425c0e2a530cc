// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store persists manual overrides and match results in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"m4o.io/stopmatch"
	"m4o.io/stopmatch/model"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS manual_overrides (
	sloid       TEXT PRIMARY KEY,
	osm_node_id INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	stops      INTEGER NOT NULL,
	matched    INTEGER NOT NULL,
	unmatched  INTEGER NOT NULL,
	no_nearby  INTEGER NOT NULL,
	invalid    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS matches (
	run_id              TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	sloid               TEXT NOT NULL,
	osm_node_id         INTEGER NOT NULL,
	distance_m          REAL,
	match_type          TEXT NOT NULL,
	notes               TEXT NOT NULL,
	candidate_pool_size INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS matches_sloid ON matches(sloid);
CREATE TABLE IF NOT EXISTS unmatched_atlas (
	run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	sloid                TEXT NOT NULL,
	number               TEXT NOT NULL,
	designation          TEXT NOT NULL,
	designation_official TEXT NOT NULL,
	operator             TEXT NOT NULL,
	lat                  REAL NOT NULL,
	lon                  REAL NOT NULL,
	no_nearby            INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS unmatched_osm (
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	osm_node_id INTEGER NOT NULL,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	uic_ref     TEXT NOT NULL,
	name        TEXT NOT NULL,
	isolated    INTEGER NOT NULL
);
`

// Store is a SQLite database holding overrides and results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Pragmas go into the DSN so
// that every pooled connection gets them.
func Open(ctx context.Context, path string) (*Store, error) {
	pragmas := url.Values{}
	pragmas.Add("_pragma", "foreign_keys(1)")
	pragmas.Add("_pragma", "busy_timeout(5000)")

	if path != Memory {
		pragmas.Add("_pragma", "journal_mode(WAL)")
	}

	db, err := sql.Open("sqlite", path+"?"+pragmas.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if path == Memory {
		// every connection would see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// AddOverride stores or replaces the override of a sloid.
func (s *Store) AddOverride(ctx context.Context, o model.Override) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manual_overrides (sloid, osm_node_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(sloid) DO UPDATE SET osm_node_id = excluded.osm_node_id, created_at = excluded.created_at`,
		o.Sloid, int64(o.NodeID), now())
	if err != nil {
		return fmt.Errorf("store override %s: %w", o.Sloid, err)
	}

	return nil
}

// Overrides returns every stored override ordered by sloid.
func (s *Store) Overrides(ctx context.Context) ([]model.Override, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sloid, osm_node_id FROM manual_overrides ORDER BY sloid`)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	var out []model.Override

	for rows.Next() {
		var (
			o  model.Override
			id int64
		)

		if err := rows.Scan(&o.Sloid, &id); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}

		o.NodeID = model.NodeID(id)
		out = append(out, o)
	}

	return out, rows.Err()
}

// SaveResult writes a result under its run id in one transaction.
func (s *Store) SaveResult(ctx context.Context, res *stopmatch.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	st := res.Stats()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, stops, matched, unmatched, no_nearby, invalid)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, now(), st.Stops, st.Matched, st.Unmatched, st.NoNearby, st.Invalid); err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}

	if err = insertAll(ctx, tx, `
		INSERT INTO matches (run_id, sloid, osm_node_id, distance_m, match_type, notes, candidate_pool_size)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.Matches, func(m model.MatchRecord) []any {
			var dist sql.NullFloat64
			if m.Distance != nil {
				dist = sql.NullFloat64{Float64: *m.Distance, Valid: true}
			}

			return []any{res.RunID, m.Sloid, int64(m.NodeID), dist, string(m.Type),
				strings.Join(m.Notes, "; "), m.CandidatePoolSize}
		}); err != nil {
		return fmt.Errorf("insert matches: %w", err)
	}

	if err = insertAll(ctx, tx, `
		INSERT INTO unmatched_atlas (run_id, sloid, number, designation, designation_official, operator, lat, lon, no_nearby)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.UnmatchedAtlas, func(u stopmatch.UnmatchedStop) []any {
			return []any{res.RunID, u.Sloid, u.Number, u.Designation, u.DesignationOfficial, u.Operator,
				float64(u.Lat), float64(u.Lon), u.NoNearby}
		}); err != nil {
		return fmt.Errorf("insert unmatched stops: %w", err)
	}

	if err = insertAll(ctx, tx, `
		INSERT INTO unmatched_osm (run_id, osm_node_id, lat, lon, uic_ref, name, isolated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.UnmatchedOSM, func(u stopmatch.UnmatchedNode) []any {
			return []any{res.RunID, int64(u.ID), float64(u.Lat), float64(u.Lon), u.Tags.UICRef, u.Tags.Name, u.Isolated}
		}); err != nil {
		return fmt.Errorf("insert unmatched nodes: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Matches returns the records of a run in insertion order.
func (s *Store) Matches(ctx context.Context, runID string) ([]model.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sloid, osm_node_id, distance_m, match_type, notes, candidate_pool_size
		FROM matches WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []model.MatchRecord

	for rows.Next() {
		var (
			m     model.MatchRecord
			id    int64
			dist  sql.NullFloat64
			typ   string
			notes string
		)

		if err := rows.Scan(&m.Sloid, &id, &dist, &typ, &notes, &m.CandidatePoolSize); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}

		m.NodeID = model.NodeID(id)
		m.Type = model.MatchType(typ)

		if dist.Valid {
			m.Distance = model.Meters(dist.Float64)
		}

		if notes != "" {
			m.Notes = strings.Split(notes, "; ")
		}

		out = append(out, m)
	}

	return out, rows.Err()
}

func insertAll[T any](ctx context.Context, tx *sql.Tx, query string, items []T, args func(T) []any) error {
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, args(it)...); err != nil {
			return err
		}
	}

	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
