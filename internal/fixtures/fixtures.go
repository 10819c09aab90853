// Package fixtures is a golden-snapshot regression store for validated
// shaders: each snapshot records a textual dump of a Shader alongside a
// run tag, so a later test run can diff today's dump against what was
// captured the last time the fixture passed validation.
//
// Grounded on a sql.DB-backed module holding connection state plus
// exec/query helpers, generalized from a security-scan result store to a
// snapshot store, using the mattn/go-sqlite3 driver. Run/snapshot
// identifiers use google/uuid; I/O errors are wrapped with
// github.com/pkg/errors for extra context at each failure site.
package fixtures

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Store is a golden-snapshot regression database backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens a snapshot store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "fixtures: open database")
	}

	const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	name       TEXT NOT NULL,
	dump       TEXT NOT NULL,
	captured_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_name_idx ON snapshots(name);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "fixtures: create schema")
	}

	return &Store{db: db}, nil
}

// Close releases the store's underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot is one captured dump of a named fixture.
type Snapshot struct {
	ID         string
	RunID      string
	Name       string
	Dump       string
	CapturedAt time.Time
}

// Record saves dump as the latest snapshot of name under runID, tagging
// the row with a fresh UUID.
func (s *Store) Record(runID, name, dump string) (*Snapshot, error) {
	snap := &Snapshot{
		ID:         uuid.NewString(),
		RunID:      runID,
		Name:       name,
		Dump:       dump,
		CapturedAt: time.Now().UTC(),
	}

	// Fixed-width fractional seconds, so that Latest's ORDER BY on the
	// stored text sorts chronologically.
	_, err := s.db.Exec(
		`INSERT INTO snapshots (id, run_id, name, dump, captured_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.RunID, snap.Name, snap.Dump, snap.CapturedAt.Format("2006-01-02T15:04:05.000000000Z07:00"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "fixtures: record snapshot %q", name)
	}
	return snap, nil
}

// Latest returns the most recently captured snapshot for name, or
// (nil, nil) if none exists yet.
func (s *Store) Latest(name string) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT id, run_id, name, dump, captured_at FROM snapshots
		 WHERE name = ? ORDER BY captured_at DESC LIMIT 1`,
		name,
	)

	var snap Snapshot
	var capturedAt string
	err := row.Scan(&snap.ID, &snap.RunID, &snap.Name, &snap.Dump, &capturedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "fixtures: load latest snapshot %q", name)
	}
	snap.CapturedAt, err = time.Parse(time.RFC3339Nano, capturedAt)
	if err != nil {
		return nil, errors.Wrap(err, "fixtures: parse snapshot timestamp")
	}
	return &snap, nil
}

// Diff compares dump against the latest recorded snapshot of name. A
// mismatch is reported as a plain bool rather than a diff text; the
// caller decides how much context to show.
func (s *Store) Diff(name, dump string) (matches bool, prior *Snapshot, err error) {
	prior, err = s.Latest(name)
	if err != nil {
		return false, nil, err
	}
	if prior == nil {
		return false, nil, nil
	}
	return prior.Dump == dump, prior, nil
}
