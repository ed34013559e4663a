// Package ledger persists connection lifecycle events to a sqlite3
// database, following the sqlx.Connect/WAL-pragma pattern
// R2Northstar-Atlas's db/atlasdb package uses for its account store. It
// is an optional, append-only audit trail: nothing in pkg/connection or
// pkg/server depends on it being present.
package ledger

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Ledger records connect, disconnect and rejection events keyed by the
// per-process connection ID (pkg/connection.Connection.ID). It never
// touches wire data, only lifecycle metadata: there is nothing here a
// caller couldn't reconstruct from logs, just queryable durably.
type Ledger struct {
	x *sqlx.DB
}

// Open opens (creating if necessary) a sqlite3-backed Ledger at name,
// matching atlasdb.Open's WAL/cache/busy-timeout pragmas so concurrent
// Server tick and accept-path writers don't serialize on disk I/O.
func Open(name string) (*Ledger, error) {
	dsn := (&url.URL{
		Path: name,
		RawQuery: (url.Values{
			"_journal":      {"WAL"},
			"_cache_size":   {"-32000"},
			"_busy_timeout": {"6000"},
		}).Encode(),
	}).String()

	x, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	l := &Ledger{x: x}
	if err := l.migrate(); err != nil {
		x.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) migrate() error {
	_, err := l.x.Exec(`
		CREATE TABLE IF NOT EXISTS connection_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			conn_id    TEXT NOT NULL,
			remote     TEXT NOT NULL,
			event      TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			occurred_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	if _, err := l.x.Exec(`CREATE INDEX IF NOT EXISTS connection_events_conn_id_idx ON connection_events(conn_id)`); err != nil {
		return fmt.Errorf("migrate ledger index: %w", err)
	}
	return nil
}

func (l *Ledger) Close() error {
	return l.x.Close()
}

// Record appends one lifecycle event. Safe to call from any goroutine;
// sqlite3's single-writer model serializes concurrent writers for us.
func (l *Ledger) Record(connID uuid.UUID, remote, event, detail string) error {
	_, err := l.x.Exec(`
		INSERT INTO connection_events (conn_id, remote, event, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, connID.String(), remote, event, detail, time.Now().Unix())
	return err
}

// Event is one row read back from the ledger, newest first from Recent.
type Event struct {
	ConnID     string `db:"conn_id"`
	Remote     string `db:"remote"`
	Event      string `db:"event"`
	Detail     string `db:"detail"`
	OccurredAt int64  `db:"occurred_at"`
}

// Recent returns the most recent n events, newest first.
func (l *Ledger) Recent(n int) ([]Event, error) {
	var events []Event
	err := l.x.Select(&events, `
		SELECT conn_id, remote, event, detail, occurred_at
		FROM connection_events
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ForConnection returns every event recorded for one connection ID, in
// the order they were recorded.
func (l *Ledger) ForConnection(connID uuid.UUID) ([]Event, error) {
	var events []Event
	err := l.x.Select(&events, `
		SELECT conn_id, remote, event, detail, occurred_at
		FROM connection_events
		WHERE conn_id = ?
		ORDER BY id ASC
	`, connID.String())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return events, nil
}
