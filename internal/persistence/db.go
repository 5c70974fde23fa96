// Package persistence provides the SQLite event journal: an append-only
// audit trail of everything that happened in a game session. It is never
// read back to restore a game.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/planetary-ascension/internal/engine"
)

// DB wraps a SQLite connection for the event journal.
type DB struct {
	conn    *sqlx.DB
	session string
}

// Open opens or creates a SQLite journal at the given path. Events written
// through this handle are tagged with session.
func Open(path, session string) (*DB, error) {
	// modernc applies _pragma parameters to every pooled connection.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, session: session}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Session returns the session id events are tagged with.
func (db *DB) Session() string { return db.session }

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		message TEXT NOT NULL,
		meta_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_meta (
		session TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (session, key)
	);

	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session, id);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type eventRow struct {
	Tick      uint64 `db:"tick"`
	Kind      string `db:"kind"`
	Message   string `db:"message"`
	MetaJSON  string `db:"meta_json"`
	CreatedAt string `db:"created_at"`
}

// SaveEvents appends events to the journal in one transaction.
// Resource samples are skipped.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(session, tick, kind, message, meta_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if e.Kind == engine.KindResources {
			continue
		}
		metaJSON := []byte("{}")
		if len(e.Meta) > 0 {
			if metaJSON, err = json.Marshal(e.Meta); err != nil {
				return fmt.Errorf("encode meta for %s event: %w", e.Kind, err)
			}
		}
		at := e.Time
		if at.IsZero() {
			at = time.Now().UTC()
		}
		if _, err := stmt.Exec(db.session, e.Tick, e.Kind, e.Message, string(metaJSON), at.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert %s event: %w", e.Kind, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair for the current session.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO session_meta (session, key, value) VALUES (?, ?, ?)",
		db.session, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value for the current session.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM session_meta WHERE session = ? AND key = ?", db.session, key)
	return value, err
}

// RecentEvents returns the most recent limit events of the current session,
// oldest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		`SELECT tick, kind, message, meta_json, created_at FROM events
		 WHERE session = ? ORDER BY id DESC LIMIT ?`,
		db.session, limit,
	)
	if err != nil {
		return nil, err
	}

	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		e := engine.Event{Tick: r.Tick, Kind: r.Kind, Message: r.Message}
		if r.MetaJSON != "" && r.MetaJSON != "{}" {
			if err := json.Unmarshal([]byte(r.MetaJSON), &e.Meta); err != nil {
				return nil, fmt.Errorf("decode meta: %w", err)
			}
		}
		e.Time, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
		events[len(rows)-1-i] = e
	}
	return events, nil
}

// CountEvents returns how many events the current session has journaled.
func (db *DB) CountEvents() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM events WHERE session = ?", db.session)
	return n, err
}

// Record drains events into the journal until the channel closes or ctx is
// cancelled, flushing every flushEvery or when batch events are buffered.
// On cancellation the events already queued on the channel are drained
// too. Pending events are written before it returns.
func (db *DB) Record(ctx context.Context, events <-chan engine.Event, batch int, flushEvery time.Duration) {
	if batch <= 0 {
		batch = 32
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	var pending []engine.Event
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := db.SaveEvents(pending); err != nil {
			slog.Error("journal write failed", "events", len(pending), "error", err)
		}
		pending = pending[:0]
	}
	defer flush()

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e, ok := <-events:
					if !ok {
						return
					}
					if e.Kind != engine.KindResources {
						pending = append(pending, e)
					}
				default:
					return
				}
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Kind == engine.KindResources {
				continue
			}
			pending = append(pending, e)
			if len(pending) >= batch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
