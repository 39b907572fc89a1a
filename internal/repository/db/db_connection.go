package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// schemaVersion is stored in PRAGMA user_version after the schema is applied.
const schemaVersion = 2

// InitDB opens/creates the SQLite file, applies the schema and seeds state defaults.
//
// Every transaction on the returned handle starts as BEGIN IMMEDIATE, and the
// pool holds a single connection, so read-modify-write transactions are
// serialized against each other.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// dsn adds per-connection pragmas and the immediate transaction lock mode.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

const schemaEvents = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_kind TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    actor_name TEXT NOT NULL DEFAULT '',
    numeric_payload TEXT,
    secondary_actor TEXT,
    synced INTEGER NOT NULL DEFAULT 0
);
`

const schemaEventsUnsyncedIdx = `CREATE INDEX IF NOT EXISTS idx_events_synced ON events (synced, id);`

const schemaEventsTimestampIdx = `CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events (timestamp);`

const schemaGeneratorState = `
CREATE TABLE IF NOT EXISTS generator_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Missing keys are restored on every start without touching existing values.
const seedGeneratorState = `
INSERT OR IGNORE INTO generator_state (key, value) VALUES
    ('status', 'OFF'),
    ('active_shift', 'none'),
    ('last_start_time', ''),
    ('last_start_date', ''),
    ('total_hours', '0'),
    ('last_oil_change', '0'),
    ('last_spark_change', '0'),
    ('current_fuel', '0'),
    ('fuel_alert_last_ts', ''),
    ('sheet_offline_forced', '0'),
    ('sheet_last_ok_ts', ''),
    ('sheet_first_fail_ts', ''),
    ('sheet_offline', '0'),
    ('sheet_offline_since_ts', '');
`

const schemaDrivers = `
CREATE TABLE IF NOT EXISTS drivers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL
);
`

const schemaPersonnel = `
CREATE TABLE IF NOT EXISTS personnel (
    name TEXT PRIMARY KEY
);
`

const schemaMaintenance = `
CREATE TABLE IF NOT EXISTS maintenance (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    performed_at TEXT NOT NULL,
    kind TEXT NOT NULL,
    hours REAL NOT NULL,
    actor TEXT NOT NULL DEFAULT ''
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

// personnel_bindings maps an API user to the ledger name recorded as actor.
const schemaPersonnelBindings = `
CREATE TABLE IF NOT EXISTS personnel_bindings (
    user_id INTEGER PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
    name TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaEvents,
		schemaEventsUnsyncedIdx,
		schemaEventsTimestampIdx,
		schemaGeneratorState,
		seedGeneratorState,
		schemaDrivers,
		schemaPersonnel,
		schemaMaintenance,
		schemaUsers,
		schemaPersonnelBindings,
		fmt.Sprintf("PRAGMA user_version = %d;", schemaVersion),
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
