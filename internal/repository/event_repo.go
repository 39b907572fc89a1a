package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"generator_ledger/internal/models"
)

// ErrZeroTimestamp is returned by Append for an event without a timestamp.
var ErrZeroTimestamp = errors.New("event timestamp is zero")

type EventSQLite struct {
	db  DBTX
	loc *time.Location
}

func NewEventSQLite(db DBTX, loc *time.Location) *EventSQLite {
	if loc == nil {
		loc = time.Local
	}
	return &EventSQLite{db: db, loc: loc}
}

var _ EventRepo = (*EventSQLite)(nil)

const (
	insertEventSQL = `
		INSERT INTO events (event_kind, timestamp, actor_name, numeric_payload, secondary_actor, synced)
		VALUES (?, ?, ?, ?, ?, 0)
	`
	eventColumns      = `id, event_kind, timestamp, actor_name, numeric_payload, secondary_actor, synced`
	selectUnsyncedSQL = `SELECT ` + eventColumns + ` FROM events WHERE synced = 0 AND id > ? ORDER BY id ASC LIMIT ?`
	countUnsyncedSQL  = `SELECT COUNT(*) FROM events WHERE synced = 0`
	markSyncedSQL     = `UPDATE events SET synced = 1 WHERE id = ?`
	existsForDateSQL  = `SELECT EXISTS (SELECT 1 FROM events WHERE substr(timestamp, 1, 10) = ?)`
)

// Append inserts e and returns its id. Callers stamp events with their own
// clock; a zero Timestamp is refused.
func (r *EventSQLite) Append(ctx context.Context, e models.EventLogEntry) (int64, error) {
	if e.Timestamp.IsZero() {
		return 0, fmt.Errorf("insert event %s: %w", e.Kind, ErrZeroTimestamp)
	}
	res, err := r.db.ExecContext(ctx, insertEventSQL,
		string(e.Kind),
		e.Timestamp.In(r.loc).Format(models.TimestampLayout),
		e.Actor,
		nullIfEmpty(e.Payload),
		nullIfEmpty(e.SecondaryActor),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event %s: %w", e.Kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for event %s: %w", e.Kind, err)
	}
	return id, nil
}

// ListUnsynced returns pending entries with id > afterID in insertion order.
func (r *EventSQLite) ListUnsynced(ctx context.Context, afterID int64, limit int) ([]models.EventLogEntry, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	return r.query(ctx, selectUnsyncedSQL, afterID, limit)
}

func (r *EventSQLite) CountUnsynced(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countUnsyncedSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unsynced events: %w", err)
	}
	return n, nil
}

func (r *EventSQLite) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, markSyncedSQL, id); err != nil {
		return fmt.Errorf("mark event %d synced: %w", id, err)
	}
	return nil
}

// ListForDate returns entries whose civil date is date (YYYY-MM-DD), optionally
// restricted to kinds, ordered by id.
func (r *EventSQLite) ListForDate(ctx context.Context, date string, kinds ...models.EventKind) ([]models.EventLogEntry, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE substr(timestamp, 1, 10) = ?`
	args := []any{date}
	if len(kinds) > 0 {
		q += " AND event_kind IN (" + strings.TrimSuffix(strings.Repeat("?,", len(kinds)), ",") + ")"
		for _, k := range kinds {
			args = append(args, string(k))
		}
	}
	q += " ORDER BY id ASC"
	return r.query(ctx, q, args...)
}

func (r *EventSQLite) HasEventsForDate(ctx context.Context, date string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, existsForDateSQL, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("check events for %s: %w", date, err)
	}
	return exists, nil
}

// List returns entries filtered by [From, To] (inclusive) and/or kind, ordered by id.
func (r *EventSQLite) List(ctx context.Context, f EventFilter) ([]models.EventLogEntry, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.From.In(r.loc).Format(models.TimestampLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, f.To.In(r.loc).Format(models.TimestampLayout))
	}
	if f.Kind != "" {
		conds = append(conds, "event_kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Unsynced {
		conds = append(conds, "synced = 0")
	}

	q := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return r.query(ctx, q, args...)
}

func (r *EventSQLite) query(ctx context.Context, q string, args ...any) ([]models.EventLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	out := make([]models.EventLogEntry, 0, 16)
	for rows.Next() {
		var (
			e                  models.EventLogEntry
			kind, ts           string
			payload, secondary sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &ts, &e.Actor, &payload, &secondary, &e.Synced); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = models.EventKind(kind)
		e.Payload = payload.String
		e.SecondaryActor = secondary.String
		// malformed timestamps keep the entry with a zero time rather than failing the batch
		if t, err := time.ParseInLocation(models.TimestampLayout, ts, r.loc); err == nil {
			e.Timestamp = t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
