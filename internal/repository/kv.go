package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// generator_state is a key/value table; these helpers are shared by the state
// and health repositories.

const (
	upsertKVSQL = `
		INSERT INTO generator_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`
	selectKVSQL = `SELECT key, value FROM generator_state`
)

func loadKV(ctx context.Context, q DBTX) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, selectKVSQL)
	if err != nil {
		return nil, fmt.Errorf("select generator_state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, 16)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan generator_state: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generator_state: %w", err)
	}
	return out, nil
}

func setKV(ctx context.Context, q DBTX, key, value string) error {
	if _, err := q.ExecContext(ctx, upsertKVSQL, key, value); err != nil {
		return fmt.Errorf("set state %q: %w", key, err)
	}
	return nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// kvReader accumulates the first parse error so callers can read many keys and
// check once.
type kvReader struct {
	kv  map[string]string
	err error
}

func (r *kvReader) float(key string) float64 {
	s := r.kv[key]
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("state %q: invalid number %q", key, s)
	}
	return v
}

func (r *kvReader) bool(key string) bool {
	switch r.kv[key] {
	case "", "0", "false":
		return false
	case "1", "true":
		return true
	}
	if r.err == nil {
		r.err = fmt.Errorf("state %q: invalid flag %q", key, r.kv[key])
	}
	return false
}

func (r *kvReader) time(key string) time.Time {
	s := r.kv[key]
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// older rows stored unix seconds
		if sec, perr := strconv.ParseFloat(s, 64); perr == nil {
			return time.Unix(int64(sec), 0)
		}
		if r.err == nil {
			r.err = fmt.Errorf("state %q: invalid timestamp %q", key, s)
		}
		return time.Time{}
	}
	return t
}
