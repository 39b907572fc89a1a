package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReferenceSQLite stores the driver and personnel lists pulled from the ledger.
// Replace* must run inside Store.WithTx so readers never see a half-replaced list.
type ReferenceSQLite struct {
	db DBTX
}

func NewReferenceSQLite(db DBTX) *ReferenceSQLite {
	return &ReferenceSQLite{db: db}
}

var _ ReferenceRepo = (*ReferenceSQLite)(nil)

const (
	deleteDriversSQL   = `DELETE FROM drivers`
	insertDriverSQL    = `INSERT OR IGNORE INTO drivers (name) VALUES (?)`
	selectDriversSQL   = `SELECT name FROM drivers ORDER BY name`
	deletePersonnelSQL = `DELETE FROM personnel`
	insertPersonSQL    = `INSERT OR IGNORE INTO personnel (name) VALUES (?)`
	selectPersonnelSQL = `SELECT name FROM personnel ORDER BY name`

	upsertBindingSQL = `INSERT INTO personnel_bindings (user_id, name) VALUES (?, ?)
ON CONFLICT (user_id) DO UPDATE SET name = excluded.name`
	deleteBindingSQL = `DELETE FROM personnel_bindings WHERE user_id = ?`
	selectBindingSQL = `SELECT name FROM personnel_bindings WHERE user_id = ?`
)

func (r *ReferenceSQLite) ReplaceDrivers(ctx context.Context, names []string) error {
	return r.replace(ctx, "drivers", deleteDriversSQL, insertDriverSQL, names)
}

func (r *ReferenceSQLite) ReplacePersonnel(ctx context.Context, names []string) error {
	return r.replace(ctx, "personnel", deletePersonnelSQL, insertPersonSQL, names)
}

func (r *ReferenceSQLite) ListDrivers(ctx context.Context) ([]string, error) {
	return r.list(ctx, "drivers", selectDriversSQL)
}

func (r *ReferenceSQLite) ListPersonnel(ctx context.Context) ([]string, error) {
	return r.list(ctx, "personnel", selectPersonnelSQL)
}

func (r *ReferenceSQLite) BindPersonnel(ctx context.Context, userID int, name string) error {
	if name == "" {
		if _, err := r.db.ExecContext(ctx, deleteBindingSQL, userID); err != nil {
			return fmt.Errorf("unbind personnel for user %d: %w", userID, err)
		}
		return nil
	}
	if _, err := r.db.ExecContext(ctx, upsertBindingSQL, userID, name); err != nil {
		return fmt.Errorf("bind personnel %q to user %d: %w", name, userID, err)
	}
	return nil
}

func (r *ReferenceSQLite) PersonnelFor(ctx context.Context, userID int) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, selectBindingSQL, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select personnel for user %d: %w", userID, err)
	}
	return name, nil
}

func (r *ReferenceSQLite) replace(ctx context.Context, table, deleteSQL, insertSQL string, names []string) error {
	if _, err := r.db.ExecContext(ctx, deleteSQL); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for _, n := range names {
		if _, err := r.db.ExecContext(ctx, insertSQL, n); err != nil {
			return fmt.Errorf("insert %s %q: %w", table, n, err)
		}
	}
	return nil
}

func (r *ReferenceSQLite) list(ctx context.Context, table, q string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}
