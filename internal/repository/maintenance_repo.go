package repository

import (
	"context"
	"fmt"
	"time"

	"generator_ledger/internal/models"
)

type MaintenanceSQLite struct {
	db  DBTX
	loc *time.Location
}

func NewMaintenanceSQLite(db DBTX, loc *time.Location) *MaintenanceSQLite {
	if loc == nil {
		loc = time.Local
	}
	return &MaintenanceSQLite{db: db, loc: loc}
}

var _ MaintenanceRepo = (*MaintenanceSQLite)(nil)

const (
	insertMaintenanceSQL = `INSERT INTO maintenance (performed_at, kind, hours, actor) VALUES (?, ?, ?, ?)`
	selectMaintenanceSQL = `SELECT id, performed_at, kind, hours, actor FROM maintenance ORDER BY id DESC LIMIT ?`
)

func (r *MaintenanceSQLite) Insert(ctx context.Context, rec models.MaintenanceRecord) (int64, error) {
	if rec.PerformedAt.IsZero() {
		rec.PerformedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertMaintenanceSQL,
		rec.PerformedAt.In(r.loc).Format(models.TimestampLayout),
		string(rec.Kind),
		rec.Hours,
		rec.Actor,
	)
	if err != nil {
		return 0, fmt.Errorf("insert maintenance %s: %w", rec.Kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for maintenance %s: %w", rec.Kind, err)
	}
	return id, nil
}

// List returns the newest records first.
func (r *MaintenanceSQLite) List(ctx context.Context, limit int) ([]models.MaintenanceRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, selectMaintenanceSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select maintenance: %w", err)
	}
	defer rows.Close()

	var out []models.MaintenanceRecord
	for rows.Next() {
		var (
			rec      models.MaintenanceRecord
			ts, kind string
		)
		if err := rows.Scan(&rec.ID, &ts, &kind, &rec.Hours, &rec.Actor); err != nil {
			return nil, fmt.Errorf("scan maintenance: %w", err)
		}
		rec.Kind = models.MaintenanceKind(kind)
		if t, err := time.ParseInLocation(models.TimestampLayout, ts, r.loc); err == nil {
			rec.PerformedAt = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate maintenance: %w", err)
	}
	return out, nil
}
