package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"generator_ledger/internal/models"
)

type StateSQLite struct {
	db DBTX
}

func NewStateSQLite(db DBTX) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

// generator_state keys owned by this repository.
const (
	keyStatus          = "status"
	keyActiveShift     = "active_shift"
	keyLastStartTime   = "last_start_time"
	keyLastStartDate   = "last_start_date"
	keyTotalHours      = "total_hours"
	keyLastOilChange   = "last_oil_change"
	keyLastSparkChange = "last_spark_change"
	keyCurrentFuel     = "current_fuel"
	keyFuelAlertLastTS = "fuel_alert_last_ts"
)

const (
	casStatusSQL = `UPDATE generator_state SET value=? WHERE key='status' AND value=?`

	// Numeric updates run in SQL so concurrent writers cannot lose a delta.
	addFloatSQL = `
		UPDATE generator_state SET value=CAST(CAST(value AS REAL) + ? AS TEXT) WHERE key=?
	`
	addFuelClampedSQL = `
		UPDATE generator_state SET value=CAST(MAX(0, CAST(value AS REAL) + ?) AS TEXT) WHERE key='current_fuel'
	`
)

// Load reads the state row set and validates it.
func (r *StateSQLite) Load(ctx context.Context) (models.GeneratorState, error) {
	kv, err := loadKV(ctx, r.db)
	if err != nil {
		return models.GeneratorState{}, err
	}

	st := models.DefaultGeneratorState()
	if v := kv[keyStatus]; v != "" {
		st.Status = models.Status(v)
	}
	shift, err := models.ParseShift(kv[keyActiveShift])
	if err != nil {
		return models.GeneratorState{}, fmt.Errorf("state %q: %w", keyActiveShift, err)
	}
	st.ActiveShift = shift
	st.ShiftStartTime = kv[keyLastStartTime]
	st.ShiftStartDate = kv[keyLastStartDate]

	rd := kvReader{kv: kv}
	st.TotalEngineHours = rd.float(keyTotalHours)
	st.LastOilChangeHours = rd.float(keyLastOilChange)
	st.LastSparkChangeHours = rd.float(keyLastSparkChange)
	st.CurrentFuelLiters = rd.float(keyCurrentFuel)
	st.FuelAlertAt = rd.time(keyFuelAlertLastTS)
	if rd.err != nil {
		return models.GeneratorState{}, rd.err
	}

	if err := st.Validate(); err != nil {
		return models.GeneratorState{}, fmt.Errorf("invalid generator state: %w", err)
	}
	return st, nil
}

// CompareAndSwapStatus writes to only if the stored status equals from.
// It reports whether the swap happened.
func (r *StateSQLite) CompareAndSwapStatus(ctx context.Context, from, to models.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, casStatusSQL, string(to), string(from))
	if err != nil {
		return false, fmt.Errorf("swap status %s->%s: %w", from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap status rows affected: %w", err)
	}
	return n == 1, nil
}

// SetShift records the active shift and when it started. Status is left to CompareAndSwapStatus.
func (r *StateSQLite) SetShift(ctx context.Context, shift models.Shift, startTime, startDate string) error {
	for _, kv := range [][2]string{
		{keyActiveShift, string(shift)},
		{keyLastStartTime, startTime},
		{keyLastStartDate, startDate},
	} {
		if err := setKV(ctx, r.db, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// ClearShift resets the active shift. The start time/date are kept for reporting.
func (r *StateSQLite) ClearShift(ctx context.Context) error {
	return setKV(ctx, r.db, keyActiveShift, string(models.ShiftNone))
}

func (r *StateSQLite) AddEngineHours(ctx context.Context, delta float64) error {
	if _, err := r.db.ExecContext(ctx, addFloatSQL, delta, keyTotalHours); err != nil {
		return fmt.Errorf("add engine hours: %w", err)
	}
	return nil
}

func (r *StateSQLite) SetEngineHours(ctx context.Context, hours float64) error {
	return setKV(ctx, r.db, keyTotalHours, formatFloat(hours))
}

// AdjustFuel adds delta liters; the level never drops below zero.
func (r *StateSQLite) AdjustFuel(ctx context.Context, delta float64) error {
	if _, err := r.db.ExecContext(ctx, addFuelClampedSQL, delta); err != nil {
		return fmt.Errorf("adjust fuel: %w", err)
	}
	return nil
}

func (r *StateSQLite) SetFuel(ctx context.Context, liters float64) error {
	return setKV(ctx, r.db, keyCurrentFuel, formatFloat(math.Max(0, liters)))
}

func (r *StateSQLite) SetMaintenanceMark(ctx context.Context, kind models.MaintenanceKind, hours float64) error {
	key := keyLastOilChange
	if kind == models.MaintenanceSpark {
		key = keyLastSparkChange
	}
	return setKV(ctx, r.db, key, formatFloat(hours))
}

func (r *StateSQLite) SetFuelAlertAt(ctx context.Context, at time.Time) error {
	return setKV(ctx, r.db, keyFuelAlertLastTS, formatTime(at))
}
