package service

import (
	"time"

	"generator_ledger/internal/models"
)

// StartRequest asks to start one shift on behalf of Actor.
type StartRequest struct {
	Shift models.Shift
	Actor string
}

type StopRequest struct {
	Shift models.Shift
	Actor string
	// Reason, when set, is logged next to the end event, e.g. auto_close.
	Reason models.EventKind
}

// ShiftResult describes a committed transition.
type ShiftResult struct {
	Shift     models.Shift `json:"shift"`
	EventID   int64        `json:"event_id,omitempty"`
	At        time.Time    `json:"at"`
	StartTime string       `json:"start_time,omitempty"`
	// DurationHours and ConsumedLiters are set on stop.
	DurationHours  float64 `json:"duration_hours,omitempty"`
	ConsumedLiters float64 `json:"consumed_liters,omitempty"`
	// Offline is true when the stop was accounted locally because the ledger was offline.
	Offline bool                  `json:"offline"`
	State   models.GeneratorState `json:"state"`
}

type RefuelRequest struct {
	Liters  float64
	Receipt string
	Driver  string
	Actor   string
}

type RefuelResult struct {
	EventID int64                 `json:"event_id"`
	Offline bool                  `json:"offline"`
	State   models.GeneratorState `json:"state"`
}

// FuelAlert is the outcome of a low-fuel check. Due is true when an alert was
// raised by this call.
type FuelAlert struct {
	Due        bool      `json:"due"`
	FuelLiters float64   `json:"fuel_liters"`
	Threshold  float64   `json:"threshold"`
	LastAlert  time.Time `json:"last_alert,omitempty"`
}

// Snapshot is what the dashboard shows.
type Snapshot struct {
	State       models.GeneratorState      `json:"state"`
	Health      models.HealthState         `json:"health"`
	Offline     bool                       `json:"offline"`
	Unsynced    int                        `json:"unsynced"`
	Maintenance []models.MaintenanceStatus `json:"maintenance"`
}

// CycleReport summarizes one reconciliation cycle.
type CycleReport struct {
	ID       string        `json:"cycle_id"`
	Skipped  bool          `json:"skipped"`
	Synced   int           `json:"synced"`
	Pending  int           `json:"pending"`
	Fuel     *float64      `json:"fuel,omitempty"`
	Hours    *float64      `json:"hours,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OpenShiftReport reports a shift still running after the end of the working day.
type OpenShiftReport struct {
	Open      bool         `json:"open"`
	Shift     models.Shift `json:"shift"`
	StartTime string       `json:"start_time,omitempty"`
	StartDate string       `json:"start_date,omitempty"`
}

// LogFilter supports history filtering by time range, kind and sync status.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Kind     string    // "", "refill", "m_start", ...
	Unsynced bool
	Limit    int
}
