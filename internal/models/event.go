package models

import (
	"strconv"
	"strings"
	"time"
)

// EventKind is the stored type of an event log entry.
type EventKind string

const (
	EventRefill           EventKind = "refill"
	EventAutoClose        EventKind = "auto_close"
	EventMaintenanceOil   EventKind = "maintenance_oil"
	EventMaintenanceSpark EventKind = "maintenance_spark"
	EventForceOffline     EventKind = "sheet_force_offline"
	EventForceOnline      EventKind = "sheet_force_online"
	EventStateCorrection  EventKind = "state_correction"
)

// TimestampLayout is how event timestamps are stored: civil time in the configured zone.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar-date format used for shift start dates and log queries.
const DateLayout = "2006-01-02"

// ShiftEvent splits a shift start/end kind into its shift and direction.
func (k EventKind) ShiftEvent() (shift Shift, start bool, ok bool) {
	code, dir, found := strings.Cut(string(k), "_")
	if !found || (dir != "start" && dir != "end") {
		return ShiftNone, false, false
	}
	for _, sh := range Shifts {
		if sh.Code() == code {
			return sh, dir == "start", true
		}
	}
	return ShiftNone, false, false
}

// EventLogEntry is a single row of the local append-only event log.
type EventLogEntry struct {
	ID             int64     `json:"id"`
	Kind           EventKind `json:"event_kind"`
	Timestamp      time.Time `json:"timestamp"`
	Actor          string    `json:"actor_name"`
	Payload        string    `json:"numeric_payload,omitempty"`
	SecondaryActor string    `json:"secondary_actor,omitempty"`
	Synced         bool      `json:"synced"`
}

// Date returns the civil date of the entry in its own location.
func (e EventLogEntry) Date() string { return e.Timestamp.Format(DateLayout) }

// RefillPayload encodes liters and receipt number into the stored payload.
func RefillPayload(liters float64, receipt string) string {
	return strconv.FormatFloat(liters, 'f', -1, 64) + "|" + strings.TrimSpace(receipt)
}

// ParseRefillPayload decodes a refill payload. ok is false when liters are unreadable.
func ParseRefillPayload(payload string) (liters float64, receipt string, ok bool) {
	raw, receipt, _ := strings.Cut(payload, "|")
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, strings.TrimSpace(receipt), false
	}
	return v, strings.TrimSpace(receipt), true
}
