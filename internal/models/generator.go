package models

import (
	"fmt"
	"time"
)

// Status is the on/off state of the generator.
type Status string

const (
	StatusOff Status = "OFF"
	StatusOn  Status = "ON"
)

// GeneratorState is the current snapshot of the generator.
type GeneratorState struct {
	Status               Status    `json:"status"`
	ActiveShift          Shift     `json:"active_shift"`
	ShiftStartTime       string    `json:"shift_start_time,omitempty"` // HH:MM
	ShiftStartDate       string    `json:"shift_start_date,omitempty"` // YYYY-MM-DD
	TotalEngineHours     float64   `json:"total_engine_hours"`
	LastOilChangeHours   float64   `json:"last_oil_change_hours"`
	LastSparkChangeHours float64   `json:"last_spark_change_hours"`
	CurrentFuelLiters    float64   `json:"current_fuel_liters"`
	FuelAlertAt          time.Time `json:"fuel_alert_at,omitempty"`
}

// DefaultGeneratorState is the state of a freshly installed generator.
func DefaultGeneratorState() GeneratorState {
	return GeneratorState{
		Status:      StatusOff,
		ActiveShift: ShiftNone,
	}
}

// Validate checks status/shift consistency.
func (s GeneratorState) Validate() error {
	switch s.Status {
	case StatusOn:
		if !s.ActiveShift.Valid() {
			return fmt.Errorf("status ON requires an active shift, got %q", s.ActiveShift)
		}
	case StatusOff:
		if s.ActiveShift != ShiftNone {
			return fmt.Errorf("status OFF with active shift %q", s.ActiveShift)
		}
	default:
		return fmt.Errorf("unknown status %q", s.Status)
	}
	return nil
}

// Running reports whether a shift is open.
func (s GeneratorState) Running() bool { return s.Status == StatusOn }
