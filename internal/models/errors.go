package models

import (
	"errors"
	"fmt"
)

// ShiftReason classifies why a shift transition was refused.
type ShiftReason string

const (
	ReasonAlreadyOn            ShiftReason = "already_on"
	ReasonAlreadyOff           ShiftReason = "already_off"
	ReasonWrongShift           ShiftReason = "wrong_shift"
	ReasonAlreadyCompleted     ShiftReason = "already_completed"
	ReasonPreviousNotCompleted ShiftReason = "previous_not_completed"
	ReasonOutsideWorkHours     ShiftReason = "outside_work_hours"
)

// Sentinels for errors.Is matching against *ShiftError.
var (
	ErrAlreadyOn            = errors.New("generator already on")
	ErrAlreadyOff           = errors.New("generator already off")
	ErrWrongShift           = errors.New("another shift is active")
	ErrAlreadyCompleted     = errors.New("shift already completed today")
	ErrPreviousNotCompleted = errors.New("previous shift not completed")
	ErrOutsideWorkHours     = errors.New("outside work hours")
)

var reasonSentinels = map[ShiftReason]error{
	ReasonAlreadyOn:            ErrAlreadyOn,
	ReasonAlreadyOff:           ErrAlreadyOff,
	ReasonWrongShift:           ErrWrongShift,
	ReasonAlreadyCompleted:     ErrAlreadyCompleted,
	ReasonPreviousNotCompleted: ErrPreviousNotCompleted,
	ReasonOutsideWorkHours:     ErrOutsideWorkHours,
}

// ShiftError is a refused start/stop. It carries what is actually running so
// the caller can explain the conflict.
type ShiftError struct {
	Reason    ShiftReason `json:"reason"`
	Active    Shift       `json:"active_shift,omitempty"`
	StartTime string      `json:"start_time,omitempty"`
	Previous  Shift       `json:"previous,omitempty"`
}

func (e *ShiftError) Error() string {
	switch e.Reason {
	case ReasonAlreadyOn:
		return fmt.Sprintf("generator already on: %s since %s", e.Active, e.StartTime)
	case ReasonWrongShift:
		return fmt.Sprintf("active shift is %s", e.Active)
	case ReasonPreviousNotCompleted:
		return fmt.Sprintf("previous shift %s not completed", e.Previous)
	}
	if s, ok := reasonSentinels[e.Reason]; ok {
		return s.Error()
	}
	return string(e.Reason)
}

// Is lets errors.Is(err, ErrAlreadyOn) match a *ShiftError with that reason.
func (e *ShiftError) Is(target error) bool {
	return reasonSentinels[e.Reason] == target
}
