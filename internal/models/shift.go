package models

import (
	"fmt"
	"strings"
)

// Shift identifies a work shift. ShiftNone means no shift is running.
type Shift string

const (
	ShiftNone  Shift = "none"
	Shift1     Shift = "shift1"
	Shift2     Shift = "shift2"
	Shift3     Shift = "shift3"
	ShiftExtra Shift = "extra"
)

// shiftCodes are the one-letter prefixes used in event kinds and ledger layouts.
var shiftCodes = map[Shift]string{
	Shift1:     "m",
	Shift2:     "d",
	Shift3:     "e",
	ShiftExtra: "x",
}

// Shifts lists the real shifts in ledger column order.
var Shifts = []Shift{Shift1, Shift2, Shift3, ShiftExtra}

// ParseShift accepts the shift name or its one-letter code.
func ParseShift(s string) (Shift, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", string(ShiftNone):
		return ShiftNone, nil
	}
	for sh, code := range shiftCodes {
		if s == string(sh) || s == code {
			return sh, nil
		}
	}
	// legacy state rows stored the start event kind ("m_start") as the active shift
	if code, ok := strings.CutSuffix(s, "_start"); ok {
		return ParseShift(code)
	}
	return ShiftNone, fmt.Errorf("unknown shift %q", s)
}

// Code returns the one-letter shift code, or "" for ShiftNone.
func (s Shift) Code() string { return shiftCodes[s] }

// Valid reports whether s is one of the runnable shifts.
func (s Shift) Valid() bool {
	_, ok := shiftCodes[s]
	return ok
}

// Previous returns the shift that must be completed before s can start.
// shift1 and extra have no prerequisite.
func (s Shift) Previous() (Shift, bool) {
	switch s {
	case Shift2:
		return Shift1, true
	case Shift3:
		return Shift2, true
	default:
		return ShiftNone, false
	}
}

// StartKind is the event kind logged when the shift starts.
func (s Shift) StartKind() EventKind { return EventKind(s.Code() + "_start") }

// EndKind is the event kind logged when the shift ends.
func (s Shift) EndKind() EventKind { return EventKind(s.Code() + "_end") }
