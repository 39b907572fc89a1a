package models

import (
	"fmt"
	"strings"
	"time"
)

// MaintenanceKind is a tracked service item.
type MaintenanceKind string

const (
	MaintenanceOil   MaintenanceKind = "oil"
	MaintenanceSpark MaintenanceKind = "spark"
)

// ParseMaintenanceKind validates a kind name.
func ParseMaintenanceKind(s string) (MaintenanceKind, error) {
	switch k := MaintenanceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case MaintenanceOil, MaintenanceSpark:
		return k, nil
	}
	return "", fmt.Errorf("unknown maintenance kind %q", s)
}

// EventKind is the log kind recorded when this service is performed.
func (k MaintenanceKind) EventKind() EventKind {
	if k == MaintenanceSpark {
		return EventMaintenanceSpark
	}
	return EventMaintenanceOil
}

// MaintenanceRecord is a row of the maintenance history.
type MaintenanceRecord struct {
	ID          int64           `json:"id"`
	PerformedAt time.Time       `json:"performed_at"`
	Kind        MaintenanceKind `json:"kind"`
	Hours       float64         `json:"hours"`
	Actor       string          `json:"actor"`
}

// MaintenanceStatus describes how close an item is to its next service.
type MaintenanceStatus struct {
	Kind        MaintenanceKind `json:"kind"`
	LastAtHours float64         `json:"last_at_hours"`
	SinceHours  float64         `json:"since_hours"`
	LeftHours   float64         `json:"left_hours"`
	Overdue     bool            `json:"overdue"`
}
