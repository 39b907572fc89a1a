// Package notify publishes state changes for external collaborators (the chat
// front end, alerting). It carries typed facts only; rendering them for humans
// is the subscriber's job.
package notify

import (
	"context"
	"sync"
	"time"

	"generator_ledger/internal/models"
)

type Kind string

const (
	KindShiftStarted  Kind = "shift_started"
	KindShiftStopped  Kind = "shift_stopped"
	KindAutoClosed    Kind = "auto_closed"
	KindFuelLow       Kind = "fuel_low"
	KindLedgerOffline Kind = "ledger_offline"
	KindLedgerOnline  Kind = "ledger_online"
)

// Notification is the JSON body published for every Kind.
type Notification struct {
	Kind          Kind         `json:"kind"`
	At            time.Time    `json:"at"`
	Shift         models.Shift `json:"shift,omitempty"`
	Actor         string       `json:"actor,omitempty"`
	DurationHours float64      `json:"duration_hours,omitempty"`
	FuelLiters    float64      `json:"fuel_liters,omitempty"`
	Detail        string       `json:"detail,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Close()
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }
func (Nop) Close()                                     {}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() {}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// Kinds lists the recorded kinds in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Kind
	}
	return out
}
