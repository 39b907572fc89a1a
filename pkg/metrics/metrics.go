// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcileCycles counts reconciliation cycles by result: ok, failed, skipped.
	ReconcileCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_reconcile_cycles_total",
		Help: "Reconciliation cycles by result",
	}, []string{"result"})

	// ReconcileDuration measures a full cycle including ledger round trips.
	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "generator_reconcile_duration_seconds",
		Help:    "Duration of a reconciliation cycle in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// EventsSynced counts events marked synced, by event kind.
	EventsSynced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_events_synced_total",
		Help: "Events pushed to the ledger and marked synced",
	}, []string{"kind"})

	// UnsyncedBacklog is the number of events waiting for the ledger.
	// A growing value while the ledger is online means rows are missing in the sheet.
	UnsyncedBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "generator_unsynced_events",
		Help: "Events not yet written to the ledger",
	})

	// LedgerOnline is 1 while the ledger is authoritative, 0 while offline.
	LedgerOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "generator_ledger_online",
		Help: "1 when the spreadsheet ledger is online, 0 when the app runs offline",
	})

	// ShiftTransitions counts start/stop attempts by action and result.
	ShiftTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_shift_transitions_total",
		Help: "Shift start/stop attempts by action and result",
	}, []string{"action", "result"})

	// FuelLiters mirrors the local fuel level.
	FuelLiters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "generator_fuel_liters",
		Help: "Current fuel level known to the app",
	})
)
