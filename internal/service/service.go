package service

import (
	"context"
	"time"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/config"
	"generator_ledger/internal/ledger"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/notify"
	"generator_ledger/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Shifts starts and stops generator shifts.
type Shifts interface {
	Start(ctx context.Context, req StartRequest) (ShiftResult, error)
	Stop(ctx context.Context, req StopRequest) (ShiftResult, error)
	// ForceOff turns the generator off whatever shift is running.
	ForceOff(ctx context.Context, actor string, reason models.EventKind) (ShiftResult, error)
}

// Health is the ledger circuit breaker.
type Health interface {
	MarkOK(ctx context.Context) error
	MarkFail(ctx context.Context) error
	IsOffline(ctx context.Context) (bool, error)
	ShouldProbe(ctx context.Context) (bool, error)
	ForceOffline(ctx context.Context, actor string) error
	ForceOnline(ctx context.Context, actor string) error
	Snapshot(ctx context.Context) (models.HealthState, error)
}

// Reconciler pushes local events to the ledger and pulls canonical values back.
type Reconciler interface {
	RunCycle(ctx context.Context) (CycleReport, error)
	RefreshCanonical(ctx context.Context) error
	// Run repeats RunCycle until ctx is canceled.
	Run(ctx context.Context)
}

type Fuel interface {
	Refuel(ctx context.Context, req RefuelRequest) (RefuelResult, error)
	Consumption(d time.Duration) float64
	CheckLow(ctx context.Context) (FuelAlert, error)
}

type Maintenance interface {
	Record(ctx context.Context, kind models.MaintenanceKind, actor string) (models.MaintenanceRecord, error)
	Status(ctx context.Context) ([]models.MaintenanceStatus, error)
	History(ctx context.Context, limit int) ([]models.MaintenanceRecord, error)
}

// Monitoring exposes read-only state.
type Monitoring interface {
	GetState(ctx context.Context) (Snapshot, error)
}

// EventLog exposes the append-only log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.EventLogEntry, error)
	Unsynced(ctx context.Context) (int, error)
}

type Reference interface {
	Drivers(ctx context.Context) ([]string, error)
	Personnel(ctx context.Context) ([]string, error)
	BindPersonnel(ctx context.Context, userID int, name string) error
	// PersonnelFor returns "" for a user without a binding.
	PersonnelFor(ctx context.Context, userID int) (string, error)
}

// Correction overwrites fuel, engine hours and service marks by hand.
type Correction interface {
	Correct(ctx context.Context, req CorrectionRequest) (models.GeneratorState, error)
}

// Scheduler closes shifts left open past the end of the working day.
// Stop it via context cancellation in main() for graceful shutdown.
type Scheduler interface {
	OpenShiftPastEnd(ctx context.Context) (OpenShiftReport, error)
	AutoClose(ctx context.Context) (ShiftResult, error)
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Shifts
	Health
	Reconciler
	Fuel
	Maintenance
	Monitoring
	EventLog
	Reference
	Correction
	Scheduler
	Authorization
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store    *repository.Store
	Ledger   *ledger.Client
	Clock    clock.Clock
	Notifier notify.Notifier
	Log      *logger.Logger
	Config   *config.Config
}

// NewService wires the store, the ledger and the configuration into concrete services.
func NewService(d Deps) *Service {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Clock == nil {
		d.Clock = clock.Real(d.Config.Location())
	}

	health := NewHealthService(d)
	fuel := NewFuelService(d, health)
	shifts := NewShiftService(d, health, fuel)
	maintenance := NewMaintenanceService(d)

	return &Service{
		Shifts:        shifts,
		Health:        health,
		Reconciler:    NewReconcileService(d, health),
		Fuel:          fuel,
		Maintenance:   maintenance,
		Monitoring:    NewMonitoringService(d, health, maintenance),
		EventLog:      NewEventLogService(d.Store.Repos().Events),
		Reference:     NewReferenceService(d.Store.Repos().Reference),
		Correction:    NewCorrectionService(d),
		Scheduler:     NewSchedulerService(d, shifts),
		Authorization: NewAuthService(d.Store.Repos().Auth, d.Config.Auth.SigningKey, d.Config.Auth.TokenTTL, d.Clock),
	}
}
