package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"generator_ledger/internal/models"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository can run
// standalone or inside a transaction opened by Store.WithTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// StateRepo persists GeneratorState.
type StateRepo interface {
	Load(ctx context.Context) (models.GeneratorState, error)
	// CompareAndSwapStatus flips status only if it currently equals from.
	CompareAndSwapStatus(ctx context.Context, from, to models.Status) (bool, error)
	SetShift(ctx context.Context, shift models.Shift, startTime, startDate string) error
	ClearShift(ctx context.Context) error
	AddEngineHours(ctx context.Context, delta float64) error
	SetEngineHours(ctx context.Context, hours float64) error
	AdjustFuel(ctx context.Context, delta float64) error
	SetFuel(ctx context.Context, liters float64) error
	SetMaintenanceMark(ctx context.Context, kind models.MaintenanceKind, hours float64) error
	SetFuelAlertAt(ctx context.Context, at time.Time) error
}

// HealthRepo persists the ledger circuit breaker bookkeeping.
type HealthRepo interface {
	Load(ctx context.Context) (models.HealthState, error)
	Save(ctx context.Context, h models.HealthState) error
}

// EventRepo is the append-only event log.
type EventRepo interface {
	Append(ctx context.Context, e models.EventLogEntry) (int64, error)
	ListUnsynced(ctx context.Context, afterID int64, limit int) ([]models.EventLogEntry, error)
	CountUnsynced(ctx context.Context) (int, error)
	MarkSynced(ctx context.Context, id int64) error
	ListForDate(ctx context.Context, date string, kinds ...models.EventKind) ([]models.EventLogEntry, error)
	HasEventsForDate(ctx context.Context, date string) (bool, error)
	List(ctx context.Context, f EventFilter) ([]models.EventLogEntry, error)
}

// ReferenceRepo holds the lookup lists mirrored from the ledger.
type ReferenceRepo interface {
	ReplaceDrivers(ctx context.Context, names []string) error
	ReplacePersonnel(ctx context.Context, names []string) error
	ListDrivers(ctx context.Context) ([]string, error)
	ListPersonnel(ctx context.Context) ([]string, error)
	// BindPersonnel links a user to a personnel name. An empty name removes the link.
	BindPersonnel(ctx context.Context, userID int, name string) error
	// PersonnelFor returns the bound name, or "" when the user has none.
	PersonnelFor(ctx context.Context, userID int) (string, error)
}

type MaintenanceRepo interface {
	Insert(ctx context.Context, r models.MaintenanceRecord) (int64, error)
	List(ctx context.Context, limit int) ([]models.MaintenanceRecord, error)
}

// EventFilter narrows List. Zero values mean no bound.
type EventFilter struct {
	From     time.Time
	To       time.Time
	Kind     models.EventKind
	Unsynced bool
	Limit    int
}

type Repository struct {
	State       StateRepo
	Health      HealthRepo
	Events      EventRepo
	Reference   ReferenceRepo
	Maintenance MaintenanceRepo
	Auth        Authorization
}

// newRepository binds every repository to q.
func newRepository(q DBTX, loc *time.Location) *Repository {
	return &Repository{
		State:       NewStateSQLite(q),
		Health:      NewHealthSQLite(q),
		Events:      NewEventSQLite(q, loc),
		Reference:   NewReferenceSQLite(q),
		Maintenance: NewMaintenanceSQLite(q, loc),
		Auth:        NewUserRepository(q),
	}
}

// Store owns the database handle and the transaction boundary.
type Store struct {
	db  *sql.DB
	loc *time.Location
	*Repository
}

// NewStore wires repositories over db. loc is the zone of stored civil timestamps.
func NewStore(db *sql.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: db, loc: loc, Repository: newRepository(db, loc)}
}

// Repos returns repositories bound to the plain handle, for reads outside a transaction.
func (s *Store) Repos() *Repository { return s.Repository }

// WithTx runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(r *Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(newRepository(tx, s.loc)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
