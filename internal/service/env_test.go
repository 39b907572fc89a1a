package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/config"
	"generator_ledger/internal/ledger"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/notify"
	"generator_ledger/internal/repository"
	"generator_ledger/internal/repository/db"

	"github.com/stretchr/testify/require"
)

const mayTab = "ТРАВЕНЬ"

// may4 is a Monday morning inside the default work window. Its ledger row is 6.
var may4 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

const may4Row = 6

// testEnv is a full service graph over a real SQLite file and an in-memory sheet.
type testEnv struct {
	svc   *Service
	conn  *sql.DB
	store *repository.Store
	sheet *ledger.MemorySheet
	clock *clock.FakeClock
	sent  *notify.Recorder

	shifts    *ShiftService
	health    *HealthService
	reconcile *ReconcileService
	fuel      *FuelService
	scheduler *SchedulerService
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Timezone: "UTC",
		Auth:     config.AuthConfig{SigningKey: "test", TokenTTL: time.Hour},
		Ledger:   config.LedgerConfig{Driver: "memory"},
		Health:   config.HealthConfig{OfflineThreshold: 24 * time.Hour, ProbeCooldown: 5 * time.Minute},
		Sync:     config.SyncConfig{Interval: time.Minute, CanonicalTTL: 30 * time.Second, BatchSize: 200},
		Shifts:   config.ShiftConfig{WorkStart: "07:30", WorkEnd: "20:30", SchedulerTick: 30 * time.Second},
		Fuel:     config.FuelConfig{BurnRate: 5, AlertThreshold: 40, AlertCooldown: time.Hour},
		Maintenance: config.MaintenanceConfig{
			OilLimitHours:   100,
			SparkLimitHours: 100,
		},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.InitDB(filepath.Join(t.TempDir(), "gen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sheet := ledger.NewMemorySheet()
	sheet.Set(mayTab, 1, ledger.ColDate, "ДАТА")
	for d := 1; d <= 31; d++ {
		sheet.Set(mayTab, d+2, ledger.ColDate, strconv.Itoa(d))
	}

	env := &testEnv{
		conn:  conn,
		store: repository.NewStore(conn, time.UTC),
		sheet: sheet,
		clock: clock.Fake(may4),
		sent:  &notify.Recorder{},
	}
	env.svc = NewService(Deps{
		Store:    env.store,
		Ledger:   ledger.NewClient(sheet, ledger.Options{}),
		Clock:    env.clock,
		Notifier: env.sent,
		Log:      logger.Nop(),
		Config:   testConfig(t),
	})
	env.shifts = env.svc.Shifts.(*ShiftService)
	env.health = env.svc.Health.(*HealthService)
	env.reconcile = env.svc.Reconciler.(*ReconcileService)
	env.fuel = env.svc.Fuel.(*FuelService)
	env.scheduler = env.svc.Scheduler.(*SchedulerService)
	return env
}

func (e *testEnv) state(t *testing.T) models.GeneratorState {
	t.Helper()
	st, err := e.store.Repos().State.Load(context.Background())
	require.NoError(t, err)
	return st
}

func (e *testEnv) setFuel(t *testing.T, liters float64) {
	t.Helper()
	require.NoError(t, e.store.Repos().State.SetFuel(context.Background(), liters))
}

func (e *testEnv) events(t *testing.T) []models.EventLogEntry {
	t.Helper()
	out, err := e.store.Repos().Events.List(context.Background(), repository.EventFilter{})
	require.NoError(t, err)
	return out
}

func eventKinds(entries []models.EventLogEntry) []models.EventKind {
	out := make([]models.EventKind, len(entries))
	for i, e := range entries {
		out[i] = e.Kind
	}
	return out
}

// cell reads one cell of today's row in the May tab.
func (e *testEnv) cell(col int) string {
	return e.sheet.Cell(mayTab, may4Row, col)
}
