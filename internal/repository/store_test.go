package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"generator_ledger/internal/models"
	"generator_ledger/internal/repository"
	"generator_ledger/internal/repository/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "gen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return repository.NewStore(conn, time.UTC)
}

func TestStore_SeededDefaults(t *testing.T) {
	s := newStore(t)

	st, err := s.Repos().State.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultGeneratorState(), st)

	h, err := s.Repos().Health.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.HealthState{}, h)
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(r *repository.Repository) error {
		ok, err := r.State.CompareAndSwapStatus(ctx, models.StatusOff, models.StatusOn)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, r.State.SetShift(ctx, models.Shift1, "08:00", "2026-05-04"))
		_, err = r.Events.Append(ctx, models.EventLogEntry{Kind: models.Shift1.StartKind(), Timestamp: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC), Actor: "a"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	st, err := s.Repos().State.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOff, st.Status)
	n, err := s.Repos().Events.CountUnsynced(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_FuelAndHoursArithmetic(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	r := s.Repos()

	require.NoError(t, r.State.SetFuel(ctx, 50))
	require.NoError(t, r.State.AdjustFuel(ctx, -10.5))
	require.NoError(t, r.State.AddEngineHours(ctx, 2.25))
	require.NoError(t, r.State.AddEngineHours(ctx, 0.75))

	st, err := r.State.Load(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 39.5, st.CurrentFuelLiters, 1e-9)
	assert.InDelta(t, 3.0, st.TotalEngineHours, 1e-9)

	require.NoError(t, r.State.AdjustFuel(ctx, -100))
	st, err = r.State.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.CurrentFuelLiters, "fuel is clamped at zero")
}

func TestStore_EventsUnsyncedLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	r := s.Repos()
	day := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	id1, err := r.Events.Append(ctx, models.EventLogEntry{Kind: models.EventRefill, Timestamp: day, Actor: "a", Payload: "20|R1", SecondaryActor: "Petro"})
	require.NoError(t, err)
	id2, err := r.Events.Append(ctx, models.EventLogEntry{Kind: models.Shift1.StartKind(), Timestamp: day.Add(time.Hour), Actor: "b"})
	require.NoError(t, err)
	_, err = r.Events.Append(ctx, models.EventLogEntry{Kind: models.EventRefill, Timestamp: day.AddDate(0, 0, 1), Actor: "a", Payload: "5|R2"})
	require.NoError(t, err)

	pending, err := r.Events.ListUnsynced(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, id1, pending[0].ID)
	assert.Equal(t, id2, pending[1].ID)

	after, err := r.Events.ListUnsynced(ctx, id1, 1)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, id2, after[0].ID)

	require.NoError(t, r.Events.MarkSynced(ctx, id1))
	n, err := r.Events.CountUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	refills, err := r.Events.ListForDate(ctx, "2026-05-04", models.EventRefill)
	require.NoError(t, err)
	require.Len(t, refills, 1)
	assert.True(t, refills[0].Synced)
	assert.Equal(t, "Petro", refills[0].SecondaryActor)

	has, err := r.Events.HasEventsForDate(ctx, "2026-05-06")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_ReferenceReplaceAndMaintenance(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(r *repository.Repository) error {
		if err := r.Reference.ReplaceDrivers(ctx, []string{"Petro", "Andrii"}); err != nil {
			return err
		}
		return r.Reference.ReplaceDrivers(ctx, []string{"Vasyl", "Petro"})
	}))
	drivers, err := s.Repos().Reference.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Petro", "Vasyl"}, drivers)

	_, err = s.Repos().Maintenance.Insert(ctx, models.MaintenanceRecord{Kind: models.MaintenanceOil, Hours: 812.5, Actor: "Olena"})
	require.NoError(t, err)
	recs, err := s.Repos().Maintenance.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.MaintenanceOil, recs[0].Kind)
	assert.InDelta(t, 812.5, recs[0].Hours, 1e-9)
}

func TestStore_HealthRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	in := models.HealthState{ForcedOffline: true, FirstFail: at, Offline: true, OfflineSince: at.Add(time.Minute)}
	require.NoError(t, s.Repos().Health.Save(ctx, in))

	out, err := s.Repos().Health.Load(ctx)
	require.NoError(t, err)
	assert.True(t, out.ForcedOffline)
	assert.True(t, out.Offline)
	assert.True(t, out.FirstFail.Equal(at))
	assert.True(t, out.OfflineSince.Equal(at.Add(time.Minute)))
	assert.True(t, out.LastOK.IsZero())
}

func TestStore_PersonnelBinding(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	uid, err := s.Repos().Auth.Create(ctx, "olena", "hash")
	require.NoError(t, err)

	name, err := s.Repos().Reference.PersonnelFor(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, name, "unbound user")

	require.NoError(t, s.Repos().Reference.BindPersonnel(ctx, uid, "Коваленко О."))
	require.NoError(t, s.Repos().Reference.BindPersonnel(ctx, uid, "Шевчук О."))
	name, err = s.Repos().Reference.PersonnelFor(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Шевчук О.", name)

	require.NoError(t, s.Repos().Reference.BindPersonnel(ctx, uid, ""))
	name, err = s.Repos().Reference.PersonnelFor(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, name)

	// the binding needs an existing user
	assert.Error(t, s.Repos().Reference.BindPersonnel(ctx, uid+100, "Шевчук О."))
}
