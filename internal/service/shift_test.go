package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"generator_ledger/internal/ledger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftService_StartStop_Online(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setFuel(t, 50)

	started, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	assert.Equal(t, "09:00", started.StartTime)
	assert.Equal(t, models.StatusOn, started.State.Status)
	assert.Equal(t, "2026-05-04", started.State.ShiftStartDate)

	env.clock.Advance(2 * time.Hour)
	stopped, err := env.svc.Stop(ctx, StopRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, stopped.DurationHours, 1e-9)
	assert.InDelta(t, 10.0, stopped.ConsumedLiters, 1e-9)
	assert.False(t, stopped.Offline)

	// online: the ledger stays authoritative, nothing is booked locally
	st := env.state(t)
	assert.Equal(t, models.StatusOff, st.Status)
	assert.Equal(t, models.ShiftNone, st.ActiveShift)
	assert.Equal(t, 50.0, st.CurrentFuelLiters)
	assert.Zero(t, st.TotalEngineHours)

	assert.Equal(t, []models.EventKind{"m_start", "m_end"}, eventKinds(env.events(t)))
	assert.Equal(t, []notify.Kind{notify.KindShiftStarted, notify.KindShiftStopped}, env.sent.Kinds())
}

func TestShiftService_ConcurrentStart_SingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "operator"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	require.Len(t, errs, n-1)
	for _, err := range errs {
		var se *models.ShiftError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, models.ReasonAlreadyOn, se.Reason)
		assert.Equal(t, models.Shift1, se.Active)
		assert.Equal(t, "09:00", se.StartTime)
	}
	assert.Len(t, env.events(t), 1)
}

func TestShiftService_Stop_WrongShiftLeavesStateAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	before := env.state(t)

	_, err = env.svc.Stop(ctx, StopRequest{Shift: models.Shift2, Actor: "Ivan"})
	require.ErrorIs(t, err, models.ErrWrongShift)
	var se *models.ShiftError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.Shift1, se.Active)

	assert.Equal(t, before, env.state(t))
	assert.Len(t, env.events(t), 1)
}

func TestShiftService_Stop_WhenOff(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Stop(context.Background(), StopRequest{Shift: models.Shift1, Actor: "Olena"})
	assert.ErrorIs(t, err, models.ErrAlreadyOff)
}

func TestShiftService_ShiftOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift2, Actor: "Ivan"})
	var se *models.ShiftError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ReasonPreviousNotCompleted, se.Reason)
	assert.Equal(t, models.Shift1, se.Previous)

	_, err = env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	_, err = env.svc.Stop(ctx, StopRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)

	_, err = env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	assert.ErrorIs(t, err, models.ErrAlreadyCompleted)

	env.clock.Advance(time.Hour)
	_, err = env.svc.Start(ctx, StartRequest{Shift: models.Shift2, Actor: "Ivan"})
	require.NoError(t, err)

	// the extra shift has no prerequisite but cannot run next to another
	_, err = env.svc.Start(ctx, StartRequest{Shift: models.ShiftExtra, Actor: "Ivan"})
	assert.ErrorIs(t, err, models.ErrAlreadyOn)
}

func TestShiftService_Start_CompletedInLedger(t *testing.T) {
	env := newTestEnv(t)
	env.sheet.Set(mayTab, may4Row, 2, "07:40")
	env.sheet.Set(mayTab, may4Row, 3, "08:30")

	_, err := env.svc.Start(context.Background(), StartRequest{Shift: models.Shift1, Actor: "Olena"})
	assert.ErrorIs(t, err, models.ErrAlreadyCompleted)
}

func TestShiftService_Start_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.ShiftNone, Actor: "Olena"})
	assert.ErrorIs(t, err, ErrInvalidShift)
	_, err = env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "  "})
	assert.ErrorIs(t, err, ErrEmptyActor)

	env.clock.Set(time.Date(2026, 5, 4, 21, 0, 0, 0, time.UTC))
	_, err = env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	assert.ErrorIs(t, err, models.ErrOutsideWorkHours)
	assert.Empty(t, env.events(t))
}

func TestShiftService_Start_SelfHealsFromLedger(t *testing.T) {
	env := newTestEnv(t)
	env.sheet.Set(mayTab, may4Row, 2, "7:45")

	_, err := env.svc.Start(context.Background(), StartRequest{Shift: models.Shift2, Actor: "Ivan"})
	var se *models.ShiftError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ReasonAlreadyOn, se.Reason)
	assert.Equal(t, models.Shift1, se.Active)
	assert.Equal(t, "07:45", se.StartTime)

	st := env.state(t)
	assert.Equal(t, models.StatusOn, st.Status)
	assert.Equal(t, models.Shift1, st.ActiveShift)
	assert.Equal(t, "2026-05-04", st.ShiftStartDate)
}

func TestShiftService_Stop_ClosedInLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	env.sheet.Set(mayTab, may4Row, 2, "09:00")
	env.sheet.Set(mayTab, may4Row, 3, "10:00")

	_, err = env.svc.Stop(ctx, StopRequest{Shift: models.Shift1, Actor: "Olena"})
	assert.ErrorIs(t, err, models.ErrAlreadyOff)
	assert.Equal(t, models.StatusOff, env.state(t).Status)
}

func TestShiftService_Stop_OtherShiftOpenInLedger(t *testing.T) {
	env := newTestEnv(t)
	env.sheet.Set(mayTab, may4Row, 4, "08:00")

	_, err := env.svc.Stop(context.Background(), StopRequest{Shift: models.Shift1, Actor: "Olena"})
	var se *models.ShiftError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ReasonWrongShift, se.Reason)
	assert.Equal(t, models.Shift2, se.Active)
	assert.Equal(t, "08:00", se.StartTime)

	// local state follows the shift the ledger shows as running
	st := env.state(t)
	assert.Equal(t, models.StatusOn, st.Status)
	assert.Equal(t, models.Shift2, st.ActiveShift)
	assert.Equal(t, "08:00", st.ShiftStartTime)
	assert.Empty(t, env.events(t))
}

func TestShiftService_Stop_RealignsRunningShiftToLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.ShiftExtra, Actor: "Olena"})
	require.NoError(t, err)
	env.sheet.Set(mayTab, may4Row, 2, "08:15")

	_, err = env.svc.Stop(ctx, StopRequest{Shift: models.ShiftExtra, Actor: "Olena"})
	var se *models.ShiftError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ReasonWrongShift, se.Reason)
	assert.Equal(t, models.Shift1, se.Active)

	st := env.state(t)
	assert.Equal(t, models.StatusOn, st.Status)
	assert.Equal(t, models.Shift1, st.ActiveShift)

	_, err = env.svc.Stop(ctx, StopRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOff, env.state(t).Status)
}

func TestShiftService_StartAfterStopBeforeNextSync(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	_, err = env.svc.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, "09:00", env.cell(2))

	env.clock.Advance(2 * time.Hour)
	_, err = env.svc.Stop(ctx, StopRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)

	// the ledger still shows shift1 open until the end event is pushed
	require.Empty(t, env.cell(3))
	res, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift2, Actor: "Ivan"})
	require.NoError(t, err)
	assert.Equal(t, "11:00", res.StartTime)

	st := env.state(t)
	assert.Equal(t, models.StatusOn, st.Status)
	assert.Equal(t, models.Shift2, st.ActiveShift)
	assert.Equal(t, []models.EventKind{"m_start", "m_end", "d_start"}, eventKinds(env.events(t)))
}

func TestShiftService_ProbeFailureCountsAgainstLedger(t *testing.T) {
	env := newTestEnv(t)
	env.sheet.FailWith(errors.New("quota exceeded"))

	_, err := env.svc.Start(context.Background(), StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)

	h, err := env.health.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, may4, h.FirstFail.UTC())
	assert.False(t, h.Offline)
}

// An offline stop books 2h at 5 L/h locally; once the ledger is back the
// canonical value overrides the local estimate.
func TestShiftService_OfflineStop_LedgerWinsAfterReconnect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setFuel(t, 50)
	require.NoError(t, env.svc.ForceOffline(ctx, "admin"))

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	env.clock.Advance(2 * time.Hour)

	res, err := env.svc.Stop(ctx, StopRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	assert.True(t, res.Offline)
	assert.InDelta(t, 40.0, res.State.CurrentFuelLiters, 1e-9)
	assert.InDelta(t, 2.0, res.State.TotalEngineHours, 1e-9)

	require.NoError(t, env.svc.ForceOnline(ctx, "admin"))
	env.sheet.Set(mayTab, may4Row, ledger.ColEveningFuel, "38,5")

	_, err = env.svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 38.5, env.state(t).CurrentFuelLiters)
	assert.Equal(t, "09:00", env.cell(2))
	assert.Equal(t, "11:00", env.cell(3))
}

func TestShiftService_ForceOff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.ForceOff(ctx, SystemActor, "")
	require.NoError(t, err)
	assert.Equal(t, models.ShiftNone, res.Shift)
	assert.Empty(t, env.events(t), "nothing logged while off")

	_, err = env.svc.Start(ctx, StartRequest{Shift: models.ShiftExtra, Actor: "Olena"})
	require.NoError(t, err)
	env.clock.Advance(30 * time.Minute)

	res, err = env.svc.ForceOff(ctx, SystemActor, "")
	require.NoError(t, err)
	assert.Equal(t, models.ShiftExtra, res.Shift)
	assert.InDelta(t, 0.5, res.DurationHours, 1e-9)
	assert.NotZero(t, res.EventID)
	assert.Equal(t, models.StatusOff, env.state(t).Status)
	assert.Equal(t, []models.EventKind{"x_start", "x_end"}, eventKinds(env.events(t)))
}

func TestShiftService_ForceOff_ReasonLoggedAndEndSynced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	env.clock.Advance(90 * time.Minute)

	_, err = env.svc.ForceOff(ctx, SystemActor, models.EventAutoClose)
	require.NoError(t, err)

	events := env.events(t)
	assert.Equal(t, []models.EventKind{"m_start", "m_end", "auto_close"}, eventKinds(events))
	assert.Equal(t, SystemActor, events[1].Actor)

	_, err = env.svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "09:00", env.cell(2))
	assert.Equal(t, "10:30", env.cell(3))
}

func TestShiftService_InWorkHours(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2026, 5, 4, h, m, 0, 0, time.UTC) }

	s := &ShiftService{workStart: 7*time.Hour + 30*time.Minute, workEnd: 20*time.Hour + 30*time.Minute}
	assert.False(t, s.InWorkHours(day(7, 29)))
	assert.True(t, s.InWorkHours(day(7, 30)))
	assert.True(t, s.InWorkHours(day(20, 30)))
	assert.False(t, s.InWorkHours(day(20, 31)))

	night := &ShiftService{workStart: 22 * time.Hour, workEnd: 6 * time.Hour}
	assert.True(t, night.InWorkHours(day(23, 0)))
	assert.True(t, night.InWorkHours(day(2, 0)))
	assert.False(t, night.InWorkHours(day(12, 0)))
}

func TestShiftDuration(t *testing.T) {
	now := time.Date(2026, 5, 4, 1, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		st   models.GeneratorState
		want time.Duration
	}{
		{"with date", models.GeneratorState{ShiftStartTime: "00:30", ShiftStartDate: "2026-05-04"}, time.Hour},
		{"no date, started yesterday", models.GeneratorState{ShiftStartTime: "23:30"}, 2 * time.Hour},
		{"no date, started today", models.GeneratorState{ShiftStartTime: "01:00"}, 30 * time.Minute},
		{"longer than a day", models.GeneratorState{ShiftStartTime: "01:00", ShiftStartDate: "2026-05-02"}, 0},
		{"in the future", models.GeneratorState{ShiftStartTime: "03:00", ShiftStartDate: "2026-05-04"}, 0},
		{"unreadable", models.GeneratorState{ShiftStartTime: "soon"}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ShiftDuration(c.st, now))
		})
	}
}

func TestNormalizeClock(t *testing.T) {
	assert.Equal(t, "07:45", normalizeClock("7:45"))
	assert.Equal(t, "07:45", normalizeClock(" 07:45:10 "))
	assert.Equal(t, "???", normalizeClock("???"))
}
