package service

import (
	"context"
	"testing"
	"time"

	"generator_ledger/internal/models"
	"generator_ledger/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AutoCloseAfterWorkHours(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.clock.Set(time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC))
	_, err := env.svc.Start(ctx, StartRequest{Shift: models.ShiftExtra, Actor: "Olena"})
	require.NoError(t, err)

	open, err := env.svc.OpenShiftPastEnd(ctx)
	require.NoError(t, err)
	assert.False(t, open.Open, "still inside work hours")

	env.clock.Set(time.Date(2026, 5, 4, 20, 45, 0, 0, time.UTC))
	open, err = env.svc.OpenShiftPastEnd(ctx)
	require.NoError(t, err)
	assert.True(t, open.Open)
	assert.Equal(t, models.ShiftExtra, open.Shift)
	assert.Equal(t, "18:00", open.StartTime)

	res, err := env.svc.AutoClose(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftExtra, res.Shift)
	assert.InDelta(t, 2.75, res.DurationHours, 1e-9)
	assert.Equal(t, models.StatusOff, env.state(t).Status)

	assert.Equal(t, []models.EventKind{"x_start", "x_end", models.EventAutoClose}, eventKinds(env.events(t)))
	ends := env.events(t)[1]
	assert.Equal(t, SystemActor, ends.Actor)
	assert.Contains(t, env.sent.Kinds(), notify.KindAutoClosed)

	// nothing left to close
	res, err = env.svc.AutoClose(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftNone, res.Shift)
	assert.Len(t, env.events(t), 3)
}

func TestScheduler_AutoCloseAlreadyClosedInLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	env.sheet.Set(mayTab, may4Row, 2, "09:00")
	env.sheet.Set(mayTab, may4Row, 3, "12:00")

	env.clock.Set(time.Date(2026, 5, 4, 21, 0, 0, 0, time.UTC))
	res, err := env.svc.AutoClose(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftNone, res.Shift)
	assert.Equal(t, models.StatusOff, env.state(t).Status)
	assert.NotContains(t, eventKinds(env.events(t)), models.EventAutoClose)
}

func TestScheduler_AutoCloseForcesOffOnWrongShift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.clock.Set(time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC))
	_, err := env.svc.Start(ctx, StartRequest{Shift: models.ShiftExtra, Actor: "Olena"})
	require.NoError(t, err)
	env.sheet.Set(mayTab, may4Row, 2, "18:10")

	env.clock.Set(time.Date(2026, 5, 4, 20, 45, 0, 0, time.UTC))
	res, err := env.svc.AutoClose(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Shift1, res.Shift)
	assert.Equal(t, models.StatusOff, env.state(t).Status)

	events := env.events(t)
	assert.Equal(t, []models.EventKind{"x_start", "m_end", models.EventAutoClose}, eventKinds(events))
	assert.Equal(t, SystemActor, events[2].Actor)

	_, err = env.svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20:45", env.cell(3))
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		env.scheduler.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
