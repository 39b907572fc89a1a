package service

import (
	"context"
	"testing"

	"generator_ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitoringService_GetState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	snap, err := env.svc.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultGeneratorState(), snap.State)
	assert.False(t, snap.Offline)
	assert.Zero(t, snap.Unsynced)
	assert.Len(t, snap.Maintenance, 2)

	_, err = env.svc.Start(ctx, StartRequest{Shift: models.Shift1, Actor: "Olena"})
	require.NoError(t, err)
	require.NoError(t, env.svc.ForceOffline(ctx, "admin"))

	snap, err = env.svc.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOn, snap.State.Status)
	assert.Equal(t, models.Shift1, snap.State.ActiveShift)
	assert.True(t, snap.Offline)
	assert.True(t, snap.Health.ForcedOffline)
	assert.Equal(t, 2, snap.Unsynced)
}
