package service

import (
	"context"

	"generator_ledger/internal/repository"
)

type MonitoringService struct {
	store       *repository.Store
	health      *HealthService
	maintenance *MaintenanceService
}

func NewMonitoringService(d Deps, health *HealthService, maintenance *MaintenanceService) *MonitoringService {
	return &MonitoringService{store: d.Store, health: health, maintenance: maintenance}
}

// GetState returns the persisted generator state together with ledger health,
// the sync backlog and service intervals.
func (s *MonitoringService) GetState(ctx context.Context) (Snapshot, error) {
	repos := s.store.Repos()

	var (
		snap Snapshot
		err  error
	)
	if snap.State, err = repos.State.Load(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Offline, err = s.health.IsOffline(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Health, err = repos.Health.Load(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Unsynced, err = repos.Events.CountUnsynced(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Maintenance, err = s.maintenance.Status(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
