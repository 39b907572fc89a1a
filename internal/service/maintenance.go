package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/repository"
)

const defaultHistoryLimit = 50

type MaintenanceService struct {
	store  *repository.Store
	clock  clock.Clock
	log    *logger.Logger
	limits map[models.MaintenanceKind]float64
}

func NewMaintenanceService(d Deps) *MaintenanceService {
	return &MaintenanceService{
		store: d.Store,
		clock: d.Clock,
		log:   d.Log.Named("maintenance"),
		limits: map[models.MaintenanceKind]float64{
			models.MaintenanceOil:   d.Config.Maintenance.OilLimitHours,
			models.MaintenanceSpark: d.Config.Maintenance.SparkLimitHours,
		},
	}
}

// Record stores a service performed now, at the current engine hours.
func (s *MaintenanceService) Record(ctx context.Context, kind models.MaintenanceKind, actor string) (models.MaintenanceRecord, error) {
	if _, ok := s.limits[kind]; !ok {
		return models.MaintenanceRecord{}, fmt.Errorf("unknown maintenance kind %q", kind)
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return models.MaintenanceRecord{}, ErrEmptyActor
	}

	rec := models.MaintenanceRecord{PerformedAt: s.clock.Now(), Kind: kind, Actor: actor}
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		rec.Hours = st.TotalEngineHours
		if rec.ID, err = r.Maintenance.Insert(ctx, rec); err != nil {
			return err
		}
		if err := r.State.SetMaintenanceMark(ctx, kind, rec.Hours); err != nil {
			return err
		}
		_, err = r.Events.Append(ctx, models.EventLogEntry{
			Kind:      kind.EventKind(),
			Timestamp: rec.PerformedAt,
			Actor:     actor,
			Payload:   strconv.FormatFloat(rec.Hours, 'f', -1, 64),
		})
		return err
	})
	if err != nil {
		return models.MaintenanceRecord{}, fmt.Errorf("record %s service: %w", kind, err)
	}
	s.log.Infow("maintenance_recorded", "kind", kind, "hours", rec.Hours, "actor", actor)
	return rec, nil
}

// Status reports hours since the last service and hours left until the limit.
func (s *MaintenanceService) Status(ctx context.Context) ([]models.MaintenanceStatus, error) {
	st, err := s.store.Repos().State.Load(ctx)
	if err != nil {
		return nil, err
	}
	return []models.MaintenanceStatus{
		serviceStatus(models.MaintenanceOil, st.TotalEngineHours, st.LastOilChangeHours, s.limits[models.MaintenanceOil]),
		serviceStatus(models.MaintenanceSpark, st.TotalEngineHours, st.LastSparkChangeHours, s.limits[models.MaintenanceSpark]),
	}, nil
}

func (s *MaintenanceService) History(ctx context.Context, limit int) ([]models.MaintenanceRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.Repos().Maintenance.List(ctx, limit)
}

func serviceStatus(kind models.MaintenanceKind, total, last, limit float64) models.MaintenanceStatus {
	since := total - last
	if since < 0 {
		since = 0
	}
	left := limit - since
	return models.MaintenanceStatus{
		Kind:        kind,
		LastAtHours: last,
		SinceHours:  since,
		LeftHours:   left,
		Overdue:     left <= 0,
	}
}
