package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/notify"
	"generator_ledger/internal/repository"
	"generator_ledger/pkg/metrics"
)

var (
	ErrInvalidLiters = errors.New("liters must be a positive number")
	ErrEmptyActor    = errors.New("actor is required")
)

type FuelService struct {
	store    *repository.Store
	health   *HealthService
	clock    clock.Clock
	notifier notify.Notifier
	log      *logger.Logger

	burnRate  float64
	threshold float64
	cooldown  time.Duration
}

func NewFuelService(d Deps, health *HealthService) *FuelService {
	return &FuelService{
		store:     d.Store,
		health:    health,
		clock:     d.Clock,
		notifier:  d.Notifier,
		log:       d.Log.Named("fuel"),
		burnRate:  d.Config.Fuel.BurnRate,
		threshold: d.Config.Fuel.AlertThreshold,
		cooldown:  d.Config.Fuel.AlertCooldown,
	}
}

// Refuel logs a delivery. While the ledger is offline the local level is
// raised right away; online, the next canonical pull brings the new level.
func (s *FuelService) Refuel(ctx context.Context, req RefuelRequest) (RefuelResult, error) {
	if math.IsNaN(req.Liters) || math.IsInf(req.Liters, 0) || req.Liters <= 0 {
		return RefuelResult{}, ErrInvalidLiters
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return RefuelResult{}, ErrEmptyActor
	}

	var (
		res     RefuelResult
		latched bool
	)
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		id, err := r.Events.Append(ctx, models.EventLogEntry{
			Kind:           models.EventRefill,
			Timestamp:      s.clock.Now(),
			Actor:          actor,
			Payload:        models.RefillPayload(req.Liters, req.Receipt),
			SecondaryActor: strings.TrimSpace(req.Driver),
		})
		if err != nil {
			return err
		}
		res.EventID = id

		res.Offline, latched, err = s.health.evaluate(ctx, r)
		if err != nil {
			return err
		}
		if res.Offline {
			if err := r.State.AdjustFuel(ctx, req.Liters); err != nil {
				return err
			}
		}
		res.State, err = r.State.Load(ctx)
		return err
	})
	if err != nil {
		return RefuelResult{}, fmt.Errorf("refuel: %w", err)
	}
	if latched {
		s.health.wentOffline(ctx, "")
	}

	metrics.FuelLiters.Set(res.State.CurrentFuelLiters)
	s.log.Infow("refuel_logged", "event_id", res.EventID, "liters", req.Liters, "actor", actor, "offline", res.Offline)
	return res, nil
}

// Consumption is the fuel burned running for d at the configured rate.
func (s *FuelService) Consumption(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return d.Hours() * s.burnRate
}

// CheckLow raises a fuel_low notification when the level is under the
// threshold and the previous alert is older than the cooldown.
func (s *FuelService) CheckLow(ctx context.Context) (FuelAlert, error) {
	now := s.clock.Now()
	alert := FuelAlert{Threshold: s.threshold}
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		alert.FuelLiters = st.CurrentFuelLiters
		alert.LastAlert = st.FuelAlertAt
		if st.CurrentFuelLiters >= s.threshold {
			return nil
		}
		if !st.FuelAlertAt.IsZero() && now.Sub(st.FuelAlertAt) < s.cooldown {
			return nil
		}
		alert.Due = true
		alert.LastAlert = now
		return r.State.SetFuelAlertAt(ctx, now)
	})
	if err != nil {
		return FuelAlert{}, fmt.Errorf("check fuel level: %w", err)
	}

	metrics.FuelLiters.Set(alert.FuelLiters)
	if alert.Due {
		s.log.Warnw("fuel_low", "liters", alert.FuelLiters, "threshold", s.threshold)
		n := notify.Notification{Kind: notify.KindFuelLow, At: now, FuelLiters: alert.FuelLiters}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Warnw("notify_failed", "kind", n.Kind, "error", err)
		}
	}
	return alert, nil
}
