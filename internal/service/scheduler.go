package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/notify"
	"generator_ledger/internal/repository"
)

// SchedulerService closes shifts left running after work hours and raises
// low-fuel alerts.
type SchedulerService struct {
	store    *repository.Store
	shifts   *ShiftService
	fuel     *FuelService
	clock    clock.Clock
	notifier notify.Notifier
	log      *logger.Logger
}

func NewSchedulerService(d Deps, shifts *ShiftService) *SchedulerService {
	return &SchedulerService{
		store:    d.Store,
		shifts:   shifts,
		fuel:     shifts.fuel,
		clock:    d.Clock,
		notifier: d.Notifier,
		log:      d.Log.Named("scheduler"),
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SchedulerService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	s.log.Infow("scheduler_started", "tick", tick)
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("scheduler_stopped")
			return
		case <-t.C:
			if _, err := s.AutoClose(ctx); err != nil && ctx.Err() == nil {
				s.log.Errorw("auto_close_failed", "error", err)
			}
			if _, err := s.fuel.CheckLow(ctx); err != nil && ctx.Err() == nil {
				s.log.Errorw("fuel_check_failed", "error", err)
			}
		}
	}
}

// OpenShiftPastEnd reports the running shift when the generator is ON outside work hours.
func (s *SchedulerService) OpenShiftPastEnd(ctx context.Context) (OpenShiftReport, error) {
	st, err := s.store.Repos().State.Load(ctx)
	if err != nil {
		return OpenShiftReport{}, err
	}
	if !st.Running() || s.shifts.InWorkHours(s.clock.Now()) {
		return OpenShiftReport{Shift: models.ShiftNone}, nil
	}
	return OpenShiftReport{
		Open:      true,
		Shift:     st.ActiveShift,
		StartTime: st.ShiftStartTime,
		StartDate: st.ShiftStartDate,
	}, nil
}

// AutoClose stops a shift left open past work hours as SystemActor. When the
// regular stop is refused for anything but "already off", the generator is
// forced off so it never stays ON overnight.
func (s *SchedulerService) AutoClose(ctx context.Context) (ShiftResult, error) {
	open, err := s.OpenShiftPastEnd(ctx)
	if err != nil {
		return ShiftResult{}, fmt.Errorf("auto close: %w", err)
	}
	if !open.Open {
		return ShiftResult{Shift: models.ShiftNone}, nil
	}

	forced := false
	res, err := s.shifts.Stop(ctx, StopRequest{Shift: open.Shift, Actor: SystemActor, Reason: models.EventAutoClose})
	if err != nil {
		if errors.Is(err, models.ErrAlreadyOff) {
			s.log.Infow("auto_close_already_off", "shift", open.Shift)
			return ShiftResult{Shift: models.ShiftNone}, nil
		}
		s.log.Warnw("auto_close_fallback", "shift", open.Shift, "error", err)
		if res, err = s.shifts.ForceOff(ctx, SystemActor, models.EventAutoClose); err != nil {
			return ShiftResult{}, fmt.Errorf("auto close: %w", err)
		}
		forced = true
	}

	s.log.Infow("auto_closed",
		"shift", res.Shift,
		"duration_hours", res.DurationHours,
		"consumed_liters", res.ConsumedLiters,
		"forced", forced,
		"offline", res.Offline,
	)
	detail := ""
	if forced {
		detail = "forced"
	}
	n := notify.Notification{
		Kind:          notify.KindAutoClosed,
		At:            res.At,
		Shift:         res.Shift,
		Actor:         SystemActor,
		DurationHours: res.DurationHours,
		FuelLiters:    res.State.CurrentFuelLiters,
		Detail:        detail,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warnw("notify_failed", "kind", n.Kind, "error", err)
	}
	return res, nil
}
