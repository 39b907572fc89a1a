package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/config"
	"generator_ledger/internal/ledger"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/notify"
	"generator_ledger/internal/repository"
	"generator_ledger/pkg/metrics"
)

const (
	// SystemActor is recorded for transitions nobody pressed a button for.
	SystemActor = "System"

	probeTimeout     = 10 * time.Second
	maxShiftDuration = 24 * time.Hour
)

var ErrInvalidShift = errors.New("unknown shift")

// ShiftService runs the on/off state machine. Every transition is one
// compare-and-swap on the status row inside a single transaction, so
// concurrent presses produce exactly one winner.
type ShiftService struct {
	store    *repository.Store
	ledger   *ledger.Client
	health   *HealthService
	fuel     *FuelService
	clock    clock.Clock
	notifier notify.Notifier
	log      *logger.Logger

	workStart time.Duration
	workEnd   time.Duration
}

func NewShiftService(d Deps, health *HealthService, fuel *FuelService) *ShiftService {
	// both values were checked by config.Validate
	start, _ := config.ParseClock(d.Config.Shifts.WorkStart)
	end, _ := config.ParseClock(d.Config.Shifts.WorkEnd)
	return &ShiftService{
		store:     d.Store,
		ledger:    d.Ledger,
		health:    health,
		fuel:      fuel,
		clock:     d.Clock,
		notifier:  d.Notifier,
		log:       d.Log.Named("shift"),
		workStart: start,
		workEnd:   end,
	}
}

func (s *ShiftService) Start(ctx context.Context, req StartRequest) (ShiftResult, error) {
	res, err := s.start(ctx, req)
	s.count("start", err)
	if err != nil {
		return ShiftResult{}, err
	}

	s.log.Infow("shift_started", "shift", res.Shift, "actor", req.Actor, "event_id", res.EventID)
	s.publish(ctx, notify.Notification{
		Kind:  notify.KindShiftStarted,
		At:    res.At,
		Shift: res.Shift,
		Actor: strings.TrimSpace(req.Actor),
	})
	return res, nil
}

func (s *ShiftService) start(ctx context.Context, req StartRequest) (ShiftResult, error) {
	if !req.Shift.Valid() {
		return ShiftResult{}, ErrInvalidShift
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return ShiftResult{}, ErrEmptyActor
	}

	now := s.clock.Now()
	if !s.InWorkHours(now) {
		return ShiftResult{}, &models.ShiftError{Reason: models.ReasonOutsideWorkHours}
	}

	day, probed := s.probe(ctx, now)
	if probed {
		if err := s.healFromLedger(ctx, day, now); err != nil {
			return ShiftResult{}, err
		}
	}

	var res ShiftResult
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		if st.Running() {
			return alreadyOn(st)
		}

		completed, err := s.completedToday(ctx, r, now, day, probed)
		if err != nil {
			return err
		}
		if completed[req.Shift] {
			return &models.ShiftError{Reason: models.ReasonAlreadyCompleted}
		}
		if prev, ok := req.Shift.Previous(); ok && !completed[prev] {
			return &models.ShiftError{Reason: models.ReasonPreviousNotCompleted, Previous: prev}
		}

		won, err := r.State.CompareAndSwapStatus(ctx, models.StatusOff, models.StatusOn)
		if err != nil {
			return err
		}
		if !won {
			if st, err = r.State.Load(ctx); err != nil {
				return err
			}
			return alreadyOn(st)
		}

		startTime := now.Format("15:04")
		if err := r.State.SetShift(ctx, req.Shift, startTime, now.Format(models.DateLayout)); err != nil {
			return err
		}
		id, err := r.Events.Append(ctx, models.EventLogEntry{Kind: req.Shift.StartKind(), Timestamp: now, Actor: actor})
		if err != nil {
			return err
		}
		res = ShiftResult{Shift: req.Shift, EventID: id, At: now, StartTime: startTime}
		res.State, err = r.State.Load(ctx)
		return err
	})
	if err != nil {
		return ShiftResult{}, wrapShiftErr("start "+string(req.Shift), err)
	}
	return res, nil
}

func (s *ShiftService) Stop(ctx context.Context, req StopRequest) (ShiftResult, error) {
	res, err := s.stop(ctx, req)
	s.count("stop", err)
	if err != nil {
		return ShiftResult{}, err
	}

	s.log.Infow("shift_stopped",
		"shift", res.Shift,
		"actor", req.Actor,
		"duration_hours", res.DurationHours,
		"offline", res.Offline,
	)
	s.publish(ctx, notify.Notification{
		Kind:          notify.KindShiftStopped,
		At:            res.At,
		Shift:         res.Shift,
		Actor:         strings.TrimSpace(req.Actor),
		DurationHours: res.DurationHours,
		FuelLiters:    res.State.CurrentFuelLiters,
	})
	return res, nil
}

func (s *ShiftService) stop(ctx context.Context, req StopRequest) (ShiftResult, error) {
	if !req.Shift.Valid() {
		return ShiftResult{}, ErrInvalidShift
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return ShiftResult{}, ErrEmptyActor
	}

	now := s.clock.Now()
	if day, probed := s.probe(ctx, now); probed {
		if day.Completed[req.Shift] {
			if err := s.syncClosed(ctx, req.Shift); err != nil {
				return ShiftResult{}, err
			}
			return ShiftResult{}, &models.ShiftError{Reason: models.ReasonAlreadyOff}
		}
		if err := s.healFromLedger(ctx, day, now); err != nil {
			return ShiftResult{}, err
		}
		// the local transaction below reports WrongShift against the healed state
	}

	var (
		res     ShiftResult
		latched bool
	)
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		if !st.Running() {
			return &models.ShiftError{Reason: models.ReasonAlreadyOff}
		}
		if st.ActiveShift != req.Shift {
			return &models.ShiftError{Reason: models.ReasonWrongShift, Active: st.ActiveShift, StartTime: st.ShiftStartTime}
		}

		res, latched, err = s.turnOff(ctx, r, st, now)
		if err != nil {
			return err
		}
		res.EventID, err = appendEnd(ctx, r, req.Shift, now, actor, req.Reason)
		return err
	})
	if err != nil {
		return ShiftResult{}, wrapShiftErr("stop "+string(req.Shift), err)
	}
	if latched {
		s.health.wentOffline(ctx, "")
	}
	return res, nil
}

// ForceOff turns the generator off without checking which shift runs. The
// shift's end event, and reason when set, are logged in the same transaction
// as the OFF transition. Offline accounting still applies.
func (s *ShiftService) ForceOff(ctx context.Context, actor string, reason models.EventKind) (ShiftResult, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ShiftResult{}, ErrEmptyActor
	}
	now := s.clock.Now()
	var (
		res     ShiftResult
		latched bool
	)
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		if !st.Running() {
			res = ShiftResult{Shift: models.ShiftNone, At: now, State: st}
			return nil
		}
		res, latched, err = s.turnOff(ctx, r, st, now)
		if err != nil {
			return err
		}
		res.EventID, err = appendEnd(ctx, r, st.ActiveShift, now, actor, reason)
		return err
	})
	s.count("force_off", err)
	if err != nil {
		return ShiftResult{}, wrapShiftErr("force off", err)
	}
	if latched {
		s.health.wentOffline(ctx, "")
	}
	s.log.Warnw("shift_forced_off", "shift", res.Shift, "actor", actor, "reason", reason, "duration_hours", res.DurationHours)
	return res, nil
}

// appendEnd logs the end of shift and, when reason is set, a second event
// saying why. It returns the id of the end event.
func appendEnd(ctx context.Context, r *repository.Repository, shift models.Shift, now time.Time, actor string, reason models.EventKind) (int64, error) {
	id, err := r.Events.Append(ctx, models.EventLogEntry{Kind: shift.EndKind(), Timestamp: now, Actor: actor})
	if err != nil || reason == "" {
		return id, err
	}
	_, err = r.Events.Append(ctx, models.EventLogEntry{Kind: reason, Timestamp: now, Actor: actor})
	return id, err
}

// turnOff flips an ON state to OFF and, while the ledger is offline, books
// the run time and burned fuel locally.
func (s *ShiftService) turnOff(ctx context.Context, r *repository.Repository, st models.GeneratorState, now time.Time) (ShiftResult, bool, error) {
	won, err := r.State.CompareAndSwapStatus(ctx, models.StatusOn, models.StatusOff)
	if err != nil {
		return ShiftResult{}, false, err
	}
	if !won {
		return ShiftResult{}, false, &models.ShiftError{Reason: models.ReasonAlreadyOff}
	}
	if err := r.State.ClearShift(ctx); err != nil {
		return ShiftResult{}, false, err
	}

	dur := ShiftDuration(st, now)
	res := ShiftResult{
		Shift:          st.ActiveShift,
		At:             now,
		StartTime:      st.ShiftStartTime,
		DurationHours:  dur.Hours(),
		ConsumedLiters: s.fuel.Consumption(dur),
	}

	offline, latched, err := s.health.evaluate(ctx, r)
	if err != nil {
		return ShiftResult{}, false, err
	}
	res.Offline = offline
	if offline {
		if err := r.State.AddEngineHours(ctx, res.DurationHours); err != nil {
			return ShiftResult{}, false, err
		}
		if err := r.State.AdjustFuel(ctx, -res.ConsumedLiters); err != nil {
			return ShiftResult{}, false, err
		}
	}

	res.State, err = r.State.Load(ctx)
	if err != nil {
		return ShiftResult{}, false, err
	}
	metrics.FuelLiters.Set(res.State.CurrentFuelLiters)
	return res, latched, nil
}

// probe reads today's shift cells once. probed is false when the app is
// offline or the read failed; a failed read counts against ledger health.
func (s *ShiftService) probe(ctx context.Context, now time.Time) (day ledger.DayShifts, probed bool) {
	offline, err := s.health.IsOffline(ctx)
	if err != nil {
		s.log.Warnw("health_check_failed", "error", err)
		return day, false
	}
	if offline {
		return day, false
	}

	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	day, err = s.ledger.ReadDayShifts(pctx, now)
	if err != nil || !day.Found {
		s.log.Warnw("ledger_probe_failed", "date", now.Format(models.DateLayout), "found", day.Found, "error", err)
		if ferr := s.health.MarkFail(ctx); ferr != nil {
			s.log.Errorw("mark_fail_failed", "error", ferr)
		}
		return day, false
	}
	if err := s.health.MarkOK(ctx); err != nil {
		s.log.Errorw("mark_ok_failed", "error", err)
	}
	return day, true
}

// healFromLedger aligns local state with a shift the ledger shows as open.
// A ledger row whose open shift already has an end event in today's local
// log is waiting for the next sync and is not followed.
func (s *ShiftService) healFromLedger(ctx context.Context, day ledger.DayShifts, now time.Time) error {
	if day.Open == models.ShiftNone {
		return nil
	}
	ended, err := s.store.Repos().Events.ListForDate(ctx, now.Format(models.DateLayout), day.Open.EndKind())
	if err != nil {
		return fmt.Errorf("check local end of %s: %w", day.Open, err)
	}
	if len(ended) > 0 {
		s.log.Debugw("ledger_row_not_synced_yet", "shift", day.Open)
		return nil
	}
	return s.selfHeal(ctx, day.Open, day.StartTimes[day.Open], now)
}

// selfHeal makes local state match a shift the ledger shows as open.
func (s *ShiftService) selfHeal(ctx context.Context, open models.Shift, cell string, now time.Time) error {
	startTime := normalizeClock(cell)
	startDate := now
	if c, err := config.ParseClock(startTime); err == nil && c > sinceMidnight(now) {
		startDate = now.AddDate(0, 0, -1)
	}

	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		if st.Running() && st.ActiveShift == open {
			return nil
		}
		if _, err := r.State.CompareAndSwapStatus(ctx, models.StatusOff, models.StatusOn); err != nil {
			return err
		}
		s.log.Warnw("shift_self_healed", "shift", open, "local_shift", st.ActiveShift, "start_time", startTime)
		return r.State.SetShift(ctx, open, startTime, startDate.Format(models.DateLayout))
	})
	if err != nil {
		return fmt.Errorf("align state with ledger: %w", err)
	}
	return nil
}

// syncClosed turns local state off when it still runs a shift the ledger has closed.
func (s *ShiftService) syncClosed(ctx context.Context, shift models.Shift) error {
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		if !st.Running() || st.ActiveShift != shift {
			return nil
		}
		if _, err := r.State.CompareAndSwapStatus(ctx, models.StatusOn, models.StatusOff); err != nil {
			return err
		}
		s.log.Warnw("shift_closed_in_ledger", "shift", shift)
		return r.State.ClearShift(ctx)
	})
	if err != nil {
		return fmt.Errorf("align state with ledger: %w", err)
	}
	return nil
}

// completedToday merges shifts ended in the local log with those the ledger shows ended.
func (s *ShiftService) completedToday(ctx context.Context, r *repository.Repository, now time.Time, day ledger.DayShifts, probed bool) (map[models.Shift]bool, error) {
	kinds := make([]models.EventKind, 0, len(models.Shifts))
	for _, sh := range models.Shifts {
		kinds = append(kinds, sh.EndKind())
	}
	ended, err := r.Events.ListForDate(ctx, now.Format(models.DateLayout), kinds...)
	if err != nil {
		return nil, err
	}

	completed := make(map[models.Shift]bool)
	for _, e := range ended {
		if sh, start, ok := e.Kind.ShiftEvent(); ok && !start {
			completed[sh] = true
		}
	}
	if probed {
		for sh, done := range day.Completed {
			if done {
				completed[sh] = true
			}
		}
	}
	return completed, nil
}

// InWorkHours reports whether now falls in the work window, ends inclusive.
// A window whose end is before its start crosses midnight.
func (s *ShiftService) InWorkHours(now time.Time) bool {
	tod := sinceMidnight(now)
	if s.workStart <= s.workEnd {
		return tod >= s.workStart && tod <= s.workEnd
	}
	return tod >= s.workStart || tod <= s.workEnd
}

func (s *ShiftService) count(action string, err error) {
	result := "ok"
	var se *models.ShiftError
	switch {
	case err == nil:
	case errors.As(err, &se):
		result = string(se.Reason)
	default:
		result = "error"
	}
	metrics.ShiftTransitions.WithLabelValues(action, result).Inc()
}

func (s *ShiftService) publish(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warnw("notify_failed", "kind", n.Kind, "error", err)
	}
}

// ShiftDuration is how long the shift in st has been running at now. The start
// date defaults to today, or yesterday when the start time is later than now.
// Unreadable starts and durations outside 0..24h count as zero.
func ShiftDuration(st models.GeneratorState, now time.Time) time.Duration {
	startClock, err := config.ParseClock(st.ShiftStartTime)
	if err != nil {
		return 0
	}

	loc := now.Location()
	day, err := time.ParseInLocation(models.DateLayout, st.ShiftStartDate, loc)
	if err != nil {
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		if startClock > sinceMidnight(now) {
			day = day.AddDate(0, 0, -1)
		}
	}
	start := time.Date(day.Year(), day.Month(), day.Day(),
		int(startClock/time.Hour), int(startClock%time.Hour/time.Minute), 0, 0, loc)

	d := now.Sub(start)
	if d < 0 || d > maxShiftDuration {
		return 0
	}
	return d
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// normalizeClock turns a ledger time cell ("7:45", "07:45:00") into HH:MM.
func normalizeClock(cell string) string {
	cell = strings.TrimSpace(cell)
	if parts := strings.SplitN(cell, ":", 3); len(parts) == 3 {
		cell = parts[0] + ":" + parts[1]
	}
	if c, err := config.ParseClock(cell); err == nil {
		return fmt.Sprintf("%02d:%02d", int(c/time.Hour), int(c%time.Hour/time.Minute))
	}
	return cell
}

func alreadyOn(st models.GeneratorState) error {
	return &models.ShiftError{Reason: models.ReasonAlreadyOn, Active: st.ActiveShift, StartTime: st.ShiftStartTime}
}

// wrapShiftErr keeps refusals as they are and adds context to everything else.
func wrapShiftErr(op string, err error) error {
	var se *models.ShiftError
	if errors.As(err, &se) {
		return se
	}
	return fmt.Errorf("%s: %w", op, err)
}
