package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/ledger"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/repository"
	"generator_ledger/pkg/backoff"
	"generator_ledger/pkg/metrics"
)

const (
	maxBackoffFactor = 10
	// hoursImportSlack is how far the ledger may be ahead of local hours
	// before the initial import overwrites them.
	hoursImportSlack = 0.05
)

// ReconcileService keeps the spreadsheet and the local store converging:
// local events are pushed idempotently, canonical fuel and engine hours are
// pulled back.
type ReconcileService struct {
	store  *repository.Store
	ledger *ledger.Client
	health *HealthService
	clock  clock.Clock
	log    *logger.Logger

	interval     time.Duration
	batchSize    int
	canonicalTTL time.Duration

	mu            sync.Mutex
	lastCanonical time.Time
}

func NewReconcileService(d Deps, health *HealthService) *ReconcileService {
	return &ReconcileService{
		store:        d.Store,
		ledger:       d.Ledger,
		health:       health,
		clock:        d.Clock,
		log:          d.Log.Named("reconcile"),
		interval:     d.Config.Sync.Interval,
		batchSize:    d.Config.Sync.BatchSize,
		canonicalTTL: d.Config.Sync.CanonicalTTL,
	}
}

// Run repeats RunCycle every interval until ctx is canceled. Consecutive
// failures stretch the wait up to ten intervals.
func (s *ReconcileService) Run(ctx context.Context) {
	b := backoff.New(s.interval, maxBackoffFactor*s.interval, 2)
	s.log.Infow("reconciler_started", "interval", s.interval)
	for {
		wait := s.interval
		if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			wait = b.Next()
			s.log.Warnw("reconcile_cycle_failed", "error", err, "attempt", b.Attempts(), "retry_in", wait)
		} else {
			b.Reset()
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			s.log.Infow("reconciler_stopped")
			return
		case <-t.C:
		}
	}
}

// RunCycle performs one pass: probe, initial import, reference lists, event
// push, canonical pull. Any ledger error marks the ledger failed and aborts
// the pass; nothing already written is lost, the next pass repeats it.
func (s *ReconcileService) RunCycle(ctx context.Context) (CycleReport, error) {
	started := time.Now()
	rep := CycleReport{ID: uuid.NewString()}
	log := s.log.With("cycle_id", rep.ID)

	offline, err := s.health.IsOffline(ctx)
	if err != nil {
		return rep, err
	}
	if offline {
		probe, err := s.health.ShouldProbe(ctx)
		if err != nil {
			return rep, err
		}
		if !probe {
			rep.Skipped = true
			metrics.ReconcileCycles.WithLabelValues("skipped").Inc()
			log.Debugw("reconcile_skipped_offline")
			return rep, nil
		}
	}

	err = s.cycle(ctx, &rep, log)
	rep.Duration = time.Since(started)
	metrics.ReconcileDuration.Observe(rep.Duration.Seconds())
	if err != nil {
		metrics.ReconcileCycles.WithLabelValues("failed").Inc()
		if ferr := s.health.MarkFail(ctx); ferr != nil {
			log.Errorw("mark_fail_failed", "error", ferr)
		}
		return rep, fmt.Errorf("reconcile cycle %s: %w", rep.ID, err)
	}

	metrics.ReconcileCycles.WithLabelValues("ok").Inc()
	if n, err := s.store.Repos().Events.CountUnsynced(ctx); err == nil {
		metrics.UnsyncedBacklog.Set(float64(n))
	}
	log.Infow("reconcile_cycle_done", "synced", rep.Synced, "pending", rep.Pending, "duration", rep.Duration)
	return rep, nil
}

func (s *ReconcileService) cycle(ctx context.Context, rep *CycleReport, log *logger.Logger) error {
	if err := s.ledger.Ping(ctx); err != nil {
		return err
	}
	if err := s.health.MarkOK(ctx); err != nil {
		return err
	}

	now := s.clock.Now()
	canon, err := s.ledger.ReadCanonical(ctx, now)
	if err != nil {
		return err
	}
	if err := s.initialImport(ctx, canon, now); err != nil {
		return err
	}

	if err := s.syncReferences(ctx, now); err != nil {
		return err
	}

	if err := s.pushEvents(ctx, rep, log); err != nil {
		return err
	}

	canon, err = s.ledger.ReadCanonical(ctx, now)
	if err != nil {
		return err
	}
	if err := s.applyCanonical(ctx, canon, rep); err != nil {
		return err
	}
	s.touchCanonical(now)
	return nil
}

// initialImport seeds an empty local store from the ledger: fuel from the
// morning cell when nothing happened today, hours when the ledger is ahead.
func (s *ReconcileService) initialImport(ctx context.Context, canon ledger.Canonical, now time.Time) error {
	if !canon.Found {
		return nil
	}
	return s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		if canon.HasMorningFuel && st.CurrentFuelLiters <= 0 {
			busy, err := r.Events.HasEventsForDate(ctx, now.Format(models.DateLayout))
			if err != nil {
				return err
			}
			if !busy {
				if err := r.State.SetFuel(ctx, canon.MorningFuel); err != nil {
					return err
				}
				s.log.Infow("fuel_imported", "liters", canon.MorningFuel)
			}
		}
		if canon.HasHours && (st.TotalEngineHours <= 0 || canon.Hours > st.TotalEngineHours+hoursImportSlack) {
			if err := r.State.SetEngineHours(ctx, canon.Hours); err != nil {
				return err
			}
			s.log.Infow("engine_hours_imported", "hours", canon.Hours, "local", st.TotalEngineHours)
		}
		return nil
	})
}

func (s *ReconcileService) syncReferences(ctx context.Context, now time.Time) error {
	drivers, personnel, err := s.ledger.ReadReferenceLists(ctx, now)
	if err != nil {
		return err
	}
	if len(drivers) == 0 && len(personnel) == 0 {
		return nil
	}
	return s.store.WithTx(ctx, func(r *repository.Repository) error {
		if len(drivers) > 0 {
			if err := r.Reference.ReplaceDrivers(ctx, drivers); err != nil {
				return err
			}
		}
		if len(personnel) > 0 {
			if err := r.Reference.ReplacePersonnel(ctx, personnel); err != nil {
				return err
			}
		}
		return nil
	})
}

type dateRow struct {
	row   int
	found bool
}

// pushEvents writes unsynced events in id order. Every write sets cells to a
// value derived from the local log, so a retry after a partial failure
// rewrites the same values. Events that have to wait for a ledger row are
// skipped, and paging continues past them until batchSize events were
// written or the queue is exhausted.
func (s *ReconcileService) pushEvents(ctx context.Context, rep *CycleReport, log *logger.Logger) error {
	events := s.store.Repos().Events
	p := pushPass{
		rows:      make(map[string]dateRow),
		refuelled: make(map[string]bool),
		rep:       rep,
		log:       log,
	}

	var after int64
	for {
		page, err := events.ListUnsynced(ctx, after, s.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if !p.tabReady {
			if err := s.ledger.EnsureLogsTab(ctx); err != nil {
				return err
			}
			p.tabReady = true
		}
		for _, e := range page {
			if s.batchSize > 0 && p.written >= s.batchSize {
				return nil
			}
			if err := s.pushOne(ctx, &p, e); err != nil {
				return err
			}
		}
		if s.batchSize <= 0 || len(page) < s.batchSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

// pushPass is the per-cycle cache shared by pushOne calls.
type pushPass struct {
	rows      map[string]dateRow
	refuelled map[string]bool
	tabReady  bool
	written   int
	rep       *CycleReport
	log       *logger.Logger
}

func (s *ReconcileService) pushOne(ctx context.Context, p *pushPass, e models.EventLogEntry) error {
	if err := s.ledger.UpsertAuditRow(ctx, e); err != nil {
		return err
	}

	if e.Timestamp.IsZero() || !touchesDayRow(e.Kind) {
		if e.Timestamp.IsZero() {
			p.log.Warnw("event_without_timestamp", "event_id", e.ID, "kind", e.Kind)
		}
		return s.markSynced(ctx, p, e)
	}

	date := e.Date()
	dr, ok := p.rows[date]
	if !ok {
		row, found, err := s.ledger.FindDateRow(ctx, e.Timestamp)
		if err != nil {
			return err
		}
		dr = dateRow{row: row, found: found}
		p.rows[date] = dr
	}
	if !dr.found {
		p.rep.Pending++
		p.log.Warnw("ledger_date_row_missing", "event_id", e.ID, "date", date, "tab", s.ledger.TabFor(e.Timestamp))
		return nil
	}

	switch {
	case e.Kind == models.EventRefill:
		if !p.refuelled[date] {
			refills, err := s.store.Repos().Events.ListForDate(ctx, date, models.EventRefill)
			if err != nil {
				return err
			}
			if err := s.ledger.WriteRefuelTotals(ctx, e.Timestamp, dr.row, ledger.AggregateRefills(refills)); err != nil {
				return err
			}
			p.refuelled[date] = true
		}
	case e.Kind == models.EventMaintenanceOil, e.Kind == models.EventMaintenanceSpark:
		if err := s.ledger.WriteMaintenance(ctx, dr.row, e); err != nil {
			return err
		}
	default:
		if err := s.ledger.WriteShiftEvent(ctx, dr.row, e); err != nil {
			return err
		}
	}
	return s.markSynced(ctx, p, e)
}

func (s *ReconcileService) markSynced(ctx context.Context, p *pushPass, e models.EventLogEntry) error {
	if err := s.store.Repos().Events.MarkSynced(ctx, e.ID); err != nil {
		return err
	}
	p.written++
	p.rep.Synced++
	metrics.EventsSynced.WithLabelValues(string(e.Kind)).Inc()
	return nil
}

func touchesDayRow(k models.EventKind) bool {
	if _, _, ok := k.ShiftEvent(); ok {
		return true
	}
	switch k {
	case models.EventRefill, models.EventMaintenanceOil, models.EventMaintenanceSpark:
		return true
	}
	return false
}

// applyCanonical overwrites local fuel and hours with the values found in the ledger.
func (s *ReconcileService) applyCanonical(ctx context.Context, canon ledger.Canonical, rep *CycleReport) error {
	if !canon.Found || (!canon.HasFuel && !canon.HasHours) {
		return nil
	}
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if canon.HasFuel {
			if err := r.State.SetFuel(ctx, canon.Fuel); err != nil {
				return err
			}
		}
		if canon.HasHours {
			if err := r.State.SetEngineHours(ctx, canon.Hours); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if canon.HasFuel {
		fuel := canon.Fuel
		rep.Fuel = &fuel
		metrics.FuelLiters.Set(fuel)
	}
	if canon.HasHours {
		hours := canon.Hours
		rep.Hours = &hours
	}
	return nil
}

// RefreshCanonical pulls today's fuel and hours without pushing anything. It
// is rate limited by the canonical TTL and does nothing while offline.
func (s *ReconcileService) RefreshCanonical(ctx context.Context) error {
	offline, err := s.health.IsOffline(ctx)
	if err != nil || offline {
		return err
	}

	now := s.clock.Now()
	s.mu.Lock()
	fresh := !s.lastCanonical.IsZero() && now.Sub(s.lastCanonical) < s.canonicalTTL
	if !fresh {
		s.lastCanonical = now
	}
	s.mu.Unlock()
	if fresh {
		return nil
	}

	canon, err := s.ledger.ReadCanonical(ctx, now)
	if err != nil {
		s.touchCanonical(time.Time{})
		if ferr := s.health.MarkFail(ctx); ferr != nil {
			s.log.Errorw("mark_fail_failed", "error", ferr)
		}
		return fmt.Errorf("refresh canonical values: %w", err)
	}
	if err := s.health.MarkOK(ctx); err != nil {
		return err
	}
	return s.applyCanonical(ctx, canon, &CycleReport{})
}

func (s *ReconcileService) touchCanonical(at time.Time) {
	s.mu.Lock()
	s.lastCanonical = at
	s.mu.Unlock()
}
