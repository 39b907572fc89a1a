package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/notify"
	"generator_ledger/internal/repository"
	"generator_ledger/pkg/metrics"
)

// HealthService decides whether the ledger is authoritative. Failures only
// switch the app offline after they have lasted the whole threshold without a
// single success in between; a manual override pins the state until cleared.
type HealthService struct {
	store     *repository.Store
	clock     clock.Clock
	notifier  notify.Notifier
	log       *logger.Logger
	threshold time.Duration
	cooldown  time.Duration

	mu        sync.Mutex
	lastProbe time.Time
}

func NewHealthService(d Deps) *HealthService {
	return &HealthService{
		store:     d.Store,
		clock:     d.Clock,
		notifier:  d.Notifier,
		log:       d.Log.Named("health"),
		threshold: d.Config.Health.OfflineThreshold,
		cooldown:  d.Config.Health.ProbeCooldown,
	}
}

// MarkOK records a successful ledger call. It clears the failure streak and
// brings the app back online unless offline was forced.
func (s *HealthService) MarkOK(ctx context.Context) error {
	var cameOnline bool
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		h, err := r.Health.Load(ctx)
		if err != nil {
			return err
		}
		h.LastOK = s.clock.Now()
		if !h.ForcedOffline {
			cameOnline = h.Offline
			h.FirstFail = time.Time{}
			h.Offline = false
			h.OfflineSince = time.Time{}
		}
		return r.Health.Save(ctx, h)
	})
	if err != nil {
		return fmt.Errorf("mark ledger ok: %w", err)
	}
	if cameOnline {
		s.wentOnline(ctx, "")
	}
	return nil
}

// MarkFail records a failed ledger call. Only the first failure of a streak
// is timestamped.
func (s *HealthService) MarkFail(ctx context.Context) error {
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		h, err := r.Health.Load(ctx)
		if err != nil {
			return err
		}
		if !h.FirstFail.IsZero() {
			return nil
		}
		h.FirstFail = s.clock.Now()
		return r.Health.Save(ctx, h)
	})
	if err != nil {
		return fmt.Errorf("mark ledger failure: %w", err)
	}
	return nil
}

// IsOffline reports whether local state is authoritative. Crossing the
// failure threshold latches the offline flag.
func (s *HealthService) IsOffline(ctx context.Context) (bool, error) {
	var offline, latched bool
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		var err error
		offline, latched, err = s.evaluate(ctx, r)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("evaluate ledger health: %w", err)
	}
	if latched {
		s.wentOffline(ctx, "")
	}
	return offline, nil
}

// evaluate is IsOffline for callers that already hold a transaction. The
// caller owns the notification when latched is true.
func (s *HealthService) evaluate(ctx context.Context, r *repository.Repository) (offline, latched bool, err error) {
	h, err := r.Health.Load(ctx)
	if err != nil {
		return false, false, err
	}
	switch {
	case h.ForcedOffline, h.Offline:
		metrics.LedgerOnline.Set(0)
		return true, false, nil
	case h.FirstFail.IsZero():
		metrics.LedgerOnline.Set(1)
		return false, false, nil
	}

	now := s.clock.Now()
	if now.Sub(h.FirstFail) < s.threshold {
		metrics.LedgerOnline.Set(1)
		return false, false, nil
	}
	h.Offline = true
	h.OfflineSince = now
	if err := r.Health.Save(ctx, h); err != nil {
		return false, false, err
	}
	metrics.LedgerOnline.Set(0)
	s.log.Warnw("ledger_offline", "first_fail", h.FirstFail, "threshold", s.threshold)
	return true, true, nil
}

// ShouldProbe reports whether a ledger call may be attempted now. Online it
// always may; offline it may once per cooldown; forced offline never.
func (s *HealthService) ShouldProbe(ctx context.Context) (bool, error) {
	h, err := s.store.Repos().Health.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load ledger health: %w", err)
	}
	if h.ForcedOffline {
		return false, nil
	}
	offline, err := s.IsOffline(ctx)
	if err != nil {
		return false, err
	}
	if !offline {
		return true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if !s.lastProbe.IsZero() && now.Sub(s.lastProbe) < s.cooldown {
		return false, nil
	}
	s.lastProbe = now
	return true, nil
}

// ForceOffline pins the app offline until ForceOnline.
func (s *HealthService) ForceOffline(ctx context.Context, actor string) error {
	now := s.clock.Now()
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		h, err := r.Health.Load(ctx)
		if err != nil {
			return err
		}
		h.ForcedOffline = true
		h.Offline = true
		if h.OfflineSince.IsZero() {
			h.OfflineSince = now
		}
		if h.FirstFail.IsZero() {
			h.FirstFail = now
		}
		if err := r.Health.Save(ctx, h); err != nil {
			return err
		}
		_, err = r.Events.Append(ctx, models.EventLogEntry{Kind: models.EventForceOffline, Timestamp: now, Actor: actor})
		return err
	})
	if err != nil {
		return fmt.Errorf("force offline: %w", err)
	}
	metrics.LedgerOnline.Set(0)
	s.log.Infow("ledger_forced_offline", "actor", actor)
	s.wentOffline(ctx, actor)
	return nil
}

// ForceOnline clears the override and the failure streak.
func (s *HealthService) ForceOnline(ctx context.Context, actor string) error {
	now := s.clock.Now()
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		h, err := r.Health.Load(ctx)
		if err != nil {
			return err
		}
		h.ForcedOffline = false
		h.Offline = false
		h.OfflineSince = time.Time{}
		h.FirstFail = time.Time{}
		if err := r.Health.Save(ctx, h); err != nil {
			return err
		}
		_, err = r.Events.Append(ctx, models.EventLogEntry{Kind: models.EventForceOnline, Timestamp: now, Actor: actor})
		return err
	})
	if err != nil {
		return fmt.Errorf("force online: %w", err)
	}

	s.mu.Lock()
	s.lastProbe = time.Time{}
	s.mu.Unlock()

	metrics.LedgerOnline.Set(1)
	s.log.Infow("ledger_forced_online", "actor", actor)
	s.wentOnline(ctx, actor)
	return nil
}

func (s *HealthService) Snapshot(ctx context.Context) (models.HealthState, error) {
	return s.store.Repos().Health.Load(ctx)
}

func (s *HealthService) wentOffline(ctx context.Context, actor string) {
	s.publish(ctx, notify.Notification{Kind: notify.KindLedgerOffline, At: s.clock.Now(), Actor: actor})
}

func (s *HealthService) wentOnline(ctx context.Context, actor string) {
	s.publish(ctx, notify.Notification{Kind: notify.KindLedgerOnline, At: s.clock.Now(), Actor: actor})
}

func (s *HealthService) publish(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warnw("notify_failed", "kind", n.Kind, "error", err)
	}
}
