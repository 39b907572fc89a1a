package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
	"generator_ledger/internal/repository"
)

// maxCorrection bounds every corrected value, liters or engine hours.
const maxCorrection = 100000

var ErrInvalidCorrection = errors.New("correction must set at least one value between 0 and 100000")

// CorrectionRequest overwrites counters an operator knows to be wrong.
// Nil fields are left as they are.
type CorrectionRequest struct {
	Fuel        *float64
	EngineHours *float64
	LastOil     *float64
	LastSpark   *float64
	Actor       string
}

// CorrectionService applies manual corrections to the generator counters.
type CorrectionService struct {
	store *repository.Store
	clock clock.Clock
	log   *logger.Logger
}

func NewCorrectionService(d Deps) *CorrectionService {
	return &CorrectionService{store: d.Store, clock: d.Clock, log: d.Log.Named("correction")}
}

// Correct writes the given values and logs one state_correction event in the
// same transaction. It is refused with AlreadyOn while a shift is running.
func (s *CorrectionService) Correct(ctx context.Context, req CorrectionRequest) (models.GeneratorState, error) {
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return models.GeneratorState{}, ErrEmptyActor
	}
	payload, err := correctionPayload(req)
	if err != nil {
		return models.GeneratorState{}, err
	}

	var st models.GeneratorState
	err = s.store.WithTx(ctx, func(r *repository.Repository) error {
		cur, err := r.State.Load(ctx)
		if err != nil {
			return err
		}
		if cur.Running() {
			return alreadyOn(cur)
		}
		if req.Fuel != nil {
			if err := r.State.SetFuel(ctx, *req.Fuel); err != nil {
				return err
			}
		}
		if req.EngineHours != nil {
			if err := r.State.SetEngineHours(ctx, *req.EngineHours); err != nil {
				return err
			}
		}
		if req.LastOil != nil {
			if err := r.State.SetMaintenanceMark(ctx, models.MaintenanceOil, *req.LastOil); err != nil {
				return err
			}
		}
		if req.LastSpark != nil {
			if err := r.State.SetMaintenanceMark(ctx, models.MaintenanceSpark, *req.LastSpark); err != nil {
				return err
			}
		}
		if _, err := r.Events.Append(ctx, models.EventLogEntry{
			Kind:      models.EventStateCorrection,
			Timestamp: s.clock.Now(),
			Actor:     actor,
			Payload:   payload,
		}); err != nil {
			return err
		}
		st, err = r.State.Load(ctx)
		return err
	})
	if err != nil {
		return models.GeneratorState{}, fmt.Errorf("correct state: %w", err)
	}
	s.log.Infow("state_corrected", "actor", actor, "values", payload)
	return st, nil
}

// correctionPayload validates the request and renders the changed values as
// "fuel=171;hours=1200.5" in a fixed order.
func correctionPayload(req CorrectionRequest) (string, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"fuel", req.Fuel},
		{"hours", req.EngineHours},
		{"oil", req.LastOil},
		{"spark", req.LastSpark},
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.v == nil {
			continue
		}
		if *f.v < 0 || *f.v > maxCorrection {
			return "", fmt.Errorf("%s=%g: %w", f.name, *f.v, ErrInvalidCorrection)
		}
		parts = append(parts, f.name+"="+strconv.FormatFloat(*f.v, 'f', -1, 64))
	}
	if len(parts) == 0 {
		return "", ErrInvalidCorrection
	}
	return strings.Join(parts, ";"), nil
}
