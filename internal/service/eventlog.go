package service

import (
	"context"
	"errors"
	"strings"

	"generator_ledger/internal/models"
	"generator_ledger/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errNegativeLimit    = errors.New("limit must not be negative")
)

// normalizeEventKind trims spaces and lowercases the kind filter.
func normalizeEventKind(s string) models.EventKind {
	return models.EventKind(strings.TrimSpace(strings.ToLower(s)))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (repository.EventFilter, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return repository.EventFilter{}, errInvalidTimeRange
	}
	if f.Limit < 0 {
		return repository.EventFilter{}, errNegativeLimit
	}
	return repository.EventFilter{
		From:     f.From,
		To:       f.To,
		Kind:     normalizeEventKind(f.Kind),
		Unsynced: f.Unsynced,
		Limit:    f.Limit,
	}, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.EventLogEntry, error) {
	rf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, rf)
}

// Unsynced counts events the ledger has not received yet.
func (s *EventLogService) Unsynced(ctx context.Context) (int, error) {
	return s.eventRepo.CountUnsynced(ctx)
}
