package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"generator_ledger/internal/repository"
)

var ErrUnknownPerson = errors.New("name is not in the personnel list")

// ReferenceService serves the driver and personnel lists mirrored from the
// ledger and the binding of API users to personnel names.
type ReferenceService struct {
	repo repository.ReferenceRepo
}

func NewReferenceService(repo repository.ReferenceRepo) *ReferenceService {
	return &ReferenceService{repo: repo}
}

func (s *ReferenceService) Drivers(ctx context.Context) ([]string, error) {
	return s.repo.ListDrivers(ctx)
}

func (s *ReferenceService) Personnel(ctx context.Context) ([]string, error) {
	return s.repo.ListPersonnel(ctx)
}

// BindPersonnel records which personnel name a user acts as. The name must be
// in the imported personnel list; an empty name removes the binding.
func (s *ReferenceService) BindPersonnel(ctx context.Context, userID int, name string) error {
	name = strings.TrimSpace(name)
	if name != "" {
		names, err := s.repo.ListPersonnel(ctx)
		if err != nil {
			return err
		}
		if !slices.Contains(names, name) {
			return fmt.Errorf("%q: %w", name, ErrUnknownPerson)
		}
	}
	return s.repo.BindPersonnel(ctx, userID, name)
}

func (s *ReferenceService) PersonnelFor(ctx context.Context, userID int) (string, error) {
	return s.repo.PersonnelFor(ctx, userID)
}
