package repository

import (
	"context"

	"generator_ledger/internal/models"
)

// HealthSQLite stores breaker bookkeeping in the generator_state table.
type HealthSQLite struct {
	db DBTX
}

func NewHealthSQLite(db DBTX) *HealthSQLite {
	return &HealthSQLite{db: db}
}

var _ HealthRepo = (*HealthSQLite)(nil)

const (
	keySheetOfflineForced  = "sheet_offline_forced"
	keySheetLastOK         = "sheet_last_ok_ts"
	keySheetFirstFail      = "sheet_first_fail_ts"
	keySheetOffline        = "sheet_offline"
	keySheetOfflineSinceTS = "sheet_offline_since_ts"
)

func (r *HealthSQLite) Load(ctx context.Context) (models.HealthState, error) {
	kv, err := loadKV(ctx, r.db)
	if err != nil {
		return models.HealthState{}, err
	}
	rd := kvReader{kv: kv}
	h := models.HealthState{
		ForcedOffline: rd.bool(keySheetOfflineForced),
		LastOK:        rd.time(keySheetLastOK),
		FirstFail:     rd.time(keySheetFirstFail),
		Offline:       rd.bool(keySheetOffline),
		OfflineSince:  rd.time(keySheetOfflineSinceTS),
	}
	if rd.err != nil {
		return models.HealthState{}, rd.err
	}
	return h, nil
}

func (r *HealthSQLite) Save(ctx context.Context, h models.HealthState) error {
	for _, kv := range [][2]string{
		{keySheetOfflineForced, formatBool(h.ForcedOffline)},
		{keySheetLastOK, formatTime(h.LastOK)},
		{keySheetFirstFail, formatTime(h.FirstFail)},
		{keySheetOffline, formatBool(h.Offline)},
		{keySheetOfflineSinceTS, formatTime(h.OfflineSince)},
	} {
		if err := setKV(ctx, r.db, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}
