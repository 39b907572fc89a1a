package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"generator_ledger/internal/models"
	"generator_ledger/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func kvRows(pairs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"key", "value"})
	for i := 0; i+1 < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1])
	}
	return rows
}

func TestStateSQLite_Load_TypedAndValidated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value FROM generator_state")).
		WillReturnRows(kvRows(
			"status", "ON",
			"active_shift", "d_start", // legacy encoding
			"last_start_time", "12:05",
			"last_start_date", "2026-05-04",
			"total_hours", "812.5",
			"current_fuel", "64.0",
			"last_oil_change", "790",
		))

	st, err := repository.NewStateSQLite(db).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.Status != models.StatusOn || st.ActiveShift != models.Shift2 {
		t.Fatalf("unexpected status/shift: %+v", st)
	}
	if st.TotalEngineHours != 812.5 || st.CurrentFuelLiters != 64 || st.LastOilChangeHours != 790 {
		t.Fatalf("numbers not parsed: %+v", st)
	}
	if st.LastSparkChangeHours != 0 {
		t.Fatalf("missing key should default to zero, got %v", st.LastSparkChangeHours)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Load_RejectsInconsistentOrMalformed(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
	}{
		{"on without shift", []string{"status", "ON", "active_shift", "none"}},
		{"off with shift", []string{"status", "OFF", "active_shift", "shift1"}},
		{"bad status", []string{"status", "MAYBE"}},
		{"bad number", []string{"status", "OFF", "current_fuel", "lots"}},
		{"bad shift", []string{"status", "OFF", "active_shift", "night"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New(): %v", err)
			}
			defer func() { _ = db.Close() }()

			mock.ExpectQuery("SELECT key, value FROM generator_state").WillReturnRows(kvRows(tt.pairs...))

			if _, err := repository.NewStateSQLite(db).Load(context.Background()); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestStateSQLite_CompareAndSwapStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		want     bool
		wantErr  bool
	}{
		{name: "won", affected: 1, want: true},
		{name: "lost", affected: 0, want: false},
		{name: "exec error", execErr: errors.New("locked"), wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New(): %v", err)
			}
			defer func() { _ = db.Close() }()

			exp := mock.ExpectExec(regexp.QuoteMeta(`UPDATE generator_state SET value=? WHERE key='status' AND value=?`)).
				WithArgs("ON", "OFF")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			got, err := repository.NewStateSQLite(db).CompareAndSwapStatus(context.Background(), models.StatusOff, models.StatusOn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("swapped=%v, want %v", got, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestHealthSQLite_SaveWritesAllKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, kv := range [][2]string{
		{"sheet_offline_forced", "1"},
		{"sheet_last_ok_ts", ""},
		{"sheet_first_fail_ts", ""},
		{"sheet_offline", "0"},
		{"sheet_offline_since_ts", ""},
	} {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generator_state (key, value) VALUES (?, ?)")).
			WithArgs(kv[0], kv[1]).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	err = repository.NewHealthSQLite(db).Save(context.Background(), models.HealthState{ForcedOffline: true})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
