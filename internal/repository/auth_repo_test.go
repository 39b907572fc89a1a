package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func contains(s, substr string) bool { return strings.Contains(s, substr) }

// newMockUsers returns a UserRepository over sqlmock. Unmet expectations fail
// the test at cleanup.
func newMockUsers(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewUserRepository(db), mock
}

func TestUserRepository_Create(t *testing.T) {
	insert := regexp.QuoteMeta(insertUserSQL)

	t.Run("returns new id", func(t *testing.T) {
		repo, mock := newMockUsers(t)
		mock.ExpectExec(insert).WithArgs("dispatcher", "$2a$hash").
			WillReturnResult(sqlmock.NewResult(3, 1))

		id, err := repo.Create(ctx(t), "dispatcher", "$2a$hash")
		if err != nil || id != 3 {
			t.Fatalf("Create = %d, %v; want 3, nil", id, err)
		}
	})

	failures := map[string]struct {
		expect  func(sqlmock.Sqlmock)
		errPart string
	}{
		"duplicate username": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insert).WithArgs("olena", "h").
					WillReturnError(errors.New("UNIQUE constraint failed: users.username"))
			},
			errPart: `insert user "olena"`,
		},
		"no last insert id": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insert).WithArgs("olena", "h").
					WillReturnResult(sqlmock.NewErrorResult(errors.New("unsupported")))
			},
			errPart: "get last insert id",
		},
	}
	for name, tc := range failures {
		t.Run(name, func(t *testing.T) {
			repo, mock := newMockUsers(t)
			tc.expect(mock)

			id, err := repo.Create(ctx(t), "olena", "h")
			if err == nil || !contains(err.Error(), tc.errPart) {
				t.Fatalf("want error containing %q, got %v", tc.errPart, err)
			}
			if id != 0 {
				t.Fatalf("id on error = %d, want 0", id)
			}
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	query := regexp.QuoteMeta(selectUserByUsernameSQL)

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockUsers(t)
		mock.ExpectQuery(query).WithArgs("mykola").WillReturnRows(
			sqlmock.NewRows([]string{"id", "username", "password_hash"}).AddRow(7, "mykola", "h"))

		u, err := repo.GetByUsername(ctx(t), "mykola")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u == nil || u.ID != 7 || u.Username != "mykola" || u.PasswordHash != "h" {
			t.Fatalf("unexpected user %+v", u)
		}
	})

	t.Run("missing user is nil without error", func(t *testing.T) {
		repo, mock := newMockUsers(t)
		mock.ExpectQuery(query).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		u, err := repo.GetByUsername(ctx(t), "ghost")
		if err != nil || u != nil {
			t.Fatalf("GetByUsername = %+v, %v; want nil, nil", u, err)
		}
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		repo, mock := newMockUsers(t)
		mock.ExpectQuery(query).WithArgs("mykola").WillReturnError(errors.New("database is locked"))

		u, err := repo.GetByUsername(ctx(t), "mykola")
		if err == nil || !contains(err.Error(), `select user "mykola"`) || u != nil {
			t.Fatalf("GetByUsername = %+v, %v", u, err)
		}
	})
}
