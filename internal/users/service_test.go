package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func userRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "username", "name", "phone", "address", "photo_url", "role", "created_at", "updated_at"})
}

func TestListUsers(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at`).
		WillReturnRows(userRows().
			AddRow("u1", "driver1", "Driver One", "9999", "Pune", "", "driver", now, now).
			AddRow("u2", "admin", "Admin", "", "", "", "superadmin", now, now))

	list, err := NewService(mock).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
	if list[0].Username != "driver1" || list[1].Role != "superadmin" {
		t.Fatalf("unexpected users: %+v", list)
	}
}

func TestGetUserNotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := NewService(mock).Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIDByUsername(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id FROM users WHERE username=\$1`).
		WithArgs("driver1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("u1"))

	id, err := NewService(mock).IDByUsername(context.Background(), "driver1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "u1" {
		t.Fatalf("expected u1, got %q", id)
	}

	mock.ExpectQuery(`SELECT id FROM users WHERE username=\$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	if _, err := NewService(mock).IDByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDefaultsRole(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "driver2", pgxmock.AnyArg(), "Driver Two", "", "", "", "driver").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	u, err := NewService(mock).Create(context.Background(), CreateRequest{
		Username: "driver2",
		Password: "password123",
		Name:     "Driver Two",
		Role:     "root",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role != "driver" {
		t.Fatalf("expected driver role, got %q", u.Role)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCreateUserRequiresCredentials(t *testing.T) {
	mock := newMock(t)
	if _, err := NewService(mock).Create(context.Background(), CreateRequest{Username: "nopass"}); err == nil {
		t.Fatal("expected error for missing password")
	}
}

func TestUpdateUserPartial(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\$1`).
		WithArgs("u1").
		WillReturnRows(userRows().AddRow("u1", "driver1", "Old Name", "9999", "Pune", "", "driver", now, now))

	mock.ExpectExec(`UPDATE users`).
		WithArgs("u1", "driver1", "New Name", "9999", "Pune", "", "driver").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	u, err := NewService(mock).Update(context.Background(), "u1", UpdateRequest{Name: "New Name"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Name != "New Name" || u.Phone != "9999" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\$1`).
		WithArgs("u1").
		WillReturnRows(userRows().AddRow("u1", "driver1", "Driver", "", "", "", "driver", now, now))

	mock.ExpectExec(`UPDATE users SET password_hash=\$2`).
		WithArgs("u1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec(`UPDATE users`).
		WithArgs("u1", "driver1", "Driver", "", "", "", "driver").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if _, err := NewService(mock).Update(context.Background(), "u1", UpdateRequest{Password: "newpass"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`DELETE FROM users WHERE id=\$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := NewService(mock).Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
