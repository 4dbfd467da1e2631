package db

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

func TestEnsureUserCreatesSuperuserOnce(t *testing.T) {
	gdb, err := Open("file:ensure_user?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	DB = gdb
	defer Close()

	if err := EnsureUser("  Admin@Example.com ", "secret"); err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if err := EnsureUser("admin@example.com", "other"); err != nil {
		t.Fatalf("second EnsureUser returned error: %v", err)
	}

	var users []User
	if err := DB.Find(&users).Error; err != nil {
		t.Fatalf("failed to list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Email != "admin@example.com" || !users[0].IsSuperuser {
		t.Fatalf("unexpected user: %+v", users[0])
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("secret")); err != nil {
		t.Fatalf("password was not hashed from the first call: %v", err)
	}
}

func TestEnsureUserSkipsEmptyCredentials(t *testing.T) {
	DB = nil
	if err := EnsureUser("", "secret"); err != nil {
		t.Fatalf("expected no error for empty email, got %v", err)
	}
	if err := EnsureUser("a@b.c", "  "); err != nil {
		t.Fatalf("expected no error for empty password, got %v", err)
	}
}

func TestEnsureUserRejectsOverlongPassword(t *testing.T) {
	gdb, err := Open("file:ensure_user_long?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	DB = gdb
	defer Close()

	if err := EnsureUser("admin@example.com", strings.Repeat("p", 73)); err == nil {
		t.Fatal("expected error for password longer than 72 bytes")
	}

	var count int64
	DB.Model(&User{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no user to be created, found %d", count)
	}
}

func TestInitCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "habits.db")
	if err := Init(path); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer Close()

	if !DB.Migrator().HasTable(&Habit{}) {
		t.Fatal("expected habits table to exist")
	}
}

func TestHabitString(t *testing.T) {
	place := "the kitchen"
	at := "07:30:00"
	habit := Habit{Action: "drink water", Time: &at, Place: &place}

	if got, want := habit.String(), "I will drink water at 07:30:00 in the kitchen"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got, want := (Habit{Action: "stretch"}).String(), "I will stretch"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
