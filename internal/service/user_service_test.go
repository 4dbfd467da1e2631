package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	gdb, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb, t.TempDir(), "/media")

	user, err := svc.Register(RegisterInput{Email: " Someone@Example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct-horse")))

	_, err = svc.Register(RegisterInput{Email: "someone@example.com", Password: "another-one"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	authed, err := svc.Authenticate("SOMEONE@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate("someone@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate("nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserServiceRegisterFieldErrors(t *testing.T) {
	gdb, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb, t.TempDir(), "/media")
	long := strings.Repeat("9", MaxTelegramChatIDLength+1)

	_, err := svc.Register(RegisterInput{Email: "not-an-email", Password: "short", TelegramChatID: &long})

	var fieldErrs FieldErrors
	require.True(t, errors.As(err, &fieldErrs), "expected FieldErrors, got %v", err)
	assert.Len(t, fieldErrs["email"], 1)
	assert.Len(t, fieldErrs["password"], 1)
	assert.Len(t, fieldErrs["telegram_chat_id"], 1)
}

func TestUserServiceRejectsOverlongPassword(t *testing.T) {
	gdb, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb, t.TempDir(), "/media")
	long := strings.Repeat("a", MaxPasswordBytes+1)

	_, err := svc.Register(RegisterInput{Email: "someone@example.com", Password: long})
	var fieldErrs FieldErrors
	require.True(t, errors.As(err, &fieldErrs), "expected FieldErrors, got %v", err)
	assert.Equal(t, []string{"Ensure this field has no more than 72 characters."}, fieldErrs["password"])

	user, err := svc.Register(RegisterInput{Email: "someone@example.com", Password: strings.Repeat("a", MaxPasswordBytes)})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(user.ID, ProfileInput{Password: Some(long)})
	fieldErrs = nil
	require.True(t, errors.As(err, &fieldErrs), "expected FieldErrors, got %v", err)
	assert.Len(t, fieldErrs["password"], 1)

	_, err = svc.Authenticate("someone@example.com", strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	gdb, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb, t.TempDir(), "/media")
	user, err := svc.Register(RegisterInput{Email: "someone@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(user.ID, ProfileInput{TelegramChatID: Some(" 123456 ")})
	require.NoError(t, err)
	require.NotNil(t, updated.TelegramChatID)
	assert.Equal(t, "123456", *updated.TelegramChatID)

	cleared, err := svc.UpdateProfile(user.ID, ProfileInput{TelegramChatID: Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.TelegramChatID)

	_, err = svc.UpdateProfile(user.ID, ProfileInput{Password: Some("new-password")})
	require.NoError(t, err)
	_, err = svc.Authenticate("someone@example.com", "new-password")
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(999, ProfileInput{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserServiceSaveAvatar(t *testing.T) {
	gdb, cleanup := setupHabitTestDB(t)
	defer cleanup()

	uploadDir := t.TempDir()
	svc := NewUserService(gdb, uploadDir, "/media/")
	user, err := svc.Register(RegisterInput{Email: "someone@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	updated, err := svc.SaveAvatar(user.ID, &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Avatar, "/media/avatars/"), updated.Avatar)
	assert.True(t, strings.HasSuffix(updated.Avatar, ".png"), updated.Avatar)

	stored := filepath.Join(uploadDir, "avatars", filepath.Base(updated.Avatar))
	_, err = os.Stat(stored)
	assert.NoError(t, err)

	_, err = svc.SaveAvatar(user.ID, strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrInvalidAvatar)
}
