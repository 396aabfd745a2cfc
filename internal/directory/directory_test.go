package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/debt-ledger/internal/apperr"
	"github.com/hongminglow/debt-ledger/internal/storage/memory"
)

func newDirectory(t *testing.T) *Service {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	return New(memory.New(), logger, 4)
}

func TestCreate(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()

	user, err := dir.Create(ctx, " a@x.com ", "password123", " Alice ")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()

	_, err := dir.Create(ctx, "a@x.com", "password123", "")
	require.NoError(t, err)

	_, err = dir.Create(ctx, "a@x.com", "another-pass", "Other")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	users, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateValidation(t *testing.T) {
	dir := newDirectory(t)
	cases := []struct {
		name, email, password string
	}{
		{"missing email", "", "password123"},
		{"malformed email", "not-an-email", "password123"},
		{"display-name email", "Alice <a@x.com>", "password123"},
		{"short password", "a@x.com", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dir.Create(context.Background(), tc.email, tc.password, "")
			assert.True(t, errors.Is(err, apperr.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestFind(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()
	created, err := dir.Create(ctx, "b@x.com", "password123", "Bob")
	require.NoError(t, err)

	byID, err := dir.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := dir.FindByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = dir.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = dir.FindByEmail(ctx, "B@x.com")
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "email lookup is case-sensitive")
}

func TestValidateCredentials(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()
	created, err := dir.Create(ctx, "a@x.com", "password123", "")
	require.NoError(t, err)

	user, ok := dir.ValidateCredentials(ctx, "a@x.com", "password123")
	require.True(t, ok)
	assert.Equal(t, created.ID, user.ID)

	_, ok = dir.ValidateCredentials(ctx, "a@x.com", "wrong-password")
	assert.False(t, ok)

	_, ok = dir.ValidateCredentials(ctx, "nobody@x.com", "password123")
	assert.False(t, ok)
}
