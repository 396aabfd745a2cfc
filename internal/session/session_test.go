package session

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/debt-ledger/internal/apperr"
	"github.com/hongminglow/debt-ledger/internal/auth"
	"github.com/hongminglow/debt-ledger/internal/directory"
	"github.com/hongminglow/debt-ledger/internal/storage/memory"
)

func TestLogin(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	dir := directory.New(memory.New(), logger, 4)
	ctx := context.Background()
	alice, err := dir.Create(ctx, "a@x.com", "password123", "Alice")
	require.NoError(t, err)

	tokens := auth.NewTokenManager("secret", "debt-ledger", time.Hour)
	sessions := New(dir, tokens, logger)

	token, user, err := sessions.Login(ctx, "a@x.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, "User logged in: a@x.com", hook.LastEntry().Message)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	for _, tc := range []struct{ email, password string }{
		{"a@x.com", "wrong-password"},
		{"nobody@x.com", "password123"},
	} {
		_, _, err := sessions.Login(ctx, tc.email, tc.password)
		assert.True(t, errors.Is(err, apperr.ErrUnauthorized), "got %v", err)
		assert.EqualError(t, err, "unauthorized: invalid credentials")
	}
}
