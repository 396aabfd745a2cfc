package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/debt-ledger/internal/models"
)

func TestGenerateAndParse(t *testing.T) {
	tokens := NewTokenManager("test-secret", "debt-ledger", time.Hour)
	user := models.User{ID: uuid.New(), Email: "a@x.com"}

	raw, err := tokens.Generate(user)
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "debt-ledger", claims.Issuer)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestParseRejects(t *testing.T) {
	tokens := NewTokenManager("test-secret", "debt-ledger", time.Hour)
	user := models.User{ID: uuid.New(), Email: "a@x.com"}
	valid, err := tokens.Generate(user)
	require.NoError(t, err)

	expiredManager := NewTokenManager("test-secret", "debt-ledger", time.Hour)
	expiredManager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredManager.Generate(user)
	require.NoError(t, err)

	otherIssuer, err := NewTokenManager("test-secret", "someone-else", time.Hour).Generate(user)
	require.NoError(t, err)

	otherSecret, err := NewTokenManager("other-secret", "debt-ledger", time.Hour).Generate(user)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "debt-ledger",
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"tampered":     valid + "x",
		"expired":      expired,
		"issuer":       otherIssuer,
		"secret":       otherSecret,
		"non-uuid sub": badSubject,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Parse(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!!", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret!!"))
}
