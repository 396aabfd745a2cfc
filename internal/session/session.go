// Package session exchanges credentials for bearer tokens.
package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/debt-ledger/internal/apperr"
	"github.com/hongminglow/debt-ledger/internal/auth"
	"github.com/hongminglow/debt-ledger/internal/models"
)

// CredentialValidator checks an email/password pair.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, email, password string) (models.User, bool)
}

// Service issues tokens for users whose credentials verify.
type Service struct {
	users  CredentialValidator
	tokens *auth.TokenManager
	log    logrus.FieldLogger
}

// New creates a session service.
func New(users CredentialValidator, tokens *auth.TokenManager, log logrus.FieldLogger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

// Login returns a signed token and the authenticated user, or
// apperr.ErrUnauthorized when the credentials do not match.
func (s *Service) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, ok := s.users.ValidateCredentials(ctx, email, password)
	if !ok {
		return "", models.User{}, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", models.User{}, fmt.Errorf("generate token: %w", err)
	}
	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Email)
	return token, user, nil
}
