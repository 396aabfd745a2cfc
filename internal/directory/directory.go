// Package directory owns user identities: registration with unique emails,
// lookups, and credential verification.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/debt-ledger/internal/apperr"
	"github.com/hongminglow/debt-ledger/internal/auth"
	"github.com/hongminglow/debt-ledger/internal/models"
	"github.com/hongminglow/debt-ledger/internal/storage"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Service implements the user directory over a storage.UserStore.
type Service struct {
	store      storage.UserStore
	log        logrus.FieldLogger
	bcryptCost int
}

// New creates a directory. bcryptCost <= 0 selects bcrypt's default.
func New(store storage.UserStore, log logrus.FieldLogger, bcryptCost int) *Service {
	return &Service{store: store, log: log, bcryptCost: bcryptCost}
}

// Create registers a user. The email must not already be registered.
func (s *Service) Create(ctx context.Context, email, password, name string) (models.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if err := validateRegistration(email, password); err != nil {
		return models.User{}, err
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return models.User{}, fmt.Errorf("%w: email %s is already registered", apperr.ErrConflict, email)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.CreateUser(ctx, models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, fmt.Errorf("%w: email %s is already registered", apperr.ErrConflict, email)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.WithField("user_id", created.ID).Infof("User registered: %s", created.Email)
	return created, nil
}

// FindByID returns the user with the given id.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return models.User{}, lookupError(err, "user %s", id)
	}
	return user, nil
}

// FindByEmail returns the user registered under email.
func (s *Service) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, lookupError(err, "user with email %s", email)
	}
	return user, nil
}

// List returns all registered users.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ValidateCredentials returns the user when password matches the stored
// hash. An unknown email, a wrong password and a failed lookup all report
// false so callers cannot tell them apart.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (models.User, bool) {
	user, err := s.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		s.log.WithError(err).Debug("credential lookup failed")
		return models.User{}, false
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.log.WithField("user_id", user.ID).Debug("password mismatch")
		return models.User{}, false
	}
	return user, true
}

func validateRegistration(email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", apperr.ErrInvalidArgument)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: email %q is not valid", apperr.ErrInvalidArgument, email)
	}
	if !utf8.ValidString(password) || utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperr.ErrInvalidArgument, MinPasswordLength)
	}
	return nil
}

func lookupError(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	return fmt.Errorf("find %s: %w", what, err)
}
