package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/debt-ledger/internal/models"
)

// ErrNotFound indicates a record does not exist, or that a row references one
// that does not.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrStale indicates the record changed since it was read.
var ErrStale = errors.New("record modified concurrently")

// DebtFilter narrows ListDebts. Zero values match everything.
type DebtFilter struct {
	UserID uuid.UUID
	Status models.DebtStatus
}

// UserStore captures persistence operations for users.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// DebtStore captures persistence operations for debts. Every returned Debt has
// its creditor and debtor populated.
type DebtStore interface {
	CreateDebt(ctx context.Context, debt models.Debt) (models.Debt, error)
	FindDebtByID(ctx context.Context, id uuid.UUID) (models.Debt, error)
	ListDebts(ctx context.Context, filter DebtFilter) ([]models.Debt, error)
	// UpdateDebt writes description, amount and status if the stored version
	// still equals debt.Version, returning ErrStale otherwise.
	UpdateDebt(ctx context.Context, debt models.Debt) (models.Debt, error)
	// DeleteDebt removes the debt if the stored version equals version.
	DeleteDebt(ctx context.Context, id uuid.UUID, version int64) error
	SumAmounts(ctx context.Context, userID uuid.UUID, role models.Role, status models.DebtStatus) (decimal.Decimal, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	DebtStore
	Close()
}
