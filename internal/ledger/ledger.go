// Package ledger records debts between users and answers balance queries.
//
// A debt starts pending and moves to paid only through MarkPaid. Paid debts
// cannot be edited or deleted. Writes after a read are guarded by the
// store's version check, so a concurrent change between load and save is
// reported as apperr.ErrConflict instead of being overwritten.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/debt-ledger/internal/apperr"
	"github.com/hongminglow/debt-ledger/internal/models"
	"github.com/hongminglow/debt-ledger/internal/storage"
)

// maxAmount is the exclusive upper bound imposed by NUMERIC(10,2).
var maxAmount = decimal.New(1, 8)

// Accepted exponent range for incoming amounts, e.g. 1e-10 and 9e8.
const (
	minAmountExponent = -10
	maxAmountExponent = 8
)

// Directory resolves participant ids.
type Directory interface {
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// Service implements ledger operations over a storage.DebtStore.
type Service struct {
	store     storage.DebtStore
	directory Directory
	log       logrus.FieldLogger
}

// New creates a ledger service.
func New(store storage.DebtStore, directory Directory, log logrus.FieldLogger) *Service {
	return &Service{store: store, directory: directory, log: log}
}

// CreateDebt records that input.DebtorID owes input.CreditorID input.Amount.
func (s *Service) CreateDebt(ctx context.Context, input models.NewDebt) (models.Debt, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return models.Debt{}, fmt.Errorf("%w: description is required", apperr.ErrInvalidArgument)
	}
	amount, err := normalizeAmount(input.Amount)
	if err != nil {
		return models.Debt{}, err
	}
	if input.CreditorID == input.DebtorID {
		return models.Debt{}, fmt.Errorf("%w: creditor and debtor must differ", apperr.ErrInvalidArgument)
	}

	creditor, err := s.directory.FindByID(ctx, input.CreditorID)
	if err != nil {
		return models.Debt{}, fmt.Errorf("resolve creditor: %w", err)
	}
	debtor, err := s.directory.FindByID(ctx, input.DebtorID)
	if err != nil {
		return models.Debt{}, fmt.Errorf("resolve debtor: %w", err)
	}

	created, err := s.store.CreateDebt(ctx, models.Debt{
		ID:          uuid.New(),
		Description: description,
		Amount:      amount,
		Creditor:    creditor,
		Debtor:      debtor,
		Status:      models.DebtPending,
	})
	if err != nil {
		return models.Debt{}, storeError(err, "create debt")
	}

	s.log.WithFields(logrus.Fields{
		"debt_id":     created.ID,
		"creditor_id": creditor.ID,
		"debtor_id":   debtor.ID,
		"amount":      created.Amount.StringFixed(2),
	}).Info("Debt created")
	return created, nil
}

// GetAll returns every debt.
func (s *Service) GetAll(ctx context.Context) ([]models.Debt, error) {
	debts, err := s.store.ListDebts(ctx, storage.DebtFilter{})
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return debts, nil
}

// GetByID returns one debt.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (models.Debt, error) {
	debt, err := s.store.FindDebtByID(ctx, id)
	if err != nil {
		return models.Debt{}, storeError(err, fmt.Sprintf("debt %s", id))
	}
	return debt, nil
}

// GetByUser returns debts where userID is creditor or debtor. An empty
// status matches both states.
func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID, status models.DebtStatus) ([]models.Debt, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, status)
	}
	debts, err := s.store.ListDebts(ctx, storage.DebtFilter{UserID: userID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list debts for user %s: %w", userID, err)
	}
	return debts, nil
}

// Update applies the provided fields to a pending debt.
func (s *Service) Update(ctx context.Context, id uuid.UUID, update models.DebtUpdate) (models.Debt, error) {
	debt, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Debt{}, err
	}
	if debt.Status == models.DebtPaid {
		return models.Debt{}, fmt.Errorf("%w: debt %s is paid and cannot be modified", apperr.ErrInvalidState, id)
	}

	if update.Description != nil {
		description := strings.TrimSpace(*update.Description)
		if description == "" {
			return models.Debt{}, fmt.Errorf("%w: description cannot be empty", apperr.ErrInvalidArgument)
		}
		debt.Description = description
	}
	if update.Amount != nil {
		amount, err := normalizeAmount(*update.Amount)
		if err != nil {
			return models.Debt{}, err
		}
		debt.Amount = amount
	}

	updated, err := s.store.UpdateDebt(ctx, debt)
	if err != nil {
		return models.Debt{}, storeError(err, fmt.Sprintf("update debt %s", id))
	}
	s.log.WithField("debt_id", id).Info("Debt updated")
	return updated, nil
}

// MarkPaid moves a debt to paid. Calling it on a paid debt re-persists the
// same state.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (models.Debt, error) {
	debt, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Debt{}, err
	}
	debt.Status = models.DebtPaid

	updated, err := s.store.UpdateDebt(ctx, debt)
	if err != nil {
		return models.Debt{}, storeError(err, fmt.Sprintf("mark debt %s paid", id))
	}
	s.log.WithField("debt_id", id).Info("Debt marked paid")
	return updated, nil
}

// Delete removes a pending debt permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	debt, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if debt.Status == models.DebtPaid {
		return fmt.Errorf("%w: debt %s is paid and cannot be deleted", apperr.ErrInvalidState, id)
	}
	if err := s.store.DeleteDebt(ctx, id, debt.Version); err != nil {
		return storeError(err, fmt.Sprintf("delete debt %s", id))
	}
	s.log.WithField("debt_id", id).Info("Debt deleted")
	return nil
}

// AggregateByStatus sums the amounts of debts where userID holds role and
// the status matches. No matching rows yields zero.
func (s *Service) AggregateByStatus(ctx context.Context, userID uuid.UUID, role models.Role, status models.DebtStatus) (decimal.Decimal, error) {
	if role != models.RoleCreditor && role != models.RoleDebtor {
		return decimal.Zero, fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidArgument, role)
	}
	if !status.Valid() {
		return decimal.Zero, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, status)
	}
	total, err := s.store.SumAmounts(ctx, userID, role, status)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %s %s amounts for %s: %w", status, role, userID, err)
	}
	return total, nil
}

// Stats summarises what userID owes and is owed. Balance is pending credits
// minus pending debts; paid amounts never affect it.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (models.Stats, error) {
	var sums [4]decimal.Decimal
	queries := []struct {
		role   models.Role
		status models.DebtStatus
	}{
		{models.RoleDebtor, models.DebtPending},
		{models.RoleDebtor, models.DebtPaid},
		{models.RoleCreditor, models.DebtPending},
		{models.RoleCreditor, models.DebtPaid},
	}
	for i, q := range queries {
		total, err := s.AggregateByStatus(ctx, userID, q.role, q.status)
		if err != nil {
			return models.Stats{}, err
		}
		sums[i] = total
	}

	debts := totals(sums[0], sums[1])
	credits := totals(sums[2], sums[3])
	return models.Stats{
		Debts:   debts,
		Credits: credits,
		Balance: credits.Pending.Sub(debts.Pending),
	}, nil
}

func totals(pending, paid decimal.Decimal) models.StatusTotals {
	return models.StatusTotals{Pending: pending, Paid: paid, Total: pending.Add(paid)}
}

// normalizeAmount rounds to cents and enforces 0 < amount < maxAmount.
// The exponent is bounded first: rescaling a decimal costs time proportional
// to its exponent.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if exp := amount.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, fmt.Errorf("%w: amount is out of range", apperr.ErrInvalidArgument)
	}
	rounded := amount.Round(2)
	if !rounded.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidArgument)
	}
	if rounded.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount must be less than %s", apperr.ErrInvalidArgument, maxAmount)
	}
	return rounded, nil
}

func storeError(err error, what string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s: %v", apperr.ErrNotFound, what, err)
	case errors.Is(err, storage.ErrStale):
		return fmt.Errorf("%w: %s: modified concurrently, retry", apperr.ErrConflict, what)
	case errors.Is(err, storage.ErrAlreadyExists):
		return fmt.Errorf("%w: %s", apperr.ErrConflict, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
