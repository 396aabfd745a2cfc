// Package memory implements storage.Store in process memory. It backs unit
// tests and mirrors the constraint behaviour of the SQL stores: unique
// emails, participant references and version checks.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/debt-ledger/internal/models"
	"github.com/hongminglow/debt-ledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is a mutex-guarded map store.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
	debts map[uuid.UUID]debtRow
	now   func() time.Time
}

// debtRow holds a debt with participant references rather than copies.
type debtRow struct {
	debt       models.Debt
	creditorID uuid.UUID
	debtorID   uuid.UUID
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users: make(map[uuid.UUID]models.User),
		debts: make(map[uuid.UUID]debtRow),
		now:   time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() {}

// DeleteUser removes a user. Only tests use it, to simulate a participant
// vanishing between resolution and insert.
func (s *Store) DeleteUser(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindUserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID.String() < users[j].ID.String()
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *Store) CreateDebt(_ context.Context, debt models.Debt) (models.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []uuid.UUID{debt.Creditor.ID, debt.Debtor.ID} {
		if _, ok := s.users[id]; !ok {
			return models.Debt{}, fmt.Errorf("%w: user %s", storage.ErrNotFound, id)
		}
	}
	if debt.ID == uuid.Nil {
		debt.ID = uuid.New()
	}
	if _, ok := s.debts[debt.ID]; ok {
		return models.Debt{}, storage.ErrAlreadyExists
	}
	now := s.now().UTC()
	debt.CreatedAt, debt.UpdatedAt = now, now
	debt.Version = 1
	debt.Amount = debt.Amount.Round(2)
	row := debtRow{debt: debt, creditorID: debt.Creditor.ID, debtorID: debt.Debtor.ID}
	s.debts[debt.ID] = row
	return s.hydrate(row), nil
}

func (s *Store) FindDebtByID(_ context.Context, id uuid.UUID) (models.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.debts[id]
	if !ok {
		return models.Debt{}, storage.ErrNotFound
	}
	return s.hydrate(row), nil
}

func (s *Store) ListDebts(_ context.Context, filter storage.DebtFilter) ([]models.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debts := make([]models.Debt, 0, len(s.debts))
	for _, row := range s.debts {
		if filter.UserID != uuid.Nil && row.creditorID != filter.UserID && row.debtorID != filter.UserID {
			continue
		}
		if filter.Status != "" && row.debt.Status != filter.Status {
			continue
		}
		debts = append(debts, s.hydrate(row))
	}
	sort.Slice(debts, func(i, j int) bool {
		if debts[i].CreatedAt.Equal(debts[j].CreatedAt) {
			return debts[i].ID.String() < debts[j].ID.String()
		}
		return debts[i].CreatedAt.Before(debts[j].CreatedAt)
	})
	return debts, nil
}

func (s *Store) UpdateDebt(_ context.Context, debt models.Debt) (models.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.debts[debt.ID]
	if !ok {
		return models.Debt{}, storage.ErrNotFound
	}
	if row.debt.Version != debt.Version {
		return models.Debt{}, storage.ErrStale
	}
	row.debt.Description = debt.Description
	row.debt.Amount = debt.Amount.Round(2)
	row.debt.Status = debt.Status
	row.debt.Version++
	row.debt.UpdatedAt = s.now().UTC()
	s.debts[debt.ID] = row
	return s.hydrate(row), nil
}

func (s *Store) DeleteDebt(_ context.Context, id uuid.UUID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.debts[id]
	if !ok {
		return storage.ErrNotFound
	}
	if row.debt.Version != version {
		return storage.ErrStale
	}
	delete(s.debts, id)
	return nil
}

func (s *Store) SumAmounts(_ context.Context, userID uuid.UUID, role models.Role, status models.DebtStatus) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, row := range s.debts {
		if row.debt.Status != status {
			continue
		}
		switch role {
		case models.RoleCreditor:
			if row.creditorID != userID {
				continue
			}
		case models.RoleDebtor:
			if row.debtorID != userID {
				continue
			}
		default:
			return decimal.Zero, fmt.Errorf("unknown role %q", role)
		}
		total = total.Add(row.debt.Amount)
	}
	return total, nil
}

// hydrate copies current participant records onto the debt. Callers hold mu.
func (s *Store) hydrate(row debtRow) models.Debt {
	debt := row.debt
	debt.Creditor = publicUser(s.users[row.creditorID])
	debt.Debtor = publicUser(s.users[row.debtorID])
	return debt
}

func publicUser(user models.User) models.User {
	user.PasswordHash = ""
	return user
}
