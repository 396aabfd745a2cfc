// Package storagetest holds behaviour checks shared by every storage.Store
// implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/debt-ledger/internal/models"
	"github.com/hongminglow/debt-ledger/internal/storage"
)

// Opener returns an empty store. The store is closed by the caller's cleanup.
type Opener func(t *testing.T) storage.Store

// Run executes the shared store checks as subtests.
func Run(t *testing.T, open Opener) {
	t.Run("UniqueEmail", func(t *testing.T) { testUniqueEmail(t, open(t)) })
	t.Run("UserLookups", func(t *testing.T) { testUserLookups(t, open(t)) })
	t.Run("DebtReferencesUsers", func(t *testing.T) { testDebtReferencesUsers(t, open(t)) })
	t.Run("DebtRoundTrip", func(t *testing.T) { testDebtRoundTrip(t, open(t)) })
	t.Run("VersionCheck", func(t *testing.T) { testVersionCheck(t, open(t)) })
	t.Run("Filters", func(t *testing.T) { testFilters(t, open(t)) })
	t.Run("SumAmounts", func(t *testing.T) { testSumAmounts(t, open(t)) })
}

func createUser(t *testing.T, store storage.Store, email, name string) models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: "hash-" + email,
	})
	require.NoError(t, err)
	return user
}

func createDebt(t *testing.T, store storage.Store, amount string, creditor, debtor models.User) models.Debt {
	t.Helper()
	debt, err := store.CreateDebt(context.Background(), models.Debt{
		ID:          uuid.New(),
		Description: "lunch",
		Amount:      decimal.RequireFromString(amount),
		Creditor:    creditor,
		Debtor:      debtor,
		Status:      models.DebtPending,
	})
	require.NoError(t, err)
	// Keeps created_at strictly increasing on coarse clocks.
	time.Sleep(2 * time.Millisecond)
	return debt
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func testUniqueEmail(t *testing.T, store storage.Store) {
	createUser(t, store, "a@x.com", "Alice")
	_, err := store.CreateUser(context.Background(), models.User{
		ID:           uuid.New(),
		Email:        "a@x.com",
		PasswordHash: "other",
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = store.CreateUser(context.Background(), models.User{
		ID:           uuid.New(),
		Email:        "A@x.com",
		PasswordHash: "other",
	})
	assert.NoError(t, err)
}

func testUserLookups(t *testing.T, store storage.Store) {
	ctx := context.Background()
	alice := createUser(t, store, "a@x.com", "Alice")
	time.Sleep(2 * time.Millisecond)
	nameless := createUser(t, store, "b@x.com", "")

	found, err := store.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", found.Email)
	assert.Equal(t, "Alice", found.Name)
	assert.Equal(t, "hash-a@x.com", found.PasswordHash)
	assert.False(t, found.CreatedAt.IsZero())

	found, err = store.FindUserByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, nameless.ID, found.ID)
	assert.Empty(t, found.Name)

	_, err = store.FindUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.FindUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, alice.ID, users[0].ID)
	assert.Equal(t, nameless.ID, users[1].ID)
}

func testDebtReferencesUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()
	alice := createUser(t, store, "a@x.com", "Alice")
	ghost := models.User{ID: uuid.New(), Email: "ghost@x.com"}

	_, err := store.CreateDebt(ctx, models.Debt{
		ID:          uuid.New(),
		Description: "lunch",
		Amount:      decimal.NewFromInt(5),
		Creditor:    alice,
		Debtor:      ghost,
		Status:      models.DebtPending,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	debts, err := store.ListDebts(ctx, storage.DebtFilter{})
	require.NoError(t, err)
	assert.Empty(t, debts)
}

func testDebtRoundTrip(t *testing.T, store storage.Store) {
	ctx := context.Background()
	alice := createUser(t, store, "a@x.com", "Alice")
	bob := createUser(t, store, "b@x.com", "")

	created := createDebt(t, store, "12.34", alice, bob)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, models.DebtPending, created.Status)
	assertAmount(t, "12.34", created.Amount)

	found, err := store.FindDebtByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "lunch", found.Description)
	assertAmount(t, "12.34", found.Amount)
	assert.Equal(t, alice.ID, found.Creditor.ID)
	assert.Equal(t, "Alice", found.Creditor.Name)
	assert.Empty(t, found.Creditor.PasswordHash)
	assert.Equal(t, bob.ID, found.Debtor.ID)
	assert.Equal(t, "b@x.com", found.Debtor.Email)
	assert.Empty(t, found.Debtor.Name)

	_, err = store.FindDebtByID(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testVersionCheck(t *testing.T, store storage.Store) {
	ctx := context.Background()
	alice := createUser(t, store, "a@x.com", "Alice")
	bob := createUser(t, store, "b@x.com", "Bob")
	debt := createDebt(t, store, "10", alice, bob)

	stale := debt
	debt.Description = "dinner"
	debt.Amount = decimal.RequireFromString("11.50")
	updated, err := store.UpdateDebt(ctx, debt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "dinner", updated.Description)
	assertAmount(t, "11.5", updated.Amount)

	stale.Status = models.DebtPaid
	_, err = store.UpdateDebt(ctx, stale)
	assert.ErrorIs(t, err, storage.ErrStale)

	assert.ErrorIs(t, store.DeleteDebt(ctx, debt.ID, stale.Version), storage.ErrStale)
	require.NoError(t, store.DeleteDebt(ctx, debt.ID, updated.Version))
	assert.ErrorIs(t, store.DeleteDebt(ctx, debt.ID, updated.Version), storage.ErrNotFound)

	_, err = store.UpdateDebt(ctx, updated)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testFilters(t *testing.T, store storage.Store) {
	ctx := context.Background()
	alice := createUser(t, store, "a@x.com", "Alice")
	bob := createUser(t, store, "b@x.com", "Bob")
	carol := createUser(t, store, "c@x.com", "Carol")

	first := createDebt(t, store, "1", alice, bob)
	second := createDebt(t, store, "2", bob, carol)
	third := createDebt(t, store, "3", carol, alice)

	third.Status = models.DebtPaid
	_, err := store.UpdateDebt(ctx, third)
	require.NoError(t, err)

	all, err := store.ListDebts(ctx, storage.DebtFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID, third.ID}, ids(all))

	forAlice, err := store.ListDebts(ctx, storage.DebtFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, third.ID}, ids(forAlice))

	pendingForAlice, err := store.ListDebts(ctx, storage.DebtFilter{UserID: alice.ID, Status: models.DebtPending})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, ids(pendingForAlice))

	paid, err := store.ListDebts(ctx, storage.DebtFilter{Status: models.DebtPaid})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{third.ID}, ids(paid))
}

func testSumAmounts(t *testing.T, store storage.Store) {
	ctx := context.Background()
	alice := createUser(t, store, "a@x.com", "Alice")
	bob := createUser(t, store, "b@x.com", "Bob")

	createDebt(t, store, "10.10", alice, bob)
	createDebt(t, store, "0.20", alice, bob)
	paid := createDebt(t, store, "5", bob, alice)
	paid.Status = models.DebtPaid
	_, err := store.UpdateDebt(ctx, paid)
	require.NoError(t, err)

	sum, err := store.SumAmounts(ctx, alice.ID, models.RoleCreditor, models.DebtPending)
	require.NoError(t, err)
	assertAmount(t, "10.30", sum)

	sum, err = store.SumAmounts(ctx, alice.ID, models.RoleDebtor, models.DebtPaid)
	require.NoError(t, err)
	assertAmount(t, "5", sum)

	sum, err = store.SumAmounts(ctx, alice.ID, models.RoleDebtor, models.DebtPending)
	require.NoError(t, err)
	assertAmount(t, "0", sum)

	_, err = store.SumAmounts(ctx, alice.ID, models.Role("owner"), models.DebtPending)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}

func ids(debts []models.Debt) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(debts))
	for _, debt := range debts {
		out = append(out, debt.ID)
	}
	return out
}
