package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/debt-ledger/internal/models"
	"github.com/hongminglow/debt-ledger/internal/storage"
)

// debtSelect joins both participants onto a debt row aliased d.
const debtSelect = `
	SELECT d.id, d.description, d.amount, d.status, d.version, d.created_at, d.updated_at,
		c.id, c.email, COALESCE(c.name, ''), c.created_at, c.updated_at,
		b.id, b.email, COALESCE(b.name, ''), b.created_at, b.updated_at
	`

const debtJoins = `
	JOIN users c ON c.id = d.creditor_id
	JOIN users b ON b.id = d.debtor_id
	`

// CreateDebt inserts a debt and returns it with both participants loaded.
// A participant that no longer exists surfaces as storage.ErrNotFound.
func (s *Store) CreateDebt(ctx context.Context, debt models.Debt) (models.Debt, error) {
	if debt.ID == uuid.Nil {
		debt.ID = uuid.New()
	}
	query := `
		WITH d AS (
			INSERT INTO debts (id, description, amount, creditor_id, debtor_id, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)` + debtSelect + `FROM d` + debtJoins
	row := s.pool.QueryRow(ctx, query,
		debt.ID, debt.Description, debt.Amount, debt.Creditor.ID, debt.Debtor.ID, string(debt.Status))
	created, err := scanDebt(row)
	if err != nil {
		return models.Debt{}, translate(err)
	}
	return created, nil
}

// FindDebtByID fetches a debt by primary key.
func (s *Store) FindDebtByID(ctx context.Context, id uuid.UUID) (models.Debt, error) {
	query := debtSelect + `FROM debts d` + debtJoins + `WHERE d.id = $1`
	return scanDebt(s.pool.QueryRow(ctx, query, id))
}

// ListDebts returns debts matching filter, oldest first.
func (s *Store) ListDebts(ctx context.Context, filter storage.DebtFilter) ([]models.Debt, error) {
	var userID any
	if filter.UserID != uuid.Nil {
		userID = filter.UserID
	}
	query := debtSelect + `FROM debts d` + debtJoins + `
		WHERE ($1::uuid IS NULL OR d.creditor_id = $1 OR d.debtor_id = $1)
		  AND ($2 = '' OR d.status = $2)
		ORDER BY d.created_at, d.id`
	rows, err := s.pool.Query(ctx, query, userID, string(filter.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	debts := make([]models.Debt, 0, 32)
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}
	return debts, rows.Err()
}

// UpdateDebt persists the mutable fields and status, bumping the version.
func (s *Store) UpdateDebt(ctx context.Context, debt models.Debt) (models.Debt, error) {
	query := `
		WITH d AS (
			UPDATE debts
			SET description = $2, amount = $3, status = $4, version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $5
			RETURNING *
		)` + debtSelect + `FROM d` + debtJoins
	row := s.pool.QueryRow(ctx, query, debt.ID, debt.Description, debt.Amount, string(debt.Status), debt.Version)
	updated, err := scanDebt(row)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Debt{}, s.missingOrStale(ctx, debt.ID)
	}
	return updated, err
}

// DeleteDebt removes a debt whose version still matches.
func (s *Store) DeleteDebt(ctx context.Context, id uuid.UUID, version int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM debts WHERE id = $1 AND version = $2`, id, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrStale(ctx, id)
	}
	return nil
}

// SumAmounts totals the amounts of debts where userID holds role with the given status.
func (s *Store) SumAmounts(ctx context.Context, userID uuid.UUID, role models.Role, status models.DebtStatus) (decimal.Decimal, error) {
	column, err := roleColumn(role)
	if err != nil {
		return decimal.Zero, err
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM debts WHERE %s = $1 AND status = $2`, column)
	var total decimal.Decimal
	if err := s.pool.QueryRow(ctx, query, userID, string(status)).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *Store) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM debts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrStale
}

func roleColumn(role models.Role) (string, error) {
	switch role {
	case models.RoleCreditor:
		return "creditor_id", nil
	case models.RoleDebtor:
		return "debtor_id", nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

func scanDebt(row pgx.Row) (models.Debt, error) {
	var (
		debt   models.Debt
		status string
	)
	err := row.Scan(
		&debt.ID, &debt.Description, &debt.Amount, &status, &debt.Version, &debt.CreatedAt, &debt.UpdatedAt,
		&debt.Creditor.ID, &debt.Creditor.Email, &debt.Creditor.Name, &debt.Creditor.CreatedAt, &debt.Creditor.UpdatedAt,
		&debt.Debtor.ID, &debt.Debtor.Email, &debt.Debtor.Name, &debt.Debtor.CreatedAt, &debt.Debtor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Debt{}, storage.ErrNotFound
		}
		return models.Debt{}, err
	}
	debt.Status = models.DebtStatus(status)
	return debt, nil
}
