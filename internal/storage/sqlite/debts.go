package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/hongminglow/debt-ledger/internal/models"
	"github.com/hongminglow/debt-ledger/internal/storage"
)

// debtSelect joins both participants onto d. Participant password hashes are
// never projected.
const debtSelect = `
	SELECT d.id, d.description, d.amount_cents, d.status, d.version, d.created_at, d.updated_at,
		c.id, c.email, COALESCE(c.name, ''), '', c.created_at, c.updated_at,
		b.id, b.email, COALESCE(b.name, ''), '', b.created_at, b.updated_at
	FROM debts d
	JOIN users c ON c.id = d.creditor_id
	JOIN users b ON b.id = d.debtor_id
	`

// CreateDebt inserts a debt and returns it with both participants loaded.
func (s *Store) CreateDebt(ctx context.Context, debt models.Debt) (created models.Debt, err error) {
	conn, err := s.take(ctx)
	if err != nil {
		return models.Debt{}, err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return models.Debt{}, fmt.Errorf("sqlite store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	if debt.ID == uuid.Nil {
		debt.ID = uuid.New()
	}
	now := s.timestamp()
	err = sqlitex.Execute(conn, `
		INSERT INTO debts (id, description, amount_cents, creditor_id, debtor_id, status, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				debt.ID.String(),
				debt.Description,
				toCents(debt.Amount),
				debt.Creditor.ID.String(),
				debt.Debtor.ID.String(),
				string(debt.Status),
				now,
				now,
			},
		})
	if err != nil {
		return models.Debt{}, translate(err)
	}
	return findDebt(conn, debt.ID)
}

// FindDebtByID fetches a debt by primary key.
func (s *Store) FindDebtByID(ctx context.Context, id uuid.UUID) (models.Debt, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return models.Debt{}, err
	}
	defer s.pool.Put(conn)
	return findDebt(conn, id)
}

// ListDebts returns debts matching filter, oldest first.
func (s *Store) ListDebts(ctx context.Context, filter storage.DebtFilter) ([]models.Debt, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var userID string
	if filter.UserID != uuid.Nil {
		userID = filter.UserID.String()
	}
	debts := make([]models.Debt, 0, 32)
	err = sqlitex.Execute(conn, debtSelect+`
		WHERE (?1 = '' OR d.creditor_id = ?1 OR d.debtor_id = ?1)
		  AND (?2 = '' OR d.status = ?2)
		ORDER BY d.created_at, d.id`,
		&sqlitex.ExecOptions{
			Args: []any{userID, string(filter.Status)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				debt, err := scanDebt(stmt)
				if err != nil {
					return err
				}
				debts = append(debts, debt)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list debts: %w", err)
	}
	return debts, nil
}

// UpdateDebt persists the mutable fields and status, bumping the version.
func (s *Store) UpdateDebt(ctx context.Context, debt models.Debt) (updated models.Debt, err error) {
	conn, err := s.take(ctx)
	if err != nil {
		return models.Debt{}, err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return models.Debt{}, fmt.Errorf("sqlite store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `
		UPDATE debts
		SET description = ?, amount_cents = ?, status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		&sqlitex.ExecOptions{
			Args: []any{debt.Description, toCents(debt.Amount), string(debt.Status), s.timestamp(), debt.ID.String(), debt.Version},
		})
	if err != nil {
		return models.Debt{}, translate(err)
	}
	if conn.Changes() == 0 {
		return models.Debt{}, missingOrStale(conn, debt.ID)
	}
	return findDebt(conn, debt.ID)
}

// DeleteDebt removes a debt whose version still matches.
func (s *Store) DeleteDebt(ctx context.Context, id uuid.UUID, version int64) (err error) {
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlite store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `DELETE FROM debts WHERE id = ? AND version = ?`, &sqlitex.ExecOptions{
		Args: []any{id.String(), version},
	})
	if err != nil {
		return err
	}
	if conn.Changes() == 0 {
		return missingOrStale(conn, id)
	}
	return nil
}

// SumAmounts totals the amounts of debts where userID holds role with the given status.
func (s *Store) SumAmounts(ctx context.Context, userID uuid.UUID, role models.Role, status models.DebtStatus) (decimal.Decimal, error) {
	var column string
	switch role {
	case models.RoleCreditor:
		column = "creditor_id"
	case models.RoleDebtor:
		column = "debtor_id"
	default:
		return decimal.Zero, fmt.Errorf("unknown role %q", role)
	}

	conn, err := s.take(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer s.pool.Put(conn)

	var cents int64
	err = sqlitex.Execute(conn,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM debts WHERE `+column+` = ? AND status = ?`,
		&sqlitex.ExecOptions{
			Args: []any{userID.String(), string(status)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				cents = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return decimal.Zero, fmt.Errorf("sqlite store: sum amounts: %w", err)
	}
	return fromCents(cents), nil
}

func findDebt(conn *sqlite.Conn, id uuid.UUID) (models.Debt, error) {
	var (
		debt  models.Debt
		found bool
	)
	err := sqlitex.Execute(conn, debtSelect+`WHERE d.id = ?`, &sqlitex.ExecOptions{
		Args: []any{id.String()},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var err error
			debt, err = scanDebt(stmt)
			found = true
			return err
		},
	})
	if err != nil {
		return models.Debt{}, err
	}
	if !found {
		return models.Debt{}, storage.ErrNotFound
	}
	return debt, nil
}

func missingOrStale(conn *sqlite.Conn, id uuid.UUID) error {
	var exists bool
	err := sqlitex.Execute(conn, `SELECT 1 FROM debts WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id.String()},
		ResultFunc: func(*sqlite.Stmt) error {
			exists = true
			return nil
		},
	})
	if err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrStale
}

func scanDebt(stmt *sqlite.Stmt) (models.Debt, error) {
	var (
		debt models.Debt
		err  error
	)
	if debt.ID, err = uuid.Parse(stmt.ColumnText(0)); err != nil {
		return models.Debt{}, fmt.Errorf("sqlite store: parse debt id: %w", err)
	}
	debt.Description = stmt.ColumnText(1)
	debt.Amount = fromCents(stmt.ColumnInt64(2))
	debt.Status = models.DebtStatus(stmt.ColumnText(3))
	debt.Version = stmt.ColumnInt64(4)
	if debt.CreatedAt, err = parseTime(stmt.ColumnText(5)); err != nil {
		return models.Debt{}, err
	}
	if debt.UpdatedAt, err = parseTime(stmt.ColumnText(6)); err != nil {
		return models.Debt{}, err
	}
	if debt.Creditor, err = scanUser(stmt, 7); err != nil {
		return models.Debt{}, err
	}
	if debt.Debtor, err = scanUser(stmt, 13); err != nil {
		return models.Debt{}, err
	}
	return debt, nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
