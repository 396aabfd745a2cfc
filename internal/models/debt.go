package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtStatus is the lifecycle state of a debt.
type DebtStatus string

const (
	DebtPending DebtStatus = "pending"
	DebtPaid    DebtStatus = "paid"
)

// Valid reports whether s is a known status.
func (s DebtStatus) Valid() bool {
	return s == DebtPending || s == DebtPaid
}

// Role is the side a user takes on a debt.
type Role string

const (
	RoleCreditor Role = "creditor"
	RoleDebtor   Role = "debtor"
)

// Debt is a directed obligation: Debtor owes Creditor Amount.
type Debt struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Creditor    User            `json:"creditor"`
	Debtor      User            `json:"debtor"`
	Status      DebtStatus      `json:"status"`
	Version     int64           `json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewDebt holds the inputs for recording a debt.
type NewDebt struct {
	Description string
	Amount      decimal.Decimal
	CreditorID  uuid.UUID
	DebtorID    uuid.UUID
}

// DebtUpdate lists the fields a caller may change on a pending debt. Nil
// fields are left untouched. Status changes go through MarkPaid.
type DebtUpdate struct {
	Description *string
	Amount      *decimal.Decimal
}

// StatusTotals sums amounts per status for one side of a user's ledger.
type StatusTotals struct {
	Pending decimal.Decimal `json:"pending"`
	Paid    decimal.Decimal `json:"paid"`
	Total   decimal.Decimal `json:"total"`
}

// Stats summarises a user's position. Balance only counts pending amounts.
type Stats struct {
	Debts   StatusTotals    `json:"debts"`
	Credits StatusTotals    `json:"credits"`
	Balance decimal.Decimal `json:"balance"`
}
