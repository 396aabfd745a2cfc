package dto

import "github.com/shopspring/decimal"

type CreateDebtRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	CreditorID  string           `json:"creditorId"`
	DebtorID    string           `json:"debtorId"`
}

// UpdateDebtRequest accepts only the mutable fields of a debt. Unknown
// fields, including status, are rejected by the decoder.
type UpdateDebtRequest struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}
