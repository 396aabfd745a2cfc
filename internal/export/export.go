// Package export renders debts as CSV or indented JSON documents.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/debt-ledger/internal/models"
)

// Format selects an export representation.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a query value to a Format; empty selects JSON.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", raw)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// Render dispatches to the renderer for f.
func Render(f Format, debts []models.Debt) ([]byte, error) {
	if f == FormatCSV {
		return ToTabular(debts)
	}
	return ToStructured(debts)
}

var tabularHeader = []string{"id", "description", "amount", "creditor", "debtor", "status", "created_at"}

// ToTabular renders one CSV row per debt after a header row. Participants
// appear by name, or by email when unnamed; the creation timestamp is
// reduced to its UTC date. Fields containing commas, quotes or line breaks
// are quoted per RFC 4180.
func ToTabular(debts []models.Debt) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(tabularHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, debt := range debts {
		record := []string{
			debt.ID.String(),
			debt.Description,
			debt.Amount.StringFixed(2),
			debt.Creditor.DisplayName(),
			debt.Debtor.DisplayName(),
			string(debt.Status),
			debt.CreatedAt.UTC().Format(time.DateOnly),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %s: %w", debt.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Participant is the public projection of a user inside an export.
type Participant struct {
	ID    uuid.UUID `json:"id"`
	Name  *string   `json:"name"`
	Email string    `json:"email"`
}

// Record is one debt in a structured export.
type Record struct {
	ID          uuid.UUID         `json:"id"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Creditor    Participant       `json:"creditor"`
	Debtor      Participant       `json:"debtor"`
	Status      models.DebtStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ToStructured renders debts as a two-space indented JSON array.
func ToStructured(debts []models.Debt) ([]byte, error) {
	records := make([]Record, 0, len(debts))
	for _, debt := range debts {
		records = append(records, Record{
			ID:          debt.ID,
			Description: debt.Description,
			Amount:      debt.Amount,
			Creditor:    participant(debt.Creditor),
			Debtor:      participant(debt.Debtor),
			Status:      debt.Status,
			CreatedAt:   debt.CreatedAt,
			UpdatedAt:   debt.UpdatedAt,
		})
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal debts: %w", err)
	}
	return out, nil
}

func participant(user models.User) Participant {
	p := Participant{ID: user.ID, Email: user.Email}
	if user.Name != "" {
		name := user.Name
		p.Name = &name
	}
	return p
}
