package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "ingreso"
	TransactionExpense TransactionType = "egreso"
)

// CategoryAccountsPayable is the category of the expense recorded when an invoice is paid
const CategoryAccountsPayable = "Cuentas por Pagar"

// Transaction is an entry of the condominium's global income/expense ledger.
// Amount is unsigned; Type gives the direction.
type Transaction struct {
	ID            string          `json:"id"`
	CondominiumID string          `json:"condominium_id"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Type          TransactionType `json:"type"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Signed returns the amount with the sign of its direction
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionParams is the payload for a manual ledger entry
type TransactionParams struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
}

func (p *TransactionParams) Validate() error {
	if p.Type != TransactionIncome && p.Type != TransactionExpense {
		return invalid("type", "must be ingreso or egreso")
	}
	if strings.TrimSpace(p.Description) == "" {
		return invalid("description", "is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		return invalid("category", "is required")
	}
	if !p.Amount.IsPositive() {
		return invalid("amount", "must be positive")
	}
	return checkCents("amount", p.Amount)
}
