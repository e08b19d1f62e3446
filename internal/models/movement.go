package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies an entry of a unit's account history
type MovementType string

const (
	MovementCharge     MovementType = "cargo"
	MovementPayment    MovementType = "abono"
	MovementMonthlyFee MovementType = "cuota_mensual"
)

// Period identifies a calendar month
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodOf returns the calendar month containing t
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Start returns midnight UTC of the first day of the period
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month
func (p Period) Next() Period {
	return PeriodOf(p.Start().AddDate(0, 1, 0))
}

// Key formats the period as YYYY-MM
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// AccountMovement is a signed entry against a unit's ledger. Charges are
// positive and payments negative.
type AccountMovement struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Type        MovementType    `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Period      *Period         `json:"period,omitempty"` // set on cuota_mensual only
}

// MovementParams is the payload for a manual charge or payment
type MovementParams struct {
	Date        time.Time       `json:"date"`
	Type        MovementType    `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Validate checks the payload. Monthly fees are not accepted here, they are
// generated by the fee generator.
func (p *MovementParams) Validate() error {
	if p.Type != MovementCharge && p.Type != MovementPayment {
		return invalid("type", "must be cargo or abono")
	}
	if strings.TrimSpace(p.Description) == "" {
		return invalid("description", "is required")
	}
	if p.Amount.IsZero() {
		return invalid("amount", "must not be zero")
	}
	return checkCents("amount", p.Amount)
}

// SignedAmount applies the ledger sign convention to the payload amount
func (p MovementParams) SignedAmount() decimal.Decimal {
	if p.Type == MovementPayment {
		return p.Amount.Abs().Neg()
	}
	return p.Amount.Abs()
}
