package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the ISO code a condominium keeps its books in
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyDOP Currency = "DOP"
)

// Condominium represents a tenant of the service
type Condominium struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	RNC           string          `json:"rnc,omitempty"`
	Currency      Currency        `json:"currency"`
	ManualBalance decimal.Decimal `json:"manual_balance"` // opening balance of the global ledger
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CondominiumParams is the payload for creating or replacing a condominium
type CondominiumParams struct {
	Name          string          `json:"name" yaml:"name"`
	Address       string          `json:"address" yaml:"address"`
	RNC           string          `json:"rnc" yaml:"rnc"`
	Currency      Currency        `json:"currency" yaml:"currency"`
	ManualBalance decimal.Decimal `json:"manual_balance" yaml:"manual_balance"`
}

// Validate checks the payload and applies the default currency
func (p *CondominiumParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", "is required")
	}
	if p.Currency == "" {
		p.Currency = CurrencyDOP
	}
	if p.Currency != CurrencyUSD && p.Currency != CurrencyDOP {
		return invalid("currency", "must be USD or DOP")
	}
	return checkCents("manual_balance", p.ManualBalance)
}
