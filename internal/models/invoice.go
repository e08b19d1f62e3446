package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the payable state of a supplier invoice
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "Pendiente"
	InvoicePaid    InvoiceStatus = "Pagada"
	InvoiceOverdue InvoiceStatus = "Vencida"
)

// Outstanding reports whether an invoice in this status still has to be paid
func (s InvoiceStatus) Outstanding() bool {
	return s == InvoicePending || s == InvoiceOverdue
}

// InvoiceItem is a line of a supplier invoice
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total returns quantity times unit price
func (i InvoiceItem) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Invoice represents a bill owed by the condominium to a supplier
type Invoice struct {
	ID                   string          `json:"id"`
	CondominiumID        string          `json:"condominium_id"`
	SupplierID           string          `json:"supplier_id"`
	InvoiceNumber        string          `json:"invoice_number"`
	Date                 time.Time       `json:"date"`
	DueDate              time.Time       `json:"due_date"`
	Amount               decimal.Decimal `json:"amount"`
	Status               InvoiceStatus   `json:"status"`
	Items                []InvoiceItem   `json:"items"`
	RelatedTransactionID string          `json:"related_transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// CreateInvoiceParams is the payload for registering an invoice
type CreateInvoiceParams struct {
	SupplierID    string          `json:"supplier_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          time.Time       `json:"date"`
	DueDate       time.Time       `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
	Items         []InvoiceItem   `json:"items"`
}

// Validate checks the payload. A zero amount is derived from the items.
func (p *CreateInvoiceParams) Validate() error {
	if strings.TrimSpace(p.SupplierID) == "" {
		return invalid("supplier_id", "is required")
	}
	if strings.TrimSpace(p.InvoiceNumber) == "" {
		return invalid("invoice_number", "is required")
	}
	if p.Date.IsZero() {
		return invalid("date", "is required")
	}
	if p.DueDate.IsZero() {
		p.DueDate = p.Date
	}
	if p.DueDate.Before(p.Date) {
		return invalid("due_date", "must not be before the invoice date")
	}
	if p.Amount.IsZero() {
		p.Amount = ItemsTotal(p.Items)
	}
	if !p.Amount.IsPositive() {
		return invalid("amount", "must be positive")
	}
	if err := checkCents("amount", p.Amount); err != nil {
		return err
	}
	return validateItems(p.Items)
}

// UpdateInvoiceParams carries the fields of an invoice edit; nil fields are left
// untouched. Paying an invoice is not an edit, so Pagada is rejected here.
type UpdateInvoiceParams struct {
	SupplierID    *string          `json:"supplier_id"`
	InvoiceNumber *string          `json:"invoice_number"`
	Date          *time.Time       `json:"date"`
	DueDate       *time.Time       `json:"due_date"`
	Amount        *decimal.Decimal `json:"amount"`
	Status        *InvoiceStatus   `json:"status"`
	Items         []InvoiceItem    `json:"items"`
}

// Apply validates the edit against the current invoice and writes it in place
func (p UpdateInvoiceParams) Apply(inv *Invoice) error {
	next := *inv
	if p.SupplierID != nil {
		next.SupplierID = *p.SupplierID
	}
	if p.InvoiceNumber != nil {
		next.InvoiceNumber = *p.InvoiceNumber
	}
	if p.Date != nil {
		next.Date = *p.Date
	}
	if p.DueDate != nil {
		next.DueDate = *p.DueDate
	}
	if p.Amount != nil {
		next.Amount = *p.Amount
	}
	if p.Items != nil {
		next.Items = p.Items
	}
	if p.Status != nil {
		if *p.Status != InvoicePending && *p.Status != InvoiceOverdue {
			return invalid("status", "must be Pendiente or Vencida")
		}
		next.Status = *p.Status
	}
	switch {
	case strings.TrimSpace(next.SupplierID) == "":
		return invalid("supplier_id", "is required")
	case strings.TrimSpace(next.InvoiceNumber) == "":
		return invalid("invoice_number", "is required")
	case next.DueDate.Before(next.Date):
		return invalid("due_date", "must not be before the invoice date")
	case !next.Amount.IsPositive():
		return invalid("amount", "must be positive")
	}
	if err := checkCents("amount", next.Amount); err != nil {
		return err
	}
	if err := validateItems(next.Items); err != nil {
		return err
	}
	*inv = next
	return nil
}

// ItemsTotal sums the line totals of an invoice
func ItemsTotal(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total())
	}
	return total
}

func validateItems(items []InvoiceItem) error {
	for _, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			return invalid("items.description", "is required")
		}
		if !it.Quantity.IsPositive() {
			return invalid("items.quantity", "must be positive")
		}
		if it.UnitPrice.IsNegative() {
			return invalid("items.unit_price", "must not be negative")
		}
	}
	return nil
}
