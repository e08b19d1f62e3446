package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/sirupsen/logrus"
)

func (s *Service) CreateInvoice(ctx context.Context, condoID string, params models.CreateInvoiceParams) (*models.Invoice, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireSupplier(ctx, condoID, params.SupplierID); err != nil {
		return nil, err
	}
	inv := &models.Invoice{
		ID:            newID(),
		CondominiumID: condoID,
		SupplierID:    params.SupplierID,
		InvoiceNumber: strings.TrimSpace(params.InvoiceNumber),
		Date:          params.Date,
		DueDate:       params.DueDate,
		Amount:        params.Amount,
		Status:        models.InvoicePending,
		Items:         params.Items,
	}
	if err := s.store.Invoices().Create(ctx, inv); err != nil {
		return nil, err
	}
	s.condoLog(condoID).WithField("invoice_id", inv.ID).Infof("Invoice registered: #%s %s", inv.InvoiceNumber, inv.Amount)
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, condoID, invoiceID string) (*models.Invoice, error) {
	return s.store.Invoices().Get(ctx, condoID, invoiceID)
}

func (s *Service) ListInvoices(ctx context.Context, condoID string) ([]*models.Invoice, error) {
	return s.store.Invoices().List(ctx, condoID)
}

// UpdateInvoice edits an unpaid invoice
func (s *Service) UpdateInvoice(ctx context.Context, condoID, invoiceID string, params models.UpdateInvoiceParams) (*models.Invoice, error) {
	inv, err := s.store.Invoices().Get(ctx, condoID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := params.Apply(inv); err != nil {
		return nil, err
	}
	if params.SupplierID != nil {
		if err := s.requireSupplier(ctx, condoID, inv.SupplierID); err != nil {
			return nil, err
		}
	}
	if err := s.store.Invoices().Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// DeleteInvoice removes an unpaid invoice. Paid invoices fail with
// repository.ErrInvoiceAlreadyPaid so their expense never loses its reference.
func (s *Service) DeleteInvoice(ctx context.Context, condoID, invoiceID string) error {
	return s.store.Invoices().Delete(ctx, condoID, invoiceID)
}

func (s *Service) requireSupplier(ctx context.Context, condoID, supplierID string) error {
	_, err := s.store.Suppliers().Get(ctx, condoID, supplierID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.ValidationError{Field: "supplier_id", Message: "unknown supplier"}
	}
	if err != nil {
		return fmt.Errorf("failed to get supplier: %w", err)
	}
	return nil
}

// PayInvoice records the expense for an outstanding invoice and marks it
// Pagada. Both writes happen in one repository operation, so a repeated or
// concurrent payment fails with repository.ErrInvoiceAlreadyPaid and adds no
// second expense. A zero paymentDate means now.
func (s *Service) PayInvoice(ctx context.Context, condoID, invoiceID string, paymentDate time.Time) (*models.Invoice, error) {
	inv, err := s.store.Invoices().Get(ctx, condoID, invoiceID)
	if err != nil {
		return nil, err
	}
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}
	txn := &models.Transaction{
		ID:            newID(),
		CondominiumID: condoID,
		Date:          paymentDate,
		Description:   "Pago Factura #" + inv.InvoiceNumber,
		Type:          models.TransactionExpense,
		Category:      models.CategoryAccountsPayable,
		Amount:        inv.Amount,
		Reference:     inv.ID,
	}
	paid, err := s.store.Invoices().Pay(ctx, condoID, invoiceID, txn)
	if err != nil {
		return nil, err
	}
	s.condoLog(condoID).WithFields(logrus.Fields{
		"invoice_id":     invoiceID,
		"transaction_id": txn.ID,
	}).Infof("Invoice paid: #%s %s", inv.InvoiceNumber, inv.Amount)
	return paid, nil
}

// MarkOverdue flips pending invoices due before asOf to Vencida
func (s *Service) MarkOverdue(ctx context.Context, condoID string, asOf time.Time) (int, error) {
	n, err := s.store.Invoices().MarkOverdue(ctx, condoID, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.condoLog(condoID).Infof("Invoices marked overdue: %d", n)
	}
	return n, nil
}
