package service

import (
	"context"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Reconciliation lists inconsistencies between paid invoices and the expenses
// that settled them
type Reconciliation struct {
	// Orphans are payable expenses whose invoice is missing, unpaid or linked
	// to a different transaction
	Orphans []models.Transaction `json:"orphans"`
	// Dangling are paid invoices whose related transaction does not exist
	Dangling []models.Invoice `json:"dangling"`
	// Duplicates maps an invoice id to every expense that references it, when
	// there is more than one
	Duplicates map[string][]models.Transaction `json:"duplicates"`
}

// Clean reports whether nothing was found
func (r *Reconciliation) Clean() bool {
	return len(r.Orphans) == 0 && len(r.Dangling) == 0 && len(r.Duplicates) == 0
}

// ReconcileInvoices audits the link between invoices and Cuentas por Pagar
// expenses of a condominium
func (s *Service) ReconcileInvoices(ctx context.Context, condoID string) (*Reconciliation, error) {
	invs, err := s.store.Invoices().List(ctx, condoID)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions().List(ctx, condoID)
	if err != nil {
		return nil, err
	}

	invoices := make(map[string]*models.Invoice, len(invs))
	for _, inv := range invs {
		invoices[inv.ID] = inv
	}
	txnByID := make(map[string]models.Transaction, len(txns))
	byInvoice := make(map[string][]models.Transaction)

	res := &Reconciliation{
		Orphans:    []models.Transaction{},
		Dangling:   []models.Invoice{},
		Duplicates: map[string][]models.Transaction{},
	}
	for _, t := range txns {
		txnByID[t.ID] = t
		if t.Category != models.CategoryAccountsPayable || t.Reference == "" {
			continue
		}
		byInvoice[t.Reference] = append(byInvoice[t.Reference], t)

		inv, ok := invoices[t.Reference]
		if !ok || inv.Status != models.InvoicePaid || inv.RelatedTransactionID != t.ID {
			res.Orphans = append(res.Orphans, t)
		}
	}
	for invID, refs := range byInvoice {
		if len(refs) > 1 {
			res.Duplicates[invID] = refs
		}
	}
	for _, inv := range invs {
		if inv.Status != models.InvoicePaid {
			continue
		}
		if _, ok := txnByID[inv.RelatedTransactionID]; !ok {
			res.Dangling = append(res.Dangling, *inv)
		}
	}

	if !res.Clean() {
		s.condoLog(condoID).WithFields(logrus.Fields{
			"orphans":    len(res.Orphans),
			"dangling":   len(res.Dangling),
			"duplicates": len(res.Duplicates),
		}).Warn("Invoice reconciliation found inconsistencies")
	}
	return res, nil
}
