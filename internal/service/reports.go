package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Dan9191/condo-service/internal/integrations/ecf"
	"github.com/Dan9191/condo-service/internal/ledger"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/report"
)

// WriteDebtorReport writes the units that owe, largest debt first, as CSV
func (s *Service) WriteDebtorReport(ctx context.Context, condoID string, w io.Writer) error {
	receivables, err := s.Receivables(ctx, condoID)
	if err != nil {
		return err
	}
	var rows []report.DebtorRow
	for _, r := range receivables {
		if r.Status != ledger.Owes {
			continue
		}
		rows = append(rows, report.DebtorRow{
			Unit:    r.UnitNumber,
			Owner:   r.Owner,
			Status:  r.StatusLabel,
			Balance: r.Balance.StringFixed(2),
		})
	}
	return report.WriteDebtors(w, rows)
}

// UploadDebtorReport renders the debtor report and stores it through the
// uploader under reports/<condo>/deudores-YYYY-MM-DD.csv
func (s *Service) UploadDebtorReport(ctx context.Context, condoID string) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadDisabled
	}
	var buf bytes.Buffer
	if err := s.WriteDebtorReport(ctx, condoID, &buf); err != nil {
		return "", err
	}
	object := fmt.Sprintf("reports/%s/deudores-%s.csv", condoID, s.now().Format("2006-01-02"))
	location, err := s.uploader.Upload(ctx, object, "text/csv", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to upload debtor report: %w", err)
	}
	s.condoLog(condoID).Infof("Debtor report uploaded to %s", location)
	return location, nil
}

// ImportSuppliers creates a supplier for every row whose RNC is not already
// registered. It returns the suppliers created.
func (s *Service) ImportSuppliers(ctx context.Context, condoID string, r io.Reader) ([]models.Supplier, error) {
	if _, err := s.store.Condominiums().Get(ctx, condoID); err != nil {
		return nil, err
	}
	rows, err := report.ReadSuppliers(r)
	if err != nil {
		return nil, &models.ValidationError{Field: "file", Message: err.Error()}
	}
	created := []models.Supplier{}
	for _, row := range rows {
		existing, err := s.findSupplierByRNC(ctx, condoID, row.RNC)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		sup, err := s.CreateSupplier(ctx, condoID, models.SupplierParams{
			Name:     row.Name,
			RNC:      row.RNC,
			Contact:  models.Person{Name: row.Contact, Phone: row.Phone, Email: row.Email},
			Category: row.Category,
		})
		if err != nil {
			return created, err
		}
		created = append(created, *sup)
	}
	s.condoLog(condoID).Infof("Suppliers imported: %d of %d rows", len(created), len(rows))
	return created, nil
}

// ImportECF registers a pending invoice from an electronic fiscal receipt.
// The supplier is matched by RNC and created when unknown.
func (s *Service) ImportECF(ctx context.Context, condoID string, doc *ecf.Document) (*models.Invoice, error) {
	if _, err := s.store.Condominiums().Get(ctx, condoID); err != nil {
		return nil, err
	}
	sup, err := s.findSupplierByRNC(ctx, condoID, doc.IssuerRNC)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		name := strings.TrimSpace(doc.IssuerName)
		if name == "" {
			name = doc.IssuerRNC
		}
		sup, err = s.CreateSupplier(ctx, condoID, models.SupplierParams{Name: name, RNC: doc.IssuerRNC})
		if err != nil {
			return nil, err
		}
	}

	items := make([]models.InvoiceItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, models.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return s.CreateInvoice(ctx, condoID, models.CreateInvoiceParams{
		SupplierID:    sup.ID,
		InvoiceNumber: doc.ENCF,
		Date:          doc.IssueDate,
		DueDate:       doc.DueDate,
		Amount:        doc.Total,
		Items:         items,
	})
}
