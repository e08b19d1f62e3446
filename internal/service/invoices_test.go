package service

import (
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) invoice(t *testing.T, supplierID, number string, amount int64, due time.Time) *models.Invoice {
	t.Helper()
	inv, err := e.svc.CreateInvoice(e.ctx, e.condoID, models.CreateInvoiceParams{
		SupplierID:    supplierID,
		InvoiceNumber: number,
		Date:          due.AddDate(0, 0, -30),
		DueDate:       due,
		Amount:        decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return inv
}

func TestCreateInvoiceRejectsUnknownSupplier(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateInvoice(env.ctx, env.condoID, models.CreateInvoiceParams{
		SupplierID: "nope", InvoiceNumber: "B01", Date: testNow, Amount: decimal.NewFromInt(10),
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "supplier_id", verr.Field)
}

func TestCreateInvoiceDerivesAmountFromItems(t *testing.T) {
	env := newTestEnv(t)
	sup := env.supplier(t, "Jardinería Verde", "101000010")
	inv, err := env.svc.CreateInvoice(env.ctx, env.condoID, models.CreateInvoiceParams{
		SupplierID: sup.ID, InvoiceNumber: "B0100000007", Date: testNow,
		Items: []models.InvoiceItem{
			{Description: "Poda", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(1500)},
			{Description: "Abono", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("750.50")},
		},
	})
	require.NoError(t, err)
	assert.True(t, inv.Amount.Equal(decimal.RequireFromString("3750.50")), inv.Amount.String())
	assert.Equal(t, testNow, inv.DueDate)
}

func TestPayInvoiceRecordsExpense(t *testing.T) {
	env := newTestEnv(t)
	sup := env.supplier(t, "Ascensores del Caribe", "131234567")
	inv := env.invoice(t, sup.ID, "B0100000001", 12000, testNow.AddDate(0, 0, 10))

	paid, err := env.svc.PayInvoice(env.ctx, env.condoID, inv.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)

	txns, err := env.store.Transactions().List(env.ctx, env.condoID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	txn := txns[0]
	assert.Equal(t, paid.RelatedTransactionID, txn.ID)
	assert.Equal(t, "Pago Factura #B0100000001", txn.Description)
	assert.Equal(t, models.TransactionExpense, txn.Type)
	assert.Equal(t, models.CategoryAccountsPayable, txn.Category)
	assert.Equal(t, inv.ID, txn.Reference)
	assert.Equal(t, testNow, txn.Date)
	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(12000)))

	summary, err := env.svc.FinanceSummary(env.ctx, env.condoID)
	require.NoError(t, err)
	assert.True(t, summary.Expenses.Equal(decimal.NewFromInt(12000)))
	assert.True(t, summary.ReconciledBalance.Equal(decimal.NewFromInt(38000)))
	assert.True(t, summary.ToPay.IsZero())
}

func TestPayInvoiceConcurrently(t *testing.T) {
	env := newTestEnv(t)
	sup := env.supplier(t, "Ascensores del Caribe", "131234567")
	inv := env.invoice(t, sup.ID, "B0100000001", 12000, testNow)

	const payers = 10
	var wg sync.WaitGroup
	errs := make(chan error, payers)
	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.PayInvoice(env.ctx, env.condoID, inv.ID, testNow)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrInvoiceAlreadyPaid)
	}
	assert.Equal(t, 1, succeeded)

	txns, err := env.store.Transactions().List(env.ctx, env.condoID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	rec, err := env.svc.ReconcileInvoices(env.ctx, env.condoID)
	require.NoError(t, err)
	assert.True(t, rec.Clean())
}

func TestPaidInvoiceCannotBeEdited(t *testing.T) {
	env := newTestEnv(t)
	sup := env.supplier(t, "Limpieza Total", "101000001")
	inv := env.invoice(t, sup.ID, "B0100000002", 800, testNow)
	_, err := env.svc.PayInvoice(env.ctx, env.condoID, inv.ID, testNow)
	require.NoError(t, err)

	amount := decimal.NewFromInt(1)
	_, err = env.svc.UpdateInvoice(env.ctx, env.condoID, inv.ID, models.UpdateInvoiceParams{Amount: &amount})
	assert.ErrorIs(t, err, repository.ErrInvoiceAlreadyPaid)
}

func TestMarkOverdue(t *testing.T) {
	env := newTestEnv(t)
	sup := env.supplier(t, "Seguridad 24", "101000002")
	late := env.invoice(t, sup.ID, "B01-late", 500, testNow.AddDate(0, 0, -1))
	current := env.invoice(t, sup.ID, "B01-current", 500, testNow.AddDate(0, 0, 5))

	n, err := env.svc.MarkOverdue(env.ctx, env.condoID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := env.svc.GetInvoice(env.ctx, env.condoID, late.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, got.Status)
	got, err = env.svc.GetInvoice(env.ctx, env.condoID, current.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePending, got.Status)

	_, err = env.svc.PayInvoice(env.ctx, env.condoID, late.ID, testNow)
	assert.NoError(t, err, "overdue invoices remain payable")
}

func TestReconcileFindsInconsistencies(t *testing.T) {
	env := newTestEnv(t)
	sup := env.supplier(t, "Plomería Rápida", "101000003")
	inv := env.invoice(t, sup.ID, "B0100000003", 2000, testNow)

	_, err := env.svc.AddTransaction(env.ctx, env.condoID, models.TransactionParams{
		Description: "Pago manual", Type: models.TransactionExpense,
		Category: models.CategoryAccountsPayable, Amount: decimal.NewFromInt(2000), Reference: inv.ID,
	})
	require.NoError(t, err)

	rec, err := env.svc.ReconcileInvoices(env.ctx, env.condoID)
	require.NoError(t, err)
	assert.False(t, rec.Clean())
	assert.Len(t, rec.Orphans, 1)
	assert.Empty(t, rec.Dangling)
	assert.Empty(t, rec.Duplicates)
}

func TestPaidInvoiceCannotBeDeleted(t *testing.T) {
	env := newTestEnv(t)
	sup := env.supplier(t, "Seguridad Total", "130000003")
	inv := env.invoice(t, sup.ID, "B0300000001", 4500, testNow.AddDate(0, 0, 5))
	_, err := env.svc.PayInvoice(env.ctx, env.condoID, inv.ID, time.Time{})
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.DeleteInvoice(env.ctx, env.condoID, inv.ID), repository.ErrInvoiceAlreadyPaid)

	rec, err := env.svc.ReconcileInvoices(env.ctx, env.condoID)
	require.NoError(t, err)
	assert.True(t, rec.Clean())

	pending := env.invoice(t, sup.ID, "B0300000002", 800, testNow.AddDate(0, 0, 5))
	require.NoError(t, env.svc.DeleteInvoice(env.ctx, env.condoID, pending.ID))
}

func TestUpdateInvoiceRejectsUnknownSupplier(t *testing.T) {
	env := newTestEnv(t)
	sup := env.supplier(t, "Fumigadora Sur", "130000004")
	other := env.supplier(t, "Pinturas Norte", "130000005")
	inv := env.invoice(t, sup.ID, "B0400000001", 2000, testNow.AddDate(0, 0, 5))

	missing := "no-such-supplier"
	_, err := env.svc.UpdateInvoice(env.ctx, env.condoID, inv.ID, models.UpdateInvoiceParams{SupplierID: &missing})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "supplier_id", verr.Field)

	got, err := env.svc.GetInvoice(env.ctx, env.condoID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, sup.ID, got.SupplierID)

	updated, err := env.svc.UpdateInvoice(env.ctx, env.condoID, inv.ID, models.UpdateInvoiceParams{SupplierID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, updated.SupplierID)
}
