package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Condominiums().Create(ctx, &models.Condominium{ID: "c1", Name: "Torre Azul", Currency: models.CurrencyDOP}))
	require.NoError(t, s.Units().Create(ctx, &models.Unit{ID: "u1", CondominiumID: "c1", UnitNumber: "A-101"}))
	return s, ctx
}

func TestPayIsAtomicUnderContention(t *testing.T) {
	s, ctx := seed(t)
	inv := &models.Invoice{
		ID: "inv1", CondominiumID: "c1", InvoiceNumber: "B0100000001",
		Amount: decimal.NewFromInt(12000), Status: models.InvoicePending,
	}
	require.NoError(t, s.Invoices().Create(ctx, inv))

	const payers = 16
	var wg sync.WaitGroup
	errs := make([]error, payers)
	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txn := &models.Transaction{
				ID: fmt.Sprintf("t%d", i), CondominiumID: "c1", Type: models.TransactionExpense,
				Category: models.CategoryAccountsPayable, Amount: inv.Amount,
			}
			_, errs[i] = s.Invoices().Pay(ctx, "c1", "inv1", txn)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrInvoiceAlreadyPaid)
	}
	assert.Equal(t, 1, succeeded)

	txns, err := s.Transactions().List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, txns, 1)

	got, err := s.Invoices().Get(ctx, "c1", "inv1")
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, got.Status)
	assert.Equal(t, txns[0].ID, got.RelatedTransactionID)
}

func TestPayMissingInvoiceWritesNothing(t *testing.T) {
	s, ctx := seed(t)
	_, err := s.Invoices().Pay(ctx, "c1", "nope", &models.Transaction{ID: "t1", CondominiumID: "c1"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	txns, err := s.Transactions().List(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestPaidInvoiceIsFrozen(t *testing.T) {
	s, ctx := seed(t)
	inv := &models.Invoice{ID: "inv1", CondominiumID: "c1", Amount: decimal.NewFromInt(10), Status: models.InvoicePending}
	require.NoError(t, s.Invoices().Create(ctx, inv))
	_, err := s.Invoices().Pay(ctx, "c1", "inv1", &models.Transaction{ID: "t1", CondominiumID: "c1"})
	require.NoError(t, err)

	inv.Status = models.InvoicePending
	assert.ErrorIs(t, s.Invoices().Update(ctx, inv), repository.ErrInvoiceAlreadyPaid)
}

func TestAppendMovementRejectsSecondFeeForPeriod(t *testing.T) {
	s, ctx := seed(t)
	p := models.Period{Year: 2026, Month: time.November}

	first := &models.AccountMovement{ID: "m1", Type: models.MovementMonthlyFee, Amount: decimal.NewFromInt(6500), Period: &p}
	require.NoError(t, s.Units().AppendMovement(ctx, "c1", "u1", first))

	second := &models.AccountMovement{ID: "m2", Type: models.MovementMonthlyFee, Amount: decimal.NewFromInt(6500), Period: &p}
	err := s.Units().AppendMovement(ctx, "c1", "u1", second)
	assert.True(t, errors.Is(err, repository.ErrFeeAlreadyRegistered))

	// plain charges carry no period and are never deduplicated
	for i := 0; i < 2; i++ {
		require.NoError(t, s.Units().AppendMovement(ctx, "c1", "u1",
			&models.AccountMovement{ID: fmt.Sprintf("c%d", i), Type: models.MovementCharge, Amount: decimal.NewFromInt(300)}))
	}

	movs, err := s.Units().ListMovements(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.Len(t, movs, 3)
}

func TestUnitScopedToCondominium(t *testing.T) {
	s, ctx := seed(t)
	require.NoError(t, s.Condominiums().Create(ctx, &models.Condominium{ID: "c2", Name: "Residencial Sol"}))

	_, err := s.Units().Get(ctx, "c2", "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	err = s.Units().AppendMovement(ctx, "c2", "u1", &models.AccountMovement{ID: "m1"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteUnitDropsHistory(t *testing.T) {
	s, ctx := seed(t)
	require.NoError(t, s.Units().AppendMovement(ctx, "c1", "u1", &models.AccountMovement{ID: "m1", Amount: decimal.NewFromInt(1)}))
	require.NoError(t, s.Units().AddComment(ctx, "c1", "u1", &models.ManagementComment{ID: "k1", Comment: "llamar"}))

	require.NoError(t, s.Units().Delete(ctx, "c1", "u1"))
	_, err := s.Units().ListMovements(ctx, "c1", "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, s.movements["u1"])
	assert.Empty(t, s.comments["u1"])
}

func TestMarkOverdue(t *testing.T) {
	s, ctx := seed(t)
	asOf := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	for i, due := range []time.Time{asOf.AddDate(0, 0, -1), asOf, asOf.AddDate(0, 0, 3)} {
		require.NoError(t, s.Invoices().Create(ctx, &models.Invoice{
			ID: fmt.Sprintf("inv%d", i), CondominiumID: "c1", DueDate: due,
			Amount: decimal.NewFromInt(100), Status: models.InvoicePending,
		}))
	}

	n, err := s.Invoices().MarkOverdue(ctx, "c1", asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Invoices().Get(ctx, "c1", "inv0")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, got.Status)
}

func TestRecordStore(t *testing.T) {
	s, ctx := seed(t)
	sup := models.Supplier{ID: "s1", Name: "Ferretería Central", RNC: "101010101"}
	require.NoError(t, s.Suppliers().Create(ctx, "c1", sup.ID, sup))

	sup.Category = "Mantenimiento"
	require.NoError(t, s.Suppliers().Update(ctx, "c1", sup.ID, sup))

	got, err := s.Suppliers().Get(ctx, "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Mantenimiento", got.Category)

	assert.ErrorIs(t, s.Suppliers().Update(ctx, "c2", "s1", sup), repository.ErrNotFound)
	require.NoError(t, s.Suppliers().Delete(ctx, "c1", "s1"))
	assert.ErrorIs(t, s.Suppliers().Delete(ctx, "c1", "s1"), repository.ErrNotFound)
}

func TestPaidInvoiceCannotBeDeleted(t *testing.T) {
	s, ctx := seed(t)
	require.NoError(t, s.Invoices().Create(ctx, &models.Invoice{
		ID: "inv1", CondominiumID: "c1", Amount: decimal.NewFromInt(10), Status: models.InvoicePending,
	}))
	_, err := s.Invoices().Pay(ctx, "c1", "inv1", &models.Transaction{ID: "t1", CondominiumID: "c1"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Invoices().Delete(ctx, "c1", "inv1"), repository.ErrInvoiceAlreadyPaid)
	_, err = s.Invoices().Get(ctx, "c1", "inv1")
	assert.NoError(t, err)
}

func TestReturnedValuesDoNotAliasStoredState(t *testing.T) {
	s, ctx := seed(t)
	inv := &models.Invoice{
		ID: "inv1", CondominiumID: "c1", Status: models.InvoicePending,
		Items: []models.InvoiceItem{{Description: "Cloro", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500)}},
	}
	require.NoError(t, s.Invoices().Create(ctx, inv))
	inv.Items[0].Description = "changed"

	got, err := s.Invoices().Get(ctx, "c1", "inv1")
	require.NoError(t, err)
	got.Items[0].Description = "changed again"
	list, err := s.Invoices().List(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Cloro", list[0].Items[0].Description)

	u := &models.Unit{
		ID: "u2", CondominiumID: "c1", UnitNumber: "A-102",
		Occupation:          models.Occupation{Status: models.OccupiedByTenant, Tenant: &models.Person{Name: "Luis"}},
		PaymentResponsibles: []models.Person{{Name: "Ana"}},
	}
	require.NoError(t, s.Units().Create(ctx, u))
	u.Occupation.Tenant.Name = "changed"
	u.PaymentResponsibles[0].Name = "changed"

	stored, err := s.Units().Get(ctx, "c1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "Luis", stored.Occupation.Tenant.Name)
	assert.Equal(t, "Ana", stored.PaymentResponsibles[0].Name)

	emp := models.Employee{ID: "e1", PayrollConfig: []models.PayrollItem{{Description: "AFP", Amount: decimal.NewFromInt(100)}}}
	require.NoError(t, s.Employees().Create(ctx, "c1", emp.ID, emp))
	emp.PayrollConfig[0].Description = "changed"
	gotEmp, err := s.Employees().Get(ctx, "c1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "AFP", gotEmp.PayrollConfig[0].Description)
}

func TestEmptyListsAreNotNil(t *testing.T) {
	s, ctx := seed(t)
	invoices, err := s.Invoices().List(ctx, "c1")
	require.NoError(t, err)
	assert.NotNil(t, invoices)

	units, err := s.Units().List(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, units)

	txns, err := s.Transactions().List(ctx, "c1")
	require.NoError(t, err)
	assert.NotNil(t, txns)

	movs, err := s.Units().ListMovements(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.NotNil(t, movs)
}
