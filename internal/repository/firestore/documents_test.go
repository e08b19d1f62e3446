package firestore

import (
	"testing"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitDocKeepsNestedFields(t *testing.T) {
	u := &models.Unit{
		ID: "u1", CondominiumID: "c1", UnitNumber: "B-202", Type: models.UnitTypeApartment,
		GeneralData: models.GeneralData{Bedrooms: 3, Bathrooms: 2, ParkingSpaces: 1, Area: 120.5},
		Owner:       models.Person{Name: "María Pérez", Email: "maria@example.com"},
		Occupation: models.Occupation{
			Status: models.OccupiedByTenant,
			Tenant: &models.Person{Name: "José Gómez"},
		},
		Fees:                models.Fees{MonthlyFee: decimal.RequireFromString("6500.50"), LateFeePercentage: decimal.NewFromInt(5)},
		PaymentResponsibles: []models.Person{{Name: "María Pérez"}},
	}

	got := newUnitDoc(u).model("c1", "u1")
	assert.Equal(t, u.UnitNumber, got.UnitNumber)
	assert.Equal(t, u.GeneralData, got.GeneralData)
	require.NotNil(t, got.Occupation.Tenant)
	assert.Equal(t, "José Gómez", got.Occupation.Tenant.Name)
	assert.True(t, u.Fees.MonthlyFee.Equal(got.Fees.MonthlyFee))
	assert.Equal(t, u.PaymentResponsibles, got.PaymentResponsibles)
}

func TestFeeMovementUsesPeriodKey(t *testing.T) {
	p := models.Period{Year: 2026, Month: time.November}
	assert.Equal(t, "fee-2026-11", feeDocID(p))

	m := &models.AccountMovement{ID: "m1", Type: models.MovementMonthlyFee, Amount: decimal.NewFromInt(6500), Period: &p}
	d := newMovementDoc(m, time.Now())
	assert.Equal(t, "2026-11", d.Period)

	back, err := d.model("fee-2026-11")
	require.NoError(t, err)
	require.NotNil(t, back.Period)
	assert.Equal(t, p, *back.Period)
}

func TestMovementWithoutPeriod(t *testing.T) {
	m := &models.AccountMovement{ID: "m1", Type: models.MovementPayment, Amount: decimal.NewFromInt(-6500)}
	back, err := newMovementDoc(m, time.Now()).model("m1")
	require.NoError(t, err)
	assert.Nil(t, back.Period)
	assert.True(t, back.Amount.Equal(decimal.NewFromInt(-6500)))
}

func TestRecordMapRoundTrip(t *testing.T) {
	e := models.Employee{
		ID:           "e1",
		PersonalInfo: models.Person{Name: "Pedro"},
		Position:     "Conserje",
		Salary:       decimal.NewFromInt(25000),
		PayrollConfig: []models.PayrollItem{
			{ID: "p1", Type: models.PayrollDeduction, Description: "SFS", Amount: decimal.NewFromInt(760)},
		},
	}
	m, err := recordToMap(e)
	require.NoError(t, err)
	back, err := mapToRecord[models.Employee](m)
	require.NoError(t, err)
	assert.True(t, e.NetPay().Equal(back.NetPay()))
	assert.Equal(t, e.Position, back.Position)
}
