package seed

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository/memory"
	"github.com/Dan9191/condo-service/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
condominiums:
  - name: Torre Azul
    address: Av. Anacaona 21, Santo Domingo
    currency: DOP
    manual_balance: 50000.50
    units:
      - unit_number: A-101
        owner: {name: Ana Pérez, email: ana@example.com}
        fees: {monthly_fee: 3500, late_fee_percentage: 2}
      - unit_number: L-1
        type: local
        occupation:
          status: ocupado_inquilino
          tenant: {name: Farmacia Central}
        owner: {name: Inversiones Caribe}
    suppliers:
      - name: Limpieza Total
        rnc: "101000001"
`

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, f.Condominiums, 1)

	c := f.Condominiums[0]
	assert.Equal(t, "Torre Azul", c.Name)
	assert.Equal(t, models.CurrencyDOP, c.Currency)
	assert.True(t, c.ManualBalance.Equal(decimal.RequireFromString("50000.50")))
	require.Len(t, c.Units, 2)
	assert.True(t, c.Units[0].Fees.MonthlyFee.Equal(decimal.NewFromInt(3500)))
	assert.Equal(t, models.UnitTypeCommercial, c.Units[1].Type)
	require.NotNil(t, c.Units[1].Occupation.Tenant)
	assert.Equal(t, "Farmacia Central", c.Units[1].Occupation.Tenant.Name)
	assert.Len(t, c.Suppliers, 1)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader("condominiums:\n  - name: X\n    colour: blue\n"))
	assert.Error(t, err)
}

func TestApplyTwice(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := service.NewService(memory.NewStore(), log, nil, nil)
	ctx := context.Background()

	f, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	res, err := Apply(ctx, svc, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Condominiums: 1, Units: 2, Suppliers: 1}, res)

	res, err = Apply(ctx, svc, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)

	ids, err := svc.CondominiumIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	units, err := svc.ListUnits(ctx, ids[0])
	require.NoError(t, err)
	assert.Len(t, units, 2)
}

func TestApplyStopsOnInvalidUnit(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := service.NewService(memory.NewStore(), log, nil, nil)

	f := &File{Condominiums: []Condominium{{
		CondominiumParams: models.CondominiumParams{Name: "Residencial Palmeras"},
		Units:             []models.UnitParams{{UnitNumber: "B-1"}},
	}}}
	_, err := Apply(context.Background(), svc, f)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "owner.name", verr.Field)
}
