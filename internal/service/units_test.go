package service

import (
	"context"
	"testing"

	"github.com/Dan9191/condo-service/internal/ledger"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyFeeIsChargedOncePerPeriod(t *testing.T) {
	env := newTestEnv(t)
	u := env.unit(t, "A-101", "ana@example.com", 3500)

	m, err := env.svc.AddMonthlyFee(env.ctx, env.condoID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementMonthlyFee, m.Type)
	require.NotNil(t, m.Period)
	assert.Equal(t, "2026-11", m.Period.Key())
	assert.True(t, m.Amount.Equal(decimal.NewFromInt(3500)))

	_, err = env.svc.AddMonthlyFee(env.ctx, env.condoID, u.ID)
	assert.ErrorIs(t, err, repository.ErrFeeAlreadyRegistered)

	st, err := env.svc.UnitStatement(env.ctx, env.condoID, u.ID)
	require.NoError(t, err)
	assert.Len(t, st.Entries, 1)
	assert.Equal(t, ledger.Owes, st.Status)
}

func TestMonthlyFeeNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	u := env.unit(t, "A-102", "", 0)
	_, err := env.svc.AddMonthlyFee(env.ctx, env.condoID, u.ID)
	assert.ErrorIs(t, err, ErrFeeNotConfigured)
}

func TestGenerateMonthlyFees(t *testing.T) {
	env := newTestEnv(t)
	env.svc.feeWorkers = 2
	for _, n := range []string{"A-101", "A-102", "A-103", "A-104"} {
		env.unit(t, n, "", 2500)
	}
	env.unit(t, "L-1", "", 0)

	run, err := env.svc.GenerateMonthlyFees(env.ctx, env.condoID)
	require.NoError(t, err)
	assert.Equal(t, "2026-11", run.Period)
	assert.Equal(t, 4, run.Created)
	assert.Equal(t, 1, run.NotConfigured)
	assert.Empty(t, run.Failed)

	run, err = env.svc.GenerateMonthlyFees(env.ctx, env.condoID)
	require.NoError(t, err)
	assert.Equal(t, 0, run.Created)
	assert.Equal(t, 4, run.AlreadyRegistered)
}

func TestGenerateMonthlyFeesCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.unit(t, "A-101", "", 2500)
	env.svc.feeWorkers = 1

	ctx, cancel := context.WithCancel(env.ctx)
	cancel()
	run, err := env.svc.GenerateMonthlyFees(ctx, env.condoID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Created+len(run.Failed))
}

func TestMovementsAndStatement(t *testing.T) {
	env := newTestEnv(t)
	u := env.unit(t, "B-201", "luis@example.com", 3000)

	_, err := env.svc.AddMovement(env.ctx, env.condoID, u.ID, models.MovementParams{
		Date: testNow.AddDate(0, 0, -2), Type: models.MovementCharge, Description: "Reparación de tubería", Amount: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)
	pay, err := env.svc.AddMovement(env.ctx, env.condoID, u.ID, models.MovementParams{
		Type: models.MovementPayment, Description: "Transferencia", Amount: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)
	assert.True(t, pay.Amount.Equal(decimal.NewFromInt(-2000)), "payments are stored negative")
	assert.Equal(t, testNow, pay.Date)

	st, err := env.svc.UnitStatement(env.ctx, env.condoID, u.ID)
	require.NoError(t, err)
	assert.True(t, st.Balance.Equal(decimal.NewFromInt(-800)))
	assert.Equal(t, ledger.Credit, st.Status)
	assert.Equal(t, "A favor", st.StatusLabel)
	require.Len(t, st.Entries, 2)

	_, err = env.svc.AddMovement(env.ctx, env.condoID, "missing", models.MovementParams{
		Type: models.MovementCharge, Description: "x", Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReceivablesSortedByDebt(t *testing.T) {
	env := newTestEnv(t)
	small := env.unit(t, "A-1", "", 1000)
	big := env.unit(t, "A-2", "", 5000)
	env.unit(t, "A-3", "", 0)

	_, err := env.svc.AddMonthlyFee(env.ctx, env.condoID, small.ID)
	require.NoError(t, err)
	_, err = env.svc.AddMonthlyFee(env.ctx, env.condoID, big.ID)
	require.NoError(t, err)

	rows, err := env.svc.Receivables(env.ctx, env.condoID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A-2", rows[0].UnitNumber)
	assert.Equal(t, "A-1", rows[1].UnitNumber)
	assert.Equal(t, ledger.Settled, rows[2].Status)

	summary, err := env.svc.FinanceSummary(env.ctx, env.condoID)
	require.NoError(t, err)
	assert.True(t, summary.ToCollect.Equal(decimal.NewFromInt(6000)))
}

func TestDeleteUnitDropsHistory(t *testing.T) {
	env := newTestEnv(t)
	u := env.unit(t, "C-301", "", 1000)
	_, err := env.svc.AddMonthlyFee(env.ctx, env.condoID, u.ID)
	require.NoError(t, err)
	_, err = env.svc.AddComment(env.ctx, env.condoID, u.ID, "admin@torreazul.do", "Unidad vendida")
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteUnit(env.ctx, env.condoID, u.ID))
	_, err = env.svc.UnitStatement(env.ctx, env.condoID, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAddCommentRequiresText(t *testing.T) {
	env := newTestEnv(t)
	u := env.unit(t, "C-302", "", 1000)
	_, err := env.svc.AddComment(env.ctx, env.condoID, u.ID, "admin", "   ")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}
