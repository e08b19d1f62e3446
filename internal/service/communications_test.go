package service

import (
	"testing"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipients(t *testing.T) {
	units := []*models.Unit{
		{
			Owner:      models.Person{Email: "Ana@Example.com"},
			Occupation: models.Occupation{Status: models.OccupiedByTenant, Tenant: &models.Person{Email: "pedro@example.com"}},
		},
		{
			Owner:               models.Person{Email: "ana@example.com"},
			PaymentResponsibles: []models.Person{{Email: "contable@empresa.do"}, {Email: ""}},
		},
		{Owner: models.Person{Email: " "}},
	}

	assert.Equal(t, []string{"ana@example.com", "pedro@example.com", "contable@empresa.do"}, Recipients(units, models.AudienceEveryone))
	assert.Equal(t, []string{"ana@example.com"}, Recipients(units, models.AudienceOwners))
	assert.Equal(t, []string{"pedro@example.com"}, Recipients(units, models.AudienceTenants))
	assert.Empty(t, Recipients(nil, models.AudienceEveryone))
}

func TestSendCommunication(t *testing.T) {
	env := newTestEnv(t)
	env.unit(t, "A-101", "ana@example.com", 1000)
	env.unit(t, "A-102", "luis@example.com", 1000)

	c, err := env.svc.CreateCommunication(env.ctx, env.condoID, models.CommunicationParams{
		Title: "Corte de agua", Content: "El sábado no habrá servicio de 8 a 12.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AudienceEveryone, c.Audience)
	assert.Nil(t, c.SentAt)

	sent, err := env.svc.SendCommunication(env.ctx, env.condoID, c.ID)
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, testNow, *sent.SentAt)

	require.Len(t, env.notifier.communications, 1)
	assert.ElementsMatch(t, []string{"ana@example.com", "luis@example.com"}, env.notifier.communications[0].to)

	stored, err := env.svc.GetCommunication(env.ctx, env.condoID, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.SentAt)
}

func TestSendBalanceReminders(t *testing.T) {
	env := newTestEnv(t)
	owes := env.unit(t, "A-101", "ana@example.com", 3500)
	failing := env.unit(t, "A-102", "luis@example.com", 2000)
	env.unit(t, "A-103", "maria@example.com", 0)
	noEmail := env.unit(t, "A-104", "", 1500)
	for _, u := range []*models.Unit{owes, failing, noEmail} {
		_, err := env.svc.AddMonthlyFee(env.ctx, env.condoID, u.ID)
		require.NoError(t, err)
	}
	env.notifier.fail = map[string]bool{"luis@example.com": true}

	n, err := env.svc.SendBalanceReminders(env.ctx, env.condoID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "A-102")
	assert.Equal(t, 1, n)
	assert.True(t, env.notifier.reminders["ana@example.com"].Equal(decimal.NewFromInt(3500)))
}

func TestNotifierDisabled(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.store, env.svc.log, nil, nil)

	_, err := svc.SendBalanceReminders(env.ctx, env.condoID)
	assert.ErrorIs(t, err, ErrNotifierDisabled)
	_, err = svc.SendCommunication(env.ctx, env.condoID, "any")
	assert.ErrorIs(t, err, ErrNotifierDisabled)
	_, err = svc.UploadDebtorReport(env.ctx, env.condoID)
	assert.ErrorIs(t, err, ErrUploadDisabled)
}
