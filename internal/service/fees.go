package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Dan9191/condo-service/internal/ledger"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// FeeRun summarises a GenerateMonthlyFees pass
type FeeRun struct {
	Period            string   `json:"period"`
	Created           int      `json:"created"`
	AlreadyRegistered int      `json:"already_registered"`
	NotConfigured     int      `json:"not_configured"`
	Failed            []string `json:"failed"` // unit numbers
}

// AddMonthlyFee charges the unit's configured fee for the calendar month after
// the current one. A period can be charged only once per unit.
func (s *Service) AddMonthlyFee(ctx context.Context, condoID, unitID string) (*models.AccountMovement, error) {
	u, err := s.store.Units().Get(ctx, condoID, unitID)
	if err != nil {
		return nil, err
	}
	return s.addMonthlyFee(ctx, u, ledger.NextPeriod(s.now()))
}

func (s *Service) addMonthlyFee(ctx context.Context, u *models.Unit, period models.Period) (*models.AccountMovement, error) {
	if !u.Fees.MonthlyFee.IsPositive() {
		return nil, ErrFeeNotConfigured
	}
	m := &models.AccountMovement{
		ID:          newID(),
		Date:        period.Start(),
		Type:        models.MovementMonthlyFee,
		Description: ledger.FeeDescription(period),
		Amount:      u.Fees.MonthlyFee,
		Period:      &period,
	}
	if err := s.store.Units().AppendMovement(ctx, u.CondominiumID, u.ID, m); err != nil {
		return nil, err
	}
	s.condoLog(u.CondominiumID).WithFields(logrus.Fields{
		"unit_id": u.ID,
		"period":  period.Key(),
	}).Infof("Monthly fee registered: %s", m.Amount)
	return m, nil
}

// GenerateMonthlyFees charges next month's fee to every unit of the
// condominium. Units are processed concurrently with a bounded worker count.
func (s *Service) GenerateMonthlyFees(ctx context.Context, condoID string) (*FeeRun, error) {
	units, err := s.store.Units().List(ctx, condoID)
	if err != nil {
		return nil, err
	}
	period := ledger.NextPeriod(s.now())
	run := &FeeRun{Period: period.Key(), Failed: []string{}}

	sem := make(chan struct{}, s.feeWorkers)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, u := range units {
		wg.Add(1)
		go func(u *models.Unit) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				run.Failed = append(run.Failed, u.UnitNumber)
				mu.Unlock()
				return
			}

			_, err := s.addMonthlyFee(ctx, u, period)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				run.Created++
			case errors.Is(err, repository.ErrFeeAlreadyRegistered):
				run.AlreadyRegistered++
			case errors.Is(err, ErrFeeNotConfigured):
				run.NotConfigured++
			default:
				s.condoLog(condoID).WithField("unit_id", u.ID).Errorf("Failed to register monthly fee: %v", err)
				run.Failed = append(run.Failed, u.UnitNumber)
			}
		}(u)
	}
	wg.Wait()

	s.condoLog(condoID).Infof("Monthly fees %s: created=%d already=%d not_configured=%d failed=%d",
		run.Period, run.Created, run.AlreadyRegistered, run.NotConfigured, len(run.Failed))
	return run, nil
}
