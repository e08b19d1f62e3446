package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Dan9191/condo-service/internal/ledger"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// UnitStatement is a unit's account with its running balance
type UnitStatement struct {
	Unit        *models.Unit            `json:"unit"`
	Entries     []ledger.StatementEntry `json:"entries"` // newest first
	Balance     decimal.Decimal         `json:"balance"`
	Status      ledger.Status           `json:"status"`
	StatusLabel string                  `json:"status_label"`
}

// Receivable is one row of the receivables overview
type Receivable struct {
	UnitID      string          `json:"unit_id"`
	UnitNumber  string          `json:"unit_number"`
	Owner       string          `json:"owner"`
	OwnerEmail  string          `json:"owner_email"`
	Balance     decimal.Decimal `json:"balance"`
	Status      ledger.Status   `json:"status"`
	StatusLabel string          `json:"status_label"`
}

func (s *Service) CreateUnit(ctx context.Context, condoID string, params models.UnitParams) (*models.Unit, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	u := &models.Unit{
		ID:                  newID(),
		CondominiumID:       condoID,
		UnitNumber:          strings.TrimSpace(params.UnitNumber),
		Type:                params.Type,
		GeneralData:         params.GeneralData,
		Owner:               params.Owner,
		Occupation:          params.Occupation,
		Fees:                params.Fees,
		PaymentResponsibles: params.PaymentResponsibles,
		AdminData:           params.AdminData,
	}
	if err := s.store.Units().Create(ctx, u); err != nil {
		return nil, err
	}
	s.condoLog(condoID).WithField("unit_id", u.ID).Infof("Unit created: %s", u.UnitNumber)
	return u, nil
}

func (s *Service) GetUnit(ctx context.Context, condoID, unitID string) (*models.Unit, error) {
	return s.store.Units().Get(ctx, condoID, unitID)
}

func (s *Service) ListUnits(ctx context.Context, condoID string) ([]*models.Unit, error) {
	return s.store.Units().List(ctx, condoID)
}

func (s *Service) UpdateUnit(ctx context.Context, condoID, unitID string, params models.UpdateUnitParams) (*models.Unit, error) {
	u, err := s.store.Units().Get(ctx, condoID, unitID)
	if err != nil {
		return nil, err
	}
	if err := params.Apply(u); err != nil {
		return nil, err
	}
	if err := s.store.Units().Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUnit removes the unit together with its history
func (s *Service) DeleteUnit(ctx context.Context, condoID, unitID string) error {
	if err := s.store.Units().Delete(ctx, condoID, unitID); err != nil {
		return err
	}
	s.condoLog(condoID).WithField("unit_id", unitID).Info("Unit deleted")
	return nil
}

// AddMovement records a manual charge or payment. Payments are stored
// negative whatever sign the caller used.
func (s *Service) AddMovement(ctx context.Context, condoID, unitID string, params models.MovementParams) (*models.AccountMovement, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	date := params.Date
	if date.IsZero() {
		date = s.now()
	}
	m := &models.AccountMovement{
		ID:          newID(),
		Date:        date,
		Type:        params.Type,
		Description: strings.TrimSpace(params.Description),
		Amount:      params.SignedAmount(),
	}
	if err := s.store.Units().AppendMovement(ctx, condoID, unitID, m); err != nil {
		return nil, err
	}
	s.condoLog(condoID).WithFields(logrus.Fields{
		"unit_id": unitID,
		"type":    m.Type,
		"amount":  m.Amount.String(),
	}).Info("Movement recorded")
	return m, nil
}

// UnitStatement replays the unit's history into a running balance
func (s *Service) UnitStatement(ctx context.Context, condoID, unitID string) (*UnitStatement, error) {
	u, err := s.store.Units().Get(ctx, condoID, unitID)
	if err != nil {
		return nil, err
	}
	movs, err := s.store.Units().ListMovements(ctx, condoID, unitID)
	if err != nil {
		return nil, err
	}
	balance := ledger.Balance(movs)
	status := ledger.Classify(balance)
	return &UnitStatement{
		Unit:        u,
		Entries:     ledger.Statement(movs),
		Balance:     balance,
		Status:      status,
		StatusLabel: status.Label(),
	}, nil
}

// Receivables lists every unit with its balance, largest debt first
func (s *Service) Receivables(ctx context.Context, condoID string) ([]Receivable, error) {
	units, err := s.store.Units().List(ctx, condoID)
	if err != nil {
		return nil, err
	}
	out := make([]Receivable, 0, len(units))
	for _, u := range units {
		movs, err := s.store.Units().ListMovements(ctx, condoID, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load history of unit %s: %w", u.UnitNumber, err)
		}
		balance := ledger.Balance(movs)
		status := ledger.Classify(balance)
		out = append(out, Receivable{
			UnitID:      u.ID,
			UnitNumber:  u.UnitNumber,
			Owner:       u.Owner.Name,
			OwnerEmail:  u.Owner.Email,
			Balance:     balance,
			Status:      status,
			StatusLabel: status.Label(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Balance.GreaterThan(out[j].Balance) })
	return out, nil
}

// AddComment appends a note to the unit's management history
func (s *Service) AddComment(ctx context.Context, condoID, unitID, author, text string) (*models.ManagementComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &models.ValidationError{Field: "comment", Message: "is required"}
	}
	c := &models.ManagementComment{
		ID:      newID(),
		Date:    s.now(),
		Comment: text,
		User:    author,
	}
	if err := s.store.Units().AddComment(ctx, condoID, unitID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, condoID, unitID string) ([]models.ManagementComment, error) {
	return s.store.Units().ListComments(ctx, condoID, unitID)
}
