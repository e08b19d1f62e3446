package service

import (
	"context"

	"github.com/Dan9191/condo-service/internal/models"
)

// CreateCondominium registers a new condominium
func (s *Service) CreateCondominium(ctx context.Context, params models.CondominiumParams) (*models.Condominium, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &models.Condominium{
		ID:            newID(),
		Name:          params.Name,
		Address:       params.Address,
		RNC:           params.RNC,
		Currency:      params.Currency,
		ManualBalance: params.ManualBalance,
	}
	if err := s.store.Condominiums().Create(ctx, c); err != nil {
		return nil, err
	}
	s.condoLog(c.ID).Infof("Condominium created: %s", c.Name)
	return c, nil
}

func (s *Service) GetCondominium(ctx context.Context, id string) (*models.Condominium, error) {
	return s.store.Condominiums().Get(ctx, id)
}

// ListCondominiums returns the condominiums visible to the principal
func (s *Service) ListCondominiums(ctx context.Context, p models.Principal) ([]*models.Condominium, error) {
	all, err := s.store.Condominiums().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Condominium, 0, len(all))
	for _, c := range all {
		if p.CanAccess(c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateCondominium replaces the editable fields of a condominium
func (s *Service) UpdateCondominium(ctx context.Context, id string, params models.CondominiumParams) (*models.Condominium, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c, err := s.store.Condominiums().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = params.Name
	c.Address = params.Address
	c.RNC = params.RNC
	c.Currency = params.Currency
	c.ManualBalance = params.ManualBalance
	if err := s.store.Condominiums().Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CondominiumIDs lists every condominium. Scheduled jobs and the CLI use it to
// sweep all tenants.
func (s *Service) CondominiumIDs(ctx context.Context) ([]string, error) {
	condos, err := s.store.Condominiums().List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(condos))
	for _, c := range condos {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
