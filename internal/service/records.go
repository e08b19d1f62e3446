package service

import (
	"context"
	"strings"

	"github.com/Dan9191/condo-service/internal/models"
)

func (s *Service) CreateSupplier(ctx context.Context, condoID string, params models.SupplierParams) (*models.Supplier, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	sup := models.Supplier{
		ID:       newID(),
		Name:     strings.TrimSpace(params.Name),
		RNC:      strings.TrimSpace(params.RNC),
		Contact:  params.Contact,
		Category: params.Category,
	}
	if err := s.store.Suppliers().Create(ctx, condoID, sup.ID, sup); err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *Service) GetSupplier(ctx context.Context, condoID, id string) (*models.Supplier, error) {
	sup, err := s.store.Suppliers().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *Service) ListSuppliers(ctx context.Context, condoID string) ([]models.Supplier, error) {
	return s.store.Suppliers().List(ctx, condoID)
}

func (s *Service) UpdateSupplier(ctx context.Context, condoID, id string, params models.UpdateSupplierParams) (*models.Supplier, error) {
	sup, err := s.store.Suppliers().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	if err := params.Apply(&sup); err != nil {
		return nil, err
	}
	if err := s.store.Suppliers().Update(ctx, condoID, id, sup); err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, condoID, id string) error {
	return s.store.Suppliers().Delete(ctx, condoID, id)
}

// findSupplierByRNC returns nil when no supplier of the condominium has the RNC
func (s *Service) findSupplierByRNC(ctx context.Context, condoID, rnc string) (*models.Supplier, error) {
	rnc = strings.TrimSpace(rnc)
	if rnc == "" {
		return nil, nil
	}
	all, err := s.store.Suppliers().List(ctx, condoID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].RNC == rnc {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (s *Service) CreateEmployee(ctx context.Context, condoID string, params models.EmployeeParams) (*models.Employee, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := models.Employee{
		ID:            newID(),
		PersonalInfo:  params.PersonalInfo,
		Position:      params.Position,
		HireDate:      params.HireDate,
		Salary:        params.Salary,
		PayrollConfig: params.PayrollConfig,
	}
	for i := range e.PayrollConfig {
		if e.PayrollConfig[i].ID == "" {
			e.PayrollConfig[i].ID = newID()
		}
	}
	if err := s.store.Employees().Create(ctx, condoID, e.ID, e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) GetEmployee(ctx context.Context, condoID, id string) (*models.Employee, error) {
	e, err := s.store.Employees().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) ListEmployees(ctx context.Context, condoID string) ([]models.Employee, error) {
	return s.store.Employees().List(ctx, condoID)
}

func (s *Service) UpdateEmployee(ctx context.Context, condoID, id string, params models.UpdateEmployeeParams) (*models.Employee, error) {
	e, err := s.store.Employees().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	if err := params.Apply(&e); err != nil {
		return nil, err
	}
	if err := s.store.Employees().Update(ctx, condoID, id, e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, condoID, id string) error {
	return s.store.Employees().Delete(ctx, condoID, id)
}

// CreateIncident opens a new incident dated now
func (s *Service) CreateIncident(ctx context.Context, condoID string, params models.IncidentParams) (*models.Incident, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	inc := models.Incident{
		ID:          newID(),
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		ReportedBy:  params.ReportedBy,
		Date:        s.now(),
		Status:      models.IncidentOpen,
		Priority:    params.Priority,
	}
	if err := s.store.Incidents().Create(ctx, condoID, inc.ID, inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

func (s *Service) GetIncident(ctx context.Context, condoID, id string) (*models.Incident, error) {
	inc, err := s.store.Incidents().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func (s *Service) ListIncidents(ctx context.Context, condoID string) ([]models.Incident, error) {
	return s.store.Incidents().List(ctx, condoID)
}

func (s *Service) UpdateIncident(ctx context.Context, condoID, id string, params models.UpdateIncidentParams) (*models.Incident, error) {
	inc, err := s.store.Incidents().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	if err := params.Apply(&inc); err != nil {
		return nil, err
	}
	if err := s.store.Incidents().Update(ctx, condoID, id, inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

func (s *Service) DeleteIncident(ctx context.Context, condoID, id string) error {
	return s.store.Incidents().Delete(ctx, condoID, id)
}

func (s *Service) CreateCommunication(ctx context.Context, condoID string, params models.CommunicationParams) (*models.Communication, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := models.Communication{
		ID:       newID(),
		Title:    strings.TrimSpace(params.Title),
		Content:  params.Content,
		Date:     s.now(),
		Audience: params.Audience,
	}
	if err := s.store.Communications().Create(ctx, condoID, c.ID, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) GetCommunication(ctx context.Context, condoID, id string) (*models.Communication, error) {
	c, err := s.store.Communications().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) ListCommunications(ctx context.Context, condoID string) ([]models.Communication, error) {
	return s.store.Communications().List(ctx, condoID)
}

func (s *Service) UpdateCommunication(ctx context.Context, condoID, id string, params models.UpdateCommunicationParams) (*models.Communication, error) {
	c, err := s.store.Communications().Get(ctx, condoID, id)
	if err != nil {
		return nil, err
	}
	if err := params.Apply(&c); err != nil {
		return nil, err
	}
	if err := s.store.Communications().Update(ctx, condoID, id, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) DeleteCommunication(ctx context.Context, condoID, id string) error {
	return s.store.Communications().Delete(ctx, condoID, id)
}
