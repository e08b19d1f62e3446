package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a vendor that bills the condominium
type Supplier struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RNC      string `json:"rnc"`
	Contact  Person `json:"contact"`
	Category string `json:"category"`
}

type SupplierParams struct {
	Name     string `json:"name" yaml:"name"`
	RNC      string `json:"rnc" yaml:"rnc"`
	Contact  Person `json:"contact" yaml:"contact"`
	Category string `json:"category" yaml:"category"`
}

func (p *SupplierParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", "is required")
	}
	return nil
}

type UpdateSupplierParams struct {
	Name     *string `json:"name"`
	RNC      *string `json:"rnc"`
	Contact  *Person `json:"contact"`
	Category *string `json:"category"`
}

func (p UpdateSupplierParams) Apply(s *Supplier) error {
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return invalid("name", "is required")
		}
		s.Name = *p.Name
	}
	if p.RNC != nil {
		s.RNC = *p.RNC
	}
	if p.Contact != nil {
		s.Contact = *p.Contact
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	return nil
}

type PayrollItemType string

const (
	PayrollEarning   PayrollItemType = "ingreso"
	PayrollDeduction PayrollItemType = "descuento"
)

type PayrollItem struct {
	ID          string          `json:"id"`
	Type        PayrollItemType `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Employee is staff on the condominium payroll
type Employee struct {
	ID            string          `json:"id"`
	PersonalInfo  Person          `json:"personal_info"`
	Position      string          `json:"position"`
	HireDate      time.Time       `json:"hire_date"`
	Salary        decimal.Decimal `json:"salary"`
	PayrollConfig []PayrollItem   `json:"payroll_config"`
}

// NetPay returns the salary plus earnings minus deductions
func (e Employee) NetPay() decimal.Decimal {
	net := e.Salary
	for _, item := range e.PayrollConfig {
		if item.Type == PayrollDeduction {
			net = net.Sub(item.Amount)
		} else {
			net = net.Add(item.Amount)
		}
	}
	return net
}

type EmployeeParams struct {
	PersonalInfo  Person          `json:"personal_info"`
	Position      string          `json:"position"`
	HireDate      time.Time       `json:"hire_date"`
	Salary        decimal.Decimal `json:"salary"`
	PayrollConfig []PayrollItem   `json:"payroll_config"`
}

func (p *EmployeeParams) Validate() error {
	if strings.TrimSpace(p.PersonalInfo.Name) == "" {
		return invalid("personal_info.name", "is required")
	}
	if strings.TrimSpace(p.Position) == "" {
		return invalid("position", "is required")
	}
	if p.Salary.IsNegative() {
		return invalid("salary", "must not be negative")
	}
	return validatePayroll(p.PayrollConfig)
}

type UpdateEmployeeParams struct {
	PersonalInfo  *Person          `json:"personal_info"`
	Position      *string          `json:"position"`
	HireDate      *time.Time       `json:"hire_date"`
	Salary        *decimal.Decimal `json:"salary"`
	PayrollConfig []PayrollItem    `json:"payroll_config"`
}

func (p UpdateEmployeeParams) Apply(e *Employee) error {
	next := *e
	if p.PersonalInfo != nil {
		next.PersonalInfo = *p.PersonalInfo
	}
	if p.Position != nil {
		next.Position = *p.Position
	}
	if p.HireDate != nil {
		next.HireDate = *p.HireDate
	}
	if p.Salary != nil {
		next.Salary = *p.Salary
	}
	if p.PayrollConfig != nil {
		next.PayrollConfig = p.PayrollConfig
	}
	params := EmployeeParams{
		PersonalInfo:  next.PersonalInfo,
		Position:      next.Position,
		Salary:        next.Salary,
		PayrollConfig: next.PayrollConfig,
	}
	if err := params.Validate(); err != nil {
		return err
	}
	*e = next
	return nil
}

func validatePayroll(items []PayrollItem) error {
	for _, item := range items {
		if item.Type != PayrollEarning && item.Type != PayrollDeduction {
			return invalid("payroll_config.type", "must be ingreso or descuento")
		}
		if item.Amount.IsNegative() {
			return invalid("payroll_config.amount", "must not be negative")
		}
	}
	return nil
}

type Audience string

const (
	AudienceEveryone Audience = "todos"
	AudienceOwners   Audience = "propietarios"
	AudienceTenants  Audience = "inquilinos"
)

// Communication is a notice addressed to residents
type Communication struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Date     time.Time  `json:"date"`
	Audience Audience   `json:"audience"`
	SentAt   *time.Time `json:"sent_at,omitempty"`
}

type CommunicationParams struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Audience Audience `json:"audience"`
}

func (p *CommunicationParams) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return invalid("title", "is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return invalid("content", "is required")
	}
	if p.Audience == "" {
		p.Audience = AudienceEveryone
	}
	return validateAudience(p.Audience)
}

type UpdateCommunicationParams struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Audience *Audience `json:"audience"`
}

func (p UpdateCommunicationParams) Apply(c *Communication) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return invalid("title", "is required")
		}
		c.Title = *p.Title
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Audience != nil {
		if err := validateAudience(*p.Audience); err != nil {
			return err
		}
		c.Audience = *p.Audience
	}
	return nil
}

func validateAudience(a Audience) error {
	switch a {
	case AudienceEveryone, AudienceOwners, AudienceTenants:
		return nil
	}
	return invalid("audience", "must be todos, propietarios or inquilinos")
}

type IncidentStatus string

const (
	IncidentOpen       IncidentStatus = "abierto"
	IncidentInProgress IncidentStatus = "en_progreso"
	IncidentResolved   IncidentStatus = "resuelto"
	IncidentClosed     IncidentStatus = "cerrado"
)

type IncidentPriority string

const (
	PriorityLow    IncidentPriority = "baja"
	PriorityMedium IncidentPriority = "media"
	PriorityHigh   IncidentPriority = "alta"
)

// Incident is a maintenance or security issue reported by a resident
type Incident struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ReportedBy  string           `json:"reported_by"`
	Date        time.Time        `json:"date"`
	Status      IncidentStatus   `json:"status"`
	Priority    IncidentPriority `json:"priority"`
}

type IncidentParams struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ReportedBy  string           `json:"reported_by"`
	Priority    IncidentPriority `json:"priority"`
}

func (p *IncidentParams) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return invalid("title", "is required")
	}
	if strings.TrimSpace(p.ReportedBy) == "" {
		return invalid("reported_by", "is required")
	}
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	return validatePriority(p.Priority)
}

// UpdateIncidentParams edits an incident. Status changes are not checked
// against the previous status.
type UpdateIncidentParams struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *IncidentStatus   `json:"status"`
	Priority    *IncidentPriority `json:"priority"`
}

func (p UpdateIncidentParams) Apply(i *Incident) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return invalid("title", "is required")
		}
		i.Title = *p.Title
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.Status != nil {
		switch *p.Status {
		case IncidentOpen, IncidentInProgress, IncidentResolved, IncidentClosed:
		default:
			return invalid("status", "must be abierto, en_progreso, resuelto or cerrado")
		}
		i.Status = *p.Status
	}
	if p.Priority != nil {
		if err := validatePriority(*p.Priority); err != nil {
			return err
		}
		i.Priority = *p.Priority
	}
	return nil
}

func validatePriority(p IncidentPriority) error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	}
	return invalid("priority", "must be baja, media or alta")
}
