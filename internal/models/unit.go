package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type UnitType string

const (
	UnitTypeApartment  UnitType = "apartamento"
	UnitTypeHouse      UnitType = "casa"
	UnitTypeCommercial UnitType = "local"
)

type OccupationStatus string

const (
	OccupiedByOwner  OccupationStatus = "ocupado_propietario"
	OccupiedByTenant OccupationStatus = "ocupado_inquilino"
	Vacant           OccupationStatus = "desocupado"
)

// Person is a contact attached to a unit, supplier or employee
type Person struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email" yaml:"email"`
}

type GeneralData struct {
	Bedrooms      int     `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms     int     `json:"bathrooms" yaml:"bathrooms"`
	ParkingSpaces int     `json:"parking_spaces" yaml:"parking_spaces"`
	Area          float64 `json:"area" yaml:"area"` // square meters
}

type Occupation struct {
	Status OccupationStatus `json:"status" yaml:"status"`
	Tenant *Person          `json:"tenant,omitempty" yaml:"tenant"`
}

type Fees struct {
	MonthlyFee        decimal.Decimal `json:"monthly_fee" yaml:"monthly_fee"`
	LateFeePercentage decimal.Decimal `json:"late_fee_percentage" yaml:"late_fee_percentage"`
}

type AdminData struct {
	Notes string `json:"notes" yaml:"notes"`
}

// Unit represents a property inside a condominium. Its account history is
// stored separately as a list of AccountMovement.
type Unit struct {
	ID                  string      `json:"id"`
	CondominiumID       string      `json:"condominium_id"`
	UnitNumber          string      `json:"unit_number"`
	Type                UnitType    `json:"type"`
	GeneralData         GeneralData `json:"general_data"`
	Owner               Person      `json:"owner"`
	Occupation          Occupation  `json:"occupation"`
	Fees                Fees        `json:"fees"`
	PaymentResponsibles []Person    `json:"payment_responsibles"`
	AdminData           AdminData   `json:"admin_data"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// UnitParams is the payload for creating a unit
type UnitParams struct {
	UnitNumber          string      `json:"unit_number" yaml:"unit_number"`
	Type                UnitType    `json:"type" yaml:"type"`
	GeneralData         GeneralData `json:"general_data" yaml:"general_data"`
	Owner               Person      `json:"owner" yaml:"owner"`
	Occupation          Occupation  `json:"occupation" yaml:"occupation"`
	Fees                Fees        `json:"fees" yaml:"fees"`
	PaymentResponsibles []Person    `json:"payment_responsibles" yaml:"payment_responsibles"`
	AdminData           AdminData   `json:"admin_data" yaml:"admin_data"`
}

// Validate checks the payload and fills defaults for type and occupation
func (p *UnitParams) Validate() error {
	if strings.TrimSpace(p.UnitNumber) == "" {
		return invalid("unit_number", "is required")
	}
	if p.Type == "" {
		p.Type = UnitTypeApartment
	}
	if p.Occupation.Status == "" {
		p.Occupation.Status = OccupiedByOwner
	}
	if strings.TrimSpace(p.Owner.Name) == "" {
		return invalid("owner.name", "is required")
	}
	return validateUnitFields(p.Type, p.Occupation, p.Fees)
}

// UpdateUnitParams carries the fields of a unit edit; nil fields are left untouched
type UpdateUnitParams struct {
	UnitNumber          *string      `json:"unit_number"`
	Type                *UnitType    `json:"type"`
	GeneralData         *GeneralData `json:"general_data"`
	Owner               *Person      `json:"owner"`
	Occupation          *Occupation  `json:"occupation"`
	Fees                *Fees        `json:"fees"`
	PaymentResponsibles []Person     `json:"payment_responsibles"`
	AdminData           *AdminData   `json:"admin_data"`
}

// Apply validates the edit against the current unit and writes it in place
func (p UpdateUnitParams) Apply(u *Unit) error {
	next := *u
	if p.UnitNumber != nil {
		if strings.TrimSpace(*p.UnitNumber) == "" {
			return invalid("unit_number", "is required")
		}
		next.UnitNumber = *p.UnitNumber
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.GeneralData != nil {
		next.GeneralData = *p.GeneralData
	}
	if p.Owner != nil {
		if strings.TrimSpace(p.Owner.Name) == "" {
			return invalid("owner.name", "is required")
		}
		next.Owner = *p.Owner
	}
	if p.Occupation != nil {
		next.Occupation = *p.Occupation
	}
	if p.Fees != nil {
		next.Fees = *p.Fees
	}
	if p.PaymentResponsibles != nil {
		next.PaymentResponsibles = p.PaymentResponsibles
	}
	if p.AdminData != nil {
		next.AdminData = *p.AdminData
	}
	if err := validateUnitFields(next.Type, next.Occupation, next.Fees); err != nil {
		return err
	}
	*u = next
	return nil
}

func validateUnitFields(t UnitType, occ Occupation, fees Fees) error {
	switch t {
	case UnitTypeApartment, UnitTypeHouse, UnitTypeCommercial:
	default:
		return invalid("type", "must be apartamento, casa or local")
	}
	switch occ.Status {
	case OccupiedByOwner, Vacant:
	case OccupiedByTenant:
		if occ.Tenant == nil || strings.TrimSpace(occ.Tenant.Name) == "" {
			return invalid("occupation.tenant", "is required when the unit is rented")
		}
	default:
		return invalid("occupation.status", "must be ocupado_propietario, ocupado_inquilino or desocupado")
	}
	if fees.MonthlyFee.IsNegative() {
		return invalid("fees.monthly_fee", "must not be negative")
	}
	if err := checkCents("fees.monthly_fee", fees.MonthlyFee); err != nil {
		return err
	}
	if fees.LateFeePercentage.IsNegative() {
		return invalid("fees.late_fee_percentage", "must not be negative")
	}
	return checkCents("fees.late_fee_percentage", fees.LateFeePercentage)
}

// ManagementComment is a note left by an administrator on a unit's file
type ManagementComment struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Comment string    `json:"comment"`
	User    string    `json:"user"`
}
