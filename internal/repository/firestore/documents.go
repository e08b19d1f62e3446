package firestore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/shopspring/decimal"
)

// Firestore has no decimal type, so money crosses the boundary as float64.

func toFloat(d decimal.Decimal) float64   { return d.InexactFloat64() }
func toDecimal(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

type condoDoc struct {
	Name          string    `firestore:"name"`
	Address       string    `firestore:"address"`
	RNC           string    `firestore:"rnc"`
	Currency      string    `firestore:"currency"`
	ManualBalance float64   `firestore:"manualBalance"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func newCondoDoc(c *models.Condominium) condoDoc {
	return condoDoc{
		Name:          c.Name,
		Address:       c.Address,
		RNC:           c.RNC,
		Currency:      string(c.Currency),
		ManualBalance: toFloat(c.ManualBalance),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (d condoDoc) model(id string) *models.Condominium {
	return &models.Condominium{
		ID:            id,
		Name:          d.Name,
		Address:       d.Address,
		RNC:           d.RNC,
		Currency:      models.Currency(d.Currency),
		ManualBalance: toDecimal(d.ManualBalance),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type personDoc struct {
	Name  string `firestore:"name"`
	Phone string `firestore:"phone"`
	Email string `firestore:"email"`
}

func newPersonDoc(p models.Person) personDoc {
	return personDoc{Name: p.Name, Phone: p.Phone, Email: p.Email}
}

func (d personDoc) model() models.Person {
	return models.Person{Name: d.Name, Phone: d.Phone, Email: d.Email}
}

type unitDoc struct {
	UnitNumber  string `firestore:"unitNumber"`
	Type        string `firestore:"type"`
	GeneralData struct {
		Bedrooms      int     `firestore:"bedrooms"`
		Bathrooms     int     `firestore:"bathrooms"`
		ParkingSpaces int     `firestore:"parkingSpaces"`
		Area          float64 `firestore:"area"`
	} `firestore:"generalData"`
	Owner      personDoc `firestore:"owner"`
	Occupation struct {
		Status string     `firestore:"status"`
		Tenant *personDoc `firestore:"tenant"`
	} `firestore:"occupation"`
	Fees struct {
		MonthlyFee        float64 `firestore:"monthlyFee"`
		LateFeePercentage float64 `firestore:"lateFeePercentage"`
	} `firestore:"fees"`
	PaymentResponsibles []personDoc `firestore:"paymentResponsibles"`
	AdminData           struct {
		Notes string `firestore:"notes"`
	} `firestore:"adminData"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newUnitDoc(u *models.Unit) unitDoc {
	var d unitDoc
	d.UnitNumber = u.UnitNumber
	d.Type = string(u.Type)
	d.GeneralData.Bedrooms = u.GeneralData.Bedrooms
	d.GeneralData.Bathrooms = u.GeneralData.Bathrooms
	d.GeneralData.ParkingSpaces = u.GeneralData.ParkingSpaces
	d.GeneralData.Area = u.GeneralData.Area
	d.Owner = newPersonDoc(u.Owner)
	d.Occupation.Status = string(u.Occupation.Status)
	if u.Occupation.Tenant != nil {
		t := newPersonDoc(*u.Occupation.Tenant)
		d.Occupation.Tenant = &t
	}
	d.Fees.MonthlyFee = toFloat(u.Fees.MonthlyFee)
	d.Fees.LateFeePercentage = toFloat(u.Fees.LateFeePercentage)
	for _, p := range u.PaymentResponsibles {
		d.PaymentResponsibles = append(d.PaymentResponsibles, newPersonDoc(p))
	}
	d.AdminData.Notes = u.AdminData.Notes
	d.CreatedAt = u.CreatedAt
	d.UpdatedAt = u.UpdatedAt
	return d
}

func (d unitDoc) model(condoID, id string) *models.Unit {
	u := &models.Unit{
		ID:            id,
		CondominiumID: condoID,
		UnitNumber:    d.UnitNumber,
		Type:          models.UnitType(d.Type),
		GeneralData: models.GeneralData{
			Bedrooms:      d.GeneralData.Bedrooms,
			Bathrooms:     d.GeneralData.Bathrooms,
			ParkingSpaces: d.GeneralData.ParkingSpaces,
			Area:          d.GeneralData.Area,
		},
		Owner:      d.Owner.model(),
		Occupation: models.Occupation{Status: models.OccupationStatus(d.Occupation.Status)},
		Fees: models.Fees{
			MonthlyFee:        toDecimal(d.Fees.MonthlyFee),
			LateFeePercentage: toDecimal(d.Fees.LateFeePercentage),
		},
		AdminData: models.AdminData{Notes: d.AdminData.Notes},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Occupation.Tenant != nil {
		t := d.Occupation.Tenant.model()
		u.Occupation.Tenant = &t
	}
	for _, p := range d.PaymentResponsibles {
		u.PaymentResponsibles = append(u.PaymentResponsibles, p.model())
	}
	return u
}

type movementDoc struct {
	Date        time.Time `firestore:"date"`
	Type        string    `firestore:"type"`
	Description string    `firestore:"description"`
	Amount      float64   `firestore:"amount"`
	Period      string    `firestore:"period,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

// feeDocID keys a monthly fee by its period so a second one collides
func feeDocID(p models.Period) string {
	return "fee-" + p.Key()
}

func newMovementDoc(m *models.AccountMovement, now time.Time) movementDoc {
	d := movementDoc{
		Date:        m.Date,
		Type:        string(m.Type),
		Description: m.Description,
		Amount:      toFloat(m.Amount),
		CreatedAt:   now,
	}
	if m.Period != nil {
		d.Period = m.Period.Key()
	}
	return d
}

func (d movementDoc) model(id string) (models.AccountMovement, error) {
	m := models.AccountMovement{
		ID:          id,
		Date:        d.Date,
		Type:        models.MovementType(d.Type),
		Description: d.Description,
		Amount:      toDecimal(d.Amount),
	}
	if d.Period != "" {
		t, err := time.Parse("2006-01", d.Period)
		if err != nil {
			return m, fmt.Errorf("failed to parse period %q: %w", d.Period, err)
		}
		p := models.PeriodOf(t)
		m.Period = &p
	}
	return m, nil
}

type commentDoc struct {
	Date    time.Time `firestore:"date"`
	Comment string    `firestore:"comment"`
	User    string    `firestore:"user"`
}

type itemDoc struct {
	Description string  `firestore:"description"`
	Quantity    float64 `firestore:"quantity"`
	UnitPrice   float64 `firestore:"unitPrice"`
}

type invoiceDoc struct {
	SupplierID           string    `firestore:"supplierId"`
	InvoiceNumber        string    `firestore:"invoiceNumber"`
	Date                 time.Time `firestore:"date"`
	DueDate              time.Time `firestore:"dueDate"`
	Amount               float64   `firestore:"amount"`
	Status               string    `firestore:"status"`
	Items                []itemDoc `firestore:"items"`
	RelatedTransactionID string    `firestore:"relatedTransactionId,omitempty"`
	CreatedAt            time.Time `firestore:"createdAt"`
	UpdatedAt            time.Time `firestore:"updatedAt"`
}

func newInvoiceDoc(inv *models.Invoice) invoiceDoc {
	d := invoiceDoc{
		SupplierID:           inv.SupplierID,
		InvoiceNumber:        inv.InvoiceNumber,
		Date:                 inv.Date,
		DueDate:              inv.DueDate,
		Amount:               toFloat(inv.Amount),
		Status:               string(inv.Status),
		RelatedTransactionID: inv.RelatedTransactionID,
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
	}
	for _, it := range inv.Items {
		d.Items = append(d.Items, itemDoc{
			Description: it.Description,
			Quantity:    toFloat(it.Quantity),
			UnitPrice:   toFloat(it.UnitPrice),
		})
	}
	return d
}

func (d invoiceDoc) model(condoID, id string) *models.Invoice {
	inv := &models.Invoice{
		ID:                   id,
		CondominiumID:        condoID,
		SupplierID:           d.SupplierID,
		InvoiceNumber:        d.InvoiceNumber,
		Date:                 d.Date,
		DueDate:              d.DueDate,
		Amount:               toDecimal(d.Amount),
		Status:               models.InvoiceStatus(d.Status),
		RelatedTransactionID: d.RelatedTransactionID,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	for _, it := range d.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			Description: it.Description,
			Quantity:    toDecimal(it.Quantity),
			UnitPrice:   toDecimal(it.UnitPrice),
		})
	}
	return inv
}

type txnDoc struct {
	Date        time.Time `firestore:"date"`
	Description string    `firestore:"description"`
	Type        string    `firestore:"type"`
	Category    string    `firestore:"category"`
	Amount      float64   `firestore:"amount"`
	Reference   string    `firestore:"reference,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func newTxnDoc(t *models.Transaction) txnDoc {
	return txnDoc{
		Date:        t.Date,
		Description: t.Description,
		Type:        string(t.Type),
		Category:    t.Category,
		Amount:      toFloat(t.Amount),
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt,
	}
}

func (d txnDoc) model(condoID, id string) models.Transaction {
	return models.Transaction{
		ID:            id,
		CondominiumID: condoID,
		Date:          d.Date,
		Description:   d.Description,
		Type:          models.TransactionType(d.Type),
		Category:      d.Category,
		Amount:        toDecimal(d.Amount),
		Reference:     d.Reference,
		CreatedAt:     d.CreatedAt,
	}
}

// Flat records go through their JSON form so one generic repository serves
// every record type.
func recordToMap(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	err = json.Unmarshal(raw, &m)
	return m, err
}

func mapToRecord[T any](m map[string]any) (T, error) {
	var rec T
	raw, err := json.Marshal(m)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(raw, &rec)
	return rec, err
}
