// Package memory is an in-process implementation of repository.Store.
// It is safe for concurrent use and returns copies, so callers cannot mutate
// stored state. Data is lost on restart.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
)

// Store keeps every collection in maps guarded by a single lock, which makes
// multi-document operations such as invoice payment atomic.
type Store struct {
	mu        sync.RWMutex
	condos    map[string]models.Condominium
	units     map[string]models.Unit
	movements map[string][]models.AccountMovement
	comments  map[string][]models.ManagementComment
	invoices  map[string]models.Invoice
	txns      map[string]models.Transaction

	suppliers      *recordStore[models.Supplier]
	employees      *recordStore[models.Employee]
	incidents      *recordStore[models.Incident]
	communications *recordStore[models.Communication]
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		condos:         make(map[string]models.Condominium),
		units:          make(map[string]models.Unit),
		movements:      make(map[string][]models.AccountMovement),
		comments:       make(map[string][]models.ManagementComment),
		invoices:       make(map[string]models.Invoice),
		txns:           make(map[string]models.Transaction),
		suppliers:      newRecordStore[models.Supplier](nil),
		employees:      newRecordStore(cloneEmployee),
		incidents:      newRecordStore[models.Incident](nil),
		communications: newRecordStore(cloneCommunication),
	}
}

func (s *Store) Condominiums() repository.CondominiumRepository { return condoRepo{s} }
func (s *Store) Units() repository.UnitRepository               { return unitRepo{s} }
func (s *Store) Invoices() repository.InvoiceRepository         { return invoiceRepo{s} }
func (s *Store) Transactions() repository.TransactionRepository { return txnRepo{s} }

func (s *Store) Suppliers() repository.RecordRepository[models.Supplier] { return s.suppliers }
func (s *Store) Employees() repository.RecordRepository[models.Employee] { return s.employees }
func (s *Store) Incidents() repository.RecordRepository[models.Incident] { return s.incidents }
func (s *Store) Communications() repository.RecordRepository[models.Communication] {
	return s.communications
}

func (s *Store) Close() error { return nil }

type condoRepo struct{ s *Store }

func (r condoRepo) Create(ctx context.Context, c *models.Condominium) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.condos[c.ID] = *c
	return nil
}

func (r condoRepo) Get(ctx context.Context, id string) (*models.Condominium, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.condos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r condoRepo) List(ctx context.Context) ([]*models.Condominium, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Condominium, 0, len(r.s.condos))
	for _, c := range r.s.condos {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r condoRepo) Update(ctx context.Context, c *models.Condominium) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.condos[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.CreatedAt = prev.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.s.condos[c.ID] = *c
	return nil
}

type unitRepo struct{ s *Store }

func (r unitRepo) Create(ctx context.Context, u *models.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.condos[u.CondominiumID]; !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.units[u.ID] = cloneUnit(*u)
	return nil
}

// unit must be called with the lock held
func (r unitRepo) unit(condoID, unitID string) (models.Unit, bool) {
	u, ok := r.s.units[unitID]
	if !ok || u.CondominiumID != condoID {
		return models.Unit{}, false
	}
	return u, true
}

func (r unitRepo) Get(ctx context.Context, condoID, unitID string) (*models.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.unit(condoID, unitID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	u = cloneUnit(u)
	return &u, nil
}

func (r unitRepo) List(ctx context.Context, condoID string) ([]*models.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Unit, 0)
	for _, u := range r.s.units {
		if u.CondominiumID != condoID {
			continue
		}
		u := cloneUnit(u)
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitNumber < out[j].UnitNumber })
	return out, nil
}

func (r unitRepo) Update(ctx context.Context, u *models.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.unit(u.CondominiumID, u.ID)
	if !ok {
		return repository.ErrNotFound
	}
	u.CreatedAt = prev.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.s.units[u.ID] = cloneUnit(*u)
	return nil
}

func (r unitRepo) Delete(ctx context.Context, condoID, unitID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.unit(condoID, unitID); !ok {
		return repository.ErrNotFound
	}
	delete(r.s.units, unitID)
	delete(r.s.movements, unitID)
	delete(r.s.comments, unitID)
	return nil
}

func (r unitRepo) AppendMovement(ctx context.Context, condoID, unitID string, m *models.AccountMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.unit(condoID, unitID); !ok {
		return repository.ErrNotFound
	}
	if m.Period != nil {
		for _, existing := range r.s.movements[unitID] {
			if existing.Period != nil && *existing.Period == *m.Period {
				return repository.ErrFeeAlreadyRegistered
			}
		}
	}
	r.s.movements[unitID] = append(r.s.movements[unitID], *m)
	return nil
}

func (r unitRepo) ListMovements(ctx context.Context, condoID, unitID string) ([]models.AccountMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.unit(condoID, unitID); !ok {
		return nil, repository.ErrNotFound
	}
	return append(make([]models.AccountMovement, 0), r.s.movements[unitID]...), nil
}

func (r unitRepo) AddComment(ctx context.Context, condoID, unitID string, c *models.ManagementComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.unit(condoID, unitID); !ok {
		return repository.ErrNotFound
	}
	r.s.comments[unitID] = append(r.s.comments[unitID], *c)
	return nil
}

func (r unitRepo) ListComments(ctx context.Context, condoID, unitID string) ([]models.ManagementComment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.unit(condoID, unitID); !ok {
		return nil, repository.ErrNotFound
	}
	out := append(make([]models.ManagementComment, 0), r.s.comments[unitID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

type invoiceRepo struct{ s *Store }

func (r invoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.condos[inv.CondominiumID]; !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now
	r.s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (r invoiceRepo) invoice(condoID, id string) (models.Invoice, bool) {
	inv, ok := r.s.invoices[id]
	if !ok || inv.CondominiumID != condoID {
		return models.Invoice{}, false
	}
	return inv, true
}

func (r invoiceRepo) Get(ctx context.Context, condoID, invoiceID string) (*models.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.invoice(condoID, invoiceID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	inv = cloneInvoice(inv)
	return &inv, nil
}

func (r invoiceRepo) List(ctx context.Context, condoID string) ([]*models.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Invoice, 0)
	for _, inv := range r.s.invoices {
		if inv.CondominiumID != condoID {
			continue
		}
		inv := cloneInvoice(inv)
		out = append(out, &inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r invoiceRepo) Update(ctx context.Context, inv *models.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.invoice(inv.CondominiumID, inv.ID)
	if !ok {
		return repository.ErrNotFound
	}
	if prev.Status == models.InvoicePaid {
		return repository.ErrInvoiceAlreadyPaid
	}
	inv.CreatedAt = prev.CreatedAt
	inv.UpdatedAt = time.Now().UTC()
	r.s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (r invoiceRepo) Delete(ctx context.Context, condoID, invoiceID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.invoice(condoID, invoiceID)
	if !ok {
		return repository.ErrNotFound
	}
	if inv.Status == models.InvoicePaid {
		return repository.ErrInvoiceAlreadyPaid
	}
	delete(r.s.invoices, invoiceID)
	return nil
}

func (r invoiceRepo) Pay(ctx context.Context, condoID, invoiceID string, txn *models.Transaction) (*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.invoice(condoID, invoiceID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if inv.Status == models.InvoicePaid {
		return nil, repository.ErrInvoiceAlreadyPaid
	}

	now := time.Now().UTC()
	txn.CreatedAt = now
	r.s.txns[txn.ID] = *txn

	inv.Status = models.InvoicePaid
	inv.RelatedTransactionID = txn.ID
	inv.UpdatedAt = now
	r.s.invoices[inv.ID] = inv
	inv = cloneInvoice(inv)
	return &inv, nil
}

func (r invoiceRepo) MarkOverdue(ctx context.Context, condoID string, asOf time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, inv := range r.s.invoices {
		if inv.CondominiumID != condoID || inv.Status != models.InvoicePending || !inv.DueDate.Before(asOf) {
			continue
		}
		inv.Status = models.InvoiceOverdue
		inv.UpdatedAt = time.Now().UTC()
		r.s.invoices[id] = inv
		n++
	}
	return n, nil
}

type txnRepo struct{ s *Store }

func (r txnRepo) Create(ctx context.Context, t *models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.condos[t.CondominiumID]; !ok {
		return repository.ErrNotFound
	}
	t.CreatedAt = time.Now().UTC()
	r.s.txns[t.ID] = *t
	return nil
}

func (r txnRepo) Get(ctx context.Context, condoID, id string) (*models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.txns[id]
	if !ok || t.CondominiumID != condoID {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r txnRepo) List(ctx context.Context, condoID string) ([]models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Transaction, 0)
	for _, t := range r.s.txns {
		if t.CondominiumID == condoID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// cloneUnit copies the slices and pointers a Unit shares with its caller
func cloneUnit(u models.Unit) models.Unit {
	u.PaymentResponsibles = slices.Clone(u.PaymentResponsibles)
	if u.Occupation.Tenant != nil {
		t := *u.Occupation.Tenant
		u.Occupation.Tenant = &t
	}
	return u
}

func cloneInvoice(inv models.Invoice) models.Invoice {
	inv.Items = slices.Clone(inv.Items)
	return inv
}

func cloneEmployee(e models.Employee) models.Employee {
	e.PayrollConfig = slices.Clone(e.PayrollConfig)
	return e
}

func cloneCommunication(c models.Communication) models.Communication {
	if c.SentAt != nil {
		at := *c.SentAt
		c.SentAt = &at
	}
	return c
}
