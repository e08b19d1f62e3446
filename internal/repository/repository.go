// Package repository declares the storage contracts the service layer depends on.
// Implementations live in the memory, postgres and firestore subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvoiceAlreadyPaid   = errors.New("invoice already paid")
	ErrFeeAlreadyRegistered = errors.New("monthly fee already registered for period")
)

// Collection names, shared by every backend
const (
	CollectionCondominiums   = "condominiums"
	CollectionUnits          = "units"
	CollectionAccountHistory = "account_history"
	CollectionManagement     = "management_history"
	CollectionInvoices       = "accounts_payable"
	CollectionTransactions   = "financial_transactions"
	CollectionSuppliers      = "suppliers"
	CollectionEmployees      = "employees"
	CollectionIncidents      = "incidents"
	CollectionCommunications = "communications"
)

// Store groups the repositories of one backend
type Store interface {
	Condominiums() CondominiumRepository
	Units() UnitRepository
	Invoices() InvoiceRepository
	Transactions() TransactionRepository
	Suppliers() RecordRepository[models.Supplier]
	Employees() RecordRepository[models.Employee]
	Incidents() RecordRepository[models.Incident]
	Communications() RecordRepository[models.Communication]
	Close() error
}

type CondominiumRepository interface {
	Create(ctx context.Context, c *models.Condominium) error
	Get(ctx context.Context, id string) (*models.Condominium, error)
	List(ctx context.Context) ([]*models.Condominium, error)
	Update(ctx context.Context, c *models.Condominium) error
}

type UnitRepository interface {
	Create(ctx context.Context, u *models.Unit) error
	Get(ctx context.Context, condoID, unitID string) (*models.Unit, error)
	List(ctx context.Context, condoID string) ([]*models.Unit, error)
	Update(ctx context.Context, u *models.Unit) error
	// Delete removes the unit together with its account and management history
	Delete(ctx context.Context, condoID, unitID string) error

	// AppendMovement adds an entry to the unit's account history. When the
	// movement carries a Period, at most one movement per unit and period is
	// accepted; a second one fails with ErrFeeAlreadyRegistered.
	AppendMovement(ctx context.Context, condoID, unitID string, m *models.AccountMovement) error
	ListMovements(ctx context.Context, condoID, unitID string) ([]models.AccountMovement, error)

	AddComment(ctx context.Context, condoID, unitID string, c *models.ManagementComment) error
	ListComments(ctx context.Context, condoID, unitID string) ([]models.ManagementComment, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, condoID, invoiceID string) (*models.Invoice, error)
	List(ctx context.Context, condoID string) ([]*models.Invoice, error)
	Update(ctx context.Context, inv *models.Invoice) error
	Delete(ctx context.Context, condoID, invoiceID string) error

	// Pay records txn and marks the invoice Pagada in one atomic step.
	// It fails with ErrNotFound or ErrInvoiceAlreadyPaid without writing anything.
	Pay(ctx context.Context, condoID, invoiceID string, txn *models.Transaction) (*models.Invoice, error)

	// MarkOverdue moves Pendiente invoices due before asOf to Vencida and
	// returns how many changed.
	MarkOverdue(ctx context.Context, condoID string, asOf time.Time) (int, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	Get(ctx context.Context, condoID, id string) (*models.Transaction, error)
	List(ctx context.Context, condoID string) ([]models.Transaction, error)
}

// RecordRepository stores flat documents of one collection under a condominium
type RecordRepository[T any] interface {
	Create(ctx context.Context, condoID, id string, rec T) error
	Get(ctx context.Context, condoID, id string) (T, error)
	List(ctx context.Context, condoID string) ([]T, error)
	Update(ctx context.Context, condoID, id string, rec T) error
	Delete(ctx context.Context, condoID, id string) error
}
