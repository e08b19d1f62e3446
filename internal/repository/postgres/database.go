// Package postgres implements repository.Store on PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLSTATE codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store provides database operations for every collection
type Store struct {
	db *sql.DB

	suppliers      *recordRepo[models.Supplier]
	employees      *recordRepo[models.Employee]
	incidents      *recordRepo[models.Incident]
	communications *recordRepo[models.Communication]
}

// Open connects to the database, configures the pool and verifies the connection
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db), nil
}

// New wraps an existing connection pool
func New(db *sql.DB) *Store {
	return &Store{
		db:             db,
		suppliers:      newRecordRepo[models.Supplier](db, repository.CollectionSuppliers),
		employees:      newRecordRepo[models.Employee](db, repository.CollectionEmployees),
		incidents:      newRecordRepo[models.Incident](db, repository.CollectionIncidents),
		communications: newRecordRepo[models.Communication](db, repository.CollectionCommunications),
	}
}

func (s *Store) Condominiums() repository.CondominiumRepository { return &condoRepo{db: s.db} }
func (s *Store) Units() repository.UnitRepository               { return &unitRepo{db: s.db} }
func (s *Store) Invoices() repository.InvoiceRepository         { return &invoiceRepo{db: s.db} }
func (s *Store) Transactions() repository.TransactionRepository { return &txnRepo{db: s.db} }

func (s *Store) Suppliers() repository.RecordRepository[models.Supplier] { return s.suppliers }
func (s *Store) Employees() repository.RecordRepository[models.Employee] { return s.employees }
func (s *Store) Incidents() repository.RecordRepository[models.Incident] { return s.incidents }
func (s *Store) Communications() repository.RecordRepository[models.Communication] {
	return s.communications
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded migrations that have not been applied yet and
// returns their names
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	if _, err := s.db.ExecContext(ctx, `
		CREATE SCHEMA IF NOT EXISTS condo;
		CREATE TABLE IF NOT EXISTS condo.schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	var applied []string
	for _, name := range names {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM condo.schema_migrations WHERE version = $1)`, name).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", name, err)
		}
		if exists {
			continue
		}

		script, err := migrationsFS.ReadFile(name)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(script)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO condo.schema_migrations (version) VALUES ($1)`, name)
			return err
		}); err != nil {
			return applied, fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		applied = append(applied, name)
	}
	return applied, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return withTx(ctx, s.db, fn)
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}
