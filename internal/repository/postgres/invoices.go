package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
)

type invoiceRepo struct {
	db *sql.DB
}

const invoiceColumns = `id, condominium_id, supplier_id, invoice_number, date, due_date, amount, status, items,
	related_transaction_id, created_at, updated_at`

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	inv := &models.Invoice{}
	var items []byte
	var related sql.NullString
	err := row.Scan(&inv.ID, &inv.CondominiumID, &inv.SupplierID, &inv.InvoiceNumber, &inv.Date, &inv.DueDate,
		&inv.Amount, &inv.Status, &items, &related, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("failed to decode invoice items: %w", err)
	}
	inv.RelatedTransactionID = related.String
	return inv, nil
}

func encodeItems(items []models.InvoiceItem) ([]byte, error) {
	if items == nil {
		items = []models.InvoiceItem{}
	}
	return json.Marshal(items)
}

// Create inserts an invoice; the condominium must exist
func (r *invoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	items, err := encodeItems(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to encode invoice items: %w", err)
	}
	query := `
		INSERT INTO condo.invoices (id, condominium_id, supplier_id, invoice_number, date, due_date, amount, status, items,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, inv.ID, inv.CondominiumID, inv.SupplierID, inv.InvoiceNumber,
		inv.Date, inv.DueDate, inv.Amount, inv.Status, items).
		Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if pqCode(err) == foreignKeyViolation {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepo) Get(ctx context.Context, condoID, invoiceID string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM condo.invoices WHERE id = $1 AND condominium_id = $2`
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, invoiceID, condoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// List retrieves the invoices of a condominium, newest first
func (r *invoiceRepo) List(ctx context.Context, condoID string) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM condo.invoices WHERE condominium_id = $1 ORDER BY date DESC`
	rows, err := r.db.QueryContext(ctx, query, condoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Update rewrites an unpaid invoice. Paid invoices are frozen.
func (r *invoiceRepo) Update(ctx context.Context, inv *models.Invoice) error {
	items, err := encodeItems(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to encode invoice items: %w", err)
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, err := lockInvoice(ctx, tx, inv.CondominiumID, inv.ID)
		if err != nil {
			return err
		}
		if status == models.InvoicePaid {
			return repository.ErrInvoiceAlreadyPaid
		}
		query := `
			UPDATE condo.invoices
			SET supplier_id = $3, invoice_number = $4, date = $5, due_date = $6, amount = $7, status = $8, items = $9,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = $1 AND condominium_id = $2
			RETURNING created_at, updated_at`
		err = tx.QueryRowContext(ctx, query, inv.ID, inv.CondominiumID, inv.SupplierID, inv.InvoiceNumber,
			inv.Date, inv.DueDate, inv.Amount, inv.Status, items).
			Scan(&inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		return nil
	})
}

// Delete removes an unpaid invoice. A paid one keeps its expense reference.
func (r *invoiceRepo) Delete(ctx context.Context, condoID, invoiceID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, err := lockInvoice(ctx, tx, condoID, invoiceID)
		if err != nil {
			return err
		}
		if status == models.InvoicePaid {
			return repository.ErrInvoiceAlreadyPaid
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM condo.invoices WHERE id = $1 AND condominium_id = $2`, invoiceID, condoID); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return nil
	})
}

// Pay locks the invoice row, inserts the expense and flips the status in one
// database transaction. A concurrent payer blocks on the lock and then sees Pagada.
func (r *invoiceRepo) Pay(ctx context.Context, condoID, invoiceID string, txn *models.Transaction) (*models.Invoice, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, err := lockInvoice(ctx, tx, condoID, invoiceID)
		if err != nil {
			return err
		}
		if status == models.InvoicePaid {
			return repository.ErrInvoiceAlreadyPaid
		}
		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE condo.invoices
			SET status = $3, related_transaction_id = $4, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1 AND condominium_id = $2`,
			invoiceID, condoID, models.InvoicePaid, txn.ID)
		if err != nil {
			return fmt.Errorf("failed to mark invoice paid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, condoID, invoiceID)
}

func (r *invoiceRepo) MarkOverdue(ctx context.Context, condoID string, asOf time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE condo.invoices
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE condominium_id = $1 AND status = $3 AND due_date < $4`,
		condoID, models.InvoiceOverdue, models.InvoicePending, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

func lockInvoice(ctx context.Context, tx *sql.Tx, condoID, invoiceID string) (models.InvoiceStatus, error) {
	var status models.InvoiceStatus
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM condo.invoices WHERE id = $1 AND condominium_id = $2 FOR UPDATE`,
		invoiceID, condoID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock invoice: %w", err)
	}
	return status, nil
}
