package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
)

type txnRepo struct {
	db *sql.DB
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertTransaction(ctx context.Context, db execer, t *models.Transaction) error {
	query := `
		INSERT INTO condo.financial_transactions (id, condominium_id, date, description, type, category, amount, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := db.QueryRowContext(ctx, query, t.ID, t.CondominiumID, t.Date, t.Description, t.Type, t.Category,
		t.Amount, nullString(t.Reference)).Scan(&t.CreatedAt)
	if pqCode(err) == foreignKeyViolation {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *txnRepo) Create(ctx context.Context, t *models.Transaction) error {
	return insertTransaction(ctx, r.db, t)
}

const txnColumns = `id, condominium_id, date, description, type, category, amount, reference, created_at`

func scanTxn(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	var ref sql.NullString
	err := row.Scan(&t.ID, &t.CondominiumID, &t.Date, &t.Description, &t.Type, &t.Category, &t.Amount, &ref, &t.CreatedAt)
	t.Reference = ref.String
	return t, err
}

func (r *txnRepo) Get(ctx context.Context, condoID, id string) (*models.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM condo.financial_transactions WHERE id = $1 AND condominium_id = $2`
	t, err := scanTxn(r.db.QueryRowContext(ctx, query, id, condoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

// List returns the condominium's ledger oldest first
func (r *txnRepo) List(ctx context.Context, condoID string) ([]models.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM condo.financial_transactions WHERE condominium_id = $1 ORDER BY date, created_at`
	rows, err := r.db.QueryContext(ctx, query, condoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
