package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
)

type condoRepo struct {
	db *sql.DB
}

// Create inserts a new condominium
func (r *condoRepo) Create(ctx context.Context, c *models.Condominium) error {
	query := `
		INSERT INTO condo.condominiums (id, name, address, rnc, currency, manual_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.Name, c.Address, c.RNC, c.Currency, c.ManualBalance).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create condominium: %w", err)
	}
	return nil
}

const condoColumns = `id, name, address, rnc, currency, manual_balance, created_at, updated_at`

func scanCondo(row rowScanner) (*models.Condominium, error) {
	c := &models.Condominium{}
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.RNC, &c.Currency, &c.ManualBalance, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Get retrieves a condominium by id
func (r *condoRepo) Get(ctx context.Context, id string) (*models.Condominium, error) {
	query := `SELECT ` + condoColumns + ` FROM condo.condominiums WHERE id = $1`
	c, err := scanCondo(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get condominium: %w", err)
	}
	return c, nil
}

// List retrieves every condominium ordered by name
func (r *condoRepo) List(ctx context.Context) ([]*models.Condominium, error) {
	query := `SELECT ` + condoColumns + ` FROM condo.condominiums ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list condominiums: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Condominium, 0)
	for rows.Next() {
		c, err := scanCondo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan condominium: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update replaces the editable fields of a condominium
func (r *condoRepo) Update(ctx context.Context, c *models.Condominium) error {
	query := `
		UPDATE condo.condominiums
		SET name = $2, address = $3, rnc = $4, currency = $5, manual_balance = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.Name, c.Address, c.RNC, c.Currency, c.ManualBalance).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update condominium: %w", err)
	}
	return nil
}
