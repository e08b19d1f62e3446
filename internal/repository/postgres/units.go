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

type unitRepo struct {
	db *sql.DB
}

// unitProfile is the part of a unit kept in the profile JSONB column
type unitProfile struct {
	GeneralData         models.GeneralData `json:"general_data"`
	Owner               models.Person      `json:"owner"`
	Occupation          models.Occupation  `json:"occupation"`
	PaymentResponsibles []models.Person    `json:"payment_responsibles"`
	AdminData           models.AdminData   `json:"admin_data"`
}

func profileOf(u *models.Unit) ([]byte, error) {
	return json.Marshal(unitProfile{
		GeneralData:         u.GeneralData,
		Owner:               u.Owner,
		Occupation:          u.Occupation,
		PaymentResponsibles: u.PaymentResponsibles,
		AdminData:           u.AdminData,
	})
}

const unitColumns = `id, condominium_id, unit_number, type, monthly_fee, late_fee_percentage, profile, created_at, updated_at`

func scanUnit(row rowScanner) (*models.Unit, error) {
	u := &models.Unit{}
	var raw []byte
	err := row.Scan(&u.ID, &u.CondominiumID, &u.UnitNumber, &u.Type,
		&u.Fees.MonthlyFee, &u.Fees.LateFeePercentage, &raw, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	var p unitProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode unit profile: %w", err)
	}
	u.GeneralData = p.GeneralData
	u.Owner = p.Owner
	u.Occupation = p.Occupation
	u.PaymentResponsibles = p.PaymentResponsibles
	u.AdminData = p.AdminData
	return u, nil
}

// Create inserts a unit; the condominium must exist
func (r *unitRepo) Create(ctx context.Context, u *models.Unit) error {
	profile, err := profileOf(u)
	if err != nil {
		return fmt.Errorf("failed to encode unit profile: %w", err)
	}
	query := `
		INSERT INTO condo.units (id, condominium_id, unit_number, type, monthly_fee, late_fee_percentage, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, u.ID, u.CondominiumID, u.UnitNumber, u.Type,
		u.Fees.MonthlyFee, u.Fees.LateFeePercentage, profile).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if pqCode(err) == foreignKeyViolation {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

// Get retrieves a unit of a condominium
func (r *unitRepo) Get(ctx context.Context, condoID, unitID string) (*models.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM condo.units WHERE id = $1 AND condominium_id = $2`
	u, err := scanUnit(r.db.QueryRowContext(ctx, query, unitID, condoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return u, nil
}

// List retrieves the units of a condominium ordered by unit number
func (r *unitRepo) List(ctx context.Context, condoID string) ([]*models.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM condo.units WHERE condominium_id = $1 ORDER BY unit_number`
	rows, err := r.db.QueryContext(ctx, query, condoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Unit, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update replaces the editable fields of a unit
func (r *unitRepo) Update(ctx context.Context, u *models.Unit) error {
	profile, err := profileOf(u)
	if err != nil {
		return fmt.Errorf("failed to encode unit profile: %w", err)
	}
	query := `
		UPDATE condo.units
		SET unit_number = $3, type = $4, monthly_fee = $5, late_fee_percentage = $6, profile = $7,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND condominium_id = $2
		RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, u.ID, u.CondominiumID, u.UnitNumber, u.Type,
		u.Fees.MonthlyFee, u.Fees.LateFeePercentage, profile).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	return nil
}

// Delete removes a unit; movements and comments go with it through ON DELETE CASCADE
func (r *unitRepo) Delete(ctx context.Context, condoID, unitID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM condo.units WHERE id = $1 AND condominium_id = $2`, unitID, condoID)
	if err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	return expectAffected(res)
}

// AppendMovement inserts a movement only if the unit belongs to the condominium.
// The partial unique index on (unit_id, period_year, period_month) rejects a
// second fee for the same period.
func (r *unitRepo) AppendMovement(ctx context.Context, condoID, unitID string, m *models.AccountMovement) error {
	var year, month sql.NullInt64
	if m.Period != nil {
		year = sql.NullInt64{Int64: int64(m.Period.Year), Valid: true}
		month = sql.NullInt64{Int64: int64(m.Period.Month), Valid: true}
	}
	query := `
		INSERT INTO condo.account_movements
			(id, condominium_id, unit_id, date, type, description, amount, period_year, period_month)
		SELECT $1, $2, u.id, $4, $5, $6, $7, $8, $9
		FROM condo.units u
		WHERE u.id = $3 AND u.condominium_id = $2`
	res, err := r.db.ExecContext(ctx, query, m.ID, condoID, unitID, m.Date, m.Type, m.Description, m.Amount, year, month)
	if pqCode(err) == uniqueViolation {
		return repository.ErrFeeAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}
	return expectAffected(res)
}

// ListMovements returns the unit's movements in insertion order
func (r *unitRepo) ListMovements(ctx context.Context, condoID, unitID string) ([]models.AccountMovement, error) {
	if err := r.exists(ctx, condoID, unitID); err != nil {
		return nil, err
	}
	query := `
		SELECT id, date, type, description, amount, period_year, period_month
		FROM condo.account_movements
		WHERE unit_id = $1
		ORDER BY created_at, date`
	rows, err := r.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	out := make([]models.AccountMovement, 0)
	for rows.Next() {
		var m models.AccountMovement
		var year, month sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Date, &m.Type, &m.Description, &m.Amount, &year, &month); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		if year.Valid && month.Valid {
			m.Period = &models.Period{Year: int(year.Int64), Month: time.Month(month.Int64)}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *unitRepo) AddComment(ctx context.Context, condoID, unitID string, c *models.ManagementComment) error {
	query := `
		INSERT INTO condo.management_comments (id, unit_id, date, comment, author)
		SELECT $1, u.id, $3, $4, $5
		FROM condo.units u
		WHERE u.id = $2 AND u.condominium_id = $6`
	res, err := r.db.ExecContext(ctx, query, c.ID, unitID, c.Date, c.Comment, c.User, condoID)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return expectAffected(res)
}

// ListComments returns the unit's comments newest first
func (r *unitRepo) ListComments(ctx context.Context, condoID, unitID string) ([]models.ManagementComment, error) {
	if err := r.exists(ctx, condoID, unitID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, comment, author FROM condo.management_comments WHERE unit_id = $1 ORDER BY date DESC`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	out := make([]models.ManagementComment, 0)
	for rows.Next() {
		var c models.ManagementComment
		if err := rows.Scan(&c.ID, &c.Date, &c.Comment, &c.User); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *unitRepo) exists(ctx context.Context, condoID, unitID string) error {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM condo.units WHERE id = $1 AND condominium_id = $2)`, unitID, condoID).Scan(&ok)
	if err != nil {
		return fmt.Errorf("failed to check unit: %w", err)
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
