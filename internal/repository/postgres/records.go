package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dan9191/condo-service/internal/repository"
)

// recordRepo keeps flat documents as JSONB rows of condo.records, one
// collection name per record type
type recordRepo[T any] struct {
	db         *sql.DB
	collection string
}

func newRecordRepo[T any](db *sql.DB, collection string) *recordRepo[T] {
	return &recordRepo[T]{db: db, collection: collection}
}

func (r *recordRepo[T]) Create(ctx context.Context, condoID, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", r.collection, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO condo.records (collection, condominium_id, id, data)
		VALUES ($1, $2, $3, $4)`, r.collection, condoID, id, data)
	if pqCode(err) == foreignKeyViolation {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create %s record: %w", r.collection, err)
	}
	return nil
}

func (r *recordRepo[T]) Get(ctx context.Context, condoID, id string) (T, error) {
	var rec T
	var data []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT data FROM condo.records
		WHERE collection = $1 AND condominium_id = $2 AND id = $3`, r.collection, condoID, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, repository.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get %s record: %w", r.collection, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode %s record: %w", r.collection, err)
	}
	return rec, nil
}

// List returns the collection's records ordered by id
func (r *recordRepo[T]) List(ctx context.Context, condoID string) ([]T, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM condo.records
		WHERE collection = $1 AND condominium_id = $2
		ORDER BY id`, r.collection, condoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", r.collection, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", r.collection, err)
		}
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s record: %w", r.collection, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *recordRepo[T]) Update(ctx context.Context, condoID, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", r.collection, err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE condo.records SET data = $4, updated_at = CURRENT_TIMESTAMP
		WHERE collection = $1 AND condominium_id = $2 AND id = $3`, r.collection, condoID, id, data)
	if err != nil {
		return fmt.Errorf("failed to update %s record: %w", r.collection, err)
	}
	return expectAffected(res)
}

func (r *recordRepo[T]) Delete(ctx context.Context, condoID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM condo.records
		WHERE collection = $1 AND condominium_id = $2 AND id = $3`, r.collection, condoID, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", r.collection, err)
	}
	return expectAffected(res)
}
