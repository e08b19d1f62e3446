package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Dan9191/condo-service/internal/repository"
)

type recordRepo[T any] struct {
	s          *Store
	collection string
}

func newRecordRepo[T any](s *Store, collection string) *recordRepo[T] {
	return &recordRepo[T]{s: s, collection: collection}
}

func (r *recordRepo[T]) ref(condoID, id string) *firestore.DocumentRef {
	return r.s.sub(condoID, r.collection).Doc(id)
}

func (r *recordRepo[T]) Create(ctx context.Context, condoID, id string, rec T) error {
	if err := r.s.requireCondo(ctx, condoID); err != nil {
		return err
	}
	data, err := recordToMap(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", r.collection, err)
	}
	if _, err := r.ref(condoID, id).Create(ctx, data); err != nil {
		return fmt.Errorf("failed to create %s record: %w", r.collection, err)
	}
	return nil
}

func (r *recordRepo[T]) Get(ctx context.Context, condoID, id string) (T, error) {
	var zero T
	snap, err := r.ref(condoID, id).Get(ctx)
	if isNotFound(err) {
		return zero, repository.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to get %s record: %w", r.collection, err)
	}
	rec, err := mapToRecord[T](snap.Data())
	if err != nil {
		return zero, fmt.Errorf("failed to decode %s record: %w", r.collection, err)
	}
	return rec, nil
}

func (r *recordRepo[T]) List(ctx context.Context, condoID string) ([]T, error) {
	snaps, err := r.s.sub(condoID, r.collection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", r.collection, err)
	}
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		rec, err := mapToRecord[T](snap.Data())
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s record: %w", r.collection, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *recordRepo[T]) Update(ctx context.Context, condoID, id string, rec T) error {
	data, err := recordToMap(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", r.collection, err)
	}
	ref := r.ref(condoID, id)
	return r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); isNotFound(err) {
			return repository.ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to get %s record: %w", r.collection, err)
		}
		return tx.Set(ref, data)
	})
}

func (r *recordRepo[T]) Delete(ctx context.Context, condoID, id string) error {
	ref := r.ref(condoID, id)
	if _, err := ref.Get(ctx); isNotFound(err) {
		return repository.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("failed to get %s record: %w", r.collection, err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s record: %w", r.collection, err)
	}
	return nil
}
