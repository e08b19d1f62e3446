package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Dan9191/condo-service/internal/repository"
)

type recordStore[T any] struct {
	mu    sync.RWMutex
	data  map[string]map[string]T // condominium id -> record id -> record
	clone func(T) T
}

// newRecordStore creates a store; clone, when set, deep copies records that
// hold slices so callers never share them with the store
func newRecordStore[T any](clone func(T) T) *recordStore[T] {
	if clone == nil {
		clone = func(rec T) T { return rec }
	}
	return &recordStore[T]{data: make(map[string]map[string]T), clone: clone}
}

func (r *recordStore[T]) Create(ctx context.Context, condoID, id string, rec T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data[condoID] == nil {
		r.data[condoID] = make(map[string]T)
	}
	r.data[condoID][id] = r.clone(rec)
	return nil
}

func (r *recordStore[T]) Get(ctx context.Context, condoID, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[condoID][id]
	if !ok {
		var zero T
		return zero, repository.ErrNotFound
	}
	return r.clone(rec), nil
}

// List returns records ordered by id so results are stable
func (r *recordStore[T]) List(ctx context.Context, condoID string) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.data[condoID]))
	for id := range r.data[condoID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.clone(r.data[condoID][id]))
	}
	return out, nil
}

func (r *recordStore[T]) Update(ctx context.Context, condoID, id string, rec T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[condoID][id]; !ok {
		return repository.ErrNotFound
	}
	r.data[condoID][id] = r.clone(rec)
	return nil
}

func (r *recordStore[T]) Delete(ctx context.Context, condoID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[condoID][id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.data[condoID], id)
	return nil
}
