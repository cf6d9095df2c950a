package memory

import (
	"context"
	"fmt"

	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/google/uuid"
)

// RecordRepo is the storage.RecordStore view of a Store.
type RecordRepo struct {
	s *Store
}

var _ storage.RecordStore = (*RecordRepo)(nil)

func checkTable(table string) error {
	if !storage.IsVersionedTable(table) {
		return fmt.Errorf("%w: %s", storage.ErrUnknownTable, table)
	}
	return nil
}

func (r *RecordRepo) Get(ctx context.Context, table string, id uuid.UUID) (*models.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found, ok := r.s.table(table)[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return toRecord(table, copyRow(found)), nil
}

func (r *RecordRepo) Insert(ctx context.Context, table string, fields map[string]interface{}) (*models.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := copyRow(fields)
	id, ok := stored["id"].(uuid.UUID)
	if !ok || id == uuid.Nil {
		id = uuid.New()
		stored["id"] = id
	}
	t := r.s.table(table)
	if _, exists := t[id]; exists {
		return nil, fmt.Errorf("%s_pkey: %w", table, storage.ErrConflict)
	}
	t[id] = stored
	return toRecord(table, copyRow(stored)), nil
}

func (r *RecordRepo) UpdateIfVersion(ctx context.Context, table string, id uuid.UUID, expectedVersion int, fields map[string]interface{}) (*models.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found, ok := r.s.table(table)[id]
	if !ok || asInt(found["version"]) != expectedVersion {
		return nil, storage.ErrVersionMismatch
	}
	for k, v := range fields {
		found[k] = v
	}
	return toRecord(table, copyRow(found)), nil
}

func (r *RecordRepo) DeleteIfVersion(ctx context.Context, table string, id uuid.UUID, expectedVersion int) error {
	if err := checkTable(table); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := r.s.table(table)
	found, ok := t[id]
	if !ok || asInt(found["version"]) != expectedVersion {
		return storage.ErrVersionMismatch
	}
	delete(t, id)
	return nil
}
