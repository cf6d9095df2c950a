package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-shop-api/internal/clock"
	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxRetries  = 3
	DefaultBackoffStep = 100 * time.Millisecond
)

// RecordMutator writes versioned rows with compare-and-swap on the version column.
// A stale version is retried against the freshly read version a bounded number of times.
type RecordMutator struct {
	store       storage.RecordStore
	clock       clock.Clock
	maxRetries  int
	backoffStep time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	log         *logrus.Logger
}

type MutatorOption func(*RecordMutator)

// WithDefaultMaxRetries sets the retry budget used when an update does not override it.
func WithDefaultMaxRetries(n int) MutatorOption {
	return func(m *RecordMutator) {
		if n >= 0 {
			m.maxRetries = n
		}
	}
}

// WithBackoffStep sets the base delay; attempt n waits n*step.
func WithBackoffStep(d time.Duration) MutatorOption {
	return func(m *RecordMutator) { m.backoffStep = d }
}

func WithMutatorClock(c clock.Clock) MutatorOption {
	return func(m *RecordMutator) { m.clock = c }
}

// WithSleeper replaces the backoff wait, mostly for tests.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) MutatorOption {
	return func(m *RecordMutator) { m.sleep = fn }
}

func NewRecordMutator(store storage.RecordStore, opts ...MutatorOption) *RecordMutator {
	m := &RecordMutator{
		store:       store,
		clock:       clock.Real(),
		maxRetries:  DefaultMaxRetries,
		backoffStep: DefaultBackoffStep,
		sleep:       sleepContext,
		log:         logger.Get(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type updateOptions struct {
	maxRetries   int
	precondition func(*models.Record) error
}

type UpdateOption func(*updateOptions)

// WithMaxRetries overrides the retry budget for one update.
func WithMaxRetries(n int) UpdateOption {
	return func(o *updateOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithPrecondition is checked against the re-read row before every retry. A non-nil error
// aborts the update and is returned as is.
func WithPrecondition(fn func(*models.Record) error) UpdateOption {
	return func(o *updateOptions) { o.precondition = fn }
}

func validatePatch(table string, patch map[string]interface{}, allowProtected bool) error {
	if !storage.IsVersionedTable(table) {
		return &ValidationError{Field: "table", Message: fmt.Sprintf("%q is not a versioned table", table)}
	}
	for col := range patch {
		if !storage.IsColumnName(col) {
			return &ValidationError{Field: col, Message: "not a column name"}
		}
		if !allowProtected && storage.IsProtectedColumn(col) {
			return &ValidationError{Field: col, Message: "column is managed by the store"}
		}
	}
	return nil
}

// Update applies patch to the row while its version equals expectedVersion, bumping the version.
func (m *RecordMutator) Update(ctx context.Context, table string, id uuid.UUID, expectedVersion int, patch map[string]interface{}, opts ...UpdateOption) (*models.Record, error) {
	if err := validatePatch(table, patch, false); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, &ValidationError{Field: "patch", Message: "nothing to update"}
	}
	o := updateOptions{maxRetries: m.maxRetries}
	for _, opt := range opts {
		opt(&o)
	}

	op := fmt.Sprintf("update %s", table)
	version := expectedVersion
	for attempt := 0; ; attempt++ {
		fields := make(map[string]interface{}, len(patch)+2)
		for k, v := range patch {
			fields[k] = v
		}
		fields["version"] = version + 1
		fields["updated_at"] = m.clock.Now()

		rec, err := m.store.UpdateIfVersion(ctx, table, id, version, fields)
		if err == nil {
			if attempt > 0 {
				m.log.WithFields(logrus.Fields{"table": table, "id": id, "attempts": attempt + 1, "version": rec.Version}).Info("versioned update succeeded after retry")
			}
			return rec, nil
		}
		if !errors.Is(err, storage.ErrVersionMismatch) {
			return nil, &StoreError{Op: op, Err: MapRepoError(err, op)}
		}

		current, err := m.store.Get(ctx, table, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s %s", ErrNotFound, table, id)
			}
			return nil, &StoreError{Op: op, Err: MapRepoError(err, op)}
		}

		if attempt >= o.maxRetries {
			conflict := &ConflictError{
				Table:           table,
				ID:              id,
				ExpectedVersion: expectedVersion,
				CurrentVersion:  current.Version,
				Attempts:        attempt + 1,
			}
			m.log.WithFields(logrus.Fields{"table": table, "id": id, "attempts": attempt + 1}).Warn(conflict.Error())
			return nil, conflict
		}
		if o.precondition != nil {
			if err := o.precondition(current); err != nil {
				return nil, err
			}
		}

		m.log.WithFields(logrus.Fields{
			"table":   table,
			"id":      id,
			"stale":   version,
			"current": current.Version,
			"attempt": attempt + 1,
		}).Debug("version conflict; retrying")

		if err := m.sleep(ctx, m.backoffStep*time.Duration(attempt+1)); err != nil {
			return nil, err
		}
		version = current.Version
	}
}

// Create inserts a row at version 1. Any caller-supplied version or timestamps are replaced.
func (m *RecordMutator) Create(ctx context.Context, table string, fields map[string]interface{}) (*models.Record, error) {
	if err := validatePatch(table, fields, true); err != nil {
		return nil, err
	}
	now := m.clock.Now()
	row := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		row[k] = v
	}
	if id, ok := row["id"].(uuid.UUID); !ok || id == uuid.Nil {
		row["id"] = uuid.New()
	}
	row["version"] = 1
	row["created_at"] = now
	row["updated_at"] = now

	rec, err := m.store.Insert(ctx, table, row)
	if err != nil {
		op := fmt.Sprintf("create %s", table)
		return nil, &StoreError{Op: op, Err: MapRepoError(err, op)}
	}
	return rec, nil
}

// Delete removes the row while its version equals expectedVersion. A stale version is not
// retried: the other writer's change would be discarded.
func (m *RecordMutator) Delete(ctx context.Context, table string, id uuid.UUID, expectedVersion int) error {
	if err := validatePatch(table, nil, false); err != nil {
		return err
	}
	op := fmt.Sprintf("delete %s", table)

	err := m.store.DeleteIfVersion(ctx, table, id, expectedVersion)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrVersionMismatch) {
		return &StoreError{Op: op, Err: MapRepoError(err, op)}
	}

	current, err := m.store.Get(ctx, table, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", ErrNotFound, table, id)
		}
		return &StoreError{Op: op, Err: MapRepoError(err, op)}
	}
	return &ConflictError{
		Table:           table,
		ID:              id,
		ExpectedVersion: expectedVersion,
		CurrentVersion:  current.Version,
		Attempts:        1,
	}
}
