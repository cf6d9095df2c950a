package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-shop-api/internal/models"
	"go-shop-api/internal/services"
	"go-shop-api/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) seedInvoiceAt(version int) uuid.UUID {
	return f.store.SeedInvoice(models.Invoice{ShopID: f.shopID, JobID: uuid.New(), TaxRate: 8, Version: version})
}

func TestRecordMutator_Update(t *testing.T) {
	t.Run("stale token is retried with the stored version", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(4)

		rec, err := f.mutator.Update(f.ctx, storage.TableInvoices, id, 3, map[string]interface{}{"status": "paid"})
		require.NoError(t, err)

		assert.Equal(t, 5, rec.Version)
		assert.Equal(t, "paid", rec.Fields["status"])
		assert.Equal(t, []time.Duration{100 * time.Millisecond}, f.sleeps.Waits())
	})

	t.Run("current token succeeds without waiting", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(1)
		f.clock.Advance(time.Minute)

		rec, err := f.mutator.Update(f.ctx, storage.TableInvoices, id, 1, map[string]interface{}{"tax_rate": 10.0})
		require.NoError(t, err)

		assert.Equal(t, 2, rec.Version)
		assert.Equal(t, t0.Add(time.Minute), rec.UpdatedAt)
		assert.Empty(t, f.sleeps.Waits())
	})

	t.Run("gives up after the retry budget with a conflict", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(1)
		racing := &racingRecords{RecordStore: f.store.Records(), store: f.store, table: storage.TableInvoices, id: id, rounds: -1}
		m := services.NewRecordMutator(racing, services.WithSleeper(f.sleeps.sleep))

		_, err := m.Update(f.ctx, storage.TableInvoices, id, 1, map[string]interface{}{"status": "paid"})
		require.Error(t, err)

		var conflict *services.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.ErrorIs(t, err, services.ErrConflict)
		assert.Equal(t, services.DefaultMaxRetries+1, conflict.Attempts)
		assert.Equal(t, 1, conflict.ExpectedVersion)
		assert.Equal(t, 5, conflict.CurrentVersion)
		assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, f.sleeps.Waits())
	})

	t.Run("per-call retry budget", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(2)

		_, err := f.mutator.Update(f.ctx, storage.TableInvoices, id, 1, map[string]interface{}{"status": "paid"}, services.WithMaxRetries(0))

		var conflict *services.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 1, conflict.Attempts)
		assert.Equal(t, 2, conflict.CurrentVersion)
		assert.Empty(t, f.sleeps.Waits())
	})

	t.Run("succeeds once the other writer stops", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(1)
		racing := &racingRecords{RecordStore: f.store.Records(), store: f.store, table: storage.TableInvoices, id: id, rounds: 2}
		m := services.NewRecordMutator(racing, services.WithSleeper(f.sleeps.sleep))

		rec, err := m.Update(f.ctx, storage.TableInvoices, id, 1, map[string]interface{}{"status": "paid"})
		require.NoError(t, err)
		assert.Equal(t, 4, rec.Version)
		assert.Len(t, f.sleeps.Waits(), 2)
	})

	t.Run("missing record", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.mutator.Update(f.ctx, storage.TableInvoices, uuid.New(), 1, map[string]interface{}{"status": "paid"})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("precondition stops a retry", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(1)
		require.NoError(t, f.store.Bump(storage.TableInvoices, id, map[string]interface{}{"status": "paid"}))
		stop := errors.New("already paid")

		_, err := f.mutator.Update(f.ctx, storage.TableInvoices, id, 1, map[string]interface{}{"status": "paid"},
			services.WithPrecondition(func(rec *models.Record) error {
				if rec.Fields["status"] == "paid" {
					return stop
				}
				return nil
			}))
		assert.ErrorIs(t, err, stop)
		assert.Empty(t, f.sleeps.Waits())
	})

	t.Run("cancelled context aborts the backoff", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(2)
		m := services.NewRecordMutator(f.store.Records(), services.WithBackoffStep(time.Hour))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Update(ctx, storage.TableInvoices, id, 1, map[string]interface{}{"status": "paid"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRecordMutator_UpdateValidation(t *testing.T) {
	f := newFixture(t)
	id := f.seedInvoiceAt(1)

	tests := []struct {
		name  string
		table string
		patch map[string]interface{}
	}{
		{"unknown table", "users", map[string]interface{}{"name": "x"}},
		{"job parts are not versioned", "job_parts", map[string]interface{}{"quantity": 1}},
		{"version is managed", storage.TableInvoices, map[string]interface{}{"version": 9}},
		{"created_at is managed", storage.TableInvoices, map[string]interface{}{"created_at": t0}},
		{"stock is owned by the trigger", storage.TableInventoryItems, map[string]interface{}{"quantity_on_hand": 100}},
		{"not an identifier", storage.TableInvoices, map[string]interface{}{"status; drop table invoices": "paid"}},
		{"empty patch", storage.TableInvoices, map[string]interface{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.mutator.Update(f.ctx, tt.table, id, 1, tt.patch)

			var vErr *services.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}
}

func TestRecordMutator_ConcurrentWriters(t *testing.T) {
	const writers = 8

	t.Run("only one writer wins a single round", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(1)

		var wg sync.WaitGroup
		results := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.mutator.Update(f.ctx, storage.TableInvoices, id, 1, map[string]interface{}{"tax_rate": 9.0}, services.WithMaxRetries(0))
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		ok, conflicts := 0, 0
		for err := range results {
			if err == nil {
				ok++
			} else if errors.Is(err, services.ErrConflict) {
				conflicts++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, writers-1, conflicts)

		rec, err := f.store.Records().Get(f.ctx, storage.TableInvoices, id)
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Version)
	})

	t.Run("every writer lands with enough retries", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(1)

		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.mutator.Update(f.ctx, storage.TableInvoices, id, 1, map[string]interface{}{"tax_rate": 9.0}, services.WithMaxRetries(writers))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		rec, err := f.store.Records().Get(f.ctx, storage.TableInvoices, id)
		require.NoError(t, err)
		assert.Equal(t, 1+writers, rec.Version)
	})
}

func TestRecordMutator_Create(t *testing.T) {
	f := newFixture(t)

	rec, err := f.mutator.Create(f.ctx, storage.TableJobs, map[string]interface{}{
		"shop_id": f.shopID,
		"title":   "Brake service",
		"version": 7,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Version)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, t0, rec.UpdatedAt)
	assert.Equal(t, "Brake service", rec.Fields["title"])

	_, err = f.mutator.Create(f.ctx, "job_parts", map[string]interface{}{"quantity": 1})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestRecordMutator_Delete(t *testing.T) {
	t.Run("matching version deletes", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(3)

		require.NoError(t, f.mutator.Delete(f.ctx, storage.TableInvoices, id, 3))

		_, err := f.store.Records().Get(f.ctx, storage.TableInvoices, id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("stale version is a conflict and keeps the row", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedInvoiceAt(2)

		err := f.mutator.Delete(f.ctx, storage.TableInvoices, id, 1)

		var conflict *services.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 2, conflict.CurrentVersion)
		assert.Equal(t, 1, conflict.Attempts)
		assert.Empty(t, f.sleeps.Waits())

		_, err = f.store.Records().Get(f.ctx, storage.TableInvoices, id)
		assert.NoError(t, err)
	})

	t.Run("missing row", func(t *testing.T) {
		f := newFixture(t)

		err := f.mutator.Delete(f.ctx, storage.TableInvoices, uuid.New(), 1)
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}
