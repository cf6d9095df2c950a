package services_test

import (
	"testing"
	"time"

	"go-shop-api/internal/models"
	"go-shop-api/internal/services"
	"go-shop-api/internal/transport/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_GetInvoice(t *testing.T) {
	t.Run("totals follow the labor rules", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)

		res, err := f.invoices.GetInvoice(f.ctx, &dto.GetInvoiceRequest{ID: si.id, ShopID: f.shopID})
		require.NoError(t, err)

		got := res.Totals.Display()
		assert.Equal(t, "70.00", got.Subtotal)
		assert.Equal(t, "5.60", got.Tax)
		assert.Equal(t, "0.00", got.Discount)
		assert.Equal(t, "75.60", got.Total)
		assert.Equal(t, "0.00", got.PendingEstimate)
		require.Len(t, res.Invoice.Items, 4)
		assert.Equal(t, si.part, res.Invoice.Items[0].ID)
	})

	t.Run("pending items can be left out", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)
		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		require.NoError(t, err)
		_, err = f.estimates.ApproveEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: si.part, ShopID: f.shopID})
		require.NoError(t, err)

		all, err := f.invoices.GetInvoice(f.ctx, &dto.GetInvoiceRequest{ID: si.id, ShopID: f.shopID})
		require.NoError(t, err)
		approvedOnly, err := f.invoices.GetInvoice(f.ctx, &dto.GetInvoiceRequest{ID: si.id, ShopID: f.shopID, ExcludePending: true})
		require.NoError(t, err)

		assert.Equal(t, "70.00", all.Totals.Display().Subtotal)
		assert.Equal(t, "20.00", approvedOnly.Totals.Display().Subtotal)
		assert.Equal(t, "50.00", approvedOnly.Totals.Display().PendingEstimate)
		assert.Equal(t, 1, approvedOnly.Estimate.Pending)
		assert.Equal(t, 1, approvedOnly.Estimate.Approved)
	})

	t.Run("another shop's invoice", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)

		_, err := f.invoices.GetInvoice(f.ctx, &dto.GetInvoiceRequest{ID: si.id, ShopID: uuid.New()})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestInvoiceService_UpdateInvoiceStatus(t *testing.T) {
	tests := []struct {
		name            string
		seedStatus      models.InvoiceStatus
		seedVersion     int
		expectedVersion int
		next            models.InvoiceStatus
		wantErr         error
		wantVersion     int
		wantWaits       int
	}{
		{
			name:            "current version",
			seedStatus:      models.InvoiceStatusOpen,
			seedVersion:     4,
			expectedVersion: 4,
			next:            models.InvoiceStatusPaid,
			wantVersion:     5,
		},
		{
			name:            "stale version retries once",
			seedStatus:      models.InvoiceStatusOpen,
			seedVersion:     4,
			expectedVersion: 3,
			next:            models.InvoiceStatusPaid,
			wantVersion:     5,
			wantWaits:       1,
		},
		{
			name:        "no version uses the stored one",
			seedStatus:  models.InvoiceStatusOpen,
			seedVersion: 2,
			next:        models.InvoiceStatusPaid,
			wantVersion: 3,
		},
		{
			name:            "paid invoices stay paid",
			seedStatus:      models.InvoiceStatusPaid,
			seedVersion:     2,
			expectedVersion: 2,
			next:            models.InvoiceStatusOpen,
			wantErr:         services.ErrInvalidTransition,
		},
		{
			name:            "open to open",
			seedStatus:      models.InvoiceStatusOpen,
			seedVersion:     1,
			expectedVersion: 1,
			next:            models.InvoiceStatusOpen,
			wantErr:         services.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.store.SeedInvoice(models.Invoice{ShopID: f.shopID, JobID: uuid.New(), Status: tt.seedStatus, Version: tt.seedVersion})
			f.clock.Advance(time.Minute)

			inv, err := f.invoices.UpdateInvoiceStatus(f.ctx, &dto.UpdateInvoiceStatusRequest{
				ID:              id,
				Status:          tt.next,
				ExpectedVersion: tt.expectedVersion,
				ShopID:          f.shopID,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, inv.Status)
			assert.Equal(t, tt.wantVersion, inv.Version)
			assert.Equal(t, t0.Add(time.Minute), inv.UpdatedAt)
			assert.Len(t, f.sleeps.Waits(), tt.wantWaits)
		})
	}

	t.Run("paid by someone else meanwhile", func(t *testing.T) {
		f := newFixture(t)
		id := f.store.SeedInvoice(models.Invoice{ShopID: f.shopID, JobID: uuid.New()})
		require.NoError(t, f.store.Bump("invoices", id, map[string]interface{}{"status": "paid"}))

		_, err := f.invoices.UpdateInvoiceStatus(f.ctx, &dto.UpdateInvoiceStatusRequest{
			ID: id, Status: models.InvoiceStatusPaid, ExpectedVersion: 1, ShopID: f.shopID,
		})
		assert.ErrorIs(t, err, services.ErrInvalidTransition)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.invoices.UpdateInvoiceStatus(f.ctx, &dto.UpdateInvoiceStatusRequest{
			ID: uuid.New(), Status: models.InvoiceStatusPaid, ShopID: f.shopID,
		})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}
