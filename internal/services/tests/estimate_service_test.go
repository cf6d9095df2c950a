package services_test

import (
	"testing"
	"time"

	"go-shop-api/internal/models"
	"go-shop-api/internal/services"
	"go-shop-api/internal/storage"
	"go-shop-api/internal/transport/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shopInvoice struct {
	id      uuid.UUID
	part    uuid.UUID
	service uuid.UUID
	labor   uuid.UUID
	adHoc   uuid.UUID
}

// seedShopInvoice stores a stocked part (2 x 10), a labor-based service with its 50.00 labor row,
// and an ad-hoc part missing a price. Subtotal 70.00, tax 8%.
func (f *fixture) seedShopInvoice(status models.InvoiceStatus) shopInvoice {
	si := shopInvoice{part: uuid.New(), service: uuid.New(), labor: uuid.New(), adHoc: uuid.New()}
	hours := 1.0
	si.id = f.store.SeedInvoice(models.Invoice{
		ShopID:  f.shopID,
		JobID:   uuid.New(),
		TaxRate: 8,
		Status:  status,
		Items: []models.LineItem{
			{ID: si.part, Name: "Brake pads", Type: models.LineItemTypePart, Quantity: 2, UnitPrice: 10, InventoryItemID: ptrUUID(uuid.New())},
			{ID: si.service, Name: "Brake job", Type: models.LineItemTypeService, Quantity: 1, PricingType: models.PricingTypeLaborBased, LaborHours: &hours},
			{ID: si.labor, Name: "Labor", Type: models.LineItemTypeLabor, Quantity: 1, UnitPrice: 50, LinkedItemID: ptrUUID(si.service)},
			{ID: si.adHoc, Name: "Shop supplies", Type: models.LineItemTypePart, Quantity: 1},
		},
	})
	return si
}

func (f *fixture) lineItem(t *testing.T, id uuid.UUID) *models.LineItem {
	t.Helper()
	li, err := f.store.Invoices().GetLineItem(f.ctx, f.shopID, id)
	require.NoError(t, err)
	return li
}

func TestEstimateService_Send(t *testing.T) {
	t.Run("moves eligible items to pending", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)

		res, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		require.NoError(t, err)

		assert.ElementsMatch(t, []uuid.UUID{si.part, si.service}, res.Sent)
		assert.Equal(t, 2, res.Summary.Pending)
		assert.Equal(t, 0, res.Summary.Approved)

		part := f.lineItem(t, si.part)
		assert.Equal(t, models.EstimateStatusPending, part.Status())
		require.NotNil(t, part.EstimateSentAt)
		assert.Equal(t, t0, *part.EstimateSentAt)
		assert.Equal(t, 2, part.Version)

		assert.Equal(t, models.EstimateStatusNone, f.lineItem(t, si.labor).Status())
		assert.Equal(t, models.EstimateStatusNone, f.lineItem(t, si.adHoc).Status())
	})

	t.Run("sending again leaves items in the flow alone", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)
		req := &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID}

		_, err := f.estimates.SendEstimate(f.ctx, req)
		require.NoError(t, err)
		_, err = f.estimates.ApproveEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: si.part, ShopID: f.shopID})
		require.NoError(t, err)

		f.clock.Advance(time.Hour)
		res, err := f.estimates.SendEstimate(f.ctx, req)
		require.NoError(t, err)

		assert.Empty(t, res.Sent)
		assert.Equal(t, 1, res.Summary.Pending)
		assert.Equal(t, 1, res.Summary.Approved)
		assert.Equal(t, t0, *f.lineItem(t, si.service).EstimateSentAt)
	})

	t.Run("paid invoice", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusPaid)

		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		assert.ErrorIs(t, err, services.ErrInvalidState)
		assert.Equal(t, models.EstimateStatusNone, f.lineItem(t, si.part).Status())
	})

	t.Run("another shop's invoice", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)

		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: uuid.New()})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestEstimateService_Approve(t *testing.T) {
	t.Run("pending item is approved", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)
		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		require.NoError(t, err)
		f.clock.Advance(10 * time.Minute)

		li, err := f.estimates.ApproveEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: si.part, ShopID: f.shopID})
		require.NoError(t, err)

		assert.Equal(t, models.EstimateStatusApproved, li.Status())
		require.NotNil(t, li.EstimateApprovedAt)
		assert.Equal(t, t0.Add(10*time.Minute), *li.EstimateApprovedAt)
		assert.Equal(t, 3, li.Version)
	})

	invalid := []struct {
		name string
		item func(shopInvoice) uuid.UUID
	}{
		{"item never sent", func(si shopInvoice) uuid.UUID { return si.part }},
		{"ad-hoc parts are not estimated", func(si shopInvoice) uuid.UUID { return si.adHoc }},
		{"labor rows are not estimated", func(si shopInvoice) uuid.UUID { return si.labor }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			si := f.seedShopInvoice(models.InvoiceStatusOpen)

			_, err := f.estimates.ApproveEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: tt.item(si), ShopID: f.shopID})
			assert.ErrorIs(t, err, services.ErrInvalidTransition)
		})
	}

	t.Run("approving twice", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)
		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		require.NoError(t, err)
		req := &dto.EstimateItemRequest{ItemID: si.service, ShopID: f.shopID}

		_, err = f.estimates.ApproveEstimateItem(f.ctx, req)
		require.NoError(t, err)
		_, err = f.estimates.ApproveEstimateItem(f.ctx, req)
		assert.ErrorIs(t, err, services.ErrInvalidTransition)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.estimates.ApproveEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: uuid.New(), ShopID: f.shopID})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestEstimateService_ApproveRace(t *testing.T) {
	t.Run("unrelated write is retried", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)
		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		require.NoError(t, err)

		hooked := &hookedInvoices{InvoiceRepository: f.store.Invoices(), afterItem: func() {
			_ = f.store.Bump(storage.TableInvoiceItems, si.part, map[string]interface{}{"name": "Brake pads (front)"})
		}}
		svc := services.NewEstimateService(hooked, f.mutator, f.clock)

		li, err := svc.ApproveEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: si.part, ShopID: f.shopID})
		require.NoError(t, err)

		assert.Equal(t, models.EstimateStatusApproved, li.Status())
		assert.Equal(t, "Brake pads (front)", li.Name)
		assert.Equal(t, 4, li.Version)
		assert.Equal(t, []time.Duration{100 * time.Millisecond}, f.sleeps.Waits())
	})

	t.Run("status moved on underneath", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)
		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		require.NoError(t, err)

		hooked := &hookedInvoices{InvoiceRepository: f.store.Invoices(), afterItem: func() {
			_ = f.store.Bump(storage.TableInvoiceItems, si.part, map[string]interface{}{"estimate_status": "approved"})
		}}
		svc := services.NewEstimateService(hooked, f.mutator, f.clock)

		_, err = svc.ApproveEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: si.part, ShopID: f.shopID})
		assert.ErrorIs(t, err, services.ErrInvalidTransition)
		assert.Empty(t, f.sleeps.Waits())
		assert.Equal(t, 3, f.lineItem(t, si.part).Version)
	})
}

func TestEstimateService_Decline(t *testing.T) {
	t.Run("removes the item and its amount", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)
		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		require.NoError(t, err)

		before, err := f.invoices.GetInvoice(f.ctx, &dto.GetInvoiceRequest{ID: si.id, ShopID: f.shopID})
		require.NoError(t, err)

		err = f.estimates.DeclineEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: si.part, ShopID: f.shopID})
		require.NoError(t, err)

		after, err := f.invoices.GetInvoice(f.ctx, &dto.GetInvoiceRequest{ID: si.id, ShopID: f.shopID})
		require.NoError(t, err)

		assert.Equal(t, -1, after.Invoice.FindItem(si.part))
		assert.Len(t, after.Invoice.Items, 3)
		assert.Equal(t, "70.00", before.Totals.Display().Subtotal)
		assert.Equal(t, "50.00", after.Totals.Display().Subtotal)
		assert.Equal(t, 1, after.Estimate.Pending)
	})

	t.Run("item not pending", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)

		err := f.estimates.DeclineEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: si.part, ShopID: f.shopID})
		assert.ErrorIs(t, err, services.ErrInvalidTransition)
		assert.Equal(t, models.EstimateStatusNone, f.lineItem(t, si.part).Status())
	})

	t.Run("concurrent write wins", func(t *testing.T) {
		f := newFixture(t)
		si := f.seedShopInvoice(models.InvoiceStatusOpen)
		_, err := f.estimates.SendEstimate(f.ctx, &dto.SendEstimateRequest{InvoiceID: si.id, ShopID: f.shopID})
		require.NoError(t, err)

		hooked := &hookedInvoices{InvoiceRepository: f.store.Invoices(), afterItem: func() {
			_ = f.store.Bump(storage.TableInvoiceItems, si.service, map[string]interface{}{"estimate_status": "approved"})
		}}
		svc := services.NewEstimateService(hooked, f.mutator, f.clock)

		err = svc.DeclineEstimateItem(f.ctx, &dto.EstimateItemRequest{ItemID: si.service, ShopID: f.shopID})

		var conflict *services.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 3, conflict.CurrentVersion)
		assert.Equal(t, models.EstimateStatusApproved, f.lineItem(t, si.service).Status())
	})
}
