package memory

import (
	"context"
	"fmt"
	"sort"

	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/google/uuid"
)

// InventoryRepo is the storage.InventoryRepository view of a Store.
type InventoryRepo struct {
	s *Store
}

var _ storage.InventoryRepository = (*InventoryRepo)(nil)

func (r *InventoryRepo) GetStock(ctx context.Context, shopID uuid.UUID, source models.ItemSource, itemID uuid.UUID) (*models.InventoryItem, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("unknown item source %q: %w", source, storage.ErrUnknownTable)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found, ok := r.s.table(source.Table())[itemID]
	if !ok || found["shop_id"] != shopID {
		return nil, storage.ErrNotFound
	}
	item := &models.InventoryItem{
		ID:             itemID,
		ShopID:         shopID,
		Name:           asString(found["name"]),
		QuantityOnHand: asInt(found["quantity_on_hand"]),
		Source:         source,
		Version:        asInt(found["version"]),
	}
	item.UpdatedAt, _ = asTime(found["updated_at"])
	return item, nil
}

// InvoiceRepo is the storage.InvoiceRepository view of a Store.
type InvoiceRepo struct {
	s *Store
}

var _ storage.InvoiceRepository = (*InvoiceRepo)(nil)

func (r *InvoiceRepo) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found, ok := r.s.table(storage.TableInvoices)[id]
	if !ok || found["shop_id"] != shopID {
		return nil, storage.ErrNotFound
	}
	inv := invoiceFromRow(found)
	inv.Items = []models.LineItem{}
	for _, ir := range r.s.table(storage.TableInvoiceItems) {
		if ir["invoice_id"] == id {
			inv.Items = append(inv.Items, *lineItemFromRow(ir))
		}
	}
	sort.SliceStable(inv.Items, func(i, j int) bool {
		if inv.Items[i].Position != inv.Items[j].Position {
			return inv.Items[i].Position < inv.Items[j].Position
		}
		return inv.Items[i].CreatedAt.Before(inv.Items[j].CreatedAt)
	})
	return inv, nil
}

func (r *InvoiceRepo) GetLineItem(ctx context.Context, shopID, id uuid.UUID) (*models.LineItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found, ok := r.s.table(storage.TableInvoiceItems)[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	li := lineItemFromRow(found)
	inv, ok := r.s.table(storage.TableInvoices)[li.InvoiceID]
	if !ok || inv["shop_id"] != shopID {
		return nil, storage.ErrNotFound
	}
	return li, nil
}
