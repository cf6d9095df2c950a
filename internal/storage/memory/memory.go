// Package memory is an in-process store used by service tests and local runs.
// It mirrors the Postgres schema closely enough to exercise the same contracts,
// including the job_parts stock trigger.
package memory

import (
	"sync"

	"go-shop-api/internal/clock"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/google/uuid"
)

type row map[string]interface{}

// Store keeps every table as id -> row, keyed by the SQL column names.
type Store struct {
	mu     sync.Mutex
	clock  clock.Clock
	tables map[string]map[uuid.UUID]row
}

type Option func(*Store)

// WithClock sets the clock used for created_at stamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(opts ...Option) *Store {
	s := &Store{
		clock:  clock.Real(),
		tables: map[string]map[uuid.UUID]row{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Records returns the versioned-row view of the store.
func (s *Store) Records() *RecordRepo { return &RecordRepo{s: s} }

// JobParts returns the job_parts view of the store.
func (s *Store) JobParts() *JobPartRepo { return &JobPartRepo{s: s} }

// Inventory returns the stock view of the store.
func (s *Store) Inventory() *InventoryRepo { return &InventoryRepo{s: s} }

// Invoices returns the invoice view of the store.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s: s} }

const tableJobParts = "job_parts"

func (s *Store) table(name string) map[uuid.UUID]row {
	t, ok := s.tables[name]
	if !ok {
		t = map[uuid.UUID]row{}
		s.tables[name] = t
	}
	return t
}

func copyRow(r row) row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func toRecord(table string, r row) *models.Record {
	rec := &models.Record{
		Table:   table,
		ID:      r["id"].(uuid.UUID),
		Version: asInt(r["version"]),
		Fields:  map[string]interface{}{},
	}
	if t, ok := asTime(r["updated_at"]); ok {
		rec.UpdatedAt = t
	}
	for k, v := range r {
		switch k {
		case "id", "version", "updated_at":
			continue
		}
		rec.Fields[k] = v
	}
	return rec
}

// --- seeding ---

// SeedInventory stores a stock row in the table matching item.Source and returns its id.
func (s *Store) SeedInventory(item models.InventoryItem) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Source == "" {
		item.Source = models.ItemSourceInventory
	}
	if item.Version == 0 {
		item.Version = 1
	}
	now := s.clock.Now()
	s.table(item.Source.Table())[item.ID] = row{
		"id":               item.ID,
		"shop_id":          item.ShopID,
		"name":             item.Name,
		"quantity_on_hand": item.QuantityOnHand,
		"version":          item.Version,
		"created_at":       now,
		"updated_at":       now,
	}
	return item.ID
}

// SeedInvoice stores the invoice and its items; items without a position are numbered in slice order.
func (s *Store) SeedInvoice(inv models.Invoice) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceStatusOpen
	}
	if inv.Version == 0 {
		inv.Version = 1
	}
	now := s.clock.Now()
	s.table(storage.TableInvoices)[inv.ID] = row{
		"id":            inv.ID,
		"shop_id":       inv.ShopID,
		"job_id":        inv.JobID,
		"tax_rate":      inv.TaxRate,
		"discount_rate": inv.DiscountRate,
		"status":        string(inv.Status),
		"version":       inv.Version,
		"created_at":    now,
		"updated_at":    now,
	}
	for i := range inv.Items {
		li := inv.Items[i]
		if li.ID == uuid.Nil {
			li.ID = uuid.New()
		}
		li.InvoiceID = inv.ID
		if li.Position == 0 {
			li.Position = i + 1
		}
		if li.Version == 0 {
			li.Version = 1
		}
		if li.CreatedAt.IsZero() {
			li.CreatedAt = now
		}
		s.table(storage.TableInvoiceItems)[li.ID] = lineItemRow(&li)
	}
	return inv.ID
}

// SeedJobPart stores a link as-is, without running the stock trigger.
func (s *Store) SeedJobPart(link models.JobPartLink) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = s.clock.Now()
	}
	s.table(tableJobParts)[link.ID] = jobPartRow(&link)
	return link.ID
}

// Bump simulates a write by another actor: it applies fields and increments the version.
func (s *Store) Bump(table string, id uuid.UUID, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.table(table)[id]
	if !ok {
		return storage.ErrNotFound
	}
	for k, v := range fields {
		r[k] = v
	}
	r["version"] = asInt(r["version"]) + 1
	r["updated_at"] = s.clock.Now()
	return nil
}

// Remove deletes a row regardless of version.
func (s *Store) Remove(table string, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.table(table), id)
}

// Quantity returns the quantity_on_hand of a stock row, or -1 when it does not exist.
func (s *Store) Quantity(source models.ItemSource, id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.table(source.Table())[id]
	if !ok {
		return -1
	}
	return asInt(r["quantity_on_hand"])
}

// Count returns the number of rows in table.
func (s *Store) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table(table))
}
