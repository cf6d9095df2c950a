package storage

import (
	"context"
	"time"

	"go-shop-api/internal/models"

	"github.com/google/uuid"
)

// RecordStore is the versioned-row contract the record mutator is built on.
type RecordStore interface {
	Get(ctx context.Context, table string, id uuid.UUID) (*models.Record, error)
	// Insert stores a new row; fields must already carry version and timestamps.
	Insert(ctx context.Context, table string, fields map[string]interface{}) (*models.Record, error)
	// UpdateIfVersion applies fields to the row only while its version equals expectedVersion.
	// A zero-row match returns ErrVersionMismatch.
	UpdateIfVersion(ctx context.Context, table string, id uuid.UUID, expectedVersion int, fields map[string]interface{}) (*models.Record, error)
	// DeleteIfVersion removes the row only while its version equals expectedVersion.
	DeleteIfVersion(ctx context.Context, table string, id uuid.UUID, expectedVersion int) error
}

// JobPartKey identifies one "attach part to job" intent.
type JobPartKey struct {
	JobID    uuid.UUID
	ItemID   uuid.UUID
	Quantity int
}

// JobPartRepository defines the job_parts operations. Inserting and deleting rows fires the stock trigger.
type JobPartRepository interface {
	// Create inserts the link. A trigger rejection is returned as *StockRejection.
	Create(ctx context.Context, link *models.JobPartLink) (*models.JobPartLink, error)
	GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.JobPartLink, error)
	// FindRecent returns the newest link matching key created at or after since, or ErrNotFound.
	FindRecent(ctx context.Context, key JobPartKey, since time.Time) (*models.JobPartLink, error)
	ListByJob(ctx context.Context, shopID, jobID uuid.UUID) ([]models.JobPartLink, error)
	Delete(ctx context.Context, shopID, id uuid.UUID) error
}

// InventoryRepository reads stock levels. It never writes quantity_on_hand.
type InventoryRepository interface {
	GetStock(ctx context.Context, shopID uuid.UUID, source models.ItemSource, itemID uuid.UUID) (*models.InventoryItem, error)
}

// InvoiceRepository reads invoices with their ordered line items.
type InvoiceRepository interface {
	GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error)
	GetLineItem(ctx context.Context, shopID, id uuid.UUID) (*models.LineItem, error)
}

// Versioned tables open to the record mutator.
const (
	TableInvoices       = "invoices"
	TableInvoiceItems   = "invoice_items"
	TableJobs           = "jobs"
	TableInventoryItems = "inventory_items"
	TableFolderItems    = "folder_items"
)

var versionedTables = map[string]bool{
	TableInvoices:       true,
	TableInvoiceItems:   true,
	TableJobs:           true,
	TableInventoryItems: true,
	TableFolderItems:    true,
}

// IsVersionedTable reports whether table may be written through RecordStore.
func IsVersionedTable(table string) bool {
	return versionedTables[table]
}

// Columns a caller patch may never set. quantity_on_hand belongs to the stock trigger.
var protectedColumns = map[string]bool{
	"id":               true,
	"version":          true,
	"created_at":       true,
	"updated_at":       true,
	"quantity_on_hand": true,
}

// IsProtectedColumn reports whether col is managed by the store rather than by callers.
func IsProtectedColumn(col string) bool {
	return protectedColumns[col]
}

// IsColumnName reports whether col is a plain lower-case SQL identifier.
func IsColumnName(col string) bool {
	if col == "" || len(col) > 63 {
		return false
	}
	for i, r := range col {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
