package postgres

import (
	"context"
	"errors"
	"fmt"

	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InvoiceRepo struct {
	db Querier
}

func NewInvoiceRepo(db *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

func (r *InvoiceRepo) WithTx(tx pgx.Tx) storage.InvoiceRepository {
	return &InvoiceRepo{db: tx}
}

var _ storage.InvoiceRepository = (*InvoiceRepo)(nil)

const lineItemColumns = `ii.id, ii.invoice_id, ii.position, ii.name, ii.type, ii.quantity, ii.unit_price, ii.cost_price,
	ii.pricing_type, ii.linked_item_id, ii.group_name, ii.labor_hours, ii.labor_rate_name, ii.inventory_item_id,
	ii.estimate_status, ii.estimate_sent_at, ii.estimate_approved_at, ii.version, ii.created_at, ii.updated_at`

func scanLineItem(row pgx.Row) (*models.LineItem, error) {
	var li models.LineItem
	err := row.Scan(
		&li.ID, &li.InvoiceID, &li.Position, &li.Name, &li.Type, &li.Quantity, &li.UnitPrice, &li.CostPrice,
		&li.PricingType, &li.LinkedItemID, &li.GroupName, &li.LaborHours, &li.LaborRateName, &li.InventoryItemID,
		&li.EstimateStatus, &li.EstimateSentAt, &li.EstimateApprovedAt, &li.Version, &li.CreatedAt, &li.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// GetByID loads the invoice and its items ordered by position.
func (r *InvoiceRepo) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error) {
	query := `
		SELECT id, shop_id, job_id, tax_rate, discount_rate, status, version, created_at, updated_at
		FROM invoices
		WHERE id = $1 AND shop_id = $2`

	inv := &models.Invoice{}
	err := r.db.QueryRow(ctx, query, id, shopID).Scan(
		&inv.ID, &inv.ShopID, &inv.JobID, &inv.TaxRate, &inv.DiscountRate,
		&inv.Status, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Get().Debugf("Invoice not found with ID: %s", id)
			return nil, storage.ErrNotFound
		}
		logger.Get().Errorf("Error retrieving invoice by ID %s: %v", id, err)
		return nil, fmt.Errorf("failed to get invoice by ID %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+lineItemColumns+` FROM invoice_items ii WHERE ii.invoice_id = $1 ORDER BY ii.position, ii.created_at`, id)
	if err != nil {
		logger.Get().Errorf("Error querying items of invoice %s: %v", id, err)
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer rows.Close()

	inv.Items = []models.LineItem{}
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, *li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice items: %w", err)
	}
	return inv, nil
}

// GetLineItem loads a single item, scoped to the shop through its invoice.
func (r *InvoiceRepo) GetLineItem(ctx context.Context, shopID, id uuid.UUID) (*models.LineItem, error) {
	query := `SELECT ` + lineItemColumns + `
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE ii.id = $1 AND i.shop_id = $2`

	li, err := scanLineItem(r.db.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		logger.Get().Errorf("Error retrieving invoice item %s: %v", id, err)
		return nil, fmt.Errorf("failed to get invoice item %s: %w", id, err)
	}
	return li, nil
}
