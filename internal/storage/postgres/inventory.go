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

type InventoryRepo struct {
	db Querier
}

func NewInventoryRepo(db *pgxpool.Pool) *InventoryRepo {
	return &InventoryRepo{db: db}
}

func (r *InventoryRepo) WithTx(tx pgx.Tx) storage.InventoryRepository {
	return &InventoryRepo{db: tx}
}

var _ storage.InventoryRepository = (*InventoryRepo)(nil)

func (r *InventoryRepo) GetStock(ctx context.Context, shopID uuid.UUID, source models.ItemSource, itemID uuid.UUID) (*models.InventoryItem, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("unknown item source %q: %w", source, storage.ErrUnknownTable)
	}
	// The table name comes from a closed set, never from input.
	query := `SELECT id, shop_id, name, quantity_on_hand, version, updated_at FROM ` + source.Table() +
		` WHERE id = $1 AND shop_id = $2`

	item := &models.InventoryItem{Source: source}
	err := r.db.QueryRow(ctx, query, itemID, shopID).Scan(
		&item.ID, &item.ShopID, &item.Name, &item.QuantityOnHand, &item.Version, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		logger.Get().Errorf("Error reading stock for %s item %s: %v", source, itemID, err)
		return nil, fmt.Errorf("failed to read stock for item %s: %w", itemID, err)
	}
	return item, nil
}
