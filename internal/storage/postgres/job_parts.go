package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobPartRepo struct {
	db Querier
}

func NewJobPartRepo(db *pgxpool.Pool) *JobPartRepo {
	return &JobPartRepo{db: db}
}

func (r *JobPartRepo) WithTx(tx pgx.Tx) storage.JobPartRepository {
	return &JobPartRepo{db: tx}
}

var _ storage.JobPartRepository = (*JobPartRepo)(nil)

const jobPartColumns = `id, shop_id, job_id, inventory_item_id, folder_item_id, quantity, name, unit_price, cost_price, deducted, created_at`

func scanJobPart(row pgx.Row) (*models.JobPartLink, error) {
	var l models.JobPartLink
	err := row.Scan(
		&l.ID, &l.ShopID, &l.JobID, &l.InventoryItemID, &l.FolderItemID,
		&l.Quantity, &l.Name, &l.UnitPrice, &l.CostPrice, &l.Deducted, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts the link. The BEFORE INSERT trigger performs the stock deduction and sets deducted.
func (r *JobPartRepo) Create(ctx context.Context, link *models.JobPartLink) (*models.JobPartLink, error) {
	query := `
		INSERT INTO job_parts (shop_id, job_id, inventory_item_id, folder_item_id, quantity, name, unit_price, cost_price, deducted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
		RETURNING ` + jobPartColumns

	created, err := scanJobPart(r.db.QueryRow(ctx, query,
		link.ShopID, link.JobID, link.InventoryItemID, link.FolderItemID,
		link.Quantity, link.Name, link.UnitPrice, link.CostPrice,
	))
	if err != nil {
		mapped := mapPgError(err)
		logger.Get().Errorf("Error creating job part for job %s: %v", link.JobID, mapped)
		return nil, mapped
	}

	logger.Get().Infof("Job part created successfully with ID: %s (job %s, qty %d, deducted %t)",
		created.ID, created.JobID, created.Quantity, created.Deducted)
	return created, nil
}

func (r *JobPartRepo) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.JobPartLink, error) {
	query := `SELECT ` + jobPartColumns + ` FROM job_parts WHERE id = $1 AND shop_id = $2`

	link, err := scanJobPart(r.db.QueryRow(ctx, query, id, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		logger.Get().Errorf("Error retrieving job part %s: %v", id, err)
		return nil, fmt.Errorf("failed to get job part %s: %w", id, err)
	}
	return link, nil
}

// FindRecent matches the item against either stock reference.
func (r *JobPartRepo) FindRecent(ctx context.Context, key storage.JobPartKey, since time.Time) (*models.JobPartLink, error) {
	itemID := key.ItemID.String()
	query, args, err := dialect.From("job_parts").
		Select(goqu.L(jobPartColumns)).
		Where(
			goqu.C("job_id").Eq(key.JobID.String()),
			goqu.C("quantity").Eq(key.Quantity),
			goqu.C("created_at").Gte(since),
			goqu.Or(
				goqu.C("inventory_item_id").Eq(itemID),
				goqu.C("folder_item_id").Eq(itemID),
			),
		).
		Order(goqu.C("created_at").Desc()).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent job part query: %w", err)
	}

	link, err := scanJobPart(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		logger.Get().Errorf("Error querying recent job parts for job %s: %v", key.JobID, err)
		return nil, fmt.Errorf("failed to query recent job parts: %w", err)
	}
	return link, nil
}

func (r *JobPartRepo) ListByJob(ctx context.Context, shopID, jobID uuid.UUID) ([]models.JobPartLink, error) {
	query := `SELECT ` + jobPartColumns + ` FROM job_parts WHERE shop_id = $1 AND job_id = $2 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, shopID, jobID)
	if err != nil {
		logger.Get().Errorf("Error querying job parts for job %s: %v", jobID, err)
		return nil, fmt.Errorf("failed to query job parts: %w", err)
	}
	defer rows.Close()

	links := []models.JobPartLink{}
	for rows.Next() {
		link, err := scanJobPart(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job part: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job parts: %w", err)
	}
	return links, nil
}

// Delete removes the link. The AFTER DELETE trigger returns deducted stock.
func (r *JobPartRepo) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM job_parts WHERE id = $1 AND shop_id = $2`, id, shopID)
	if err != nil {
		logger.Get().Errorf("Error deleting job part %s: %v", id, err)
		return mapPgError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	logger.Get().Infof("Job part deleted successfully: %s", id)
	return nil
}
