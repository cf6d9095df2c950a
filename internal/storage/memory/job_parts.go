package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"

	"github.com/google/uuid"
)

// JobPartRepo is the storage.JobPartRepository view of a Store.
type JobPartRepo struct {
	s *Store
}

var _ storage.JobPartRepository = (*JobPartRepo)(nil)

// Create applies the same checks as the BEFORE INSERT trigger: compare, decrement, mark deducted.
func (r *JobPartRepo) Create(ctx context.Context, link *models.JobPartLink) (*models.JobPartLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	itemID, source := link.ItemID()
	if source != "" {
		stock, ok := r.s.table(source.Table())[itemID]
		if !ok || stock["shop_id"] != link.ShopID {
			return nil, fmt.Errorf("job_parts_%s_fkey: %w", source, storage.ErrConflict)
		}
		available := asInt(stock["quantity_on_hand"])
		if available < link.Quantity {
			return nil, &storage.StockRejection{Available: available, Requested: link.Quantity}
		}
		stock["quantity_on_hand"] = available - link.Quantity
	}

	created := *link
	created.ID = uuid.New()
	created.CreatedAt = r.s.clock.Now()
	created.Deducted = source != ""
	r.s.table(tableJobParts)[created.ID] = jobPartRow(&created)
	return &created, nil
}

func (r *JobPartRepo) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.JobPartLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found, ok := r.s.table(tableJobParts)[id]
	if !ok || found["shop_id"] != shopID {
		return nil, storage.ErrNotFound
	}
	return jobPartFromRow(found), nil
}

func (r *JobPartRepo) FindRecent(ctx context.Context, key storage.JobPartKey, since time.Time) (*models.JobPartLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var newest *models.JobPartLink
	for _, found := range r.s.table(tableJobParts) {
		l := jobPartFromRow(found)
		itemID, _ := l.ItemID()
		if l.JobID != key.JobID || itemID != key.ItemID || l.Quantity != key.Quantity {
			continue
		}
		if l.CreatedAt.Before(since) {
			continue
		}
		if newest == nil || l.CreatedAt.After(newest.CreatedAt) {
			newest = l
		}
	}
	if newest == nil {
		return nil, storage.ErrNotFound
	}
	return newest, nil
}

func (r *JobPartRepo) ListByJob(ctx context.Context, shopID, jobID uuid.UUID) ([]models.JobPartLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	links := []models.JobPartLink{}
	for _, found := range r.s.table(tableJobParts) {
		l := jobPartFromRow(found)
		if l.ShopID == shopID && l.JobID == jobID {
			links = append(links, *l)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].CreatedAt.Before(links[j].CreatedAt) })
	return links, nil
}

// Delete removes the link and, like the AFTER DELETE trigger, returns stock that was deducted.
func (r *JobPartRepo) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := r.s.table(tableJobParts)
	found, ok := t[id]
	if !ok || found["shop_id"] != shopID {
		return storage.ErrNotFound
	}
	l := jobPartFromRow(found)
	delete(t, id)

	if l.Deducted {
		itemID, source := l.ItemID()
		if stock, ok := r.s.table(source.Table())[itemID]; ok {
			stock["quantity_on_hand"] = asInt(stock["quantity_on_hand"]) + l.Quantity
		}
	}
	return nil
}
