package services

import (
	"context"
	"errors"
	"fmt"

	"go-shop-api/internal/clock"
	"go-shop-api/internal/dedup"
	"go-shop-api/internal/events"
	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"
	"go-shop-api/internal/transport/dto"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type inventoryService struct {
	jobParts  storage.JobPartRepository
	inventory storage.InventoryRepository
	guard     *dedup.Guard
	publisher events.Publisher
	clock     clock.Clock
	log       *logrus.Logger
}

func NewInventoryService(jobParts storage.JobPartRepository, inventory storage.InventoryRepository, guard *dedup.Guard, publisher events.Publisher, clk clock.Clock) InventoryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &inventoryService{
		jobParts:  jobParts,
		inventory: inventory,
		guard:     guard,
		publisher: publisher,
		clock:     clk,
		log:       logger.Get(),
	}
}

func validateAttach(req *dto.AttachInventoryRequest) error {
	switch {
	case req.ShopID == uuid.Nil:
		return &ValidationError{Field: "shop_id", Message: "is required"}
	case req.JobID == uuid.Nil:
		return &ValidationError{Field: "job_id", Message: "is required"}
	case req.ItemID == uuid.Nil:
		return &ValidationError{Field: "item_id", Message: "is required"}
	case req.Quantity <= 0:
		return &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	case !req.Source.Valid():
		return &ValidationError{Field: "source", Message: fmt.Sprintf("unknown source %q", req.Source)}
	case req.Details.UnitPrice < 0:
		return &ValidationError{Field: "details.unit_price", Message: "must not be negative"}
	}
	return nil
}

// AttachInventoryToJob records that a stocked part is used on a job. The stock itself is
// decremented by the database when the job part row is inserted.
func (s *inventoryService) AttachInventoryToJob(ctx context.Context, req *dto.AttachInventoryRequest) (*AttachResult, error) {
	if err := validateAttach(req); err != nil {
		return nil, err
	}

	key := dedup.Key{JobID: req.JobID, ItemID: req.ItemID, Quantity: req.Quantity}
	decision, err := s.guard.Admit(ctx, key)
	if err != nil {
		logger.LogError("inventory_service.go", "AttachInventoryToJob", "duplicate check", key.String(), err)
		return nil, &StoreError{Op: "duplicate check", Err: MapRepoError(err, "duplicate check")}
	}
	if decision.Suppressed {
		s.log.WithFields(logrus.Fields{
			"job_id":   req.JobID,
			"item_id":  req.ItemID,
			"quantity": req.Quantity,
			"layer":    decision.Layer,
		}).Info("duplicate attach suppressed")
		return &AttachResult{Suppressed: true, Layer: decision.Layer, Link: decision.Existing}, nil
	}

	created, err := s.attach(ctx, req)
	if err != nil {
		s.guard.Finish(ctx, key, attachOutcome(err))
		return nil, err
	}
	s.guard.Finish(ctx, key, dedup.OutcomeCreated)

	s.notify(ctx, created, events.DirectionDeduct)
	return &AttachResult{Link: created}, nil
}

// attachOutcome tells the guard whether a failed attach may have written a row.
func attachOutcome(err error) dedup.Outcome {
	var storeErr *StoreError
	if errors.As(err, &storeErr) && !errors.Is(err, ErrInsufficientStock) && !errors.Is(err, ErrConflict) {
		return dedup.OutcomeCreated
	}
	return dedup.OutcomeNotCreated
}

func (s *inventoryService) attach(ctx context.Context, req *dto.AttachInventoryRequest) (*models.JobPartLink, error) {
	stock, err := s.inventory.GetStock(ctx, req.ShopID, req.Source, req.ItemID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s item %s", ErrNotFound, req.Source, req.ItemID)
		}
		return nil, MapRepoError(err, "reading stock")
	}

	// Fast fail only; the trigger has the final word.
	if stock.QuantityOnHand < req.Quantity {
		return nil, &InsufficientStockError{
			ItemID:    req.ItemID,
			ItemName:  stock.Name,
			Available: stock.QuantityOnHand,
			Requested: req.Quantity,
		}
	}

	link := &models.JobPartLink{
		ShopID:    req.ShopID,
		JobID:     req.JobID,
		Quantity:  req.Quantity,
		Name:      req.Details.Name,
		UnitPrice: req.Details.UnitPrice,
		CostPrice: req.Details.CostPrice,
	}
	if link.Name == "" {
		link.Name = stock.Name
	}
	itemID := req.ItemID
	if req.Source == models.ItemSourceFolder {
		link.FolderItemID = &itemID
	} else {
		link.InventoryItemID = &itemID
	}

	created, err := s.jobParts.Create(ctx, link)
	if err != nil {
		var rejection *storage.StockRejection
		if errors.As(err, &rejection) {
			s.log.WithFields(logrus.Fields{
				"item_id":   req.ItemID,
				"available": rejection.Available,
				"requested": rejection.Requested,
			}).Warn("job part rejected by stock trigger")
			return nil, &StoreError{Op: "insert job part", Err: &InsufficientStockError{
				ItemID:    req.ItemID,
				ItemName:  stock.Name,
				Available: rejection.Available,
				Requested: rejection.Requested,
				AtCommit:  true,
			}}
		}
		logger.LogError("inventory_service.go", "attach", "insert job part", req, err)
		return nil, &StoreError{Op: "insert job part", Err: MapRepoError(err, "insert job part")}
	}
	return created, nil
}

// DetachJobPart deletes the job part. Returning stock is the database's job.
func (s *inventoryService) DetachJobPart(ctx context.Context, req *dto.DetachJobPartRequest) error {
	if req.ID == uuid.Nil {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	link, err := s.jobParts.GetByID(ctx, req.ShopID, req.ID)
	if err != nil {
		return MapRepoError(err, "fetching job part")
	}
	if err := s.jobParts.Delete(ctx, req.ShopID, req.ID); err != nil {
		return MapRepoError(err, "deleting job part")
	}

	itemID, _ := link.ItemID()
	s.guard.Forget(dedup.Key{JobID: link.JobID, ItemID: itemID, Quantity: link.Quantity})

	s.notify(ctx, link, events.DirectionReturn)
	return nil
}

func (s *inventoryService) ListJobParts(ctx context.Context, req *dto.ListJobPartsRequest) ([]models.JobPartLink, error) {
	links, err := s.jobParts.ListByJob(ctx, req.ShopID, req.JobID)
	if err != nil {
		return nil, MapRepoError(err, "listing job parts")
	}
	return links, nil
}

// notify publishes the change; a failed publish is logged and never fails the attach.
func (s *inventoryService) notify(ctx context.Context, link *models.JobPartLink, direction events.Direction) {
	itemID, _ := link.ItemID()
	change := events.StockChange{
		ShopID:     link.ShopID,
		ItemID:     itemID,
		JobID:      link.JobID,
		JobPartID:  link.ID,
		Quantity:   link.Quantity,
		Direction:  direction,
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		logger.LogError("inventory_service.go", "notify", "publish stock change", change, err)
	}
}
