package services

import (
	"context"
	"errors"
	"fmt"

	"go-shop-api/internal/clock"
	"go-shop-api/internal/estimate"
	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"
	"go-shop-api/internal/transport/dto"

	"github.com/sirupsen/logrus"
)

type estimateService struct {
	invoices storage.InvoiceRepository
	mutator  *RecordMutator
	clock    clock.Clock
	log      *logrus.Logger
}

func NewEstimateService(invoices storage.InvoiceRepository, mutator *RecordMutator, clk clock.Clock) EstimateService {
	if clk == nil {
		clk = clock.Real()
	}
	return &estimateService{
		invoices: invoices,
		mutator:  mutator,
		clock:    clk,
		log:      logger.Get(),
	}
}

// statusIs guards retries: a retry only proceeds while the item is still in the expected state.
func statusIs(want models.EstimateStatus) func(*models.Record) error {
	return func(rec *models.Record) error {
		if got := recordEstimateStatus(rec); got != want {
			return fmt.Errorf("%w: item %s is now %s", ErrInvalidTransition, rec.ID, got)
		}
		return nil
	}
}

func (s *estimateService) SendEstimate(ctx context.Context, req *dto.SendEstimateRequest) (*SendEstimateResult, error) {
	inv, err := s.invoices.GetByID(ctx, req.ShopID, req.InvoiceID)
	if err != nil {
		return nil, MapRepoError(err, "fetching invoice for estimate")
	}
	if inv.Status != models.InvoiceStatusOpen {
		s.log.WithFields(logrus.Fields{"invoice_id": inv.ID, "status": inv.Status}).Info("SendEstimate: invoice is not open")
		return nil, ErrInvalidState
	}

	now := s.clock.Now()
	result := &SendEstimateResult{InvoiceID: inv.ID}
	for _, li := range estimate.Sendable(inv) {
		version := li.Version
		if err := estimate.SendItem(li, now); err != nil {
			continue
		}
		_, err := s.mutator.Update(ctx, storage.TableInvoiceItems, li.ID, version, map[string]interface{}{
			"estimate_status":  string(models.EstimateStatusPending),
			"estimate_sent_at": now,
		}, WithPrecondition(statusIs(models.EstimateStatusNone)))
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
				// Sent or removed by someone else in the meantime.
				continue
			}
			return nil, err
		}
		result.Sent = append(result.Sent, li.ID)
	}

	after, err := s.invoices.GetByID(ctx, req.ShopID, req.InvoiceID)
	if err != nil {
		return nil, MapRepoError(err, "re-reading invoice after estimate")
	}
	result.Summary = estimate.Summarize(after)

	s.log.WithFields(logrus.Fields{"invoice_id": inv.ID, "sent": len(result.Sent)}).Info("estimate sent")
	return result, nil
}

func (s *estimateService) ApproveEstimateItem(ctx context.Context, req *dto.EstimateItemRequest) (*models.LineItem, error) {
	li, err := s.invoices.GetLineItem(ctx, req.ShopID, req.ItemID)
	if err != nil {
		return nil, MapRepoError(err, "fetching estimate item")
	}
	version := li.Version
	now := s.clock.Now()
	if err := estimate.ApproveItem(li, now); err != nil {
		return nil, mapEstimateError(err)
	}

	_, err = s.mutator.Update(ctx, storage.TableInvoiceItems, li.ID, version, map[string]interface{}{
		"estimate_status":      string(models.EstimateStatusApproved),
		"estimate_approved_at": now,
	}, WithPrecondition(statusIs(models.EstimateStatusPending)))
	if err != nil {
		return nil, err
	}

	updated, err := s.invoices.GetLineItem(ctx, req.ShopID, req.ItemID)
	if err != nil {
		return nil, MapRepoError(err, "re-reading approved item")
	}
	s.log.WithFields(logrus.Fields{"item_id": updated.ID, "version": updated.Version}).Info("estimate item approved")
	return updated, nil
}

// DeclineEstimateItem removes the item. The delete is conditional on the version that was
// checked as pending, so a concurrent approval wins.
func (s *estimateService) DeclineEstimateItem(ctx context.Context, req *dto.EstimateItemRequest) error {
	li, err := s.invoices.GetLineItem(ctx, req.ShopID, req.ItemID)
	if err != nil {
		return MapRepoError(err, "fetching estimate item")
	}
	if err := estimate.DeclineItem(li); err != nil {
		return mapEstimateError(err)
	}
	if err := s.mutator.Delete(ctx, storage.TableInvoiceItems, li.ID, li.Version); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"item_id": li.ID, "invoice_id": li.InvoiceID}).Info("estimate item declined")
	return nil
}
