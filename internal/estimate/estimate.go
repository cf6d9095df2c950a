// Package estimate is the customer approval flow over invoice line items.
//
// An item enters the flow when the estimate is sent (none -> pending) and leaves it when the
// customer approves (pending -> approved) or declines (pending -> declined, item removed).
// The functions here only compute transitions; persistence lives in the services package.
package estimate

import (
	"errors"
	"fmt"
	"time"

	"go-shop-api/internal/models"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("invalid estimate transition")
	ErrNotEligible       = errors.New("item is not part of the estimate flow")
	ErrItemNotFound      = errors.New("invoice item not found")
)

// Eligible reports whether the item takes part in estimate approval: services, and parts drawn
// from inventory. Labor rows and ad-hoc parts follow their parent or are never estimated.
func Eligible(li *models.LineItem) bool {
	switch li.Type {
	case models.LineItemTypeService:
		return true
	case models.LineItemTypePart:
		return li.InventoryItemID != nil
	default:
		return false
	}
}

// CanTransition checks if moving from current to next status is allowed.
func CanTransition(current, next models.EstimateStatus) bool {
	switch current {
	case models.EstimateStatusNone, "":
		return next == models.EstimateStatusPending
	case models.EstimateStatusPending:
		return next == models.EstimateStatusApproved || next == models.EstimateStatusDeclined
	case models.EstimateStatusApproved, models.EstimateStatusDeclined:
		return false // Terminal for this send cycle
	default:
		return false
	}
}

func transition(li *models.LineItem, next models.EstimateStatus) error {
	if !Eligible(li) {
		return fmt.Errorf("%w: %s item %s", ErrNotEligible, li.Type, li.ID)
	}
	if !CanTransition(li.Status(), next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, li.Status(), next)
	}
	return nil
}

// SendItem moves one item to pending.
func SendItem(li *models.LineItem, now time.Time) error {
	if err := transition(li, models.EstimateStatusPending); err != nil {
		return err
	}
	li.EstimateStatus = models.EstimateStatusPending
	li.EstimateSentAt = &now
	return nil
}

// ApproveItem moves one pending item to approved.
func ApproveItem(li *models.LineItem, now time.Time) error {
	if err := transition(li, models.EstimateStatusApproved); err != nil {
		return err
	}
	li.EstimateStatus = models.EstimateStatusApproved
	li.EstimateApprovedAt = &now
	return nil
}

// DeclineItem checks that the item may be declined. Declined items are removed, not kept.
func DeclineItem(li *models.LineItem) error {
	return transition(li, models.EstimateStatusDeclined)
}

// Sendable returns the items a send would move to pending: eligible and not yet in the flow.
func Sendable(inv *models.Invoice) []*models.LineItem {
	items := []*models.LineItem{}
	for i := range inv.Items {
		li := &inv.Items[i]
		if Eligible(li) && li.Status() == models.EstimateStatusNone {
			items = append(items, li)
		}
	}
	return items
}

// Send marks every sendable item pending and returns their ids. Items already carrying
// a status are left alone, so sending twice is harmless.
func Send(inv *models.Invoice, now time.Time) []uuid.UUID {
	sent := []uuid.UUID{}
	for _, li := range Sendable(inv) {
		if err := SendItem(li, now); err == nil {
			sent = append(sent, li.ID)
		}
	}
	return sent
}

// Approve approves the item with the given id.
func Approve(inv *models.Invoice, itemID uuid.UUID, now time.Time) error {
	i := inv.FindItem(itemID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return ApproveItem(&inv.Items[i], now)
}

// Decline removes the item with the given id from the invoice.
func Decline(inv *models.Invoice, itemID uuid.UUID) error {
	i := inv.FindItem(itemID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err := DeclineItem(&inv.Items[i]); err != nil {
		return err
	}
	inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
	return nil
}

// Summary counts items per status among those in the flow.
type Summary struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
}

func Summarize(inv *models.Invoice) Summary {
	var s Summary
	for i := range inv.Items {
		switch inv.Items[i].Status() {
		case models.EstimateStatusPending:
			s.Pending++
		case models.EstimateStatusApproved:
			s.Approved++
		}
	}
	return s
}
