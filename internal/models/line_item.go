package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LineItem is one row of an invoice. The slice order on Invoice.Items is meaningful:
// a labor row generated for a part or service follows it.
type LineItem struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	InvoiceID          uuid.UUID      `json:"invoice_id" db:"invoice_id"`
	Position           int            `json:"position" db:"position"`
	Name               string         `json:"name" db:"name"`
	Type               LineItemType   `json:"type" db:"type"`
	Quantity           float64        `json:"quantity" db:"quantity"`
	UnitPrice          float64        `json:"unit_price" db:"unit_price"`
	CostPrice          *float64       `json:"cost_price,omitempty" db:"cost_price"`
	PricingType        PricingType    `json:"pricing_type,omitempty" db:"pricing_type"`
	LinkedItemID       *uuid.UUID     `json:"linked_item_id,omitempty" db:"linked_item_id"`
	GroupName          *string        `json:"group_name,omitempty" db:"group_name"`
	LaborHours         *float64       `json:"labor_hours,omitempty" db:"labor_hours"`
	LaborRateName      *string        `json:"labor_rate_name,omitempty" db:"labor_rate_name"`
	InventoryItemID    *uuid.UUID     `json:"inventory_item_id,omitempty" db:"inventory_item_id"`
	EstimateStatus     EstimateStatus `json:"estimate_status" db:"estimate_status"`
	EstimateSentAt     *time.Time     `json:"estimate_sent_at,omitempty" db:"estimate_sent_at"`
	EstimateApprovedAt *time.Time     `json:"estimate_approved_at,omitempty" db:"estimate_approved_at"`
	Version            int            `json:"version" db:"version"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

var ErrInvalidLineItem = errors.New("invalid line item")

// Validate checks the field contracts of a line item.
func (li *LineItem) Validate() error {
	if li.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidLineItem)
	}
	if li.UnitPrice < 0 {
		return fmt.Errorf("%w: unit price must not be negative", ErrInvalidLineItem)
	}
	switch li.Type {
	case LineItemTypePart:
		if li.PricingType != "" {
			return fmt.Errorf("%w: pricing type only applies to services", ErrInvalidLineItem)
		}
	case LineItemTypeLabor:
		if li.PricingType != "" {
			return fmt.Errorf("%w: pricing type only applies to services", ErrInvalidLineItem)
		}
		if li.CostPrice != nil {
			return fmt.Errorf("%w: cost price only applies to parts", ErrInvalidLineItem)
		}
	case LineItemTypeService:
		if li.CostPrice != nil {
			return fmt.Errorf("%w: cost price only applies to parts", ErrInvalidLineItem)
		}
		switch li.PricingType {
		case PricingTypeFlat, "":
		case PricingTypeLaborBased:
			if li.UnitPrice != 0 {
				return fmt.Errorf("%w: labor-based service must carry a zero unit price", ErrInvalidLineItem)
			}
		default:
			return fmt.Errorf("%w: unknown pricing type %q", ErrInvalidLineItem, li.PricingType)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidLineItem, li.Type)
	}
	return nil
}

// Status returns the estimate status, treating the zero value as none.
func (li *LineItem) Status() EstimateStatus {
	if li.EstimateStatus == "" {
		return EstimateStatusNone
	}
	return li.EstimateStatus
}

// --- Charge variants ---

// Charge is the closed set of ways a line item can be priced.
type Charge interface {
	isCharge()
}

// PartCharge is a stocked or ad-hoc part billed at quantity x unit price.
type PartCharge struct{}

// LaborCharge is an hours x rate row. LinkedTo is the part or service it was generated for.
type LaborCharge struct {
	LinkedTo *uuid.UUID
}

// FlatServiceCharge is a fixed-price service.
type FlatServiceCharge struct{}

// LaborBasedServiceCharge is a zero-price placeholder; its cost lives in a linked labor row.
type LaborBasedServiceCharge struct {
	Hours   *float64
	RateRef *string
}

// UnknownCharge covers rows whose type the engine does not recognise.
type UnknownCharge struct {
	Type LineItemType
}

func (PartCharge) isCharge()              {}
func (LaborCharge) isCharge()             {}
func (FlatServiceCharge) isCharge()       {}
func (LaborBasedServiceCharge) isCharge() {}
func (UnknownCharge) isCharge()           {}

// Charge classifies the item.
func (li *LineItem) Charge() Charge {
	switch li.Type {
	case LineItemTypePart:
		return PartCharge{}
	case LineItemTypeLabor:
		return LaborCharge{LinkedTo: li.LinkedItemID}
	case LineItemTypeService:
		if li.PricingType == PricingTypeLaborBased {
			return LaborBasedServiceCharge{Hours: li.LaborHours, RateRef: li.LaborRateName}
		}
		return FlatServiceCharge{}
	default:
		return UnknownCharge{Type: li.Type}
	}
}
