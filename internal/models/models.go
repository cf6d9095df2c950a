package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// scanEnumString extracts the raw string out of a driver value for the enum Scan methods.
func scanEnumString(value interface{}, enumName string) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("failed to scan %s: value is not string or []byte", enumName)
	}
}

// --- Line Item Type Enum ---
type LineItemType string

const (
	LineItemTypePart    LineItemType = "part"
	LineItemTypeLabor   LineItemType = "labor"
	LineItemTypeService LineItemType = "service"
)

// Scan implements the sql.Scanner interface for LineItemType
func (t *LineItemType) Scan(value interface{}) error {
	strVal, err := scanEnumString(value, "LineItemType")
	if err != nil {
		return err
	}
	v := LineItemType(strVal)
	switch v {
	case LineItemTypePart, LineItemTypeLabor, LineItemTypeService:
		*t = v
		return nil
	default:
		return fmt.Errorf("invalid LineItemType value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for LineItemType
func (t LineItemType) Value() (driver.Value, error) {
	return string(t), nil
}

// --- Pricing Type Enum ---
type PricingType string

const (
	PricingTypeFlat       PricingType = "flat"
	PricingTypeLaborBased PricingType = "labor_based"
)

// Scan implements the sql.Scanner interface for PricingType.
// NULL columns scan into the empty value; only services carry a pricing type.
func (p *PricingType) Scan(value interface{}) error {
	if value == nil {
		*p = ""
		return nil
	}
	strVal, err := scanEnumString(value, "PricingType")
	if err != nil {
		return err
	}
	v := PricingType(strVal)
	switch v {
	case PricingTypeFlat, PricingTypeLaborBased, "":
		*p = v
		return nil
	default:
		return fmt.Errorf("invalid PricingType value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for PricingType
func (p PricingType) Value() (driver.Value, error) {
	if p == "" {
		return nil, nil
	}
	return string(p), nil
}

// --- Estimate Status Enum ---
type EstimateStatus string

const (
	EstimateStatusNone     EstimateStatus = "none"
	EstimateStatusPending  EstimateStatus = "pending"
	EstimateStatusApproved EstimateStatus = "approved"
	EstimateStatusDeclined EstimateStatus = "declined"
)

// Scan implements the sql.Scanner interface for EstimateStatus
func (s *EstimateStatus) Scan(value interface{}) error {
	if value == nil {
		*s = EstimateStatusNone
		return nil
	}
	strVal, err := scanEnumString(value, "EstimateStatus")
	if err != nil {
		return err
	}
	v := EstimateStatus(strVal)
	switch v {
	case EstimateStatusNone, EstimateStatusPending, EstimateStatusApproved, EstimateStatusDeclined:
		*s = v
		return nil
	case "":
		*s = EstimateStatusNone
		return nil
	default:
		return fmt.Errorf("invalid EstimateStatus value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for EstimateStatus
func (s EstimateStatus) Value() (driver.Value, error) {
	if s == "" {
		return string(EstimateStatusNone), nil
	}
	return string(s), nil
}

// --- Invoice Status Enum ---
type InvoiceStatus string

const (
	InvoiceStatusOpen InvoiceStatus = "open"
	InvoiceStatusPaid InvoiceStatus = "paid"
)

// Scan implements the sql.Scanner interface for InvoiceStatus
func (s *InvoiceStatus) Scan(value interface{}) error {
	strVal, err := scanEnumString(value, "InvoiceStatus")
	if err != nil {
		return err
	}
	v := InvoiceStatus(strVal)
	switch v {
	case InvoiceStatusOpen, InvoiceStatusPaid:
		*s = v
		return nil
	default:
		return fmt.Errorf("invalid InvoiceStatus value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for InvoiceStatus
func (s InvoiceStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// --- Item Source Enum ---

// ItemSource names the stock table a part is drawn from.
type ItemSource string

const (
	ItemSourceInventory ItemSource = "inventory"
	ItemSourceFolder    ItemSource = "folder"
)

// Valid reports whether s is a known stock source.
func (s ItemSource) Valid() bool {
	return s == ItemSourceInventory || s == ItemSourceFolder
}

// Table returns the stock table backing the source.
func (s ItemSource) Table() string {
	if s == ItemSourceFolder {
		return "folder_items"
	}
	return "inventory_items"
}

// Record is a generic versioned row identified by (Table, ID).
type Record struct {
	Table     string                 `json:"table"`
	ID        uuid.UUID              `json:"id"`
	Version   int                    `json:"version"`
	UpdatedAt time.Time              `json:"updated_at"`
	Fields    map[string]interface{} `json:"fields"`
}

// Invoice is the billable document of a job. Totals are derived by the pricing package, never stored.
type Invoice struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	ShopID       uuid.UUID     `json:"shop_id" db:"shop_id"`
	JobID        uuid.UUID     `json:"job_id" db:"job_id"`
	TaxRate      float64       `json:"tax_rate" db:"tax_rate"`           // percent
	DiscountRate float64       `json:"discount_rate" db:"discount_rate"` // percent
	Status       InvoiceStatus `json:"status" db:"status"`
	Version      int           `json:"version" db:"version"`
	Items        []LineItem    `json:"items" db:"-"` // ordered by position
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// FindItem returns the index of the item with the given id, or -1.
func (inv *Invoice) FindItem(id uuid.UUID) int {
	for i := range inv.Items {
		if inv.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// InventoryItem is a stock row. QuantityOnHand is owned by the job_parts trigger.
type InventoryItem struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ShopID         uuid.UUID  `json:"shop_id" db:"shop_id"`
	Name           string     `json:"name" db:"name"`
	QuantityOnHand int        `json:"quantity_on_hand" db:"quantity_on_hand"`
	Source         ItemSource `json:"source" db:"-"`
	Version        int        `json:"version" db:"version"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// JobPartLink records that a stocked part is on a job. Inserting and deleting it is what moves stock.
type JobPartLink struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ShopID          uuid.UUID  `json:"shop_id" db:"shop_id"`
	JobID           uuid.UUID  `json:"job_id" db:"job_id"`
	InventoryItemID *uuid.UUID `json:"inventory_item_id,omitempty" db:"inventory_item_id"`
	FolderItemID    *uuid.UUID `json:"folder_item_id,omitempty" db:"folder_item_id"`
	Quantity        int        `json:"quantity" db:"quantity"`
	Name            string     `json:"name" db:"name"`
	UnitPrice       float64    `json:"unit_price" db:"unit_price"`
	CostPrice       *float64   `json:"cost_price,omitempty" db:"cost_price"`
	Deducted        bool       `json:"deducted" db:"deducted"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// ItemID returns whichever stock reference the link carries and its source.
func (l *JobPartLink) ItemID() (uuid.UUID, ItemSource) {
	if l.FolderItemID != nil {
		return *l.FolderItemID, ItemSourceFolder
	}
	if l.InventoryItemID != nil {
		return *l.InventoryItemID, ItemSourceInventory
	}
	return uuid.Nil, ""
}
