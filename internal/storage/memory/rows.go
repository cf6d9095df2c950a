package memory

import (
	"fmt"
	"time"

	"go-shop-api/internal/models"

	"github.com/google/uuid"
)

// Patches arrive with whatever Go types the caller used, so the readers below accept
// the plain, named and pointer forms of each column type.

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case *float64:
		if n != nil {
			return *n
		}
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asFloatPtr(v interface{}) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case *float64:
		return n
	default:
		f := asFloat(v)
		return &f
	}
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func asStringPtr(v interface{}) *string {
	switch s := v.(type) {
	case nil:
		return nil
	case *string:
		return s
	default:
		str := asString(v)
		return &str
	}
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

func asTimePtr(v interface{}) *time.Time {
	if t, ok := asTime(v); ok {
		return &t
	}
	return nil
}

func asUUID(v interface{}) uuid.UUID {
	switch id := v.(type) {
	case uuid.UUID:
		return id
	case *uuid.UUID:
		if id != nil {
			return *id
		}
	case string:
		parsed, err := uuid.Parse(id)
		if err == nil {
			return parsed
		}
	}
	return uuid.Nil
}

func asUUIDPtr(v interface{}) *uuid.UUID {
	id := asUUID(v)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// nullable stores nil pointers as SQL NULL and dereferences the rest.
func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func jobPartRow(l *models.JobPartLink) row {
	return row{
		"id":                l.ID,
		"shop_id":           l.ShopID,
		"job_id":            l.JobID,
		"inventory_item_id": nullable(l.InventoryItemID),
		"folder_item_id":    nullable(l.FolderItemID),
		"quantity":          l.Quantity,
		"name":              l.Name,
		"unit_price":        l.UnitPrice,
		"cost_price":        nullable(l.CostPrice),
		"deducted":          l.Deducted,
		"created_at":        l.CreatedAt,
	}
}

func jobPartFromRow(r row) *models.JobPartLink {
	l := &models.JobPartLink{
		ID:              asUUID(r["id"]),
		ShopID:          asUUID(r["shop_id"]),
		JobID:           asUUID(r["job_id"]),
		InventoryItemID: asUUIDPtr(r["inventory_item_id"]),
		FolderItemID:    asUUIDPtr(r["folder_item_id"]),
		Quantity:        asInt(r["quantity"]),
		Name:            asString(r["name"]),
		UnitPrice:       asFloat(r["unit_price"]),
		CostPrice:       asFloatPtr(r["cost_price"]),
	}
	l.Deducted, _ = r["deducted"].(bool)
	l.CreatedAt, _ = asTime(r["created_at"])
	return l
}

func lineItemRow(li *models.LineItem) row {
	status := li.Status()
	var pricing interface{}
	if li.PricingType != "" {
		pricing = string(li.PricingType)
	}
	return row{
		"id":                   li.ID,
		"invoice_id":           li.InvoiceID,
		"position":             li.Position,
		"name":                 li.Name,
		"type":                 string(li.Type),
		"quantity":             li.Quantity,
		"unit_price":           li.UnitPrice,
		"cost_price":           nullable(li.CostPrice),
		"pricing_type":         pricing,
		"linked_item_id":       nullable(li.LinkedItemID),
		"group_name":           nullable(li.GroupName),
		"labor_hours":          nullable(li.LaborHours),
		"labor_rate_name":      nullable(li.LaborRateName),
		"inventory_item_id":    nullable(li.InventoryItemID),
		"estimate_status":      string(status),
		"estimate_sent_at":     nullable(li.EstimateSentAt),
		"estimate_approved_at": nullable(li.EstimateApprovedAt),
		"version":              li.Version,
		"created_at":           li.CreatedAt,
		"updated_at":           li.UpdatedAt,
	}
}

func lineItemFromRow(r row) *models.LineItem {
	li := &models.LineItem{
		ID:                 asUUID(r["id"]),
		InvoiceID:          asUUID(r["invoice_id"]),
		Position:           asInt(r["position"]),
		Name:               asString(r["name"]),
		Type:               models.LineItemType(asString(r["type"])),
		Quantity:           asFloat(r["quantity"]),
		UnitPrice:          asFloat(r["unit_price"]),
		CostPrice:          asFloatPtr(r["cost_price"]),
		PricingType:        models.PricingType(asString(r["pricing_type"])),
		LinkedItemID:       asUUIDPtr(r["linked_item_id"]),
		GroupName:          asStringPtr(r["group_name"]),
		LaborHours:         asFloatPtr(r["labor_hours"]),
		LaborRateName:      asStringPtr(r["labor_rate_name"]),
		InventoryItemID:    asUUIDPtr(r["inventory_item_id"]),
		EstimateStatus:     models.EstimateStatus(asString(r["estimate_status"])),
		EstimateSentAt:     asTimePtr(r["estimate_sent_at"]),
		EstimateApprovedAt: asTimePtr(r["estimate_approved_at"]),
		Version:            asInt(r["version"]),
	}
	li.EstimateStatus = li.Status()
	li.CreatedAt, _ = asTime(r["created_at"])
	li.UpdatedAt, _ = asTime(r["updated_at"])
	return li
}

func invoiceFromRow(r row) *models.Invoice {
	inv := &models.Invoice{
		ID:           asUUID(r["id"]),
		ShopID:       asUUID(r["shop_id"]),
		JobID:        asUUID(r["job_id"]),
		TaxRate:      asFloat(r["tax_rate"]),
		DiscountRate: asFloat(r["discount_rate"]),
		Status:       models.InvoiceStatus(asString(r["status"])),
		Version:      asInt(r["version"]),
	}
	inv.CreatedAt, _ = asTime(r["created_at"])
	inv.UpdatedAt, _ = asTime(r["updated_at"])
	return inv
}
