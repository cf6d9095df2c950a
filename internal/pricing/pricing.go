// Package pricing derives invoice totals from line items.
//
// Labor-based services carry no price of their own; their cost is billed through a labor row
// linked to them. The same labor can also be present twice (once generated for a service and
// once as a copy), so labor rows are counted once per link target.
package pricing

import (
	"strconv"

	"go-shop-api/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals are exact; use Display for two-decimal strings.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	// PendingEstimate is the share of the subtotal belonging to items awaiting customer approval.
	PendingEstimate decimal.Decimal `json:"pending_estimate"`
}

type DisplayTotals struct {
	Subtotal        string `json:"subtotal"`
	Tax             string `json:"tax"`
	Discount        string `json:"discount"`
	Total           string `json:"total"`
	PendingEstimate string `json:"pending_estimate"`
}

// Display rounds every amount to cents.
func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal:        t.Subtotal.StringFixed(2),
		Tax:             t.Tax.StringFixed(2),
		Discount:        t.Discount.StringFixed(2),
		Total:           t.Total.StringFixed(2),
		PendingEstimate: t.PendingEstimate.StringFixed(2),
	}
}

type Options struct {
	// ExcludePendingEstimates leaves pending items, and labor linked to them, out of the subtotal.
	ExcludePendingEstimates bool
}

func amount(li *models.LineItem) decimal.Decimal {
	return decimal.NewFromFloat(li.Quantity).Mul(decimal.NewFromFloat(li.UnitPrice))
}

type laborKey struct {
	linked   uuid.UUID
	name     string
	quantity string
	price    string
}

func keyOf(li *models.LineItem) laborKey {
	if li.LinkedItemID != nil {
		return laborKey{linked: *li.LinkedItemID}
	}
	return laborKey{
		name:     li.Name,
		quantity: strconv.FormatFloat(li.Quantity, 'f', -1, 64),
		price:    strconv.FormatFloat(li.UnitPrice, 'f', -1, 64),
	}
}

// ItemAmounts returns what each item contributes to the subtotal, index-aligned with items.
// Skipped services and repeated labor contribute zero.
func ItemAmounts(items []models.LineItem) []decimal.Decimal {
	laborTargets := map[uuid.UUID]bool{}
	laborIDs := map[uuid.UUID]bool{}
	for i := range items {
		if items[i].Type != models.LineItemTypeLabor {
			continue
		}
		laborIDs[items[i].ID] = true
		if items[i].LinkedItemID != nil {
			laborTargets[*items[i].LinkedItemID] = true
		}
	}

	amounts := make([]decimal.Decimal, len(items))
	seenLabor := map[laborKey]bool{}
	for i := range items {
		li := &items[i]
		amounts[i] = decimal.Zero

		switch li.Charge().(type) {
		case models.LaborBasedServiceCharge:
			// Billed through its labor row.
		case models.FlatServiceCharge:
			if laborTargets[li.ID] {
				continue
			}
			if li.LinkedItemID != nil && laborIDs[*li.LinkedItemID] {
				continue
			}
			amounts[i] = amount(li)
		case models.LaborCharge:
			k := keyOf(li)
			if seenLabor[k] {
				continue
			}
			seenLabor[k] = true
			amounts[i] = amount(li)
		default:
			amounts[i] = amount(li)
		}
	}
	return amounts
}

// Subtotal sums ItemAmounts.
func Subtotal(items []models.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range ItemAmounts(items) {
		sum = sum.Add(a)
	}
	return sum
}

// Compute counts pending estimate items toward the total.
func Compute(inv *models.Invoice) Totals {
	return ComputeWithOptions(inv, Options{})
}

func ComputeWithOptions(inv *models.Invoice, opts Options) Totals {
	amounts := ItemAmounts(inv.Items)

	pendingIDs := map[uuid.UUID]bool{}
	for i := range inv.Items {
		if inv.Items[i].Status() == models.EstimateStatusPending {
			pendingIDs[inv.Items[i].ID] = true
		}
	}

	subtotal := decimal.Zero
	pending := decimal.Zero
	for i := range inv.Items {
		li := &inv.Items[i]
		isPending := pendingIDs[li.ID] ||
			(li.Type == models.LineItemTypeLabor && li.LinkedItemID != nil && pendingIDs[*li.LinkedItemID])
		if isPending {
			pending = pending.Add(amounts[i])
			if opts.ExcludePendingEstimates {
				continue
			}
		}
		subtotal = subtotal.Add(amounts[i])
	}

	tax := subtotal.Mul(decimal.NewFromFloat(inv.TaxRate)).Div(hundred)
	discount := subtotal.Mul(decimal.NewFromFloat(inv.DiscountRate)).Div(hundred)
	return Totals{
		Subtotal:        subtotal,
		Tax:             tax,
		Discount:        discount,
		Total:           subtotal.Add(tax).Sub(discount),
		PendingEstimate: pending,
	}
}
