// Package cart owns the shopping cart state slice. Mutations apply local-first
// with best-effort remote reconciliation: local state is updated and persisted
// immediately, and a confirmed remote result may replace it as canonical.
package cart

import (
	"time"

	"github.com/akulov/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// LineItem is one product entry in the cart. Quantity is always at least 1;
// an update that would drop it to zero removes the item instead.
type LineItem struct {
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
	AddedAt   time.Time         `json:"added_at"`
}

// Cart is the persisted cart state: line items in insertion order plus an
// optional coupon.
type Cart struct {
	Items  []LineItem      `json:"items"`
	Coupon *pricing.Coupon `json:"coupon,omitempty"`
}

// Summary is the cart's derived pricing breakdown plus the summed quantity.
type Summary struct {
	Totals    pricing.Totals `json:"totals"`
	ItemCount int            `json:"item_count"`
}

// IssueType classifies a cart validation finding.
type IssueType string

const (
	IssueOutOfStock  IssueType = "out_of_stock"
	IssuePriceChange IssueType = "price_change"
	IssueNotFound    IssueType = "not_found"
)

// Issue is one validation finding for a cart item.
type Issue struct {
	ProductID string           `json:"product_id"`
	Type      IssueType        `json:"type"`
	Message   string           `json:"message"`
	OldPrice  *decimal.Decimal `json:"old_price,omitempty"`
	NewPrice  *decimal.Decimal `json:"new_price,omitempty"`
}

// ValidationResult is the outcome of a read-only cart check against the
// current catalog state.
type ValidationResult struct {
	IsValid bool    `json:"is_valid"`
	Issues  []Issue `json:"issues"`
}

// clone returns a deep copy so callers can never mutate manager-owned state.
func (c Cart) clone() Cart {
	out := Cart{Items: make([]LineItem, len(c.Items))}
	copy(out.Items, c.Items)
	for i, item := range c.Items {
		if item.Options != nil {
			opts := make(map[string]string, len(item.Options))
			for k, v := range item.Options {
				opts[k] = v
			}
			out.Items[i].Options = opts
		}
	}
	if c.Coupon != nil {
		coupon := *c.Coupon
		out.Coupon = &coupon
	}
	return out
}

func (c Cart) pricingItems() []pricing.Item {
	items := make([]pricing.Item, len(c.Items))
	for i, item := range c.Items {
		items[i] = pricing.Item{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return items
}

func (c Cart) itemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}
