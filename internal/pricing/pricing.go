// Package pricing computes cart totals. All money amounts are
// decimal-valued; intermediate math runs at full precision and rounding to
// two fraction digits happens only on the final figures.
package pricing

import "github.com/shopspring/decimal"

// CouponKind enumerates the supported coupon discount strategies.
type CouponKind string

const (
	// KindPercentage applies a percentage-based discount to the subtotal.
	KindPercentage CouponKind = "percentage"
	// KindFixed applies a fixed monetary discount capped at the subtotal.
	KindFixed CouponKind = "fixed"
)

// Coupon is a discount rule applied to a cart's subtotal. A cart carries at
// most one coupon at a time.
type Coupon struct {
	Code  string          `json:"code"`
	Kind  CouponKind      `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Item is a priced cart line for totals calculation.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the derived pricing breakdown of a cart. It is computed on
// demand and never persisted.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Rates holds the pricing parameters.
type Rates struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingRate          decimal.Decimal
}

// NewRates builds Rates from plain float configuration values.
func NewRates(taxRate, freeShippingThreshold, shippingRate float64) Rates {
	return Rates{
		TaxRate:               decimal.NewFromFloat(taxRate),
		FreeShippingThreshold: decimal.NewFromFloat(freeShippingThreshold),
		ShippingRate:          decimal.NewFromFloat(shippingRate),
	}
}

// DefaultRates returns the stock pricing parameters: 8% tax, free shipping
// from a subtotal of 100, flat 9.99 shipping below that.
func DefaultRates() Rates {
	return NewRates(0.08, 100, 9.99)
}

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals calculates the pricing breakdown for the given items and
// optional coupon. The discount never exceeds the subtotal and the total is
// clamped at zero.
func ComputeTotals(items []Item, coupon *Coupon, rates Rates) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	if coupon != nil {
		switch coupon.Kind {
		case KindPercentage:
			discount = subtotal.Mul(coupon.Value).Div(oneHundred)
		case KindFixed:
			discount = decimal.Min(coupon.Value, subtotal)
		}
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(rates.TaxRate)

	shipping := rates.ShippingRate
	if subtotal.GreaterThanOrEqual(rates.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	total := decimal.Max(decimal.Zero, taxable.Add(tax).Add(shipping))

	return Totals{
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Tax:      tax.Round(2),
		Shipping: shipping.Round(2),
		Total:    total.Round(2),
	}
}
