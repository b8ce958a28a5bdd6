package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(price string, qty int) Item {
	return Item{UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func assertTotals(t *testing.T, totals Totals, subtotal, discount, tax, shipping, total string) {
	t.Helper()
	assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString(subtotal)), "subtotal: got %s", totals.Subtotal)
	assert.True(t, totals.Discount.Equal(decimal.RequireFromString(discount)), "discount: got %s", totals.Discount)
	assert.True(t, totals.Tax.Equal(decimal.RequireFromString(tax)), "tax: got %s", totals.Tax)
	assert.True(t, totals.Shipping.Equal(decimal.RequireFromString(shipping)), "shipping: got %s", totals.Shipping)
	assert.True(t, totals.Total.Equal(decimal.RequireFromString(total)), "total: got %s", totals.Total)
}

func Test_ComputeTotals(t *testing.T) {
	testCases := []struct {
		name     string
		items    []Item
		coupon   *Coupon
		expected [5]string // subtotal, discount, tax, shipping, total
	}{
		{
			name:     "empty cart",
			items:    nil,
			expected: [5]string{"0", "0", "0", "9.99", "9.99"},
		},
		{
			name:     "percentage coupon below free shipping",
			items:    []Item{item("10.00", 2)},
			coupon:   &Coupon{Code: "SAVE10", Kind: KindPercentage, Value: decimal.NewFromInt(10)},
			expected: [5]string{"20.00", "2.00", "1.44", "9.99", "29.43"},
		},
		{
			name:     "free shipping from subtotal 100",
			items:    []Item{item("60.00", 2)},
			expected: [5]string{"120.00", "0", "9.60", "0", "129.60"},
		},
		{
			name:     "fixed coupon capped at subtotal",
			items:    []Item{item("5.00", 1)},
			coupon:   &Coupon{Code: "BIG", Kind: KindFixed, Value: decimal.NewFromInt(50)},
			expected: [5]string{"5.00", "5.00", "0", "9.99", "9.99"},
		},
		{
			name:     "fixed coupon below subtotal",
			items:    []Item{item("25.00", 2)},
			coupon:   &Coupon{Code: "TEN", Kind: KindFixed, Value: decimal.NewFromInt(10)},
			expected: [5]string{"50.00", "10.00", "3.20", "9.99", "53.19"},
		},
		{
			name:     "hundred percent coupon",
			items:    []Item{item("40.00", 1)},
			coupon:   &Coupon{Code: "ALL", Kind: KindPercentage, Value: decimal.NewFromInt(100)},
			expected: [5]string{"40.00", "40.00", "0", "9.99", "9.99"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			totals := ComputeTotals(tc.items, tc.coupon, DefaultRates())
			assertTotals(t, totals, tc.expected[0], tc.expected[1], tc.expected[2], tc.expected[3], tc.expected[4])
		})
	}
}

func Test_ComputeTotals_OrderIndependent(t *testing.T) {
	items := []Item{item("10.37", 3), item("0.99", 7), item("64.50", 1), item("5.00", 2)}
	coupon := &Coupon{Code: "SAVE15", Kind: KindPercentage, Value: decimal.NewFromInt(15)}
	expected := ComputeTotals(items, coupon, DefaultRates())

	rng := rand.New(rand.NewSource(1))
	for range 10 {
		shuffled := make([]Item, len(items))
		copy(shuffled, items)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := ComputeTotals(shuffled, coupon, DefaultRates())
		assert.True(t, expected.Subtotal.Equal(got.Subtotal))
		assert.True(t, expected.Discount.Equal(got.Discount))
		assert.True(t, expected.Tax.Equal(got.Tax))
		assert.True(t, expected.Shipping.Equal(got.Shipping))
		assert.True(t, expected.Total.Equal(got.Total))
	}
}

func Test_ComputeTotals_DiscountNeverExceedsSubtotal(t *testing.T) {
	items := []Item{item("12.34", 1)}
	for _, value := range []int64{0, 1, 12, 13, 1000} {
		coupon := &Coupon{Code: "FIXED", Kind: KindFixed, Value: decimal.NewFromInt(value)}
		totals := ComputeTotals(items, coupon, DefaultRates())
		assert.True(t, totals.Discount.LessThanOrEqual(totals.Subtotal),
			"value=%d discount=%s subtotal=%s", value, totals.Discount, totals.Subtotal)
	}
}

func Test_ComputeTotals_TotalNeverNegative(t *testing.T) {
	items := []Item{item("1.00", 1)}
	coupon := &Coupon{Code: "HUGE", Kind: KindFixed, Value: decimal.NewFromInt(1_000_000)}
	rates := Rates{
		TaxRate:               decimal.Zero,
		FreeShippingThreshold: decimal.Zero,
		ShippingRate:          decimal.Zero,
	}
	totals := ComputeTotals(items, coupon, rates)
	require.True(t, totals.Total.GreaterThanOrEqual(decimal.Zero))
}

func Test_ComputeTotals_RoundsOnlyAtTheEnd(t *testing.T) {
	// Three items at 0.333 each: rounding per line would give 0.99, full
	// precision gives 0.999 -> 1.00.
	totals := ComputeTotals([]Item{item("0.333", 3)}, nil, DefaultRates())
	assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString("1.00")), "got %s", totals.Subtotal)
}
