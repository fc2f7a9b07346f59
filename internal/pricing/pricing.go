// Package pricing derives cart totals from line items.
package pricing

import (
	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/domain"
)

var (
	DefaultFreeShippingThreshold = decimal.RequireFromString("100.00")
	DefaultFlatShippingFee       = decimal.RequireFromString("10.00")
)

// Calculator is a pure totals function parameterised by the shipping rule.
type Calculator struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

func Default() Calculator {
	return Calculator{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
	}
}

// Compute recomputes the breakdown from scratch. An empty item list yields
// zero totals, the same state a cleared cart has.
func (c Calculator) Compute(items []domain.LineItem) domain.Totals {
	if len(items) == 0 {
		return domain.ZeroTotals()
	}

	subtotal := decimal.Zero
	for _, li := range items {
		subtotal = subtotal.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}

	shipping := c.Shipping(subtotal)
	discount := decimal.Zero

	grand := subtotal.Add(shipping).Sub(discount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return domain.Totals{
		Subtotal:   subtotal,
		Shipping:   shipping,
		Discount:   discount,
		GrandTotal: grand,
	}
}

// Shipping is free at or above the threshold.
func (c Calculator) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(c.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.FlatShippingFee
}

// Format renders an amount for display, e.g. "$1,234.50".
func Format(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	whole, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]
	var grouped []byte
	for i := range len(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, whole[i])
	}

	out := "$" + string(grouped) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
