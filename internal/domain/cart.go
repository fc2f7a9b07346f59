package domain

import (
	"maps"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 99

// LineItem is one product/options/quantity selection within a cart or order.
// Title, UnitPrice and Image are snapshots taken when the item was added.
type LineItem struct {
	ProductID       string            `json:"productId"`
	Title           string            `json:"title"`
	UnitPrice       decimal.Decimal   `json:"price"`
	Image           string            `json:"image"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
}

// Matches reports whether the item has the given identity key. Options are
// compared as an unordered set; nil and empty are the same selection.
func (li LineItem) Matches(productID string, options map[string]string) bool {
	return li.ProductID == productID && maps.Equal(li.SelectedOptions, options)
}

// Clone returns a deep copy of the item.
func (li LineItem) Clone() LineItem {
	out := li
	if li.SelectedOptions != nil {
		out.SelectedOptions = maps.Clone(li.SelectedOptions)
	}
	return out
}

// Totals is the monetary breakdown derived from a set of line items.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// ZeroTotals is the breakdown of an empty cart.
func ZeroTotals() Totals {
	return Totals{
		Subtotal:   decimal.Zero,
		Shipping:   decimal.Zero,
		Discount:   decimal.Zero,
		GrandTotal: decimal.Zero,
	}
}

// Cart is the working set of one browser session.
type Cart struct {
	Items  []LineItem `json:"items"`
	Totals Totals     `json:"totals"`
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	items := make([]LineItem, 0, len(c.Items))
	for _, li := range c.Items {
		items = append(items, li.Clone())
	}
	return Cart{Items: items, Totals: c.Totals}
}

// ItemCount sums quantities over all line items.
func (c Cart) ItemCount() int {
	total := 0
	for _, li := range c.Items {
		total += li.Quantity
	}
	return total
}
