package cart

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/pricing"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Success(_ string, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Error(_ string, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, "error: "+message)
}

func lineItem(id, price string, opts map[string]string) domain.LineItem {
	return domain.LineItem{
		ProductID:       id,
		Title:           "Item " + id,
		UnitPrice:       decimal.RequireFromString(price),
		SelectedOptions: opts,
	}
}

func TestAddItemMergesSameOptions(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)

	st.AddItem(lineItem("p1", "50", nil), 1)
	cart := st.AddItem(lineItem("p1", "50", map[string]string{}), 2)

	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", cart.Items[0].Quantity)
	}
	if !cart.Totals.Subtotal.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("subtotal = %s", cart.Totals.Subtotal)
	}
	if !cart.Totals.Shipping.IsZero() {
		t.Fatalf("subtotal 150 ships free, got %s", cart.Totals.Shipping)
	}
	if !cart.Totals.GrandTotal.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("grand total = %s", cart.Totals.GrandTotal)
	}
}

func TestAddItemScenarioBelowThreshold(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	st.AddItem(lineItem("p1", "30", nil), 1)
	cart := st.AddItem(lineItem("p1", "30", nil), 2)

	if cart.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", cart.Items[0].Quantity)
	}
	if !cart.Totals.Subtotal.Equal(decimal.NewFromInt(90)) ||
		!cart.Totals.Shipping.Equal(decimal.NewFromInt(10)) ||
		!cart.Totals.GrandTotal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected totals %+v", cart.Totals)
	}
}

func TestAddItemDifferentOptionsAppend(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	st.AddItem(lineItem("ring", "2499", map[string]string{"Ring Size": "6"}), 1)
	cart := st.AddItem(lineItem("ring", "2499", map[string]string{"Ring Size": "7"}), 1)

	if len(cart.Items) != 2 {
		t.Fatalf("different option sets must not merge, got %d lines", len(cart.Items))
	}
	if cart.Items[0].SelectedOptions["Ring Size"] != "6" || cart.Items[1].SelectedOptions["Ring Size"] != "7" {
		t.Fatalf("insertion order not preserved: %+v", cart.Items)
	}
}

func TestAddItemOptionOrderInsensitive(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	st.AddItem(lineItem("p", "10", map[string]string{"Metal": "Gold", "Size": "7"}), 1)
	cart := st.AddItem(lineItem("p", "10", map[string]string{"Size": "7", "Metal": "Gold"}), 1)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("expected merge regardless of key order, got %+v", cart.Items)
	}
}

func TestAddItemDefaultsQuantity(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	cart := st.AddItem(lineItem("p", "10", nil), 0)
	if cart.Items[0].Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemCapsLineQuantity(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	li := lineItem("p1", "50", nil)

	st.AddItem(li, math.MaxInt)
	cart := st.AddItem(li, 2)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != domain.MaxLineQuantity {
		t.Fatalf("expected quantity capped at %d, got %+v", domain.MaxLineQuantity, cart.Items)
	}
	want := decimal.NewFromInt(50 * domain.MaxLineQuantity)
	if !cart.Totals.Subtotal.Equal(want) || !cart.Totals.GrandTotal.Equal(want) {
		t.Fatalf("unexpected totals %+v", cart.Totals)
	}

	cart = st.UpdateQuantity("p1", math.MaxInt, nil)
	if cart.Items[0].Quantity != domain.MaxLineQuantity {
		t.Fatalf("update must cap too, got %d", cart.Items[0].Quantity)
	}
}

func TestRemoveOrderedKeepsLaterUnits(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	st.AddItem(lineItem("a", "10", nil), 2)
	st.AddItem(lineItem("b", "20", map[string]string{"Size": "S"}), 1)
	ordered := st.Snapshot().Items

	st.AddItem(lineItem("a", "10", nil), 3)
	st.AddItem(lineItem("c", "5", nil), 1)

	cart := st.RemoveOrdered(ordered)
	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 lines left, got %+v", cart.Items)
	}
	if cart.Items[0].ProductID != "a" || cart.Items[0].Quantity != 3 {
		t.Fatalf("expected 3 units of a left, got %+v", cart.Items[0])
	}
	if cart.Items[1].ProductID != "c" {
		t.Fatalf("expected c kept, got %+v", cart.Items[1])
	}
	if !cart.Totals.Subtotal.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("subtotal = %s", cart.Totals.Subtotal)
	}

	cart = st.RemoveOrdered(st.Snapshot().Items)
	if len(cart.Items) != 0 || !cart.Totals.GrandTotal.IsZero() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestUpdateQuantityZeroRemovesExactlyOne(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	st.AddItem(lineItem("a", "10", nil), 1)
	st.AddItem(lineItem("b", "20", map[string]string{"Size": "S"}), 1)
	st.AddItem(lineItem("b", "20", map[string]string{"Size": "M"}), 1)

	cart := st.UpdateQuantity("b", 0, map[string]string{"Size": "S"})
	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Items))
	}
	if cart.Items[0].ProductID != "a" || cart.Items[1].SelectedOptions["Size"] != "M" {
		t.Fatalf("wrong line removed: %+v", cart.Items)
	}

	cart = st.UpdateQuantity("a", -3, nil)
	if len(cart.Items) != 1 {
		t.Fatalf("negative quantity should remove, got %d lines", len(cart.Items))
	}
}

func TestUpdateQuantityOverwritesAndIgnoresMissing(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	st.AddItem(lineItem("a", "10", nil), 1)

	cart := st.UpdateQuantity("a", 5, nil)
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", cart.Items[0].Quantity)
	}
	if !cart.Totals.Subtotal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("subtotal = %s", cart.Totals.Subtotal)
	}

	cart = st.UpdateQuantity("missing", 2, nil)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("update of missing line must be a no-op, got %+v", cart.Items)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	n := &recordingNotifier{}
	st := NewStore("s1", pricing.Default(), n)
	st.AddItem(lineItem("a", "10", nil), 1)

	cart := st.RemoveItem("a", map[string]string{"Size": "L"})
	if len(cart.Items) != 1 {
		t.Fatalf("expected line to remain")
	}
	cart = st.RemoveItem("a", nil)
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart")
	}
	if !cart.Totals.GrandTotal.IsZero() || !cart.Totals.Shipping.IsZero() {
		t.Fatalf("empty cart should have zero totals, got %+v", cart.Totals)
	}
	want := []string{msgAdded, msgRemoved}
	if len(n.messages) != len(want) || n.messages[0] != want[0] || n.messages[1] != want[1] {
		t.Fatalf("unexpected notices %v", n.messages)
	}
}

func TestClearAndItemCount(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	st.AddItem(lineItem("a", "10", nil), 2)
	st.AddItem(lineItem("b", "10", nil), 3)
	if st.ItemCount() != 5 {
		t.Fatalf("expected 5 units, got %d", st.ItemCount())
	}
	cart := st.Clear()
	if len(cart.Items) != 0 || !cart.Totals.Subtotal.IsZero() {
		t.Fatalf("expected cleared cart, got %+v", cart)
	}
	if st.ItemCount() != 0 {
		t.Fatalf("expected 0 units after clear")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	st.AddItem(lineItem("a", "10", map[string]string{"Size": "S"}), 1)

	snap := st.Snapshot()
	snap.Items[0].Quantity = 99
	snap.Items[0].SelectedOptions["Size"] = "XL"

	again := st.Snapshot()
	if again.Items[0].Quantity != 1 || again.Items[0].SelectedOptions["Size"] != "S" {
		t.Fatalf("snapshot aliased store state: %+v", again.Items[0])
	}
}

func TestSubtotalInvariantOverRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))
	products := []string{"p1", "p2", "p3"}
	sizes := []string{"", "6", "7"}
	prices := map[string]decimal.Decimal{
		"p1": decimal.RequireFromString("19.99"),
		"p2": decimal.RequireFromString("49.50"),
		"p3": decimal.RequireFromString("0.10"),
	}

	st := NewStore("s1", pricing.Default(), nil)
	for range 1000 {
		id := products[rng.IntN(len(products))]
		var opts map[string]string
		if size := sizes[rng.IntN(len(sizes))]; size != "" {
			opts = map[string]string{"Size": size}
		}
		var cart domain.Cart
		switch rng.IntN(3) {
		case 0:
			li := domain.LineItem{ProductID: id, UnitPrice: prices[id], SelectedOptions: opts}
			cart = st.AddItem(li, 1+rng.IntN(3))
		case 1:
			cart = st.UpdateQuantity(id, rng.IntN(5)-1, opts)
		default:
			cart = st.RemoveItem(id, opts)
		}

		sum := decimal.Zero
		for _, li := range cart.Items {
			if li.Quantity < 1 {
				t.Fatalf("stored non-positive quantity %d", li.Quantity)
			}
			sum = sum.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
		}
		if !cart.Totals.Subtotal.Equal(sum) {
			t.Fatalf("subtotal %s != sum %s", cart.Totals.Subtotal, sum)
		}
		if cart.Totals.GrandTotal.IsNegative() {
			t.Fatalf("negative grand total")
		}
	}
}

func TestConcurrentAdds(t *testing.T) {
	st := NewStore("s1", pricing.Default(), nil)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.AddItem(lineItem("p1", "1", nil), 1)
		}()
	}
	wg.Wait()

	cart := st.Snapshot()
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 50 {
		t.Fatalf("lost updates: %+v", cart.Items)
	}
}
