package cart

import (
	"maps"
	"sync"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/notice"
	"jewelry-storefront/internal/pricing"
)

const (
	msgAdded   = "Added to cart"
	msgRemoved = "Removed from cart"
)

// Recorder counts cart mutations by operation.
type Recorder interface {
	CartMutation(op string)
}

// Store is the cart of one browser session. Every mutation runs to
// completion under the store lock, recomputes totals from scratch and hands
// the new state to the snapshot writer.
type Store struct {
	mu        sync.Mutex
	sessionID string
	cart      domain.Cart

	calc     pricing.Calculator
	notifier notice.Notifier
	recorder Recorder
	save     func(sessionID string, c domain.Cart)
}

// NewStore returns an empty, unpersisted store. Stores handed out by a
// Manager are wired to its snapshot writer instead.
func NewStore(sessionID string, calc pricing.Calculator, notifier notice.Notifier) *Store {
	if notifier == nil {
		notifier = notice.Discard{}
	}
	return &Store{
		sessionID: sessionID,
		cart:      domain.Cart{Items: []domain.LineItem{}, Totals: domain.ZeroTotals()},
		calc:      calc,
		notifier:  notifier,
	}
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// AddItem merges candidate into the line with the same product and options,
// or appends it. A quantity below one adds a single unit; a line never grows
// past domain.MaxLineQuantity.
func (s *Store) AddItem(candidate domain.LineItem, quantity int) domain.Cart {
	if quantity < 1 {
		quantity = 1
	}
	quantity = min(quantity, domain.MaxLineQuantity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(candidate.ProductID, candidate.SelectedOptions); idx >= 0 {
		s.cart.Items[idx].Quantity = min(s.cart.Items[idx].Quantity+quantity, domain.MaxLineQuantity)
	} else {
		li := candidate.Clone()
		li.Quantity = quantity
		if len(li.SelectedOptions) == 0 {
			li.SelectedOptions = nil
		}
		s.cart.Items = append(s.cart.Items, li)
	}

	s.commitLocked("add")
	s.notifier.Success(s.sessionID, msgAdded)
	return s.cart.Clone()
}

// UpdateQuantity overwrites the quantity of the matching line. Zero or a
// negative quantity removes the line; larger values are capped at
// domain.MaxLineQuantity.
func (s *Store) UpdateQuantity(productID string, quantity int, options map[string]string) domain.Cart {
	if quantity <= 0 {
		return s.RemoveItem(productID, options)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID, options)
	if idx < 0 {
		return s.cart.Clone()
	}
	s.cart.Items[idx].Quantity = min(quantity, domain.MaxLineQuantity)

	s.commitLocked("update")
	return s.cart.Clone()
}

// RemoveItem deletes the matching line; a missing line is a no-op.
func (s *Store) RemoveItem(productID string, options map[string]string) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID, options)
	if idx < 0 {
		return s.cart.Clone()
	}
	s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)

	s.commitLocked("remove")
	s.notifier.Success(s.sessionID, msgRemoved)
	return s.cart.Clone()
}

func (s *Store) Clear() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = domain.Cart{Items: []domain.LineItem{}, Totals: domain.ZeroTotals()}
	s.commitLocked("clear")
	return s.cart.Clone()
}

// RemoveOrdered takes the given lines out of the cart after checkout. Each
// matching line loses the ordered quantity and is dropped when nothing is
// left, so units added after the lines were read stay in the cart.
func (s *Store) RemoveOrdered(ordered []domain.LineItem) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, li := range ordered {
		idx := s.indexOf(li.ProductID, li.SelectedOptions)
		if idx < 0 {
			continue
		}
		left := s.cart.Items[idx].Quantity - li.Quantity
		if left > 0 {
			s.cart.Items[idx].Quantity = left
			continue
		}
		s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)
	}

	s.commitLocked("checkout")
	return s.cart.Clone()
}

// Snapshot returns a deep copy of the current cart.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// restore replaces the state with a persisted snapshot. Stored totals are
// ignored and recomputed; lines with a non-positive quantity are dropped.
func (s *Store) restore(c domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.LineItem, 0, len(c.Items))
	for _, li := range c.Items {
		if li.Quantity < 1 {
			continue
		}
		li = li.Clone()
		li.Quantity = min(li.Quantity, domain.MaxLineQuantity)
		if len(li.SelectedOptions) == 0 {
			li.SelectedOptions = nil
		}
		items = append(items, li)
	}
	s.cart = domain.Cart{Items: items, Totals: s.calc.Compute(items)}
}

func (s *Store) indexOf(productID string, options map[string]string) int {
	for i, li := range s.cart.Items {
		if li.ProductID == productID && maps.Equal(li.SelectedOptions, options) {
			return i
		}
	}
	return -1
}

func (s *Store) commitLocked(op string) {
	s.cart.Totals = s.calc.Compute(s.cart.Items)
	if s.recorder != nil {
		s.recorder.CartMutation(op)
	}
	if s.save != nil {
		s.save(s.sessionID, s.cart.Clone())
	}
}
