// Package cart holds the pure line-item operations applied to a shopper's
// cart. Nothing here does I/O and nothing can fail; out-of-range quantities
// are clamped silently.
package cart

import (
	"maps"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Ledger struct {
	cart  *domain.Cart
	now   func() time.Time
	newID func() string
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// New wraps c. Mutations are applied to c in place.
func New(c *domain.Cart, opts ...Option) *Ledger {
	l := &Ledger{
		cart:  c,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) Cart() *domain.Cart {
	return l.cart
}

// AddItem merges spec into an existing line with the same product, variation
// and attribute snapshot, or appends a new line. It opens the drawer.
func (l *Ledger) AddItem(spec domain.LineItemSpec) domain.LineItem {
	qty := spec.Quantity
	if qty < 1 {
		qty = 1
	}
	now := l.now()
	l.cart.IsOpen = true
	l.cart.UpdatedAt = now

	for i := range l.cart.Items {
		item := &l.cart.Items[i]
		if !sameIdentity(*item, spec) {
			continue
		}
		if spec.MaxQuantity > 0 {
			item.MaxQuantity = spec.MaxQuantity
		}
		item.Quantity = clamp(item.Quantity+qty, item.MaxQuantity)
		return *item
	}

	item := domain.LineItem{
		ID:                 l.newID(),
		ProductID:          spec.ProductID,
		VariationID:        spec.VariationID,
		Name:               spec.Name,
		Slug:               spec.Slug,
		UnitPrice:          spec.UnitPrice,
		RegularPrice:       spec.RegularPrice,
		Quantity:           clamp(qty, spec.MaxQuantity),
		MaxQuantity:        spec.MaxQuantity,
		Attributes:         spec.Attributes.Clone(),
		RequiredAttributes: append([]string(nil), spec.RequiredAttributes...),
		Image:              spec.Image,
		AddedAt:            now,
	}
	l.cart.Items = append(l.cart.Items, item)
	return item
}

// RemoveItem deletes the line with the given id. Unknown ids are ignored.
func (l *Ledger) RemoveItem(id string) {
	for i := range l.cart.Items {
		if l.cart.Items[i].ID == id {
			l.cart.Items = append(l.cart.Items[:i], l.cart.Items[i+1:]...)
			l.cart.UpdatedAt = l.now()
			return
		}
	}
}

// UpdateQuantity sets the quantity of a line, clamped to [1, max]. A
// quantity of zero or less removes the line.
func (l *Ledger) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		l.RemoveItem(id)
		return
	}
	for i := range l.cart.Items {
		item := &l.cart.Items[i]
		if item.ID == id {
			item.Quantity = clamp(quantity, item.MaxQuantity)
			l.cart.UpdatedAt = l.now()
			return
		}
	}
}

// Deduct takes ordered lines out of the cart. Each line's quantity drops by
// the ordered quantity and the line goes when nothing is left, so items
// added after the order was read survive.
func (l *Ledger) Deduct(ordered []domain.LineItem) {
	for _, o := range ordered {
		for i := range l.cart.Items {
			item := &l.cart.Items[i]
			if item.ID != o.ID {
				continue
			}
			if left := item.Quantity - o.Quantity; left > 0 {
				item.Quantity = left
			} else {
				l.cart.Items = append(l.cart.Items[:i], l.cart.Items[i+1:]...)
			}
			break
		}
	}
	l.cart.UpdatedAt = l.now()
}

func (l *Ledger) Clear() {
	l.cart.Items = nil
	l.cart.UpdatedAt = l.now()
}

func (l *Ledger) Open()   { l.cart.IsOpen = true }
func (l *Ledger) Close()  { l.cart.IsOpen = false }
func (l *Ledger) Toggle() { l.cart.IsOpen = !l.cart.IsOpen }

// Subtotal sums unit price × quantity using the prices frozen at add time.
func (l *Ledger) Subtotal() decimal.Decimal {
	return Subtotal(l.cart)
}

func (l *Ledger) ItemCount() int {
	return ItemCount(l.cart)
}

// Incomplete returns the lines whose attribute snapshot misses an attribute
// that was required when they were added.
func (l *Ledger) Incomplete() []domain.LineItem {
	var out []domain.LineItem
	for _, item := range l.cart.Items {
		if !item.Complete() {
			out = append(out, item)
		}
	}
	return out
}

func Subtotal(c *domain.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func ItemCount(c *domain.Cart) int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func sameIdentity(item domain.LineItem, spec domain.LineItemSpec) bool {
	if item.ProductID != spec.ProductID || item.VariationID != spec.VariationID {
		return false
	}
	if len(item.Attributes) == 0 && len(spec.Attributes) == 0 {
		return true
	}
	return maps.Equal(item.Attributes, spec.Attributes)
}

func clamp(qty, limit int) int {
	if qty < 1 {
		qty = 1
	}
	if limit > 0 && qty > limit {
		qty = limit
	}
	return qty
}
