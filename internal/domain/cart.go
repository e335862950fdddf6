package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCorruptCart reports persisted or supplied data that cannot form a valid cart.
var ErrCorruptCart = errors.New("corrupt cart data")

// LineItem is one product entry in the cart.
type LineItem struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
	Quantity int
}

// Candidate is a product offered for addition to the cart.
type Candidate struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
}

// Cart is an immutable, insertion-ordered sequence of line items keyed by ID.
// The zero value is the empty cart. Every operation returns a new Cart and
// never touches the receiver's backing array, so a Cart handed out earlier
// keeps its contents forever.
type Cart struct {
	items   []LineItem
	version uint64
}

// NewCart builds a cart from items, copying them. It fails with
// ErrCorruptCart when an id is empty or repeated or a quantity is below 1.
func NewCart(items []LineItem) (Cart, error) {
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.ID == "" {
			return Cart{}, fmt.Errorf("%w: item %d has an empty id", ErrCorruptCart, i)
		}
		if it.Quantity < 1 {
			return Cart{}, fmt.Errorf("%w: item %q has quantity %d", ErrCorruptCart, it.ID, it.Quantity)
		}
		if _, dup := seen[it.ID]; dup {
			return Cart{}, fmt.Errorf("%w: duplicate item %q", ErrCorruptCart, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	if len(items) == 0 {
		return Cart{}, nil
	}
	return Cart{items: append([]LineItem(nil), items...)}, nil
}

// Items returns a copy of the line items in cart order.
func (c Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct line items.
func (c Cart) Len() int { return len(c.items) }

// IsEmpty reports whether the cart has no line items.
func (c Cart) IsEmpty() bool { return len(c.items) == 0 }

// Version is the snapshot version assigned by the owner of the cart.
// A freshly loaded cart has version 0.
func (c Cart) Version() uint64 { return c.version }

// WithVersion returns the same items stamped with version v.
func (c Cart) WithVersion(v uint64) Cart {
	c.version = v
	return c
}

// ItemCount returns the sum of all quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Find returns the line item with the given id.
func (c Cart) Find(id string) (LineItem, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

func (c Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add returns the cart with cand added. An id already present has its
// quantity increased in place (position unchanged); a new id is appended with
// quantity 1. changed is false only for an empty id.
func (c Cart) Add(cand Candidate) (next Cart, changed bool) {
	if cand.ID == "" {
		return c, false
	}
	if c.indexOf(cand.ID) >= 0 {
		return c.Increment(cand.ID)
	}

	items := make([]LineItem, len(c.items), len(c.items)+1)
	copy(items, c.items)
	items = append(items, LineItem{
		ID:       cand.ID,
		Title:    cand.Title,
		ImageURL: cand.ImageURL,
		Price:    cand.Price,
		Quantity: 1,
	})
	return Cart{items: items, version: c.version}, true
}

// Increment returns the cart with the quantity of id raised by one. Unknown
// ids leave the cart unchanged.
func (c Cart) Increment(id string) (next Cart, changed bool) {
	return c.adjust(id, 1)
}

// Decrement returns the cart with the quantity of id lowered by one. The
// quantity never drops below 1 and the item is never removed; unknown ids
// leave the cart unchanged.
func (c Cart) Decrement(id string) (next Cart, changed bool) {
	return c.adjust(id, -1)
}

func (c Cart) adjust(id string, delta int) (Cart, bool) {
	i := c.indexOf(id)
	if i < 0 || c.items[i].Quantity+delta < 1 {
		return c, false
	}

	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	items[i].Quantity += delta
	return Cart{items: items, version: c.version}, true
}

// Equal reports whether both carts hold the same items in the same order.
// Versions are ignored.
func (c Cart) Equal(o Cart) bool {
	if len(c.items) != len(o.items) {
		return false
	}
	for i := range c.items {
		a, b := c.items[i], o.items[i]
		if a.ID != b.ID || a.Title != b.Title || a.ImageURL != b.ImageURL ||
			a.Quantity != b.Quantity || !a.Price.Equal(b.Price) {
			return false
		}
	}
	return true
}
