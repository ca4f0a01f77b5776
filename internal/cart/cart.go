// Package cart holds the visitor cart: the line-item state engine, its
// persistence and the HTTP service around it.
package cart

import (
	"Storefront/internal/catalog"
	"Storefront/internal/money"
)

// Cart is an ordered sequence of line items in insertion order. It is not
// safe for concurrent use; the service serializes access per visitor.
type Cart struct {
	items []LineItem
}

func New(items []LineItem) *Cart {
	c := &Cart{items: make([]LineItem, 0, len(items))}
	c.items = append(c.items, items...)
	return c
}

// Add merges into an existing line with the same id (quantity + 1, stored
// price and snapshot kept) or appends a new line with quantity 1. The
// product's Price is taken as-is, so callers resolve variant pricing first.
func (c *Cart) Add(p catalog.Product, sel catalog.Selection) LineItem {
	id := LineItemID(p.ID, sel)

	if i := c.index(id); i >= 0 {
		c.items[i].Quantity++
		return c.items[i]
	}

	snapshot := make(catalog.Selection, len(sel))
	copy(snapshot, sel)

	item := LineItem{
		ID:        id,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
		Variants:  snapshot,
		Quantity:  1,
	}
	c.items = append(c.items, item)
	return item
}

// SetQuantity sets an absolute quantity. Zero or less removes the line; an
// unknown id is a no-op. It reports whether the cart changed.
func (c *Cart) SetQuantity(id string, qty int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		return c.Remove(id)
	}
	c.items[i].Quantity = qty
	return true
}

func (c *Cart) Remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.items = c.items[:0]
}

// Total is the sum of price x quantity over all lines.
func (c *Cart) Total() money.Amount {
	total := money.Zero()
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Count is the number of units, not lines; it feeds the cart badge.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Get(id string) (LineItem, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

// Prune drops the lines keep rejects and returns how many were removed.
func (c *Cart) Prune(keep func(LineItem) bool) int {
	n := 0
	for _, it := range c.items {
		if keep(it) {
			c.items[n] = it
			n++
		}
	}
	removed := len(c.items) - n
	c.items = c.items[:n]
	return removed
}

func (c *Cart) index(id string) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
