package catalog

import "fmt"

// Catalog is an immutable, ordered product list.
type Catalog struct {
	products []Product
	byID     map[string]int
}

func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %s", ErrInvalidCatalog, p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Empty is the catalog visible before a successful load.
func Empty() *Catalog {
	c, _ := New(nil)
	return c
}

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Categories lists distinct non-empty categories in first-seen order.
func (c *Catalog) Categories() []string {
	return distinct(c.products, func(p Product) string { return p.Category })
}

func distinct(products []Product, field func(Product) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		v := field(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
