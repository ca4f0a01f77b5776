package cart

import (
	"sort"
	"strings"

	"Storefront/internal/catalog"
	"Storefront/internal/money"
)

// MaxQuantity caps a single line so unit counts and totals cannot overflow.
const MaxQuantity = 999

// LineItem is one (product, selection) combination with its quantity. Price
// is captured when the line is created and never refreshed from the catalog.
type LineItem struct {
	ID        string            `json:"cartItemId"`
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	Price     money.Amount      `json:"price"`
	Image     string            `json:"image,omitempty"`
	Category  string            `json:"category,omitempty"`
	Variants  catalog.Selection `json:"variants"`
	Quantity  int               `json:"quantity"`
}

func (l LineItem) Subtotal() money.Amount {
	return l.Price.Mul(l.Quantity)
}

// LineItemID derives the line key: the product id, a dash, then the
// "name:value" pairs sorted and joined by '|'. Equal selections always map
// to the same key regardless of the order they were given in.
func LineItemID(productID string, sel catalog.Selection) string {
	pairs := make([]catalog.Choice, len(sel))
	copy(pairs, sel)
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Name != pairs[j].Name {
			return pairs[i].Name < pairs[j].Name
		}
		return pairs[i].Value < pairs[j].Value
	})

	parts := make([]string, 0, len(pairs))
	for _, c := range pairs {
		parts = append(parts, c.Name+":"+c.Value)
	}
	return productID + "-" + strings.Join(parts, "|")
}

func (l LineItem) valid() bool {
	return l.ID != "" && l.ProductID != "" &&
		l.Quantity >= 1 && l.Quantity <= MaxQuantity &&
		!l.Price.IsNegative()
}
