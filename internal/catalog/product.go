package catalog

import (
	"errors"
	"fmt"

	"Storefront/internal/money"
)

var (
	ErrNotLoaded      = errors.New("catalog not loaded")
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrNotFound       = errors.New("product not found")
	ErrInvalidVariant = errors.New("invalid variant")
)

type Variant struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

func (v Variant) Has(option string) bool {
	for _, o := range v.Options {
		if o == option {
			return true
		}
	}
	return false
}

type Product struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description"`
	Price         money.Amount            `json:"price"`
	Category      string                  `json:"category,omitempty"`
	SubCategory   string                  `json:"subCategory,omitempty"`
	Image         string                  `json:"image,omitempty"`
	Image2        string                  `json:"image2,omitempty"`
	Image3        string                  `json:"image3,omitempty"`
	Image4        string                  `json:"image4,omitempty"`
	Variants      []Variant               `json:"variants,omitempty"`
	VariantPrices map[string]money.Amount `json:"variantPrices,omitempty"`
}

// Images returns the non-empty image references in display order.
func (p Product) Images() []string {
	out := make([]string, 0, 4)
	for _, img := range []string{p.Image, p.Image2, p.Image3, p.Image4} {
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}

func (p Product) HasCarousel() bool {
	return len(p.Images()) > 1
}

func (p Product) Variant(name string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

func (p Product) validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: product with empty id", ErrInvalidCatalog)
	}
	if p.Price.IsNegative() || !p.Price.IsWhole() {
		return fmt.Errorf("%w: product %s price %s is not a whole non-negative amount", ErrInvalidCatalog, p.ID, p.Price)
	}
	for opt, price := range p.VariantPrices {
		if price.IsNegative() || !price.IsWhole() {
			return fmt.Errorf("%w: product %s option %q price %s is not a whole non-negative amount", ErrInvalidCatalog, p.ID, opt, price)
		}
	}
	return nil
}
