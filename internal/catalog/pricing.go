package catalog

import "Storefront/internal/money"

// ResolvePrice starts from the base price and lets every selected option with
// an override replace the running price, in selection order. Overrides from
// different groups do not combine: the last match wins.
func ResolvePrice(p Product, sel Selection) money.Amount {
	price := p.Price
	for _, c := range sel {
		if override, ok := p.VariantPrices[c.Value]; ok {
			price = override
		}
	}
	return price
}
