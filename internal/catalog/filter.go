package catalog

// All disables a filter level.
const All = "All"

// Filter is the single-selection category/subcategory state over a catalog.
type Filter struct {
	catalog     *Catalog
	category    string
	subCategory string
}

func NewFilter(c *Catalog) *Filter {
	if c == nil {
		c = Empty()
	}
	return &Filter{catalog: c, category: All, subCategory: All}
}

// SelectCategory changes the parent filter and always resets the subcategory.
func (f *Filter) SelectCategory(category string) {
	if category == "" {
		category = All
	}
	f.category = category
	f.subCategory = All
}

func (f *Filter) SelectSubCategory(subCategory string) {
	if subCategory == "" {
		subCategory = All
	}
	f.subCategory = subCategory
}

func (f *Filter) Category() string { return f.category }

// SubCategory is the effective subcategory: All whenever the current
// category offers no subcategories.
func (f *Filter) SubCategory() string {
	if len(f.SubCategories()) == 0 {
		return All
	}
	return f.subCategory
}

// SubCategories lists the distinct non-empty subcategories among products
// passing the category filter. An empty result hides the selector.
func (f *Filter) SubCategories() []string {
	return distinct(f.byCategory(), func(p Product) string { return p.SubCategory })
}

func (f *Filter) ShowSubCategories() bool {
	return len(f.SubCategories()) > 0
}

// Visible applies the category filter, then the subcategory filter, keeping
// catalog order.
func (f *Filter) Visible() []Product {
	in := f.byCategory()
	sub := f.SubCategory()
	if sub == All {
		return in
	}

	out := make([]Product, 0, len(in))
	for _, p := range in {
		if p.SubCategory == sub {
			out = append(out, p)
		}
	}
	return out
}

func (f *Filter) byCategory() []Product {
	all := f.catalog.products
	if f.category == All {
		out := make([]Product, len(all))
		copy(out, all)
		return out
	}

	out := make([]Product, 0, len(all))
	for _, p := range all {
		if p.Category == f.category {
			out = append(out, p)
		}
	}
	return out
}
