package supplier

import (
	"strings"

	"marketplace-service/internal/model"
)

// Filters is the recognized set of listing filters. Zero values mean "not
// requested": a MaxPrice of 0 disables the upper price bound rather than
// excluding everything.
type Filters struct {
	// Items restricts matching to the given item names (case-insensitive).
	Items []string
	// RequireAllItems selects AND semantics across Items; false means any-of.
	RequireAllItems bool
	MinRating       float64
	MinQuantity     int
	MinPrice        float64
	MaxPrice        float64
	// Search is a case-insensitive substring match on supplier name or id.
	Search string
	// SortBy currently recognizes "rating" (descending), non-geo listing only.
	SortBy string
}

// itemFilterActive reports whether any per-item bound was requested. When it
// is, matched suppliers carry only their matching items in the result — a
// destructive projection that downstream code must expect.
func (f Filters) itemFilterActive() bool {
	return len(f.Items) > 0 || f.MinQuantity > 0 || f.MinPrice > 0 || f.MaxPrice > 0
}

// applyFilters runs the filtering pipeline over the supplier list:
// name/id search, rating floor, per-item quantity/price bounds, then the
// item-set membership test.
func applyFilters(suppliers []model.Supplier, f Filters) []model.Supplier {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	wanted := make(map[string]bool, len(f.Items))
	for _, name := range f.Items {
		wanted[model.NormalizeItemName(name)] = true
	}

	itemFilter := f.itemFilterActive()

	filtered := []model.Supplier{}
	for _, sup := range suppliers {
		if search != "" &&
			!strings.Contains(strings.ToLower(sup.Name), search) &&
			!strings.Contains(strings.ToLower(sup.ID), search) {
			continue
		}

		if f.MinRating > 0 && sup.Rating < f.MinRating {
			continue
		}

		var matched []model.CatalogItem
		matchedNames := make(map[string]bool)
		for _, item := range sup.Items {
			key := model.NormalizeItemName(item.Name)
			if len(wanted) > 0 && !wanted[key] {
				continue
			}
			if f.MinQuantity > 0 && item.Quantity < f.MinQuantity {
				continue
			}
			if f.MinPrice > 0 && item.Price < f.MinPrice {
				continue
			}
			if f.MaxPrice > 0 && item.Price > f.MaxPrice {
				continue
			}
			matched = append(matched, item)
			matchedNames[key] = true
		}

		if len(wanted) > 0 {
			if f.RequireAllItems {
				missing := false
				for name := range wanted {
					if !matchedNames[name] {
						missing = true
						break
					}
				}
				if missing {
					continue
				}
			} else if len(matchedNames) == 0 {
				continue
			}
		}

		if itemFilter {
			if len(matched) == 0 {
				continue
			}
			sup.Items = matched
		}

		filtered = append(filtered, sup)
	}
	return filtered
}
