package model

import "strings"

// Location is a geographic point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CatalogItem is a sellable item in a supplier's catalog.
type CatalogItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Supplier is a seller-side actor with a catalog of items. Documents live in
// the "suppliers" collection keyed by the externally assigned supplier id.
type Supplier struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Location *Location     `json:"location,omitempty"`
	Rating   float64       `json:"rating"`
	Items    []CatalogItem `json:"items"`

	// DistanceKM is only populated on nearby queries; it is never persisted.
	DistanceKM *float64 `json:"distance_km,omitempty"`
}

// FindItem returns the index of the catalog item matching name
// (case-insensitive, whitespace-trimmed), or -1 if there is no match.
func (s *Supplier) FindItem(name string) int {
	key := NormalizeItemName(name)
	for i := range s.Items {
		if NormalizeItemName(s.Items[i].Name) == key {
			return i
		}
	}
	return -1
}

// NormalizeItemName produces the case-folded key used for item matching in
// supplier catalogs and vendor inventories.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
