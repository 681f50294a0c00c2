package model

// InventoryItem is a vendor-owned stock record. One document per item in the
// "vendor_inventory" collection; Name is stored lowercased and is unique per
// vendor. Quantity never goes negative.
type InventoryItem struct {
	ID        string  `json:"id"`
	VendorID  string  `json:"vendor_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Threshold int     `json:"threshold"`
}

// LowStock reports whether the item is at or below its replenishment
// threshold.
func (i *InventoryItem) LowStock() bool {
	return i.Quantity <= i.Threshold
}
