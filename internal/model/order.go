package model

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderAccepted OrderStatus = "accepted" // terminal
)

// OrderLine is a single line of an order. Price is the supplier's catalog
// price at placement time and never changes afterwards.
type OrderLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order binds exactly one vendor to exactly one supplier. A cart spanning
// several suppliers fans out into one Order per supplier with no
// cross-reference between them.
type Order struct {
	ID         string      `json:"id"`
	VendorID   string      `json:"vendor_id"`
	SupplierID string      `json:"supplier_id"`
	Items      []OrderLine `json:"items"`
	TotalCost  float64     `json:"total_cost"`
	Status     OrderStatus `json:"status"`
	Timestamp  string      `json:"timestamp"`
	AcceptedAt string      `json:"accepted_at,omitempty"`
}
