// Package order implements the order-fulfillment workflow: placing pending
// orders against supplier catalogs and accepting them, which transfers stock
// from the supplier to the vendor's inventory.
package order

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/docstore"
	"marketplace-service/internal/inventory"
	"marketplace-service/internal/model"
	"marketplace-service/internal/supplier"
)

// Collection is the document collection holding order records.
const Collection = "orders"

// Service runs the order workflow over a document store. Vendor-side stock
// credits go through the inventory service.
type Service struct {
	store     docstore.Store
	inventory *inventory.Service
	log       *zap.Logger
	now       func() time.Time
}

// NewService creates an order workflow service.
func NewService(store docstore.Store, inv *inventory.Service, log *zap.Logger) *Service {
	return &Service{store: store, inventory: inv, log: log, now: time.Now}
}

// PlaceLine is one requested line of a cart. Quantity is a pointer so a
// missing field is distinguishable from zero; both are rejected.
type PlaceLine struct {
	Name       string `json:"name"`
	Quantity   *int   `json:"quantity"`
	SupplierID string `json:"supplier_id"`
}

type supplierGroup struct {
	supplierID string
	lines      []model.OrderLine
}

// Place creates one pending order per supplier referenced in the cart. Prices
// are snapshotted from the supplier's current catalog and stock is validated,
// but no inventory is mutated: acceptance is the enforcement point, so two
// overlapping placements can both succeed against the same nominal stock.
//
// Fan-out across suppliers is not atomic: orders persist per supplier group
// in request order, and a later group's failure leaves earlier orders in
// place.
func (s *Service) Place(ctx context.Context, vendorID string, lines []PlaceLine) ([]model.Order, error) {
	if strings.TrimSpace(vendorID) == "" || len(lines) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "Missing vendor_id or items")
	}

	// Group requested lines per supplier, preserving request order.
	var groups []*supplierGroup
	bySupplier := make(map[string]*supplierGroup)
	for _, line := range lines {
		name := model.NormalizeItemName(line.Name)
		if name == "" || line.Quantity == nil || *line.Quantity <= 0 || line.SupplierID == "" {
			return nil, apperr.New(apperr.InvalidInput, "Missing fields in item '%s'", line.Name)
		}

		group, ok := bySupplier[line.SupplierID]
		if !ok {
			group = &supplierGroup{supplierID: line.SupplierID}
			bySupplier[line.SupplierID] = group
			groups = append(groups, group)
		}
		group.lines = append(group.lines, model.OrderLine{Name: name, Quantity: *line.Quantity})
	}

	var orders []model.Order
	for _, group := range groups {
		ord, err := s.placeForSupplier(ctx, vendorID, group)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *ord)
	}

	s.log.Info("orders placed",
		zap.String("vendor_id", vendorID),
		zap.Int("orders", len(orders)))
	return orders, nil
}

func (s *Service) placeForSupplier(ctx context.Context, vendorID string, group *supplierGroup) (*model.Order, error) {
	sup, err := s.loadSupplier(ctx, group.supplierID)
	if err != nil {
		return nil, err
	}

	var totalCost float64
	fulfilled := make([]model.OrderLine, 0, len(group.lines))
	for _, line := range group.lines {
		idx := sup.FindItem(line.Name)
		if idx < 0 {
			return nil, apperr.New(apperr.NotFound,
				"Item '%s' not found in supplier '%s' inventory", line.Name, group.supplierID)
		}
		catalog := sup.Items[idx]
		if catalog.Quantity < line.Quantity {
			return nil, apperr.New(apperr.InsufficientStock,
				"Not enough quantity for '%s' in supplier '%s'", line.Name, group.supplierID)
		}

		line.Price = catalog.Price
		totalCost += catalog.Price * float64(line.Quantity)
		fulfilled = append(fulfilled, line)
	}

	ord := model.Order{
		VendorID:   vendorID,
		SupplierID: group.supplierID,
		Items:      fulfilled,
		TotalCost:  totalCost,
		Status:     model.OrderPending,
		Timestamp:  s.now().UTC().Format(time.RFC3339),
	}

	id, err := s.store.Add(ctx, Collection, ord)
	if err != nil {
		return nil, err
	}
	ord.ID = id
	return &ord, nil
}

// Accept confirms a pending order on behalf of its supplier. Every line is
// re-validated against the supplier's current catalog; if any line fails, no
// stock moves. On success the supplier decrement is one combined document
// write, after which each line is credited to the vendor's inventory and the
// order becomes accepted.
//
// The supplier write and the vendor credits are separate documents with no
// spanning transaction. A failure between them leaves the order pending, so a
// retry re-validates stock rather than blindly re-decrementing.
func (s *Service) Accept(ctx context.Context, orderID, supplierID string) (*model.Order, error) {
	if orderID == "" || supplierID == "" {
		return nil, apperr.New(apperr.InvalidInput, "order_id and supplier_id are required")
	}

	doc, err := s.store.Get(ctx, Collection, orderID)
	if err == docstore.ErrNotFound {
		return nil, apperr.New(apperr.NotFound, "Order not found")
	}
	if err != nil {
		return nil, err
	}

	var ord model.Order
	if err := doc.Decode(&ord); err != nil {
		return nil, err
	}
	ord.ID = orderID

	if ord.SupplierID != supplierID {
		return nil, apperr.New(apperr.Forbidden, "Unauthorized supplier")
	}
	if ord.Status != model.OrderPending {
		return nil, apperr.New(apperr.Conflict, "Order is not pending")
	}

	// Validate and decrement the supplier catalog in one atomic
	// read-modify-write. Any failing line aborts before anything is written.
	err = s.store.Mutate(ctx, supplier.Collection, supplierID, func(data json.RawMessage) (interface{}, error) {
		var sup model.Supplier
		if err := json.Unmarshal(data, &sup); err != nil {
			return nil, err
		}

		for _, line := range ord.Items {
			idx := sup.FindItem(line.Name)
			if idx < 0 {
				return nil, apperr.New(apperr.NotFound,
					"Item '%s' not found in supplier '%s'", line.Name, supplierID)
			}
			if sup.Items[idx].Quantity < line.Quantity {
				return nil, apperr.New(apperr.InsufficientStock,
					"Not enough stock of '%s' with supplier '%s'", line.Name, supplierID)
			}
		}
		for _, line := range ord.Items {
			idx := sup.FindItem(line.Name)
			sup.Items[idx].Quantity -= line.Quantity
		}
		return sup, nil
	})
	if err == docstore.ErrNotFound {
		return nil, apperr.New(apperr.NotFound, "Supplier not found")
	}
	if err != nil {
		return nil, err
	}

	// Credit the vendor's inventory line by line.
	if _, err := s.inventory.MergeOrderLines(ctx, ord.VendorID, ord.Items); err != nil {
		return nil, err
	}

	acceptedAt := s.now().UTC().Format(time.RFC3339)
	err = s.store.Update(ctx, Collection, orderID, map[string]interface{}{
		"status":      model.OrderAccepted,
		"accepted_at": acceptedAt,
	})
	if err != nil {
		return nil, err
	}

	ord.Status = model.OrderAccepted
	ord.AcceptedAt = acceptedAt

	s.log.Info("order accepted",
		zap.String("order_id", orderID),
		zap.String("supplier_id", supplierID),
		zap.String("vendor_id", ord.VendorID),
		zap.Float64("total_cost", ord.TotalCost))
	return &ord, nil
}

// History returns all orders for a vendor, newest first. Timestamps are
// fixed-width RFC 3339 UTC, so lexicographic comparison orders correctly.
func (s *Service) History(ctx context.Context, vendorID string) ([]model.Order, error) {
	if vendorID == "" {
		return nil, apperr.New(apperr.InvalidInput, "Missing vendor_id")
	}

	docs, err := s.store.Find(ctx, Collection, func(doc docstore.Document) bool {
		var ord model.Order
		if err := doc.Decode(&ord); err != nil {
			return false
		}
		return ord.VendorID == vendorID
	})
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(docs))
	for _, doc := range docs {
		var ord model.Order
		if err := doc.Decode(&ord); err != nil {
			return nil, err
		}
		ord.ID = doc.ID
		orders = append(orders, ord)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp > orders[j].Timestamp
	})
	return orders, nil
}

func (s *Service) loadSupplier(ctx context.Context, supplierID string) (*model.Supplier, error) {
	doc, err := s.store.Get(ctx, supplier.Collection, supplierID)
	if err == docstore.ErrNotFound {
		return nil, apperr.New(apperr.NotFound, "Supplier '%s' not found", supplierID)
	}
	if err != nil {
		return nil, err
	}

	var sup model.Supplier
	if err := doc.Decode(&sup); err != nil {
		return nil, err
	}
	sup.ID = supplierID
	return &sup, nil
}
