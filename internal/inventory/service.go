// Package inventory manages vendor-owned stock: manual item management,
// low-stock alerts, and crediting stock from accepted orders.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/docstore"
	"marketplace-service/internal/model"
)

// Collection is the document collection holding vendor inventory items.
const Collection = "vendor_inventory"

// ordersCollection mirrors the order workflow's collection name; declared
// here so absorbing an accepted order does not pull in the order package.
const ordersCollection = "orders"

// Service exposes vendor inventory operations over a document store.
type Service struct {
	store docstore.Store
	log   *zap.Logger
}

// NewService creates a vendor inventory service.
func NewService(store docstore.Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// AddRequest is the payload for manually adding an inventory item. Pointer
// fields distinguish absent values from zeros.
type AddRequest struct {
	VendorID  string   `json:"vendor_id"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Quantity  *int     `json:"quantity"`
	Threshold *int     `json:"threshold"`
}

// Add stores a new inventory item for a vendor. Item names are lowercased and
// unique per vendor; adding a duplicate fails with a conflict.
func (s *Service) Add(ctx context.Context, req AddRequest) (*model.InventoryItem, error) {
	vendorID := strings.TrimSpace(req.VendorID)
	name := model.NormalizeItemName(req.Name)

	if vendorID == "" || name == "" || req.Price == nil || req.Quantity == nil {
		return nil, apperr.New(apperr.InvalidInput, "Missing required fields")
	}
	if *req.Quantity < 0 {
		return nil, apperr.New(apperr.InvalidInput, "Quantity cannot be negative")
	}

	threshold := 0
	if req.Threshold != nil {
		if *req.Threshold < 0 {
			return nil, apperr.New(apperr.InvalidInput, "Threshold cannot be negative")
		}
		threshold = *req.Threshold
	}

	if existing, err := s.findItem(ctx, vendorID, name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.New(apperr.Conflict, "Item already exists for this vendor")
	}

	item := model.InventoryItem{
		VendorID:  vendorID,
		Name:      name,
		Price:     *req.Price,
		Quantity:  *req.Quantity,
		Threshold: threshold,
	}
	id, err := s.store.Add(ctx, Collection, item)
	if err != nil {
		return nil, err
	}
	item.ID = id

	s.log.Info("inventory item added",
		zap.String("vendor_id", vendorID),
		zap.String("name", name))
	return &item, nil
}

// ListByVendor returns all inventory items of a vendor, sorted by name.
func (s *Service) ListByVendor(ctx context.Context, vendorID string) ([]model.InventoryItem, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, apperr.New(apperr.InvalidInput, "Missing vendor_id")
	}

	items, err := s.loadVendorItems(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// UpdateRequest is the payload for a partial inventory item update. Only
// provided fields are applied; at least one must be present.
type UpdateRequest struct {
	VendorID  string   `json:"vendor_id"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Quantity  *int     `json:"quantity"`
	Threshold *int     `json:"threshold"`
}

// Update applies the provided fields to an existing item. Negative quantity
// or threshold values are rejected before anything is written.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*model.InventoryItem, error) {
	vendorID := strings.TrimSpace(req.VendorID)
	name := model.NormalizeItemName(req.Name)
	if vendorID == "" || name == "" {
		return nil, apperr.New(apperr.InvalidInput, "Missing vendor_id or item name")
	}

	fields := make(map[string]interface{})
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, apperr.New(apperr.InvalidInput, "Quantity cannot be negative")
		}
		fields["quantity"] = *req.Quantity
	}
	if req.Threshold != nil {
		if *req.Threshold < 0 {
			return nil, apperr.New(apperr.InvalidInput, "Threshold cannot be negative")
		}
		fields["threshold"] = *req.Threshold
	}
	if len(fields) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "No valid fields to update")
	}

	item, err := s.findItem(ctx, vendorID, name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.New(apperr.NotFound, "Item not found")
	}

	if err := s.store.Update(ctx, Collection, item.ID, fields); err != nil {
		return nil, err
	}

	if v, ok := fields["price"]; ok {
		item.Price = v.(float64)
	}
	if v, ok := fields["quantity"]; ok {
		item.Quantity = v.(int)
	}
	if v, ok := fields["threshold"]; ok {
		item.Threshold = v.(int)
	}

	s.log.Info("inventory item updated",
		zap.String("vendor_id", vendorID),
		zap.String("name", name))
	return item, nil
}

// Delete removes a vendor's item by name.
func (s *Service) Delete(ctx context.Context, vendorID, name string) error {
	vendorID = strings.TrimSpace(vendorID)
	name = model.NormalizeItemName(name)
	if vendorID == "" || name == "" {
		return apperr.New(apperr.InvalidInput, "Missing 'vendor_id' or 'name' in request body")
	}

	item, err := s.findItem(ctx, vendorID, name)
	if err != nil {
		return err
	}
	if item == nil {
		return apperr.New(apperr.NotFound, "Item '%s' not found for vendor '%s'", name, vendorID)
	}

	if err := s.store.Delete(ctx, Collection, item.ID); err != nil {
		return err
	}

	s.log.Info("inventory item deleted",
		zap.String("vendor_id", vendorID),
		zap.String("name", name))
	return nil
}

// LowStock returns the vendor's items at or below their threshold.
func (s *Service) LowStock(ctx context.Context, vendorID string) ([]model.InventoryItem, error) {
	items, err := s.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	low := make([]model.InventoryItem, 0)
	for _, item := range items {
		if item.LowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}

// AbsorbOrder credits every line of an accepted order into the vendor's
// inventory. It is deliberately not idempotent: absorbing the same order
// twice double-credits, and acceptance already performs this merge, so this
// is an alternate path for inventories reconciled out of band.
func (s *Service) AbsorbOrder(ctx context.Context, vendorID, orderID string) ([]string, error) {
	if vendorID == "" || orderID == "" {
		return nil, apperr.New(apperr.InvalidInput, "vendor_id and order_id are required")
	}

	doc, err := s.store.Get(ctx, ordersCollection, orderID)
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

	if ord.Status != model.OrderAccepted {
		return nil, apperr.New(apperr.Conflict, "Order is not accepted yet")
	}
	if ord.VendorID != vendorID {
		return nil, apperr.New(apperr.Forbidden, "This order does not belong to the vendor")
	}

	return s.MergeOrderLines(ctx, vendorID, ord.Items)
}

// MergeOrderLines applies order lines to the vendor's inventory: an existing
// item (matched by case-folded name) gets its quantity incremented; an absent
// item is created with the line's price and threshold 0. Returns a
// human-readable note per line.
func (s *Service) MergeOrderLines(ctx context.Context, vendorID string, lines []model.OrderLine) ([]string, error) {
	details := make([]string, 0, len(lines))
	for _, line := range lines {
		name := model.NormalizeItemName(line.Name)

		existing, err := s.findItem(ctx, vendorID, name)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			newQuantity := 0
			err := s.store.Mutate(ctx, Collection, existing.ID, func(data json.RawMessage) (interface{}, error) {
				var item model.InventoryItem
				if err := json.Unmarshal(data, &item); err != nil {
					return nil, err
				}
				item.Quantity += line.Quantity
				newQuantity = item.Quantity
				return item, nil
			})
			if err != nil {
				return nil, err
			}
			details = append(details, fmt.Sprintf("Updated %s to %d", name, newQuantity))
			continue
		}

		item := model.InventoryItem{
			VendorID:  vendorID,
			Name:      name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Threshold: 0,
		}
		if _, err := s.store.Add(ctx, Collection, item); err != nil {
			return nil, err
		}
		details = append(details, fmt.Sprintf("Added new item: %s", name))
	}

	s.log.Info("inventory credited from order lines",
		zap.String("vendor_id", vendorID),
		zap.Int("lines", len(lines)))
	return details, nil
}

// findItem looks up a vendor's item by normalized name. Returns nil without
// error when no item matches.
func (s *Service) findItem(ctx context.Context, vendorID, name string) (*model.InventoryItem, error) {
	docs, err := s.store.Find(ctx, Collection, func(doc docstore.Document) bool {
		var item model.InventoryItem
		if err := doc.Decode(&item); err != nil {
			return false
		}
		return item.VendorID == vendorID && model.NormalizeItemName(item.Name) == name
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var item model.InventoryItem
	if err := docs[0].Decode(&item); err != nil {
		return nil, err
	}
	item.ID = docs[0].ID
	return &item, nil
}

func (s *Service) loadVendorItems(ctx context.Context, vendorID string) ([]model.InventoryItem, error) {
	docs, err := s.store.Find(ctx, Collection, func(doc docstore.Document) bool {
		var item model.InventoryItem
		if err := doc.Decode(&item); err != nil {
			return false
		}
		return item.VendorID == vendorID
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.InventoryItem, 0, len(docs))
	for _, doc := range docs {
		var item model.InventoryItem
		if err := doc.Decode(&item); err != nil {
			return nil, err
		}
		item.ID = doc.ID
		items = append(items, item)
	}
	return items, nil
}
