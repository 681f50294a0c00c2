package order

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/docstore"
	"marketplace-service/internal/inventory"
	"marketplace-service/internal/model"
	"marketplace-service/internal/supplier"
)

func newTestService() (*Service, *inventory.Service, *docstore.Memory) {
	store := docstore.NewMemory()
	inv := inventory.NewService(store, zap.NewNop())
	return NewService(store, inv, zap.NewNop()), inv, store
}

func seedSupplier(t *testing.T, store *docstore.Memory, id string, items ...model.CatalogItem) {
	t.Helper()
	err := store.Set(context.Background(), supplier.Collection, id, model.Supplier{
		ID:       id,
		Name:     "Supplier " + id,
		Location: &model.Location{Lat: 1, Lon: 1},
		Items:    items,
	})
	if err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
}

func loadSupplierStock(t *testing.T, store *docstore.Memory, id, item string) int {
	t.Helper()
	doc, err := store.Get(context.Background(), supplier.Collection, id)
	if err != nil {
		t.Fatalf("load supplier: %v", err)
	}
	var sup model.Supplier
	if err := doc.Decode(&sup); err != nil {
		t.Fatalf("decode supplier: %v", err)
	}
	idx := sup.FindItem(item)
	if idx < 0 {
		t.Fatalf("item %q not in supplier %q", item, id)
	}
	return sup.Items[idx].Quantity
}

func countOrders(t *testing.T, store *docstore.Memory) int {
	t.Helper()
	docs, err := store.Find(context.Background(), Collection, nil)
	if err != nil {
		t.Fatalf("find orders: %v", err)
	}
	return len(docs)
}

func qty(v int) *int { return &v }

func TestPlaceValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	cases := []struct {
		name     string
		vendorID string
		lines    []PlaceLine
	}{
		{"empty vendor", "", []PlaceLine{{Name: "rice", Quantity: qty(1), SupplierID: "s1"}}},
		{"no items", "v1", nil},
		{"missing quantity", "v1", []PlaceLine{{Name: "rice", SupplierID: "s1"}}},
		{"zero quantity", "v1", []PlaceLine{{Name: "rice", Quantity: qty(0), SupplierID: "s1"}}},
		{"missing supplier", "v1", []PlaceLine{{Name: "rice", Quantity: qty(1)}}},
		{"missing name", "v1", []PlaceLine{{Quantity: qty(1), SupplierID: "s1"}}},
	}

	for _, tc := range cases {
		if _, err := svc.Place(ctx, tc.vendorID, tc.lines); !apperr.IsKind(err, apperr.InvalidInput) {
			t.Errorf("%s: expected InvalidInput, got %v", tc.name, err)
		}
	}
	if n := countOrders(t, store); n != 0 {
		t.Errorf("no order should be created by rejected placements, found %d", n)
	}
}

func TestPlaceInsufficientStockCreatesNoOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	_, err := svc.Place(ctx, "v1", []PlaceLine{{Name: "rice", Quantity: qty(200), SupplierID: "s1"}})
	if !apperr.IsKind(err, apperr.InsufficientStock) {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}
	if n := countOrders(t, store); n != 0 {
		t.Errorf("rejected placement must not persist an order, found %d", n)
	}
}

func TestPlaceUnknownSupplierAndItem(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	_, err := svc.Place(ctx, "v1", []PlaceLine{{Name: "rice", Quantity: qty(1), SupplierID: "ghost"}})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("unknown supplier: expected NotFound, got %v", err)
	}

	_, err = svc.Place(ctx, "v1", []PlaceLine{{Name: "caviar", Quantity: qty(1), SupplierID: "s1"}})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("unknown item: expected NotFound, got %v", err)
	}
}

func TestPlaceSnapshotsPriceWithoutTouchingStock(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	orders, err := svc.Place(ctx, "v1", []PlaceLine{{Name: "Rice", Quantity: qty(20), SupplierID: "s1"}})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %d", len(orders))
	}

	ord := orders[0]
	if ord.Status != model.OrderPending {
		t.Errorf("new order should be pending, got %q", ord.Status)
	}
	if ord.TotalCost != 200 {
		t.Errorf("total_cost should be 200, got %f", ord.TotalCost)
	}
	if len(ord.Items) != 1 || ord.Items[0].Price != 10 || ord.Items[0].Quantity != 20 {
		t.Errorf("order line should snapshot the catalog price: %+v", ord.Items)
	}
	if ord.ID == "" || ord.Timestamp == "" {
		t.Errorf("order should carry an id and timestamp: %+v", ord)
	}

	if stock := loadSupplierStock(t, store, "s1", "rice"); stock != 100 {
		t.Errorf("placement must not touch supplier stock, got %d", stock)
	}
}

func TestPlaceFansOutPerSupplier(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})
	seedSupplier(t, store, "s2", model.CatalogItem{Name: "wheat", Price: 5, Quantity: 50})

	orders, err := svc.Place(ctx, "v1", []PlaceLine{
		{Name: "rice", Quantity: qty(10), SupplierID: "s1"},
		{Name: "wheat", Quantity: qty(5), SupplierID: "s2"},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("multi-supplier cart should fan out into two orders, got %d", len(orders))
	}
	if orders[0].SupplierID != "s1" || orders[1].SupplierID != "s2" {
		t.Errorf("orders should follow request order: %+v", orders)
	}
	if orders[0].TotalCost != 100 || orders[1].TotalCost != 25 {
		t.Errorf("per-supplier totals wrong: %f, %f", orders[0].TotalCost, orders[1].TotalCost)
	}
}

func TestPlaceFanOutIsNotAtomicAcrossSuppliers(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	_, err := svc.Place(ctx, "v1", []PlaceLine{
		{Name: "rice", Quantity: qty(10), SupplierID: "s1"},
		{Name: "wheat", Quantity: qty(5), SupplierID: "ghost"},
	})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound for the second group, got %v", err)
	}

	// The first supplier's order was already persisted when the second
	// group failed.
	if n := countOrders(t, store); n != 1 {
		t.Errorf("earlier group's order should remain, found %d orders", n)
	}
}

func TestAcceptTransfersStock(t *testing.T) {
	ctx := context.Background()
	svc, inv, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	orders, err := svc.Place(ctx, "v1", []PlaceLine{{Name: "rice", Quantity: qty(20), SupplierID: "s1"}})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	before := loadSupplierStock(t, store, "s1", "rice")

	accepted, err := svc.Accept(ctx, orders[0].ID, "s1")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != model.OrderAccepted || accepted.AcceptedAt == "" {
		t.Errorf("order should be accepted with a timestamp: %+v", accepted)
	}

	after := loadSupplierStock(t, store, "s1", "rice")
	if after != 80 {
		t.Errorf("supplier stock should be 80 after acceptance, got %d", after)
	}

	items, err := inv.ListByVendor(ctx, "v1")
	if err != nil {
		t.Fatalf("ListByVendor: %v", err)
	}
	if len(items) != 1 || items[0].Name != "rice" || items[0].Quantity != 20 || items[0].Price != 10 {
		t.Fatalf("vendor should hold 20 rice at price 10: %+v", items)
	}
	if items[0].Threshold != 0 {
		t.Errorf("items created by acceptance get threshold 0, got %d", items[0].Threshold)
	}

	// Stock conservation: what left the supplier arrived at the vendor.
	if before-after != items[0].Quantity {
		t.Errorf("conservation violated: supplier -%d, vendor +%d", before-after, items[0].Quantity)
	}

	// The persisted order reflects the transition.
	history, _ := svc.History(ctx, "v1")
	if len(history) != 1 || history[0].Status != model.OrderAccepted {
		t.Errorf("history should show the accepted order: %+v", history)
	}
}

func TestAcceptWrongSupplierForbidden(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})
	seedSupplier(t, store, "s2", model.CatalogItem{Name: "rice", Price: 9, Quantity: 100})

	orders, _ := svc.Place(ctx, "v1", []PlaceLine{{Name: "rice", Quantity: qty(5), SupplierID: "s1"}})

	_, err := svc.Accept(ctx, orders[0].ID, "s2")
	if !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if stock := loadSupplierStock(t, store, "s1", "rice"); stock != 100 {
		t.Errorf("stock must be untouched after a forbidden accept, got %d", stock)
	}
}

func TestAcceptTwiceDecrementsOnce(t *testing.T) {
	ctx := context.Background()
	svc, inv, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	orders, _ := svc.Place(ctx, "v1", []PlaceLine{{Name: "rice", Quantity: qty(20), SupplierID: "s1"}})
	if _, err := svc.Accept(ctx, orders[0].ID, "s1"); err != nil {
		t.Fatalf("first Accept: %v", err)
	}

	_, err := svc.Accept(ctx, orders[0].ID, "s1")
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("second accept should fail with Conflict, got %v", err)
	}

	if stock := loadSupplierStock(t, store, "s1", "rice"); stock != 80 {
		t.Errorf("stock must be decremented exactly once, got %d", stock)
	}
	items, _ := inv.ListByVendor(ctx, "v1")
	if len(items) != 1 || items[0].Quantity != 20 {
		t.Errorf("vendor must be credited exactly once: %+v", items)
	}
}

func TestAcceptRevalidatesCurrentStock(t *testing.T) {
	ctx := context.Background()
	svc, inv, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	orders, _ := svc.Place(ctx, "v1", []PlaceLine{{Name: "rice", Quantity: qty(20), SupplierID: "s1"}})

	// Stock shrank between placement and acceptance.
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 5})

	_, err := svc.Accept(ctx, orders[0].ID, "s1")
	if !apperr.IsKind(err, apperr.InsufficientStock) {
		t.Fatalf("expected InsufficientStock at acceptance time, got %v", err)
	}

	if stock := loadSupplierStock(t, store, "s1", "rice"); stock != 5 {
		t.Errorf("failed acceptance must not move stock, got %d", stock)
	}
	items, _ := inv.ListByVendor(ctx, "v1")
	if len(items) != 0 {
		t.Errorf("failed acceptance must not credit the vendor: %+v", items)
	}

	history, _ := svc.History(ctx, "v1")
	if history[0].Status != model.OrderPending {
		t.Errorf("order should stay pending after a failed accept: %+v", history[0])
	}
}

func TestAcceptAllOrNothingAcrossLines(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1",
		model.CatalogItem{Name: "rice", Price: 10, Quantity: 100},
		model.CatalogItem{Name: "wheat", Price: 5, Quantity: 50})

	orders, _ := svc.Place(ctx, "v1", []PlaceLine{
		{Name: "rice", Quantity: qty(10), SupplierID: "s1"},
		{Name: "wheat", Quantity: qty(40), SupplierID: "s1"},
	})
	if len(orders) != 1 {
		t.Fatalf("same-supplier lines should form one order, got %d", len(orders))
	}

	// Make the second line unfulfillable.
	seedSupplier(t, store, "s1",
		model.CatalogItem{Name: "rice", Price: 10, Quantity: 100},
		model.CatalogItem{Name: "wheat", Price: 5, Quantity: 10})

	_, err := svc.Accept(ctx, orders[0].ID, "s1")
	if !apperr.IsKind(err, apperr.InsufficientStock) {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}

	// Neither line moved: no partial deduction.
	if rice := loadSupplierStock(t, store, "s1", "rice"); rice != 100 {
		t.Errorf("rice must be untouched, got %d", rice)
	}
	if wheat := loadSupplierStock(t, store, "s1", "wheat"); wheat != 10 {
		t.Errorf("wheat must be untouched, got %d", wheat)
	}
}

func TestHistorySortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService()
	seedSupplier(t, store, "s1", model.CatalogItem{Name: "rice", Price: 10, Quantity: 100})

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	first, _ := svc.Place(ctx, "v1", []PlaceLine{{Name: "rice", Quantity: qty(1), SupplierID: "s1"}})

	svc.now = func() time.Time { return base.Add(time.Hour) }
	second, _ := svc.Place(ctx, "v1", []PlaceLine{{Name: "rice", Quantity: qty(2), SupplierID: "s1"}})

	// Another vendor's order must not leak into v1's history.
	_, _ = svc.Place(ctx, "v2", []PlaceLine{{Name: "rice", Quantity: qty(3), SupplierID: "s1"}})

	history, err := svc.History(ctx, "v1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 orders for v1, got %d", len(history))
	}
	if history[0].ID != second[0].ID || history[1].ID != first[0].ID {
		t.Errorf("history should be newest first: %+v", history)
	}
}

func TestHistoryRequiresVendor(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.History(context.Background(), ""); !apperr.IsKind(err, apperr.InvalidInput) {
		t.Errorf("expected InvalidInput, got %v", err)
	}
}
