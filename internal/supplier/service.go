// Package supplier implements the supplier directory: registration plus
// filtered, paginated listing with optional proximity search.
package supplier

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/docstore"
	"marketplace-service/internal/geo"
	"marketplace-service/internal/model"
)

// Collection is the document collection holding supplier records.
const Collection = "suppliers"

// DefaultLimit is the page size used when the caller does not provide one.
const DefaultLimit = 10

// Service exposes the supplier directory operations over a document store.
type Service struct {
	store docstore.Store
	log   *zap.Logger
}

// NewService creates a supplier directory service.
func NewService(store docstore.Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// LocationInput carries the coordinates of a registration request. Pointer
// fields distinguish absent values from zero coordinates.
type LocationInput struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// ItemInput is one catalog item in a registration request.
type ItemInput struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

// RegisterRequest is the payload for registering a supplier.
type RegisterRequest struct {
	SupplierID string         `json:"supplier_id"`
	Name       string         `json:"name"`
	Location   *LocationInput `json:"location"`
	Items      []ItemInput    `json:"items"`
	Rating     *float64       `json:"rating"`
}

// Register validates and stores a new supplier record. The supplier id is
// client-assigned; registering an existing id fails with a conflict and
// leaves the stored record untouched.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*model.Supplier, error) {
	supplierID := strings.TrimSpace(req.SupplierID)
	name := strings.TrimSpace(req.Name)

	if supplierID == "" || name == "" {
		return nil, apperr.New(apperr.InvalidInput, "Missing required fields")
	}
	if req.Location == nil || req.Location.Lat == nil || req.Location.Lon == nil {
		return nil, apperr.New(apperr.InvalidInput, "Location must include 'lat' and 'lon'")
	}
	if len(req.Items) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "Items must be a non-empty list")
	}

	items := make([]model.CatalogItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Name == nil || strings.TrimSpace(*item.Name) == "" || item.Price == nil || item.Quantity == nil {
			return nil, apperr.New(apperr.InvalidInput, "Each item must have name, price, and quantity")
		}
		items = append(items, model.CatalogItem{
			Name:     strings.TrimSpace(*item.Name),
			Price:    *item.Price,
			Quantity: *item.Quantity,
		})
	}

	if _, err := s.store.Get(ctx, Collection, supplierID); err == nil {
		return nil, apperr.New(apperr.Conflict, "Supplier ID already exists")
	} else if err != docstore.ErrNotFound {
		return nil, err
	}

	rating := 0.0
	if req.Rating != nil {
		rating = *req.Rating
	}

	record := model.Supplier{
		ID:       supplierID,
		Name:     name,
		Location: &model.Location{Lat: *req.Location.Lat, Lon: *req.Location.Lon},
		Rating:   rating,
		Items:    items,
	}
	if err := s.store.Set(ctx, Collection, supplierID, record); err != nil {
		return nil, err
	}

	s.log.Info("supplier registered",
		zap.String("supplier_id", supplierID),
		zap.Int("items", len(items)))
	return &record, nil
}

// Page is one page of a supplier listing.
type Page struct {
	Suppliers  []model.Supplier `json:"suppliers"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// List returns suppliers matching the filters, paginated. The rating sort is
// only available here, not on the proximity listing.
func (s *Service) List(ctx context.Context, f Filters, page, limit int) (*Page, error) {
	suppliers, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := applyFilters(suppliers, f)

	if strings.EqualFold(f.SortBy, "rating") {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Rating > filtered[j].Rating
		})
	}

	return paginate(filtered, page, limit), nil
}

// ListNearby returns suppliers annotated with their distance from the given
// point, filtered, sorted by ascending distance and paginated. Suppliers
// without a stored location are silently excluded.
func (s *Service) ListNearby(ctx context.Context, lat, lon float64, f Filters, page, limit int) (*Page, error) {
	suppliers, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	located := suppliers[:0]
	for _, sup := range suppliers {
		if sup.Location == nil {
			continue
		}
		dist := math.Round(geo.Distance(lat, lon, sup.Location.Lat, sup.Location.Lon)*100) / 100
		sup.DistanceKM = &dist
		located = append(located, sup)
	}

	filtered := applyFilters(located, f)

	sort.SliceStable(filtered, func(i, j int) bool {
		// Missing distance sorts last.
		if filtered[j].DistanceKM == nil {
			return filtered[i].DistanceKM != nil
		}
		if filtered[i].DistanceKM == nil {
			return false
		}
		return *filtered[i].DistanceKM < *filtered[j].DistanceKM
	})

	return paginate(filtered, page, limit), nil
}

func (s *Service) loadAll(ctx context.Context) ([]model.Supplier, error) {
	docs, err := s.store.Find(ctx, Collection, nil)
	if err != nil {
		return nil, err
	}

	suppliers := make([]model.Supplier, 0, len(docs))
	for _, doc := range docs {
		var sup model.Supplier
		if err := doc.Decode(&sup); err != nil {
			return nil, err
		}
		sup.ID = doc.ID
		suppliers = append(suppliers, sup)
	}
	return suppliers, nil
}

func paginate(suppliers []model.Supplier, page, limit int) *Page {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	total := len(suppliers)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &Page{
		Suppliers:  suppliers[start:end],
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
