package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/supplier"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"
)

// SupplierHandler serves the supplier directory endpoints.
type SupplierHandler struct {
	suppliers *supplier.Service
}

// NewSupplierHandler creates a supplier handler.
func NewSupplierHandler(suppliers *supplier.Service) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

// Register handles POST /api/suppliers
func (h *SupplierHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordSupplierOperation("register")

	var req supplier.RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid supplier registration payload", zap.Error(err))
		return renderError(c, apperr.New(apperr.InvalidInput, "Invalid request data"))
	}

	defer prometheus.TrackStoreOperation("insert")(time.Now())

	record, err := h.suppliers.Register(c.Request().Context(), req)
	if err != nil {
		log.Warn("Supplier registration rejected",
			zap.String("supplier_id", req.SupplierID),
			zap.Error(err))
		return renderError(c, err)
	}

	log.Info("Supplier registered",
		zap.String("supplier_id", record.ID),
		zap.String("name", record.Name))
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Supplier added successfully",
		"supplier": record,
	})
}

// List handles GET /api/suppliers
func (h *SupplierHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordSupplierOperation("list")

	filters, page, limit, err := parseListParams(c)
	if err != nil {
		return renderError(c, err)
	}
	filters.SortBy = c.QueryParam("sort_by")

	defer prometheus.TrackStoreOperation("query")(time.Now())

	result, err := h.suppliers.List(c.Request().Context(), filters, page, limit)
	if err != nil {
		return renderError(c, err)
	}

	log.Info("Suppliers listed",
		zap.Int("total", result.Total),
		zap.Int("page", result.Page))
	return c.JSON(http.StatusOK, result)
}

// ListNearby handles GET /api/suppliers/nearby
func (h *SupplierHandler) ListNearby(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordSupplierOperation("nearby")

	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if latErr != nil || lonErr != nil {
		return renderError(c, apperr.New(apperr.InvalidInput,
			"Latitude and longitude must be provided and valid floats"))
	}

	filters, page, limit, err := parseListParams(c)
	if err != nil {
		return renderError(c, err)
	}

	defer prometheus.TrackStoreOperation("query")(time.Now())

	result, err := h.suppliers.ListNearby(c.Request().Context(), lat, lon, filters, page, limit)
	if err != nil {
		return renderError(c, err)
	}

	log.Info("Nearby suppliers listed",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("total", result.Total))
	return c.JSON(http.StatusOK, result)
}

// parseListParams extracts the shared filter and pagination query parameters.
func parseListParams(c echo.Context) (supplier.Filters, int, int, error) {
	var f supplier.Filters

	// "item" is accepted as an alias of "items" for nearby queries.
	itemParam := c.QueryParam("items")
	if itemParam == "" {
		itemParam = c.QueryParam("item")
	}
	if itemParam != "" {
		for _, name := range strings.Split(itemParam, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				f.Items = append(f.Items, trimmed)
			}
		}
	}

	f.RequireAllItems = true
	if v := c.QueryParam("require_all"); v != "" {
		f.RequireAllItems = strings.EqualFold(v, "true")
	}

	var err error
	if f.MinRating, err = floatParam(c, "min_rating"); err != nil {
		return f, 0, 0, err
	}
	if f.MinQuantity, err = intParam(c, "min_quantity"); err != nil {
		return f, 0, 0, err
	}
	if f.MinPrice, err = floatParam(c, "min_price"); err != nil {
		return f, 0, 0, err
	}
	if f.MaxPrice, err = floatParam(c, "max_price"); err != nil {
		return f, 0, 0, err
	}
	f.Search = c.QueryParam("search")

	page, err := intParam(c, "page")
	if err != nil {
		return f, 0, 0, err
	}
	limit, err := intParam(c, "limit")
	if err != nil {
		return f, 0, 0, err
	}
	return f, page, limit, nil
}

func floatParam(c echo.Context, name string) (float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, apperr.New(apperr.InvalidInput, "'%s' must be a number", name)
	}
	return parsed, nil
}

func intParam(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.New(apperr.InvalidInput, "'%s' must be an integer", name)
	}
	return parsed, nil
}
