package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/inventory"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"
)

// InventoryHandler serves the vendor inventory endpoints.
type InventoryHandler struct {
	inventory *inventory.Service
}

// NewInventoryHandler creates an inventory handler.
func NewInventoryHandler(inv *inventory.Service) *InventoryHandler {
	return &InventoryHandler{inventory: inv}
}

// Add handles POST /api/inventory
func (h *InventoryHandler) Add(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInventoryOperation("add")

	var req inventory.AddRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid inventory add payload", zap.Error(err))
		return renderError(c, apperr.New(apperr.InvalidInput, "Invalid request data"))
	}

	defer prometheus.TrackStoreOperation("insert")(time.Now())

	item, err := h.inventory.Add(c.Request().Context(), req)
	if err != nil {
		log.Warn("Inventory add rejected",
			zap.String("vendor_id", req.VendorID),
			zap.Error(err))
		return renderError(c, err)
	}

	log.Info("Inventory item added",
		zap.String("vendor_id", item.VendorID),
		zap.String("name", item.Name))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Inventory item added",
		"item":    item,
	})
}

// ListByVendor handles GET /api/inventory/vendor/:vendor_id
func (h *InventoryHandler) ListByVendor(c echo.Context) error {
	prometheus.RecordInventoryOperation("list")

	defer prometheus.TrackStoreOperation("query")(time.Now())

	items, err := h.inventory.ListByVendor(c.Request().Context(), c.Param("vendor_id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"inventory": items})
}

// Update handles PATCH /api/inventory/item
func (h *InventoryHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInventoryOperation("update")

	var req inventory.UpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid inventory update payload", zap.Error(err))
		return renderError(c, apperr.New(apperr.InvalidInput, "Invalid request data"))
	}

	defer prometheus.TrackStoreOperation("update")(time.Now())

	item, err := h.inventory.Update(c.Request().Context(), req)
	if err != nil {
		log.Warn("Inventory update rejected",
			zap.String("vendor_id", req.VendorID),
			zap.String("name", req.Name),
			zap.Error(err))
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Inventory updated",
		"item":    item,
	})
}

// DeleteRequest is the payload for deleting an inventory item by name.
type DeleteRequest struct {
	VendorID string `json:"vendor_id"`
	Name     string `json:"name"`
}

// Delete handles DELETE /api/inventory/item
func (h *InventoryHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInventoryOperation("delete")

	var req DeleteRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid inventory delete payload", zap.Error(err))
		return renderError(c, apperr.New(apperr.InvalidInput, "Invalid request data"))
	}

	defer prometheus.TrackStoreOperation("delete")(time.Now())

	if err := h.inventory.Delete(c.Request().Context(), req.VendorID, req.Name); err != nil {
		log.Warn("Inventory delete rejected",
			zap.String("vendor_id", req.VendorID),
			zap.String("name", req.Name),
			zap.Error(err))
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Item '%s' deleted successfully for vendor '%s'", req.Name, req.VendorID),
	})
}

// LowStock handles GET /api/inventory/low-stock/:vendor_id
func (h *InventoryHandler) LowStock(c echo.Context) error {
	prometheus.RecordInventoryOperation("low_stock")

	vendorID := c.Param("vendor_id")

	defer prometheus.TrackStoreOperation("query")(time.Now())

	items, err := h.inventory.LowStock(c.Request().Context(), vendorID)
	if err != nil {
		return renderError(c, err)
	}

	prometheus.UpdateLowStockItems(vendorID, len(items))
	return c.JSON(http.StatusOK, echo.Map{"low_stock_items": items})
}

// AbsorbRequest is the payload for absorbing an accepted order.
type AbsorbRequest struct {
	VendorID string `json:"vendor_id"`
	OrderID  string `json:"order_id"`
}

// Absorb handles POST /api/inventory/absorb
func (h *InventoryHandler) Absorb(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInventoryOperation("absorb")

	var req AbsorbRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid inventory absorb payload", zap.Error(err))
		return renderError(c, apperr.New(apperr.InvalidInput, "Invalid request data"))
	}

	defer prometheus.TrackStoreOperation("update")(time.Now())

	details, err := h.inventory.AbsorbOrder(c.Request().Context(), req.VendorID, req.OrderID)
	if err != nil {
		log.Warn("Inventory absorb rejected",
			zap.String("vendor_id", req.VendorID),
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return renderError(c, err)
	}

	log.Info("Inventory absorbed from order",
		zap.String("vendor_id", req.VendorID),
		zap.String("order_id", req.OrderID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Inventory updated from accepted order.",
		"details": details,
	})
}
