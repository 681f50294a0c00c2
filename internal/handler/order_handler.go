package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/order"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"
)

// OrderHandler serves the order workflow endpoints.
type OrderHandler struct {
	orders *order.Service
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// PlaceRequest is the payload for placing an order.
type PlaceRequest struct {
	VendorID string            `json:"vendor_id"`
	Items    []order.PlaceLine `json:"items"`
}

// Place handles POST /api/orders/place
func (h *OrderHandler) Place(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("place")

	var req PlaceRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid order placement payload", zap.Error(err))
		return renderError(c, apperr.New(apperr.InvalidInput, "Invalid request data"))
	}

	defer prometheus.TrackStoreOperation("insert")(time.Now())

	orders, err := h.orders.Place(c.Request().Context(), req.VendorID, req.Items)
	if err != nil {
		log.Warn("Order placement rejected",
			zap.String("vendor_id", req.VendorID),
			zap.Error(err))
		return renderError(c, err)
	}

	prometheus.OrdersPlacedCounter.Add(float64(len(orders)))
	log.Info("Orders placed",
		zap.String("vendor_id", req.VendorID),
		zap.Int("orders", len(orders)))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Orders placed successfully",
		"orders":  orders,
	})
}

// AcceptRequest is the payload for accepting an order.
type AcceptRequest struct {
	OrderID    string `json:"order_id"`
	SupplierID string `json:"supplier_id"`
}

// Accept handles POST /api/orders/accept
func (h *OrderHandler) Accept(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("accept")

	var req AcceptRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid order acceptance payload", zap.Error(err))
		return renderError(c, apperr.New(apperr.InvalidInput, "Invalid request data"))
	}

	defer prometheus.TrackStoreOperation("update")(time.Now())

	accepted, err := h.orders.Accept(c.Request().Context(), req.OrderID, req.SupplierID)
	if err != nil {
		log.Warn("Order acceptance rejected",
			zap.String("order_id", req.OrderID),
			zap.String("supplier_id", req.SupplierID),
			zap.Error(err))
		return renderError(c, err)
	}

	prometheus.OrdersAcceptedCounter.Inc()
	log.Info("Order accepted",
		zap.String("order_id", accepted.ID),
		zap.String("supplier_id", accepted.SupplierID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Order accepted. Inventory updated.",
		"order":   accepted,
	})
}

// History handles GET /api/orders/history
func (h *OrderHandler) History(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("history")

	vendorID := c.QueryParam("vendor_id")

	defer prometheus.TrackStoreOperation("query")(time.Now())

	orders, err := h.orders.History(c.Request().Context(), vendorID)
	if err != nil {
		return renderError(c, err)
	}

	log.Info("Order history retrieved",
		zap.String("vendor_id", vendorID),
		zap.Int("orders", len(orders)))
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}
