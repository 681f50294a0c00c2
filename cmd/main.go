package main

import (
	"strconv"
	"time"

	"marketplace-service/internal/docstore"
	"marketplace-service/internal/handler"
	"marketplace-service/internal/inventory"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/order"
	"marketplace-service/internal/supplier"
	"marketplace-service/pkg/config"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	promhandler "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting marketplace service...", zap.String("environment", cfg.Server.Env))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Open the document store
	var store docstore.Store
	switch cfg.Database.Driver {
	case "memory":
		store = docstore.NewMemory()
		log.Warn("Using in-memory document store; data is not persisted")
	default:
		pg, err := docstore.OpenPostgres(cfg)
		if err != nil {
			log.Fatal("Failed to initialize document store", zap.Error(err))
		}
		store = pg
		log.Info("Document store ready",
			zap.String("db_host", cfg.Database.Host),
			zap.String("db_name", cfg.Database.Name))
	}

	// Wire domain services and handlers
	supplierSvc := supplier.NewService(store, log.Named("supplier"))
	inventorySvc := inventory.NewService(store, log.Named("inventory"))
	orderSvc := order.NewService(store, inventorySvc, log.Named("order"))

	supplierHandler := handler.NewSupplierHandler(supplierSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	inventoryHandler := handler.NewInventoryHandler(inventorySvc)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Calculate duration
			duration := time.Since(start).Seconds()
			status := c.Response().Status

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			// Update Prometheus metrics
			prometheus.HttpRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Inc()

			prometheus.HttpRequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Observe(duration)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhandler.Handler()))

	api := e.Group("/api")

	// Supplier directory
	suppliers := api.Group("/suppliers")
	suppliers.POST("", supplierHandler.Register)
	suppliers.GET("", supplierHandler.List)
	suppliers.GET("/nearby", supplierHandler.ListNearby)

	// Order workflow
	orders := api.Group("/orders")
	orders.POST("/place", orderHandler.Place)
	orders.POST("/accept", orderHandler.Accept)
	orders.GET("/history", orderHandler.History)

	// Vendor inventory
	inv := api.Group("/inventory")
	inv.POST("", inventoryHandler.Add)
	inv.GET("/vendor/:vendor_id", inventoryHandler.ListByVendor)
	inv.PATCH("/item", inventoryHandler.Update)
	inv.DELETE("/item", inventoryHandler.Delete)
	inv.GET("/low-stock/:vendor_id", inventoryHandler.LowStock)
	inv.POST("/absorb", inventoryHandler.Absorb)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
