package prometheus

import (
	"time"

	"marketplace-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Document store operation metrics
	StoreOperationDuration prometheus.HistogramVec

	// Domain operation metrics
	SupplierOperationsCounter  prometheus.CounterVec
	OrderOperationsCounter     prometheus.CounterVec
	InventoryOperationsCounter prometheus.CounterVec

	// Order workflow metrics
	OrdersPlacedCounter   prometheus.Counter
	OrdersAcceptedCounter prometheus.Counter

	// Low-stock items observed on the most recent alert query, per vendor
	LowStockItemsGauge prometheus.GaugeVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Document store operation metrics
	StoreOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Domain operation metrics
	SupplierOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_supplier_operations_total",
			Help: "Total number of supplier directory operations",
		},
		[]string{"operation"},
	)

	OrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_operations_total",
			Help: "Total number of order workflow operations",
		},
		[]string{"operation"},
	)

	InventoryOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_inventory_operations_total",
			Help: "Total number of vendor inventory operations",
		},
		[]string{"operation"},
	)

	// Order workflow metrics
	OrdersPlacedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_placed_total",
			Help: "Total number of orders placed",
		},
	)

	OrdersAcceptedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_accepted_total",
			Help: "Total number of orders accepted by suppliers",
		},
	)

	// Low-stock gauge per vendor
	LowStockItemsGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_low_stock_items",
			Help: "Number of low-stock items seen on the latest alert query",
		},
		[]string{"vendor_id"},
	)
}

// TrackStoreOperation returns a function that records the duration of a
// document store operation
func TrackStoreOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		StoreOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordSupplierOperation increments the counter for supplier operations
func RecordSupplierOperation(operation string) {
	SupplierOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordOrderOperation increments the counter for order operations
func RecordOrderOperation(operation string) {
	OrderOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordInventoryOperation increments the counter for inventory operations
func RecordInventoryOperation(operation string) {
	InventoryOperationsCounter.WithLabelValues(operation).Inc()
}

// UpdateLowStockItems updates the low-stock gauge for a vendor
func UpdateLowStockItems(vendorID string, count int) {
	LowStockItemsGauge.WithLabelValues(vendorID).Set(float64(count))
}
