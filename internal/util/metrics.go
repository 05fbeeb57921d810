package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_recorded_total",
		Help: "Total number of sales recorded",
	})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of failed sale recordings",
	}, []string{"reason"})

	SaleRecordLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sale_record_latency_seconds",
		Help:    "Latency of the sale recording transaction",
		Buckets: prometheus.DefBuckets,
	})

	InventoryAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_adjustments_total",
		Help: "Total number of inventory ledger entries",
	}, []string{"source"})

	LowStockEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_low_stock_events_total",
		Help: "Total number of times stock fell to or below its threshold",
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Total number of order status transitions",
	}, []string{"from", "to"})

	PaymentsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Total number of payments recorded",
	}, []string{"status"})

	AnalyticsCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_cache_hits_total",
		Help: "Total number of analytics reads served from cache",
	})

	AnalyticsCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_cache_misses_total",
		Help: "Total number of analytics reads computed from the database",
	})

	AnalyticsInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_cache_invalidations_total",
		Help: "Total number of analytics cache generation bumps",
	})

	EventsPublishFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_publish_failed_total",
		Help: "Total number of domain events that could not be published",
	}, []string{"event_type"})

	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_consume_dropped_total",
		Help: "Total number of consumed events skipped after exhausting retries",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
