package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SuppliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suitcase_supplies_total",
		Help: "Total number of items supplied into suitcases",
	})

	ReservationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservations_failed_total",
		Help: "Total number of failed inventory reservations",
	}, []string{"reason"})

	StockAdjustmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_adjustments_total",
		Help: "Total number of manual inventory adjustments",
	})

	ItemsReturnedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suitcase_items_returned_total",
		Help: "Total number of items returned from suitcases",
	}, []string{"condition"})

	SettlementsInitiatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_initiated_total",
		Help: "Total number of settlements created in pending state",
	})

	SettlementsConcludedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_concluded_total",
		Help: "Total number of settlements concluded",
	})

	SettlementsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_rejected_total",
		Help: "Total number of settlement attempts rejected",
	}, []string{"reason"})

	SettlementBatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_batch_latency_seconds",
		Help:    "Latency of the transactional settlement batch",
		Buckets: prometheus.DefBuckets,
	})

	SuitcasesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suitcases_deleted_total",
		Help: "Total number of suitcases removed via cascade delete",
	})

	ReceiptsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_receipts_generated_total",
		Help: "Total number of settlement receipts generated by the worker",
	})

	SuggestionCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocking_suggestion_cache_total",
		Help: "Stocking suggestion cache lookups",
	}, []string{"result"})

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
