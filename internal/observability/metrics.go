package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbooking_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airbooking_http_request_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airbooking_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	TxRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airbooking_db_tx_retries_total",
			Help: "Transactions retried after a serialization failure",
		},
	)

	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbooking_ledger_operations_total",
			Help: "Inventory ledger operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	HoldsSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbooking_holds_swept_total",
			Help: "Holds processed by the expiry sweep",
		},
		[]string{"outcome"},
	)

	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbooking_booking_transitions_total",
			Help: "Booking state transitions",
		},
		[]string{"to"},
	)

	PaymentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbooking_payment_results_total",
			Help: "Payment results applied by outcome",
		},
		[]string{"outcome"},
	)

	PaymentMismatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airbooking_payment_mismatch_total",
			Help: "Completed payments whose amount or currency did not match the booking",
		},
	)
)
