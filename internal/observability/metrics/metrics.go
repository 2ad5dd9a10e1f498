package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "libralend_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "libralend_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loansIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "libralend_loans_issued_total",
		Help: "Count of loan issue attempts by result",
	}, []string{"result"})

	loansReturned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "libralend_loans_returned_total",
		Help: "Count of loan return attempts by result",
	}, []string{"result"})

	reservationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "libralend_reservations_created_total",
		Help: "Count of reservations created by initial status",
	}, []string{"status"})

	reservationsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "libralend_reservations_cancelled_total",
		Help: "Count of reservations cancelled",
	})

	reservationsPromoted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "libralend_reservations_promoted_total",
		Help: "Count of WAITING reservations promoted to READY by the sweep",
	})

	activeLoans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "libralend_active_loans",
		Help: "Number of loans currently out",
	})

	overdueLoans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "libralend_overdue_loans",
		Help: "Number of active loans past their due date",
	})

	sessionOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "libralend_session_operations_total",
		Help: "Count of session store operations by operation and result",
	}, []string{"operation", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLoanIssued records a loan issue attempt with a result label
func ObserveLoanIssued(result string) {
	loansIssued.WithLabelValues(result).Inc()
}

// ObserveLoanReturned records a loan return attempt with a result label
func ObserveLoanReturned(result string) {
	loansReturned.WithLabelValues(result).Inc()
}

// ObserveReservationCreated records a reservation creation by initial status
func ObserveReservationCreated(status string) {
	reservationsCreated.WithLabelValues(status).Inc()
}

// ObserveReservationCancelled increments the cancellation counter
func ObserveReservationCancelled() {
	reservationsCancelled.Inc()
}

// ObserveReservationPromoted increments the promotion counter
func ObserveReservationPromoted() {
	reservationsPromoted.Inc()
}

// SetActiveLoans sets the active loan gauge
func SetActiveLoans(count int) {
	if count < 0 {
		count = 0
	}
	activeLoans.Set(float64(count))
}

// SetOverdueLoans sets the overdue loan gauge
func SetOverdueLoans(count int) {
	if count < 0 {
		count = 0
	}
	overdueLoans.Set(float64(count))
}

// ObserveSessionOperation records a session store operation
func ObserveSessionOperation(operation, result string) {
	sessionOperations.WithLabelValues(operation, result).Inc()
}
