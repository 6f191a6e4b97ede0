// Package metrics exposes Prometheus collectors for the ledgers and the scheduler.
// Collectors register lazily on first use so tests and tools need no setup.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fueldesk_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	ticketTransitions  *prometheus.CounterVec
	businessErrors     *prometheus.CounterVec
	quotaOperations    *prometheus.CounterVec
	inventoryMovements *prometheus.CounterVec
	expiredTickets     prometheus.Counter

	schedulerRuns    *prometheus.CounterVec
	schedulerLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers collectors with the default registry. Safe to call repeatedly.
func Init() {
	registerOnce.Do(func() {
		ticketTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ticket_transitions_total",
				Help: "Ticket state transitions by target state",
			},
			[]string{"to"},
		)
		businessErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "business_errors_total",
				Help: "Rejected operations by error code",
			},
			[]string{"code"},
		)
		quotaOperations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "quota_operations_total",
				Help: "Committed quota ledger operations by kind",
			},
			[]string{"kind"},
		)
		inventoryMovements = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "inventory_movements_total",
				Help: "Inventory movement records written by kind",
			},
			[]string{"kind"},
		)
		expiredTickets = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "scheduler_expired_tickets_total",
				Help: "Tickets expired by the daily sweep",
			},
		)
		schedulerRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scheduler_runs_total",
				Help: "Scheduler job runs by job and result",
			},
			[]string{"job", "result"},
		)
		schedulerLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "scheduler_run_seconds",
				Help:    "Scheduler job duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		prometheus.MustRegister(
			ticketTransitions,
			businessErrors,
			quotaOperations,
			inventoryMovements,
			expiredTickets,
			schedulerRuns,
			schedulerLatency,
			httpRequests,
			httpLatency,
		)
	})
}

// TicketTransition counts a committed ticket state change.
func TicketTransition(to string) {
	Init()
	ticketTransitions.WithLabelValues(to).Inc()
}

// BusinessError counts an operation rejected with an application error code.
func BusinessError(code string) {
	Init()
	businessErrors.WithLabelValues(code).Inc()
}

// QuotaOperation counts a committed quota mutation.
func QuotaOperation(kind string) {
	Init()
	quotaOperations.WithLabelValues(kind).Inc()
}

// InventoryMovement counts a written movement record.
func InventoryMovement(kind string) {
	Init()
	inventoryMovements.WithLabelValues(kind).Inc()
}

// TicketsExpired adds n to the expired ticket counter.
func TicketsExpired(n int) {
	Init()
	expiredTickets.Add(float64(n))
}

// SchedulerRun records one job execution.
func SchedulerRun(job string, err error, elapsed time.Duration) {
	Init()
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	schedulerRuns.WithLabelValues(job, result).Inc()
	schedulerLatency.WithLabelValues(job).Observe(elapsed.Seconds())
}

// HTTPRequest records one served request.
func HTTPRequest(method, route, status string, elapsed time.Duration) {
	Init()
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
