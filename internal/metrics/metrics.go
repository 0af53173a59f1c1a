package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the Prometheus collectors of the orchestrator and the archiver.
type Collectors struct {
	OrdersAssigned   prometheus.Counter
	OrdersCancelled  *prometheus.CounterVec
	AssignmentDelay  prometheus.Histogram
	ActiveTasks      prometheus.Gauge
	StoreRetries     prometheus.Counter
	RouterEvents     *prometheus.CounterVec
	DurabilityGaps   prometheus.Counter
	Notifications    *prometheus.CounterVec
	ArchivedRecords  *prometheus.CounterVec
	CancelIngestions *prometheus.CounterVec
}

// NewCollectors builds unregistered collectors.
func NewCollectors() *Collectors {
	return &Collectors{
		OrdersAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_assigned_total",
			Help: "Total number of orders assigned to a driver",
		}),
		OrdersCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Total number of cancelled orders by cancel reason",
		}, []string{"reason"}),
		AssignmentDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assignment_delay_seconds",
			Help:    "Delay between courier offers and assignment",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		ActiveTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "order_tasks_active",
			Help: "Number of per-order tasks currently running",
		}),
		StoreRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_retries_total",
			Help: "Total number of retry attempts on transient store errors",
		}),
		RouterEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_events_total",
			Help: "Change stream events handled by the router",
		}, []string{"stream", "outcome"}),
		DurabilityGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_durability_gaps_total",
			Help: "Streams reopened from now after a rejected resume token",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications appended to the log by kind",
		}, []string{"kind"}),
		ArchivedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "archiver_records_total",
			Help: "Archiver outcomes per record: archived, duplicate, incomplete, error",
		}, []string{"result"}),
		CancelIngestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cancellation_requests_total",
			Help: "Cancellation requests consumed from the message bus by outcome",
		}, []string{"outcome"}),
	}
}

// Register registers every collector on reg.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.OrdersAssigned, c.OrdersCancelled, c.AssignmentDelay, c.ActiveTasks,
		c.StoreRetries, c.RouterEvents, c.DurabilityGaps, c.Notifications,
		c.ArchivedRecords, c.CancelIngestions,
	} {
		if err := reg.Register(col); err != nil {
			return fmt.Errorf("register collector: %w", err)
		}
	}
	return nil
}
