package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
)

type metricWriter interface {
	InsertMetric(ctx context.Context, m domain.AssignmentMetric) error
}

// Sink writes per-assignment latency records to the Metrics collection.
type Sink struct {
	store    metricWriter
	delay    prometheus.Observer
	assigned prometheus.Counter
	logger   logx.Logger
	now      func() time.Time
}

// NewSink builds a Sink. Collectors may be nil.
func NewSink(store metricWriter, c *Collectors, logger logx.Logger) *Sink {
	s := &Sink{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if c != nil {
		s.delay = c.AssignmentDelay
		s.assigned = c.OrdersAssigned
	}
	return s
}

// RecordAssignment stores {order_id, offers_sent_ts, assigned_ts, assignment_delay_ms, ts}.
// The delay is clamped at zero so clock skew never yields a negative record.
func (s *Sink) RecordAssignment(ctx context.Context, orderID, driverID string, offersSent, assigned time.Time) (domain.AssignmentMetric, error) {
	delay := assigned.Sub(offersSent)
	if delay < 0 {
		delay = 0
	}
	m := domain.AssignmentMetric{
		OrderID:           orderID,
		DriverID:          driverID,
		OffersSentTS:      offersSent,
		AssignedTS:        assigned,
		AssignmentDelayMS: delay.Milliseconds(),
		TS:                s.now(),
	}
	if s.assigned != nil {
		s.assigned.Inc()
	}
	if s.delay != nil {
		s.delay.Observe(delay.Seconds())
	}

	err := s.store.InsertMetric(ctx, m)
	if errors.Is(err, apperr.ErrDuplicate) {
		return m, nil
	}
	if err != nil {
		s.logger.Error("metric insert failed", logx.OrderID(orderID), logx.Err(err))
		return m, err
	}
	s.logger.Debug("assignment metric recorded",
		logx.OrderID(orderID),
		logx.Int64("assignment_delay_ms", m.AssignmentDelayMS),
	)
	return m, nil
}
