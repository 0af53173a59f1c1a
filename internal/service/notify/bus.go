package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
)

type logWriter interface {
	InsertNotification(ctx context.Context, n domain.Notification) error
}

// Sink delivers a recorded notification on its channel key.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, channel string, n domain.Notification) error
}

// Bus appends notifications to the store log and fans them out to the sinks.
// Delivery is at-least-once: a notification already in the log is fanned out again,
// recipients dedup by (order_id, kind).
type Bus struct {
	store   logWriter
	sinks   []Sink
	counter *prometheus.CounterVec
	logger  logx.Logger
	now     func() time.Time
	newID   func() string
}

// NewBus creates a Bus. collectors may be nil.
func NewBus(store logWriter, logger logx.Logger, collectors *metrics.Collectors, sinks ...Sink) *Bus {
	b := &Bus{
		store:  store,
		sinks:  sinks,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
	if collectors != nil {
		b.counter = collectors.Notifications
	}
	return b
}

// Publish records a notification for one recipient and delivers it on the recipient's channel.
func (b *Bus) Publish(
	ctx context.Context,
	orderID string,
	to domain.Recipient,
	kind domain.NotificationKind,
	payload map[string]any,
) error {
	n := domain.Notification{
		ID:        b.newID(),
		OrderID:   orderID,
		Recipient: to,
		Kind:      kind,
		Payload:   payload,
		SentAt:    b.now(),
	}
	channel := to.ChannelKey()
	log := b.logger.With(logx.OrderID(orderID), logx.String("kind", string(kind)), logx.String("channel", channel))

	err := b.store.InsertNotification(ctx, n)
	switch {
	case errors.Is(err, apperr.ErrDuplicate):
		log.Debug("notification already recorded")
	case err != nil:
		return fmt.Errorf("record notification %s: %w", kind, err)
	default:
		if b.counter != nil {
			b.counter.WithLabelValues(string(kind)).Inc()
		}
	}

	for _, s := range b.sinks {
		if err := s.Deliver(ctx, channel, n); err != nil {
			log.Warn("notification sink failed", logx.String("sink", s.Name()), logx.Err(err))
		}
	}
	return nil
}
