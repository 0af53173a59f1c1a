package archive

import (
	"context"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/events"
	"delivery-orchestrator/internal/logx"
)

// StreamDelivered is the stream id of the live archiver. It keys the persisted resume token.
const StreamDelivered = "archiver.delivered"

var changeOps = []events.Op{events.OpInsert, events.OpUpdate, events.OpReplace}

// Subscription archives orders as they become delivered.
func (a *Archiver) Subscription(collection string) events.Subscription {
	return events.Subscription{
		ID:         StreamDelivered,
		Collection: collection,
		Filter:     events.Filter{Ops: changeOps, Statuses: []string{string(domain.OrderDelivered)}},
		Handler:    a.HandleDelivered,
	}
}

// SimpleSubscription logs every order change and archives the delivered ones.
func (a *Archiver) SimpleSubscription(collection string) events.Subscription {
	return events.Subscription{
		ID:         StreamDelivered + ".simple",
		Collection: collection,
		Filter:     events.Filter{Ops: changeOps},
		Handler: func(ctx context.Context, ev events.Event) error {
			a.logger.Info("order change",
				logx.String("op", string(ev.Op)),
				logx.OrderID(ev.Key()),
				logx.String("status", ev.Status()),
			)
			return a.HandleDelivered(ctx, ev)
		},
	}
}

// HandleDelivered archives the order of a delivered event. Redelivered events land as
// duplicates. Only transient store errors are returned, so the router retries them.
func (a *Archiver) HandleDelivered(ctx context.Context, ev events.Event) error {
	if ev.Status() != string(domain.OrderDelivered) {
		return nil
	}
	orderID := ev.Key()
	if orderID == "" {
		a.logger.Warn("delivered event without order_id", logx.String("stream", ev.StreamID))
		a.add(Stats{Errors: 1})
		return nil
	}
	_, err := a.ArchiveOrder(ctx, orderID)
	return err
}
