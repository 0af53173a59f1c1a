package cancellation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
)

type orderStore interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateOrderIfStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus, patch domain.Patch) (bool, *domain.Order, error)
	InsertRefund(ctx context.Context, r domain.Refund) error
	MarkSettled(ctx context.Context, orderID string) error
}

type publisher interface {
	Publish(ctx context.Context, orderID string, to domain.Recipient, kind domain.NotificationKind, payload map[string]any) error
}

// Result reports what a cancellation attempt did. When Applied is false, Order is the
// current document (nil if the order does not exist).
type Result struct {
	Applied bool
	Reason  domain.CancelReason
	Order   *domain.Order
}

// Engine applies the refund policy. The status CAS to cancelled comes first; refunds and
// notifications follow and are absorbed as duplicates when replayed.
type Engine struct {
	store     orderStore
	bus       publisher
	policy    Policy
	cancelled *prometheus.CounterVec
	logger    logx.Logger
	now       func() time.Time
}

// NewEngine creates an Engine. collectors may be nil.
func NewEngine(store orderStore, bus publisher, policy Policy, collectors *metrics.Collectors, logger logx.Logger) *Engine {
	e := &Engine{
		store:  store,
		bus:    bus,
		policy: policy,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if collectors != nil {
		e.cancelled = collectors.OrdersCancelled
	}
	return e
}

// Cancel moves o from status from to cancelled with reason and settles it.
func (e *Engine) Cancel(ctx context.Context, o domain.Order, from domain.OrderStatus, reason domain.CancelReason) (Result, error) {
	d, err := e.policy.Decide(reason, o.TotalAmount)
	if err != nil {
		return Result{}, err
	}

	patch := domain.Patch{
		"cancel_reason":   reason,
		"cancelled_ts":    e.now(),
		"refunded_client": d.ClientRefund.InexactFloat64(),
	}
	if d.RestaurantRefund.IsPositive() {
		patch["refunded_restaurant"] = d.RestaurantRefund.InexactFloat64()
	}

	applied, cur, err := e.store.UpdateOrderIfStatus(ctx, o.OrderID, from, domain.OrderCancelled, patch)
	if err != nil {
		return Result{}, fmt.Errorf("cancel order %s: %w", o.OrderID, err)
	}
	if !applied {
		return Result{Applied: false, Reason: reason, Order: cur}, nil
	}

	if e.cancelled != nil {
		e.cancelled.WithLabelValues(string(reason)).Inc()
	}
	e.logger.Info("order cancelled",
		logx.Event("order_cancelled"),
		logx.OrderID(o.OrderID),
		logx.String("reason", string(reason)),
		logx.String("from", string(from)),
		logx.String("refund_client", d.ClientRefund.StringFixed(2)),
		logx.String("refund_restaurant", d.RestaurantRefund.StringFixed(2)),
	)

	if err := e.Settle(ctx, *cur); err != nil {
		return Result{Applied: true, Reason: reason, Order: cur}, err
	}
	return Result{Applied: true, Reason: reason, Order: cur}, nil
}

// Settle records the refunds and notifications of a cancelled order, then marks it settled.
// Amounts come from the order document, so replays produce the same entries.
func (e *Engine) Settle(ctx context.Context, o domain.Order) error {
	if o.Status != domain.OrderCancelled {
		return fmt.Errorf("%w: settle order %s in status %s", apperr.ErrConflict, o.OrderID, o.Status)
	}
	ts := e.now()
	if o.CancelledTS != nil {
		ts = *o.CancelledTS
	}

	client := 0.0
	if o.RefundedClient != nil {
		client = *o.RefundedClient
	}
	if err := e.refund(ctx, domain.Refund{
		OrderID:       o.OrderID,
		Beneficiary:   domain.BeneficiaryClient,
		BeneficiaryID: o.ClientID,
		Amount:        client,
		Kind:          domain.RefundFullClient,
		Reason:        o.CancelReason,
		TS:            ts,
	}); err != nil {
		return err
	}
	if err := e.bus.Publish(ctx, o.OrderID, domain.ToClient(o.ClientID), domain.KindOrderCancelled, map[string]any{
		"refund_amount": client,
		"reason":        string(o.CancelReason),
	}); err != nil {
		return err
	}

	if o.RefundedRestaurant != nil && *o.RefundedRestaurant > 0 {
		amount := *o.RefundedRestaurant
		if err := e.refund(ctx, domain.Refund{
			OrderID:       o.OrderID,
			Beneficiary:   domain.BeneficiaryRestaurant,
			BeneficiaryID: o.RestaurantID,
			Amount:        amount,
			Kind:          domain.RefundRestaurantPreparation,
			Reason:        o.CancelReason,
			TS:            ts,
		}); err != nil {
			return err
		}
		if err := e.bus.Publish(ctx, o.OrderID, domain.ToRestaurant(o.RestaurantID), domain.KindOrderCancelled, map[string]any{
			"refund_amount": amount,
			"reason":        string(o.CancelReason),
		}); err != nil {
			return err
		}
	}

	if err := e.store.MarkSettled(ctx, o.OrderID); err != nil {
		return fmt.Errorf("mark settled %s: %w", o.OrderID, err)
	}
	return nil
}

func (e *Engine) refund(ctx context.Context, r domain.Refund) error {
	err := e.store.InsertRefund(ctx, r)
	if err == nil || errors.Is(err, apperr.ErrDuplicate) {
		return nil
	}
	return fmt.Errorf("record %s refund of %s: %w", r.Beneficiary, r.OrderID, err)
}

// HandleCancelRequest processes a client cancellation. Orders no longer in cancel_requested
// are left alone. An order that already has a driver is not cancelled: its status goes back
// to assigned.
func (e *Engine) HandleCancelRequest(ctx context.Context, orderID string) (Result, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return Result{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if o == nil || o.Status != domain.OrderCancelRequested {
		return Result{Order: o}, nil
	}

	if o.AssignedDriverID != "" {
		_, cur, err := e.store.UpdateOrderIfStatus(ctx, orderID, domain.OrderCancelRequested, domain.OrderAssigned, nil)
		if err != nil {
			return Result{}, fmt.Errorf("restore assigned order %s: %w", orderID, err)
		}
		// TODO: hand cancellations after assignment to customer support once that flow exists.
		e.logger.Info("cancel request after assignment ignored",
			logx.OrderID(orderID),
			logx.String("driver_id", o.AssignedDriverID),
		)
		return Result{Order: cur}, nil
	}

	return e.Cancel(ctx, *o, domain.OrderCancelRequested, ClientStage(*o))
}
