package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
)

// task is one run of the order state machine. It resumes from whatever status the store
// holds, so a restarted orchestrator re-drives orders the same way.
type task struct {
	*Service
	orderID string
	mb      *mailbox
	log     logx.Logger
}

func (t *task) run(ctx context.Context) (Outcome, error) {
	o, err := t.store.GetOrder(ctx, t.orderID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return OutcomeIgnored, nil
	}
	if err := o.Validate(); err != nil {
		return t.invalid(ctx, *o, err)
	}

	switch o.Status {
	case domain.OrderCancelRequested:
		return t.clientCancel(ctx)
	case domain.OrderPending:
		return t.solicitRestaurant(ctx, *o)
	case domain.OrderWaitingForResto:
		return t.awaitRestaurant(ctx, *o)
	case domain.OrderReady:
		return t.afterPreparation(ctx)
	case domain.OrderWaitingForDriver:
		return t.resumeWaitingForDriver(ctx, *o)
	default:
		return OutcomeIgnored, nil
	}
}

func (t *task) invalid(ctx context.Context, o domain.Order, cause error) (Outcome, error) {
	t.log.Warn("order rejected by validation", logx.String("status", string(o.Status)), logx.Err(cause))
	if o.ClientID == "" {
		return OutcomeInvalid, nil
	}
	err := t.bus.Publish(ctx, t.orderID, domain.ToClient(o.ClientID), domain.KindOrderInvalid, map[string]any{
		"error": cause.Error(),
	})
	return OutcomeInvalid, err
}

func (t *task) solicitRestaurant(ctx context.Context, o domain.Order) (Outcome, error) {
	rr := domain.RestaurantRequest{
		OrderID:      o.OrderID,
		RestaurantID: o.RestaurantID,
		Status:       domain.RequestRequested,
		RequestedTS:  t.now(),
	}
	if err := t.store.InsertRestaurantRequest(ctx, rr); err != nil && !errors.Is(err, apperr.ErrDuplicate) {
		return OutcomeIgnored, fmt.Errorf("insert restaurant request: %w", err)
	}
	t.notify(ctx, domain.ToRestaurant(o.RestaurantID), domain.KindRestaurantRequest, map[string]any{
		"total_amount": o.TotalAmount,
		"items":        len(o.Items),
	})

	applied, cur, err := t.store.UpdateOrderIfStatus(ctx, o.OrderID, domain.OrderPending, domain.OrderWaitingForResto, nil)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("order to waiting_for_resto: %w", err)
	}
	if !applied {
		return t.lost(ctx, cur)
	}
	return t.awaitRestaurant(ctx, *cur)
}

func (t *task) awaitRestaurant(ctx context.Context, o domain.Order) (Outcome, error) {
	rr, err := t.store.GetRestaurantRequest(ctx, o.OrderID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("get restaurant request: %w", err)
	}
	if rr == nil {
		// waiting_for_resto without a request: the previous run stopped between the two writes
		rr = &domain.RestaurantRequest{
			OrderID: o.OrderID, RestaurantID: o.RestaurantID, Status: domain.RequestRequested, RequestedTS: t.now(),
		}
		if err := t.store.InsertRestaurantRequest(ctx, *rr); err != nil && !errors.Is(err, apperr.ErrDuplicate) {
			return OutcomeIgnored, fmt.Errorf("insert restaurant request: %w", err)
		}
	}

	deadline := rr.RequestedTS.Add(t.cfg.TResto)
	if rr.Status.Responded() && rr.RespondedTS != nil && !rr.RespondedTS.After(deadline) {
		return t.onRestaurantResponse(ctx, o, *rr)
	}

	out, done, err := t.await(ctx, deadline, func(msg message) (Outcome, bool, error) {
		switch msg.kind {
		case msgCancelRequested:
			out, err := t.clientCancel(ctx)
			return out, true, err
		case msgRestaurantResponse:
			out, err := t.onRestaurantResponse(ctx, o, *msg.restaurant)
			return out, true, err
		}
		return OutcomeIgnored, false, nil
	})
	if done {
		return out, err
	}

	t.log.Info("restaurant did not answer in time", logx.Duration("t_resto", t.cfg.TResto))
	return t.cancelAs(ctx, o, domain.OrderWaitingForResto, domain.ReasonRestaurantUnavailable, OutcomeCancelledRestaurant)
}

func (t *task) onRestaurantResponse(ctx context.Context, o domain.Order, rr domain.RestaurantRequest) (Outcome, error) {
	if rr.Status == domain.RequestRejected {
		t.log.Info("restaurant rejected order", logx.String("reason", rr.RejectReason))
		return t.cancelAs(ctx, o, domain.OrderWaitingForResto, domain.ReasonRestaurantUnavailable, OutcomeCancelledRestaurant)
	}

	patch := domain.Patch{"ready_ts": t.now()}
	if rr.PrepTimeMinutes != nil {
		patch["prep_time_minutes"] = *rr.PrepTimeMinutes
	}
	applied, cur, err := t.store.UpdateOrderIfStatus(ctx, o.OrderID, domain.OrderWaitingForResto, domain.OrderReady, patch)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("order to ready: %w", err)
	}
	if !applied {
		return t.lost(ctx, cur)
	}
	return t.afterPreparation(ctx)
}

// afterPreparation re-reads the order for a late cancel, then offers it to drivers.
func (t *task) afterPreparation(ctx context.Context) (Outcome, error) {
	o, err := t.store.GetOrder(ctx, t.orderID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("get order: %w", err)
	}
	if o == nil || o.Status != domain.OrderReady {
		return t.lost(ctx, o)
	}

	candidates, err := t.selector.Select(ctx, *o)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("select candidates: %w", err)
	}
	if len(candidates) == 0 {
		applied, cur, err := t.store.UpdateOrderIfStatus(ctx, o.OrderID, domain.OrderReady, domain.OrderWaitingForDriver, nil)
		if err != nil {
			return OutcomeIgnored, fmt.Errorf("order to waiting_for_driver: %w", err)
		}
		if !applied {
			return t.lost(ctx, cur)
		}
		t.log.Info("no candidate driver", logx.Duration("t_nodriver", t.cfg.TNoDriver))
		return t.awaitNoDriver(ctx, *cur)
	}
	return t.offer(ctx, *o, candidates)
}

func (t *task) offer(ctx context.Context, o domain.Order, candidates []string) (Outcome, error) {
	price := OfferedPrice(o.TotalAmount, t.cfg.RewardRate)
	now := t.now()
	drs := make([]domain.DeliveryRequest, 0, len(candidates))
	for _, id := range candidates {
		drs = append(drs, domain.DeliveryRequest{
			OrderID:      o.OrderID,
			DriverID:     id,
			Status:       domain.RequestRequested,
			RequestedTS:  now,
			OfferedPrice: price,
			City:         o.City,
		})
	}
	if _, err := t.store.InsertDeliveryRequests(ctx, drs); err != nil {
		return OutcomeIgnored, fmt.Errorf("insert delivery requests: %w", err)
	}

	applied, cur, err := t.store.UpdateOrderIfStatus(ctx, o.OrderID, domain.OrderReady, domain.OrderWaitingForDriver,
		domain.Patch{"offers_sent_ts": now, "driver_reward": price})
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("order to waiting_for_driver: %w", err)
	}
	if !applied {
		return t.lost(ctx, cur)
	}

	for _, id := range candidates {
		t.notify(ctx, domain.ToDriver(id), domain.KindDeliveryOffer, map[string]any{
			"offered_price":    price,
			"restaurant_id":    o.RestaurantID,
			"delivery_address": o.DeliveryAddress,
		})
	}
	t.log.Info("offers sent", logx.Int("candidates", len(candidates)), logx.Float64("offered_price", price))
	return t.arbitrate(ctx, *cur)
}

func (t *task) resumeWaitingForDriver(ctx context.Context, o domain.Order) (Outcome, error) {
	drs, err := t.store.ListDeliveryRequests(ctx, o.OrderID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("list delivery requests: %w", err)
	}
	if len(drs) == 0 {
		return t.awaitNoDriver(ctx, o)
	}
	return t.arbitrate(ctx, o)
}

// awaitNoDriver waits t_nodriver for a client cancel, then cancels for lack of drivers.
func (t *task) awaitNoDriver(ctx context.Context, o domain.Order) (Outcome, error) {
	out, done, err := t.await(ctx, t.now().Add(t.cfg.TNoDriver), func(msg message) (Outcome, bool, error) {
		if msg.kind != msgCancelRequested {
			return OutcomeIgnored, false, nil
		}
		out, err := t.clientCancel(ctx)
		return out, true, err
	})
	if done {
		return out, err
	}
	return t.cancelAs(ctx, o, domain.OrderWaitingForDriver, domain.ReasonNoDriverAfterOffers, OutcomeCancelledNoDriver)
}

// arbitrate assigns the first acceptor that can be claimed before t_driver elapses.
func (t *task) arbitrate(ctx context.Context, o domain.Order) (Outcome, error) {
	offersSent := t.now()
	if o.OffersSentTS != nil {
		offersSent = *o.OffersSentTS
	}

	deadline := offersSent.Add(t.cfg.TDriver)

	drs, err := t.store.ListDeliveryRequests(ctx, o.OrderID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("list delivery requests: %w", err)
	}
	for _, dr := range acceptedInOrder(drs) {
		if !respondedBy(dr, deadline) {
			t.log.Info("acceptance after t_driver ignored", logx.String("driver_id", dr.DriverID))
			continue
		}
		if out, done, err := t.tryAssign(ctx, o, dr); done {
			return out, err
		}
	}

	out, done, err := t.await(ctx, deadline, func(msg message) (Outcome, bool, error) {
		switch {
		case msg.kind == msgCancelRequested:
			out, err := t.clientCancel(ctx)
			return out, true, err
		case msg.kind == msgDeliveryResponse && msg.delivery.Status == domain.RequestAccepted:
			if !respondedBy(*msg.delivery, deadline) {
				t.log.Info("acceptance after t_driver ignored", logx.String("driver_id", msg.delivery.DriverID))
				return OutcomeIgnored, false, nil
			}
			return t.tryAssign(ctx, o, *msg.delivery)
		case msg.kind == msgDeliveryResponse:
			t.log.Debug("offer rejected", logx.String("driver_id", msg.delivery.DriverID))
		}
		return OutcomeIgnored, false, nil
	})
	if done {
		return out, err
	}

	t.log.Info("no driver accepted in time", logx.Duration("t_driver", t.cfg.TDriver))
	return t.cancelAs(ctx, o, domain.OrderWaitingForDriver, domain.ReasonNoDriverAfterOffers, OutcomeCancelledNoDriver)
}

// tryAssign claims the driver, then the order. done is false when the acceptance counts as
// a rejection and arbitration goes on.
func (t *task) tryAssign(ctx context.Context, o domain.Order, dr domain.DeliveryRequest) (Outcome, bool, error) {
	log := t.log.With(logx.String("driver_id", dr.DriverID))

	claimed, err := t.store.ClaimDriver(ctx, dr.DriverID, o.OrderID)
	if err != nil {
		log.Warn("driver claim failed, offer treated as rejected", logx.Err(err))
		return OutcomeIgnored, false, nil
	}
	if !claimed {
		log.Info("driver no longer available, offer treated as rejected")
		return OutcomeIgnored, false, nil
	}

	now := t.now()
	applied, cur, err := t.store.UpdateOrderIfStatus(ctx, o.OrderID, domain.OrderWaitingForDriver, domain.OrderAssigned,
		domain.Patch{"assigned_driver_id": dr.DriverID, "assigned_ts": now})
	if err != nil || !applied {
		t.release(ctx, dr.DriverID, log)
		if err != nil {
			return OutcomeIgnored, true, fmt.Errorf("order to assigned: %w", err)
		}
		t.notify(ctx, domain.ToDriver(dr.DriverID), domain.KindCourseUnavailable, map[string]any{
			"status": statusOf(cur),
		})
		out, err := t.lost(ctx, cur)
		return out, true, err
	}

	offersSent := now
	if cur.OffersSentTS != nil {
		offersSent = *cur.OffersSentTS
	}
	m, err := t.recorder.RecordAssignment(ctx, o.OrderID, dr.DriverID, offersSent, now)
	if err != nil {
		log.Warn("assignment metric not recorded", logx.Err(err))
	}

	payload := map[string]any{"driver_id": dr.DriverID}
	if d, err := t.store.GetDriver(ctx, dr.DriverID); err == nil && d != nil {
		payload["driver_name"] = d.Name
		payload["driver_phone"] = d.Phone
	}
	t.notify(ctx, domain.ToClient(o.ClientID), domain.KindAttributionConfirmed, payload)
	t.notify(ctx, domain.ToDriver(dr.DriverID), domain.KindCourseAttributed, map[string]any{
		"offered_price":    dr.OfferedPrice,
		"restaurant_id":    o.RestaurantID,
		"delivery_address": o.DeliveryAddress,
	})
	t.refuseOthers(ctx, o.OrderID, dr.DriverID)

	log.Info("order assigned",
		logx.Event("order_assigned"),
		logx.Int64("assignment_delay_ms", m.AssignmentDelayMS),
	)
	return OutcomeAssigned, true, nil
}

// refuseOthers tells every other driver that already accepted that the course is gone.
func (t *task) refuseOthers(ctx context.Context, orderID, winner string) {
	drs, err := t.store.ListDeliveryRequests(ctx, orderID)
	if err != nil {
		t.log.Warn("list delivery requests failed", logx.Err(err))
		return
	}
	for _, dr := range drs {
		if dr.DriverID == winner || dr.Status != domain.RequestAccepted {
			continue
		}
		t.notify(ctx, domain.ToDriver(dr.DriverID), domain.KindCourseUnavailable, map[string]any{
			"status": string(domain.OrderAssigned),
		})
	}
}

func (t *task) release(ctx context.Context, driverID string, log logx.Logger) {
	if _, err := t.store.ReleaseDriver(ctx, driverID, t.orderID); err != nil {
		log.Error("driver release failed", logx.Err(err))
	}
}

func (t *task) cancelAs(ctx context.Context, o domain.Order, from domain.OrderStatus, reason domain.CancelReason, out Outcome) (Outcome, error) {
	res, err := t.cancel.Cancel(ctx, o, from, reason)
	if err != nil {
		if res.Applied {
			return out, err
		}
		return OutcomeIgnored, err
	}
	if !res.Applied {
		return t.lost(ctx, res.Order)
	}
	return out, nil
}

func (t *task) clientCancel(ctx context.Context) (Outcome, error) {
	res, err := t.cancel.HandleCancelRequest(ctx, t.orderID)
	if err != nil {
		return OutcomeIgnored, err
	}
	if res.Applied {
		return OutcomeCancelledClient, nil
	}
	return OutcomeIgnored, nil
}

// lost handles a CAS that found the order in another status.
func (t *task) lost(ctx context.Context, cur *domain.Order) (Outcome, error) {
	if cur != nil && cur.Status == domain.OrderCancelRequested {
		return t.clientCancel(ctx)
	}
	t.log.Debug("order moved on", logx.String("status", statusOf(cur)))
	return OutcomeIgnored, nil
}

func (t *task) notify(ctx context.Context, to domain.Recipient, kind domain.NotificationKind, payload map[string]any) {
	if err := t.bus.Publish(ctx, t.orderID, to, kind, payload); err != nil {
		t.log.Warn("notification failed", logx.String("kind", string(kind)), logx.Err(err))
	}
}

// await hands queued and arriving messages to handle until it reports done. done is false
// when the deadline passed first; a deadline already behind now expires without waiting.
func (t *task) await(ctx context.Context, deadline time.Time, handle func(message) (Outcome, bool, error)) (Outcome, bool, error) {
	d := deadline.Sub(t.now())
	if d <= 0 {
		return OutcomeIgnored, false, nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		for msg, ok := t.mb.pop(); ok; msg, ok = t.mb.pop() {
			if out, done, err := handle(msg); done {
				return out, true, err
			}
		}
		select {
		case <-ctx.Done():
			return OutcomeInterrupted, true, nil
		case <-timer.C:
			return OutcomeIgnored, false, nil
		case <-t.mb.signal:
		}
	}
}

func acceptedInOrder(drs []domain.DeliveryRequest) []domain.DeliveryRequest {
	var out []domain.DeliveryRequest
	for _, dr := range drs {
		if dr.Status == domain.RequestAccepted {
			out = append(out, dr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].RespondedTS, out[j].RespondedTS
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})
	return out
}

// respondedBy reports whether the driver answered no later than deadline. A missing
// response time counts as in time.
func respondedBy(dr domain.DeliveryRequest, deadline time.Time) bool {
	return dr.RespondedTS == nil || !dr.RespondedTS.After(deadline)
}

func statusOf(o *domain.Order) string {
	if o == nil {
		return "missing"
	}
	return string(o.Status)
}
