package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"delivery-orchestrator/internal/domain"
)

// InsertOrder stores a new order. It is the client actor's write, used by tooling and tests.
func (s *Store) InsertOrder(ctx context.Context, o domain.Order) error {
	return s.do(ctx, "InsertOrder", func(ctx context.Context) error {
		_, err := s.coll(s.cols.Orders).InsertOne(ctx, o)
		return err
	})
}

// GetOrder returns the order or nil when it does not exist.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var out *domain.Order
	err := s.do(ctx, "GetOrder", func(ctx context.Context) error {
		o, err := s.findOrder(ctx, orderID)
		out = o
		return err
	})
	return out, err
}

// UpdateOrderIfStatus moves the order from expected to next and applies patch atomically.
// When the order is not in expected status it returns applied=false and the current document.
// A patch setting assigned_driver_id only applies while none is set.
func (s *Store) UpdateOrderIfStatus(
	ctx context.Context,
	orderID string,
	expected, next domain.OrderStatus,
	patch domain.Patch,
) (bool, *domain.Order, error) {
	filter := bson.M{"order_id": orderID, "status": expected}
	if _, ok := patch["assigned_driver_id"]; ok {
		filter["assigned_driver_id"] = bson.M{"$exists": false}
	}
	set := bson.M{"status": next}
	for k, v := range patch {
		set[k] = v
	}

	applied, current, err := s.casOrder(ctx, "UpdateOrderIfStatus", orderID, filter, bson.M{"$set": set})
	if err != nil {
		return false, nil, fmt.Errorf("update order %s %s->%s: %w", orderID, expected, next, err)
	}
	return applied, current, nil
}

// RequestCancel is the client's cancellation write: status becomes cancel_requested
// only from a cancellable status.
func (s *Store) RequestCancel(ctx context.Context, orderID string) (bool, *domain.Order, error) {
	filter := bson.M{"order_id": orderID, "status": bson.M{"$in": cancellableStatuses()}}
	update := bson.M{"$set": bson.M{"status": domain.OrderCancelRequested, "cancel_requested_ts": s.now()}}
	return s.casOrder(ctx, "RequestCancel", orderID, filter, update)
}

func cancellableStatuses() []domain.OrderStatus {
	var out []domain.OrderStatus
	for _, st := range []domain.OrderStatus{
		domain.OrderPending, domain.OrderWaitingForResto, domain.OrderReady, domain.OrderWaitingForDriver,
	} {
		if st.Cancellable() {
			out = append(out, st)
		}
	}
	return out
}

// casOrder applies update when filter matches and otherwise reads the current document.
func (s *Store) casOrder(ctx context.Context, method, orderID string, filter, update bson.M) (bool, *domain.Order, error) {
	var (
		applied bool
		current *domain.Order
	)
	err := s.do(ctx, method, func(ctx context.Context) error {
		var o domain.Order
		err := s.coll(s.cols.Orders).FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&o)
		if err == nil {
			applied, current = true, &o
			return nil
		}
		if !IsNotFound(err) {
			return err
		}
		applied = false
		current, err = s.findOrder(ctx, orderID)
		return err
	})
	return applied, current, err
}

func (s *Store) findOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := s.coll(s.cols.Orders).FindOne(ctx, bson.M{"order_id": orderID}).Decode(&o)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// MarkDelivered is the external delivery completion write, used by tooling and tests.
func (s *Store) MarkDelivered(ctx context.Context, orderID string) (bool, error) {
	applied, _, err := s.UpdateOrderIfStatus(ctx, orderID, domain.OrderAssigned, domain.OrderDelivered,
		domain.Patch{"delivered_ts": s.now()})
	return applied, err
}

// ListOrdersByStatus returns orders in any of statuses, oldest first.
func (s *Store) ListOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	return s.findOrders(ctx, "ListOrdersByStatus", bson.M{"status": bson.M{"$in": statuses}})
}

// ListUnsettledCancelled returns cancelled orders whose refunds were not confirmed recorded.
func (s *Store) ListUnsettledCancelled(ctx context.Context) ([]domain.Order, error) {
	return s.findOrders(ctx, "ListUnsettledCancelled", bson.M{
		"status":  domain.OrderCancelled,
		"settled": bson.M{"$ne": true},
	})
}

// MarkSettled flags a cancelled order once its refunds and notifications are recorded.
func (s *Store) MarkSettled(ctx context.Context, orderID string) error {
	return s.do(ctx, "MarkSettled", func(ctx context.Context) error {
		_, err := s.coll(s.cols.Orders).UpdateOne(ctx,
			bson.M{"order_id": orderID, "status": domain.OrderCancelled},
			bson.M{"$set": bson.M{"settled": true}},
		)
		return err
	})
}

func (s *Store) findOrders(ctx context.Context, method string, filter bson.M) ([]domain.Order, error) {
	var out []domain.Order
	err := s.do(ctx, method, func(ctx context.Context) error {
		cur, err := s.coll(s.cols.Orders).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_ts", Value: 1}}))
		if err != nil {
			return err
		}
		out = nil
		return cur.All(ctx, &out)
	})
	return out, err
}
