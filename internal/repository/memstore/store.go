// Package memstore is an in-memory store with change-stream emulation. It backs scenario
// tests and local simulation with the same semantics as the MongoDB store: CAS on status,
// unique keys reported as apperr.ErrDuplicate, resumable streams with post-images.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/events"
)

// Collection names, equal to repository.DefaultCollections.
const (
	Orders             = "Orders"
	RestaurantRequests = "RestaurantRequests"
	DeliveryRequests   = "DeliveryRequests"
	Drivers            = "Drivers"
	History            = "History"
)

// Store keeps every collection in maps guarded by one mutex.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	orders             map[string]domain.Order
	restaurantRequests map[string]domain.RestaurantRequest
	deliveryRequests   map[string][]domain.DeliveryRequest
	drivers            map[string]domain.Driver
	clients            map[string]domain.ClientProfile
	restaurants        map[string]domain.RestaurantProfile
	menus              map[string]domain.MenuEntry

	notifications []domain.Notification
	refunds       []domain.Refund
	metrics       []domain.AssignmentMetric
	history       map[string]domain.HistoryRecord
	uniq          map[string]struct{}

	cursors map[string][]byte

	feed   feed
	faults map[string][]error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:                func() time.Time { return time.Now().UTC() },
		orders:             make(map[string]domain.Order),
		restaurantRequests: make(map[string]domain.RestaurantRequest),
		deliveryRequests:   make(map[string][]domain.DeliveryRequest),
		drivers:            make(map[string]domain.Driver),
		clients:            make(map[string]domain.ClientProfile),
		restaurants:        make(map[string]domain.RestaurantProfile),
		menus:              make(map[string]domain.MenuEntry),
		history:            make(map[string]domain.HistoryRecord),
		uniq:               make(map[string]struct{}),
		cursors:            make(map[string][]byte),
		feed:               newFeed(),
		faults:             make(map[string][]error),
	}
}

// FailNext makes the next calls of method return errs, one per call.
func (s *Store) FailNext(method string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = append(s.faults[method], errs...)
}

// fault pops an injected error; the caller holds the lock.
func (s *Store) fault(method string) error {
	q := s.faults[method]
	if len(q) == 0 {
		return nil
	}
	s.faults[method] = q[1:]
	return q[0]
}

func (s *Store) claimKey(key string) error {
	if _, ok := s.uniq[key]; ok {
		return fmt.Errorf("%w: %s", apperr.ErrDuplicate, key)
	}
	s.uniq[key] = struct{}{}
	return nil
}

// InsertOrder is the client actor's write.
func (s *Store) InsertOrder(_ context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("InsertOrder"); err != nil {
		return err
	}
	if _, ok := s.orders[o.OrderID]; ok {
		return fmt.Errorf("%w: order %s", apperr.ErrDuplicate, o.OrderID)
	}
	if o.CreatedTS.IsZero() {
		o.CreatedTS = s.now()
	}
	s.orders[o.OrderID] = o
	s.feed.emit(Orders, events.OpInsert, o)
	return nil
}

// GetOrder returns a copy of the order or nil.
func (s *Store) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetOrder"); err != nil {
		return nil, err
	}
	o, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

// UpdateOrderIfStatus is the status CAS. A patch setting assigned_driver_id applies only
// while none is set.
func (s *Store) UpdateOrderIfStatus(
	_ context.Context,
	orderID string,
	expected, next domain.OrderStatus,
	patch domain.Patch,
) (bool, *domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UpdateOrderIfStatus"); err != nil {
		return false, nil, err
	}
	o, ok := s.orders[orderID]
	if !ok {
		return false, nil, nil
	}
	_, setsDriver := patch["assigned_driver_id"]
	if o.Status != expected || (setsDriver && o.AssignedDriverID != "") {
		return false, copyOrder(o), nil
	}
	updated, err := applyPatch(o, next, patch)
	if err != nil {
		return false, nil, err
	}
	s.orders[orderID] = updated
	s.feed.emit(Orders, events.OpUpdate, updated)
	return true, copyOrder(updated), nil
}

// RequestCancel is the client's cancellation write.
func (s *Store) RequestCancel(ctx context.Context, orderID string) (bool, *domain.Order, error) {
	s.mu.Lock()
	o, ok := s.orders[orderID]
	s.mu.Unlock()
	if !ok {
		return false, nil, nil
	}
	if !o.Status.Cancellable() {
		return false, copyOrder(o), nil
	}
	return s.UpdateOrderIfStatus(ctx, orderID, o.Status, domain.OrderCancelRequested,
		domain.Patch{"cancel_requested_ts": s.now()})
}

// MarkDelivered is the external delivery completion write.
func (s *Store) MarkDelivered(ctx context.Context, orderID string) (bool, error) {
	applied, _, err := s.UpdateOrderIfStatus(ctx, orderID, domain.OrderAssigned, domain.OrderDelivered,
		domain.Patch{"delivered_ts": s.now()})
	return applied, err
}

// ReplayOrder re-emits the current order document as an update, as a redelivering stream would.
func (s *Store) ReplayOrder(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok {
		s.feed.emit(Orders, events.OpUpdate, o)
	}
}

// ListOrdersByStatus returns orders in statuses, oldest first.
func (s *Store) ListOrdersByStatus(_ context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListOrdersByStatus"); err != nil {
		return nil, err
	}
	want := make(map[domain.OrderStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	return s.sortedOrders(func(o domain.Order) bool { return want[o.Status] }), nil
}

// ListUnsettledCancelled returns cancelled orders without confirmed refunds.
func (s *Store) ListUnsettledCancelled(_ context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedOrders(func(o domain.Order) bool {
		return o.Status == domain.OrderCancelled && !o.Settled
	}), nil
}

// MarkSettled flags a cancelled order as settled.
func (s *Store) MarkSettled(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("MarkSettled"); err != nil {
		return err
	}
	o, ok := s.orders[orderID]
	if !ok || o.Status != domain.OrderCancelled {
		return nil
	}
	o.Settled = true
	s.orders[orderID] = o
	s.feed.emit(Orders, events.OpUpdate, o)
	return nil
}

func (s *Store) sortedOrders(keep func(domain.Order) bool) []domain.Order {
	var out []domain.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedTS.Equal(out[j].CreatedTS) {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].CreatedTS.Before(out[j].CreatedTS)
	})
	return out
}

// LoadCursor returns the token saved for streamID or nil.
func (s *Store) LoadCursor(_ context.Context, streamID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[streamID], nil
}

// PersistCursor saves the token of streamID.
func (s *Store) PersistCursor(_ context.Context, streamID string, token []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[streamID] = append([]byte(nil), token...)
	return nil
}

func copyOrder(o domain.Order) *domain.Order {
	o.Items = append([]domain.Item(nil), o.Items...)
	return &o
}

// applyPatch sets status and the patched fields through a BSON round trip, so patch keys
// are the stored field names exactly as in the MongoDB store.
func applyPatch(o domain.Order, status domain.OrderStatus, patch domain.Patch) (domain.Order, error) {
	raw, err := bson.Marshal(o)
	if err != nil {
		return o, fmt.Errorf("marshal order: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return o, fmt.Errorf("unmarshal order: %w", err)
	}
	doc["status"] = status
	for k, v := range patch {
		doc[k] = v
	}
	if raw, err = bson.Marshal(doc); err != nil {
		return o, fmt.Errorf("marshal patch: %w", err)
	}
	var out domain.Order
	if err := bson.Unmarshal(raw, &out); err != nil {
		return o, fmt.Errorf("apply patch: %w", err)
	}
	return out, nil
}
