package memstore

import (
	"context"
	"fmt"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/events"
)

// InsertRestaurantRequest stores the solicitation, one per order.
func (s *Store) InsertRestaurantRequest(_ context.Context, rr domain.RestaurantRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("InsertRestaurantRequest"); err != nil {
		return err
	}
	if _, ok := s.restaurantRequests[rr.OrderID]; ok {
		return fmt.Errorf("%w: restaurant request %s", apperr.ErrDuplicate, rr.OrderID)
	}
	s.restaurantRequests[rr.OrderID] = rr
	s.feed.emit(RestaurantRequests, events.OpInsert, rr)
	return nil
}

// GetRestaurantRequest returns the request of an order or nil.
func (s *Store) GetRestaurantRequest(_ context.Context, orderID string) (*domain.RestaurantRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rr, ok := s.restaurantRequests[orderID]
	if !ok {
		return nil, nil
	}
	return &rr, nil
}

// RespondRestaurantRequest is the restaurant actor's write.
func (s *Store) RespondRestaurantRequest(_ context.Context, orderID string, status domain.RequestStatus, prepMinutes *int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rr, ok := s.restaurantRequests[orderID]
	if !ok || rr.Status != domain.RequestRequested {
		return nil
	}
	now := s.now()
	rr.Status = status
	rr.RespondedTS = &now
	rr.PrepTimeMinutes = prepMinutes
	rr.RejectReason = reason
	s.restaurantRequests[orderID] = rr
	s.feed.emit(RestaurantRequests, events.OpUpdate, rr)
	return nil
}

// InsertDeliveryRequests offers the order to candidates; existing offers are skipped.
func (s *Store) InsertDeliveryRequests(_ context.Context, drs []domain.DeliveryRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("InsertDeliveryRequests"); err != nil {
		return 0, err
	}
	inserted := 0
	for _, dr := range drs {
		if s.claimKey("dr|"+dr.OrderID+"|"+dr.DriverID) != nil {
			continue
		}
		s.deliveryRequests[dr.OrderID] = append(s.deliveryRequests[dr.OrderID], dr)
		s.feed.emit(DeliveryRequests, events.OpInsert, dr)
		inserted++
	}
	return inserted, nil
}

// ListDeliveryRequests returns the offers of an order in insertion order.
func (s *Store) ListDeliveryRequests(_ context.Context, orderID string) ([]domain.DeliveryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DeliveryRequest(nil), s.deliveryRequests[orderID]...), nil
}

// RespondDeliveryRequest is the driver actor's write.
func (s *Store) RespondDeliveryRequest(_ context.Context, orderID, driverID string, status domain.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drs := s.deliveryRequests[orderID]
	for i := range drs {
		if drs[i].DriverID != driverID || drs[i].Status != domain.RequestRequested {
			continue
		}
		now := s.now()
		drs[i].Status = status
		drs[i].RespondedTS = &now
		s.feed.emit(DeliveryRequests, events.OpUpdate, drs[i])
		return nil
	}
	return nil
}
