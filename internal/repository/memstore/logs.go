package memstore

import (
	"context"

	"delivery-orchestrator/internal/domain"
)

// InsertNotification appends a notification, unique per (order, recipient, kind).
func (s *Store) InsertNotification(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("InsertNotification"); err != nil {
		return err
	}
	if err := s.claimKey("n|" + n.OrderID + "|" + n.Recipient.ChannelKey() + "|" + string(n.Kind)); err != nil {
		return err
	}
	s.notifications = append(s.notifications, n)
	return nil
}

// InsertRefund appends a refund, unique per (order, beneficiary).
func (s *Store) InsertRefund(_ context.Context, r domain.Refund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("InsertRefund"); err != nil {
		return err
	}
	if err := s.claimKey("r|" + r.OrderID + "|" + string(r.Beneficiary)); err != nil {
		return err
	}
	s.refunds = append(s.refunds, r)
	return nil
}

// InsertMetric appends an assignment metric, one per order.
func (s *Store) InsertMetric(_ context.Context, m domain.AssignmentMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claimKey("m|" + m.OrderID); err != nil {
		return err
	}
	s.metrics = append(s.metrics, m)
	return nil
}

// Notifications returns the notifications of an order.
func (s *Store) Notifications(orderID string) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.OrderID == orderID {
			out = append(out, n)
		}
	}
	return out
}

// Refunds returns the refunds of an order.
func (s *Store) Refunds(orderID string) []domain.Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Refund
	for _, r := range s.refunds {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out
}

// Metrics returns every recorded assignment metric.
func (s *Store) Metrics() []domain.AssignmentMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AssignmentMetric(nil), s.metrics...)
}
