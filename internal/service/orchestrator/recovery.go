package orchestrator

import (
	"context"
	"fmt"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
)

// resumable are the statuses a restarted orchestrator re-drives.
var resumable = []domain.OrderStatus{
	domain.OrderPending,
	domain.OrderWaitingForResto,
	domain.OrderReady,
	domain.OrderWaitingForDriver,
	domain.OrderCancelRequested,
}

// Recover settles cancellations interrupted before their refunds were written and starts a
// task for every order still in flight. It returns the number of started tasks.
func (s *Service) Recover(ctx context.Context) (int, error) {
	unsettled, err := s.store.ListUnsettledCancelled(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unsettled cancelled orders: %w", err)
	}
	for _, o := range unsettled {
		if err := s.cancel.Settle(ctx, o); err != nil {
			s.logger.Error("settle on recovery failed", logx.OrderID(o.OrderID), logx.Err(err))
			continue
		}
		s.logger.Info("cancellation settled on recovery", logx.OrderID(o.OrderID))
	}

	open, err := s.store.ListOrdersByStatus(ctx, resumable...)
	if err != nil {
		return 0, fmt.Errorf("list open orders: %w", err)
	}
	started := 0
	for _, o := range open {
		if s.Start(ctx, o.OrderID) {
			started++
		}
	}
	s.logger.Info("recovery done",
		logx.Int("settled", len(unsettled)),
		logx.Int("resumed", started),
	)
	return started, nil
}
