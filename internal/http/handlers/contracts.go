package handlers

import (
	"context"

	"delivery-orchestrator/internal/domain"
)

// OrderReader is the read side of the operational store used by the order view.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetRestaurantRequest(ctx context.Context, orderID string) (*domain.RestaurantRequest, error)
	ListDeliveryRequests(ctx context.Context, orderID string) ([]domain.DeliveryRequest, error)
}
