//go:generate mockgen -source=contracts.go -destination=orchestrator_mocks_test.go -package=orchestrator_test

package orchestrator

import (
	"context"
	"time"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/service/cancellation"
)

// Store is the part of the store adapter the orchestrator drives orders with.
type Store interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateOrderIfStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus, patch domain.Patch) (bool, *domain.Order, error)
	ListOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error)
	ListUnsettledCancelled(ctx context.Context) ([]domain.Order, error)
	InsertRestaurantRequest(ctx context.Context, rr domain.RestaurantRequest) error
	GetRestaurantRequest(ctx context.Context, orderID string) (*domain.RestaurantRequest, error)
	InsertDeliveryRequests(ctx context.Context, drs []domain.DeliveryRequest) (int, error)
	ListDeliveryRequests(ctx context.Context, orderID string) ([]domain.DeliveryRequest, error)
	GetDriver(ctx context.Context, driverID string) (*domain.Driver, error)
	ClaimDriver(ctx context.Context, driverID, orderID string) (bool, error)
	ReleaseDriver(ctx context.Context, driverID, orderID string) (bool, error)
}

// Selector picks candidate drivers for an order.
type Selector interface {
	Select(ctx context.Context, o domain.Order) ([]string, error)
}

// Canceller applies the cancellation and refund policy.
type Canceller interface {
	Cancel(ctx context.Context, o domain.Order, from domain.OrderStatus, reason domain.CancelReason) (cancellation.Result, error)
	HandleCancelRequest(ctx context.Context, orderID string) (cancellation.Result, error)
	Settle(ctx context.Context, o domain.Order) error
}

// Publisher sends typed notifications.
type Publisher interface {
	Publish(ctx context.Context, orderID string, to domain.Recipient, kind domain.NotificationKind, payload map[string]any) error
}

// AssignmentRecorder stores assignment latencies.
type AssignmentRecorder interface {
	RecordAssignment(ctx context.Context, orderID, driverID string, offersSent, assigned time.Time) (domain.AssignmentMetric, error)
}
