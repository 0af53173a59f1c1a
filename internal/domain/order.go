package domain

import (
	"fmt"
	"strings"
	"time"

	"delivery-orchestrator/internal/apperr"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses. cancel_requested is written by the client actor only.
const (
	OrderPending          OrderStatus = "pending"
	OrderWaitingForResto  OrderStatus = "waiting_for_resto"
	OrderReady            OrderStatus = "ready"
	OrderWaitingForDriver OrderStatus = "waiting_for_driver"
	OrderAssigned         OrderStatus = "assigned"
	OrderCancelled        OrderStatus = "cancelled"
	OrderDelivered        OrderStatus = "delivered"
	OrderCancelRequested  OrderStatus = "cancel_requested"
)

// AllowedTransitions lists every status write the core may perform.
var AllowedTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:          {OrderWaitingForResto, OrderCancelled, OrderCancelRequested},
	OrderWaitingForResto:  {OrderReady, OrderCancelled, OrderCancelRequested},
	OrderReady:            {OrderWaitingForDriver, OrderCancelled, OrderCancelRequested},
	OrderWaitingForDriver: {OrderAssigned, OrderCancelled, OrderCancelRequested},
	// assigned is only reachable from cancel_requested when a client write raced an assignment.
	OrderCancelRequested: {OrderCancelled, OrderAssigned},
	OrderAssigned:        {OrderDelivered},
}

// CanTransition reports whether from -> to is a legal status write.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no orchestration step applies to the status anymore.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderAssigned, OrderCancelled, OrderDelivered:
		return true
	default:
		return false
	}
}

// Cancellable reports whether a client may still request cancellation.
func (s OrderStatus) Cancellable() bool {
	return CanTransition(s, OrderCancelRequested)
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderWaitingForResto, OrderReady, OrderWaitingForDriver,
		OrderAssigned, OrderCancelled, OrderDelivered, OrderCancelRequested:
		return true
	default:
		return false
	}
}

// Item is a single line of an order.
type Item struct {
	MenuID   string  `bson:"menu_id,omitempty" json:"menu_id,omitempty"`
	Name     string  `bson:"name,omitempty" json:"name,omitempty"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Price    float64 `bson:"price" json:"price"`
}

// Order is the document the orchestrator drives from pending to a terminal status.
type Order struct {
	OrderID         string    `bson:"order_id" json:"order_id"`
	ClientID        string    `bson:"client_id" json:"client_id"`
	RestaurantID    string    `bson:"restaurant_id" json:"restaurant_id"`
	MenuID          string    `bson:"menu_id,omitempty" json:"menu_id,omitempty"`
	Items           []Item    `bson:"items,omitempty" json:"items,omitempty"`
	TotalAmount     float64   `bson:"total_amount" json:"total_amount"`
	DeliveryFee     float64   `bson:"delivery_fee" json:"delivery_fee"`
	DeliveryAddress string    `bson:"delivery_address,omitempty" json:"delivery_address,omitempty"`
	City            string    `bson:"city,omitempty" json:"city,omitempty"`
	Location        *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
	ClientPremium   bool      `bson:"client_premium" json:"client_premium"`
	DriverReward    float64   `bson:"driver_reward,omitempty" json:"driver_reward,omitempty"`

	// literal fallbacks used by the archiver when joins are missing
	ClientName  string `bson:"client_name,omitempty" json:"client_name,omitempty"`
	ProductName string `bson:"product_name,omitempty" json:"product_name,omitempty"`

	Status           OrderStatus `bson:"status" json:"status"`
	AssignedDriverID string      `bson:"assigned_driver_id,omitempty" json:"assigned_driver_id,omitempty"`

	CreatedTS         time.Time  `bson:"created_ts" json:"created_ts"`
	ReadyTS           *time.Time `bson:"ready_ts,omitempty" json:"ready_ts,omitempty"`
	PrepTimeMinutes   *int       `bson:"prep_time_minutes,omitempty" json:"prep_time_minutes,omitempty"`
	OffersSentTS      *time.Time `bson:"offers_sent_ts,omitempty" json:"offers_sent_ts,omitempty"`
	AssignedTS        *time.Time `bson:"assigned_ts,omitempty" json:"assigned_ts,omitempty"`
	CancelRequestedTS *time.Time `bson:"cancel_requested_ts,omitempty" json:"cancel_requested_ts,omitempty"`
	CancelledTS       *time.Time `bson:"cancelled_ts,omitempty" json:"cancelled_ts,omitempty"`
	DeliveredTS       *time.Time `bson:"delivered_ts,omitempty" json:"delivered_ts,omitempty"`

	CancelReason       CancelReason `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	RefundedClient     *float64     `bson:"refunded_client,omitempty" json:"refunded_client,omitempty"`
	RefundedRestaurant *float64     `bson:"refunded_restaurant,omitempty" json:"refunded_restaurant,omitempty"`
	// Settled is set once refunds and notifications of a cancellation are recorded.
	Settled bool `bson:"settled,omitempty" json:"settled,omitempty"`
}

// Validate checks the fields the orchestrator cannot work without.
func (o *Order) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: order is nil", apperr.ErrInvalid)
	}
	var missing []string
	if strings.TrimSpace(o.OrderID) == "" {
		missing = append(missing, "order_id")
	}
	if strings.TrimSpace(o.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(o.RestaurantID) == "" {
		missing = append(missing, "restaurant_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", apperr.ErrInvalid, strings.Join(missing, ", "))
	}
	if o.TotalAmount < 0 {
		return fmt.Errorf("%w: negative total_amount %.2f", apperr.ErrInvalid, o.TotalAmount)
	}
	return nil
}

// Patch is a partial document update applied together with a status CAS.
type Patch map[string]any
