package domain

import "time"

// RequestStatus is the status of a restaurant or delivery solicitation.
// Only the solicited actor writes it.
type RequestStatus string

// Request statuses.
const (
	RequestRequested RequestStatus = "requested"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
)

// Responded reports whether the actor has answered.
func (s RequestStatus) Responded() bool {
	return s == RequestAccepted || s == RequestRejected
}

// RestaurantRequest asks a restaurant to prepare an order.
type RestaurantRequest struct {
	OrderID         string        `bson:"order_id" json:"order_id"`
	RestaurantID    string        `bson:"restaurant_id" json:"restaurant_id"`
	Status          RequestStatus `bson:"status" json:"status"`
	RequestedTS     time.Time     `bson:"requested_ts" json:"requested_ts"`
	RespondedTS     *time.Time    `bson:"responded_ts,omitempty" json:"responded_ts,omitempty"`
	PrepTimeMinutes *int          `bson:"prep_time_minutes,omitempty" json:"prep_time_minutes,omitempty"`
	RejectReason    string        `bson:"reject_reason,omitempty" json:"reject_reason,omitempty"`
}

// DeliveryRequest offers an order to one candidate driver.
type DeliveryRequest struct {
	OrderID      string        `bson:"order_id" json:"order_id"`
	DriverID     string        `bson:"driver_id" json:"driver_id"`
	Status       RequestStatus `bson:"status" json:"status"`
	RequestedTS  time.Time     `bson:"requested_ts" json:"requested_ts"`
	RespondedTS  *time.Time    `bson:"responded_ts,omitempty" json:"responded_ts,omitempty"`
	OfferedPrice float64       `bson:"offered_price" json:"offered_price"`
	City         string        `bson:"city,omitempty" json:"city,omitempty"`
}
