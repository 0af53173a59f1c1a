package domain

import "time"

// NotificationKind is the typed reason of a notification; display text belongs to the recipient.
type NotificationKind string

// Notification kinds.
const (
	KindRestaurantRequest    NotificationKind = "restaurant_request"
	KindDeliveryOffer        NotificationKind = "delivery_offer"
	KindAttributionConfirmed NotificationKind = "attribution_confirmed"
	KindCourseAttributed     NotificationKind = "course_attributed"
	KindCourseUnavailable    NotificationKind = "course_unavailable"
	KindOrderCancelled       NotificationKind = "order_cancelled"
	KindOrderInvalid         NotificationKind = "order_invalid"
)

// RecipientRole identifies the kind of party a notification addresses.
type RecipientRole string

// Recipient roles.
const (
	RoleClient     RecipientRole = "client"
	RoleDriver     RecipientRole = "driver"
	RoleRestaurant RecipientRole = "restaurant"
	RoleBroadcast  RecipientRole = "broadcast"
)

// Recipient addresses a notification.
type Recipient struct {
	Role RecipientRole `bson:"role" json:"role"`
	ID   string        `bson:"id,omitempty" json:"id,omitempty"`
}

// ToClient builds a client recipient.
func ToClient(id string) Recipient { return Recipient{Role: RoleClient, ID: id} }

// ToDriver builds a driver recipient.
func ToDriver(id string) Recipient { return Recipient{Role: RoleDriver, ID: id} }

// ToRestaurant builds a restaurant recipient.
func ToRestaurant(id string) Recipient { return Recipient{Role: RoleRestaurant, ID: id} }

// ToBroadcast addresses every listener.
func ToBroadcast() Recipient { return Recipient{Role: RoleBroadcast} }

// ChannelKey is the stable channel derived from the recipient: client:<id>, driver:<id>,
// restaurant:<id> or broadcast.
func (r Recipient) ChannelKey() string {
	if r.Role == RoleBroadcast || r.ID == "" {
		return string(RoleBroadcast)
	}
	return string(r.Role) + ":" + r.ID
}

// Notification is an append-only log entry. Consumers dedup by (order_id, recipient, kind).
type Notification struct {
	ID        string           `bson:"notification_id" json:"notification_id"`
	OrderID   string           `bson:"order_id" json:"order_id"`
	Recipient Recipient        `bson:"recipient" json:"recipient"`
	Kind      NotificationKind `bson:"kind" json:"kind"`
	Payload   map[string]any   `bson:"payload,omitempty" json:"payload,omitempty"`
	SentAt    time.Time        `bson:"sent_at" json:"sent_at"`
}
