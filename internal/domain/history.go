package domain

import "time"

// Fallbacks written when neither a join nor an in-order literal is available.
const (
	UnknownClient     = "unknown_client"
	UnassignedDriver  = "unassigned_driver"
	UnknownRestaurant = "unknown_restaurant"
	UnknownMenu       = "unknown_menu"
)

// HistoryRecord is the enriched, self-contained snapshot of a delivered order.
// order_number is unique in History.
type HistoryRecord struct {
	OrderNumber string     `bson:"order_number" json:"order_number"`
	Status      string     `bson:"status" json:"status"`
	OrderDate   time.Time  `bson:"order_date" json:"order_date"`
	DeliveredTS *time.Time `bson:"delivered_ts,omitempty" json:"delivered_ts,omitempty"`

	ClientID    string `bson:"client_id" json:"client_id"`
	ClientName  string `bson:"client_name" json:"client_name"`
	ClientEmail string `bson:"client_email,omitempty" json:"client_email,omitempty"`
	ClientPhone string `bson:"client_phone,omitempty" json:"client_phone,omitempty"`

	DriverID    string `bson:"driver_id,omitempty" json:"driver_id,omitempty"`
	DriverName  string `bson:"driver_name" json:"driver_name"`
	DriverPhone string `bson:"driver_phone,omitempty" json:"driver_phone,omitempty"`

	RestaurantID      string `bson:"restaurant_id" json:"restaurant_id"`
	RestaurantName    string `bson:"restaurant_name" json:"restaurant_name"`
	RestaurantAddress string `bson:"restaurant_address,omitempty" json:"restaurant_address,omitempty"`

	MenuName  string   `bson:"menu_name" json:"menu_name"`
	MenuPrice *float64 `bson:"menu_price,omitempty" json:"menu_price,omitempty"`
	Items     []Item   `bson:"items,omitempty" json:"items,omitempty"`

	TotalCost       *float64 `bson:"total_cost" json:"total_cost"`
	DeliveryFee     float64  `bson:"delivery_fee" json:"delivery_fee"`
	DeliveryAddress string   `bson:"delivery_address,omitempty" json:"delivery_address,omitempty"`
	DriverReward    float64  `bson:"driver_reward,omitempty" json:"driver_reward,omitempty"`

	ArchivedAt    time.Time `bson:"archived_at" json:"archived_at"`
	ArchivedBy    string    `bson:"archived_by" json:"archived_by"`
	Incomplete    bool      `bson:"incomplete" json:"incomplete"`
	MissingFields []string  `bson:"missing_fields,omitempty" json:"missing_fields,omitempty"`
}

// ClientProfile, RestaurantProfile and MenuEntry are the reference documents joined by enrichment.
type ClientProfile struct {
	ClientID  string `bson:"client_id" json:"client_id"`
	FirstName string `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName  string `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	City      string `bson:"city,omitempty" json:"city,omitempty"`
}

type RestaurantProfile struct {
	RestaurantID string `bson:"restaurant_id" json:"restaurant_id"`
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	Address      string `bson:"address,omitempty" json:"address,omitempty"`
}

type MenuEntry struct {
	MenuID string   `bson:"menu_id" json:"menu_id"`
	Name   string   `bson:"name,omitempty" json:"name,omitempty"`
	Price  *float64 `bson:"price,omitempty" json:"price,omitempty"`
}

// EnrichmentSource is one order joined with its reference documents; nil means the join missed.
type EnrichmentSource struct {
	Order      Order              `bson:"order"`
	Client     *ClientProfile     `bson:"client,omitempty"`
	Driver     *Driver            `bson:"driver,omitempty"`
	Restaurant *RestaurantProfile `bson:"restaurant,omitempty"`
	Menu       *MenuEntry         `bson:"menu,omitempty"`
}
