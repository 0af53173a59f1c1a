package domain

// DriverStatus represents the availability of a driver.
type DriverStatus string

// Driver statuses.
const (
	DriverAvailable DriverStatus = "available"
	DriverBusy      DriverStatus = "busy"
	DriverOffline   DriverStatus = "offline"
)

// Valid reports whether s is a known driver status.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverAvailable, DriverBusy, DriverOffline:
		return true
	default:
		return false
	}
}

// Driver is upserted by the driver actor; the core only flips status and current_order_id.
// current_order_id is set exactly when status is busy.
type Driver struct {
	DriverID       string       `bson:"driver_id" json:"driver_id"`
	Status         DriverStatus `bson:"status" json:"status"`
	Name           string       `bson:"name,omitempty" json:"name,omitempty"`
	Phone          string       `bson:"phone,omitempty" json:"phone,omitempty"`
	City           string       `bson:"city,omitempty" json:"city,omitempty"`
	Location       *GeoPoint    `bson:"location,omitempty" json:"location,omitempty"`
	CurrentOrderID string       `bson:"current_order_id,omitempty" json:"current_order_id,omitempty"`
}
