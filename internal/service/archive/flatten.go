package archive

import (
	"strings"
	"time"

	"delivery-orchestrator/internal/domain"
)

// Flatten turns an enriched order into its history record. Missing joins fall back to
// the order's own literal fields, then to sentinel names.
func Flatten(src domain.EnrichmentSource, archivedBy string, now time.Time) domain.HistoryRecord {
	o := src.Order
	rec := domain.HistoryRecord{
		OrderNumber:     o.OrderID,
		Status:          string(o.Status),
		OrderDate:       o.CreatedTS,
		DeliveredTS:     o.DeliveredTS,
		ClientID:        o.ClientID,
		ClientName:      clientName(src),
		DriverID:        o.AssignedDriverID,
		DriverName:      domain.UnassignedDriver,
		RestaurantID:    o.RestaurantID,
		RestaurantName:  domain.UnknownRestaurant,
		MenuName:        menuName(src),
		Items:           o.Items,
		DeliveryFee:     o.DeliveryFee,
		DeliveryAddress: o.DeliveryAddress,
		DriverReward:    o.DriverReward,
		ArchivedAt:      now,
		ArchivedBy:      archivedBy,
	}
	if o.TotalAmount > 0 {
		total := o.TotalAmount
		rec.TotalCost = &total
	}
	if c := src.Client; c != nil {
		rec.ClientEmail = c.Email
		rec.ClientPhone = c.Phone
	}
	if d := src.Driver; d != nil {
		if name := strings.TrimSpace(d.Name); name != "" {
			rec.DriverName = name
		}
		rec.DriverPhone = d.Phone
	}
	if r := src.Restaurant; r != nil {
		if name := strings.TrimSpace(r.Name); name != "" {
			rec.RestaurantName = name
		}
		rec.RestaurantAddress = r.Address
	}
	if m := src.Menu; m != nil {
		rec.MenuPrice = m.Price
	}

	rec.MissingFields = missingFields(rec)
	rec.Incomplete = len(rec.MissingFields) > 0
	return rec
}

func clientName(src domain.EnrichmentSource) string {
	if c := src.Client; c != nil {
		if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(src.Order.ClientName); name != "" {
		return name
	}
	return domain.UnknownClient
}

func menuName(src domain.EnrichmentSource) string {
	if m := src.Menu; m != nil {
		if name := strings.TrimSpace(m.Name); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(src.Order.ProductName); name != "" {
		return name
	}
	for _, it := range src.Order.Items {
		if name := strings.TrimSpace(it.Name); name != "" {
			return name
		}
	}
	return domain.UnknownMenu
}

var sentinels = map[string]bool{
	domain.UnknownClient:     true,
	domain.UnassignedDriver:  true,
	domain.UnknownRestaurant: true,
	domain.UnknownMenu:       true,
}

// missingFields lists the required fields that are empty or hold a sentinel.
func missingFields(rec domain.HistoryRecord) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"client_name", rec.ClientName},
		{"driver_name", rec.DriverName},
		{"restaurant_name", rec.RestaurantName},
		{"menu_name", rec.MenuName},
	} {
		if f.value == "" || sentinels[f.value] {
			missing = append(missing, f.name)
		}
	}
	if rec.TotalCost == nil {
		missing = append(missing, "total_cost")
	}
	return missing
}
