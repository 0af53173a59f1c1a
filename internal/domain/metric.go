package domain

import "time"

// AssignmentMetric records the latency between offers and assignment of one order.
type AssignmentMetric struct {
	OrderID           string    `bson:"order_id" json:"order_id"`
	DriverID          string    `bson:"driver_id" json:"driver_id"`
	OffersSentTS      time.Time `bson:"offers_sent_ts" json:"offers_sent_ts"`
	AssignedTS        time.Time `bson:"assigned_ts" json:"assigned_ts"`
	AssignmentDelayMS int64     `bson:"assignment_delay_ms" json:"assignment_delay_ms"`
	TS                time.Time `bson:"ts" json:"ts"`
}
