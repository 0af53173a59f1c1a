package domain

import "time"

// CancelReason is recorded once on a cancelled order.
type CancelReason string

// Cancel reasons.
const (
	ReasonImmediate              CancelReason = "immediate"
	ReasonRestaurantUnavailable  CancelReason = "restaurant_unavailable"
	ReasonNoDriverAfterOffers    CancelReason = "no_driver_after_offers"
	ReasonCancelAfterPreparation CancelReason = "cancel_after_preparation"
)

// Beneficiary receives a refund.
type Beneficiary string

// Beneficiaries.
const (
	BeneficiaryClient     Beneficiary = "client"
	BeneficiaryRestaurant Beneficiary = "restaurant"
)

// RefundKind classifies a refund entry.
type RefundKind string

// Refund kinds.
const (
	RefundFullClient            RefundKind = "full_refund_client"
	RefundRestaurantPreparation RefundKind = "refund_restaurant_preparation"
)

// Refund is an append-only entry; at most one per beneficiary per cancellation.
type Refund struct {
	OrderID       string       `bson:"order_id" json:"order_id"`
	Beneficiary   Beneficiary  `bson:"beneficiary" json:"beneficiary"`
	BeneficiaryID string       `bson:"beneficiary_id,omitempty" json:"beneficiary_id,omitempty"`
	Amount        float64      `bson:"amount" json:"amount"`
	Kind          RefundKind   `bson:"kind" json:"kind"`
	Reason        CancelReason `bson:"reason" json:"reason"`
	TS            time.Time    `bson:"ts" json:"ts"`
}
