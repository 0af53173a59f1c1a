package cancellation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
)

// Decision is the refund outcome of one cancellation.
type Decision struct {
	Reason           domain.CancelReason
	ClientRefund     decimal.Decimal
	RestaurantRefund decimal.Decimal
}

// NotifyRestaurant reports whether the restaurant is told about the cancellation.
func (d Decision) NotifyRestaurant() bool {
	return d.RestaurantRefund.IsPositive()
}

// Policy maps the cancellation stage to refunds. The client always gets the full total back;
// the restaurant is paid its preparation share once the order was prepared.
type Policy struct {
	preparationRate decimal.Decimal
}

// NewPolicy creates a Policy with the restaurant's preparation share of the total.
func NewPolicy(preparationRate float64) Policy {
	return Policy{preparationRate: decimal.NewFromFloat(preparationRate)}
}

// Decide returns the refunds of a cancellation with reason on an order of total.
func (p Policy) Decide(reason domain.CancelReason, total float64) (Decision, error) {
	amount := decimal.NewFromFloat(total).Round(2)
	d := Decision{Reason: reason, ClientRefund: amount, RestaurantRefund: decimal.Zero}

	switch reason {
	case domain.ReasonImmediate, domain.ReasonRestaurantUnavailable:
	case domain.ReasonNoDriverAfterOffers, domain.ReasonCancelAfterPreparation:
		d.RestaurantRefund = amount.Mul(p.preparationRate).Round(2)
	default:
		return Decision{}, fmt.Errorf("%w: unknown cancel reason %q", apperr.ErrInvalid, reason)
	}
	return d, nil
}

// ClientStage derives the reason of a client-initiated cancellation from stored state:
// once the restaurant accepted (ready_ts set) the preparation is paid.
func ClientStage(o domain.Order) domain.CancelReason {
	if o.ReadyTS != nil {
		return domain.ReasonCancelAfterPreparation
	}
	return domain.ReasonImmediate
}
