package handlers

import (
	"time"

	"delivery-orchestrator/internal/domain"
)

type orderView struct {
	OrderID          string             `json:"order_id"`
	Status           domain.OrderStatus `json:"status"`
	ClientID         string             `json:"client_id"`
	RestaurantID     string             `json:"restaurant_id"`
	AssignedDriverID string             `json:"assigned_driver_id,omitempty"`
	TotalAmount      float64            `json:"total_amount"`
	DriverReward     float64            `json:"driver_reward,omitempty"`
	CreatedTS        time.Time          `json:"created_ts"`
	ReadyTS          *time.Time         `json:"ready_ts,omitempty"`
	OffersSentTS     *time.Time         `json:"offers_sent_ts,omitempty"`
	AssignedTS       *time.Time         `json:"assigned_ts,omitempty"`
	CancelledTS      *time.Time         `json:"cancelled_ts,omitempty"`
	CancelReason     string             `json:"cancel_reason,omitempty"`

	Restaurant *requestView  `json:"restaurant_request,omitempty"`
	Offers     []requestView `json:"delivery_requests"`
}

type requestView struct {
	ActorID      string               `json:"actor_id"`
	Status       domain.RequestStatus `json:"status"`
	RequestedTS  time.Time            `json:"requested_ts"`
	RespondedTS  *time.Time           `json:"responded_ts,omitempty"`
	OfferedPrice float64              `json:"offered_price,omitempty"`
}

func toOrderView(o *domain.Order, rr *domain.RestaurantRequest, drs []domain.DeliveryRequest) orderView {
	v := orderView{
		OrderID:          o.OrderID,
		Status:           o.Status,
		ClientID:         o.ClientID,
		RestaurantID:     o.RestaurantID,
		AssignedDriverID: o.AssignedDriverID,
		TotalAmount:      o.TotalAmount,
		DriverReward:     o.DriverReward,
		CreatedTS:        o.CreatedTS,
		ReadyTS:          o.ReadyTS,
		OffersSentTS:     o.OffersSentTS,
		AssignedTS:       o.AssignedTS,
		CancelledTS:      o.CancelledTS,
		CancelReason:     string(o.CancelReason),
		Offers:           make([]requestView, 0, len(drs)),
	}
	if rr != nil {
		v.Restaurant = &requestView{
			ActorID:     rr.RestaurantID,
			Status:      rr.Status,
			RequestedTS: rr.RequestedTS,
			RespondedTS: rr.RespondedTS,
		}
	}
	for _, dr := range drs {
		v.Offers = append(v.Offers, requestView{
			ActorID:      dr.DriverID,
			Status:       dr.Status,
			RequestedTS:  dr.RequestedTS,
			RespondedTS:  dr.RespondedTS,
			OfferedPrice: dr.OfferedPrice,
		})
	}
	return v
}
