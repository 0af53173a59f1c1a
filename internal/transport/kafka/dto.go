package kafka

import "strings"

// CancelRequestDTO is the JSON body of a cancellation_requests message.
type CancelRequestDTO struct {
	OrderID  string `json:"order_id"`
	ClientID string `json:"client_id"`
	Reason   string `json:"reason"`
}

// CancelRequest is a client's request to cancel an order.
type CancelRequest struct {
	OrderID  string
	ClientID string
	Reason   string
}

// ToDomain converts CancelRequestDTO to CancelRequest.
func ToDomain(dto CancelRequestDTO) CancelRequest {
	return CancelRequest{
		OrderID:  strings.TrimSpace(dto.OrderID),
		ClientID: strings.TrimSpace(dto.ClientID),
		Reason:   strings.TrimSpace(dto.Reason),
	}
}
