package handlers

import (
	"net/http"

	"delivery-orchestrator/internal/logx"
)

// OrderHandler serves the read-only order view.
type OrderHandler struct {
	store  OrderReader
	logger logx.Logger
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(logger logx.Logger, store OrderReader) *OrderHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &OrderHandler{store: store, logger: logger}
}

// GetByID handles GET /orders/{id}: the order with its restaurant request and delivery offers.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	o, err := h.store.GetOrder(ctx, id)
	if err != nil {
		h.logger.Error("get order failed", logx.OrderID(id), logx.Err(err))
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if o == nil {
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
		return
	}

	rr, err := h.store.GetRestaurantRequest(ctx, id)
	if err != nil {
		h.logger.Error("get restaurant request failed", logx.OrderID(id), logx.Err(err))
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	drs, err := h.store.ListDeliveryRequests(ctx, id)
	if err != nil {
		h.logger.Error("list delivery requests failed", logx.OrderID(id), logx.Err(err))
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toOrderView(o, rr, drs))
}
