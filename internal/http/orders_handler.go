package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/session"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	timeout time.Duration
}

func NewOrdersHandler(timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{timeout: timeout}
}

type ListOrdersResponse struct {
	Orders []*domain.PlacedOrder `json:"orders"`
}

// Checkout places an order from the current session.
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req session.Checkout
	if !decodeJSON(w, r, &req) {
		return
	}

	placed, err := sessionFromContext(ctx).PlaceOrder(ctx, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, placed)
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, ListOrdersResponse{
		Orders: sessionFromContext(r.Context()).Orders(),
	})
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, r, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	o, err := sessionFromContext(r.Context()).Order(orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, o)
}

func (h *OrdersHandler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*session.Session).AdvanceOrder)
}

func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*session.Session).CancelOrder)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(*session.Session, context.Context, string) (*domain.PlacedOrder, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	updated, err := fn(sessionFromContext(ctx), ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, updated)
}
