package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/coffee_cart/internal/cart"
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	timeout time.Duration
}

func NewCartHandler(timeout time.Duration) *CartHandler {
	return &CartHandler{timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID string                  `json:"product_id"`
	Selection domain.VariantSelection `json:"selection"`
	Quantity  int                     `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type AddItemResponse struct {
	Line domain.CartLine `json:"line"`
	Cart cart.Snapshot   `json:"cart"`
}

// GetSession returns the whole session view: cart, resolution, promotion and totals.
func (h *CartHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, sessionFromContext(r.Context()).View())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	s := sessionFromContext(ctx)
	line, err := s.AddItem(ctx, req.ProductID, req.Selection, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, AddItemResponse{Line: line, Cart: s.View().Cart})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	s := sessionFromContext(ctx)
	if err := s.UpdateQuantity(ctx, chi.URLParam(r, "line_key"), req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, s.View().Cart)
}

func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(ctx context.Context, key string) error {
		return sessionFromContext(ctx).Increment(ctx, key)
	})
}

func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(ctx context.Context, key string) error {
		return sessionFromContext(ctx).Decrement(ctx, key)
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(ctx context.Context, key string) error {
		return sessionFromContext(ctx).RemoveItem(ctx, key)
	})
}

func (h *CartHandler) step(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, key string) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := fn(ctx, chi.URLParam(r, "line_key")); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionFromContext(ctx).View().Cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s := sessionFromContext(ctx)
	if err := s.ClearCart(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, s.View().Cart)
}
