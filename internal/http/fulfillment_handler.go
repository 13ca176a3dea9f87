package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/session"
	"github.com/go-chi/chi/v5"
)

type FulfillmentHandler struct {
	timeout time.Duration
}

func NewFulfillmentHandler(timeout time.Duration) *FulfillmentHandler {
	return &FulfillmentHandler{timeout: timeout}
}

type SetModeRequestDTO struct {
	Mode domain.FulfillmentMode `json:"mode"`
}

type SelectBranchRequestDTO struct {
	BranchID string `json:"branch_id"`
}

// SetAddressRequestDTO names an address by raw text, optionally with a known
// coordinate, or by a saved address id.
type SetAddressRequestDTO struct {
	Raw            string   `json:"raw"`
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
	SavedAddressID string   `json:"saved_address_id,omitempty"`
}

type SaveAddressRequestDTO struct {
	Label string   `json:"label"`
	Raw   string   `json:"raw"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
}

type ApplyPromoRequestDTO struct {
	Code string `json:"code"`
}

type AddressResponse struct {
	Validation domain.AddressValidationResult `json:"validation"`
	Session    session.View                   `json:"session"`
}

func (h *FulfillmentHandler) Branches(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, sessionFromContext(r.Context()).Branches())
}

func (h *FulfillmentHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req SetModeRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, func(ctx context.Context, s *session.Session) error {
		return s.SetMode(ctx, req.Mode)
	})
}

func (h *FulfillmentHandler) SelectBranch(w http.ResponseWriter, r *http.Request) {
	var req SelectBranchRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, func(ctx context.Context, s *session.Session) error {
		return s.SelectBranch(ctx, req.BranchID)
	})
}

// SetAddress applies a delivery address. An address that cannot be served is
// reported in the validation body with 200, not as an error.
func (h *FulfillmentHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SetAddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	s := sessionFromContext(ctx)
	var (
		result domain.AddressValidationResult
		err    error
	)
	switch {
	case req.SavedAddressID != "":
		result, err = s.UseSavedAddress(ctx, req.SavedAddressID)
	case req.Lat != nil && req.Lng != nil:
		result = s.SetDeliveryAddress(ctx, req.Raw, &domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng})
	default:
		result, err = s.ResolveAddress(ctx, req.Raw)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, AddressResponse{Validation: result, Session: s.View()})
}

func (h *FulfillmentHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, sessionFromContext(r.Context()).AddressBook())
}

func (h *FulfillmentHandler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SaveAddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	var coord *domain.Coordinate
	if req.Lat != nil && req.Lng != nil {
		coord = &domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	}

	saved, err := sessionFromContext(ctx).SaveAddress(ctx, req.Label, req.Raw, coord)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, saved)
}

func (h *FulfillmentHandler) RemoveAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s := sessionFromContext(ctx)
	if err := s.RemoveAddress(ctx, chi.URLParam(r, "address_id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FulfillmentHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req ApplyPromoRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, func(ctx context.Context, s *session.Session) error {
		_, err := s.ApplyPromo(ctx, req.Code)
		return err
	})
}

func (h *FulfillmentHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, s *session.Session) error {
		return s.RemovePromo(ctx)
	})
}

// mutate runs fn and answers with the updated session view.
func (h *FulfillmentHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, *session.Session) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s := sessionFromContext(ctx)
	if err := fn(ctx, s); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, s.View())
}
