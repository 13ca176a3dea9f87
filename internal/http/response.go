package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/session"
	"github.com/fjod/coffee_cart/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		l := logger.FromContext(r.Context())
		l.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps engine errors to HTTP status codes.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var notPlaceable *domain.NotPlaceableError
	if errors.As(err, &notPlaceable) {
		respondJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   notPlaceable.Message(),
			Code:    "not_placeable",
			Details: string(notPlaceable.Reason),
		})
		return
	}

	var httpStatus int
	var code string

	switch {
	case errors.Is(err, domain.ErrInvalidSelection), errors.Is(err, domain.ErrInvalidMode):
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case errors.Is(err, session.ErrInvalidSessionID):
		httpStatus = http.StatusBadRequest
		code = "invalid_session_id"
	case errors.Is(err, domain.ErrInvalidPromoCode):
		httpStatus = http.StatusUnprocessableEntity
		code = "invalid_promo_code"
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrLineNotFound),
		errors.Is(err, domain.ErrBranchNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, session.ErrAddressNotFound):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, domain.ErrProductUnavailable), errors.Is(err, domain.ErrBranchInactive):
		httpStatus = http.StatusConflict
		code = "unavailable"
	case errors.Is(err, domain.ErrIllegalTransition):
		httpStatus = http.StatusConflict
		code = "illegal_transition"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		l := logger.FromContext(r.Context())
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, r, httpStatus, code, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
