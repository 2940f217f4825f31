package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/storefront/internal/account"
	"github.com/fjod/storefront/internal/alerts"
	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps an error from the session components to an HTTP answer.
func handleError(w http.ResponseWriter, err error) {
	var (
		verr   *domain.ValidationError
		gwErr  *checkout.GatewayError
		apiErr *backend.APIError
	)

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "please check the highlighted fields",
			Code:   "validation_failed",
			Fields: verr.Fields,
		})
		return
	case errors.As(err, &gwErr):
		respondJSON(w, http.StatusPaymentRequired, ErrorResponse{
			Error:   "payment could not be started",
			Code:    "payment_rejected",
			Details: gwErr.Reason,
		})
		return
	}

	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, checkout.ErrAuthRequired),
		errors.Is(err, account.ErrNotAuthenticated),
		errors.Is(err, alerts.ErrAuthRequired):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, account.ErrSessionExpired):
		status, code = http.StatusUnauthorized, "session_expired"
	case errors.Is(err, checkout.ErrEmptyCart):
		status, code = http.StatusConflict, "empty_cart"
	case errors.Is(err, checkout.ErrSubmitInFlight):
		status, code = http.StatusConflict, "submit_in_flight"
	case errors.Is(err, checkout.IllegalTransitionError),
		errors.Is(err, checkout.ErrNoPendingPayment):
		status, code = http.StatusConflict, "illegal_step"
	case errors.Is(err, checkout.ErrInvalidAddressIndex),
		errors.Is(err, checkout.ErrNoAddress),
		errors.Is(err, checkout.ErrPaymentMethodDisabled),
		errors.Is(err, checkout.ErrNoPaymentMethod),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, orders.ErrInvalidOrderNo),
		errors.Is(err, orders.ErrEmptyOrderDraft):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, orders.ErrOrderNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, backend.ErrCircuitOpen):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, backend.ErrConnection):
		status, code = http.StatusBadGateway, "connection_error"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &apiErr):
		status, code = http.StatusBadGateway, "backend_error"
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status, code = apiErr.Status, "backend_rejected"
		}
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, status, code, backend.Message(err))
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
