package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/alerts"
	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type AlertsHandler struct {
	timeout time.Duration
}

func NewAlertsHandler(timeout time.Duration) *AlertsHandler {
	return &AlertsHandler{timeout: timeout}
}

type CheckPricesRequestDTO struct {
	Prices map[string]decimal.Decimal `json:"prices"`
}

func currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := getState(r.Context()).Account.User()
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
	}
	return u, ok
}

// GET /api/v1/alerts
func (h *AlertsHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	wl := getState(r.Context()).Watchlist
	if err := wl.Load(ctx, u.ID); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]domain.PriceAlert{"alerts": wl.Alerts()})
}

// POST /api/v1/alerts
func (h *AlertsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var product domain.Product
	if err := decodeJSON(r, &product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if product.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id is required")
		return
	}

	alert, err := getState(r.Context()).Watchlist.Activate(ctx, product, u)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, alert)
}

// DELETE /api/v1/alerts/{productId}
func (h *AlertsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	productID := domain.ID(chi.URLParam(r, "productId"))
	if err := getState(r.Context()).Watchlist.Deactivate(ctx, productID, u.ID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/v1/alerts
func (h *AlertsHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	removed, err := getState(r.Context()).Watchlist.ClearUser(ctx, u.ID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// POST /api/v1/alerts/check
func (h *AlertsHandler) Check(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	var req CheckPricesRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	drops := getState(r.Context()).Watchlist.Triggered(req.Prices)
	if drops == nil {
		drops = []alerts.Drop{}
	}
	respondJSON(w, http.StatusOK, map[string][]alerts.Drop{"drops": drops})
}
