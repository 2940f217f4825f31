package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
	"github.com/go-chi/chi/v5"
)

// OrdersHandler serves the back-office order list, kept fresh by the
// poller, and the public tracking lookup.
type OrdersHandler struct {
	book    *orders.Book
	views   *orders.Views
	timeout time.Duration
}

func NewOrdersHandler(book *orders.Book, views *orders.Views, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{book: book, views: views, timeout: timeout}
}

// POST /api/v1/orders/view
// The tracking view calls this when it opens and again to stay open.
func (h *OrdersHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	if h.views == nil {
		respondError(w, http.StatusNotFound, "not_found", "order polling is not enabled")
		return
	}
	started := h.views.Open(getState(r.Context()).ID)
	respondJSON(w, http.StatusOK, map[string]bool{"polling": true, "started": started})
}

// DELETE /api/v1/orders/view
func (h *OrdersHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	if h.views != nil {
		h.views.Close(getState(r.Context()).ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if r.URL.Query().Get("refresh") == "true" {
		if err := h.book.RefreshOrders(ctx); err != nil {
			handleError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string][]domain.Order{"orders": h.book.Orders()})
}

// GET /api/v1/orders/mine
func (h *OrdersHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	u, ok := getState(r.Context()).Account.User()
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}
	list := u.Orders
	if list == nil {
		list = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, map[string][]domain.Order{"orders": list})
}

// GET /api/v1/orders/track/{orderNo}
func (h *OrdersHandler) Track(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	t, err := h.book.Track(ctx, chi.URLParam(r, "orderNo"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// PUT /api/v1/orders/{id}
func (h *OrdersHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var patch domain.OrderPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if patch.Status != nil {
		if _, err := domain.ParseOrderStatus(patch.Status.String()); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
	}

	id := domain.ID(chi.URLParam(r, "id"))
	if err := h.book.UpdateOrder(ctx, id, patch); err != nil {
		handleError(w, err)
		return
	}

	o, ok := h.book.Find(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// DELETE /api/v1/orders/{id}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.book.DeleteOrder(ctx, domain.ID(chi.URLParam(r, "id"))); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
