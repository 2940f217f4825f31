package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	timeout time.Duration
}

func NewCartHandler(timeout time.Duration) *CartHandler {
	return &CartHandler{timeout: timeout}
}

type AddItemRequestDTO struct {
	ID       domain.ID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type DrawerRequestDTO struct {
	Open bool `json:"open"`
}

type CartResponseDTO struct {
	Items      []domain.CartLine   `json:"items"`
	Totals     domain.BasketTotals `json:"totals"`
	DrawerOpen bool                `json:"drawer_open"`
}

func (h *CartHandler) cartResponse(ctx context.Context, r *http.Request) CartResponseDTO {
	s := getState(r.Context())
	return CartResponseDTO{
		Items:      s.Cart.Lines(),
		Totals:     s.Cart.Totals(ctx),
		DrawerOpen: s.Cart.IsDrawerOpen(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.cartResponse(ctx, r))
}

// GET /api/v1/cart/totals
func (h *CartHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, getState(r.Context()).Cart.Totals(ctx))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	s := getState(r.Context())
	err := s.Cart.AddItem(ctx, domain.CartLine{
		ID:        req.ID.String(),
		Name:      req.Name,
		UnitPrice: req.Price,
		Image:     req.Image,
		Quantity:  req.Quantity,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	s.Cart.OpenDrawer()

	respondJSON(w, http.StatusCreated, h.cartResponse(ctx, r))
}

// PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	getState(r.Context()).Cart.UpdateQuantity(ctx, chi.URLParam(r, "id"), req.Quantity)
	respondJSON(w, http.StatusOK, h.cartResponse(ctx, r))
}

// DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	getState(r.Context()).Cart.RemoveItem(ctx, chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, h.cartResponse(ctx, r))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	getState(r.Context()).Cart.ClearCart(ctx)
	respondJSON(w, http.StatusOK, h.cartResponse(ctx, r))
}

// PUT /api/v1/cart/drawer
func (h *CartHandler) SetDrawer(w http.ResponseWriter, r *http.Request) {
	var req DrawerRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c := getState(r.Context()).Cart
	if req.Open {
		c.OpenDrawer()
	} else {
		c.CloseDrawer()
	}
	respondJSON(w, http.StatusOK, map[string]bool{"drawer_open": c.IsDrawerOpen()})
}
