package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/paytr"
)

type CheckoutHandler struct {
	locations checkout.LocationDirectory
	timeout   time.Duration
}

func NewCheckoutHandler(locations checkout.LocationDirectory, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{locations: locations, timeout: timeout}
}

type DeliveryRequestDTO struct {
	AddressIndex *int                  `json:"address_index,omitempty"`
	NewAddress   *checkout.AddressForm `json:"new_address,omitempty"`
	Billing      *checkout.BillingForm `json:"billing,omitempty"`
}

type PaymentRequestDTO struct {
	Method domain.PaymentMethod `json:"method"`
}

type StepResponseDTO struct {
	Step      checkout.Step    `json:"step"`
	Addresses []domain.Address `json:"addresses,omitempty"`
}

// POST /api/v1/checkout/begin
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	s := getState(r.Context())
	co := s.Checkout()
	if err := co.Begin(); err != nil {
		handleError(w, err)
		return
	}

	u, _ := s.Account.User()
	respondJSON(w, http.StatusOK, StepResponseDTO{Step: co.Step(), Addresses: u.Addresses})
}

// POST /api/v1/checkout/delivery
func (h *CheckoutHandler) SubmitDelivery(w http.ResponseWriter, r *http.Request) {
	var req DeliveryRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	co := getState(r.Context()).Checkout()
	switch {
	case req.NewAddress != nil:
		co.UseNewAddress(*req.NewAddress)
	case req.AddressIndex != nil:
		if err := co.SelectAddress(*req.AddressIndex); err != nil {
			handleError(w, err)
			return
		}
	}
	co.UseBillingAddress(req.Billing)

	if err := co.SubmitDelivery(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StepResponseDTO{Step: co.Step()})
}

// POST /api/v1/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	co := getState(r.Context()).Checkout()
	if err := co.Back(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StepResponseDTO{Step: co.Step()})
}

// POST /api/v1/checkout/payment
func (h *CheckoutHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	co := getState(r.Context()).Checkout()
	if err := co.SelectPayment(req.Method); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, co.Quote(ctx))
}

// GET /api/v1/checkout/quote
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, getState(r.Context()).Checkout().Quote(ctx))
}

// POST /api/v1/checkout/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := getState(r.Context()).Checkout().HandlePayment(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// POST /api/v1/checkout/card-complete
func (h *CheckoutHandler) CompleteCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := getState(r.Context()).Checkout().CompleteCardPayment(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// POST /api/v1/checkout/card-cancel
func (h *CheckoutHandler) CancelCard(w http.ResponseWriter, r *http.Request) {
	co := getState(r.Context()).Checkout()
	if err := co.CancelCardPayment(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StepResponseDTO{Step: co.Step()})
}

// POST /api/v1/checkout/frame-message relays a message posted by the
// payment frame. Only resize messages are understood.
func (h *CheckoutHandler) FrameMessage(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 4<<10))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}
	height, ok := paytr.ParseResizeMessage(raw)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown_message", "not a payment frame resize message")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"height": height})
}

// GET /api/v1/checkout/locations?city=&district=
func (h *CheckoutHandler) Locations(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	district := r.URL.Query().Get("district")

	var list []string
	switch {
	case city == "":
		list = h.locations.Cities()
	case district == "":
		list = h.locations.Districts(city)
	default:
		list = h.locations.Neighborhoods(city, district)
	}
	if list == nil {
		list = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"items": list})
}
