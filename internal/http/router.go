package http

import (
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/app"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Registry           *app.Registry
	Sessions           sessions.Store
	Orders             *orders.Book
	OrderViews         *orders.Views
	Locations          checkout.LocationDirectory
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	// AdminSecret signs the bearer tokens of the back-office order routes.
	AdminSecret []byte
	// Gatherer serves /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Locations == nil {
		cfg.Locations = checkout.DefaultLocations
	}

	cartHandler := NewCartHandler(cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(cfg.Locations, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.OrderViews, cfg.RequestTimeout)
	alertsHandler := NewAlertsHandler(cfg.RequestTimeout)
	authHandler := NewAuthHandler(cfg.RequestTimeout, cfg.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.Sessions, cfg.Registry, cfg.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/totals", cartHandler.GetTotals)
			r.Put("/drawer", cartHandler.SetDrawer)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/begin", checkoutHandler.Begin)
			r.Post("/delivery", checkoutHandler.SubmitDelivery)
			r.Post("/back", checkoutHandler.Back)
			r.Post("/payment", checkoutHandler.SelectPayment)
			r.Get("/quote", checkoutHandler.Quote)
			r.Post("/submit", checkoutHandler.Submit)
			r.Post("/card-complete", checkoutHandler.CompleteCard)
			r.Post("/card-cancel", checkoutHandler.CancelCard)
			r.Post("/frame-message", checkoutHandler.FrameMessage)
			r.Get("/locations", checkoutHandler.Locations)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/mine", ordersHandler.MyOrders)
			r.Get("/track/{orderNo}", ordersHandler.Track)

			r.Group(func(r chi.Router) {
				r.Use(AdminMiddleware(cfg.AdminSecret, cfg.Logger))
				r.Get("/", ordersHandler.ListOrders)
				r.Post("/view", ordersHandler.OpenView)
				r.Delete("/view", ordersHandler.CloseView)
				r.Put("/{id}", ordersHandler.UpdateOrder)
				r.Delete("/{id}", ordersHandler.DeleteOrder)
			})
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertsHandler.ListAlerts)
			r.Post("/", alertsHandler.Activate)
			r.Delete("/", alertsHandler.ClearAll)
			r.Post("/check", alertsHandler.Check)
			r.Delete("/{productId}", alertsHandler.Deactivate)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Get("/favorites", authHandler.Favorites)
		r.Post("/favorites/{id}", authHandler.ToggleFavorite)
	})

	return r
}
