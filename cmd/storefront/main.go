package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/app"
	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/storage"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/fjod/storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	h "github.com/fjod/storefront/internal/http"
)

const (
	sessionSweepEvery = 10 * time.Minute
	sessionMaxIdle    = 24 * time.Hour
	// tracking views renew themselves; one missed sweep closes them
	trackingViewMaxIdle = sessionSweepEvery
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New("storefront", cfg.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, closeStorage, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		zl.Fatal("Failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := closeStorage(); err != nil {
			zl.Warn("storage close failed", zap.Error(err))
		}
	}()
	zl.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	client := backend.New(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.RequestTimeout,
		Breaker: circuitbreaker.DefaultConfig(),
	}, m, zl)

	notifiers := notify.Multi{notify.NewEmailNotifier(client)}
	var kafkaNotifier *notify.KafkaNotifier
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier = notify.NewKafkaNotifier(notify.NewKafkaWriter(cfg.NotifyTopic, cfg.KafkaBrokers...))
		notifiers = append(notifiers, kafkaNotifier)
		zl.Info("order status events enabled", zap.String("topic", cfg.NotifyTopic), zap.Strings("brokers", cfg.KafkaBrokers))
	}

	ids := make([]any, 0, len(cfg.DiscountProducts))
	for _, id := range cfg.DiscountProducts {
		ids = append(ids, id)
	}
	eligible := pricing.NewStaticEligible(pricing.NewEligibleSet(cfg.DiscountRate, ids...))

	checkoutCfg := checkout.Config{
		PaymentMethods: cfg.PaymentMethods,
		CODFee:         cfg.CODFee,
		Delay:          cfg.CheckoutDelay,
		IframeBase:     cfg.PaytrIframeBase,
	}

	registry := app.NewRegistry(app.Deps{
		Backend:   client,
		Storage:   st,
		Eligible:  eligible,
		Notifier:  notifiers,
		Locations: checkout.DefaultLocations,
		Checkout:  checkoutCfg,
		Metrics:   m,
		Logger:    zl,
	})

	// Back-office order list, refreshed in the background.
	adminBook := orders.NewBook(client, orders.WithNotifier(notifiers), orders.WithLogger(zl))
	if err := adminBook.RefreshOrders(ctx); err != nil {
		zl.Warn("initial order refresh failed", zap.Error(err))
	}
	views := orders.NewViews(ctx, func() *orders.Poller {
		return orders.NewPoller(adminBook, cfg.OrderPollInterval, m, zl)
	}, zl)

	go func() {
		t := time.NewTicker(sessionSweepEvery)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if n := registry.Sweep(sessionMaxIdle); n > 0 {
					zl.Debug("idle sessions dropped", zap.Int("count", n))
				}
				if n := views.Expire(trackingViewMaxIdle); n > 0 {
					zl.Debug("stale tracking views closed", zap.Int("count", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	router := h.NewRouter(h.RouterConfig{
		Registry:           registry,
		Sessions:           h.NewCookieStore([]byte(cfg.SessionKey), !cfg.Development),
		Orders:             adminBook,
		OrderViews:         views,
		Locations:          checkout.DefaultLocations,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		AdminSecret:        []byte(cfg.AdminJWTSecret),
		Gatherer:           reg,
		Logger:             zl,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + cfg.CheckoutDelay + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("storefront starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	views.Shutdown()
	stop()
	adminBook.WaitNotifications()

	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			zl.Warn("kafka writer close failed", zap.Error(err))
		}
	}

	zl.Info("server exited")
}
