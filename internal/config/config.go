package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/storage"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const devSessionKey = "storefront-dev-session-key-change-me"

var ErrDevSessionKey = errors.New("SESSION_KEY: must be set outside development")

type Config struct {
	HTTPPort           string
	Development        bool
	BackendURL         string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	Storage storage.Options

	KafkaBrokers []string
	NotifyTopic  string

	SessionKey string
	// AdminJWTSecret verifies HS256 tokens for the back-office order
	// routes. Empty disables those routes.
	AdminJWTSecret string

	PaymentMethods    []domain.PaymentMethod
	CODFee            decimal.Decimal
	CheckoutDelay     time.Duration
	PaytrIframeBase   string
	DiscountRate      decimal.Decimal
	DiscountProducts  []string
	OrderPollInterval time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		Development:        getEnv("APP_ENV", "production") == "development",
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:3000"),
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
		NotifyTopic:        getEnv("NOTIFY_TOPIC", "order-status"),
		SessionKey:         getEnv("SESSION_KEY", devSessionKey),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		PaytrIframeBase:    getEnv("PAYTR_IFRAME_BASE", "https://www.paytr.com/odeme/guvenli/"),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		DiscountProducts:   splitList(getEnv("BASKET_DISCOUNT_PRODUCTS", "")),
		Storage: storage.Options{
			Driver:        getEnv("STORAGE_DRIVER", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			SQLitePath:    getEnv("SQLITE_PATH", "storefront.db"),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDBName:   getEnv("MONGO_DB_NAME", "storefront"),
			Postgres: storage.Credentials{
				Host:     getEnv("DB_HOST", "localhost"),
				User:     getEnv("DB_USER", "postgres"),
				Password: getEnv("DB_PASSWORD", "postgres"),
				DBName:   getEnv("DB_NAME", "storefront"),
			},
		},
	}

	if !cfg.Development && cfg.SessionKey == devSessionKey {
		return nil, ErrDevSessionKey
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CheckoutDelay, err = durationEnv("CHECKOUT_DELAY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.OrderPollInterval, err = durationEnv("ORDER_POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Storage.RedisTTL, err = durationEnv("REDIS_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CODFee, err = decimalEnv("COD_FEE", "25"); err != nil {
		return nil, err
	}
	if cfg.DiscountRate, err = decimalEnv("BASKET_DISCOUNT_RATE", "10"); err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("DB_PORT: %w", err)
	}
	cfg.Storage.Postgres.Port = port

	methods := splitList(getEnv("PAYMENT_METHODS", "credit_card,bank_transfer,cash_on_delivery"))
	for _, m := range methods {
		pm := domain.PaymentMethod(m)
		if !pm.Valid() {
			return nil, fmt.Errorf("PAYMENT_METHODS: unknown method %q", m)
		}
		cfg.PaymentMethods = append(cfg.PaymentMethods, pm)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func decimalEnv(key, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
