package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrAuthRequired = errors.New("price alerts require a signed-in user")

type API interface {
	ListAlerts(ctx context.Context, userID domain.ID) ([]domain.PriceAlert, error)
	CreateAlert(ctx context.Context, alert domain.PriceAlert) (domain.PriceAlert, error)
	DeleteAlert(ctx context.Context, productID, userID domain.ID) error
}

// Watchlist holds the price alerts known to this session. Ids are compared
// as strings throughout.
type Watchlist struct {
	mu     sync.Mutex
	alerts []domain.PriceAlert

	api API
	now func() time.Time
	log *zap.Logger
}

func NewWatchlist(api API, log *zap.Logger) *Watchlist {
	return &Watchlist{api: api, now: time.Now, log: logger.OrNop(log)}
}

// Load replaces local state with the user's alerts on the server.
func (w *Watchlist) Load(ctx context.Context, userID domain.ID) error {
	list, err := w.api.ListAlerts(ctx, userID)
	if err != nil {
		return fmt.Errorf("load price alerts: %w", err)
	}

	w.mu.Lock()
	w.alerts = list
	w.mu.Unlock()
	return nil
}

func (w *Watchlist) indexOf(productID, userID domain.ID) int {
	for i, a := range w.alerts {
		if a.ProductID.String() == productID.String() && a.UserID.String() == userID.String() {
			return i
		}
	}
	return -1
}

// Activate records an alert for (product, user) at the product's current
// price. An existing alert for the pair makes this a successful no-op.
func (w *Watchlist) Activate(ctx context.Context, product domain.Product, user domain.User) (domain.PriceAlert, error) {
	if user.ID == "" {
		return domain.PriceAlert{}, ErrAuthRequired
	}

	w.mu.Lock()
	if i := w.indexOf(product.ID, user.ID); i >= 0 {
		existing := w.alerts[i]
		w.mu.Unlock()
		return existing, nil
	}
	w.mu.Unlock()

	created, err := w.api.CreateAlert(ctx, domain.PriceAlert{
		UserID:       user.ID,
		Email:        user.Email,
		UserName:     user.FullName(),
		ProductID:    product.ID,
		ProductName:  product.Name,
		PriceAtAlert: product.Price,
		Date:         w.now().Format(time.RFC3339),
	})
	if err != nil {
		return domain.PriceAlert{}, fmt.Errorf("activate price alert: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// a concurrent Activate for the same pair may have won the race
	if i := w.indexOf(product.ID, user.ID); i >= 0 {
		return w.alerts[i], nil
	}
	w.alerts = append(w.alerts, created)
	return created, nil
}

func (w *Watchlist) Deactivate(ctx context.Context, productID, userID domain.ID) error {
	if err := w.api.DeleteAlert(ctx, productID, userID); err != nil {
		return fmt.Errorf("deactivate price alert: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.indexOf(productID, userID); i >= 0 {
		w.alerts = append(w.alerts[:i], w.alerts[i+1:]...)
	}
	return nil
}

func (w *Watchlist) IsActive(productID, userID domain.ID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.indexOf(productID, userID) >= 0
}

// ClearUser deactivates the user's alerts one request at a time. It stops
// at the first failure; alerts removed before it stay removed.
func (w *Watchlist) ClearUser(ctx context.Context, userID domain.ID) (int, error) {
	var products []domain.ID
	w.mu.Lock()
	for _, a := range w.alerts {
		if a.UserID.String() == userID.String() {
			products = append(products, a.ProductID)
		}
	}
	w.mu.Unlock()

	for i, productID := range products {
		if err := w.Deactivate(ctx, productID, userID); err != nil {
			logger.FromContext(ctx, w.log).Warn("clearing price alerts stopped",
				zap.String("user_id", userID.String()),
				zap.Int("removed", i),
				zap.Int("total", len(products)),
				zap.Error(err))
			return i, err
		}
	}
	return len(products), nil
}

func (w *Watchlist) Alerts() []domain.PriceAlert {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.PriceAlert, len(w.alerts))
	copy(out, w.alerts)
	return out
}

type Drop struct {
	Alert    domain.PriceAlert `json:"alert"`
	NewPrice decimal.Decimal   `json:"newPrice"`
	Saving   decimal.Decimal   `json:"saving"`
}

// Triggered compares live prices (keyed by product id) with the price
// recorded on each alert and returns the ones that got cheaper.
func (w *Watchlist) Triggered(prices map[string]decimal.Decimal) []Drop {
	w.mu.Lock()
	defer w.mu.Unlock()

	var drops []Drop
	for _, a := range w.alerts {
		live, ok := prices[a.ProductID.String()]
		if !ok || !live.LessThan(a.PriceAtAlert) {
			continue
		}
		drops = append(drops, Drop{Alert: a, NewPrice: live, Saving: a.PriceAtAlert.Sub(live)})
	}
	return drops
}
