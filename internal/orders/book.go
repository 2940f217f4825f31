package orders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidOrderNo  = errors.New("order number is required")
	ErrEmptyOrderDraft = errors.New("order has no items")
)

const (
	dateLayout = "02.01.2006"
	timeLayout = "15:04"
)

// API is the slice of the storefront backend the order book talks to.
type API interface {
	CreateOrder(ctx context.Context, draft domain.Order) (domain.Order, error)
	UpdateOrder(ctx context.Context, id domain.ID, patch domain.OrderPatch) error
	DeleteOrder(ctx context.Context, id domain.ID) error
	ListOrders(ctx context.Context) ([]domain.Order, error)
	TrackOrder(ctx context.Context, orderNo string) (domain.Order, error)
}

type StatusNotifier interface {
	OrderStatusChanged(ctx context.Context, order domain.Order) error
}

// Book is the in-memory order history, backed by the order API. Local state
// only changes after the API has acknowledged a call.
type Book struct {
	mu     sync.RWMutex
	orders []domain.Order

	api           API
	notifier      StatusNotifier
	notifyTimeout time.Duration
	now           func() time.Time
	log           *zap.Logger

	notifications sync.WaitGroup
}

type Option func(*Book)

func WithNotifier(n StatusNotifier) Option {
	return func(b *Book) { b.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Book) { b.log = l }
}

func NewBook(api API, opts ...Option) *Book {
	b := &Book{
		api:           api,
		notifyTimeout: 10 * time.Second,
		now:           time.Now,
		log:           zap.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// AddOrder stamps draft with an order number and the local date and time,
// posts it and prepends the server's copy to the history.
func (b *Book) AddOrder(ctx context.Context, draft domain.Order) (domain.Order, error) {
	if len(draft.Items) == 0 {
		return domain.Order{}, ErrEmptyOrderDraft
	}

	now := b.now()
	draft = draft.Clone()
	if draft.OrderNo == "" {
		draft.OrderNo = NewOrderNo(now)
	}
	draft.Date = now.Format(dateLayout)
	draft.Time = now.Format(timeLayout)
	if draft.Status == "" {
		draft.Status = domain.OrderStatusPending
	}

	saved, err := b.api.CreateOrder(ctx, draft)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	if saved.ID == "" && saved.OrderNo == "" {
		// nothing echoed back, keep what was sent
		saved = draft
	}

	b.mu.Lock()
	b.orders = append([]domain.Order{saved.Clone()}, b.orders...)
	b.mu.Unlock()

	logger.FromContext(ctx, b.log).Info("order created",
		zap.String("order_no", saved.OrderNo),
		zap.String("payment_type", string(saved.PaymentType)),
		zap.String("amount", saved.Amount.String()))
	return saved, nil
}

// UpdateOrder sends patch for id and merges it into the local copy. When
// the status changes a notification goes out in the background.
func (b *Book) UpdateOrder(ctx context.Context, id domain.ID, patch domain.OrderPatch) error {
	if err := b.api.UpdateOrder(ctx, id, patch); err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}

	b.mu.Lock()
	var (
		updated       domain.Order
		found         bool
		statusChanged bool
	)
	for i := range b.orders {
		if b.orders[i].ID == id {
			statusChanged = patch.Apply(&b.orders[i])
			updated = b.orders[i].Clone()
			found = true
			break
		}
	}
	b.mu.Unlock()

	if !found {
		logger.FromContext(ctx, b.log).Debug("updated order is not in local history", zap.String("order_id", id.String()))
		return nil
	}
	if statusChanged {
		b.notifyStatus(ctx, updated)
	}
	return nil
}

func (b *Book) notifyStatus(ctx context.Context, order domain.Order) {
	if b.notifier == nil {
		return
	}
	log := logger.FromContext(ctx, b.log)
	ctx = context.WithoutCancel(ctx)

	b.notifications.Add(1)
	go func() {
		defer b.notifications.Done()
		ctx, cancel := context.WithTimeout(ctx, b.notifyTimeout)
		defer cancel()

		if err := b.notifier.OrderStatusChanged(ctx, order); err != nil {
			log.Warn("order status notification failed",
				zap.String("order_no", order.OrderNo),
				zap.String("status", order.Status.String()),
				zap.Error(err))
		}
	}()
}

// WaitNotifications blocks until background notifications have finished.
func (b *Book) WaitNotifications() {
	b.notifications.Wait()
}

func (b *Book) DeleteOrder(ctx context.Context, id domain.ID) error {
	if err := b.api.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID == id {
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			break
		}
	}
	return nil
}

// RefreshOrders replaces the whole history with the server's list.
func (b *Book) RefreshOrders(ctx context.Context) error {
	list, err := b.api.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	b.mu.Lock()
	b.orders = list
	b.mu.Unlock()
	return nil
}

func (b *Book) Orders() []domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.Order, len(b.orders))
	for i, o := range b.orders {
		out[i] = o.Clone()
	}
	return out
}

func (b *Book) Find(id domain.ID) (domain.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.orders {
		if o.ID == id {
			return o.Clone(), true
		}
	}
	return domain.Order{}, false
}

type Tracking struct {
	Order    domain.Order          `json:"order"`
	Label    string                `json:"label"`
	Timeline []domain.TimelineStep `json:"timeline"`
}

// Track looks up a single order by its public number.
func (b *Book) Track(ctx context.Context, orderNo string) (Tracking, error) {
	orderNo = strings.ToUpper(strings.TrimSpace(orderNo))
	if orderNo == "" {
		return Tracking{}, ErrInvalidOrderNo
	}

	o, err := b.api.TrackOrder(ctx, orderNo)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return Tracking{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNo)
		}
		return Tracking{}, fmt.Errorf("track order: %w", err)
	}

	return Tracking{
		Order:    o,
		Label:    o.Status.Label(),
		Timeline: domain.Timeline(o.Status),
	}, nil
}
