package notify

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

// Notifier tells the outside world about order status changes.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order domain.Order) error
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) OrderStatusChanged(ctx context.Context, order domain.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.OrderStatusChanged(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
