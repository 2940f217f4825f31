package notify

import (
	"context"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
)

const emailTypeOrderStatus = "order_status"

type EmailSender interface {
	SendEmail(ctx context.Context, e backend.Email) error
}

// EmailNotifier hands status mails to the backend's send-email endpoint.
type EmailNotifier struct {
	sender EmailSender
}

func NewEmailNotifier(sender EmailSender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

type statusMail struct {
	OrderNo     string `json:"orderNo"`
	Customer    string `json:"customer"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`
	Amount      string `json:"amount"`
}

func (n *EmailNotifier) OrderStatusChanged(ctx context.Context, order domain.Order) error {
	if order.Email == "" {
		return nil
	}
	return n.sender.SendEmail(ctx, backend.Email{
		Type: emailTypeOrderStatus,
		To:   order.Email,
		Data: statusMail{
			OrderNo:     order.OrderNo,
			Customer:    order.Customer,
			Status:      order.Status.String(),
			StatusLabel: order.Status.Label(),
			Amount:      order.Amount.StringFixed(2),
		},
	})
}
