package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/storefront/internal/domain"
)

func (cl *Client) CreateOrder(ctx context.Context, draft domain.Order) (domain.Order, error) {
	body, err := cl.do(ctx, call{endpoint: "orders.create", method: http.MethodPost, path: "/api/orders", body: draft})
	if err != nil {
		return domain.Order{}, err
	}
	return decodeData[domain.Order](body)
}

// UpdateOrder sends {orderId, ...patch}.
func (cl *Client) UpdateOrder(ctx context.Context, id domain.ID, patch domain.OrderPatch) error {
	payload := struct {
		OrderID domain.ID `json:"orderId"`
		domain.OrderPatch
	}{OrderID: id, OrderPatch: patch}

	_, err := cl.do(ctx, call{endpoint: "orders.update", method: http.MethodPut, path: "/api/orders", body: payload})
	return err
}

func (cl *Client) DeleteOrder(ctx context.Context, id domain.ID) error {
	_, err := cl.do(ctx, call{
		endpoint: "orders.delete",
		method:   http.MethodDelete,
		path:     "/api/orders",
		query:    url.Values{"id": {id.String()}},
	})
	return err
}

func (cl *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	body, err := cl.do(ctx, call{endpoint: "orders.list", method: http.MethodGet, path: "/api/orders"})
	if err != nil {
		return nil, err
	}
	return decodeData[[]domain.Order](body)
}

func (cl *Client) TrackOrder(ctx context.Context, orderNo string) (domain.Order, error) {
	body, err := cl.do(ctx, call{
		endpoint: "orders.track",
		method:   http.MethodGet,
		path:     "/api/orders/track",
		query:    url.Values{"orderNo": {orderNo}},
	})
	if err != nil {
		return domain.Order{}, err
	}
	return decodeData[domain.Order](body)
}
