package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/storefront/internal/domain"
)

func (cl *Client) ListAlerts(ctx context.Context, userID domain.ID) ([]domain.PriceAlert, error) {
	var q url.Values
	if userID != "" {
		q = url.Values{"userId": {userID.String()}}
	}
	body, err := cl.do(ctx, call{endpoint: "alerts.list", method: http.MethodGet, path: "/api/price-alerts", query: q})
	if err != nil {
		return nil, err
	}
	return decodeData[[]domain.PriceAlert](body)
}

func (cl *Client) CreateAlert(ctx context.Context, alert domain.PriceAlert) (domain.PriceAlert, error) {
	body, err := cl.do(ctx, call{endpoint: "alerts.create", method: http.MethodPost, path: "/api/price-alerts", body: alert})
	if err != nil {
		return domain.PriceAlert{}, err
	}
	return decodeData[domain.PriceAlert](body)
}

// DeleteAlert removes the alert identified by (productID, userID).
func (cl *Client) DeleteAlert(ctx context.Context, productID, userID domain.ID) error {
	_, err := cl.do(ctx, call{
		endpoint: "alerts.delete",
		method:   http.MethodDelete,
		path:     "/api/price-alerts",
		query:    url.Values{"productId": {productID.String()}, "userId": {userID.String()}},
	})
	return err
}
