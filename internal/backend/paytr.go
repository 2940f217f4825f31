package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// BasketItem is one [name, price, quantity] tuple of the PayTR basket.
type BasketItem [3]string

type TokenRequest struct {
	UserBasket    []BasketItem `json:"user_basket"`
	Email         string       `json:"email"`
	PaymentAmount string       `json:"payment_amount"`
	UserName      string       `json:"user_name"`
	UserAddress   string       `json:"user_address"`
	UserPhone     string       `json:"user_phone"`
	MerchantOID   string       `json:"merchant_oid"`
}

type TokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (r TokenResponse) OK() bool {
	return r.Status == "success" && r.Token != ""
}

// RequestPaymentToken asks the backend for a gateway token. A rejection by
// the gateway is not an error here; callers check OK and Reason.
func (cl *Client) RequestPaymentToken(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	body, err := cl.do(ctx, call{endpoint: "paytr.token", method: http.MethodPost, path: "/api/paytr/token", body: req})
	if err != nil {
		return TokenResponse{}, err
	}

	var out TokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return TokenResponse{}, err
	}
	return out, nil
}
