package backend

import (
	"context"
	"net/http"
)

type Email struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

func (cl *Client) SendEmail(ctx context.Context, e Email) error {
	_, err := cl.do(ctx, call{endpoint: "send-email", method: http.MethodPost, path: "/api/send-email", body: e})
	return err
}
