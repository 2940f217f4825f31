// Package paytr holds the wire contract of the PayTR hosted payment frame:
// the basket encoding sent when requesting a token, the iframe URL built
// from the token and the resize message the frame posts to its host page.
package paytr

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultIframeBase = "https://www.paytr.com/odeme/guvenli/"
	resizeMessageName = "paytr_iframe_resize"
)

var hundred = decimal.NewFromInt(100)

// Basket encodes cart lines as [name, "12.50", "2"] tuples.
func Basket(lines []domain.CartLine) []backend.BasketItem {
	out := make([]backend.BasketItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, backend.BasketItem{l.Name, l.UnitPrice.StringFixed(2), strconv.Itoa(l.Quantity)})
	}
	return out
}

// MinorUnits renders amount in kuruş, e.g. 180.5 -> "18050".
func MinorUnits(amount decimal.Decimal) string {
	return amount.Mul(hundred).Round(0).StringFixed(0)
}

func IframeURL(token string) string {
	return IframeURLWithBase(DefaultIframeBase, token)
}

func IframeURLWithBase(base, token string) string {
	if base == "" {
		base = DefaultIframeBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + token
}

type resizeMessage struct {
	Name   string `json:"name"`
	Params struct {
		Height json.Number `json:"height"`
	} `json:"params"`
}

// ParseResizeMessage reads {name: "paytr_iframe_resize", params: {height}}.
// Any other message, or a height that is not a positive number, yields
// ok == false.
func ParseResizeMessage(raw []byte) (height int, ok bool) {
	var msg resizeMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Name != resizeMessageName {
		return 0, false
	}
	h, err := strconv.ParseFloat(msg.Params.Height.String(), 64)
	if err != nil || h <= 0 {
		return 0, false
	}
	return int(h + 0.5), true
}
