package paytr

import (
	"testing"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBasket(t *testing.T) {
	lines := []domain.CartLine{
		{ID: "1", Name: "Kupa", UnitPrice: decimal.RequireFromString("12.5"), Quantity: 2},
		{ID: "2", Name: "Tabak", UnitPrice: decimal.NewFromInt(90), Quantity: 1},
	}
	assert.Equal(t, []backend.BasketItem{
		{"Kupa", "12.50", "2"},
		{"Tabak", "90.00", "1"},
	}, Basket(lines))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, "18050", MinorUnits(decimal.RequireFromString("180.5")))
	assert.Equal(t, "18000", MinorUnits(decimal.NewFromInt(180)))
	assert.Equal(t, "1", MinorUnits(decimal.RequireFromString("0.005")))
}

func TestIframeURL(t *testing.T) {
	assert.Equal(t, "https://www.paytr.com/odeme/guvenli/abc123", IframeURL("abc123"))
	assert.Equal(t, "http://localhost:9000/frame/abc", IframeURLWithBase("http://localhost:9000/frame", "abc"))
}

func TestParseResizeMessage(t *testing.T) {
	h, ok := ParseResizeMessage([]byte(`{"name":"paytr_iframe_resize","params":{"height":742}}`))
	assert.True(t, ok)
	assert.Equal(t, 742, h)

	h, ok = ParseResizeMessage([]byte(`{"name":"paytr_iframe_resize","params":{"height":"600.4"}}`))
	assert.True(t, ok)
	assert.Equal(t, 600, h)

	_, ok = ParseResizeMessage([]byte(`{"name":"other","params":{"height":742}}`))
	assert.False(t, ok)

	_, ok = ParseResizeMessage([]byte(`{"name":"paytr_iframe_resize","params":{"height":0}}`))
	assert.False(t, ok)

	_, ok = ParseResizeMessage([]byte(`not json`))
	assert.False(t, ok)
}
