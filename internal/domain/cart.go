package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

func init() {
	// The storefront backend speaks plain JSON numbers for prices.
	decimal.MarshalJSONWithoutQuotes = true
}

type CartLine struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is the line price times its quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// BasketTotals is derived from the cart on every read and never stored.
type BasketTotals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	QualifyingSubtotal decimal.Decimal `json:"qualifying_subtotal"`
	QualifyingCount    int             `json:"qualifying_count"`
	BasketDiscount     decimal.Decimal `json:"basket_discount"`
	Rate               decimal.Decimal `json:"basket_discount_rate"`
	Total              decimal.Decimal `json:"total"`
	TotalItems         int             `json:"total_items"`
	// AlmostQualified is set when a single eligible unit is in the cart.
	AlmostQualified bool `json:"almost_qualified"`
}

// NormalizeID turns a catalog product id into the string form used for
// every comparison. The catalog hands out numeric and string ids alike.
func NormalizeID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// CopyLines returns a deep copy so callers never share the backing array.
func CopyLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
