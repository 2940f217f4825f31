package orders

import (
	"encoding/base32"
	"time"

	"github.com/google/uuid"
)

var orderNoEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewOrderNo returns "SP" + yymmdd + six random base32 characters, e.g.
// SP240315K7QX2M.
func NewOrderNo(now time.Time) string {
	id := uuid.New()
	return "SP" + now.Format("060102") + orderNoEncoding.EncodeToString(id[:])[:6]
}
