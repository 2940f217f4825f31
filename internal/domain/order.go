package domain

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentBankTransfer, PaymentCashOnDelivery:
		return true
	}
	return false
}

// Prepaid reports whether the method goes through the card gateway.
func (m PaymentMethod) Prepaid() bool {
	return m == PaymentCreditCard
}

type OrderItem struct {
	ID       ID              `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// ItemsFromCart snapshots cart lines into order items. The result shares
// no memory with lines.
func ItemsFromCart(lines []CartLine) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			ID:       ID(l.ID),
			Name:     l.Name,
			Price:    l.UnitPrice,
			Quantity: l.Quantity,
			Image:    l.Image,
		})
	}
	return items
}

type Order struct {
	ID          ID              `json:"id,omitempty"`
	OrderNo     string          `json:"orderNo"`
	UserID      ID              `json:"userId,omitempty"`
	Customer    string          `json:"customer"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	District    string          `json:"district"`
	Amount      decimal.Decimal `json:"amount"`
	Status      OrderStatus     `json:"status"`
	PaymentType PaymentMethod   `json:"paymentType"`
	Items       []OrderItem     `json:"items"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`

	Subtotal           decimal.Decimal `json:"subtotal"`
	BasketDiscount     decimal.Decimal `json:"basketDiscount"`
	BasketDiscountRate decimal.Decimal `json:"basketDiscountRate"`
	CODFee             decimal.Decimal `json:"codFee"`

	Billing *BillingAddress `json:"billingAddress,omitempty"`
}

// Clone returns a copy of o that does not share the items slice or the
// billing pointer.
func (o Order) Clone() Order {
	c := o
	c.Items = make([]OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	if o.Billing != nil {
		b := *o.Billing
		if o.Billing.Company != nil {
			company := *o.Billing.Company
			b.Company = &company
		}
		c.Billing = &b
	}
	return c
}

// OrderPatch is a partial update issued by back-office actors. Nil fields
// are left untouched.
type OrderPatch struct {
	Status   *OrderStatus `json:"status,omitempty"`
	Address  *string      `json:"address,omitempty"`
	City     *string      `json:"city,omitempty"`
	District *string      `json:"district,omitempty"`
	Phone    *string      `json:"phone,omitempty"`
}

// Apply merges p into o and reports whether the status changed.
func (p OrderPatch) Apply(o *Order) bool {
	statusChanged := false
	if p.Status != nil && *p.Status != o.Status {
		o.Status = *p.Status
		statusChanged = true
	}
	if p.Address != nil {
		o.Address = *p.Address
	}
	if p.City != nil {
		o.City = *p.City
	}
	if p.District != nil {
		o.District = *p.District
	}
	if p.Phone != nil {
		o.Phone = *p.Phone
	}
	return statusChanged
}
