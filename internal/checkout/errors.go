package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrAuthRequired          = errors.New("sign in to check out")
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrSubmitInFlight        = errors.New("an order is already being submitted")
	ErrInvalidAddressIndex   = errors.New("no saved address at that index")
	ErrNoAddress             = errors.New("no delivery address chosen")
	ErrPaymentMethodDisabled = errors.New("payment method is not available")
	ErrNoPaymentMethod       = errors.New("no payment method selected")
	ErrNoPendingPayment      = errors.New("no card payment is waiting for completion")
	IllegalTransitionError   = errors.New("illegal transition of checkout step")
)

// GatewayError is a card token request the gateway turned down.
type GatewayError struct {
	Reason string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway rejected the request: %s", e.Reason)
}
