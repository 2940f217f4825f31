package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/paytr"
	"github.com/fjod/storefront/pkg/logger"
	"go.uber.org/zap"
)

// NextSuccess is the view shown once an order is placed.
const NextSuccess = "order-success"

type Result struct {
	Order     domain.Order `json:"order"`
	Token     string       `json:"token,omitempty"`
	IframeURL string       `json:"iframeUrl,omitempty"`
	Next      string       `json:"next,omitempty"`
}

// HandlePayment submits the order for the selected payment method. Only one
// submission may run at a time per session.
func (s *Session) HandlePayment(ctx context.Context) (Result, error) {
	if !s.submitting.CompareAndSwap(false, true) {
		return Result{}, ErrSubmitInFlight
	}
	defer s.submitting.Store(false)

	s.mu.Lock()
	step, method := s.step, s.method
	s.mu.Unlock()

	if step != StepPayment {
		return Result{}, IllegalTransitionError
	}
	if method == "" {
		return Result{}, ErrNoPaymentMethod
	}

	user, ok := s.deps.Account.User()
	if !ok {
		return Result{}, ErrAuthRequired
	}
	lines, totals := s.deps.Cart.Priced(ctx)
	if len(lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	shipping, newAddr, err := s.shippingAddress(user)
	if err != nil {
		return Result{}, err
	}
	quote := quoteFor(totals, method, s.deps.Config.CODFee)
	draft := s.draft(user, shipping, lines, quote)

	var res Result
	if method.Prepaid() {
		res, err = s.payByCard(ctx, draft, lines, newAddr)
	} else {
		res, err = s.placeOrder(ctx, draft, newAddr)
	}
	s.record(method, err)
	return res, err
}

func (s *Session) draft(user domain.User, addr domain.Address, lines []domain.CartLine, q Quote) domain.Order {
	phone := addr.Phone
	if phone == "" {
		phone = user.Phone
	}

	s.mu.Lock()
	var billing *domain.BillingAddress
	if s.billing != nil {
		billing = s.billing.Billing()
	}
	s.mu.Unlock()

	return domain.Order{
		UserID:             user.ID,
		Customer:           user.FullName(),
		Email:              user.Email,
		Phone:              phone,
		Address:            addr.Content,
		City:               addr.City,
		District:           addr.District,
		Amount:             q.Payable,
		Status:             domain.OrderStatusPending,
		PaymentType:        q.Method,
		Items:              domain.ItemsFromCart(lines),
		Subtotal:           q.Subtotal,
		BasketDiscount:     q.BasketDiscount,
		BasketDiscountRate: q.Rate,
		CODFee:             q.CODFee,
		Billing:            billing,
	}
}

func (s *Session) payByCard(ctx context.Context, draft domain.Order, lines []domain.CartLine, newAddr *domain.Address) (Result, error) {
	log := logger.FromContext(ctx, s.log)

	// The order number doubles as the gateway's merchant reference.
	draft.OrderNo = s.orderNo()

	resp, err := s.deps.Gateway.RequestPaymentToken(ctx, backend.TokenRequest{
		UserBasket:    paytr.Basket(lines),
		Email:         draft.Email,
		PaymentAmount: paytr.MinorUnits(draft.Amount),
		UserName:      draft.Customer,
		UserAddress:   draft.Address,
		UserPhone:     draft.Phone,
		MerchantOID:   draft.OrderNo,
	})
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			return Result{}, &GatewayError{Reason: apiErr.Message}
		}
		return Result{}, fmt.Errorf("request payment token: %w", err)
	}
	if !resp.OK() {
		reason := resp.Reason
		if reason == "" {
			reason = "no token returned"
		}
		log.Warn("payment token rejected", zap.String("order_no", draft.OrderNo), zap.String("reason", reason))
		return Result{}, &GatewayError{Reason: reason}
	}

	order, err := s.deps.Orders.AddOrder(ctx, draft)
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	s.pendingCard = &pendingCard{order: order.Clone(), address: newAddr}
	s.step = StepAwaitingCard
	s.mu.Unlock()

	return Result{
		Order:     order,
		Token:     resp.Token,
		IframeURL: paytr.IframeURLWithBase(s.deps.Config.IframeBase, resp.Token),
	}, nil
}

func (s *Session) placeOrder(ctx context.Context, draft domain.Order, newAddr *domain.Address) (Result, error) {
	if err := s.deps.Sleep(ctx, s.deps.Config.Delay); err != nil {
		return Result{}, err
	}

	order, err := s.deps.Orders.AddOrder(ctx, draft)
	if err != nil {
		return Result{}, err
	}
	s.finish(ctx, order, newAddr)

	return Result{Order: order, Next: NextSuccess}, nil
}

// CompleteCardPayment finalizes a card order once the payment frame reports
// success.
func (s *Session) CompleteCardPayment(ctx context.Context) (Result, error) {
	s.mu.Lock()
	pending := s.pendingCard
	if pending == nil || s.step != StepAwaitingCard {
		s.mu.Unlock()
		return Result{}, ErrNoPendingPayment
	}
	s.pendingCard = nil
	s.mu.Unlock()

	s.finish(ctx, pending.order, pending.address)
	return Result{Order: pending.order, Next: NextSuccess}, nil
}

// CancelCardPayment drops a pending card payment and returns to the
// payment step. The order already posted stays in the book as pending.
func (s *Session) CancelCardPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepAwaitingCard {
		return ErrNoPendingPayment
	}
	s.pendingCard = nil
	s.step = StepPayment
	return nil
}

// finish runs once the backend has acknowledged the order. The order is
// committed at this point, so a failed account update is only logged.
func (s *Session) finish(ctx context.Context, order domain.Order, newAddr *domain.Address) {
	if err := s.deps.Account.RecordOrder(ctx, newAddr, order); err != nil {
		logger.FromContext(ctx, s.log).Error("failed to record order on account",
			zap.String("order_no", order.OrderNo), zap.Error(err))
	}
	s.deps.Cart.ClearCart(ctx)

	s.mu.Lock()
	s.step = StepCompleted
	s.newAddress = nil
	s.mu.Unlock()
}

func (s *Session) orderNo() string {
	return orders.NewOrderNo(s.deps.Now())
}

func (s *Session) record(method domain.PaymentMethod, err error) {
	if s.deps.Metrics == nil {
		return
	}
	var gwErr *GatewayError
	result := "success"
	switch {
	case err == nil:
	case errors.As(err, &gwErr):
		result = "rejected"
	default:
		result = "failed"
	}
	s.deps.Metrics.CheckoutResult(string(method), result)
}
