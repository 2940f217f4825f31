package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Cart interface {
	Lines() []domain.CartLine
	Totals(ctx context.Context) domain.BasketTotals
	Priced(ctx context.Context) ([]domain.CartLine, domain.BasketTotals)
	IsEmpty() bool
	ClearCart(ctx context.Context)
}

type Account interface {
	IsAuthenticated() bool
	User() (domain.User, bool)
	RecordOrder(ctx context.Context, addr *domain.Address, order domain.Order) error
}

type OrderBook interface {
	AddOrder(ctx context.Context, draft domain.Order) (domain.Order, error)
}

type Gateway interface {
	RequestPaymentToken(ctx context.Context, req backend.TokenRequest) (backend.TokenResponse, error)
}

type Recorder interface {
	CheckoutResult(method, result string)
}

type Config struct {
	PaymentMethods []domain.PaymentMethod
	CODFee         decimal.Decimal
	// Delay is the pause before bank transfer and cash-on-delivery orders
	// are sent, so the shopper sees the processing state.
	Delay      time.Duration
	IframeBase string
}

func DefaultConfig() Config {
	return Config{
		PaymentMethods: []domain.PaymentMethod{
			domain.PaymentCreditCard,
			domain.PaymentBankTransfer,
			domain.PaymentCashOnDelivery,
		},
		CODFee: decimal.NewFromInt(25),
		Delay:  1500 * time.Millisecond,
	}
}

func (c Config) enabled(m domain.PaymentMethod) bool {
	for _, x := range c.PaymentMethods {
		if x == m {
			return true
		}
	}
	return false
}

type Deps struct {
	Cart      Cart
	Account   Account
	Orders    OrderBook
	Gateway   Gateway
	Locations LocationDirectory
	Config    Config
	Metrics   Recorder
	Logger    *zap.Logger
	// Sleep and Now are swapped out in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Session is one run through the two-step checkout wizard.
type Session struct {
	mu   sync.Mutex
	deps Deps
	log  *zap.Logger

	step        Step
	selected    int
	newAddress  *AddressForm
	billing     *BillingForm
	method      domain.PaymentMethod
	pendingCard *pendingCard

	submitting atomic.Bool
}

type pendingCard struct {
	order   domain.Order
	address *domain.Address
}

func NewSession(deps Deps) *Session {
	if deps.Sleep == nil {
		deps.Sleep = sleep
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{
		deps:     deps,
		log:      logger.OrNop(deps.Logger),
		step:     StepDelivery,
		selected: -1,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Begin checks the gate in front of the wizard and resets it to the
// delivery step with the first saved address preselected.
func (s *Session) Begin() error {
	if !s.deps.Account.IsAuthenticated() {
		return ErrAuthRequired
	}
	if s.deps.Cart.IsEmpty() {
		return ErrEmptyCart
	}

	user, _ := s.deps.Account.User()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = StepDelivery
	s.newAddress = nil
	s.billing = nil
	s.method = ""
	s.pendingCard = nil
	s.selected = -1
	if len(user.Addresses) > 0 {
		s.selected = 0
	}
	return nil
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) PaymentMethod() domain.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

func (s *Session) SelectAddress(index int) error {
	user, ok := s.deps.Account.User()
	if !ok {
		return ErrAuthRequired
	}
	if index < 0 || index >= len(user.Addresses) {
		return ErrInvalidAddressIndex
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = index
	s.newAddress = nil
	s.reopenDelivery()
	return nil
}

func (s *Session) UseNewAddress(form AddressForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newAddress = &form
	s.selected = -1
	s.reopenDelivery()
}

// UseBillingAddress sets a separate invoice address. nil bills to the
// delivery address.
func (s *Session) UseBillingAddress(form *BillingForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reopenDelivery()
	if form == nil {
		s.billing = nil
		return
	}
	f := *form
	s.billing = &f
}

// reopenDelivery sends a wizard sitting on the payment step back to
// delivery, so edited delivery data has to pass SubmitDelivery again.
// Callers hold s.mu.
func (s *Session) reopenDelivery() {
	if s.step == StepPayment {
		s.step = StepDelivery
	}
}

// SubmitDelivery validates the delivery step and moves on to payment.
// Nothing here touches the network.
func (s *Session) SubmitDelivery() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepDelivery && s.step != StepPayment {
		return IllegalTransitionError
	}
	// Payment stays closed until this validation passes.
	s.step = StepDelivery

	var v domain.ValidationError
	switch {
	case s.newAddress != nil:
		s.newAddress.validate(&v, s.deps.Locations)
	case s.selected >= 0:
		user, _ := s.deps.Account.User()
		if s.selected >= len(user.Addresses) {
			return ErrInvalidAddressIndex
		}
	default:
		return ErrNoAddress
	}
	if s.billing != nil {
		s.billing.validate(&v, s.deps.Locations)
	}
	if err := v.Err(); err != nil {
		return err
	}

	s.step = StepPayment
	return nil
}

// Back returns from the payment step to the delivery step.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !CanTransitionTo(s.step, StepDelivery) {
		return IllegalTransitionError
	}
	s.step = StepDelivery
	return nil
}

func (s *Session) SelectPayment(m domain.PaymentMethod) error {
	if !m.Valid() || !s.deps.Config.enabled(m) {
		return ErrPaymentMethodDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method = m
	return nil
}

type Quote struct {
	domain.BasketTotals
	Method  domain.PaymentMethod `json:"payment_method,omitempty"`
	CODFee  decimal.Decimal      `json:"cod_fee"`
	Payable decimal.Decimal      `json:"payable"`
}

// Quote prices the cart for the selected method. The cash-on-delivery
// surcharge is added for that method only.
func (s *Session) Quote(ctx context.Context) Quote {
	method := s.PaymentMethod()
	totals := s.deps.Cart.Totals(ctx)
	return quoteFor(totals, method, s.deps.Config.CODFee)
}

func quoteFor(totals domain.BasketTotals, method domain.PaymentMethod, codFee decimal.Decimal) Quote {
	q := Quote{BasketTotals: totals, Method: method, CODFee: decimal.Zero}
	if method == domain.PaymentCashOnDelivery {
		q.CODFee = codFee
	}
	q.Payable = totals.Total.Add(q.CODFee)
	return q
}

// shippingAddress resolves the delivery address. The second result is the
// address to add to the user's book, nil when a saved one was picked.
func (s *Session) shippingAddress(user domain.User) (domain.Address, *domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.newAddress != nil {
		a := s.newAddress.Address()
		return a, &a, nil
	}
	if s.selected >= 0 && s.selected < len(user.Addresses) {
		return user.Addresses[s.selected], nil, nil
	}
	return domain.Address{}, nil, ErrNoAddress
}
