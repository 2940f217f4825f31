package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/storage"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultKey = "cart"

var ErrInvalidItem = errors.New("invalid cart item")

// Store is the shopping cart of one session. Every mutation is written
// through to storage as a JSON array under a fixed key; storage failures are
// logged and never undo the in-memory change.
type Store struct {
	mu         sync.Mutex
	lines      []domain.CartLine
	drawerOpen bool

	storage  storage.Storage
	key      string
	eligible pricing.EligibleSource
	log      *zap.Logger
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open loads the persisted cart. Missing or unreadable data yields an empty
// cart.
func Open(ctx context.Context, st storage.Storage, eligible pricing.EligibleSource, opts ...Option) *Store {
	s := &Store{
		storage:  st,
		key:      DefaultKey,
		eligible: eligible,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.lines = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []domain.CartLine {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.FromContext(ctx, s.log).Warn("cart load failed, starting empty",
				zap.String("key", s.key), zap.Error(err))
		}
		return nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		logger.FromContext(ctx, s.log).Warn("stored cart is corrupt, starting empty",
			zap.String("key", s.key), zap.Error(err))
		return nil
	}

	// drop anything a hand-edited or older record could carry
	out := lines[:0]
	for _, l := range lines {
		if l.ID == "" || l.Quantity < 1 {
			continue
		}
		out = append(out, l)
	}
	return out
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context) {
	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		logger.FromContext(ctx, s.log).Error("cart marshal failed", zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, s.key, raw); err != nil {
		logger.FromContext(ctx, s.log).Warn("cart persist failed", zap.String("key", s.key), zap.Error(err))
	}
}

func (s *Store) indexOf(id string) int {
	for i, l := range s.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// AddItem merges line into the cart: an existing line with the same id gets
// its quantity increased, otherwise line is appended. A quantity below one
// counts as one.
func (s *Store) AddItem(ctx context.Context, line domain.CartLine) error {
	line.ID = strings.TrimSpace(line.ID)
	if line.ID == "" || line.UnitPrice.IsNegative() {
		return ErrInvalidItem
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(line.ID); i >= 0 {
		s.lines[i].Quantity += line.Quantity
	} else {
		s.lines = append(s.lines, line)
	}
	s.persist(ctx)
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist(ctx)
}

// UpdateQuantity sets the quantity of id. Anything below one removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, id string, qty int) {
	if qty < 1 {
		s.RemoveItem(ctx, id)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.lines[i].Quantity = qty
	s.persist(ctx)
}

func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist(ctx)
}

func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CopyLines(s.lines)
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := decimal.Zero
	for _, l := range s.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Totals evaluates the basket discount against the eligible set as it is
// right now. If the set cannot be read the basket is priced without it.
func (s *Store) Totals(ctx context.Context) domain.BasketTotals {
	return pricing.Evaluate(s.Lines(), s.eligibleSet(ctx))
}

func (s *Store) eligibleSet(ctx context.Context) pricing.EligibleSet {
	if s.eligible == nil {
		return pricing.EligibleSet{}
	}
	set, err := s.eligible.Eligible(ctx)
	if err != nil {
		logger.FromContext(ctx, s.log).Warn("eligible set unavailable, pricing without basket discount", zap.Error(err))
		return pricing.EligibleSet{}
	}
	return set
}

// Priced returns the lines together with the totals computed from exactly
// those lines.
func (s *Store) Priced(ctx context.Context) ([]domain.CartLine, domain.BasketTotals) {
	lines := s.Lines()
	return lines, pricing.Evaluate(lines, s.eligibleSet(ctx))
}

func (s *Store) OpenDrawer() {
	s.mu.Lock()
	s.drawerOpen = true
	s.mu.Unlock()
}

func (s *Store) CloseDrawer() {
	s.mu.Lock()
	s.drawerOpen = false
	s.mu.Unlock()
}

func (s *Store) IsDrawerOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawerOpen
}
