// Package app wires the per-session state of the storefront. Every browser
// session gets its own cart, account, order book, watch-list and checkout
// wizard, backed by a namespaced slice of the shared storage.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/account"
	"github.com/fjod/storefront/internal/alerts"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/storage"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/fjod/storefront/pkg/metrics"
	"go.uber.org/zap"
)

// Backend is everything the session components call on the storefront
// backend. *backend.Client implements it.
type Backend interface {
	account.API
	alerts.API
	orders.API
	checkout.Gateway
}

type Deps struct {
	Backend   Backend
	Storage   storage.Storage
	Eligible  pricing.EligibleSource
	Notifier  orders.StatusNotifier
	Locations checkout.LocationDirectory
	Checkout  checkout.Config
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// State is one session's view of the shop.
type State struct {
	ID        string
	Cart      *cart.Store
	Account   *account.Account
	Book      *orders.Book
	Watchlist *alerts.Watchlist

	deps     Deps
	mu       sync.Mutex
	checkout *checkout.Session
	lastSeen time.Time
}

func newState(ctx context.Context, id string, deps Deps) *State {
	st := storage.Namespaced(deps.Storage, "session:"+id)
	log := logger.OrNop(deps.Logger).With(zap.String("session_id", id))

	s := &State{
		ID:        id,
		Cart:      cart.Open(ctx, st, deps.Eligible, cart.WithLogger(log)),
		Account:   account.New(deps.Backend, st, log),
		Watchlist: alerts.NewWatchlist(deps.Backend, log),
		deps:      deps,
	}
	bookOpts := []orders.Option{orders.WithLogger(log)}
	if deps.Notifier != nil {
		bookOpts = append(bookOpts, orders.WithNotifier(deps.Notifier))
	}
	s.Book = orders.NewBook(deps.Backend, bookOpts...)

	if err := s.Account.Restore(ctx); err != nil && !errors.Is(err, account.ErrNotAuthenticated) {
		log.Info("session not restored", zap.Error(err))
	}
	if u, ok := s.Account.User(); ok {
		if err := s.Watchlist.Load(ctx, u.ID); err != nil {
			log.Warn("failed to load price alerts", zap.Error(err))
		}
	}
	return s
}

// Checkout returns the session's checkout wizard, creating it on first use.
func (s *State) Checkout() *checkout.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil {
		var rec checkout.Recorder
		if s.deps.Metrics != nil {
			rec = s.deps.Metrics
		}
		s.checkout = checkout.NewSession(checkout.Deps{
			Cart:      s.Cart,
			Account:   s.Account,
			Orders:    s.Book,
			Gateway:   s.deps.Backend,
			Locations: s.deps.Locations,
			Config:    s.deps.Checkout,
			Metrics:   rec,
			Logger:    s.deps.Logger,
		})
	}
	return s.checkout
}

// Registry hands out the State of a session id, building it on first sight.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
	deps   Deps
	now    func() time.Time
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		states: make(map[string]*State),
		deps:   deps,
		now:    time.Now,
	}
}

func (r *Registry) Get(ctx context.Context, id string) *State {
	r.mu.Lock()
	s, ok := r.states[id]
	if ok {
		s.lastSeen = r.now()
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	// Built outside the lock, restoring an account goes to the network.
	fresh := newState(ctx, id, r.deps)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[id]; ok {
		s.lastSeen = r.now()
		return s
	}
	fresh.lastSeen = r.now()
	r.states[id] = fresh
	return fresh
}

// Sweep drops sessions idle for longer than maxIdle. Their persisted data
// stays in storage and is picked up again on the next request.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxIdle)
	n := 0
	for id, s := range r.states {
		if s.lastSeen.Before(cutoff) {
			delete(r.states, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
