package orders

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/storefront/pkg/logger"
	"go.uber.org/zap"
)

type Refresher interface {
	RefreshOrders(ctx context.Context) error
}

type TickObserver interface {
	PollTick()
}

// Poller refreshes the order list on a fixed interval while a tracking view
// is open. Ticks do not wait for each other; whichever response lands last
// wins.
type Poller struct {
	interval time.Duration
	target   Refresher
	observer TickObserver
	log      *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	inflight sync.WaitGroup
}

func NewPoller(target Refresher, interval time.Duration, observer TickObserver, log *zap.Logger) *Poller {
	return &Poller{
		interval: interval,
		target:   target,
		observer: observer,
		log:      logger.OrNop(log),
		stop:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called. In-flight refreshes
// are left to finish on their own.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if p.observer != nil {
		p.observer.PollTick()
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		if err := p.target.RefreshOrders(ctx); err != nil && ctx.Err() == nil {
			logger.FromContext(ctx, p.log).Warn("order refresh failed", zap.Error(err))
		}
	}()
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Wait blocks until every refresh started by Run has returned.
func (p *Poller) Wait() {
	p.inflight.Wait()
}
