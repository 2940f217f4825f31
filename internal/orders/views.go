package orders

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/storefront/pkg/logger"
	"go.uber.org/zap"
)

// Views keeps one Poller running while at least one tracking view is open.
// A view stays open until Close, or until it has not been renewed for the
// idle period passed to Expire.
type Views struct {
	base      context.Context
	newPoller func() *Poller
	log       *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	open   map[string]time.Time
	poller *Poller
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

// NewViews builds the view set. Pollers are created by newPoller on demand
// and run under ctx.
func NewViews(ctx context.Context, newPoller func() *Poller, log *zap.Logger) *Views {
	return &Views{
		base:      ctx,
		newPoller: newPoller,
		log:       logger.OrNop(log),
		now:       time.Now,
		open:      make(map[string]time.Time),
	}
}

// Open registers or renews a view. It reports whether this call started
// polling.
func (v *Views) Open(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.open[id] = v.now()
	if v.poller != nil {
		return false
	}

	p := v.newPoller()
	ctx, cancel := context.WithCancel(v.base)
	v.poller, v.cancel = p, cancel
	v.runs.Add(1)
	go func() {
		defer v.runs.Done()
		p.Run(ctx)
		p.Wait()
	}()
	v.log.Debug("order polling started", zap.String("view", id))
	return true
}

func (v *Views) Close(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.open, id)
	v.stopIfIdle()
}

// Expire closes views not renewed within maxIdle and returns how many it
// closed.
func (v *Views) Expire(maxIdle time.Duration) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	cutoff := v.now().Add(-maxIdle)
	n := 0
	for id, seen := range v.open {
		if seen.Before(cutoff) {
			delete(v.open, id)
			n++
		}
	}
	v.stopIfIdle()
	return n
}

func (v *Views) Active() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.open)
}

func (v *Views) Polling() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.poller != nil
}

// Shutdown closes every view and waits for running refreshes to return.
func (v *Views) Shutdown() {
	v.mu.Lock()
	clear(v.open)
	v.stopIfIdle()
	v.mu.Unlock()
	v.runs.Wait()
}

// stopIfIdle expects v.mu held.
func (v *Views) stopIfIdle() {
	if len(v.open) > 0 || v.poller == nil {
		return
	}
	v.poller.Stop()
	v.cancel()
	v.poller, v.cancel = nil, nil
	v.log.Debug("order polling stopped")
}
